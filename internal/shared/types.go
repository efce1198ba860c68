package shared

// Asynq task types
const (
	TypeRemoveAsset       = "asset:remove"
	TypeSweepOrphanAssets = "asset:sweep_orphans"
)

// Asynq queues, weight in cmd/worker
const (
	QueueAsset   = "asset"
	QueueDefault = "default"
)

// RemoveAssetPayload: retry xóa một asset sau khi best-effort removal thất bại
type RemoveAssetPayload struct {
	Ref    string `json:"ref"`
	Reason string `json:"reason,omitempty"`
}

// SweepOrphansPayload cho scheduled job dọn blobs không còn được tham chiếu
type SweepOrphansPayload struct {
	GraceSeconds int64 `json:"grace_seconds"`
}
