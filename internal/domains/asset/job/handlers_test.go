package job

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/hibiken/asynq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"marketplace-backend/internal/domains/asset"
	"marketplace-backend/internal/shared"
)

type fakeDeleter struct {
	err  error
	refs []string
}

func (f *fakeDeleter) Delete(_ context.Context, ref string) error {
	f.refs = append(f.refs, ref)
	return f.err
}

type fakeSweeper struct {
	referenced map[string]struct{}
	cutoff     time.Time
}

func (f *fakeSweeper) SweepOrphans(_ context.Context, referenced map[string]struct{}, cutoff time.Time) (int, error) {
	f.referenced = referenced
	f.cutoff = cutoff
	return 2, nil
}

type staticRefs struct {
	refs []string
	err  error
}

func (s staticRefs) ListAssetRefs(context.Context) ([]string, error) {
	return s.refs, s.err
}

func task(t *testing.T, typ string, payload any) *asynq.Task {
	t.Helper()
	b, err := json.Marshal(payload)
	require.NoError(t, err)
	return asynq.NewTask(typ, b)
}

func TestRemoveAssetHandler(t *testing.T) {
	d := &fakeDeleter{}
	h := NewRemoveAssetHandler(d)

	err := h.ProcessTask(context.Background(), task(t, shared.TypeRemoveAsset, shared.RemoveAssetPayload{Ref: "/uploads/a.bin"}))
	require.NoError(t, err)
	assert.Equal(t, []string{"/uploads/a.bin"}, d.refs)
}

func TestRemoveAssetHandler_RetriesOnFailure(t *testing.T) {
	h := NewRemoveAssetHandler(&fakeDeleter{err: asset.ErrAssetIO})

	err := h.ProcessTask(context.Background(), task(t, shared.TypeRemoveAsset, shared.RemoveAssetPayload{Ref: "/uploads/a.bin"}))
	require.Error(t, err)
	assert.False(t, errors.Is(err, asynq.SkipRetry))
}

func TestRemoveAssetHandler_SkipsInvalidRef(t *testing.T) {
	h := NewRemoveAssetHandler(&fakeDeleter{err: asset.ErrInvalidRef})

	err := h.ProcessTask(context.Background(), task(t, shared.TypeRemoveAsset, shared.RemoveAssetPayload{Ref: "http://x"}))
	assert.ErrorIs(t, err, asynq.SkipRetry)
}

func TestSweepOrphansHandler(t *testing.T) {
	s := &fakeSweeper{}
	h := NewSweepOrphansHandler(s,
		staticRefs{refs: []string{"/uploads/a.png", "/placeholder.svg"}},
		staticRefs{refs: []string{"/uploads/b.png"}},
	)
	now := time.Date(2026, 1, 2, 12, 0, 0, 0, time.UTC)
	h.now = func() time.Time { return now }

	err := h.ProcessTask(context.Background(), task(t, shared.TypeSweepOrphanAssets, shared.SweepOrphansPayload{GraceSeconds: 3600}))
	require.NoError(t, err)

	assert.Len(t, s.referenced, 3)
	assert.Contains(t, s.referenced, "/uploads/b.png")
	assert.Equal(t, now.Add(-time.Hour), s.cutoff)
}

func TestSweepOrphansHandler_AbortsWhenSourceFails(t *testing.T) {
	s := &fakeSweeper{}
	h := NewSweepOrphansHandler(s, staticRefs{err: errors.New("db down")})

	err := h.ProcessTask(context.Background(), task(t, shared.TypeSweepOrphanAssets, shared.SweepOrphansPayload{}))
	require.Error(t, err)
	assert.Nil(t, s.referenced)
}
