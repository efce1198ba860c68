package asset

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"mime"
	"path"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"marketplace-backend/internal/infrastructure/storage"
	"marketplace-backend/internal/shared/utils"
)

const (
	// PlaceholderRef is the image reference of a product without a preview image.
	PlaceholderRef = "/placeholder.svg"
	// RefPrefix is prepended to every stored blob name.
	RefPrefix = "/uploads/"
)

// Backend is the blob store behind the manager (local dir, MinIO, S3).
type Backend interface {
	Write(ctx context.Context, name string, r io.Reader, size int64, contentType string) error
	Delete(ctx context.Context, name string) error
	Exists(ctx context.Context, name string) (bool, error)
	Open(ctx context.Context, name string) (io.ReadCloser, error)
	List(ctx context.Context) ([]storage.Object, error)
}

// RetryQueue receives removals that failed and should be retried later.
type RetryQueue interface {
	EnqueueAssetRemoval(ctx context.Context, ref, reason string) error
}

type Manager struct {
	backend     Backend
	images      *storage.ImageProcessor
	retry       RetryQueue
	maxFileSize int64
}

type Option func(*Manager)

func WithRetryQueue(q RetryQueue) Option {
	return func(m *Manager) { m.retry = q }
}

func WithImageProcessor(p *storage.ImageProcessor) Option {
	return func(m *Manager) { m.images = p }
}

// WithMaxFileSize bounds Store; 0 means unlimited.
func WithMaxFileSize(n int64) Option {
	return func(m *Manager) { m.maxFileSize = n }
}

func NewManager(backend Backend, opts ...Option) *Manager {
	m := &Manager{
		backend: backend,
		images:  storage.NewImageProcessor(0, 0),
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

func IsPlaceholder(ref string) bool {
	return ref == PlaceholderRef
}

// NameFromRef extracts the blob name from "/uploads/<name>".
func NameFromRef(ref string) (string, error) {
	name, ok := strings.CutPrefix(ref, RefPrefix)
	if !ok || name == "" || name != path.Base(name) || strings.HasPrefix(name, ".") {
		return "", fmt.Errorf("%w: %q", ErrInvalidRef, ref)
	}
	return name, nil
}

func newName(originalName string) string {
	return uuid.NewString() + "-" + utils.SanitizeFilename(originalName)
}

func contentTypeOf(name string) string {
	if ct := mime.TypeByExtension(strings.ToLower(filepath.Ext(name))); ct != "" {
		return ct
	}
	return "application/octet-stream"
}

// Store writes a downloadable file verbatim under a fresh unique name
// and returns its reference.
func (m *Manager) Store(ctx context.Context, payload io.Reader, originalName string) (string, error) {
	size := payloadSize(payload)
	if size >= 0 && m.maxFileSize > 0 && size > m.maxFileSize {
		assetOperations.WithLabelValues("store", "too_large").Inc()
		return "", fmt.Errorf("%w: file exceeds %d bytes", ErrPayloadTooLarge, m.maxFileSize)
	}

	name := newName(originalName)

	// Size đã biết thì đưa reader gốc (seekable) cho backend, S3 cần điều này
	cr := &countingReader{r: payload, limit: m.maxFileSize}
	body := payload
	if size < 0 {
		body = cr
	}

	if err := m.backend.Write(ctx, name, body, size, contentTypeOf(name)); err != nil {
		// Partial blob, nothing references it yet
		if delErr := m.backend.Delete(ctx, name); delErr != nil {
			log.Warn().Err(delErr).Str("name", name).Msg("[ASSET] Failed to clean partial write")
		}
		if cr.exceeded {
			assetOperations.WithLabelValues("store", "too_large").Inc()
			return "", fmt.Errorf("%w: file exceeds %d bytes", ErrPayloadTooLarge, m.maxFileSize)
		}
		assetOperations.WithLabelValues("store", "error").Inc()
		return "", fmt.Errorf("%w: %v", ErrAssetIO, err)
	}

	written := size
	if size < 0 {
		written = cr.n
	}
	assetOperations.WithLabelValues("store", "ok").Inc()
	assetBytesStored.Add(float64(written))
	return RefPrefix + name, nil
}

// payloadSize trả về số byte còn lại của một io.Seeker (multipart file,
// strings.Reader...), -1 nếu không xác định được. Vị trí đọc được giữ nguyên.
func payloadSize(r io.Reader) int64 {
	s, ok := r.(io.Seeker)
	if !ok {
		return -1
	}
	cur, err := s.Seek(0, io.SeekCurrent)
	if err != nil {
		return -1
	}
	end, err := s.Seek(0, io.SeekEnd)
	if err != nil {
		return -1
	}
	if _, err := s.Seek(cur, io.SeekStart); err != nil {
		return -1
	}
	return end - cur
}

// StoreImage validates the payload as an image, downscales it when needed
// and stores the result.
func (m *Manager) StoreImage(ctx context.Context, payload io.Reader, originalName string) (string, error) {
	data, err := io.ReadAll(io.LimitReader(payload, m.images.MaxSize+1))
	if err != nil {
		return "", fmt.Errorf("read image: %w", err)
	}

	processed, contentType, err := m.images.Process(data)
	if err != nil {
		assetOperations.WithLabelValues("store", "rejected").Inc()
		return "", err
	}

	name := newName(originalName)
	if err := m.backend.Write(ctx, name, bytes.NewReader(processed), int64(len(processed)), contentType); err != nil {
		if delErr := m.backend.Delete(ctx, name); delErr != nil {
			log.Warn().Err(delErr).Str("name", name).Msg("[ASSET] Failed to clean partial write")
		}
		assetOperations.WithLabelValues("store", "error").Inc()
		return "", fmt.Errorf("%w: %v", ErrAssetIO, err)
	}

	assetOperations.WithLabelValues("store", "ok").Inc()
	assetBytesStored.Add(float64(len(processed)))
	return RefPrefix + name, nil
}

// Delete removes the blob behind ref and reports backend failures.
// Placeholder and empty references are no-ops; a missing blob is not an error.
func (m *Manager) Delete(ctx context.Context, ref string) error {
	if ref == "" || IsPlaceholder(ref) {
		return nil
	}
	name, err := NameFromRef(ref)
	if err != nil {
		return err
	}
	if err := m.backend.Delete(ctx, name); err != nil {
		return fmt.Errorf("%w: %v", ErrAssetIO, err)
	}
	return nil
}

// Remove is the best-effort form of Delete: failures are logged, counted
// and handed to the retry queue, never returned.
func (m *Manager) Remove(ctx context.Context, ref string) {
	err := m.Delete(ctx, ref)
	if err == nil {
		if ref != "" && !IsPlaceholder(ref) {
			assetOperations.WithLabelValues("remove", "ok").Inc()
		}
		return
	}

	if errors.Is(err, ErrInvalidRef) {
		log.Warn().Str("ref", ref).Msg("[ASSET] Skipping removal of foreign reference")
		return
	}

	assetOperations.WithLabelValues("remove", "error").Inc()
	log.Error().Err(err).Str("ref", ref).Msg("[ASSET] Failed to remove asset")

	if m.retry == nil {
		return
	}
	// Request context may already be cancelled
	enqueueCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 5*time.Second)
	defer cancel()
	if qErr := m.retry.EnqueueAssetRemoval(enqueueCtx, ref, err.Error()); qErr != nil {
		log.Error().Err(qErr).Str("ref", ref).Msg("[ASSET] Failed to enqueue removal retry")
		return
	}
	assetOperations.WithLabelValues("remove", "retry_enqueued").Inc()
}

// Exists reports whether ref points at a stored blob. The placeholder never exists.
func (m *Manager) Exists(ctx context.Context, ref string) (bool, error) {
	if ref == "" || IsPlaceholder(ref) {
		return false, nil
	}
	name, err := NameFromRef(ref)
	if err != nil {
		return false, nil
	}
	ok, err := m.backend.Exists(ctx, name)
	if err != nil {
		return false, fmt.Errorf("%w: %v", ErrAssetIO, err)
	}
	return ok, nil
}

// Open returns the blob content; the caller closes it.
func (m *Manager) Open(ctx context.Context, ref string) (io.ReadCloser, error) {
	if ref == "" || IsPlaceholder(ref) {
		return nil, ErrAssetNotFound
	}
	name, err := NameFromRef(ref)
	if err != nil {
		return nil, ErrAssetNotFound
	}
	rc, err := m.backend.Open(ctx, name)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return nil, ErrAssetNotFound
		}
		return nil, fmt.Errorf("%w: %v", ErrAssetIO, err)
	}
	return rc, nil
}

// ContentType guesses the MIME type of ref from its extension.
func ContentType(ref string) string {
	return contentTypeOf(ref)
}

// SweepOrphans removes blobs that no record references and that are older
// than cutoff. Returns the number removed.
func (m *Manager) SweepOrphans(ctx context.Context, referenced map[string]struct{}, cutoff time.Time) (int, error) {
	objects, err := m.backend.List(ctx)
	if err != nil {
		return 0, fmt.Errorf("%w: %v", ErrAssetIO, err)
	}

	removed := 0
	for _, obj := range objects {
		if ctx.Err() != nil {
			return removed, ctx.Err()
		}
		if _, ok := referenced[RefPrefix+obj.Name]; ok {
			continue
		}
		// Newer blobs may belong to an operation still in flight
		if obj.ModifiedAt.After(cutoff) {
			continue
		}
		if err := m.backend.Delete(ctx, obj.Name); err != nil {
			log.Warn().Err(err).Str("name", obj.Name).Msg("[ASSET] Sweep failed to remove orphan")
			assetOperations.WithLabelValues("sweep", "error").Inc()
			continue
		}
		removed++
		assetOperations.WithLabelValues("sweep", "ok").Inc()
	}
	return removed, nil
}

type countingReader struct {
	r        io.Reader
	n        int64
	limit    int64
	exceeded bool
}

func (c *countingReader) Read(p []byte) (int, error) {
	n, err := c.r.Read(p)
	c.n += int64(n)
	if c.limit > 0 && c.n > c.limit {
		c.exceeded = true
		return n, ErrPayloadTooLarge
	}
	return n, err
}
