package asset

import (
	"errors"

	"marketplace-backend/internal/infrastructure/storage"
)

var (
	// ErrAssetIO wraps any backend failure while writing or reading a blob.
	ErrAssetIO = errors.New("asset storage failure")

	ErrAssetNotFound = errors.New("asset not found")
	ErrInvalidRef    = errors.New("not an asset reference")

	ErrInvalidImage    = storage.ErrInvalidImage
	ErrPayloadTooLarge = storage.ErrPayloadTooLarge
)
