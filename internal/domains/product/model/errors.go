package model

import "errors"

var (
	ErrProductNotFound = errors.New("product not found")
	ErrNoFile          = errors.New("product has no downloadable file")
)
