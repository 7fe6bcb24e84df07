package repository

import "errors"

var (
	// ErrInvalidImageURL indicates an invalid document URL
	ErrInvalidImageURL = errors.New("invalid image URL")

	// ErrTemplateNotFound indicates the requested template does not exist
	ErrTemplateNotFound = errors.New("template not found")

	// ErrRepositoryUnavailable indicates the backing store is unavailable
	ErrRepositoryUnavailable = errors.New("repository unavailable")
)
