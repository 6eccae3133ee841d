package domain

import "errors"

var (
	ErrSessionNotFound    = errors.New("session not found")
	ErrEmptyMessage       = errors.New("message is required")
	ErrModelUnavailable   = errors.New("completion service not configured")
	ErrFileTooLarge       = errors.New("file exceeds size limit")
	ErrFileTypeNotAllowed = errors.New("file type not allowed")
	ErrDocumentNotFound   = errors.New("document not found")
	ErrUnauthorized       = errors.New("invalid credentials")
)
