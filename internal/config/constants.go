package config

import "time"

const (
	// AI request timeouts
	RequestTimeout  = 90 * time.Second
	ClassifyTimeout = 15 * time.Second

	// Generation defaults
	DefaultTemperature = 0.7
	MaxOutputTokens    = 1024

	// Media enrichment
	MaxItemsPerCategory = 3

	// Admin uploads
	MaxUploadSize = 10 << 20 // 10 MB

	// Database pool
	DBMaxConns        = 10
	DBMinConns        = 2
	DBConnMaxIdleTime = 5 * time.Minute

	// Write-behind mirroring
	MirrorQueueSize    = 256
	MirrorRetryDelay   = 500 * time.Millisecond
	MirrorWriteTimeout = 10 * time.Second

	// HTTP server
	ReadTimeout     = 30 * time.Second
	WriteTimeout    = 120 * time.Second
	ShutdownTimeout = 10 * time.Second
)

// AllowedUploadTypes maps permitted file extensions to their MIME types.
var AllowedUploadTypes = map[string]string{
	".pdf": "application/pdf",
	".txt": "text/plain",
	".md":  "text/markdown",
}
