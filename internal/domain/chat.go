package domain

// ChatOptions is the immutable options record consumed by the browser UI.
// The core never mutates it.
type ChatOptions struct {
	Endpoint        string  `json:"endpoint"`
	Model           string  `json:"model"`
	Temperature     float64 `json:"temperature"`
	MaxOutputTokens int     `json:"maxOutputTokens"`
	Streaming       bool    `json:"streaming"`
}

// StoredDocument describes a document held by the hosted file-search store.
type StoredDocument struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	MimeType  string `json:"mimeType"`
	SizeBytes int64  `json:"sizeBytes"`
	CreatedAt string `json:"createdAt"`
}
