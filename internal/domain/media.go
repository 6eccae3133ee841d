package domain

type MediaKind string

const (
	MediaImage MediaKind = "image"
	MediaVideo MediaKind = "video"
)

// Category is a static classification label used to pick media for a reply.
// Categories are defined at process start and never mutated.
type Category struct {
	ID          string
	Description string
	// Triggers are matched as case-insensitive substrings by the fallback
	// classifier when the hosted model is unavailable.
	Triggers []string
}

// MediaItem is an entry of the fixed in-process catalog. Read-only at runtime.
type MediaItem struct {
	URL         string
	Title       string
	Category    string
	Kind        MediaKind
	Thumbnail   string
	Description string
}

// Ref converts a catalog item to the reference shape stored on messages.
func (m MediaItem) Ref() MediaRef {
	return MediaRef{URL: m.URL, Title: m.Title, Kind: m.Kind}
}
