package handler

import (
	"time"

	"github.com/yanwarin/hospital-chatbot/internal/domain"
)

type chatRequest struct {
	Message   string `json:"message"`
	SessionID string `json:"sessionId"`
}

type imageRef struct {
	URL     string `json:"url"`
	Caption string `json:"caption,omitempty"`
}

type videoRef struct {
	URL   string `json:"url"`
	Title string `json:"title,omitempty"`
}

type chatResponse struct {
	Response  string     `json:"response"`
	SessionID string     `json:"sessionId"`
	Images    []imageRef `json:"images,omitempty"`
	Videos    []videoRef `json:"videos,omitempty"`
}

type messageResponse struct {
	Role      string     `json:"role"`
	Content   string     `json:"content"`
	CreatedAt time.Time  `json:"createdAt"`
	Source    string     `json:"source"`
	Images    []imageRef `json:"images,omitempty"`
	Videos    []videoRef `json:"videos,omitempty"`
}

type historyResponse struct {
	SessionID string            `json:"sessionId"`
	Messages  []messageResponse `json:"messages"`
}

type statsResponse struct {
	SessionCount int64 `json:"sessionCount"`
	MessageCount int64 `json:"messageCount"`
}

type loginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type importRequest struct {
	URL string `json:"url"`
}

type errorResponse struct {
	Error string `json:"error"`
}

// splitMedia separates catalog items into the images/videos response shape.
func splitMedia(items []domain.MediaItem) ([]imageRef, []videoRef) {
	var images []imageRef
	var videos []videoRef
	for _, item := range items {
		switch item.Kind {
		case domain.MediaVideo:
			videos = append(videos, videoRef{URL: item.URL, Title: item.Title})
		default:
			images = append(images, imageRef{URL: item.URL, Caption: item.Title})
		}
	}
	return images, videos
}

func splitRefs(refs []domain.MediaRef) ([]imageRef, []videoRef) {
	var images []imageRef
	var videos []videoRef
	for _, r := range refs {
		switch r.Kind {
		case domain.MediaVideo:
			videos = append(videos, videoRef{URL: r.URL, Title: r.Title})
		default:
			images = append(images, imageRef{URL: r.URL, Caption: r.Title})
		}
	}
	return images, videos
}
