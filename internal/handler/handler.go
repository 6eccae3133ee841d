package handler

import (
	"github.com/yanwarin/hospital-chatbot/internal/config"
	"github.com/yanwarin/hospital-chatbot/internal/service"
)

// Handler holds all dependencies needed by the HTTP endpoints.
type Handler struct {
	cfg       *config.Config
	chat      *service.ChatService
	sessions  *service.SessionService
	documents *service.DocumentService
}

// Deps contains all dependencies required to construct a Handler.
type Deps struct {
	Cfg       *config.Config
	Chat      *service.ChatService
	Sessions  *service.SessionService
	Documents *service.DocumentService
}

// New creates a new Handler from the provided dependencies.
func New(deps Deps) *Handler {
	return &Handler{
		cfg:       deps.Cfg,
		chat:      deps.Chat,
		sessions:  deps.Sessions,
		documents: deps.Documents,
	}
}
