package handler

import (
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/yanwarin/hospital-chatbot/internal/config"
	"github.com/yanwarin/hospital-chatbot/internal/domain"
)

// HandleChat processes POST /api/chat.
func (h *Handler) HandleChat(c *gin.Context) {
	var req chatRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, errorResponse{Error: "invalid request body"})
		return
	}
	if strings.TrimSpace(req.Message) == "" {
		c.JSON(http.StatusBadRequest, errorResponse{Error: "message is required"})
		return
	}

	result, err := h.chat.Respond(c.Request.Context(), req.SessionID, req.Message)
	if err != nil {
		if errors.Is(err, domain.ErrEmptyMessage) {
			c.JSON(http.StatusBadRequest, errorResponse{Error: err.Error()})
			return
		}
		slog.Error("chat request failed", "session", req.SessionID, "error", err)
		c.JSON(http.StatusBadGateway, errorResponse{
			Error: "The assistant is unavailable right now. Please try again in a moment.",
		})
		return
	}

	images, videos := splitMedia(result.Media)
	c.JSON(http.StatusOK, chatResponse{
		Response:  result.Response,
		SessionID: result.SessionKey,
		Images:    images,
		Videos:    videos,
	})
}

// HandleConfig serves the immutable chat options consumed by the UI.
func (h *Handler) HandleConfig(c *gin.Context) {
	c.JSON(http.StatusOK, domain.ChatOptions{
		Endpoint:        "/api/chat",
		Model:           h.cfg.GeminiModel,
		Temperature:     config.DefaultTemperature,
		MaxOutputTokens: config.MaxOutputTokens,
		Streaming:       false,
	})
}
