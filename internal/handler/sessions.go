package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// HandleHistory serves GET /api/sessions/:key/history.
func (h *Handler) HandleHistory(c *gin.Context) {
	key := c.Param("key")
	msgs := h.sessions.History(c.Request.Context(), key)

	out := make([]messageResponse, 0, len(msgs))
	for _, m := range msgs {
		images, videos := splitRefs(m.Media)
		out = append(out, messageResponse{
			Role:      m.Role,
			Content:   m.Content,
			CreatedAt: m.CreatedAt,
			Source:    m.Source,
			Images:    images,
			Videos:    videos,
		})
	}
	c.JSON(http.StatusOK, historyResponse{SessionID: key, Messages: out})
}

// HandleClearSession serves DELETE /api/sessions/:key.
func (h *Handler) HandleClearSession(c *gin.Context) {
	h.sessions.Clear(c.Request.Context(), c.Param("key"))
	c.Status(http.StatusNoContent)
}

// HandleStats serves GET /api/stats.
func (h *Handler) HandleStats(c *gin.Context) {
	sessions, messages := h.sessions.Stats(c.Request.Context())
	c.JSON(http.StatusOK, statsResponse{SessionCount: sessions, MessageCount: messages})
}
