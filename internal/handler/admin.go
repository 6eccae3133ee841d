package handler

import (
	"crypto/subtle"
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/yanwarin/hospital-chatbot/internal/domain"
)

func (h *Handler) checkCredentials(username, password string) bool {
	userOK := subtle.ConstantTimeCompare([]byte(username), []byte(h.cfg.AdminUsername)) == 1
	passOK := subtle.ConstantTimeCompare([]byte(password), []byte(h.cfg.AdminPassword)) == 1
	return userOK && passOK
}

// requireAdmin gates /api/admin routes with a basic-auth credential check.
func (h *Handler) requireAdmin(c *gin.Context) {
	username, password, ok := c.Request.BasicAuth()
	if !ok || !h.checkCredentials(username, password) {
		c.Header("WWW-Authenticate", `Basic realm="admin"`)
		c.AbortWithStatusJSON(http.StatusUnauthorized, errorResponse{Error: domain.ErrUnauthorized.Error()})
		return
	}
	c.Next()
}

// HandleAdminLogin verifies credentials for the admin UI.
func (h *Handler) HandleAdminLogin(c *gin.Context) {
	var req loginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, errorResponse{Error: "invalid request body"})
		return
	}
	if !h.checkCredentials(req.Username, req.Password) {
		c.JSON(http.StatusUnauthorized, errorResponse{Error: domain.ErrUnauthorized.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"ok": true})
}

// HandleAdminSessions lists the sessions resident in this process.
func (h *Handler) HandleAdminSessions(c *gin.Context) {
	c.JSON(http.StatusOK, h.sessions.List(c.Request.Context()))
}

// HandleUploadDocument serves POST /api/admin/documents (multipart).
func (h *Handler) HandleUploadDocument(c *gin.Context) {
	file, header, err := c.Request.FormFile("file")
	if err != nil {
		c.JSON(http.StatusBadRequest, errorResponse{Error: "file field is required"})
		return
	}
	defer file.Close()

	doc, err := h.documents.Upload(c.Request.Context(), header.Filename, header.Size, file)
	if err != nil {
		h.writeDocumentError(c, err)
		return
	}
	c.JSON(http.StatusCreated, doc)
}

// HandleListDocuments serves GET /api/admin/documents.
func (h *Handler) HandleListDocuments(c *gin.Context) {
	docs, err := h.documents.List(c.Request.Context())
	if err != nil {
		h.writeDocumentError(c, err)
		return
	}
	c.JSON(http.StatusOK, docs)
}

// HandleDeleteDocument serves DELETE /api/admin/documents/:id.
func (h *Handler) HandleDeleteDocument(c *gin.Context) {
	if err := h.documents.Delete(c.Request.Context(), c.Param("id")); err != nil {
		h.writeDocumentError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// HandleImportDocument serves POST /api/admin/documents/import.
func (h *Handler) HandleImportDocument(c *gin.Context) {
	var req importRequest
	if err := c.ShouldBindJSON(&req); err != nil || strings.TrimSpace(req.URL) == "" {
		c.JSON(http.StatusBadRequest, errorResponse{Error: "url is required"})
		return
	}

	doc, err := h.documents.ImportURL(c.Request.Context(), req.URL)
	if err != nil {
		h.writeDocumentError(c, err)
		return
	}
	c.JSON(http.StatusCreated, doc)
}

func (h *Handler) writeDocumentError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, domain.ErrFileTooLarge):
		c.JSON(http.StatusRequestEntityTooLarge, errorResponse{Error: err.Error()})
	case errors.Is(err, domain.ErrFileTypeNotAllowed):
		c.JSON(http.StatusUnsupportedMediaType, errorResponse{Error: err.Error()})
	case errors.Is(err, domain.ErrDocumentNotFound):
		c.JSON(http.StatusNotFound, errorResponse{Error: err.Error()})
	case errors.Is(err, domain.ErrModelUnavailable):
		c.JSON(http.StatusServiceUnavailable, errorResponse{Error: err.Error()})
	default:
		slog.Error("document operation failed", "error", err)
		c.JSON(http.StatusInternalServerError, errorResponse{Error: "document operation failed"})
	}
}
