package handler

import (
	"io/fs"
	"net/http"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/yanwarin/hospital-chatbot/internal/middleware"
)

// Router builds the gin engine with all routes and middleware. webFS is the
// embedded browser UI, rooted at its index.html.
func (h *Handler) Router(webFS fs.FS) *gin.Engine {
	gin.SetMode(gin.ReleaseMode)
	engine := gin.New()
	engine.Use(middleware.Recover())
	engine.Use(middleware.Logging())

	corsConfig := cors.DefaultConfig()
	if len(h.cfg.AllowedOrigins) > 0 {
		corsConfig.AllowOrigins = h.cfg.AllowedOrigins
	} else {
		corsConfig.AllowAllOrigins = true
	}
	corsConfig.AllowMethods = []string{"GET", "POST", "DELETE", "OPTIONS"}
	corsConfig.AllowHeaders = []string{"Origin", "Content-Type", "Authorization"}
	engine.Use(cors.New(corsConfig))

	api := engine.Group("/api")
	api.GET("/health", h.HandleHealth)
	api.GET("/config", h.HandleConfig)
	api.GET("/stats", h.HandleStats)
	api.POST("/chat", h.HandleChat)
	api.GET("/sessions/:key/history", h.HandleHistory)
	api.DELETE("/sessions/:key", h.HandleClearSession)

	admin := api.Group("/admin")
	admin.POST("/login", h.HandleAdminLogin)
	authed := admin.Group("", h.requireAdmin)
	authed.GET("/sessions", h.HandleAdminSessions)
	authed.GET("/documents", h.HandleListDocuments)
	authed.POST("/documents", h.HandleUploadDocument)
	authed.POST("/documents/import", h.HandleImportDocument)
	authed.DELETE("/documents/:id", h.HandleDeleteDocument)

	if webFS != nil {
		engine.NoRoute(gin.WrapH(http.FileServer(http.FS(webFS))))
	}

	return engine
}

func (h *Handler) HandleHealth(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}
