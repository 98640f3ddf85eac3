// Package server translates the REST endpoints of the drill game into game
// service operations. Responses use the {ok, error} envelope the game client
// expects.
package server

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/jarvis-math-lab/backend/internal/game"
	"go.uber.org/zap"
)

const (
	requestIDHeader = "X-Request-ID"
	adminPinHeader  = "X-Admin-Pin"
)

var (
	errMissingGameService = errors.New("game service dependency required")
	errMissingAdminPin    = errors.New("admin pin dependency required")
)

// AdminTokenIssuer mints and validates admin session tokens. Optional;
// pin-only deployments leave it nil.
type AdminTokenIssuer interface {
	IssueAdminToken() (string, int64, error)
	ValidateToken(token string) error
}

type Dependencies struct {
	GameService *game.Service
	AdminPin    string
	Tokens      AdminTokenIssuer
	Logger      *zap.Logger
}

func NewHTTPHandler(deps Dependencies) (http.Handler, error) {
	if deps.GameService == nil {
		return nil, errMissingGameService
	}
	if deps.AdminPin == "" {
		return nil, errMissingAdminPin
	}

	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(requestLogger(logger))
	router.Use(cors.New(cors.Config{
		AllowOrigins: []string{"*"},
		AllowMethods: []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete, http.MethodOptions},
		AllowHeaders: []string{"Authorization", "Content-Type", adminPinHeader},
		MaxAge:       12 * time.Hour,
	}))

	handler := &httpHandler{
		game:     deps.GameService,
		adminPin: deps.AdminPin,
		tokens:   deps.Tokens,
		logger:   logger,
	}

	router.GET("/api/health", handler.handleHealth)
	router.POST("/api/register", handler.handleRegister)
	router.POST("/api/login", handler.handleLogin)
	router.GET("/api/user/:username", handler.handleGetUser)
	router.PUT("/api/user/:username", handler.handleUpdateProgress)
	router.POST("/api/user/:username/change-password", handler.handleChangePassword)
	router.GET("/api/user/:username/runs", handler.handleListRuns)
	router.POST("/api/user/:username/runs", handler.handleAppendRun)
	router.GET("/api/survival-ranking", handler.handleRanking)
	router.GET("/api/settings", handler.handleSettings)
	router.POST("/api/admin/session", handler.handleAdminSession)

	admin := router.Group("/api/admin")
	admin.Use(handler.authorizeAdmin)
	admin.GET("/users", handler.handleAdminListUsers)
	admin.POST("/users", handler.handleAdminCreateUser)
	admin.PUT("/users/:username", handler.handleAdminUpdateUser)
	admin.DELETE("/users/:username", handler.handleAdminDeleteUser)
	admin.GET("/settings", handler.handleAdminGetSettings)
	admin.PUT("/settings", handler.handleAdminSaveSettings)
	admin.GET("/records/:username", handler.handleAdminRecords)
	admin.GET("/user-list", handler.handleAdminUserList)
	admin.GET("/backup", handler.handleAdminBackup)
	admin.POST("/restore", handler.handleAdminRestore)

	return router, nil
}

type httpHandler struct {
	game     *game.Service
	adminPin string
	tokens   AdminTokenIssuer
	logger   *zap.Logger
}

func (h *httpHandler) handleHealth(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"ok": true, "msg": "Jarvis Math Lab API"})
}

// failJSON answers the client-facing failure envelope. Learner-side
// validation failures keep status 200; not-found and authorization failures
// carry their own statuses.
func failJSON(c *gin.Context, status int, message string) {
	c.JSON(status, gin.H{"ok": false, "error": message})
}

func (h *httpHandler) internalError(c *gin.Context, operation string, err error) {
	h.logger.Error("request failed", zap.String("operation", operation), zap.Error(err))
	failJSON(c, http.StatusInternalServerError, "internal error")
}

func requestLogger(logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		requestID := c.GetHeader(requestIDHeader)
		if requestID == "" {
			requestID = uuid.NewString()
		}
		c.Header(requestIDHeader, requestID)

		c.Next()

		logger.Info("request handled",
			zap.String("request_id", requestID),
			zap.String("method", c.Request.Method),
			zap.String("path", c.Request.URL.Path),
			zap.Int("status", c.Writer.Status()),
			zap.Duration("duration", time.Since(start)))
	}
}
