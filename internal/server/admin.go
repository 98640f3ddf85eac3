package server

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/jarvis-math-lab/backend/internal/auth"
	"github.com/jarvis-math-lab/backend/internal/game"
	"go.uber.org/zap"
)

const maxRestoreBytes = 5 << 20

// authorizeAdmin admits requests carrying the configured pin in X-Admin-Pin
// or a valid Bearer admin session token.
func (h *httpHandler) authorizeAdmin(c *gin.Context) {
	if auth.PinMatches(h.adminPin, c.GetHeader(adminPinHeader)) {
		c.Next()
		return
	}
	if h.tokens != nil {
		header := c.GetHeader("Authorization")
		if strings.HasPrefix(header, "Bearer ") {
			token := strings.TrimSpace(strings.TrimPrefix(header, "Bearer "))
			if token != "" {
				err := h.tokens.ValidateToken(token)
				if err == nil {
					c.Next()
					return
				}
				h.logger.Warn("admin token validation failed", zap.Error(err))
			}
		}
	}
	c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"ok": false, "error": "admin pin required"})
}

type adminSessionPayload struct {
	Pin string `json:"pin"`
}

// handleAdminSession exchanges the admin pin for a short-lived session token,
// so admin tooling does not have to hold the pin for every call.
func (h *httpHandler) handleAdminSession(c *gin.Context) {
	var request adminSessionPayload
	if err := c.ShouldBindJSON(&request); err != nil && !errors.Is(err, io.EOF) {
		failJSON(c, http.StatusBadRequest, "invalid request")
		return
	}
	if !auth.PinMatches(h.adminPin, request.Pin) {
		failJSON(c, http.StatusForbidden, "admin pin required")
		return
	}
	if h.tokens == nil {
		failJSON(c, http.StatusServiceUnavailable, "admin tokens not configured")
		return
	}

	token, expiresIn, err := h.tokens.IssueAdminToken()
	if err != nil {
		h.internalError(c, "admin_session", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"ok": true, "token": token, "expiresIn": expiresIn})
}

func (h *httpHandler) handleAdminListUsers(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"ok": true, "users": h.game.ListAccounts()})
}

func (h *httpHandler) handleAdminCreateUser(c *gin.Context) {
	var request credentialsPayload
	if err := c.ShouldBindJSON(&request); err != nil && !errors.Is(err, io.EOF) {
		failJSON(c, http.StatusBadRequest, "invalid request")
		return
	}
	if request.Username == "" || request.Password == "" {
		failJSON(c, http.StatusOK, "username and password are required")
		return
	}

	users, err := h.game.CreateAccount(request.Username, request.Password)
	switch {
	case errors.Is(err, game.ErrDuplicateUsername):
		failJSON(c, http.StatusOK, "username already exists")
	case err != nil:
		h.internalError(c, "admin_create_user", err)
	default:
		c.JSON(http.StatusOK, gin.H{"ok": true, "users": users})
	}
}

func (h *httpHandler) handleAdminUpdateUser(c *gin.Context) {
	var update game.AdminAccountUpdate
	if err := c.ShouldBindJSON(&update); err != nil && !errors.Is(err, io.EOF) {
		failJSON(c, http.StatusBadRequest, "invalid request")
		return
	}

	account, err := h.game.UpdateAccount(c.Param("username"), update)
	switch {
	case errors.Is(err, game.ErrUnknownUser):
		failJSON(c, http.StatusNotFound, "user not found")
	case err != nil:
		h.internalError(c, "admin_update_user", err)
	default:
		c.JSON(http.StatusOK, gin.H{"ok": true, "user": account})
	}
}

func (h *httpHandler) handleAdminDeleteUser(c *gin.Context) {
	users, err := h.game.DeleteAccount(c.Param("username"))
	switch {
	case errors.Is(err, game.ErrUnknownUser):
		failJSON(c, http.StatusNotFound, "user not found")
	case err != nil:
		h.internalError(c, "admin_delete_user", err)
	default:
		c.JSON(http.StatusOK, gin.H{"ok": true, "users": users})
	}
}

func (h *httpHandler) handleAdminGetSettings(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"ok": true, "settings": h.game.Settings()})
}

type settingsPayload struct {
	Levels []json.RawMessage `json:"levels"`
}

func (h *httpHandler) handleAdminSaveSettings(c *gin.Context) {
	var request settingsPayload
	if err := c.ShouldBindJSON(&request); err != nil && !errors.Is(err, io.EOF) {
		failJSON(c, http.StatusBadRequest, "invalid request")
		return
	}

	err := h.game.SaveSettings(request.Levels)
	switch {
	case errors.Is(err, game.ErrInvalidSettings):
		failJSON(c, http.StatusOK, "invalid settings format")
	case err != nil:
		h.internalError(c, "admin_save_settings", err)
	default:
		c.JSON(http.StatusOK, gin.H{"ok": true})
	}
}

func (h *httpHandler) handleAdminRecords(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"ok": true, "runs": h.game.RunHistory(c.Param("username"))})
}

func (h *httpHandler) handleAdminUserList(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"ok": true, "users": h.game.Usernames()})
}

func (h *httpHandler) handleAdminBackup(c *gin.Context) {
	filename := fmt.Sprintf("mathlab-backup-%s.json", time.Now().UTC().Format("2006-01-02"))
	c.Header("Content-Disposition", "attachment; filename="+filename)
	c.JSON(http.StatusOK, h.game.Export())
}

func (h *httpHandler) handleAdminRestore(c *gin.Context) {
	raw, err := io.ReadAll(io.LimitReader(c.Request.Body, maxRestoreBytes))
	if err != nil {
		failJSON(c, http.StatusBadRequest, "invalid request")
		return
	}

	err = h.game.Restore(raw)
	switch {
	case errors.Is(err, game.ErrInvalidBackup):
		failJSON(c, http.StatusOK, "invalid backup format")
	case err != nil:
		h.internalError(c, "admin_restore", err)
	default:
		c.JSON(http.StatusOK, gin.H{"ok": true, "msg": "data restored"})
	}
}
