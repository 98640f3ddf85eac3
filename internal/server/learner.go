package server

import (
	"errors"
	"io"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/jarvis-math-lab/backend/internal/game"
)

type credentialsPayload struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

func (h *httpHandler) handleRegister(c *gin.Context) {
	var request credentialsPayload
	if err := c.ShouldBindJSON(&request); err != nil && !errors.Is(err, io.EOF) {
		failJSON(c, http.StatusBadRequest, "invalid request")
		return
	}
	if strings.TrimSpace(request.Username) == "" || request.Password == "" {
		failJSON(c, http.StatusOK, "username and password are required")
		return
	}

	account, err := h.game.Register(request.Username, request.Password)
	switch {
	case errors.Is(err, game.ErrInvalidUsername):
		failJSON(c, http.StatusOK, "username must be 2-20 letters, digits, underscores, or CJK characters")
	case errors.Is(err, game.ErrWeakPassword):
		failJSON(c, http.StatusOK, "password must be at least 6 characters")
	case errors.Is(err, game.ErrDuplicateUsername):
		failJSON(c, http.StatusOK, "username already exists")
	case err != nil:
		h.internalError(c, "register", err)
	default:
		c.JSON(http.StatusOK, gin.H{"ok": true, "user": account})
	}
}

func (h *httpHandler) handleLogin(c *gin.Context) {
	var request credentialsPayload
	if err := c.ShouldBindJSON(&request); err != nil && !errors.Is(err, io.EOF) {
		failJSON(c, http.StatusBadRequest, "invalid request")
		return
	}
	if request.Username == "" || request.Password == "" {
		failJSON(c, http.StatusOK, "username and password are required")
		return
	}

	account, err := h.game.Authenticate(request.Username, request.Password)
	switch {
	case errors.Is(err, game.ErrUnknownUser):
		failJSON(c, http.StatusOK, "user not found")
	case errors.Is(err, game.ErrWrongPassword):
		failJSON(c, http.StatusOK, "wrong password")
	case err != nil:
		h.internalError(c, "login", err)
	default:
		c.JSON(http.StatusOK, gin.H{"ok": true, "user": account})
	}
}

func (h *httpHandler) handleGetUser(c *gin.Context) {
	account, err := h.game.GetAccount(c.Param("username"))
	if errors.Is(err, game.ErrUnknownUser) {
		failJSON(c, http.StatusNotFound, "user not found")
		return
	}
	c.JSON(http.StatusOK, gin.H{"ok": true, "user": account})
}

func (h *httpHandler) handleUpdateProgress(c *gin.Context) {
	var update game.ProgressUpdate
	if err := c.ShouldBindJSON(&update); err != nil && !errors.Is(err, io.EOF) {
		failJSON(c, http.StatusBadRequest, "invalid request")
		return
	}

	account, err := h.game.ApplyProgress(c.Param("username"), update)
	switch {
	case errors.Is(err, game.ErrUnknownUser):
		failJSON(c, http.StatusNotFound, "user not found")
	case err != nil:
		h.internalError(c, "update_progress", err)
	default:
		c.JSON(http.StatusOK, gin.H{"ok": true, "user": account})
	}
}

type changePasswordPayload struct {
	CurrentPassword string `json:"currentPassword"`
	NewPassword     string `json:"newPassword"`
}

func (h *httpHandler) handleChangePassword(c *gin.Context) {
	var request changePasswordPayload
	if err := c.ShouldBindJSON(&request); err != nil && !errors.Is(err, io.EOF) {
		failJSON(c, http.StatusBadRequest, "invalid request")
		return
	}
	if request.CurrentPassword == "" || request.NewPassword == "" {
		failJSON(c, http.StatusOK, "current and new password are required")
		return
	}

	err := h.game.ChangePassword(c.Param("username"), request.CurrentPassword, request.NewPassword)
	switch {
	case errors.Is(err, game.ErrWeakPassword):
		failJSON(c, http.StatusOK, "new password must be at least 6 characters")
	case errors.Is(err, game.ErrUnknownUser):
		failJSON(c, http.StatusNotFound, "user not found")
	case errors.Is(err, game.ErrWrongPassword):
		failJSON(c, http.StatusOK, "wrong current password")
	case err != nil:
		h.internalError(c, "change_password", err)
	default:
		c.JSON(http.StatusOK, gin.H{"ok": true})
	}
}

func (h *httpHandler) handleListRuns(c *gin.Context) {
	runs, err := h.game.ListRuns(c.Param("username"))
	if errors.Is(err, game.ErrUnknownUser) {
		failJSON(c, http.StatusNotFound, "user not found")
		return
	}
	c.JSON(http.StatusOK, gin.H{"ok": true, "runs": runs})
}

func (h *httpHandler) handleAppendRun(c *gin.Context) {
	var submission game.RunSubmission
	if err := c.ShouldBindJSON(&submission); err != nil && !errors.Is(err, io.EOF) {
		failJSON(c, http.StatusBadRequest, "invalid request")
		return
	}

	_, err := h.game.AppendRun(c.Param("username"), submission)
	switch {
	case errors.Is(err, game.ErrUnknownUser):
		failJSON(c, http.StatusNotFound, "user not found")
	case err != nil:
		h.internalError(c, "append_run", err)
	default:
		c.JSON(http.StatusOK, gin.H{"ok": true})
	}
}

func (h *httpHandler) handleRanking(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"ok": true, "list": h.game.Ranking()})
}

func (h *httpHandler) handleSettings(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"ok": true, "settings": h.game.Settings()})
}
