package integration_test

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/jarvis-math-lab/backend/internal/auth"
	"github.com/jarvis-math-lab/backend/internal/game"
	"github.com/jarvis-math-lab/backend/internal/server"
	"github.com/jarvis-math-lab/backend/internal/storage"
	"go.uber.org/zap"
)

const (
	adminPin        = "2026"
	signingSecret   = "integration-secret"
	jsonContentType = "application/json"
)

func buildHandler(testContext *testing.T, dataDir string) http.Handler {
	testContext.Helper()

	store, err := storage.NewFileStore(dataDir)
	if err != nil {
		testContext.Fatalf("failed to open file store: %v", err)
	}
	gameService, err := game.NewService(game.ServiceConfig{
		Store:  store,
		Logger: zap.NewNop(),
	})
	if err != nil {
		testContext.Fatalf("failed to build game service: %v", err)
	}
	if err := gameService.BackfillSurvivalFlags(); err != nil {
		testContext.Fatalf("failed to backfill survival flags: %v", err)
	}

	tokens := auth.NewTokenIssuer(auth.TokenIssuerConfig{
		SigningSecret: []byte(signingSecret),
		Issuer:        "mathlab-auth",
		Audience:      "mathlab-admin",
		TokenTTL:      5 * time.Minute,
	})

	handler, err := server.NewHTTPHandler(server.Dependencies{
		GameService: gameService,
		AdminPin:    adminPin,
		Tokens:      tokens,
		Logger:      zap.NewNop(),
	})
	if err != nil {
		testContext.Fatalf("failed to build http handler: %v", err)
	}
	return handler
}

func postJSON(testContext *testing.T, handler http.Handler, path string, payload any, headers map[string]string) *httptest.ResponseRecorder {
	testContext.Helper()

	raw, err := json.Marshal(payload)
	if err != nil {
		testContext.Fatalf("failed to marshal payload: %v", err)
	}
	request := httptest.NewRequest(http.MethodPost, path, bytes.NewReader(raw))
	request.Header.Set("Content-Type", jsonContentType)
	for key, value := range headers {
		request.Header.Set(key, value)
	}
	recorder := httptest.NewRecorder()
	handler.ServeHTTP(recorder, request)
	return recorder
}

func getJSON(testContext *testing.T, handler http.Handler, path string, headers map[string]string) *httptest.ResponseRecorder {
	testContext.Helper()

	request := httptest.NewRequest(http.MethodGet, path, http.NoBody)
	for key, value := range headers {
		request.Header.Set(key, value)
	}
	recorder := httptest.NewRecorder()
	handler.ServeHTTP(recorder, request)
	return recorder
}

func decodeEnvelope(testContext *testing.T, recorder *httptest.ResponseRecorder) map[string]json.RawMessage {
	testContext.Helper()

	envelope := map[string]json.RawMessage{}
	if err := json.Unmarshal(recorder.Body.Bytes(), &envelope); err != nil {
		testContext.Fatalf("response is not a JSON object: %v (%s)", err, recorder.Body.String())
	}
	return envelope
}

func requireOK(testContext *testing.T, recorder *httptest.ResponseRecorder) map[string]json.RawMessage {
	testContext.Helper()

	if recorder.Code != http.StatusOK {
		testContext.Fatalf("expected status 200, got %d: %s", recorder.Code, recorder.Body.String())
	}
	envelope := decodeEnvelope(testContext, recorder)
	var ok bool
	if err := json.Unmarshal(envelope["ok"], &ok); err != nil || !ok {
		testContext.Fatalf("expected ok envelope, got %s", recorder.Body.String())
	}
	return envelope
}

func TestGameFlowEndToEnd(testContext *testing.T) {
	gin.SetMode(gin.TestMode)

	handler := buildHandler(testContext, testContext.TempDir())

	// Register and log in.
	requireOK(testContext, postJSON(testContext, handler, "/api/register",
		gin.H{"username": "mia", "password": "secret99"}, nil))
	requireOK(testContext, postJSON(testContext, handler, "/api/login",
		gin.H{"username": "mia", "password": "secret99"}, nil))

	// A cleared survival run lands on the leaderboard and stamps the account.
	requireOK(testContext, postJSON(testContext, handler, "/api/user/mia/runs", gin.H{
		"mode":            "survival",
		"survivalTimeSec": 31.5,
		"wrongCount":      2,
		"survivalCleared": true,
		"ts":              1234,
	}, nil))

	envelope := requireOK(testContext, getJSON(testContext, handler, "/api/survival-ranking", nil))
	var list []game.RankedEntry
	if err := json.Unmarshal(envelope["list"], &list); err != nil {
		testContext.Fatalf("failed to decode leaderboard: %v", err)
	}
	if len(list) != 1 || list[0].Username != "mia" || list[0].Rank != 1 {
		testContext.Fatalf("unexpected leaderboard: %#v", list)
	}

	envelope = requireOK(testContext, getJSON(testContext, handler, "/api/user/mia", nil))
	var account game.Account
	if err := json.Unmarshal(envelope["user"], &account); err != nil {
		testContext.Fatalf("failed to decode account: %v", err)
	}
	if account.HasClearedSurvival == nil || !*account.HasClearedSurvival {
		testContext.Fatalf("expected survival flag on profile, got %#v", account.HasClearedSurvival)
	}

	// Admin session token gates the backup download.
	envelope = requireOK(testContext, postJSON(testContext, handler, "/api/admin/session",
		gin.H{"pin": adminPin}, nil))
	var token string
	if err := json.Unmarshal(envelope["token"], &token); err != nil || token == "" {
		testContext.Fatalf("expected admin session token, got %s", envelope["token"])
	}
	bearer := map[string]string{"Authorization": "Bearer " + token}

	backup := getJSON(testContext, handler, "/api/admin/backup", bearer)
	if backup.Code != http.StatusOK {
		testContext.Fatalf("expected backup download, got %d", backup.Code)
	}

	// Restore the snapshot into a second instance on a fresh data directory.
	restored := buildHandler(testContext, testContext.TempDir())
	request := httptest.NewRequest(http.MethodPost, "/api/admin/restore", bytes.NewReader(backup.Body.Bytes()))
	request.Header.Set("Content-Type", jsonContentType)
	request.Header.Set("X-Admin-Pin", adminPin)
	recorder := httptest.NewRecorder()
	restored.ServeHTTP(recorder, request)
	if recorder.Code != http.StatusOK {
		testContext.Fatalf("expected restore accepted, got %d: %s", recorder.Code, recorder.Body.String())
	}

	requireOK(testContext, postJSON(testContext, restored, "/api/login",
		gin.H{"username": "mia", "password": "secret99"}, nil))
	envelope = requireOK(testContext, getJSON(testContext, restored, "/api/survival-ranking", nil))
	if err := json.Unmarshal(envelope["list"], &list); err != nil || len(list) != 1 {
		testContext.Fatalf("expected leaderboard to survive restore, got %s", envelope["list"])
	}
}

func TestLegacyPlaintextAccountsUpgradeAcrossRestarts(testContext *testing.T) {
	gin.SetMode(gin.TestMode)
	dataDir := testContext.TempDir()

	// Seed a data directory the way the pre-hashing releases wrote it.
	store, err := storage.NewFileStore(dataDir)
	if err != nil {
		testContext.Fatalf("failed to open file store: %v", err)
	}
	seed := map[string]any{"users": []map[string]any{{"username": "old_kid", "password": "abc123"}}}
	raw, err := json.Marshal(seed)
	if err != nil {
		testContext.Fatalf("failed to marshal seed: %v", err)
	}
	if err := store.Save(storage.CollectionUsers, raw); err != nil {
		testContext.Fatalf("failed to seed users: %v", err)
	}

	handler := buildHandler(testContext, dataDir)
	requireOK(testContext, postJSON(testContext, handler, "/api/login",
		gin.H{"username": "old_kid", "password": "abc123"}, nil))

	// After a restart on the same directory the upgraded hash still matches.
	restarted := buildHandler(testContext, dataDir)
	requireOK(testContext, postJSON(testContext, restarted, "/api/login",
		gin.H{"username": "old_kid", "password": "abc123"}, nil))

	recorder := postJSON(testContext, restarted, "/api/login",
		gin.H{"username": "old_kid", "password": "wrong1"}, nil)
	envelope := decodeEnvelope(testContext, recorder)
	var ok bool
	if err := json.Unmarshal(envelope["ok"], &ok); err != nil || ok {
		testContext.Fatalf("expected wrong password rejection, got %s", recorder.Body.String())
	}
}
