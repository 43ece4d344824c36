package app

import (
	"bitwise74/file-share-api/config"
	"bitwise74/file-share-api/db"
	"bitwise74/file-share-api/internal"
	"bitwise74/file-share-api/internal/metrics"
	"bitwise74/file-share-api/pkg/security"
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
)

type codeBox struct {
	mu    sync.Mutex
	codes map[string]string
}

func (b *codeBox) SendCode(_ context.Context, to, code string, _ time.Duration) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.codes[to] = code
	return nil
}

func (b *codeBox) code(to string) string {
	b.mu.Lock()
	defer b.mu.Unlock()

	return b.codes[to]
}

type memStore struct {
	mu      sync.Mutex
	objects map[string][]byte
}

func (s *memStore) Put(_ context.Context, key string, body io.Reader, _ int64, _ string) error {
	b, err := io.ReadAll(body)
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.objects[key] = b
	return nil
}

func (s *memStore) PresignGet(_ context.Context, key string, _ time.Duration) (string, error) {
	return "https://bucket.example/" + key + "?signed", nil
}

func (s *memStore) Delete(_ context.Context, keys ...string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, k := range keys {
		delete(s.objects, k)
	}

	return nil
}

type testServer struct {
	t      *testing.T
	router *gin.Engine
	codes  *codeBox
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	gin.SetMode(gin.TestMode)

	name := strings.ReplaceAll(t.Name(), "/", "_")
	database, err := db.Open(sqlite.Open(fmt.Sprintf("file:%s?mode=memory&cache=shared&_foreign_keys=on", name)))
	require.NoError(t, err)

	sqlDB, err := database.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { sqlDB.Close() })

	cfg := &config.Config{
		App:  config.AppConfig{LogLevel: "debug", Environment: "development"},
		Host: config.HostConfig{Port: 8080, Domain: "localhost", CorsOrigins: []string{"http://localhost:3000"}},
		JWT:  config.JWTConfig{Secret: "test-secret", TTL: time.Hour},
		Storage: config.StorageConfig{
			PresignTTL: time.Hour,
			Timeout:    time.Second,
		},
		Upload: config.UploadConfig{MaxSize: 1 << 20},
		Registration: config.RegistrationConfig{
			CodeTTL:        10 * time.Minute,
			ResendInterval: time.Minute,
			MaxAttempts:    5,
			Retention:      24 * time.Hour,
		},
	}

	argon := &security.ArgonHash{Memory: 1024, Iterations: 1, Parallelism: 1, SaltLength: 16, KeyLength: 32}
	codes := &codeBox{codes: make(map[string]string)}
	store := &memStore{objects: make(map[string][]byte)}

	reg := prometheus.NewRegistry()
	d := internal.NewDeps(cfg, database, argon, store, codes, metrics.New(reg))

	return &testServer{t: t, router: NewRouter(d, reg), codes: codes}
}

func (s *testServer) do(method, path, token string, body any) (int, map[string]any) {
	s.t.Helper()

	var r io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		require.NoError(s.t, err)
		r = bytes.NewReader(b)
	}

	req := httptest.NewRequest(method, path, r)
	req.Header.Set("Content-Type", "application/json")
	return s.send(req, token)
}

func (s *testServer) send(req *http.Request, token string) (int, map[string]any) {
	s.t.Helper()

	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	w := httptest.NewRecorder()
	s.router.ServeHTTP(w, req)

	out := map[string]any{}
	if w.Body.Len() > 0 {
		require.NoError(s.t, json.Unmarshal(w.Body.Bytes(), &out), w.Body.String())
	}

	return w.Code, out
}

func (s *testServer) upload(token, name, content string) (int, map[string]any) {
	s.t.Helper()

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	fw, err := mw.CreateFormFile("file", name)
	require.NoError(s.t, err)
	_, err = fw.Write([]byte(content))
	require.NoError(s.t, err)
	require.NoError(s.t, mw.Close())

	req := httptest.NewRequest(http.MethodPost, "/api/upload", &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	return s.send(req, token)
}

// signup runs the verified registration flow and returns an access token
func (s *testServer) signup(username string) string {
	s.t.Helper()

	email := username + "@example.com"
	status, body := s.do(http.MethodPost, "/api/register-initiate", "", gin.H{
		"username": username,
		"email":    email,
		"password": "password123",
	})
	require.Equal(s.t, http.StatusOK, status, body)

	status, body = s.do(http.MethodPost, "/api/register-verify", "", gin.H{
		"verification_id": body["verification_id"],
		"code":            s.codes.code(email),
	})
	require.Equal(s.t, http.StatusCreated, status, body)

	return s.login(username)
}

func (s *testServer) login(identifier string) string {
	s.t.Helper()

	status, body := s.do(http.MethodPost, "/api/login", "", gin.H{
		"identifier": identifier,
		"password":   "password123",
	})
	require.Equal(s.t, http.StatusOK, status, body)

	return body["access_token"].(string)
}

func TestRegistrationFlow(t *testing.T) {
	s := newTestServer(t)

	status, body := s.do(http.MethodPost, "/api/register-initiate", "", gin.H{
		"username": "alice",
		"email":    "alice@example.com",
		"password": "password123",
	})
	require.Equal(t, http.StatusOK, status)
	assert.NotEmpty(t, body["msg"])
	assert.True(t, strings.HasSuffix(body["expires_at"].(string), "Z"))
	id := body["verification_id"]

	status, _ = s.do(http.MethodPost, "/api/register-resend", "", gin.H{"verification_id": id})
	assert.Equal(t, http.StatusTooManyRequests, status)

	status, _ = s.do(http.MethodPost, "/api/register-verify", "", gin.H{"verification_id": id, "code": "abcdef"})
	assert.Equal(t, http.StatusUnauthorized, status)

	status, _ = s.do(http.MethodPost, "/api/register-verify", "", gin.H{"verification_id": "nope", "code": "123456"})
	assert.Equal(t, http.StatusBadRequest, status)

	status, _ = s.do(http.MethodPost, "/api/register-verify", "", gin.H{"verification_id": id})
	assert.Equal(t, http.StatusBadRequest, status)

	status, _ = s.do(http.MethodPost, "/api/register-verify", "", gin.H{
		"verification_id": id,
		"code":            s.codes.code("alice@example.com"),
	})
	require.Equal(t, http.StatusCreated, status)

	status, _ = s.do(http.MethodPost, "/api/register-initiate", "", gin.H{
		"username": "alice2",
		"email":    "alice@example.com",
		"password": "password123",
	})
	assert.Equal(t, http.StatusConflict, status)

	status, body = s.do(http.MethodPost, "/api/login", "", gin.H{"identifier": "alice", "password": "wrong-password"})
	assert.Equal(t, http.StatusUnauthorized, status)
	assert.Equal(t, "Invalid credentials", body["msg"])

	token := s.login("alice@example.com")

	status, body = s.do(http.MethodGet, "/api/user", token, nil)
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, "alice", body["username"])
	assert.Equal(t, "alice@example.com", body["email"])

	status, _ = s.do(http.MethodGet, "/api/user", "", nil)
	assert.Equal(t, http.StatusUnauthorized, status)

	status, body = s.do(http.MethodGet, "/api/validate", token, nil)
	assert.Equal(t, http.StatusOK, status)
	assert.NotEmpty(t, body["user_id"])
}

func TestRegisterDirect(t *testing.T) {
	s := newTestServer(t)

	payload := gin.H{"username": "bob", "email": "bob@example.com", "password": "password123"}

	status, body := s.do(http.MethodPost, "/api/register", "", payload)
	require.Equal(t, http.StatusCreated, status)
	assert.NotEmpty(t, body["user_id"])

	status, _ = s.do(http.MethodPost, "/api/register", "", payload)
	assert.Equal(t, http.StatusConflict, status)

	status, _ = s.do(http.MethodPost, "/api/register", "", gin.H{"username": "x", "email": "bad", "password": "p"})
	assert.Equal(t, http.StatusBadRequest, status)

	assert.NotEmpty(t, s.login("bob"))
}

func TestFileSharingFlow(t *testing.T) {
	s := newTestServer(t)
	alice, bob, eve := s.signup("alice"), s.signup("bob"), s.signup("eve")

	status, body := s.upload(alice, "report.txt", "quarterly numbers")
	require.Equal(t, http.StatusCreated, status, body)
	fileID := body["file_id"].(float64)
	path := fmt.Sprintf("/api/files/%d", int(fileID))

	status, _ = s.do(http.MethodPost, "/api/share", bob, gin.H{"file_id": fileID, "recipient_email": "eve@example.com"})
	assert.Equal(t, http.StatusForbidden, status)

	status, _ = s.do(http.MethodPost, "/api/share", alice, gin.H{"file_id": fileID, "recipient_email": "alice@example.com"})
	assert.Equal(t, http.StatusBadRequest, status)

	status, _ = s.do(http.MethodPost, "/api/share", alice, gin.H{"file_id": fileID, "recipient_email": "nobody@example.com"})
	assert.Equal(t, http.StatusNotFound, status)

	status, body = s.do(http.MethodPost, "/api/share", alice, gin.H{"file_id": fileID, "recipient_email": "bob@example.com"})
	require.Equal(t, http.StatusOK, status, body)
	assert.Equal(t, "read", body["access_level"])

	status, _ = s.do(http.MethodPost, "/api/share", alice, gin.H{"file_id": fileID, "recipient_email": "bob@example.com"})
	assert.Equal(t, http.StatusBadRequest, status)

	status, body = s.do(http.MethodGet, "/api/files", alice, nil)
	require.Equal(t, http.StatusOK, status)
	owned := body["owned_files"].([]any)
	require.Len(t, owned, 1)
	entry := owned[0].(map[string]any)
	assert.Equal(t, "report.txt", entry["filename"])
	assert.EqualValues(t, len("quarterly numbers"), entry["size"])
	assert.Equal(t, []any{"bob"}, entry["shared_with_users"])

	status, body = s.do(http.MethodGet, "/api/files", bob, nil)
	require.Equal(t, http.StatusOK, status)
	shared := body["shared_files"].([]any)
	require.Len(t, shared, 1)
	assert.Equal(t, "alice", shared[0].(map[string]any)["shared_by"])

	status, body = s.do(http.MethodGet, fmt.Sprintf("/api/download/%d", int(fileID)), bob, nil)
	require.Equal(t, http.StatusOK, status)
	assert.Contains(t, body["download_url"], "report.txt")

	status, _ = s.do(http.MethodGet, fmt.Sprintf("/api/download/%d", int(fileID)), eve, nil)
	assert.Equal(t, http.StatusNotFound, status)

	status, body = s.do(http.MethodGet, path+"/access", eve, nil)
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, false, body["can_read"])

	status, _ = s.do(http.MethodPost, "/api/unshare", bob, gin.H{"file_id": fileID, "user_id": "whoever"})
	assert.Equal(t, http.StatusForbidden, status)

	status, _ = s.do(http.MethodPost, path+"/leave", bob, nil)
	assert.Equal(t, http.StatusOK, status)

	status, _ = s.do(http.MethodPost, path+"/leave", bob, nil)
	assert.Equal(t, http.StatusNotFound, status)

	status, body = s.do(http.MethodGet, "/api/files", bob, nil)
	require.Equal(t, http.StatusOK, status)
	assert.Empty(t, body["shared_files"])

	status, _ = s.do(http.MethodDelete, path, bob, nil)
	assert.Equal(t, http.StatusForbidden, status)

	status, _ = s.do(http.MethodDelete, path, alice, nil)
	assert.Equal(t, http.StatusOK, status)

	status, _ = s.do(http.MethodDelete, path, alice, nil)
	assert.Equal(t, http.StatusNotFound, status)
}

func TestUploadRejects(t *testing.T) {
	s := newTestServer(t)
	token := s.signup("alice")

	status, _ := s.do(http.MethodPost, "/api/upload", token, gin.H{"not": "multipart"})
	assert.Equal(t, http.StatusBadRequest, status)

	status, _ = s.upload(token, "big.bin", strings.Repeat("x", 2<<20))
	assert.Equal(t, http.StatusRequestEntityTooLarge, status)
}

func TestHeartbeatAndMetrics(t *testing.T) {
	s := newTestServer(t)

	w := httptest.NewRecorder()
	s.router.ServeHTTP(w, httptest.NewRequest(http.MethodHead, "/api/heartbeat", nil))
	assert.Equal(t, http.StatusOK, w.Code)

	s.signup("alice")

	w = httptest.NewRecorder()
	s.router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `filesharing_verifications_total{outcome="verified"} 1`)
}
