package service

import (
	"bitwise74/file-share-api/config"
	"bitwise74/file-share-api/db"
	"bitwise74/file-share-api/internal/metrics"
	"bitwise74/file-share-api/internal/model"
	"bitwise74/file-share-api/pkg/security"
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	name := strings.NewReplacer("/", "_", " ", "_").Replace(t.Name())
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared&_foreign_keys=on", name)

	d, err := db.Open(sqlite.Open(dsn))
	require.NoError(t, err)

	sqlDB, err := d.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)

	t.Cleanup(func() { sqlDB.Close() })
	return d
}

// Cheap parameters, the real ones make every test take seconds
func newTestHasher() *security.ArgonHash {
	return &security.ArgonHash{
		Memory:      1024,
		Iterations:  1,
		Parallelism: 1,
		SaltLength:  16,
		KeyLength:   32,
	}
}

func newTestMetrics() *metrics.Metrics {
	return metrics.New(prometheus.NewRegistry())
}

type sentCode struct {
	to   string
	code string
}

type fakeNotifier struct {
	mu   sync.Mutex
	sent []sentCode
	err  error
}

func (n *fakeNotifier) SendCode(_ context.Context, to, code string, _ time.Duration) error {
	n.mu.Lock()
	defer n.mu.Unlock()

	if n.err != nil {
		return n.err
	}

	n.sent = append(n.sent, sentCode{to: to, code: code})
	return nil
}

func (n *fakeNotifier) last(t *testing.T) string {
	t.Helper()

	n.mu.Lock()
	defer n.mu.Unlock()

	require.NotEmpty(t, n.sent, "no code was sent")
	return n.sent[len(n.sent)-1].code
}

type fakeStore struct {
	mu      sync.Mutex
	objects map[string][]byte
	putErr  error
}

func newFakeStore() *fakeStore {
	return &fakeStore{objects: make(map[string][]byte)}
}

func (s *fakeStore) Put(_ context.Context, key string, body io.Reader, _ int64, _ string) error {
	if s.putErr != nil {
		return s.putErr
	}

	b, err := io.ReadAll(body)
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.objects[key] = b
	return nil
}

func (s *fakeStore) PresignGet(_ context.Context, key string, ttl time.Duration) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.objects[key]; !ok {
		return "", errors.New("no such key")
	}

	return fmt.Sprintf("https://bucket.example/%s?X-Amz-Expires=%d", key, int(ttl.Seconds())), nil
}

func (s *fakeStore) Delete(_ context.Context, keys ...string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, k := range keys {
		delete(s.objects, k)
	}

	return nil
}

func (s *fakeStore) has(key string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, ok := s.objects[key]
	return ok
}

func testRegistrationConfig() *config.RegistrationConfig {
	return &config.RegistrationConfig{
		CodeTTL:        10 * time.Minute,
		ResendInterval: time.Minute,
		MaxAttempts:    5,
		SweepInterval:  time.Hour,
		Retention:      24 * time.Hour,
	}
}

// clock is a settable time source
type clock struct {
	t time.Time
}

func newClock() *clock {
	return &clock{t: time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)}
}

func (c *clock) now() time.Time {
	return c.t
}

func (c *clock) advance(d time.Duration) {
	c.t = c.t.Add(d)
}

// env wires every service on one database
type env struct {
	db       *gorm.DB
	clock    *clock
	notifier *fakeNotifier
	store    *fakeStore
	hasher   *security.ArgonHash

	regs    *Registrations
	dir     *Directory
	files   *Files
	sharing *Sharing
}

func newEnv(t *testing.T) *env {
	t.Helper()

	e := &env{
		db:       newTestDB(t),
		clock:    newClock(),
		notifier: &fakeNotifier{},
		store:    newFakeStore(),
		hasher:   newTestHasher(),
	}

	m := newTestMetrics()

	e.regs = NewRegistrations(e.db, e.hasher, e.notifier, testRegistrationConfig(), m)
	e.regs.now = e.clock.now

	e.dir = NewDirectory(e.db, e.hasher, m)
	e.dir.now = e.clock.now

	e.files = NewFiles(e.db, e.store, NewUploader(e.store, time.Second, m), time.Hour, time.Second, m)
	e.files.now = e.clock.now

	e.sharing = NewSharing(e.db, m)
	e.sharing.now = e.clock.now

	return e
}

func (e *env) user(t *testing.T, name string) *model.User {
	t.Helper()

	u, err := e.dir.RegisterDirect(context.Background(), name, name+"@example.com", "password123")
	require.NoError(t, err)
	return u
}

func (e *env) upload(t *testing.T, owner *model.User, name, body string) *model.File {
	t.Helper()

	f, err := e.files.Upload(context.Background(), owner.ID, name, bytes.NewBufferString(body), int64(len(body)), "text/plain")
	require.NoError(t, err)
	return f
}
