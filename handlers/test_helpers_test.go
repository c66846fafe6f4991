package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"procurement_flow_go/config"
	"procurement_flow_go/models"
	"procurement_flow_go/services"
	"procurement_flow_go/services/idempotency"
	"procurement_flow_go/services/ratelimit"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

const testPassword = "Sup3rSecret!"

func setupTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	// Use unique shared memory name to isolate tests
	dsn := fmt.Sprintf("file:mem_%s?mode=memory&cache=shared", uuid.New().String())
	testDB, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger:         logger.Default.LogMode(logger.Silent),
		TranslateError: true,
	})
	require.NoError(t, err)
	require.NoError(t, testDB.AutoMigrate(models.AllModels()...))

	sqlDB, err := testDB.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { sqlDB.Close() })
	return testDB
}

type captureNotifier struct {
	mu   sync.Mutex
	sent []string
}

func (n *captureNotifier) Send(ctx context.Context, to, subject, body string) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.sent = append(n.sent, to+": "+subject)
	return nil
}

type testApp struct {
	db       *gorm.DB
	e        *echo.Echo
	clock    *services.FixedClock
	notifier *captureNotifier
	storage  *services.LocalStorage
}

func newTestApp(t *testing.T) *testApp {
	return newTestAppWithLimit(t, 1000)
}

func newTestAppWithLimit(t *testing.T, requests int) *testApp {
	t.Helper()
	testDB := setupTestDB(t)
	cfg := &config.Config{
		Environment:       "test",
		Timezone:          "UTC",
		RateLimitRequests: requests,
		RateLimitWindow:   time.Hour,
	}
	clock := &services.FixedClock{T: time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC)}
	notifier := &captureNotifier{}
	storage := services.NewLocalStorage(t.TempDir())
	reminders := services.NewReminderService(testDB, notifier, clock, "bac-desk@agency.gov.ph")
	cases := services.NewProcurementService(testDB, clock, reminders, storage)

	e := echo.New()
	New(testDB, cfg, cases, reminders).Register(e, ratelimit.NewMemoryLimiter(), idempotency.NewGormStore(testDB, time.Hour))

	return &testApp{db: testDB, e: e, clock: clock, notifier: notifier, storage: storage}
}

// user creates an active user with the role and returns it with a session token
func (a *testApp) user(t *testing.T, role models.Role) (*models.User, string) {
	t.Helper()
	hash, err := services.HashPassword(testPassword)
	require.NoError(t, err)
	u := &models.User{
		Name:     string(role) + " user",
		Email:    fmt.Sprintf("%s-%s@agency.gov.ph", role, uuid.New().String()[:8]),
		Password: hash,
		Role:     role,
		IsActive: true,
	}
	require.NoError(t, a.db.Create(u).Error)
	session, err := services.CreateSession(a.db, u.ID, "127.0.0.1", "handler-test")
	require.NoError(t, err)
	return u, session.Token
}

func (a *testApp) token(t *testing.T, role models.Role) string {
	_, token := a.user(t, role)
	return token
}

type requestOpt func(*http.Request)

func withIdempotencyKey(key string) requestOpt {
	return func(r *http.Request) { r.Header.Set("Idempotency-Key", key) }
}

func (a *testApp) do(t *testing.T, method, path, token string, body interface{}, opts ...requestOpt) *httptest.ResponseRecorder {
	t.Helper()
	var reader io.Reader
	switch b := body.(type) {
	case nil:
	case string:
		reader = bytes.NewBufferString(b)
	default:
		raw, err := json.Marshal(b)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	}

	req := httptest.NewRequest(method, path, reader)
	if reader != nil {
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	}
	if token != "" {
		req.Header.Set(echo.HeaderAuthorization, "Bearer "+token)
	}
	for _, opt := range opts {
		opt(req)
	}
	rec := httptest.NewRecorder()
	a.e.ServeHTTP(rec, req)
	return rec
}

func decode(t *testing.T, rec *httptest.ResponseRecorder, v interface{}) {
	t.Helper()
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), v), rec.Body.String())
}

func decodeError(t *testing.T, rec *httptest.ResponseRecorder) ErrorResponse {
	t.Helper()
	var body ErrorResponse
	decode(t, rec, &body)
	return body
}

// createCase opens a small-value case through the API
func (a *testApp) createCase(t *testing.T, token string, method models.ProcurementMethod) *models.ProcurementCase {
	t.Helper()
	rec := a.do(t, http.MethodPost, "/api/cases", token, map[string]string{
		"title":       "Supply of laptops",
		"method":      string(method),
		"legal_basis": "RA 12009 Sec. 53.9",
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	var c models.ProcurementCase
	decode(t, rec, &c)
	return &c
}

func (a *testApp) caseState(t *testing.T, caseID string) models.CaseState {
	t.Helper()
	var c models.ProcurementCase
	require.NoError(t, a.db.First(&c, "id = ?", caseID).Error)
	return c.CurrentState
}

func (a *testApp) logCount(t *testing.T, caseID, action string) int64 {
	t.Helper()
	var n int64
	require.NoError(t, a.db.Model(&models.ActivityLog{}).Where("case_id = ? AND action = ?", caseID, action).Count(&n).Error)
	return n
}
