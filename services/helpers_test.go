package services

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"procurement_flow_go/models"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// setupProcurementTestDB opens an isolated shared-cache memory database with the full schema
func setupProcurementTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := fmt.Sprintf("file:mem_%s?mode=memory&cache=shared", uuid.New().String())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger:         logger.Default.LogMode(logger.Silent),
		TranslateError: true,
	})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(models.AllModels()...))

	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { sqlDB.Close() })
	return db
}

func createTestUser(t *testing.T, db *gorm.DB, role models.Role) *models.User {
	t.Helper()
	hash, err := HashPassword("Sup3rSecret!")
	require.NoError(t, err)
	user := &models.User{
		Name:     string(role) + " user",
		Email:    fmt.Sprintf("%s-%s@agency.gov.ph", role, uuid.New().String()[:8]),
		Password: hash,
		Role:     role,
		IsActive: true,
	}
	require.NoError(t, db.Create(user).Error)
	return user
}

func actorFor(u *models.User) *Actor {
	return &Actor{UserID: u.ID, Name: u.Name, Email: u.Email, Role: u.Role}
}

type sentMessage struct {
	To      string
	Subject string
	Body    string
}

// recordingNotifier captures messages and can be told to fail
type recordingNotifier struct {
	mu   sync.Mutex
	sent []sentMessage
	err  error
}

func (n *recordingNotifier) Send(ctx context.Context, to, subject, body string) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	if n.err != nil {
		return n.err
	}
	n.sent = append(n.sent, sentMessage{To: to, Subject: subject, Body: body})
	return nil
}

func (n *recordingNotifier) count() int {
	n.mu.Lock()
	defer n.mu.Unlock()
	return len(n.sent)
}

type testEnv struct {
	db       *gorm.DB
	clock    *FixedClock
	notifier *recordingNotifier
	svc      *ProcurementService
	storage  *LocalStorage
	admin    *Actor
	bac      *Actor
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	db := setupProcurementTestDB(t)
	clock := &FixedClock{T: time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC)}
	notifier := &recordingNotifier{}
	storage := NewLocalStorage(t.TempDir())
	reminders := NewReminderService(db, notifier, clock, "bac-desk@agency.gov.ph")
	return &testEnv{
		db:       db,
		clock:    clock,
		notifier: notifier,
		svc:      NewProcurementService(db, clock, reminders, storage),
		storage:  storage,
		admin:    actorFor(createTestUser(t, db, models.RoleAdmin)),
		bac:      actorFor(createTestUser(t, db, models.RoleBACSecretariat)),
	}
}

func (e *testEnv) actor(t *testing.T, role models.Role) *Actor {
	return actorFor(createTestUser(t, e.db, role))
}

func (e *testEnv) newCase(t *testing.T, method models.ProcurementMethod) *models.ProcurementCase {
	t.Helper()
	c, err := e.svc.CreateCase(context.Background(), e.bac, CreateCaseInput{
		Title:      "Supply of office equipment",
		Method:     method,
		LegalBasis: "RA 12009 Sec. 5",
	})
	require.NoError(t, err)
	return c
}

func (e *testEnv) apply(t *testing.T, actor *Actor, caseID, action, body string) *StageResult {
	t.Helper()
	res, err := e.svc.ApplyStage(context.Background(), actor, caseID, action, []byte(body))
	require.NoError(t, err, "stage %s", action)
	return res
}

// scheduleReminder schedules against the case as loaded with its owner
func (e *testEnv) scheduleReminder(t *testing.T, caseID string, typ models.ReminderType, due time.Time) *models.Reminder {
	t.Helper()
	var c models.ProcurementCase
	require.NoError(t, e.db.Preload("Owner").First(&c, "id = ?", caseID).Error)
	r, err := e.svc.reminders.schedule(e.db, &c, typ, due)
	require.NoError(t, err)
	return r
}

func (e *testEnv) logs(t *testing.T, caseID string) []models.ActivityLog {
	t.Helper()
	logs, err := GetCaseActivity(e.db, caseID)
	require.NoError(t, err)
	return logs
}
