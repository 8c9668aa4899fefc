package services

import (
	"context"
	"errors"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"inteqt-web/backend/config"
	"inteqt-web/backend/models"

	"github.com/glebarez/sqlite"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

const testPassword = "correct-horse"

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(filepath.Join(t.TempDir(), "test.db")), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&models.Account{}, &models.CountryProfile{}))
	t.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			sqlDB.Close()
		}
	})
	return db
}

func testAuthConfig() config.Auth {
	return config.Auth{
		JWTSecret:      "test-secret",
		TokenTTL:       7 * 24 * time.Hour,
		BcryptCost:     bcrypt.MinCost,
		AdminDomain:    "@inte-qt.com",
		AdminAllowList: []string{"ops@inte-qt.com", "CTO@inte-qt.com"},
	}
}

func testWorkflowConfig() config.Workflow {
	return config.Workflow{DefaultPageSize: 10, MaxPageSize: 100, SlugMaxAttempts: 100}
}

func seedAccount(t *testing.T, db *gorm.DB, email string, role models.Role) *models.Account {
	t.Helper()
	hashed, err := bcrypt.GenerateFromPassword([]byte(testPassword), bcrypt.MinCost)
	require.NoError(t, err)
	acc := &models.Account{Name: email, Email: email, Password: string(hashed), Role: role, Active: true}
	require.NoError(t, db.Create(acc).Error)
	return acc
}

func requireKind(t *testing.T, err error, kind Kind) {
	t.Helper()
	require.Error(t, err)
	require.Equal(t, kind, KindOf(err), "unexpected error: %v", err)
}

func countProfiles(t *testing.T, db *gorm.DB) int64 {
	t.Helper()
	var n int64
	require.NoError(t, db.Model(&models.CountryProfile{}).Count(&n).Error)
	return n
}

type recordingNotifier struct {
	mu       sync.Mutex
	received []string
	reviewed []string
}

func (n *recordingNotifier) SubmissionReceived(p *models.CountryProfile, _ *models.Account, _ bool) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.received = append(n.received, p.ID)
}

func (n *recordingNotifier) SubmissionReviewed(p *models.CountryProfile, _ *models.Account) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.reviewed = append(n.reviewed, string(p.Status))
}

type fakeMedia struct {
	deleted    []string
	failDelete bool
}

func (m *fakeMedia) Save(context.Context, string, []byte) (*Media, error) {
	return &Media{URL: "/uploads/x.png", PublicID: "x.png"}, nil
}

func (m *fakeMedia) URLFor(publicID string) string {
	return "/uploads/" + publicID
}

func (m *fakeMedia) Delete(_ context.Context, publicID string) error {
	m.deleted = append(m.deleted, publicID)
	if m.failDelete {
		return errors.New("media host unavailable")
	}
	return nil
}

type workflowFixture struct {
	db       *gorm.DB
	svc      *WorkflowService
	notifier *recordingNotifier
	media    *fakeMedia
	admin    *models.Account
	alice    *models.Account
	bob      *models.Account
}

func newWorkflowFixture(t *testing.T) *workflowFixture {
	t.Helper()
	db := newTestDB(t)
	f := &workflowFixture{
		db:       db,
		notifier: &recordingNotifier{},
		media:    &fakeMedia{},
		admin:    seedAccount(t, db, "ops@inte-qt.com", models.RoleAdmin),
		alice:    seedAccount(t, db, "alice@inte-qt.com", models.RoleUser),
		bob:      seedAccount(t, db, "bob@inte-qt.com", models.RoleUser),
	}
	f.svc = NewWorkflowService(db, testWorkflowConfig(), f.media, f.notifier)
	return f
}

func (f *workflowFixture) submit(t *testing.T, owner *models.Account, name, slug string, refs ...string) *models.CountryProfile {
	t.Helper()
	in := ProfileInput{Name: name, Slug: slug}
	if refs != nil {
		in.References = refs
	}
	p, _, err := f.svc.CreateOrUpdate(context.Background(), owner, in)
	require.NoError(t, err)
	return p
}

func (f *workflowFixture) reload(t *testing.T, id string) *models.CountryProfile {
	t.Helper()
	var p models.CountryProfile
	require.NoError(t, f.db.First(&p, "id = ?", id).Error)
	return &p
}
