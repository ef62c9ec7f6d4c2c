package services

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/anjiri1684/gym_studio/database/dbtest"
	"github.com/anjiri1684/gym_studio/models"
	"github.com/anjiri1684/gym_studio/notifications"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

var testNow = time.Date(2025, time.January, 1, 8, 0, 0, 0, time.UTC)

// monday10 is Monday 2025-01-06 10:00 UTC.
var monday10 = time.Date(2025, time.January, 6, 10, 0, 0, 0, time.UTC)

type fakeNotifier struct {
	mu    sync.Mutex
	roles []notifications.RoleMessage
	kinds []string
	users []notifications.UserMessage
	err   error
}

func (f *fakeNotifier) NotifyIfEnabled(_ context.Context, kind string, msg notifications.RoleMessage) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.kinds = append(f.kinds, kind)
	f.roles = append(f.roles, msg)
	return f.err
}

func (f *fakeNotifier) CreateForUser(_ context.Context, msg notifications.UserMessage) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.users = append(f.users, msg)
	return f.err
}

func (f *fakeNotifier) userKinds(userID uuid.UUID) []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []string
	for _, m := range f.users {
		if m.UserID == userID {
			out = append(out, m.Kind)
		}
	}
	return out
}

type memCache struct {
	mu    sync.Mutex
	items map[string][]byte
	hits  int
}

func newMemCache() *memCache {
	return &memCache{items: make(map[string][]byte)}
}

func (c *memCache) Get(_ context.Context, key string, dest any) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	data, ok := c.items[key]
	if !ok {
		return ErrCacheMiss
	}
	c.hits++
	return json.Unmarshal(data, dest)
}

func (c *memCache) Set(_ context.Context, key string, value any, _ time.Duration) error {
	data, err := json.Marshal(value)
	if err != nil {
		return err
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.items[key] = data
	return nil
}

func (c *memCache) DeletePrefix(_ context.Context, prefix string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	for k := range c.items {
		if strings.HasPrefix(k, prefix) {
			delete(c.items, k)
		}
	}
	return nil
}

type testEnv struct {
	db       *gorm.DB
	svc      *Services
	notifier *fakeNotifier
	cache    *memCache
	admin    Principal
	ctx      context.Context
}

func newEnv(t *testing.T) *testEnv {
	t.Helper()
	db := dbtest.Open(t)
	notifier := &fakeNotifier{}
	cache := newMemCache()
	svc := New(Deps{
		DB:       db,
		Cache:    cache,
		CacheTTL: time.Minute,
		Notifier: notifier,
		Log:      slog.New(slog.NewTextHandler(io.Discard, nil)),
		Now:      func() time.Time { return testNow },
	})
	return &testEnv{
		db:       db,
		svc:      svc,
		notifier: notifier,
		cache:    cache,
		admin:    Principal{UserID: uuid.New(), Role: models.RoleAdmin},
		ctx:      context.Background(),
	}
}

// member creates a member and returns it with the principal that owns it.
func (e *testEnv) member(t *testing.T, name string) (models.Member, Principal) {
	t.Helper()
	m, err := e.svc.Members.CreateMember(e.ctx, CreateMemberInput{
		FullName: name,
		Email:    strings.ToLower(strings.ReplaceAll(name, " ", ".")) + "@gym.test",
		Password: "password123",
	})
	if err != nil {
		t.Fatalf("CreateMember(%s): %v", name, err)
	}
	return m, Principal{UserID: m.UserID, Role: models.RoleMember}
}

func (e *testEnv) trainer(t *testing.T, name string) models.Trainer {
	t.Helper()
	tr, err := e.svc.Members.CreateTrainer(e.ctx, e.admin, CreateTrainerInput{FullName: name})
	if err != nil {
		t.Fatalf("CreateTrainer(%s): %v", name, err)
	}
	return tr
}

func (e *testEnv) schedule(t *testing.T, trainer models.Trainer, start time.Time, capacity int) models.ClassSchedule {
	t.Helper()
	s, err := e.svc.Schedules.CreateClassWithSchedule(e.ctx, e.admin, CreateClassInput{
		Name:            "Spin",
		Category:        "cardio",
		DurationMinutes: 60,
		MaxCapacity:     capacity,
		TrainerID:       trainer.ID,
		StartTime:       start,
	})
	if err != nil {
		t.Fatalf("CreateClassWithSchedule: %v", err)
	}
	return s
}

func (e *testEnv) pkg(t *testing.T, credits int, unlimited bool) models.ClassPackage {
	t.Helper()
	p, err := e.svc.Credits.CreatePackage(e.ctx, e.admin, CreatePackageInput{
		Name:             "Pack",
		CreditsIncluded:  credits,
		Price:            50,
		MonthlyUnlimited: unlimited,
	})
	if err != nil {
		t.Fatalf("CreatePackage: %v", err)
	}
	return p
}

func (e *testEnv) confirmedCount(t *testing.T, scheduleID uuid.UUID) int64 {
	t.Helper()
	n, err := confirmedCount(e.db, scheduleID)
	if err != nil {
		t.Fatal(err)
	}
	return n
}

func (e *testEnv) activePositions(t *testing.T, scheduleID uuid.UUID) map[uuid.UUID]int {
	t.Helper()
	var entries []models.ClassWaitlist
	if err := e.db.Where("class_schedule_id = ? AND status IN ?", scheduleID, models.ActiveWaitlistStatuses).
		Order("position ASC").Find(&entries).Error; err != nil {
		t.Fatal(err)
	}
	out := make(map[uuid.UUID]int, len(entries))
	for _, w := range entries {
		out[w.MemberID] = w.Position
	}
	return out
}
