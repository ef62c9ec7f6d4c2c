package jobs

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/anjiri1684/gym_studio/database/dbtest"
	"github.com/anjiri1684/gym_studio/models"
	"github.com/anjiri1684/gym_studio/notifications"
	"github.com/google/uuid"
	"github.com/robfig/cron/v3"
	"gorm.io/gorm"
)

var now = time.Date(2025, time.March, 3, 8, 0, 0, 0, time.UTC)

type sink struct {
	mu   sync.Mutex
	msgs []notifications.UserMessage
	err  error
}

func (s *sink) CreateForUser(_ context.Context, msg notifications.UserMessage) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.err != nil {
		return s.err
	}
	s.msgs = append(s.msgs, msg)
	return nil
}

type fixture struct {
	db      *gorm.DB
	class   models.Class
	trainer models.Trainer
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	db := dbtest.Open(t)
	f := &fixture{db: db}
	f.class = models.Class{Name: "Yoga", DurationMinutes: 60, MaxCapacity: 10}
	f.trainer = models.Trainer{FullName: "Tom", IsActive: true}
	if err := db.Create(&f.class).Error; err != nil {
		t.Fatal(err)
	}
	if err := db.Create(&f.trainer).Error; err != nil {
		t.Fatal(err)
	}
	return f
}

func (f *fixture) schedule(t *testing.T, start time.Time, active bool) models.ClassSchedule {
	t.Helper()
	s := models.ClassSchedule{
		ClassID:   f.class.ID,
		TrainerID: f.trainer.ID,
		StartTime: start,
		EndTime:   start.Add(time.Hour),
		IsActive:  active,
	}
	if err := f.db.Create(&s).Error; err != nil {
		t.Fatal(err)
	}
	return s
}

func (f *fixture) booking(t *testing.T, s models.ClassSchedule, status models.BookingStatus) models.Member {
	t.Helper()
	m := models.Member{UserID: uuid.New(), FullName: "Mia", Email: uuid.NewString() + "@gym.test", JoinedAt: now}
	if err := f.db.Create(&m).Error; err != nil {
		t.Fatal(err)
	}
	b := models.ClassBooking{MemberID: m.ID, ClassScheduleID: s.ID, Status: status, BookedAt: now}
	if err := f.db.Create(&b).Error; err != nil {
		t.Fatal(err)
	}
	return m
}

func quietLog() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestReminderJobWindows(t *testing.T) {
	f := newFixture(t)

	inTwoHours := f.booking(t, f.schedule(t, now.Add(2*time.Hour+10*time.Minute), true), models.BookingConfirmed)
	tomorrow := f.booking(t, f.schedule(t, now.Add(24*time.Hour), true), models.BookingConfirmed)
	f.booking(t, f.schedule(t, now.Add(2*time.Hour+30*time.Minute), true), models.BookingConfirmed)
	f.booking(t, f.schedule(t, now.Add(3*time.Hour), true), models.BookingConfirmed)
	f.booking(t, f.schedule(t, now.Add(2*time.Hour), false), models.BookingConfirmed)
	f.booking(t, f.schedule(t, now.Add(24*time.Hour+5*time.Minute), true), models.BookingCancelled)

	s := &sink{}
	job := NewReminderJob(f.db, s, quietLog())
	job.now = func() time.Time { return now }

	if err := job.Run(context.Background()); err != nil {
		t.Fatalf("Run() error = %v", err)
	}

	got := map[uuid.UUID]bool{}
	for _, m := range s.msgs {
		if m.Kind != notifications.KindClassReminder {
			t.Errorf("kind = %q", m.Kind)
		}
		got[m.UserID] = true
	}
	if len(s.msgs) != 2 || !got[inTwoHours.UserID] || !got[tomorrow.UserID] {
		t.Fatalf("reminded %v; want the 2h and 24h members only", s.msgs)
	}
}

func TestReminderJobContinuesOnNotifierError(t *testing.T) {
	f := newFixture(t)
	f.booking(t, f.schedule(t, now.Add(2*time.Hour), true), models.BookingConfirmed)

	job := NewReminderJob(f.db, &sink{err: errors.New("down")}, quietLog())
	job.now = func() time.Time { return now }
	if err := job.Run(context.Background()); err != nil {
		t.Fatalf("Run() error = %v; notifier failures are logged only", err)
	}
}

type fakeExpirer struct{ calls int }

func (f *fakeExpirer) ExpirePasses(context.Context) (int64, error) {
	f.calls++
	return 0, nil
}

type fakeCompleter struct{ cutoff time.Time }

func (f *fakeCompleter) CompletePastBookings(_ context.Context, t time.Time) (int64, error) {
	f.cutoff = t
	return 1, nil
}

func TestSweepJobs(t *testing.T) {
	exp := &fakeExpirer{}
	if err := (PassExpiryJob{Credits: exp}).Run(context.Background()); err != nil || exp.calls != 1 {
		t.Fatalf("PassExpiryJob.Run() err = %v calls = %d", err, exp.calls)
	}

	comp := &fakeCompleter{}
	job := AttendanceJob{Bookings: comp, Now: func() time.Time { return now }}
	if err := job.Run(context.Background()); err != nil {
		t.Fatal(err)
	}
	if !comp.cutoff.Equal(now) {
		t.Errorf("cutoff = %v; want %v", comp.cutoff, now)
	}
}

func TestScheduleRejectsBadSpec(t *testing.T) {
	c := cron.New()
	if err := Schedule(context.Background(), c, "not a spec", PassExpiryJob{Credits: &fakeExpirer{}}, quietLog()); err == nil {
		t.Fatal("Schedule() accepted an invalid spec")
	}
	if err := Schedule(context.Background(), c, "@hourly", PassExpiryJob{Credits: &fakeExpirer{}}, quietLog()); err != nil {
		t.Fatalf("Schedule() error = %v", err)
	}
	if len(c.Entries()) != 1 {
		t.Errorf("entries = %d; want 1", len(c.Entries()))
	}
}
