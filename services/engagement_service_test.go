package services

import (
	"errors"
	"math"
	"testing"

	"github.com/anjiri1684/gym_studio/models"
	"github.com/anjiri1684/gym_studio/services/serverrors"
)

func TestFavorites(t *testing.T) {
	e := newEnv(t)
	schedule := e.schedule(t, e.trainer(t, "Ann Coach"), monday10, 5)
	m, pm := e.member(t, "Alice Member")
	_, other := e.member(t, "Eve Member")

	first, err := e.svc.Engagement.AddFavorite(e.ctx, pm, m.ID, schedule.ClassID)
	if err != nil {
		t.Fatal(err)
	}
	second, err := e.svc.Engagement.AddFavorite(e.ctx, pm, m.ID, schedule.ClassID)
	if err != nil {
		t.Fatal(err)
	}
	if first.ID != second.ID {
		t.Errorf("AddFavorite twice created %s and %s", first.ID, second.ID)
	}

	favs, err := e.svc.Engagement.ListFavorites(e.ctx, pm, m.ID)
	if err != nil {
		t.Fatal(err)
	}
	if len(favs) != 1 || favs[0].Class.Name != "Spin" {
		t.Errorf("favorites = %+v; want Spin", favs)
	}

	if _, err := e.svc.Engagement.ListFavorites(e.ctx, other, m.ID); !errors.Is(err, serverrors.ErrForbidden) {
		t.Errorf("other member list error = %v; want forbidden", err)
	}

	if err := e.svc.Engagement.RemoveFavorite(e.ctx, pm, m.ID, schedule.ClassID); err != nil {
		t.Fatal(err)
	}
	favs, _ = e.svc.Engagement.ListFavorites(e.ctx, pm, m.ID)
	if len(favs) != 0 {
		t.Errorf("favorites after remove = %d; want 0", len(favs))
	}
}

func TestRateInstructor(t *testing.T) {
	e := newEnv(t)
	trainer := e.trainer(t, "Ann Coach")
	schedule := e.schedule(t, trainer, monday10, 5)
	a, pa := e.member(t, "Alice Member")
	b, pb := e.member(t, "Bob Member")

	ba, err := e.svc.Bookings.BookClass(e.ctx, pa, a.ID, schedule.ID)
	if err != nil {
		t.Fatal(err)
	}
	bb, err := e.svc.Bookings.BookClass(e.ctx, pb, b.ID, schedule.ID)
	if err != nil {
		t.Fatal(err)
	}

	if _, err := e.svc.Engagement.RateInstructor(e.ctx, pa, a.ID, schedule.ID, 5, ""); !errors.Is(err, serverrors.ErrInvalidState) {
		t.Errorf("rating before completion error = %v; want invalid state", err)
	}
	if _, err := e.svc.Engagement.RateInstructor(e.ctx, pa, a.ID, schedule.ID, 6, ""); !errors.Is(err, serverrors.ErrValidation) {
		t.Errorf("rating 6 error = %v; want validation", err)
	}

	for _, id := range []any{ba.ID, bb.ID} {
		if err := e.db.Model(&models.ClassBooking{}).Where("id = ?", id).Update("status", models.BookingCompleted).Error; err != nil {
			t.Fatal(err)
		}
	}

	r1, err := e.svc.Engagement.RateInstructor(e.ctx, pa, a.ID, schedule.ID, 2, "meh")
	if err != nil {
		t.Fatal(err)
	}
	r2, err := e.svc.Engagement.RateInstructor(e.ctx, pa, a.ID, schedule.ID, 4, "better on reflection")
	if err != nil {
		t.Fatal(err)
	}
	if r1.ID != r2.ID {
		t.Errorf("re-rating created a new row")
	}
	if _, err := e.svc.Engagement.RateInstructor(e.ctx, pb, b.ID, schedule.ID, 5, "great"); err != nil {
		t.Fatal(err)
	}

	summary, err := e.svc.Engagement.TrainerAverageRating(e.ctx, trainer.ID)
	if err != nil {
		t.Fatal(err)
	}
	if summary.Count != 2 || math.Abs(summary.Average-4.5) > 1e-9 {
		t.Errorf("summary = %+v; want 2 ratings averaging 4.5", summary)
	}
}
