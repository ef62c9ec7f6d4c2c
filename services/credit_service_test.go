package services

import (
	"errors"
	"testing"
	"time"

	"github.com/anjiri1684/gym_studio/models"
	"github.com/anjiri1684/gym_studio/services/serverrors"
	"github.com/google/uuid"
)

func TestPurchasePackage(t *testing.T) {
	tests := []struct {
		name          string
		credits       int
		unlimited     bool
		validityDays  int
		wantTotal     int
		wantBalance   int
		wantUnlimited bool
		wantExpiry    time.Time
	}{
		{"five pack", 5, false, 0, 5, 5, false, testNow.AddDate(0, 0, 60)},
		{"ten pack bonus", 10, false, 0, 11, 11, false, testNow.AddDate(0, 0, 60)},
		{"twenty pack no bonus", 20, false, 90, 20, 20, false, testNow.AddDate(0, 0, 90)},
		{"monthly unlimited", 0, true, 0, 0, 0, true, testNow.AddDate(0, 0, 30)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e := newEnv(t)
			m, pm := e.member(t, "Alice Member")
			pkg, err := e.svc.Credits.CreatePackage(e.ctx, e.admin, CreatePackageInput{
				Name:             tt.name,
				CreditsIncluded:  tt.credits,
				Price:            80,
				ValidityDays:     tt.validityDays,
				MonthlyUnlimited: tt.unlimited,
			})
			if err != nil {
				t.Fatal(err)
			}

			pass, err := e.svc.Credits.PurchasePackage(e.ctx, pm, m.ID, pkg.ID)
			if err != nil {
				t.Fatalf("PurchasePackage: %v", err)
			}
			if pass.TotalCredits != tt.wantTotal || pass.RemainingCredits != tt.wantTotal {
				t.Errorf("total=%d remaining=%d; want %d", pass.TotalCredits, pass.RemainingCredits, tt.wantTotal)
			}
			if !pass.ExpiresAt.Equal(tt.wantExpiry) {
				t.Errorf("expires = %v; want %v", pass.ExpiresAt, tt.wantExpiry)
			}

			summary, err := e.svc.Credits.GetMemberCredits(e.ctx, pm, m.ID)
			if err != nil {
				t.Fatal(err)
			}
			if summary.Balance != tt.wantBalance || summary.Unlimited != tt.wantUnlimited {
				t.Errorf("balance=%d unlimited=%t; want %d %t", summary.Balance, summary.Unlimited, tt.wantBalance, tt.wantUnlimited)
			}

			var purchase models.ClassCreditTransaction
			if err := e.db.Where("member_id = ? AND type = ?", m.ID, models.CreditPurchase).First(&purchase).Error; err != nil {
				t.Fatalf("purchase transaction: %v", err)
			}
			if purchase.Amount != tt.wantTotal || purchase.BalanceAfter != tt.wantBalance {
				t.Errorf("purchase row amount=%d balance=%d; want %d %d", purchase.Amount, purchase.BalanceAfter, tt.wantTotal, tt.wantBalance)
			}
		})
	}
}

func TestCreditRoundTrip(t *testing.T) {
	e := newEnv(t)
	schedule := e.schedule(t, e.trainer(t, "Ann Coach"), monday10, 5)
	m, pm := e.member(t, "Alice Member")
	pass, err := e.svc.Credits.PurchasePackage(e.ctx, pm, m.ID, e.pkg(t, 5, false).ID)
	if err != nil {
		t.Fatal(err)
	}

	remaining := func() int {
		var p models.MemberClassPass
		e.db.First(&p, "id = ?", pass.ID)
		if p.RemainingCredits < 0 || p.RemainingCredits > p.TotalCredits {
			t.Fatalf("remaining %d outside [0, %d]", p.RemainingCredits, p.TotalCredits)
		}
		return p.RemainingCredits
	}

	b, err := e.svc.Bookings.BookClass(e.ctx, pm, m.ID, schedule.ID)
	if err != nil {
		t.Fatal(err)
	}
	if got := remaining(); got != 4 {
		t.Fatalf("after booking remaining = %d; want 4", got)
	}

	var usage models.ClassCreditTransaction
	if err := e.db.Where("booking_id = ? AND type = ?", b.ID, models.CreditUsage).First(&usage).Error; err != nil {
		t.Fatalf("usage row: %v", err)
	}
	if usage.Amount != -1 || usage.BalanceAfter != 4 || usage.PassID == nil || *usage.PassID != pass.ID {
		t.Errorf("usage row = %+v", usage)
	}

	if _, err := e.svc.Bookings.CancelBooking(e.ctx, pm, b.ID); err != nil {
		t.Fatal(err)
	}
	if got := remaining(); got != 5 {
		t.Fatalf("after cancel remaining = %d; want 5", got)
	}

	var refund models.ClassCreditTransaction
	if err := e.db.Where("booking_id = ? AND type = ?", b.ID, models.CreditRefund).First(&refund).Error; err != nil {
		t.Fatalf("refund row: %v", err)
	}
	if refund.Amount != 1 || refund.BalanceAfter != 5 {
		t.Errorf("refund row = %+v", refund)
	}

	// Rebook, cancel again: one more usage and one more refund.
	if _, err := e.svc.Bookings.BookClass(e.ctx, pm, m.ID, schedule.ID); err != nil {
		t.Fatal(err)
	}
	if _, err := e.svc.Bookings.CancelBooking(e.ctx, pm, b.ID); err != nil {
		t.Fatal(err)
	}
	if got := remaining(); got != 5 {
		t.Errorf("after second round remaining = %d; want 5", got)
	}
	var rows int64
	e.db.Model(&models.ClassCreditTransaction{}).Where("booking_id = ?", b.ID).Count(&rows)
	if rows != 4 {
		t.Errorf("ledger rows for booking = %d; want 4", rows)
	}
}

func TestRefundIsNotRepeated(t *testing.T) {
	e := newEnv(t)
	schedule := e.schedule(t, e.trainer(t, "Ann Coach"), monday10, 5)
	m, pm := e.member(t, "Alice Member")
	pass, err := e.svc.Credits.PurchasePackage(e.ctx, pm, m.ID, e.pkg(t, 3, false).ID)
	if err != nil {
		t.Fatal(err)
	}
	b, err := e.svc.Bookings.BookClass(e.ctx, pm, m.ID, schedule.ID)
	if err != nil {
		t.Fatal(err)
	}

	for i := 0; i < 2; i++ {
		if err := e.svc.Credits.refund(e.db, b.ID); err != nil {
			t.Fatal(err)
		}
	}

	var p models.MemberClassPass
	e.db.First(&p, "id = ?", pass.ID)
	if p.RemainingCredits != 3 {
		t.Errorf("remaining = %d; want 3", p.RemainingCredits)
	}
	var refunds int64
	e.db.Model(&models.ClassCreditTransaction{}).Where("booking_id = ? AND type = ?", b.ID, models.CreditRefund).Count(&refunds)
	if refunds != 1 {
		t.Errorf("refund rows = %d; want 1", refunds)
	}
}

func TestBookingWithoutCreditsSucceeds(t *testing.T) {
	e := newEnv(t)
	schedule := e.schedule(t, e.trainer(t, "Ann Coach"), monday10, 5)
	m, pm := e.member(t, "Alice Member")

	b, err := e.svc.Bookings.BookClass(e.ctx, pm, m.ID, schedule.ID)
	if err != nil {
		t.Fatalf("BookClass: %v", err)
	}
	var rows int64
	e.db.Model(&models.ClassCreditTransaction{}).Where("booking_id = ?", b.ID).Count(&rows)
	if rows != 0 {
		t.Errorf("ledger rows = %d; want 0", rows)
	}
	if _, err := e.svc.Bookings.CancelBooking(e.ctx, pm, b.ID); err != nil {
		t.Errorf("CancelBooking without usage: %v", err)
	}
}

func TestUnlimitedPassIsNotDecremented(t *testing.T) {
	e := newEnv(t)
	schedule := e.schedule(t, e.trainer(t, "Ann Coach"), monday10, 5)
	m, pm := e.member(t, "Alice Member")
	if _, err := e.svc.Credits.PurchasePackage(e.ctx, pm, m.ID, e.pkg(t, 5, false).ID); err != nil {
		t.Fatal(err)
	}
	if _, err := e.svc.Credits.PurchasePackage(e.ctx, pm, m.ID, e.pkg(t, 0, true).ID); err != nil {
		t.Fatal(err)
	}

	b, err := e.svc.Bookings.BookClass(e.ctx, pm, m.ID, schedule.ID)
	if err != nil {
		t.Fatal(err)
	}
	var rows int64
	e.db.Model(&models.ClassCreditTransaction{}).Where("booking_id = ?", b.ID).Count(&rows)
	if rows != 0 {
		t.Errorf("ledger rows = %d; want 0 with an unlimited pass", rows)
	}

	var passes []models.MemberClassPass
	e.db.Where("member_id = ? AND monthly_unlimited = ?", m.ID, false).Find(&passes)
	if len(passes) != 1 || passes[0].RemainingCredits != 5 {
		t.Errorf("credit pass = %+v; want 5 remaining", passes)
	}
}

func TestConsumeEarliestExpiringPass(t *testing.T) {
	e := newEnv(t)
	m, pm := e.member(t, "Alice Member")
	long, err := e.svc.Credits.CreatePackage(e.ctx, e.admin, CreatePackageInput{Name: "Long", CreditsIncluded: 5, ValidityDays: 90})
	if err != nil {
		t.Fatal(err)
	}
	short, err := e.svc.Credits.CreatePackage(e.ctx, e.admin, CreatePackageInput{Name: "Short", CreditsIncluded: 5, ValidityDays: 10})
	if err != nil {
		t.Fatal(err)
	}
	longPass, _ := e.svc.Credits.PurchasePackage(e.ctx, pm, m.ID, long.ID)
	shortPass, _ := e.svc.Credits.PurchasePackage(e.ctx, pm, m.ID, short.ID)

	if err := e.svc.Credits.consume(e.db, m.ID, uuid.New()); err != nil {
		t.Fatal(err)
	}

	for _, tt := range []struct {
		name string
		id   uuid.UUID
		want int
	}{
		{"short", shortPass.ID, 4},
		{"long", longPass.ID, 5},
	} {
		var got models.MemberClassPass
		if err := e.db.First(&got, "id = ?", tt.id).Error; err != nil {
			t.Fatalf("load %s pass: %v", tt.name, err)
		}
		if got.RemainingCredits != tt.want {
			t.Errorf("%s pass remaining = %d; want %d", tt.name, got.RemainingCredits, tt.want)
		}
	}
}

func TestExpirePasses(t *testing.T) {
	e := newEnv(t)
	m, pm := e.member(t, "Alice Member")
	pass, err := e.svc.Credits.PurchasePackage(e.ctx, pm, m.ID, e.pkg(t, 5, false).ID)
	if err != nil {
		t.Fatal(err)
	}
	e.db.Model(&models.MemberClassPass{}).Where("id = ?", pass.ID).Update("expires_at", testNow.Add(-time.Hour))

	n, err := e.svc.Credits.ExpirePasses(e.ctx)
	if err != nil {
		t.Fatal(err)
	}
	if n != 1 {
		t.Errorf("expired = %d; want 1", n)
	}
	summary, err := e.svc.Credits.GetMemberCredits(e.ctx, pm, m.ID)
	if err != nil {
		t.Fatal(err)
	}
	if summary.Balance != 0 || len(summary.Passes) != 0 {
		t.Errorf("summary = %+v; want empty", summary)
	}
}

func TestCreditAccessControl(t *testing.T) {
	e := newEnv(t)
	m, _ := e.member(t, "Alice Member")
	_, other := e.member(t, "Eve Member")
	pkg := e.pkg(t, 5, false)

	if _, err := e.svc.Credits.PurchasePackage(e.ctx, other, m.ID, pkg.ID); !errors.Is(err, serverrors.ErrForbidden) {
		t.Errorf("purchase for someone else error = %v; want forbidden", err)
	}
	if _, err := e.svc.Credits.GetMemberCredits(e.ctx, other, m.ID); !errors.Is(err, serverrors.ErrForbidden) {
		t.Errorf("read someone else's credits error = %v; want forbidden", err)
	}
	if _, err := e.svc.Credits.CreatePackage(e.ctx, other, CreatePackageInput{Name: "x", CreditsIncluded: 1}); !errors.Is(err, serverrors.ErrForbidden) {
		t.Errorf("member CreatePackage error = %v; want forbidden", err)
	}
	if _, err := e.svc.Credits.PurchasePackage(e.ctx, e.admin, m.ID, uuid.New()); !errors.Is(err, serverrors.ErrNotFound) {
		t.Errorf("unknown package error = %v; want not found", err)
	}
}
