package services

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/anjiri1684/gym_studio/metrics"
	"github.com/anjiri1684/gym_studio/models"
	"github.com/anjiri1684/gym_studio/notifications"
	"github.com/anjiri1684/gym_studio/services/serverrors"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

const (
	bonusThreshold     = 10
	bonusCredits       = 1
	unlimitedValidity  = 30
	creditPackValidity = 60
)

type CreditService struct {
	*base
}

type CreatePackageInput struct {
	Name             string
	Description      string
	CreditsIncluded  int
	Price            float64
	Currency         string
	ValidityDays     int
	MonthlyUnlimited bool
}

type CreditSummary struct {
	MemberID  uuid.UUID                `json:"member_id"`
	Balance   int                      `json:"balance"`
	Unlimited bool                     `json:"unlimited"`
	Passes    []models.MemberClassPass `json:"passes"`
}

func (s *CreditService) CreatePackage(ctx context.Context, p Principal, in CreatePackageInput) (models.ClassPackage, error) {
	var pkg models.ClassPackage
	if err := RequireRole(p, models.RoleAdmin, models.RoleStaff); err != nil {
		return pkg, err
	}
	if strings.TrimSpace(in.Name) == "" {
		return pkg, serverrors.Validation("package name is required")
	}
	if in.Price < 0 {
		return pkg, serverrors.Validation("price cannot be negative")
	}
	if in.ValidityDays < 0 {
		return pkg, serverrors.Validation("validity_days cannot be negative")
	}
	if !in.MonthlyUnlimited && in.CreditsIncluded <= 0 {
		return pkg, serverrors.Validation("credits_included must be positive for credit packs")
	}

	currency := strings.ToUpper(in.Currency)
	if currency == "" {
		currency = "USD"
	}
	pkg = models.ClassPackage{
		Name:             strings.TrimSpace(in.Name),
		Description:      in.Description,
		CreditsIncluded:  in.CreditsIncluded,
		Price:            in.Price,
		Currency:         currency,
		ValidityDays:     in.ValidityDays,
		MonthlyUnlimited: in.MonthlyUnlimited,
		IsActive:         true,
	}
	if in.MonthlyUnlimited {
		pkg.CreditsIncluded = 0
	}
	if err := s.db.WithContext(ctx).Create(&pkg).Error; err != nil {
		return pkg, err
	}
	return pkg, nil
}

func (s *CreditService) ListPackages(ctx context.Context) ([]models.ClassPackage, error) {
	var pkgs []models.ClassPackage
	err := s.db.WithContext(ctx).Where("is_active = ?", true).Order("price ASC").Find(&pkgs).Error
	return pkgs, err
}

// PurchasePackage grants a pass for pkg. Ten-credit packs carry one bonus
// credit. Unlimited passes have no numeric credits.
func (s *CreditService) PurchasePackage(ctx context.Context, p Principal, memberID, packageID uuid.UUID) (models.MemberClassPass, error) {
	var pass models.MemberClassPass

	member, err := s.findMember(ctx, s.db, memberID)
	if err != nil {
		return pass, err
	}
	if err := requireMember(p, member); err != nil {
		return pass, err
	}

	var pkg models.ClassPackage
	if err := s.db.WithContext(ctx).First(&pkg, "id = ?", packageID).Error; err != nil {
		return pass, notFoundOr(err, "class package", packageID)
	}
	if !pkg.IsActive {
		return pass, serverrors.InvalidState("class package %s is no longer sold", pkg.ID)
	}

	now := s.clock()
	total := pkg.CreditsIncluded
	if pkg.CreditsIncluded == bonusThreshold {
		total += bonusCredits
	}
	if pkg.MonthlyUnlimited {
		total = 0
	}
	validity := pkg.ValidityDays
	if validity <= 0 {
		validity = creditPackValidity
		if pkg.MonthlyUnlimited {
			validity = unlimitedValidity
		}
	}

	pass = models.MemberClassPass{
		MemberID:         member.ID,
		ClassPackageID:   pkg.ID,
		TotalCredits:     total,
		RemainingCredits: total,
		MonthlyUnlimited: pkg.MonthlyUnlimited,
		Status:           models.PassStatusActive,
		PurchasedAt:      now,
		ExpiresAt:        now.AddDate(0, 0, validity),
	}

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&pass).Error; err != nil {
			return err
		}
		balance, _, err := s.balance(tx, member.ID)
		if err != nil {
			return err
		}
		return s.appendTransaction(tx, models.ClassCreditTransaction{
			MemberID:     member.ID,
			Type:         models.CreditPurchase,
			Amount:       total,
			BalanceAfter: balance,
			PassID:       &pass.ID,
			Note:         pkg.Name,
		})
	})
	if err != nil {
		return pass, err
	}

	pass.ClassPackage = pkg
	s.notifyRole(ctx, notifications.KindPackagePurchased, notifications.RoleMessage{
		Role:      models.RoleAdmin,
		Title:     "Package purchased",
		Message:   fmt.Sprintf("%s bought %s.", member.FullName, pkg.Name),
		Type:      notifications.TypeSuccess,
		ActionURL: "/members/" + member.ID.String(),
	})
	return pass, nil
}

func (s *CreditService) GetMemberCredits(ctx context.Context, p Principal, memberID uuid.UUID) (CreditSummary, error) {
	summary := CreditSummary{MemberID: memberID, Passes: []models.MemberClassPass{}}

	member, err := s.findMember(ctx, s.db, memberID)
	if err != nil {
		return summary, err
	}
	if err := requireMember(p, member); err != nil {
		return summary, err
	}

	db := s.db.WithContext(ctx)
	if err := s.usablePasses(db, member.ID).Preload("ClassPackage").Find(&summary.Passes).Error; err != nil {
		return summary, err
	}
	summary.Balance, summary.Unlimited, err = s.balance(db, member.ID)
	return summary, err
}

func (s *CreditService) ListTransactions(ctx context.Context, p Principal, memberID uuid.UUID, page, limit int) (Page[models.ClassCreditTransaction], error) {
	page, limit = normalizePage(page, limit)
	out := Page[models.ClassCreditTransaction]{Page: page, Limit: limit, Items: []models.ClassCreditTransaction{}}

	member, err := s.findMember(ctx, s.db, memberID)
	if err != nil {
		return out, err
	}
	if err := requireMember(p, member); err != nil {
		return out, err
	}

	q := s.db.WithContext(ctx).Model(&models.ClassCreditTransaction{}).Where("member_id = ?", member.ID)
	if err := q.Session(&gorm.Session{}).Count(&out.Total).Error; err != nil {
		return out, err
	}
	err = q.Order("created_at DESC").Offset((page - 1) * limit).Limit(limit).Find(&out.Items).Error
	return out, err
}

// ExpirePasses marks every active pass past its expiry as expired.
func (s *CreditService) ExpirePasses(ctx context.Context) (int64, error) {
	res := s.db.WithContext(ctx).Model(&models.MemberClassPass{}).
		Where("status = ? AND expires_at <= ?", models.PassStatusActive, s.clock()).
		Updates(map[string]any{"status": models.PassStatusExpired, "updated_at": s.clock()})
	return res.RowsAffected, res.Error
}

func (s *CreditService) usablePasses(db *gorm.DB, memberID uuid.UUID) *gorm.DB {
	return db.Model(&models.MemberClassPass{}).
		Where("member_id = ? AND status = ? AND expires_at > ?", memberID, models.PassStatusActive, s.clock()).
		Order("expires_at ASC")
}

// balance sums remaining credits over usable passes. Holding an unlimited
// pass reports a zero balance.
func (s *CreditService) balance(db *gorm.DB, memberID uuid.UUID) (int, bool, error) {
	var passes []models.MemberClassPass
	if err := s.usablePasses(db, memberID).Find(&passes).Error; err != nil {
		return 0, false, err
	}
	total := 0
	for _, p := range passes {
		if p.MonthlyUnlimited {
			return 0, true, nil
		}
		total += p.RemainingCredits
	}
	return total, false, nil
}

// consume takes one credit from the earliest expiring pass for booking.
// Unlimited passes and members without credit are left untouched.
func (s *CreditService) consume(tx *gorm.DB, memberID, bookingID uuid.UUID) error {
	var passes []models.MemberClassPass
	if err := s.usablePasses(tx, memberID).Find(&passes).Error; err != nil {
		return err
	}
	for _, p := range passes {
		if p.MonthlyUnlimited {
			return nil
		}
	}

	for _, p := range passes {
		if p.RemainingCredits <= 0 {
			continue
		}
		res := tx.Model(&models.MemberClassPass{}).
			Where("id = ? AND remaining_credits > 0", p.ID).
			Updates(map[string]any{
				"remaining_credits": gorm.Expr("remaining_credits - 1"),
				"updated_at":        s.clock(),
			})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			continue
		}

		balance, _, err := s.balance(tx, memberID)
		if err != nil {
			return err
		}
		passID := p.ID
		return s.appendTransaction(tx, models.ClassCreditTransaction{
			MemberID:     memberID,
			Type:         models.CreditUsage,
			Amount:       -1,
			BalanceAfter: balance,
			BookingID:    &bookingID,
			PassID:       &passID,
		})
	}

	s.log.Debug("no credit to consume", slog.String("member_id", memberID.String()), slog.String("booking_id", bookingID.String()))
	return nil
}

// refund returns the credit taken for booking. It is a no-op when nothing
// was consumed or the last usage was already refunded.
func (s *CreditService) refund(tx *gorm.DB, bookingID uuid.UUID) error {
	var usages, refunds int64
	if err := tx.Model(&models.ClassCreditTransaction{}).
		Where("booking_id = ? AND type = ?", bookingID, models.CreditUsage).
		Count(&usages).Error; err != nil {
		return err
	}
	if usages == 0 {
		return nil
	}
	if err := tx.Model(&models.ClassCreditTransaction{}).
		Where("booking_id = ? AND type = ?", bookingID, models.CreditRefund).
		Count(&refunds).Error; err != nil {
		return err
	}
	if refunds >= usages {
		return nil
	}

	var usage models.ClassCreditTransaction
	err := tx.Where("booking_id = ? AND type = ?", bookingID, models.CreditUsage).
		Order("created_at DESC").
		First(&usage).Error
	if err != nil {
		return err
	}
	if usage.PassID == nil {
		return nil
	}

	res := tx.Model(&models.MemberClassPass{}).
		Where("id = ? AND remaining_credits < total_credits", *usage.PassID).
		Updates(map[string]any{
			"remaining_credits": gorm.Expr("remaining_credits + 1"),
			"updated_at":        s.clock(),
		})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		s.log.Warn("refund skipped, pass already full", slog.String("pass_id", usage.PassID.String()))
		return nil
	}

	balance, _, err := s.balance(tx, usage.MemberID)
	if err != nil {
		return err
	}
	return s.appendTransaction(tx, models.ClassCreditTransaction{
		MemberID:     usage.MemberID,
		Type:         models.CreditRefund,
		Amount:       1,
		BalanceAfter: balance,
		BookingID:    &bookingID,
		PassID:       usage.PassID,
	})
}

func (s *CreditService) appendTransaction(tx *gorm.DB, t models.ClassCreditTransaction) error {
	if err := tx.Create(&t).Error; err != nil {
		return err
	}
	metrics.CreditTransactions.WithLabelValues(string(t.Type)).Inc()
	return nil
}

// expiresWithin is used by the statement to flag passes about to lapse.
func expiresWithin(p models.MemberClassPass, now time.Time, d time.Duration) bool {
	return p.ExpiresAt.After(now) && p.ExpiresAt.Sub(now) <= d
}
