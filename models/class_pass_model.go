package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

const (
	PassStatusActive  = "ACTIVE"
	PassStatusExpired = "EXPIRED"
)

type CreditTransactionType string

const (
	CreditPurchase CreditTransactionType = "PURCHASE"
	CreditUsage    CreditTransactionType = "USAGE"
	CreditRefund   CreditTransactionType = "REFUND"
)

type ClassPackage struct {
	ID               uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	Name             string    `gorm:"size:255;not null" json:"name"`
	Description      string    `gorm:"type:text" json:"description"`
	CreditsIncluded  int       `gorm:"not null" json:"credits_included"`
	Price            float64   `gorm:"type:numeric(10,2);not null" json:"price"`
	Currency         string    `gorm:"size:3;default:'USD'" json:"currency"`
	ValidityDays     int       `json:"validity_days"`
	MonthlyUnlimited bool      `json:"monthly_unlimited"`
	IsActive         bool      `json:"is_active"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (p *ClassPackage) BeforeCreate(tx *gorm.DB) error {
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	return nil
}

// MemberClassPass keeps 0 <= RemainingCredits <= TotalCredits. Unlimited
// passes carry no numeric credits.
type MemberClassPass struct {
	ID               uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	MemberID         uuid.UUID `gorm:"type:uuid;not null;index" json:"member_id"`
	ClassPackageID   uuid.UUID `gorm:"type:uuid;not null" json:"class_package_id"`
	TotalCredits     int       `gorm:"not null" json:"total_credits"`
	RemainingCredits int       `gorm:"not null" json:"remaining_credits"`
	MonthlyUnlimited bool      `json:"monthly_unlimited"`
	Status           string    `gorm:"size:20;not null;index" json:"status"`
	PurchasedAt      time.Time `gorm:"not null" json:"purchased_at"`
	ExpiresAt        time.Time `gorm:"not null;index" json:"expires_at"`

	ClassPackage ClassPackage `gorm:"foreignKey:ClassPackageID" json:"class_package,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (p *MemberClassPass) BeforeCreate(tx *gorm.DB) error {
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	return nil
}

// ClassCreditTransaction is append-only.
type ClassCreditTransaction struct {
	ID           uuid.UUID             `gorm:"type:uuid;primaryKey" json:"id"`
	MemberID     uuid.UUID             `gorm:"type:uuid;not null;index" json:"member_id"`
	Type         CreditTransactionType `gorm:"size:20;not null" json:"type"`
	Amount       int                   `gorm:"not null" json:"amount"`
	BalanceAfter int                   `gorm:"not null" json:"balance_after"`
	BookingID    *uuid.UUID            `gorm:"type:uuid;index" json:"booking_id,omitempty"`
	PassID       *uuid.UUID            `gorm:"type:uuid" json:"pass_id,omitempty"`
	Note         string                `gorm:"size:255" json:"note,omitempty"`

	CreatedAt time.Time `gorm:"index" json:"created_at"`
}

func (t *ClassCreditTransaction) BeforeCreate(tx *gorm.DB) error {
	if t.ID == uuid.Nil {
		t.ID = uuid.New()
	}
	return nil
}

type CreditStatement struct {
	ID           uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	MemberID     uuid.UUID `gorm:"type:uuid;not null;index" json:"member_id"`
	URL          string    `gorm:"size:512;not null" json:"url"`
	Balance      int       `json:"balance"`
	GeneratedAt  time.Time `gorm:"not null" json:"generated_at"`
	Transactions int       `json:"transactions"`
}

func (s *CreditStatement) BeforeCreate(tx *gorm.DB) error {
	if s.ID == uuid.Nil {
		s.ID = uuid.New()
	}
	return nil
}
