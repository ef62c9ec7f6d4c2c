package services

import (
	"context"
	"errors"
	"strings"

	"github.com/anjiri1684/gym_studio/models"
	"github.com/anjiri1684/gym_studio/services/serverrors"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

type MemberService struct {
	*base
}

type CreateMemberInput struct {
	FullName string
	Email    string
	Password string
	Phone    string
}

type CreateTrainerInput struct {
	FullName       string
	Specialization string
	Email          string
	Password       string
}

// CreateMember registers the login and the member profile together.
func (s *MemberService) CreateMember(ctx context.Context, in CreateMemberInput) (models.Member, error) {
	var member models.Member

	email := strings.ToLower(strings.TrimSpace(in.Email))
	if strings.TrimSpace(in.FullName) == "" || email == "" {
		return member, serverrors.Validation("full_name and email are required")
	}
	if len(in.Password) < 8 {
		return member, serverrors.Validation("password must be at least 8 characters")
	}

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		user, err := createUser(tx, in.FullName, email, in.Password, models.RoleMember)
		if err != nil {
			return err
		}

		member = models.Member{
			UserID:   user.ID,
			FullName: user.FullName,
			Email:    user.Email,
			Status:   models.MemberStatusActive,
			JoinedAt: s.clock(),
		}
		if in.Phone != "" {
			phone := in.Phone
			member.Phone = &phone
		}
		return tx.Create(&member).Error
	})
	return member, err
}

func createUser(tx *gorm.DB, fullName, email, password, role string) (models.User, error) {
	var user models.User

	var count int64
	if err := tx.Model(&models.User{}).Where("email = ?", email).Count(&count).Error; err != nil {
		return user, err
	}
	if count > 0 {
		return user, serverrors.Conflict("email %s is already registered", email)
	}

	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return user, err
	}

	user = models.User{
		FullName: strings.TrimSpace(fullName),
		Email:    email,
		Password: string(hashedPassword),
		Role:     role,
		IsActive: true,
	}
	return user, tx.Create(&user).Error
}

func (s *MemberService) GetMember(ctx context.Context, p Principal, id uuid.UUID) (models.Member, error) {
	member, err := s.findMember(ctx, s.db, id)
	if err != nil {
		return member, err
	}
	return member, requireMember(p, member)
}

// MemberForUser resolves the member profile behind a login.
func (s *MemberService) MemberForUser(ctx context.Context, userID uuid.UUID) (models.Member, error) {
	var member models.Member
	if err := s.db.WithContext(ctx).First(&member, "user_id = ?", userID).Error; err != nil {
		return member, notFoundOr(err, "member for user", userID)
	}
	return member, nil
}

// ListMembers pages through members, optionally matching search against
// name or email.
func (s *MemberService) ListMembers(ctx context.Context, p Principal, search string, page, limit int) (Page[models.Member], error) {
	page, limit = normalizePage(page, limit)
	out := Page[models.Member]{Page: page, Limit: limit, Items: []models.Member{}}
	if err := RequireStaff(p); err != nil {
		return out, err
	}

	q := s.db.WithContext(ctx).Model(&models.Member{})
	if search = strings.ToLower(strings.TrimSpace(search)); search != "" {
		term := "%" + search + "%"
		q = q.Where("LOWER(full_name) LIKE ? OR LOWER(email) LIKE ?", term, term)
	}
	if err := q.Session(&gorm.Session{}).Count(&out.Total).Error; err != nil {
		return out, err
	}
	err := q.Order("full_name ASC").Offset((page - 1) * limit).Limit(limit).Find(&out.Items).Error
	return out, err
}

// SetMemberStatus suspends or reactivates a member. A suspended member's
// login is disabled until reactivation.
func (s *MemberService) SetMemberStatus(ctx context.Context, p Principal, memberID uuid.UUID, status string) (models.Member, error) {
	var member models.Member
	if err := RequireRole(p, models.RoleAdmin, models.RoleStaff); err != nil {
		return member, err
	}
	if status != models.MemberStatusActive && status != models.MemberStatusSuspended {
		return member, serverrors.Validation("unknown member status %q", status)
	}

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var err error
		if member, err = s.findMember(ctx, tx, memberID); err != nil {
			return err
		}
		if err := tx.Model(&models.Member{}).Where("id = ?", member.ID).
			Updates(map[string]any{"status": status, "updated_at": s.clock()}).Error; err != nil {
			return err
		}
		return tx.Model(&models.User{}).Where("id = ?", member.UserID).
			Updates(map[string]any{"is_active": status == models.MemberStatusActive, "updated_at": s.clock()}).Error
	})
	if err != nil {
		return member, err
	}
	member.Status = status
	return member, nil
}

// CreateTrainer adds a trainer. A login with the trainer role is created
// when an email is given.
func (s *MemberService) CreateTrainer(ctx context.Context, p Principal, in CreateTrainerInput) (models.Trainer, error) {
	var trainer models.Trainer
	if err := RequireRole(p, models.RoleAdmin, models.RoleStaff); err != nil {
		return trainer, err
	}
	if strings.TrimSpace(in.FullName) == "" {
		return trainer, serverrors.Validation("full_name is required")
	}

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		trainer = models.Trainer{
			FullName:       strings.TrimSpace(in.FullName),
			Specialization: in.Specialization,
			IsActive:       true,
		}
		if email := strings.ToLower(strings.TrimSpace(in.Email)); email != "" {
			if len(in.Password) < 8 {
				return serverrors.Validation("password must be at least 8 characters")
			}
			user, err := createUser(tx, in.FullName, email, in.Password, models.RoleTrainer)
			if err != nil {
				return err
			}
			trainer.UserID = &user.ID
		}
		return tx.Create(&trainer).Error
	})
	return trainer, err
}

func (s *MemberService) ListTrainers(ctx context.Context) ([]models.Trainer, error) {
	var trainers []models.Trainer
	err := s.db.WithContext(ctx).Where("is_active = ?", true).Order("full_name ASC").Find(&trainers).Error
	return trainers, err
}

// Authenticate checks a login. Unknown emails and wrong passwords return
// the same error.
func (s *MemberService) Authenticate(ctx context.Context, email, password string) (models.User, error) {
	var user models.User
	err := s.db.WithContext(ctx).Where("email = ?", strings.ToLower(strings.TrimSpace(email))).First(&user).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return user, serverrors.Unauthorized("invalid email or password")
	}
	if err != nil {
		return user, err
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(password)); err != nil {
		return user, serverrors.Unauthorized("invalid email or password")
	}
	if !user.IsActive {
		return user, serverrors.Forbidden("account %s is disabled", user.ID)
	}
	return user, nil
}
