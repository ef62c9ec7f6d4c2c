package notifications

import (
	"context"
	"errors"
	"fmt"
	"html"
	"io"
	"log/slog"
	"sync"
	"time"

	"github.com/anjiri1684/gym_studio/metrics"
	"github.com/anjiri1684/gym_studio/models"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

const fanoutTimeout = 30 * time.Second

// Pusher delivers live messages to connected clients.
type Pusher interface {
	SendToUser(userID uuid.UUID, payload any) bool
	BroadcastToRole(role string, payload any) bool
}

// EventPublisher emits domain events for other consumers.
type EventPublisher interface {
	PublishJSON(ctx context.Context, key string, v any) error
}

// Mailer sends a single HTML email.
type Mailer interface {
	Send(ctx context.Context, toEmail, toName, subject, htmlContent string) error
}

// Service persists notifications and fans them out to the websocket hub,
// the event exchange and email. Every channel is optional.
type Service struct {
	db        *gorm.DB
	pusher    Pusher
	publisher EventPublisher
	mailer    Mailer
	log       *slog.Logger
	wg        sync.WaitGroup
}

type Option func(*Service)

func WithPusher(p Pusher) Option { return func(s *Service) { s.pusher = p } }

func WithPublisher(p EventPublisher) Option { return func(s *Service) { s.publisher = p } }

func WithMailer(m Mailer) Option { return func(s *Service) { s.mailer = m } }

func NewService(db *gorm.DB, log *slog.Logger, opts ...Option) *Service {
	if log == nil {
		log = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	s := &Service{db: db, log: log}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Payload is what live clients and event consumers receive.
type Payload struct {
	ID        uuid.UUID  `json:"id"`
	Kind      string     `json:"kind"`
	UserID    *uuid.UUID `json:"user_id,omitempty"`
	Role      *string    `json:"role,omitempty"`
	Title     string     `json:"title"`
	Message   string     `json:"message"`
	Type      string     `json:"type"`
	ActionURL string     `json:"action_url,omitempty"`
	CreatedAt time.Time  `json:"created_at"`
}

func payloadOf(n models.Notification) Payload {
	return Payload{
		ID:        n.ID,
		Kind:      n.Kind,
		UserID:    n.UserID,
		Role:      n.Role,
		Title:     n.Title,
		Message:   n.Message,
		Type:      n.Type,
		ActionURL: n.ActionURL,
		CreatedAt: n.CreatedAt,
	}
}

// Enabled reports whether kind is switched on. Kinds without a setting row
// are enabled.
func (s *Service) Enabled(ctx context.Context, kind string) (bool, error) {
	var setting models.NotificationSetting
	err := s.db.WithContext(ctx).First(&setting, "kind = ?", kind).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return true, nil
	}
	if err != nil {
		return false, err
	}
	return setting.Enabled, nil
}

func (s *Service) SetEnabled(ctx context.Context, kind string, enabled bool) error {
	setting := models.NotificationSetting{Kind: kind, Enabled: enabled}
	return s.db.WithContext(ctx).Save(&setting).Error
}

// NotifyIfEnabled stores a role-wide notification unless kind is disabled.
func (s *Service) NotifyIfEnabled(ctx context.Context, kind string, msg RoleMessage) error {
	enabled, err := s.Enabled(ctx, kind)
	if err != nil {
		return fmt.Errorf("read notification setting %s: %w", kind, err)
	}
	if !enabled {
		s.log.Debug("notification kind disabled", slog.String("kind", kind))
		return nil
	}

	role := msg.Role
	n := models.Notification{
		Role:      &role,
		Kind:      kind,
		Title:     msg.Title,
		Message:   msg.Message,
		Type:      msg.Type,
		ActionURL: msg.ActionURL,
	}
	if err := s.db.WithContext(ctx).Create(&n).Error; err != nil {
		return fmt.Errorf("store role notification: %w", err)
	}

	s.fanout(ctx, func(ctx context.Context) {
		p := payloadOf(n)
		if s.pusher != nil {
			s.pusher.BroadcastToRole(role, p)
		}
		s.publish(ctx, "notification.role."+kind, p)
		if s.mailer == nil {
			return
		}
		var users []models.User
		if err := s.db.WithContext(ctx).Where("role = ? AND is_active = ?", role, true).Find(&users).Error; err != nil {
			s.failed("email", err)
			return
		}
		for _, u := range users {
			s.email(ctx, u, n)
		}
	})
	return nil
}

// CreateForUser stores a notification addressed to one user.
func (s *Service) CreateForUser(ctx context.Context, msg UserMessage) error {
	if msg.UserID == uuid.Nil {
		return errors.New("notification without recipient")
	}
	kind := msg.Kind
	if kind == "" {
		kind = "general"
	}
	userID := msg.UserID
	n := models.Notification{
		UserID:    &userID,
		Kind:      kind,
		Title:     msg.Title,
		Message:   msg.Message,
		Type:      msg.Type,
		ActionURL: msg.ActionURL,
	}
	if err := s.db.WithContext(ctx).Create(&n).Error; err != nil {
		return fmt.Errorf("store user notification: %w", err)
	}

	s.fanout(ctx, func(ctx context.Context) {
		p := payloadOf(n)
		if s.pusher != nil {
			s.pusher.SendToUser(userID, p)
		}
		s.publish(ctx, "notification.user."+kind, p)
		if s.mailer == nil {
			return
		}
		var u models.User
		if err := s.db.WithContext(ctx).First(&u, "id = ?", userID).Error; err != nil {
			s.failed("email", err)
			return
		}
		s.email(ctx, u, n)
	})
	return nil
}

func (s *Service) ListForUser(ctx context.Context, userID uuid.UUID, role string, unreadOnly bool) ([]models.Notification, error) {
	var out []models.Notification
	q := s.db.WithContext(ctx).Where("user_id = ? OR role = ?", userID, role)
	if unreadOnly {
		q = q.Where("read_at IS NULL")
	}
	err := q.Order("created_at DESC").Limit(100).Find(&out).Error
	return out, err
}

// MarkRead marks a user's own notification as read. It returns
// gorm.ErrRecordNotFound when the notification is not addressed to userID.
func (s *Service) MarkRead(ctx context.Context, userID, id uuid.UUID, at time.Time) error {
	res := s.db.WithContext(ctx).Model(&models.Notification{}).
		Where("id = ? AND user_id = ?", id, userID).
		Update("read_at", at.UTC())
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

// Wait blocks until in-flight fan-outs finish.
func (s *Service) Wait() {
	s.wg.Wait()
}

func (s *Service) fanout(ctx context.Context, fn func(ctx context.Context)) {
	if s.pusher == nil && s.publisher == nil && s.mailer == nil {
		return
	}
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), fanoutTimeout)
		defer cancel()
		fn(ctx)
	}()
}

func (s *Service) publish(ctx context.Context, key string, p Payload) {
	if s.publisher == nil {
		return
	}
	if err := s.publisher.PublishJSON(ctx, key, p); err != nil {
		s.failed("amqp", err)
	}
}

func (s *Service) email(ctx context.Context, u models.User, n models.Notification) {
	if u.Email == "" {
		return
	}
	body := fmt.Sprintf("<h1>%s</h1><p>Hi %s,</p><p>%s</p>",
		html.EscapeString(n.Title), html.EscapeString(u.FullName), html.EscapeString(n.Message))
	if err := s.mailer.Send(ctx, u.Email, u.FullName, n.Title, body); err != nil {
		s.failed("email", err)
	}
}

func (s *Service) failed(channel string, err error) {
	metrics.NotificationFailures.WithLabelValues(channel).Inc()
	s.log.Warn("notification delivery failed", slog.String("channel", channel), slog.Any("error", err))
}
