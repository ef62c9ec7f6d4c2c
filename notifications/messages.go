package notifications

import "github.com/google/uuid"

// Notification kinds. Role broadcasts can be switched off per kind through
// NotificationSetting rows.
const (
	KindNewBooking       = "new_booking"
	KindBookingCancelled = "booking_cancelled"
	KindWaitlistJoined   = "waitlist_joined"
	KindWaitlistPromoted = "waitlist_promoted"
	KindClassReminder    = "class_reminder"
	KindClassCancelled   = "class_cancelled"
	KindPackagePurchased = "package_purchased"
)

const (
	TypeInfo    = "info"
	TypeSuccess = "success"
	TypeWarning = "warning"
)

type RoleMessage struct {
	Role      string `json:"role"`
	Title     string `json:"title"`
	Message   string `json:"message"`
	Type      string `json:"type"`
	ActionURL string `json:"action_url,omitempty"`
}

type UserMessage struct {
	UserID    uuid.UUID `json:"user_id"`
	Kind      string    `json:"kind,omitempty"`
	Title     string    `json:"title"`
	Message   string    `json:"message"`
	Type      string    `json:"type"`
	ActionURL string    `json:"action_url,omitempty"`
}
