package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	Bookings = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "gym_bookings_total",
			Help: "Booking attempts by outcome",
		},
		[]string{"outcome"},
	)

	WaitlistJoins = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "gym_waitlist_joins_total",
			Help: "Number of members added to a waitlist",
		},
	)

	WaitlistPromotions = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "gym_waitlist_promotions_total",
			Help: "Number of waitlist entries promoted to a booking",
		},
	)

	CreditTransactions = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "gym_credit_transactions_total",
			Help: "Credit ledger rows written by type",
		},
		[]string{"type"},
	)

	RemindersSent = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "gym_class_reminders_total",
			Help: "Class reminders sent by look-ahead window",
		},
		[]string{"window"},
	)

	NotificationFailures = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "gym_notification_failures_total",
			Help: "Notification deliveries that failed by channel",
		},
		[]string{"channel"},
	)
)

const (
	OutcomeConfirmed  = "confirmed"
	OutcomeWaitlisted = "waitlisted"
	OutcomeRejected   = "rejected"
	OutcomeCancelled  = "cancelled"
)

var registerOnce sync.Once

func Register() {
	registerOnce.Do(func() {
		prometheus.MustRegister(
			Bookings,
			WaitlistJoins,
			WaitlistPromotions,
			CreditTransactions,
			RemindersSent,
			NotificationFailures,
		)
	})
}
