package serverrors

import (
	"errors"
	"fmt"
	"testing"
)

func TestKinds(t *testing.T) {
	parseErr := errors.New("bad BYDAY")

	tests := []struct {
		name    string
		err     error
		kind    error
		message string
	}{
		{"not found", NotFound("member", 7), ErrNotFound, "member 7 not found"},
		{"forbidden", Forbidden("members may only book for themselves"), ErrForbidden, "members may only book for themselves"},
		{"conflict", Conflict("booking %s already confirmed", "b1"), ErrConflict, "booking b1 already confirmed"},
		{"invalid state", InvalidState("schedule %d is inactive", 3), ErrInvalidState, "schedule 3 is inactive"},
		{"recurrence", InvalidRecurrence(parseErr), ErrInvalidRecurrence, "bad BYDAY"},
		{"waitlisted", &WaitlistedError{ScheduleID: "s1", Position: 2}, ErrConflict, "class schedule s1 is full, added to waitlist at position 2"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			wrapped := fmt.Errorf("op: %w", tt.err)
			if !errors.Is(wrapped, tt.kind) {
				t.Errorf("errors.Is(%v, %v) = false", wrapped, tt.kind)
			}
			if tt.err.Error() != tt.message {
				t.Errorf("Error() = %q; want %q", tt.err.Error(), tt.message)
			}
		})
	}

	if !errors.Is(InvalidRecurrence(parseErr), parseErr) {
		t.Error("InvalidRecurrence does not unwrap to its cause")
	}
	var w *WaitlistedError
	if !errors.As(fmt.Errorf("book: %w", &WaitlistedError{Position: 1}), &w) || w.Position != 1 {
		t.Error("errors.As did not find WaitlistedError")
	}
}
