package subscriptions

import (
	"errors"
	"fmt"
	"time"
)

// Status represents the subscription lifecycle state
type Status string

const (
	StatusActive    Status = "active"
	StatusTrial     Status = "trial"
	StatusExpired   Status = "expired"
	StatusCancelled Status = "cancelled"
)

// Valid reports whether the status is a known lifecycle state
func (s Status) Valid() bool {
	switch s {
	case StatusActive, StatusTrial, StatusExpired, StatusCancelled:
		return true
	}
	return false
}

// Current reports whether the status counts toward plan resolution
func (s Status) Current() bool {
	return s == StatusActive || s == StatusTrial
}

// AllStatuses returns every known lifecycle state
func AllStatuses() []Status {
	return []Status{StatusActive, StatusTrial, StatusExpired, StatusCancelled}
}

// PrincipalRef identifies the holder of a subscription: exactly one of
// UserID or ConferenceID is set.
type PrincipalRef struct {
	UserID       *int64 `json:"user_id,omitempty"`
	ConferenceID *int64 `json:"conference_id,omitempty"`
}

// ForUser returns a reference to a user principal
func ForUser(id int64) PrincipalRef {
	return PrincipalRef{UserID: &id}
}

// ForConference returns a reference to a conference principal
func ForConference(id int64) PrincipalRef {
	return PrincipalRef{ConferenceID: &id}
}

// Validate checks the exactly-one-side invariant
func (r PrincipalRef) Validate() error {
	if (r.UserID == nil) == (r.ConferenceID == nil) {
		return &ValidationError{
			Field:   "principal_ref",
			Message: "exactly one of user_id or conference_id must be set",
		}
	}
	return nil
}

func (r PrincipalRef) String() string {
	switch {
	case r.UserID != nil:
		return fmt.Sprintf("user:%d", *r.UserID)
	case r.ConferenceID != nil:
		return fmt.Sprintf("conference:%d", *r.ConferenceID)
	}
	return "unset"
}

// Subscription is a time-bounded binding of a principal to a plan
type Subscription struct {
	ID           int64      `json:"id"`
	PublicID     string     `json:"public_id"`
	UserID       *int64     `json:"user_id,omitempty"`
	ConferenceID *int64     `json:"conference_id,omitempty"`
	PlanID       int64      `json:"plan_id"`
	Status       Status     `json:"status"`
	StartsAt     time.Time  `json:"starts_at"`
	EndsAt       *time.Time `json:"ends_at,omitempty"`
	TrialEndsAt  *time.Time `json:"trial_ends_at,omitempty"`
	CreatedAt    time.Time  `json:"created_at"`
	UpdatedAt    time.Time  `json:"updated_at"`
}

// Principal returns the subscription holder reference
func (s *Subscription) Principal() PrincipalRef {
	return PrincipalRef{UserID: s.UserID, ConferenceID: s.ConferenceID}
}

// CurrentAt reports whether the subscription counts toward plan resolution
// at the given instant. The end date is inclusive: a subscription ending
// exactly now is still current.
func (s *Subscription) CurrentAt(now time.Time) bool {
	if !s.Status.Current() {
		return false
	}
	if s.EndsAt == nil {
		return true
	}
	return !s.EndsAt.Before(now)
}

// Validate checks the subscription shape before it is written
func (s *Subscription) Validate() error {
	if err := s.Principal().Validate(); err != nil {
		return err
	}
	if s.PlanID <= 0 {
		return &ValidationError{Field: "plan_id", Message: "plan reference is required"}
	}
	if !s.Status.Valid() {
		return &ValidationError{
			Field:   "status",
			Message: fmt.Sprintf("unknown status %q", s.Status),
		}
	}
	return nil
}

// ValidationError represents malformed subscription input
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid subscription: %s: %s", e.Field, e.Message)
}

// IsValidationError checks if an error is a subscription validation error
func IsValidationError(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}

// ErrSubscriptionNotFound indicates no row matched a direct lookup
var ErrSubscriptionNotFound = errors.New("subscription not found")
