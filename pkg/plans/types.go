package plans

import (
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"time"
)

// ResourceKind identifies a category of countable entity subject to a plan ceiling
type ResourceKind string

const (
	ResourceConference     ResourceKind = "conference"
	ResourceParticipant    ResourceKind = "participant"
	ResourcePoll           ResourceKind = "poll"
	ResourceQuestion       ResourceKind = "question"
	ResourceMeeting        ResourceKind = "meeting"
	ResourceMeetingPerUser ResourceKind = "meeting_per_user"
	ResourceSpeaker        ResourceKind = "speaker"
	ResourceAdmin          ResourceKind = "admin"
)

// AllResourceKinds returns every known resource kind
func AllResourceKinds() []ResourceKind {
	return []ResourceKind{
		ResourceConference,
		ResourceParticipant,
		ResourcePoll,
		ResourceQuestion,
		ResourceMeeting,
		ResourceMeetingPerUser,
		ResourceSpeaker,
		ResourceAdmin,
	}
}

// Valid reports whether the kind is one of the known resource kinds
func (k ResourceKind) Valid() bool {
	switch k {
	case ResourceConference, ResourceParticipant, ResourcePoll, ResourceQuestion,
		ResourceMeeting, ResourceMeetingPerUser, ResourceSpeaker, ResourceAdmin:
		return true
	}
	return false
}

// Well-known feature flag names. Plans may carry additional flags; lookups of
// unknown names return false.
const (
	FeaturePolls          = "pollsEnabled"
	FeatureQuestions      = "questionsEnabled"
	FeatureMeetings       = "meetingsEnabled"
	FeatureSpeakers       = "speakersEnabled"
	FeatureCustomBranding = "customBrandingEnabled"
	FeatureExports        = "exportsEnabled"
)

// UnlimitedSentinel is the stored limit value meaning "no ceiling"
const UnlimitedSentinel int64 = -1

// Limit is the resolved form of a stored limit value: either unlimited or
// bounded by a non-negative ceiling. Converting at the read boundary keeps
// the -1 convention out of comparison logic.
type Limit struct {
	unlimited bool
	value     int64
}

// Unlimited returns the limit with no ceiling
func Unlimited() Limit {
	return Limit{unlimited: true}
}

// Bounded returns a limit capped at n. Negative values are treated as zero.
func Bounded(n int64) Limit {
	if n < 0 {
		n = 0
	}
	return Limit{value: n}
}

// LimitFromStored converts a stored limit value, mapping the sentinel to Unlimited
func LimitFromStored(v int64) Limit {
	if v == UnlimitedSentinel {
		return Unlimited()
	}
	return Bounded(v)
}

// IsUnlimited reports whether the limit has no ceiling
func (l Limit) IsUnlimited() bool {
	return l.unlimited
}

// Stored returns the storage representation: the sentinel for unlimited,
// the ceiling otherwise.
func (l Limit) Stored() int64 {
	if l.unlimited {
		return UnlimitedSentinel
	}
	return l.value
}

// Allows reports whether a new resource may be created given the current
// count. A ceiling of N permits at most N resources to exist before the new
// one, so creation is denied once current reaches N.
func (l Limit) Allows(current int64) bool {
	if l.unlimited {
		return true
	}
	return current < l.value
}

func (l Limit) String() string {
	if l.unlimited {
		return "unlimited"
	}
	return strconv.FormatInt(l.value, 10)
}

// MarshalJSON emits the storage representation
func (l Limit) MarshalJSON() ([]byte, error) {
	return json.Marshal(l.Stored())
}

// UnmarshalJSON parses the storage representation
func (l *Limit) UnmarshalJSON(data []byte) error {
	var v int64
	if err := json.Unmarshal(data, &v); err != nil {
		return err
	}
	*l = LimitFromStored(v)
	return nil
}

// Plan is a named bundle of usage ceilings and feature flags. Limits hold the
// stored representation (UnlimitedSentinel or a non-negative ceiling); use
// LimitFor to read them.
type Plan struct {
	ID          int64                  `json:"id"`
	Name        string                 `json:"name"`
	DisplayName string                 `json:"display_name"`
	PriceCents  int64                  `json:"price_cents"`
	Limits      map[ResourceKind]int64 `json:"limits"`
	Features    map[string]bool        `json:"features"`
	IsActive    bool                   `json:"is_active"`
	IsDefault   bool                   `json:"is_default"`
	CreatedAt   time.Time              `json:"created_at"`
	UpdatedAt   time.Time              `json:"updated_at"`
}

// LimitFor returns the resolved limit for a resource kind. Absent keys mean
// the plan does not cap that kind.
func (p *Plan) LimitFor(kind ResourceKind) Limit {
	v, ok := p.Limits[kind]
	if !ok {
		return Unlimited()
	}
	return LimitFromStored(v)
}

// FeatureEnabled reports whether a feature flag is set. Unknown names return
// false so a typo can never grant access.
func (p *Plan) FeatureEnabled(name string) bool {
	return p.Features[name]
}

// Validate checks the plan definition shape before it is written
func (p *Plan) Validate() error {
	if p.Name == "" {
		return &ValidationError{Field: "name", Message: "name is required"}
	}
	if p.PriceCents < 0 {
		return &ValidationError{Field: "price_cents", Message: "price must not be negative"}
	}
	for kind, v := range p.Limits {
		if !kind.Valid() {
			return &ValidationError{
				Field:   "limits",
				Message: fmt.Sprintf("unknown resource kind %q", kind),
			}
		}
		if v < UnlimitedSentinel {
			return &ValidationError{
				Field:   "limits",
				Message: fmt.Sprintf("limit for %s must be %d (unlimited) or a non-negative ceiling", kind, UnlimitedSentinel),
			}
		}
	}
	return nil
}

// ValidationError represents a malformed plan definition
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid plan: %s: %s", e.Field, e.Message)
}

// IsValidationError checks if an error is a plan validation error
func IsValidationError(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}

var (
	// ErrPlanNotFound indicates a direct plan lookup found no row
	ErrPlanNotFound = errors.New("plan not found")

	// ErrNoDefaultPlan indicates no active plan is marked as the default
	ErrNoDefaultPlan = errors.New("no default plan configured")
)
