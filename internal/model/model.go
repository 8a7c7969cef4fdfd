package model

import "time"

type EventType string

const (
	TypeConference EventType = "CONFERENCE"
	TypeWorkshop   EventType = "WORKSHOP"
	TypeMeetup     EventType = "MEETUP"
	TypeSocial     EventType = "SOCIAL"
	TypeCareerFair EventType = "CAREER_FAIR"
	TypeGraduation EventType = "GRADUATION"
	TypeOther      EventType = "OTHER"
)

// GeneralCategory is the sentinel mailing-list category that is not an event type.
const GeneralCategory = "general"

func EventTypes() []EventType {
	return []EventType{
		TypeConference, TypeWorkshop, TypeMeetup, TypeSocial,
		TypeCareerFair, TypeGraduation, TypeOther,
	}
}

func ValidEventType(t string) bool {
	for _, et := range EventTypes() {
		if string(et) == t {
			return true
		}
	}
	return false
}

// ValidCategory reports whether s names a mailing-list category.
func ValidCategory(s string) bool {
	return s == GeneralCategory || ValidEventType(s)
}

type EventStatus string

const (
	StatusDraft     EventStatus = "DRAFT"
	StatusPublished EventStatus = "PUBLISHED"
	StatusCancelled EventStatus = "CANCELLED"
)

func ValidEventStatus(s string) bool {
	switch EventStatus(s) {
	case StatusDraft, StatusPublished, StatusCancelled:
		return true
	}
	return false
}

type Location struct {
	Address string `db:"address" json:"address"`
	City    string `db:"city" json:"city"`
	State   string `db:"state" json:"state"`
	Country string `db:"country" json:"country"`
}

type Organizer struct {
	ID      int64  `db:"id" json:"id"`
	EventID int64  `db:"event_id" json:"-"`
	Name    string `db:"name" json:"name"`
	Email   string `db:"email" json:"email,omitempty"`
	Phone   string `db:"phone" json:"phone,omitempty"`
	Role    string `db:"role" json:"role,omitempty"`
}

// Event carries the catalog record together with its capacity counter.
// NumberOfApplications is maintained by the application ledger and is never
// written from request payloads.
type Event struct {
	ID                   int64       `db:"id" json:"id"`
	Name                 string      `db:"name" json:"name"`
	Type                 EventType   `db:"type" json:"type"`
	Date                 time.Time   `db:"date" json:"date"`
	Description          string      `db:"description" json:"description"`
	Location             Location    `db:"-" json:"location"`
	Status               EventStatus `db:"status" json:"status"`
	MinCapacity          int         `db:"min_capacity" json:"min_capacity"`
	MaxCapacity          int         `db:"max_capacity" json:"max_capacity"`
	NumberOfApplications int         `db:"number_of_applications" json:"number_of_applications"`
	Organizers           []Organizer `db:"-" json:"organizers"`
	Ushers               []string    `db:"-" json:"ushers"`
	CreatedAt            time.Time   `db:"created_at" json:"created_at"`
	UpdatedAt            time.Time   `db:"updated_at" json:"updated_at"`
}

// Joinable reports whether the event can accept applications at t.
func (e *Event) Joinable(t time.Time) bool {
	return e.Status == StatusPublished && e.Date.After(t)
}

type User struct {
	ID           int64     `db:"id" json:"id"`
	Name         string    `db:"name" json:"name"`
	Email        string    `db:"email" json:"email"`
	PasswordHash string    `db:"password_hash" json:"-"`
	IsAdmin      bool      `db:"is_admin" json:"isAdmin"`
	IsActivated  bool      `db:"is_activated" json:"isActivated"`
	CreatedAt    time.Time `db:"created_at" json:"created_at"`
}

// Application relates one user to one event. Presence of the row is the
// active state; unapplying deletes it.
type Application struct {
	ID        int64     `db:"id" json:"id"`
	EventID   int64     `db:"event_id" json:"event_id"`
	UserID    int64     `db:"user_id" json:"user_id"`
	AppliedAt time.Time `db:"applied_at" json:"applied_at"`
}

type Subscription struct {
	ID        int64     `db:"id" json:"id"`
	UserID    int64     `db:"user_id" json:"user_id"`
	Category  string    `db:"category" json:"category"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
}

// ActivationToken stores only the SHA-256 hash of the issued token.
type ActivationToken struct {
	TokenHash string    `db:"token_hash" json:"-"`
	UserID    int64     `db:"user_id" json:"user_id"`
	ExpiresAt time.Time `db:"expires_at" json:"expires_at"`
}

// Roster is the admin view of one event's applicants.
type Roster struct {
	Event     Event    `json:"event"`
	Attendees []string `json:"attendees"`
}
