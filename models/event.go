package models

import "time"

// EventStatus представляет статусы события, соответствующие ENUM в БД.
type EventStatus string

const (
	StatusUpcoming     EventStatus = "upcoming"
	StatusRegistration EventStatus = "registration"
	StatusLive         EventStatus = "live"
	StatusCompleted    EventStatus = "completed"
	StatusCanceled     EventStatus = "canceled"
)

// RoundKind - фиксированный набор видов раундов оценивания.
type RoundKind string

const (
	RoundDeck      RoundKind = "ppt"
	RoundRepo      RoundKind = "repo"
	RoundInterview RoundKind = "viva"
)

func (k RoundKind) Valid() bool {
	switch k {
	case RoundDeck, RoundRepo, RoundInterview:
		return true
	}
	return false
}

// Round - один этап оценивания события. Раунды неизменяемы после создания события.
type Round struct {
	EventID      int       `json:"-" db:"event_id"`
	Kind         RoundKind `json:"id" db:"kind"`
	Instructions string    `json:"description" db:"instructions"`
	Position     int       `json:"-" db:"position"`
}

// Event представляет хакатон-событие с упорядоченным списком раундов.
type Event struct {
	ID                   int         `json:"id" db:"id"`
	Name                 string      `json:"name" db:"name"`
	Summary              string      `json:"summary" db:"summary"`
	Description          string      `json:"description" db:"description"`
	OrganizerID          int         `json:"organizer_id" db:"organizer_id"`
	Date                 time.Time   `json:"date" db:"date"`
	RegistrationDeadline time.Time   `json:"registrationDeadline" db:"registration_deadline"`
	Prize                string      `json:"prize" db:"prize"`
	MaxTeams             int         `json:"maxTeams" db:"max_teams"`
	MinMembers           int         `json:"minMembers" db:"min_members"`
	MaxMembers           int         `json:"maxMembers" db:"max_members"`
	Status               EventStatus `json:"status" db:"status"`
	CreatedAt            time.Time   `json:"created_at" db:"created_at"`

	BannerKey *string `json:"-" db:"banner_key"`
	BannerURL *string `json:"banner,omitempty" db:"-"`
	LogoKey   *string `json:"-" db:"logo_key"`
	LogoURL   *string `json:"logo,omitempty" db:"-"`

	Rounds []Round `json:"rounds,omitempty" db:"-"`

	Organizer *User `json:"organizer,omitempty" db:"-"`
}

// EventDraft - черновик события, сгенерированный внешним AI-коллаборатором
// для автозаполнения формы создания.
type EventDraft struct {
	Name                 string `json:"name"`
	Summary              string `json:"summary"`
	Description          string `json:"description"`
	Date                 string `json:"date"`
	RegistrationDeadline string `json:"registrationDeadline"`
	Prize                string `json:"prize"`
	MaxTeams             int    `json:"maxTeams"`
	MinMembers           int    `json:"minMembers"`
	MaxMembers           int    `json:"maxMembers"`
}
