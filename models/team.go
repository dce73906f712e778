package models

import "time"

// RequestStatus соответствует ENUM request_status в БД.
type RequestStatus string

const (
	RequestPending  RequestStatus = "pending"
	RequestAccepted RequestStatus = "accepted"
	RequestRejected RequestStatus = "rejected"
)

// Team - команда, привязанная к одному событию. Лидер определяется
// исключительно полем LeaderID, не позицией в списке участников.
type Team struct {
	ID        int       `json:"teamId" db:"id"`
	EventID   int       `json:"eventId" db:"event_id"`
	Name      string    `json:"teamName" db:"name"`
	LeaderID  int       `json:"leaderId" db:"leader_id"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`

	Members  []TeamMember  `json:"members" db:"-"`
	Requests []JoinRequest `json:"requests" db:"-"`
}

type TeamMember struct {
	UserID   int       `json:"userId" db:"user_id"`
	Name     string    `json:"name" db:"-"`
	Email    string    `json:"email" db:"-"`
	JoinedAt time.Time `json:"joined_at" db:"joined_at"`
}

// JoinRequest - заявка на вступление. Разрешается лидером ровно один раз.
type JoinRequest struct {
	ID         int           `json:"requestId" db:"id"`
	TeamID     int           `json:"teamId" db:"team_id"`
	UserID     int           `json:"userId" db:"user_id"`
	Name       string        `json:"name" db:"-"`
	Status     RequestStatus `json:"status" db:"status"`
	CreatedAt  time.Time     `json:"created_at" db:"created_at"`
	ResolvedAt *time.Time    `json:"resolved_at,omitempty" db:"resolved_at"`
}

// TeamRelation - взаимоисключающее отношение пользователя к команде.
type TeamRelation string

const (
	RelationNone    TeamRelation = "none"
	RelationPending TeamRelation = "pending"
	RelationMember  TeamRelation = "member"
	RelationLeader  TeamRelation = "leader"
)
