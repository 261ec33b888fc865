package types

import (
	"maps"
	"slices"
	"time"
)

// ------------------------------
// Session
// ------------------------------

// Role gates which screen stack a user may reach.
type Role string

const (
	RoleClient  Role = "client"
	RoleArtisan Role = "artisan"
	RoleAdmin   Role = "admin"
)

// Valid reports whether r is one of the known roles.
func (r Role) Valid() bool {
	switch r {
	case RoleClient, RoleArtisan, RoleAdmin:
		return true
	}
	return false
}

// User is the authenticated identity mirrored under the session key.
// Profile and Wallet are opaque payloads owned by other subsystems.
type User struct {
	ID         string         `json:"id"`
	Username   string         `json:"username"`
	Name       string         `json:"name"`
	FirstName  string         `json:"firstName,omitempty"`
	LastName   string         `json:"lastName,omitempty"`
	Email      string         `json:"email"`
	Phone      string         `json:"phone,omitempty"`
	Role       Role           `json:"role"`
	IsVerified *bool          `json:"isVerified,omitempty"`
	TrustScore *float64       `json:"trustScore,omitempty"`
	KYCStatus  string         `json:"kycStatus,omitempty"`
	CreatedAt  time.Time      `json:"createdAt"`
	Profile    map[string]any `json:"profile,omitempty"`
	Wallet     map[string]any `json:"wallet,omitempty"`
	Token      string         `json:"token,omitempty"`
}

// Clone returns a copy that shares no mutable top-level state with u.
func (u *User) Clone() *User {
	if u == nil {
		return nil
	}
	c := *u
	if u.IsVerified != nil {
		v := *u.IsVerified
		c.IsVerified = &v
	}
	if u.TrustScore != nil {
		v := *u.TrustScore
		c.TrustScore = &v
	}
	c.Profile = maps.Clone(u.Profile)
	c.Wallet = maps.Clone(u.Wallet)
	return &c
}

// UserPatch is a shallow partial update; nil fields are left untouched.
type UserPatch struct {
	Name       *string
	FirstName  *string
	LastName   *string
	Email      *string
	Phone      *string
	Role       *Role
	IsVerified *bool
	TrustScore *float64
	KYCStatus  *string
	Profile    map[string]any
	Wallet     map[string]any
	Token      *string
}

// Apply merges p into u in place.
func (p UserPatch) Apply(u *User) {
	if p.Name != nil {
		u.Name = *p.Name
	}
	if p.FirstName != nil {
		u.FirstName = *p.FirstName
	}
	if p.LastName != nil {
		u.LastName = *p.LastName
	}
	if p.Email != nil {
		u.Email = *p.Email
	}
	if p.Phone != nil {
		u.Phone = *p.Phone
	}
	if p.Role != nil {
		u.Role = *p.Role
	}
	if p.IsVerified != nil {
		v := *p.IsVerified
		u.IsVerified = &v
	}
	if p.TrustScore != nil {
		v := *p.TrustScore
		u.TrustScore = &v
	}
	if p.KYCStatus != nil {
		u.KYCStatus = *p.KYCStatus
	}
	if p.Profile != nil {
		u.Profile = maps.Clone(p.Profile)
	}
	if p.Wallet != nil {
		u.Wallet = maps.Clone(p.Wallet)
	}
	if p.Token != nil {
		u.Token = *p.Token
	}
}

// ------------------------------
// Chat
// ------------------------------

// Conversation is the channel between the client and the artisan of one
// mission. MissionTitle, names and LastMessage* are snapshots.
type Conversation struct {
	ID              string     `json:"id"`
	MissionID       string     `json:"missionId"`
	MissionTitle    string     `json:"missionTitle"`
	ClientID        string     `json:"clientId"`
	ClientName      string     `json:"clientName"`
	ArtisanID       string     `json:"artisanId"`
	ArtisanName     string     `json:"artisanName"`
	LastMessage     string     `json:"lastMessage,omitempty"`
	LastMessageTime *time.Time `json:"lastMessageTime,omitempty"`
	UnreadCount     int        `json:"unreadCount"`
	CreatedAt       time.Time  `json:"createdAt"`
}

// HasParticipant reports whether userID is the client or the artisan.
func (c Conversation) HasParticipant(userID string) bool {
	return c.ClientID == userID || c.ArtisanID == userID
}

// Message belongs to exactly one conversation.
type Message struct {
	ID             string    `json:"id"`
	ConversationID string    `json:"conversationId"`
	SenderID       string    `json:"senderId"`
	SenderName     string    `json:"senderName"`
	Text           string    `json:"text"`
	CreatedAt      time.Time `json:"createdAt"`
	Read           bool      `json:"read"`
}

// ------------------------------
// Support
// ------------------------------

type TicketPriority string

const (
	PriorityLow    TicketPriority = "low"
	PriorityMedium TicketPriority = "medium"
	PriorityHigh   TicketPriority = "high"
	PriorityUrgent TicketPriority = "urgent"
)

func (p TicketPriority) Valid() bool {
	switch p {
	case PriorityLow, PriorityMedium, PriorityHigh, PriorityUrgent:
		return true
	}
	return false
}

type TicketStatus string

const (
	StatusOpen       TicketStatus = "open"
	StatusInProgress TicketStatus = "in_progress"
	StatusResolved   TicketStatus = "resolved"
	StatusClosed     TicketStatus = "closed"
)

func (s TicketStatus) Valid() bool {
	switch s {
	case StatusOpen, StatusInProgress, StatusResolved, StatusClosed:
		return true
	}
	return false
}

// SupportTicket is a support case opened by a user.
type SupportTicket struct {
	ID          string           `json:"id"`
	UserID      string           `json:"userId"`
	MissionID   string           `json:"missionId,omitempty"`
	Subject     string           `json:"subject"`
	Description string           `json:"description"`
	Priority    TicketPriority   `json:"priority"`
	Status      TicketStatus     `json:"status"`
	Category    string           `json:"category"`
	Photos      []string         `json:"photos,omitempty"`
	Responses   []TicketResponse `json:"responses"`
	CreatedAt   time.Time        `json:"createdAt"`
	UpdatedAt   time.Time        `json:"updatedAt"`
}

// Clone copies the ticket including its response and photo slices.
func (t SupportTicket) Clone() SupportTicket {
	t.Photos = slices.Clone(t.Photos)
	t.Responses = slices.Clone(t.Responses)
	if t.Responses == nil {
		t.Responses = []TicketResponse{}
	}
	return t
}

// TicketResponse is one append-only entry of a ticket thread.
type TicketResponse struct {
	ID         string    `json:"id"`
	SenderID   string    `json:"senderId"`
	SenderName string    `json:"senderName"`
	IsAdmin    bool      `json:"isAdmin"`
	Message    string    `json:"message"`
	CreatedAt  time.Time `json:"createdAt"`
}
