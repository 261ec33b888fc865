package client

import (
	"github.com/BRIKIAchraf/MaitrioBeta-sub001/client/internal/chat"
	"github.com/BRIKIAchraf/MaitrioBeta-sub001/client/internal/events"
	"github.com/BRIKIAchraf/MaitrioBeta-sub001/client/internal/session"
	"github.com/BRIKIAchraf/MaitrioBeta-sub001/client/internal/support"
	"github.com/BRIKIAchraf/MaitrioBeta-sub001/client/internal/types"
	"github.com/BRIKIAchraf/MaitrioBeta-sub001/internal/config"
)

// Public type aliases so consumers can import only the client package.
type (
	// Configuration
	Config = config.Config

	// Stores
	SessionStore      = session.Store
	ConversationStore = chat.Store
	TicketStore       = support.Store

	// Requests
	RegistrationData    = types.RegistrationData
	UserPatch           = types.UserPatch
	NewConversation     = types.NewConversation
	CreateTicketRequest = types.CreateTicketRequest

	// Domain entities
	User           = types.User
	Role           = types.Role
	Conversation   = types.Conversation
	Message        = types.Message
	SupportTicket  = types.SupportTicket
	TicketResponse = types.TicketResponse
	TicketStatus   = types.TicketStatus
	TicketPriority = types.TicketPriority

	// Collaborators
	Clock       = types.Clock
	IDGenerator = types.IDGenerator

	// Change feed
	Event     = events.Event
	EventKind = events.EventKind
)

const (
	RoleClient  = types.RoleClient
	RoleArtisan = types.RoleArtisan
	RoleAdmin   = types.RoleAdmin

	StatusOpen       = types.StatusOpen
	StatusInProgress = types.StatusInProgress
	StatusResolved   = types.StatusResolved
	StatusClosed     = types.StatusClosed

	PriorityLow    = types.PriorityLow
	PriorityMedium = types.PriorityMedium
	PriorityHigh   = types.PriorityHigh
	PriorityUrgent = types.PriorityUrgent

	EventSessionChanged      = events.EventSessionChanged
	EventConversationChanged = events.EventConversationChanged
	EventMessageAdded        = events.EventMessageAdded
	EventMessagesRead        = events.EventMessagesRead
	EventTicketChanged       = events.EventTicketChanged
)

// LoadConfig reads MAISON_* environment variables, as New does when no
// WithConfig option is given.
func LoadConfig() (*Config, error) { return config.New() }
