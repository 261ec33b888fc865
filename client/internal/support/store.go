// Package support owns support tickets and their response threads.
//
// Tickets are kept most-recent-first. A new ticket receives an automated
// acknowledgement from the support desk after a configurable delay.
package support

import (
	"context"
	stderrors "errors"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/BRIKIAchraf/MaitrioBeta-sub001/client/internal/errors"
	"github.com/BRIKIAchraf/MaitrioBeta-sub001/client/internal/events"
	"github.com/BRIKIAchraf/MaitrioBeta-sub001/client/internal/persist"
	"github.com/BRIKIAchraf/MaitrioBeta-sub001/client/internal/scheduler"
	"github.com/BRIKIAchraf/MaitrioBeta-sub001/client/internal/types"
)

const (
	// DefaultAckDelay is the usual delay before the automated acknowledgement.
	DefaultAckDelay = 2 * time.Second

	SupportSenderID   = "support"
	SupportSenderName = "Support Maison"
	AckMessage        = "Merci pour votre message. Notre équipe support a bien reçu votre demande et vous répondra dans les plus brefs délais."

	defaultCategory = "other"
)

// Scheduler runs the deferred acknowledgement.
type Scheduler interface {
	Schedule(key string, delay time.Duration, fn func(context.Context)) error
	Cancel(key string) bool
}

// Config wires a Store to its collaborators. Bus may be nil. When Scheduler
// is nil the store runs its own and stops it on Close.
type Config struct {
	Mirror    *persist.Mirror
	Clock     types.Clock
	IDs       types.IDGenerator
	Bus       *events.Bus
	Scheduler Scheduler
	AckDelay  time.Duration
	Logger    zerolog.Logger
}

type Store struct {
	cfg   Config
	log   zerolog.Logger
	owned *scheduler.Scheduler

	writeMu sync.Mutex // serialises Load and mutations

	mu      sync.RWMutex
	tickets []types.SupportTicket
	loading bool
}

func New(cfg Config) *Store {
	if cfg.Clock == nil {
		cfg.Clock = types.SystemClock{}
	}
	if cfg.IDs == nil {
		cfg.IDs = types.UUIDGenerator{}
	}
	s := &Store{
		cfg:     cfg,
		log:     cfg.Logger.With().Str("store", "support").Logger(),
		tickets: []types.SupportTicket{},
		loading: true,
	}
	if cfg.Scheduler == nil {
		s.owned = scheduler.New(cfg.Logger)
		s.cfg.Scheduler = s.owned
	}
	return s
}

// Close stops a scheduler the store created itself. Pending
// acknowledgements are dropped.
func (s *Store) Close() {
	if s.owned != nil {
		s.owned.Stop()
	}
}

// Load restores tickets. An absent or corrupt blob loads as empty.
func (s *Store) Load(ctx context.Context) {
	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	tickets := []types.SupportTicket{}
	if !s.cfg.Mirror.Load(ctx, persist.KeySupportTickets, &tickets) || tickets == nil {
		tickets = []types.SupportTicket{}
	}
	for i := range tickets {
		if tickets[i].Responses == nil {
			tickets[i].Responses = []types.TicketResponse{}
		}
	}

	s.mu.Lock()
	s.tickets = tickets
	s.loading = false
	s.mu.Unlock()

	s.log.Debug().Int("tickets", len(tickets)).Msg("tickets loaded")
}

// IsLoading is true until the first Load completes.
func (s *Store) IsLoading() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.loading
}

// CreateTicket opens a ticket and schedules its acknowledgement. The ticket
// is returned before the acknowledgement fires.
func (s *Store) CreateTicket(ctx context.Context, req types.CreateTicketRequest) (types.SupportTicket, error) {
	if err := types.Validate(req); err != nil {
		observe("create", err)
		return types.SupportTicket{}, err
	}

	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	now := s.cfg.Clock.Now()
	t := types.SupportTicket{
		ID:          s.cfg.IDs.NewID(),
		UserID:      req.UserID,
		MissionID:   req.MissionID,
		Subject:     req.Subject,
		Description: req.Description,
		Priority:    req.Priority,
		Status:      types.StatusOpen,
		Category:    req.Category,
		Photos:      slices.Clone(req.Photos),
		Responses:   []types.TicketResponse{},
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if t.Priority == "" {
		t.Priority = types.PriorityMedium
	}
	if t.Category == "" {
		t.Category = defaultCategory
	}

	s.mu.RLock()
	next := make([]types.SupportTicket, 0, len(s.tickets)+1)
	next = append(next, t)
	next = append(next, s.tickets...)
	s.mu.RUnlock()

	if err := s.commit(ctx, next); err != nil {
		observe("create", err)
		return types.SupportTicket{}, err
	}
	observe("create", nil)
	s.log.Debug().Str("ticket_id", t.ID).Str("priority", string(t.Priority)).Msg("ticket created")
	s.publish(t.ID)

	id := t.ID
	if err := s.cfg.Scheduler.Schedule(id, s.cfg.AckDelay, func(ctx context.Context) { s.acknowledge(ctx, id) }); err != nil {
		s.log.Warn().Err(err).Str("ticket_id", id).Msg("acknowledgement not scheduled")
	}
	return t.Clone(), nil
}

// acknowledge posts the support desk's automated reply. The ticket is
// re-read at fire time; a ticket that no longer exists is skipped and one
// that left the open status keeps its status.
func (s *Store) acknowledge(ctx context.Context, ticketID string) {
	_, err := s.mutate(ctx, ticketID, func(t *types.SupportTicket, now time.Time) {
		t.Responses = append(t.Responses, types.TicketResponse{
			ID:         s.cfg.IDs.NewID(),
			SenderID:   SupportSenderID,
			SenderName: SupportSenderName,
			IsAdmin:    true,
			Message:    AckMessage,
			CreatedAt:  now,
		})
		if t.Status == types.StatusOpen {
			t.Status = types.StatusInProgress
		}
	})
	switch {
	case err == nil:
		acknowledgementsTotal.WithLabelValues("sent").Inc()
		s.log.Debug().Str("ticket_id", ticketID).Msg("acknowledgement sent")
	case stderrors.Is(err, errors.ErrNotFound):
		acknowledgementsTotal.WithLabelValues("skipped").Inc()
		s.log.Debug().Str("ticket_id", ticketID).Msg("acknowledgement skipped, ticket gone")
	default:
		acknowledgementsTotal.WithLabelValues("failed").Inc()
		s.log.Error().Err(err).Str("ticket_id", ticketID).Msg("acknowledgement failed")
	}
}

// AddResponse appends a user response to a ticket's thread.
func (s *Store) AddResponse(ctx context.Context, ticketID, senderID, senderName, message string) (types.TicketResponse, error) {
	r, err := s.addResponse(ctx, ticketID, senderID, senderName, message, false)
	observe("respond", err)
	return r, err
}

// AddAdminResponse appends a response from a support agent.
func (s *Store) AddAdminResponse(ctx context.Context, ticketID, senderID, senderName, message string) (types.TicketResponse, error) {
	r, err := s.addResponse(ctx, ticketID, senderID, senderName, message, true)
	observe("respond_admin", err)
	return r, err
}

func (s *Store) addResponse(ctx context.Context, ticketID, senderID, senderName, message string, admin bool) (types.TicketResponse, error) {
	if strings.TrimSpace(message) == "" {
		return types.TicketResponse{}, errors.Validation("response message is empty")
	}
	var r types.TicketResponse
	_, err := s.mutate(ctx, ticketID, func(t *types.SupportTicket, now time.Time) {
		r = types.TicketResponse{
			ID:         s.cfg.IDs.NewID(),
			SenderID:   senderID,
			SenderName: senderName,
			IsAdmin:    admin,
			Message:    message,
			CreatedAt:  now,
		}
		t.Responses = append(t.Responses, r)
	})
	if err != nil {
		return types.TicketResponse{}, err
	}
	return r, nil
}

// UpdateTicketStatus sets any valid status unconditionally.
func (s *Store) UpdateTicketStatus(ctx context.Context, ticketID string, status types.TicketStatus) (types.SupportTicket, error) {
	if _, ok := s.GetTicket(ticketID); !ok {
		observe("status", errors.ErrNotFound)
		return types.SupportTicket{}, errors.NotFound("ticket", ticketID)
	}
	if !status.Valid() {
		observe("status", errors.ErrValidation)
		return types.SupportTicket{}, errors.Validation("unknown ticket status %q", status)
	}
	t, err := s.mutate(ctx, ticketID, func(t *types.SupportTicket, _ time.Time) {
		t.Status = status
	})
	observe("status", err)
	return t, err
}

// GetTicketsForUser returns the tickets opened by userID, in stored order.
func (s *Store) GetTicketsForUser(userID string) []types.SupportTicket {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := []types.SupportTicket{}
	for _, t := range s.tickets {
		if t.UserID == userID {
			out = append(out, t.Clone())
		}
	}
	return out
}

// GetTicket looks a ticket up by id.
func (s *Store) GetTicket(id string) (types.SupportTicket, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if i := s.indexOf(id); i >= 0 {
		return s.tickets[i].Clone(), true
	}
	return types.SupportTicket{}, false
}

// Tickets returns every ticket, most recent first.
func (s *Store) Tickets() []types.SupportTicket {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]types.SupportTicket, 0, len(s.tickets))
	for _, t := range s.tickets {
		out = append(out, t.Clone())
	}
	return out
}

// mutate applies fn to a copy of the ticket, refreshes UpdatedAt, persists
// the collection and commits it.
func (s *Store) mutate(ctx context.Context, ticketID string, fn func(t *types.SupportTicket, now time.Time)) (types.SupportTicket, error) {
	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	s.mu.RLock()
	idx := s.indexOf(ticketID)
	if idx < 0 {
		s.mu.RUnlock()
		return types.SupportTicket{}, errors.NotFound("ticket", ticketID)
	}
	next := slices.Clone(s.tickets)
	s.mu.RUnlock()

	now := s.cfg.Clock.Now()
	t := next[idx].Clone()
	fn(&t, now)
	t.UpdatedAt = now
	next[idx] = t

	if err := s.commit(ctx, next); err != nil {
		return types.SupportTicket{}, err
	}
	s.publish(ticketID)
	return t.Clone(), nil
}

// commit persists next and then installs it. Callers hold writeMu.
func (s *Store) commit(ctx context.Context, next []types.SupportTicket) error {
	if err := s.cfg.Mirror.Save(ctx, persist.KeySupportTickets, next); err != nil {
		return err
	}
	s.mu.Lock()
	s.tickets = next
	s.mu.Unlock()
	return nil
}

// indexOf returns the position of id in tickets or -1. Callers hold mu.
func (s *Store) indexOf(id string) int {
	return slices.IndexFunc(s.tickets, func(t types.SupportTicket) bool { return t.ID == id })
}

func (s *Store) publish(id string) {
	s.cfg.Bus.Publish(events.Event{Kind: events.EventTicketChanged, ID: id})
}
