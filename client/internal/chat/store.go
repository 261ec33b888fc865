// Package chat owns mission conversations and their messages.
//
// Conversations are kept most-recent-first and are never deleted. Messages
// are appended in chronological order per conversation. Both collections are
// mirrored to device storage as separate blobs.
package chat

import (
	"context"
	"slices"
	"strings"
	"sync"

	"github.com/rs/zerolog"

	"github.com/BRIKIAchraf/MaitrioBeta-sub001/client/internal/errors"
	"github.com/BRIKIAchraf/MaitrioBeta-sub001/client/internal/events"
	"github.com/BRIKIAchraf/MaitrioBeta-sub001/client/internal/persist"
	"github.com/BRIKIAchraf/MaitrioBeta-sub001/client/internal/types"
)

// Config wires a Store to its collaborators. Bus may be nil.
type Config struct {
	Mirror *persist.Mirror
	Clock  types.Clock
	IDs    types.IDGenerator
	Bus    *events.Bus
	Logger zerolog.Logger
}

type Store struct {
	cfg Config
	log zerolog.Logger

	writeMu sync.Mutex // serialises Load and mutations

	mu            sync.RWMutex
	conversations []types.Conversation
	messages      map[string][]types.Message
	loading       bool
}

func New(cfg Config) *Store {
	if cfg.Clock == nil {
		cfg.Clock = types.SystemClock{}
	}
	if cfg.IDs == nil {
		cfg.IDs = types.UUIDGenerator{}
	}
	return &Store{
		cfg:           cfg,
		log:           cfg.Logger.With().Str("store", "chat").Logger(),
		conversations: []types.Conversation{},
		messages:      map[string][]types.Message{},
		loading:       true,
	}
}

// Load restores both collections. Absent or corrupt blobs load as empty.
func (s *Store) Load(ctx context.Context) {
	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	convs := []types.Conversation{}
	if !s.cfg.Mirror.Load(ctx, persist.KeyConversations, &convs) || convs == nil {
		convs = []types.Conversation{}
	}
	msgs := map[string][]types.Message{}
	if !s.cfg.Mirror.Load(ctx, persist.KeyMessages, &msgs) || msgs == nil {
		msgs = map[string][]types.Message{}
	}

	s.mu.Lock()
	s.conversations = convs
	s.messages = msgs
	s.loading = false
	s.mu.Unlock()

	s.log.Debug().Int("conversations", len(convs)).Msg("conversations loaded")
}

// IsLoading is true until the first Load completes.
func (s *Store) IsLoading() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.loading
}

// GetOrCreateConversation returns the conversation of req.MissionID,
// creating it when none exists. An existing conversation is returned as
// stored; its snapshot fields are not refreshed from req.
func (s *Store) GetOrCreateConversation(ctx context.Context, req types.NewConversation) (types.Conversation, error) {
	if err := types.Validate(req); err != nil {
		observe("get_or_create", err)
		return types.Conversation{}, err
	}

	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	s.mu.RLock()
	for _, c := range s.conversations {
		if c.MissionID == req.MissionID {
			s.mu.RUnlock()
			return c, nil
		}
	}
	next := make([]types.Conversation, 0, len(s.conversations)+1)
	conv := types.Conversation{
		ID:           s.cfg.IDs.NewID(),
		MissionID:    req.MissionID,
		MissionTitle: req.MissionTitle,
		ClientID:     req.ClientID,
		ClientName:   req.ClientName,
		ArtisanID:    req.ArtisanID,
		ArtisanName:  req.ArtisanName,
		UnreadCount:  0,
		CreatedAt:    s.cfg.Clock.Now(),
	}
	next = append(next, conv)
	next = append(next, s.conversations...)
	s.mu.RUnlock()

	if err := s.cfg.Mirror.Save(ctx, persist.KeyConversations, next); err != nil {
		observe("get_or_create", err)
		return types.Conversation{}, err
	}
	s.mu.Lock()
	s.conversations = next
	s.mu.Unlock()

	observe("get_or_create", nil)
	s.log.Debug().Str("conversation_id", conv.ID).Str("mission_id", conv.MissionID).Msg("conversation created")
	s.publish(events.EventConversationChanged, conv.ID)
	return conv, nil
}

// SendMessage appends an unread message and updates the conversation's
// last-message snapshot and unread counter.
func (s *Store) SendMessage(ctx context.Context, conversationID, senderID, senderName, text string) (types.Message, error) {
	if strings.TrimSpace(text) == "" {
		observe("send", errors.ErrValidation)
		return types.Message{}, errors.Validation("message text is empty")
	}

	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	s.mu.RLock()
	idx := s.indexOf(conversationID)
	if idx < 0 {
		s.mu.RUnlock()
		observe("send", errors.ErrNotFound)
		return types.Message{}, errors.NotFound("conversation", conversationID)
	}
	now := s.cfg.Clock.Now()
	msg := types.Message{
		ID:             s.cfg.IDs.NewID(),
		ConversationID: conversationID,
		SenderID:       senderID,
		SenderName:     senderName,
		Text:           text,
		CreatedAt:      now,
		Read:           false,
	}
	nextMsgs := s.messagesWith(conversationID, append(slices.Clone(s.messages[conversationID]), msg))

	nextConvs := slices.Clone(s.conversations)
	c := &nextConvs[idx]
	c.LastMessage = text
	c.LastMessageTime = &now
	c.UnreadCount++
	s.mu.RUnlock()

	if err := s.saveBoth(ctx, nextMsgs, nextConvs); err != nil {
		observe("send", err)
		return types.Message{}, err
	}
	s.mu.Lock()
	s.messages = nextMsgs
	s.conversations = nextConvs
	s.mu.Unlock()

	observe("send", nil)
	s.log.Debug().Str("conversation_id", conversationID).Str("message_id", msg.ID).Msg("message sent")
	s.publish(events.EventMessageAdded, msg.ID)
	s.publish(events.EventConversationChanged, conversationID)
	return msg, nil
}

// MarkAsRead marks every message of the conversation not sent by userID as
// read and resets the unread counter.
func (s *Store) MarkAsRead(ctx context.Context, conversationID, userID string) error {
	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	s.mu.RLock()
	idx := s.indexOf(conversationID)
	if idx < 0 {
		s.mu.RUnlock()
		observe("mark_read", errors.ErrNotFound)
		return errors.NotFound("conversation", conversationID)
	}
	thread := slices.Clone(s.messages[conversationID])
	for i := range thread {
		if thread[i].SenderID != userID {
			thread[i].Read = true
		}
	}
	nextMsgs := s.messagesWith(conversationID, thread)
	nextConvs := slices.Clone(s.conversations)
	nextConvs[idx].UnreadCount = 0
	s.mu.RUnlock()

	if err := s.saveBoth(ctx, nextMsgs, nextConvs); err != nil {
		observe("mark_read", err)
		return err
	}
	s.mu.Lock()
	s.messages = nextMsgs
	s.conversations = nextConvs
	s.mu.Unlock()

	observe("mark_read", nil)
	s.publish(events.EventMessagesRead, conversationID)
	s.publish(events.EventConversationChanged, conversationID)
	return nil
}

// GetConversationsForUser returns the conversations userID takes part in,
// in stored order.
func (s *Store) GetConversationsForUser(userID string) []types.Conversation {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := []types.Conversation{}
	for _, c := range s.conversations {
		if c.HasParticipant(userID) {
			out = append(out, c)
		}
	}
	return out
}

// GetConversation looks a conversation up by id.
func (s *Store) GetConversation(id string) (types.Conversation, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if i := s.indexOf(id); i >= 0 {
		return s.conversations[i], true
	}
	return types.Conversation{}, false
}

// GetMessages returns a conversation's messages oldest first.
func (s *Store) GetMessages(conversationID string) []types.Message {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := slices.Clone(s.messages[conversationID])
	if out == nil {
		out = []types.Message{}
	}
	return out
}

// Conversations returns every conversation, most recent first.
func (s *Store) Conversations() []types.Conversation {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return slices.Clone(s.conversations)
}

// saveBoth writes messages then conversations. When the second write fails
// the first is reverted so storage keeps matching memory.
func (s *Store) saveBoth(ctx context.Context, msgs map[string][]types.Message, convs []types.Conversation) error {
	if err := s.cfg.Mirror.Save(ctx, persist.KeyMessages, msgs); err != nil {
		return err
	}
	if err := s.cfg.Mirror.Save(ctx, persist.KeyConversations, convs); err != nil {
		s.mu.RLock()
		prev := s.messages
		s.mu.RUnlock()
		if rerr := s.cfg.Mirror.Save(ctx, persist.KeyMessages, prev); rerr != nil {
			s.log.Error().Err(rerr).Msg("could not revert messages after failed conversation write")
		}
		return err
	}
	return nil
}

// messagesWith returns a shallow copy of the message index with thread
// stored under conversationID. Callers hold mu.
func (s *Store) messagesWith(conversationID string, thread []types.Message) map[string][]types.Message {
	next := make(map[string][]types.Message, len(s.messages)+1)
	for k, v := range s.messages {
		next[k] = v
	}
	next[conversationID] = thread
	return next
}

// indexOf returns the position of id in conversations or -1. Callers hold mu.
func (s *Store) indexOf(id string) int {
	return slices.IndexFunc(s.conversations, func(c types.Conversation) bool { return c.ID == id })
}

func (s *Store) publish(kind events.EventKind, id string) {
	s.cfg.Bus.Publish(events.Event{Kind: kind, ID: id})
}
