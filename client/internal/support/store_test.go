package support

import (
	"context"
	stderrors "errors"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/BRIKIAchraf/MaitrioBeta-sub001/client/internal/errors"
	"github.com/BRIKIAchraf/MaitrioBeta-sub001/client/internal/events"
	"github.com/BRIKIAchraf/MaitrioBeta-sub001/client/internal/persist"
	"github.com/BRIKIAchraf/MaitrioBeta-sub001/client/internal/storetest"
	"github.com/BRIKIAchraf/MaitrioBeta-sub001/client/internal/types"
)

// manualScheduler records tasks and runs them only when fired by the test.
type manualScheduler struct {
	mu     sync.Mutex
	tasks  map[string]func(context.Context)
	delays map[string]time.Duration
}

func newManualScheduler() *manualScheduler {
	return &manualScheduler{tasks: map[string]func(context.Context){}, delays: map[string]time.Duration{}}
}

func (m *manualScheduler) Schedule(key string, delay time.Duration, fn func(context.Context)) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.tasks[key] = fn
	m.delays[key] = delay
	return nil
}

func (m *manualScheduler) Cancel(key string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	_, ok := m.tasks[key]
	delete(m.tasks, key)
	return ok
}

func (m *manualScheduler) fire(t *testing.T, key string) {
	t.Helper()
	m.mu.Lock()
	fn, ok := m.tasks[key]
	delete(m.tasks, key)
	m.mu.Unlock()
	require.True(t, ok, "no task scheduled for %s", key)
	fn(context.Background())
}

type fixture struct {
	env   *storetest.Env
	clock *storetest.Clock
	sched *manualScheduler
	store *Store
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	f := &fixture{env: storetest.NewEnv(t), clock: storetest.NewClock(), sched: newManualScheduler()}
	f.store = f.open(t, f.env)
	return f
}

func (f *fixture) open(t *testing.T, env *storetest.Env) *Store {
	t.Helper()
	s := New(Config{
		Mirror:    env.Mirror,
		Clock:     f.clock,
		IDs:       storetest.NewIDs("t"),
		Scheduler: f.sched,
		AckDelay:  DefaultAckDelay,
		Logger:    zerolog.Nop(),
	})
	s.Load(context.Background())
	return s
}

func ticketReq(user, subject string) types.CreateTicketRequest {
	return types.CreateTicketRequest{
		UserID:      user,
		Subject:     subject,
		Description: "L'artisan n'est pas venu au rendez-vous.",
	}
}

func TestLoad_EmptyAndCorrupt(t *testing.T) {
	ctx := context.Background()
	env := storetest.NewEnv(t)
	require.NoError(t, env.Store.Set(ctx, persist.KeySupportTickets, "[{"))

	s := New(Config{Mirror: env.Mirror, Scheduler: newManualScheduler(), Logger: zerolog.Nop()})
	assert.True(t, s.IsLoading())
	s.Load(ctx)
	assert.False(t, s.IsLoading())
	assert.Empty(t, s.Tickets())
}

func TestCreateTicket_DefaultsAndScheduling(t *testing.T) {
	f := newFixture(t)

	tk, err := f.store.CreateTicket(context.Background(), ticketReq("u1", "No-show"))
	require.NoError(t, err)
	assert.Equal(t, types.StatusOpen, tk.Status)
	assert.Equal(t, types.PriorityMedium, tk.Priority)
	assert.Equal(t, "other", tk.Category)
	assert.Empty(t, tk.Responses)
	assert.Equal(t, storetest.Epoch, tk.CreatedAt)
	assert.Equal(t, tk.CreatedAt, tk.UpdatedAt)
	assert.Equal(t, DefaultAckDelay, f.sched.delays[tk.ID])
}

func TestCreateTicket_Validation(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.store.CreateTicket(ctx, types.CreateTicketRequest{UserID: "u1", Description: "d"})
	assert.True(t, stderrors.Is(err, errors.ErrValidation))

	req := ticketReq("u1", "s")
	req.Priority = "critical"
	_, err = f.store.CreateTicket(ctx, req)
	assert.True(t, stderrors.Is(err, errors.ErrValidation))
	assert.Empty(t, f.store.Tickets())
}

func TestAcknowledgement_AfterDelay(t *testing.T) {
	f := newFixture(t)
	tk, err := f.store.CreateTicket(context.Background(), ticketReq("u1", "No-show"))
	require.NoError(t, err)

	f.clock.Advance(DefaultAckDelay)
	f.sched.fire(t, tk.ID)

	got, ok := f.store.GetTicket(tk.ID)
	require.True(t, ok)
	assert.Equal(t, types.StatusInProgress, got.Status)
	require.Len(t, got.Responses, 1)
	r := got.Responses[0]
	assert.True(t, r.IsAdmin)
	assert.Equal(t, SupportSenderID, r.SenderID)
	assert.Equal(t, SupportSenderName, r.SenderName)
	assert.Equal(t, AckMessage, r.Message)
	assert.Equal(t, storetest.Epoch.Add(DefaultAckDelay), got.UpdatedAt)
}

func TestAcknowledgement_KeepsStatusMovedElsewhere(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	tk, err := f.store.CreateTicket(ctx, ticketReq("u1", "No-show"))
	require.NoError(t, err)

	_, err = f.store.UpdateTicketStatus(ctx, tk.ID, types.StatusResolved)
	require.NoError(t, err)
	f.sched.fire(t, tk.ID)

	got, _ := f.store.GetTicket(tk.ID)
	assert.Equal(t, types.StatusResolved, got.Status)
	assert.Len(t, got.Responses, 1)
}

func TestAcknowledgement_TargetsTicketByIDAfterOtherChanges(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	a, err := f.store.CreateTicket(ctx, ticketReq("u1", "No-show"))
	require.NoError(t, err)

	// B lands in front of A and gets a reply before A's acknowledgement fires.
	f.clock.Advance(time.Second)
	b, err := f.store.CreateTicket(ctx, ticketReq("u2", "Facture erronée"))
	require.NoError(t, err)
	_, err = f.store.AddResponse(ctx, b.ID, "u2", "Paul", "Le montant est faux.")
	require.NoError(t, err)
	bBefore, ok := f.store.GetTicket(b.ID)
	require.True(t, ok)
	require.Equal(t, b.ID, f.store.Tickets()[0].ID)

	f.clock.Advance(time.Second)
	f.sched.fire(t, a.ID)

	gotA, ok := f.store.GetTicket(a.ID)
	require.True(t, ok)
	assert.Equal(t, types.StatusInProgress, gotA.Status)
	require.Len(t, gotA.Responses, 1)
	assert.Equal(t, AckMessage, gotA.Responses[0].Message)
	assert.True(t, gotA.Responses[0].IsAdmin)

	gotB, ok := f.store.GetTicket(b.ID)
	require.True(t, ok)
	assert.Equal(t, bBefore, gotB)
	assert.Equal(t, types.StatusOpen, gotB.Status)
	require.Len(t, gotB.Responses, 1)
	assert.False(t, gotB.Responses[0].IsAdmin)
}

func TestAcknowledgement_SkipsVanishedTicket(t *testing.T) {
	f := newFixture(t)
	tk, err := f.store.CreateTicket(context.Background(), ticketReq("u1", "No-show"))
	require.NoError(t, err)

	// A reload from storage that no longer has the ticket.
	require.NoError(t, f.env.Store.Remove(context.Background(), persist.KeySupportTickets))
	f.store.Load(context.Background())

	f.sched.fire(t, tk.ID)
	assert.Empty(t, f.store.Tickets())
}

func TestAcknowledgement_RealSchedulerEventually(t *testing.T) {
	env := storetest.NewEnv(t)
	s := New(Config{Mirror: env.Mirror, AckDelay: 20 * time.Millisecond, Logger: zerolog.Nop()})
	defer s.Close()
	s.Load(context.Background())

	tk, err := s.CreateTicket(context.Background(), ticketReq("u1", "No-show"))
	require.NoError(t, err)
	assert.Equal(t, types.StatusOpen, tk.Status, "returned before the acknowledgement")

	require.Eventually(t, func() bool {
		got, _ := s.GetTicket(tk.ID)
		return got.Status == types.StatusInProgress && len(got.Responses) == 1
	}, 2*time.Second, 5*time.Millisecond)
}

func TestClose_DropsPendingAcknowledgement(t *testing.T) {
	env := storetest.NewEnv(t)
	s := New(Config{Mirror: env.Mirror, AckDelay: time.Hour, Logger: zerolog.Nop()})
	s.Load(context.Background())

	tk, err := s.CreateTicket(context.Background(), ticketReq("u1", "No-show"))
	require.NoError(t, err)
	s.Close()

	got, _ := s.GetTicket(tk.ID)
	assert.Empty(t, got.Responses)
	assert.Equal(t, types.StatusOpen, got.Status)
}

func TestAddResponse(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	tk, err := f.store.CreateTicket(ctx, ticketReq("u1", "No-show"))
	require.NoError(t, err)

	f.clock.Advance(time.Minute)
	r, err := f.store.AddResponse(ctx, tk.ID, "u1", "Marie", "Toujours personne.")
	require.NoError(t, err)
	assert.False(t, r.IsAdmin)

	f.clock.Advance(time.Minute)
	a, err := f.store.AddAdminResponse(ctx, tk.ID, "agent-7", "Claire", "Nous contactons l'artisan.")
	require.NoError(t, err)
	assert.True(t, a.IsAdmin)

	got, _ := f.store.GetTicket(tk.ID)
	require.Len(t, got.Responses, 2)
	assert.Equal(t, r, got.Responses[0])
	assert.Equal(t, a, got.Responses[1])
	assert.Equal(t, storetest.Epoch.Add(2*time.Minute), got.UpdatedAt)
	assert.Equal(t, types.StatusOpen, got.Status, "responses do not change status")

	_, err = f.store.AddResponse(ctx, "missing", "u1", "Marie", "hello")
	assert.True(t, stderrors.Is(err, errors.ErrNotFound))
	_, err = f.store.AddResponse(ctx, tk.ID, "u1", "Marie", "")
	assert.True(t, stderrors.Is(err, errors.ErrValidation))
}

func TestUpdateTicketStatus(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	tk, err := f.store.CreateTicket(ctx, ticketReq("u1", "No-show"))
	require.NoError(t, err)

	for _, st := range []types.TicketStatus{types.StatusClosed, types.StatusOpen, types.StatusInProgress, types.StatusResolved} {
		f.clock.Advance(time.Second)
		got, err := f.store.UpdateTicketStatus(ctx, tk.ID, st)
		require.NoError(t, err)
		assert.Equal(t, st, got.Status)
		assert.Equal(t, f.clock.Now(), got.UpdatedAt)
	}

	_, err = f.store.UpdateTicketStatus(ctx, tk.ID, "archived")
	assert.True(t, stderrors.Is(err, errors.ErrValidation))
	_, err = f.store.UpdateTicketStatus(ctx, "missing", types.StatusClosed)
	assert.True(t, stderrors.Is(err, errors.ErrNotFound))
}

func TestGetTicketsForUser_PreservesOrder(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	for _, sp := range []struct{ user, subject string }{
		{"alice", "a1"}, {"bob", "b1"}, {"alice", "a2"}, {"carol", "c1"}, {"alice", "a3"},
	} {
		_, err := f.store.CreateTicket(ctx, ticketReq(sp.user, sp.subject))
		require.NoError(t, err)
	}

	subjects := func(ts []types.SupportTicket) []string {
		out := make([]string, 0, len(ts))
		for _, t := range ts {
			out = append(out, t.Subject)
		}
		return out
	}
	assert.Equal(t, []string{"a3", "a2", "a1"}, subjects(f.store.GetTicketsForUser("alice")))
	assert.Equal(t, []string{"b1"}, subjects(f.store.GetTicketsForUser("bob")))
	assert.Empty(t, f.store.GetTicketsForUser("nobody"))
	assert.Len(t, f.store.Tickets(), 5)
}

func TestPersistenceRoundTrip(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	req := ticketReq("u1", "Facture")
	req.MissionID = "m-9"
	req.Priority = types.PriorityUrgent
	req.Category = "payment"
	req.Photos = []string{"file:///photo1.jpg"}
	tk, err := f.store.CreateTicket(ctx, req)
	require.NoError(t, err)
	_, err = f.store.AddResponse(ctx, tk.ID, "u1", "Marie", "Merci")
	require.NoError(t, err)
	f.sched.fire(t, tk.ID)

	restarted := f.open(t, f.env.Restart(t))
	assert.Equal(t, f.store.Tickets(), restarted.Tickets())
}

func TestWriteFailureLeavesStateUntouched(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	tk, err := f.store.CreateTicket(ctx, ticketReq("u1", "No-show"))
	require.NoError(t, err)
	before := f.store.Tickets()

	f.env.Store.FailWrites(true)
	_, err = f.store.CreateTicket(ctx, ticketReq("u1", "second"))
	assert.True(t, stderrors.Is(err, errors.ErrPersistence))
	_, err = f.store.AddResponse(ctx, tk.ID, "u1", "Marie", "lost")
	assert.True(t, stderrors.Is(err, errors.ErrPersistence))
	_, err = f.store.UpdateTicketStatus(ctx, tk.ID, types.StatusClosed)
	assert.True(t, stderrors.Is(err, errors.ErrPersistence))
	f.sched.fire(t, tk.ID)
	f.env.Store.FailWrites(false)

	assert.Equal(t, before, f.store.Tickets())
}

func TestEventsPublished(t *testing.T) {
	bus := events.NewBus(8)
	feed, cancel := bus.Subscribe()
	defer cancel()

	env := storetest.NewEnv(t)
	sched := newManualScheduler()
	s := New(Config{Mirror: env.Mirror, Scheduler: sched, Bus: bus, IDs: storetest.NewIDs("t"), Logger: zerolog.Nop()})
	s.Load(context.Background())

	tk, err := s.CreateTicket(context.Background(), ticketReq("u1", "No-show"))
	require.NoError(t, err)
	assert.Equal(t, events.Event{Kind: events.EventTicketChanged, ID: tk.ID}, <-feed)

	sched.fire(t, tk.ID)
	assert.Equal(t, events.Event{Kind: events.EventTicketChanged, ID: tk.ID}, <-feed)
}
