package client

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/BRIKIAchraf/MaitrioBeta-sub001/client/internal/kv"
)

func TestClient_EndToEndSurvivesRestart(t *testing.T) {
	ctx := context.Background()
	srv := newAuthServer(t)
	device := kv.NewMemory()

	c := newTestClient(t, srv.URL, device, WithAutoReplyDelay(10*time.Millisecond))
	feed, cancel := c.Events()
	defer cancel()

	u, err := c.Session().Login(ctx, "marie", "secret")
	require.NoError(t, err)
	assert.Equal(t, "Marie Dupont", u.Name)
	assert.Equal(t, Event{Kind: EventSessionChanged, ID: "7"}, <-feed)

	conv, err := c.Conversations().GetOrCreateConversation(ctx, NewConversation{
		MissionID: "m-1", MissionTitle: "Peinture salon", ClientID: u.ID, ClientName: u.Name,
		ArtisanID: "a-1", ArtisanName: "Paul",
	})
	require.NoError(t, err)
	_, err = c.Conversations().SendMessage(ctx, conv.ID, "a-1", "Paul", "Je passe jeudi.")
	require.NoError(t, err)

	ticket, err := c.Tickets().CreateTicket(ctx, CreateTicketRequest{
		UserID: u.ID, Subject: "Retard", Description: "Artisan en retard", Priority: PriorityHigh,
	})
	require.NoError(t, err)
	require.Eventually(t, func() bool {
		got, _ := c.Tickets().GetTicket(ticket.ID)
		return got.Status == StatusInProgress
	}, 2*time.Second, 5*time.Millisecond)

	require.NoError(t, c.AwaitConsistency(ctx))
	require.NoError(t, c.Close())

	again := newTestClient(t, srv.URL, device)
	assert.Equal(t, u, again.Session().CurrentUser())
	assert.Equal(t, c.Conversations().Conversations(), again.Conversations().Conversations())
	assert.Equal(t, c.Conversations().GetMessages(conv.ID), again.Conversations().GetMessages(conv.ID))
	assert.Equal(t, c.Tickets().Tickets(), again.Tickets().Tickets())
	assert.Len(t, again.Conversations().GetConversationsForUser(u.ID), 1)
}

func TestClient_RegisterLogoutAndErrors(t *testing.T) {
	ctx := context.Background()
	srv := newAuthServer(t)
	c := newTestClient(t, srv.URL, nil)

	_, err := c.Session().Login(ctx, "marie", "wrong")
	assert.True(t, IsAuthentication(err))

	u, err := c.Session().Register(ctx, RegistrationData{FullName: "Madonna", Email: "madonna@example.fr", Password: "pw", Role: RoleArtisan})
	require.NoError(t, err)
	assert.Equal(t, "Madonna", u.FirstName)
	assert.Equal(t, "", u.LastName)
	assert.True(t, c.Session().HasRole(RoleArtisan))

	require.NoError(t, c.Session().Logout(ctx))
	require.NoError(t, c.Session().Logout(ctx))
	_, err = c.Session().UpdateUser(ctx, UserPatch{})
	assert.True(t, IsInvalidState(err))

	_, err = c.Conversations().SendMessage(ctx, "nope", "x", "x", "hi")
	assert.True(t, IsNotFound(err))
	_, err = c.Tickets().UpdateTicketStatus(ctx, "nope", StatusClosed)
	assert.True(t, IsNotFound(err))
}

func TestClient_WritesAfterCloseFail(t *testing.T) {
	c := newTestClient(t, "http://example.com", nil)
	require.NoError(t, c.Close())

	_, err := c.Tickets().CreateTicket(context.Background(), CreateTicketRequest{UserID: "u", Subject: "s", Description: "d"})
	assert.True(t, IsPersistence(err))
	assert.ErrorIs(t, err, ErrExecutorClosed)
}
