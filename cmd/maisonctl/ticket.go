package main

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/BRIKIAchraf/MaitrioBeta-sub001/client"
)

func newTicketCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "ticket",
		Short: "Support tickets",
	}
	cmd.AddCommand(newTicketCreateCmd())
	cmd.AddCommand(newTicketListCmd())
	cmd.AddCommand(newTicketReplyCmd())
	cmd.AddCommand(newTicketStatusCmd())
	cmd.AddCommand(newTicketShowCmd())
	return cmd
}

func newTicketCreateCmd() *cobra.Command {
	var (
		req      client.CreateTicketRequest
		priority string
		wait     time.Duration
	)

	cmd := &cobra.Command{
		Use:   "create",
		Short: "Open a support ticket as the signed-in user",
		RunE: func(cmd *cobra.Command, args []string) error {
			req.Priority = client.TicketPriority(priority)
			return withClient(cmd, func(ctx context.Context, c *client.Client) error {
				u, err := currentUser(c)
				if err != nil {
					return err
				}
				req.UserID = u.ID

				// Subscribe first so the acknowledgement cannot slip past.
				feed, cancel := c.Events()
				defer cancel()

				t, err := c.Tickets().CreateTicket(ctx, req)
				if err != nil {
					return err
				}
				if wait > 0 {
					if acked, ok := awaitAcknowledgement(ctx, c, feed, t.ID, wait); ok {
						t = acked
					} else {
						log.Warn().Str("ticket_id", t.ID).Dur("wait", wait).Msg("acknowledgement not received in time")
					}
				}
				return printJSON(cmd, t)
			})
		},
	}
	cmd.Flags().StringVar(&req.Subject, "subject", "", "Subject (required)")
	cmd.Flags().StringVar(&req.Description, "description", "", "Description (required)")
	cmd.Flags().StringVar(&priority, "priority", "", "low, medium, high or urgent (default medium)")
	cmd.Flags().StringVar(&req.Category, "category", "", "Category (default other)")
	cmd.Flags().StringVar(&req.MissionID, "mission", "", "Related mission ID")
	cmd.Flags().StringSliceVar(&req.Photos, "photo", nil, "Photo URI (repeatable)")
	cmd.Flags().DurationVar(&wait, "wait", 0, "Keep running up to this long for the automated acknowledgement")
	_ = cmd.MarkFlagRequired("subject")
	_ = cmd.MarkFlagRequired("description")
	return cmd
}

// awaitAcknowledgement waits for the ticket to receive its first response.
func awaitAcknowledgement(ctx context.Context, c *client.Client, feed <-chan client.Event, ticketID string, wait time.Duration) (client.SupportTicket, bool) {
	timer := time.NewTimer(wait)
	defer timer.Stop()
	for {
		select {
		case evt, ok := <-feed:
			if !ok {
				return client.SupportTicket{}, false
			}
			if evt.Kind != client.EventTicketChanged || evt.ID != ticketID {
				continue
			}
			if t, found := c.Tickets().GetTicket(ticketID); found && len(t.Responses) > 0 {
				return t, true
			}
		case <-timer.C:
			return client.SupportTicket{}, false
		case <-ctx.Done():
			return client.SupportTicket{}, false
		}
	}
}

func newTicketListCmd() *cobra.Command {
	var all bool

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List the signed-in user's tickets",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withClient(cmd, func(ctx context.Context, c *client.Client) error {
				if all {
					return printJSON(cmd, c.Tickets().Tickets())
				}
				u, err := currentUser(c)
				if err != nil {
					return err
				}
				return printJSON(cmd, c.Tickets().GetTicketsForUser(u.ID))
			})
		},
	}
	cmd.Flags().BoolVar(&all, "all", false, "List every ticket on this device")
	return cmd
}

func newTicketReplyCmd() *cobra.Command {
	var admin bool

	cmd := &cobra.Command{
		Use:   "reply <ticket-id> <message...>",
		Short: "Add a response to a ticket",
		Args:  cobra.MinimumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withClient(cmd, func(ctx context.Context, c *client.Client) error {
				u, err := currentUser(c)
				if err != nil {
					return err
				}
				text := strings.Join(args[1:], " ")
				var r client.TicketResponse
				if admin {
					if !c.Session().HasRole(client.RoleAdmin) {
						return fmt.Errorf("--admin requires an admin session")
					}
					r, err = c.Tickets().AddAdminResponse(ctx, args[0], u.ID, u.Name, text)
				} else {
					r, err = c.Tickets().AddResponse(ctx, args[0], u.ID, u.Name, text)
				}
				if err != nil {
					return err
				}
				return printJSON(cmd, r)
			})
		},
	}
	cmd.Flags().BoolVar(&admin, "admin", false, "Reply as support staff")
	return cmd
}

func newTicketStatusCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "status <ticket-id> <open|in_progress|resolved|closed>",
		Short: "Set a ticket's status",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withClient(cmd, func(ctx context.Context, c *client.Client) error {
				t, err := c.Tickets().UpdateTicketStatus(ctx, args[0], client.TicketStatus(args[1]))
				if err != nil {
					return err
				}
				return printJSON(cmd, t)
			})
		},
	}
}

func newTicketShowCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "show <ticket-id>",
		Short: "Print a ticket with its responses",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withClient(cmd, func(ctx context.Context, c *client.Client) error {
				t, ok := c.Tickets().GetTicket(args[0])
				if !ok {
					return fmt.Errorf("ticket %q: %w", args[0], client.ErrNotFound)
				}
				return printJSON(cmd, t)
			})
		},
	}
}
