package main

import (
	"context"
	"strings"

	"github.com/spf13/cobra"

	"github.com/BRIKIAchraf/MaitrioBeta-sub001/client"
)

func newChatCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "chat",
		Short: "Mission conversations",
	}
	cmd.AddCommand(newChatOpenCmd())
	cmd.AddCommand(newChatSendCmd())
	cmd.AddCommand(newChatListCmd())
	cmd.AddCommand(newChatReadCmd())
	cmd.AddCommand(newChatMessagesCmd())
	return cmd
}

func newChatOpenCmd() *cobra.Command {
	var req client.NewConversation

	cmd := &cobra.Command{
		Use:   "open",
		Short: "Open (or find) the conversation of a mission",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withClient(cmd, func(ctx context.Context, c *client.Client) error {
				conv, err := c.Conversations().GetOrCreateConversation(ctx, req)
				if err != nil {
					return err
				}
				return printJSON(cmd, conv)
			})
		},
	}
	cmd.Flags().StringVar(&req.MissionID, "mission", "", "Mission ID (required)")
	cmd.Flags().StringVar(&req.MissionTitle, "title", "", "Mission title")
	cmd.Flags().StringVar(&req.ClientID, "client", "", "Client user ID (required)")
	cmd.Flags().StringVar(&req.ClientName, "client-name", "", "Client display name")
	cmd.Flags().StringVar(&req.ArtisanID, "artisan", "", "Artisan user ID (required)")
	cmd.Flags().StringVar(&req.ArtisanName, "artisan-name", "", "Artisan display name")
	_ = cmd.MarkFlagRequired("mission")
	_ = cmd.MarkFlagRequired("client")
	_ = cmd.MarkFlagRequired("artisan")
	return cmd
}

func newChatSendCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "send <conversation-id> <text...>",
		Short: "Send a message as the signed-in user",
		Args:  cobra.MinimumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withClient(cmd, func(ctx context.Context, c *client.Client) error {
				u, err := currentUser(c)
				if err != nil {
					return err
				}
				msg, err := c.Conversations().SendMessage(ctx, args[0], u.ID, u.Name, strings.Join(args[1:], " "))
				if err != nil {
					return err
				}
				return printJSON(cmd, msg)
			})
		},
	}
}

func newChatListCmd() *cobra.Command {
	var all bool

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List the signed-in user's conversations",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withClient(cmd, func(ctx context.Context, c *client.Client) error {
				if all {
					return printJSON(cmd, c.Conversations().Conversations())
				}
				u, err := currentUser(c)
				if err != nil {
					return err
				}
				return printJSON(cmd, c.Conversations().GetConversationsForUser(u.ID))
			})
		},
	}
	cmd.Flags().BoolVar(&all, "all", false, "List every conversation on this device")
	return cmd
}

func newChatReadCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "read <conversation-id>",
		Short: "Mark a conversation as read by the signed-in user",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withClient(cmd, func(ctx context.Context, c *client.Client) error {
				u, err := currentUser(c)
				if err != nil {
					return err
				}
				if err := c.Conversations().MarkAsRead(ctx, args[0], u.ID); err != nil {
					return err
				}
				conv, _ := c.Conversations().GetConversation(args[0])
				return printJSON(cmd, conv)
			})
		},
	}
}

func newChatMessagesCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "messages <conversation-id>",
		Short: "Print a conversation's messages, oldest first",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withClient(cmd, func(ctx context.Context, c *client.Client) error {
				if _, ok := c.Conversations().GetConversation(args[0]); !ok {
					return client.ErrNotFound
				}
				return printJSON(cmd, c.Conversations().GetMessages(args[0]))
			})
		},
	}
}
