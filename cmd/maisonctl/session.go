package main

import (
	"context"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/BRIKIAchraf/MaitrioBeta-sub001/client"
)

func newLoginCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "login <identifier> <password>",
		Short: "Sign in against the auth endpoint",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withClient(cmd, func(ctx context.Context, c *client.Client) error {
				u, err := c.Session().Login(ctx, args[0], args[1])
				if err != nil {
					return err
				}
				log.Debug().Str("user_id", u.ID).Msg("login completed")
				return printJSON(cmd, u)
			})
		},
	}
}

func newRegisterCmd() *cobra.Command {
	var data client.RegistrationData
	var role string

	cmd := &cobra.Command{
		Use:   "register",
		Short: "Create an account and sign in as it",
		RunE: func(cmd *cobra.Command, args []string) error {
			data.Role = client.Role(role)
			return withClient(cmd, func(ctx context.Context, c *client.Client) error {
				u, err := c.Session().Register(ctx, data)
				if err != nil {
					return err
				}
				return printJSON(cmd, u)
			})
		},
	}
	cmd.Flags().StringVar(&data.FullName, "name", "", "Full name (required)")
	cmd.Flags().StringVar(&data.Email, "email", "", "Email (required)")
	cmd.Flags().StringVar(&data.Password, "password", "", "Password (required)")
	cmd.Flags().StringVar(&data.Phone, "phone", "", "Phone number")
	cmd.Flags().StringVar(&role, "role", "client", "Role: client, artisan or admin")
	_ = cmd.MarkFlagRequired("name")
	_ = cmd.MarkFlagRequired("email")
	_ = cmd.MarkFlagRequired("password")
	return cmd
}

func newLogoutCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "Forget the signed-in user",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withClient(cmd, func(ctx context.Context, c *client.Client) error {
				if err := c.Session().Logout(ctx); err != nil {
					return err
				}
				cmd.Println("Logged out")
				return nil
			})
		},
	}
}

func newWhoamiCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "whoami",
		Short: "Show the signed-in user",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withClient(cmd, func(ctx context.Context, c *client.Client) error {
				u, err := currentUser(c)
				if err != nil {
					return err
				}
				return printJSON(cmd, u)
			})
		},
	}
}
