package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/BRIKIAchraf/MaitrioBeta-sub001/client"
	"github.com/BRIKIAchraf/MaitrioBeta-sub001/internal/logger"
)

var (
	debug         bool
	storageDriver string
	storagePath   string
	authURL       string
)

func main() {
	// A missing .env is normal outside development.
	_ = godotenv.Load()

	cmd := NewRootCmd()
	if err := cmd.Execute(); err != nil {
		log.Error().Err(err).Msg("command failed")
		os.Exit(1)
	}
}

// NewRootCmd constructs the root CLI command; exposed for unit testing.
func NewRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:           "maisonctl",
		Short:         "Inspect and drive the Maison local state from a terminal",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			level := logger.ParseLevel(os.Getenv("MAISON_LOG_LEVEL"))
			if debug {
				level = zerolog.DebugLevel
				_ = os.Setenv("MAISON_DEBUG", "true")
			}
			log.Logger = logger.NewConsole("maisonctl", level)
		},
	}

	rootCmd.PersistentFlags().BoolVarP(&debug, "debug", "d", false, "Enable verbose debug output")
	rootCmd.PersistentFlags().StringVar(&storageDriver, "storage", "", "Storage backend (memory, sqlite, pebble, redis, mongo); overrides MAISON_STORAGE_DRIVER")
	rootCmd.PersistentFlags().StringVar(&storagePath, "storage-path", "", "SQLite file or Pebble directory; overrides MAISON_STORAGE_PATH")
	rootCmd.PersistentFlags().StringVar(&authURL, "auth-url", "", "Auth endpoint base URL; overrides MAISON_AUTH_BASE_URL")

	rootCmd.AddCommand(newLoginCmd())
	rootCmd.AddCommand(newRegisterCmd())
	rootCmd.AddCommand(newLogoutCmd())
	rootCmd.AddCommand(newWhoamiCmd())
	rootCmd.AddCommand(newChatCmd())
	rootCmd.AddCommand(newTicketCmd())

	return rootCmd
}

// withClient opens the local state for the duration of fn.
func withClient(cmd *cobra.Command, fn func(ctx context.Context, c *client.Client) error) error {
	cfg, err := client.LoadConfig()
	if err != nil {
		return err
	}
	if storageDriver != "" {
		cfg.StorageDriver = storageDriver
	}
	if storagePath != "" {
		cfg.StoragePath = storagePath
	}
	if authURL != "" {
		cfg.AuthBaseURL = authURL
	}

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	c, err := client.New(ctx, client.WithConfig(cfg), client.WithLogger(log.Logger))
	if err != nil {
		return err
	}
	defer func() { _ = c.Close() }() // drains queued writes before exit

	return fn(ctx, c)
}

// currentUser returns the signed-in user or an error asking to log in.
func currentUser(c *client.Client) (*client.User, error) {
	u := c.Session().CurrentUser()
	if u == nil {
		return nil, fmt.Errorf("%w: not logged in, run `maisonctl login` first", client.ErrInvalidState)
	}
	return u, nil
}

func printJSON(cmd *cobra.Command, v any) error {
	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
