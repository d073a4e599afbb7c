package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/Alturino/storefront/internal/config"
	"github.com/Alturino/storefront/internal/constants"
	"github.com/Alturino/storefront/internal/log"
	storefrontCmd "github.com/Alturino/storefront/storefront/cmd"
)

func Start() {
	// config is read before the file logger exists because the log level comes from it.
	bootstrap := zerolog.New(os.Stderr).With().Timestamp().Logger()
	cfg := config.Get(bootstrap.WithContext(context.Background()), constants.APP_STOREFRONT)

	logger := log.Get(fmt.Sprintf("/var/log/%s.log", constants.APP_STOREFRONT), cfg.Application).
		With().
		Str(constants.KEY_APP_NAME, constants.APP_MAIN_STOREFRONT).
		Str(constants.KEY_TAG, "main Start").
		Logger()

	logger.Info().Msg("adding listener for SIGINT and SIGTERM")
	c, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	logger.Info().Msg("added listener for SIGINT and SIGTERM")

	c = logger.WithContext(c)

	rootCmd := &cobra.Command{Use: constants.APP_STOREFRONT}
	commands := []*cobra.Command{
		{
			Use:   "serve",
			Short: "Run the storefront server and the cart sync worker",
			Run: func(cmd *cobra.Command, args []string) {
				storefrontCmd.RunStorefront(cmd.Context(), cfg)
			},
		},
		{
			Use:   "reconcile",
			Short: "Replay pending cart ops against the backend once and exit",
			RunE: func(cmd *cobra.Command, args []string) error {
				return storefrontCmd.Reconcile(cmd.Context(), cfg)
			},
		},
	}
	rootCmd.AddCommand(commands...)
	if err := rootCmd.ExecuteContext(c); err != nil {
		logger.Fatal().Err(err).Msgf("error when executing command=%s", err.Error())
	}
}
