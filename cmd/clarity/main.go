package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"clarity-backend/internal/client"
	"clarity-backend/internal/logging"
	"clarity-backend/internal/orchestrator"
	"clarity-backend/internal/personality"
	"clarity-backend/internal/ui"
)

var (
	// Global flags
	serverURL string
	timeout   time.Duration
	verbose   bool

	// chat flags
	personalityLabel string
	stream           bool
	style            string
	wordWrap         int

	logger *zap.Logger
)

var rootCmd = &cobra.Command{
	Use:   "clarity",
	Short: "Terminal client for the Clarity chat relay",
	Long: `clarity talks to a running Clarity relay server.

Run without arguments to start a chat session. While chatting:
  /summarize          end the session and print a summary
  /personality NAME   switch the assistant's personality
  /quit               leave without a summary`,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		level := "warn"
		if verbose {
			level = "debug"
		}
		var err error
		logger, err = logging.New("development", level)
		if err != nil {
			return fmt.Errorf("failed to initialize logger: %w", err)
		}
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if logger != nil {
			_ = logger.Sync()
		}
	},
	RunE: runChat,
}

var chatCmd = &cobra.Command{
	Use:   "chat",
	Short: "Start an interactive chat session",
	RunE:  runChat,
}

var personalitiesCmd = &cobra.Command{
	Use:   "personalities",
	Short: "List the personalities the relay offers",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, cancel := context.WithTimeout(cmd.Context(), timeout)
		defer cancel()

		resp, err := client.New(serverURL, timeout).Personalities(ctx)
		if err != nil {
			return fmt.Errorf("fetching personalities: %w", err)
		}

		out := cmd.OutOrStdout()
		for _, label := range resp.Personalities {
			marker := " "
			if label == resp.Default {
				marker = "*"
			}
			fmt.Fprintf(out, "%s %s\n", marker, label)
		}
		return nil
	},
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&serverURL, "server", "s", envOr("CLARITY_SERVER", "http://localhost:8080"), "Relay base URL (or set CLARITY_SERVER)")
	rootCmd.PersistentFlags().DurationVar(&timeout, "timeout", 90*time.Second, "Per-request timeout")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable debug logging")

	for _, cmd := range []*cobra.Command{rootCmd, chatCmd} {
		cmd.Flags().StringVarP(&personalityLabel, "personality", "p", personality.Default.Label(), "Assistant personality")
		cmd.Flags().BoolVar(&stream, "stream", false, "Stream replies as they are generated")
		cmd.Flags().StringVar(&style, "style", "", "Markdown style (dark, light, notty); auto-detected when empty")
		cmd.Flags().IntVar(&wordWrap, "wrap", 80, "Word wrap width for replies")
	}

	rootCmd.AddCommand(chatCmd)
	rootCmd.AddCommand(personalitiesCmd)
}

func runChat(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	term, err := ui.NewTerminal(cmd.OutOrStdout(), style, wordWrap)
	if err != nil {
		return err
	}

	opts := []orchestrator.Option{}
	if stream {
		opts = append(opts, orchestrator.WithStreaming())
	}
	o := orchestrator.New(client.New(serverURL, timeout), term, opts...)
	if _, ok := o.SetPersonality(personalityLabel); !ok {
		logger.Warn("Unknown personality, using default",
			zap.String("requested", personalityLabel),
			zap.String("default", personality.Default.Label()),
		)
	}

	return chatLoop(ctx, cmd.InOrStdin(), cmd.OutOrStdout(), o, logger)
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
