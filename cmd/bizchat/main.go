package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/0xcro3dile/bizchat-go/internal/app"
	"github.com/0xcro3dile/bizchat-go/internal/config"
)

var (
	configPath string
	askAIMode  bool
	askSession string

	rootCmd = &cobra.Command{
		Use:   "bizchat",
		Short: "Consultation chatbot with rule and AI answer modes",
		Long: `bizchat answers customer questions about certification and
procurement services, from keyword rules or from an LLM grounded on a
local knowledge base and pricing table.`,
		SilenceUsage: true,
	}

	serveCmd = &cobra.Command{
		Use:   "serve",
		Short: "Run the chat HTTP API",
		Args:  cobra.NoArgs,
		RunE:  runServe,
	}

	askCmd = &cobra.Command{
		Use:   "ask [message]",
		Short: "Answer one message and print the JSON response",
		Args:  cobra.MinimumNArgs(1),
		RunE:  runAsk,
	}
)

func init() {
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "path to a YAML config file")
	askCmd.Flags().BoolVar(&askAIMode, "ai", false, "answer in AI mode")
	askCmd.Flags().StringVar(&askSession, "session", "cli", "session id used for cost tracking")
	rootCmd.AddCommand(serveCmd, askCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		log.Fatalf("bizchat: %v", err)
	}
}

func setup(ctx context.Context) (*app.App, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, err
	}
	// stdout is reserved for command output.
	logger, err := app.NewLogger(cfg, os.Stderr)
	if err != nil {
		return nil, err
	}
	slog.SetDefault(logger)
	return app.New(ctx, cfg, logger)
}

func runServe(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	a, err := setup(ctx)
	if err != nil {
		return err
	}
	defer a.Close(context.Background())

	return a.Serve(ctx)
}

func runAsk(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	a, err := setup(ctx)
	if err != nil {
		return err
	}
	defer a.Close(context.Background())

	resp, err := a.Ask(ctx, strings.Join(args, " "), askAIMode, askSession)
	if err != nil {
		return err
	}
	out, err := json.MarshalIndent(resp, "", "  ")
	if err != nil {
		return err
	}
	fmt.Fprintln(cmd.OutOrStdout(), string(out))
	return nil
}
