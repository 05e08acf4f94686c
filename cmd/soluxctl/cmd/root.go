package cmd

import (
	"encoding/json"
	"time"

	"github.com/spf13/cobra"

	"github.com/solux-card/solux_card/internal/config"
	"github.com/solux-card/solux_card/internal/logging"
	"github.com/solux-card/solux_card/internal/notification"
	"github.com/solux-card/solux_card/internal/session"
)

type globalFlags struct {
	seedFile      string
	providerURL   string
	apiKey        string
	fallbackDelay time.Duration
	logLevel      string
}

// NewRootCmd builds the soluxctl command tree.
func NewRootCmd() *cobra.Command {
	g := &globalFlags{}
	root := &cobra.Command{
		Use:   "soluxctl",
		Short: "Drive a Solux card session from the terminal",
		Long: `soluxctl runs the collateral-backed card core against a freshly seeded
session. State lives for one invocation only; every command starts from
the seed file.

The card issuer is reached at --provider-url. When it cannot be reached the
results are simulated locally and marked "simulated".`,
		SilenceUsage: true,
	}

	pf := root.PersistentFlags()
	pf.StringVar(&g.seedFile, "seed", "", "session seed YAML (default: embedded demo seed)")
	pf.StringVar(&g.providerURL, "provider-url", "", "card issuer base URL (default: $PROVIDER_BASE_URL or the sandbox)")
	pf.StringVar(&g.apiKey, "api-key", "", "card issuer API key (default: $PROVIDER_API_KEY)")
	pf.DurationVar(&g.fallbackDelay, "fallback-delay", time.Second, "pause before a simulated provider response")
	pf.StringVar(&g.logLevel, "log-level", "warn", "log level written to stderr")

	root.AddCommand(
		newAccountCmd(g),
		newMarketCmd(g),
		newDepositCmd(g),
		newSwipeCmd(g),
		newEnrollCmd(g),
	)
	return root
}

// Execute runs the root command.
func Execute() error {
	return NewRootCmd().Execute()
}

func (g *globalFlags) open(cmd *cobra.Command) (*session.Session, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}
	if g.seedFile != "" {
		cfg.SeedFile = g.seedFile
	}
	if g.providerURL != "" {
		cfg.Provider.BaseURL = g.providerURL
	}
	if g.apiKey != "" {
		cfg.Provider.APIKey = g.apiKey
	}
	if f := cmd.Flag("fallback-delay"); f != nil && f.Changed {
		cfg.Provider.FallbackDelay = g.fallbackDelay
	}

	logger := logging.NewWithWriter(cmd.ErrOrStderr(), g.logLevel)
	return session.New(cmd.Context(), cfg, session.Deps{
		Logger:   logger,
		Notifier: notification.NewLoggerNotifier(logger),
	})
}

func printJSON(cmd *cobra.Command, v any) error {
	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
