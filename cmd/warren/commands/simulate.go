package commands

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/dyluth/warren/internal/admin"
	"github.com/dyluth/warren/internal/autopilot"
	"github.com/dyluth/warren/internal/config"
	"github.com/dyluth/warren/internal/ingest"
	"github.com/dyluth/warren/internal/logging"
	"github.com/dyluth/warren/internal/printer"
	"github.com/dyluth/warren/internal/session"
	"github.com/dyluth/warren/internal/tally"
	"github.com/dyluth/warren/pkg/kv"
)

var (
	simulateID       string
	simulateSeed     string
	simulateStrategy string
	simulateValue    int
	simulateUA       string
	simulateShow     bool
	simulateGhost    bool
	simulateOutput   string
)

var simulateCmd = &cobra.Command{
	Use:   "simulate",
	Short: "Run a scripted respondent through a session",
	Long: `Run a respondent session end to end with a scripted answering strategy.

Every screen is answered with the chosen strategy and every follow-up with a
valid canned answer. The finished wide row is sent to the ingestion service
when ingest.url is configured.

With a Redis backend and survey.accept_admin_commands set, admin commands
published with 'warren admin' are applied between steps.

Strategies:
  constant     - the same share in B on every screen (--value)
  random       - a reproducible random share per screen
  risk-neutral - all in on the option with the higher mean

Examples:
  warren simulate --seed 12345 --strategy random --show
  warren simulate --id resp-7 --config warren.yml --output json`,
	Args: cobra.NoArgs,
	RunE: runSimulate,
}

func init() {
	simulateCmd.Flags().StringVar(&simulateID, "id", "", "Session ID (generated if omitted)")
	simulateCmd.Flags().StringVar(&simulateSeed, "seed", "", "Flow seed (defaults to the stored seed or the session ID)")
	simulateCmd.Flags().StringVar(&simulateStrategy, "strategy", string(autopilot.StrategyConstant), "Answering strategy: constant, random or risk-neutral")
	simulateCmd.Flags().IntVar(&simulateValue, "value", 50, "Share in B for the constant strategy")
	simulateCmd.Flags().StringVar(&simulateUA, "ua", "warren-simulate", "User agent recorded on every row")
	simulateCmd.Flags().BoolVar(&simulateShow, "show", false, "Render every screen")
	simulateCmd.Flags().BoolVar(&simulateGhost, "ghost", false, "Run in ghost mode (nothing is stored or sent)")
	simulateCmd.Flags().StringVarP(&simulateOutput, "output", "o", "default", "Output format: default or json")

	rootCmd.AddCommand(simulateCmd)
}

func runSimulate(cmd *cobra.Command, args []string) error {
	if simulateOutput != "default" && simulateOutput != "json" {
		return printer.Error("invalid output format", "Unknown format: "+simulateOutput, "Valid formats: default, json")
	}

	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	log, err := newLogger()
	if err != nil {
		return err
	}
	defer log.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	store, err := openStore(ctx, cfg)
	if err != nil {
		return err
	}
	if store != nil {
		defer store.Close()
	}

	opts := []session.Option{session.WithLogger(logging.Component(log, "session"))}
	if store != nil {
		opts = append(opts, session.WithStore(store))
	}
	if cfg.Ingest.URL != "" {
		client := ingest.NewClient(cfg.Ingest.URL, cfg.Ingest.Secret(),
			&http.Client{Timeout: time.Duration(cfg.Ingest.TimeoutSeconds) * time.Second})
		opts = append(opts, session.WithSubmitter(client))
	}

	scfg := cfg.SessionConfig(simulateID, simulateSeed)
	scfg.UA = simulateUA
	s, err := session.New(ctx, scfg, opts...)
	if err != nil {
		return printer.Error("failed to start session", err.Error())
	}
	if simulateGhost {
		s.Admin().SetGhost(true)
	}

	strategy, err := autopilot.NewStrategy(autopilot.StrategyName(simulateStrategy), simulateValue, s.Seed())
	if err != nil {
		return printer.Error("invalid strategy", err.Error(), "Valid strategies: constant, random, risk-neutral")
	}

	runOpts := []autopilot.Option{autopilot.WithLogger(logging.Component(log, "autopilot"))}
	if simulateShow {
		runOpts = append(runOpts, autopilot.WithOutput(cmd.OutOrStdout(), cfg.Survey.Currency))
	}
	if cfg.Survey.AcceptAdmin {
		sub, err := subscribeAdmin(ctx, store, s.ID())
		if err != nil {
			return err
		}
		if sub != nil {
			defer sub.Close()
			runOpts = append(runOpts, autopilot.WithCommands(sub.Events(), sub.Errors()))
			log.Info("admin_listening", zap.String("session", s.ID()))
		}
	}

	res, err := autopilot.New(s, strategy, runOpts...).Run(ctx)
	if err != nil {
		var fault *session.FaultError
		switch {
		case errors.As(err, &fault):
			return printer.ErrorWithContext("session fault", fault.Error(),
				map[string]string{"session": s.ID(), "screen": strconv.Itoa(fault.Index + 1)})
		case errors.Is(err, context.Canceled):
			printer.Warning("Interrupted; session %s can be resumed with --id %s\n", s.ID(), s.ID())
			return nil
		default:
			return printer.ErrorWithContext("simulation failed", err.Error(),
				map[string]string{"session": s.ID(), "rows": strconv.Itoa(res.Rows)},
				"Run again with the same --id to resume")
		}
	}

	if simulateOutput == "json" {
		return tally.FormatSingleJSON(cmd.OutOrStdout(), struct {
			Session string `json:"session"`
			Seed    string `json:"seed"`
			autopilot.Result
		}{s.ID(), s.Seed(), res})
	}
	printer.Success("Session %s finished: %d rows recorded\n", s.ID(), res.Rows)
	printer.Info("Completion code: %s\n", res.CompletionCode)
	return nil
}

// openStore opens the configured backend and checks it is reachable. The
// memory backend returns nil.
func openStore(ctx context.Context, cfg *config.WarrenConfig) (kv.Store, error) {
	store, err := cfg.Storage.Open()
	if err != nil {
		return nil, printer.ErrorWithContext("storage unavailable", err.Error(),
			map[string]string{"backend": cfg.Storage.Backend})
	}
	if store == nil {
		return nil, nil
	}
	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := store.Ping(pingCtx); err != nil {
		store.Close()
		return nil, printer.ErrorWithContext("storage unavailable", err.Error(),
			map[string]string{"backend": cfg.Storage.Backend},
			"Check the storage section of the configuration")
	}
	return store, nil
}

// redisStore returns the Redis backend admin commands travel over.
func redisStore(store kv.Store) (*kv.RedisStore, error) {
	rs, ok := store.(*kv.RedisStore)
	if !ok {
		return nil, printer.Error("admin commands need Redis",
			"Admin commands travel over Redis Pub/Sub.",
			"Set storage.backend to redis")
	}
	return rs, nil
}

func subscribeAdmin(ctx context.Context, store kv.Store, id string) (*admin.Subscription, error) {
	rs, ok := store.(*kv.RedisStore)
	if !ok {
		printer.Warning("accept_admin_commands is set but storage is not Redis; admin commands are ignored\n")
		return nil, nil
	}
	sub, err := admin.Subscribe(ctx, rs.Client(), id)
	if err != nil {
		return nil, fmt.Errorf("failed to subscribe to admin commands: %w", err)
	}
	return sub, nil
}
