package commands

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/spf13/cobra"

	"github.com/dyluth/warren/internal/admin"
	"github.com/dyluth/warren/internal/printer"
	"github.com/dyluth/warren/internal/progress"
	"github.com/dyluth/warren/internal/watch"
	"github.com/dyluth/warren/pkg/kv"
)

var (
	adminSession string
	adminWait    time.Duration
)

var adminCmd = &cobra.Command{
	Use:   "admin COMMAND [ARG]",
	Short: "Send an admin command to a running session",
	Long: `Publish a navigation command on a session's admin channel. The session must
be running with survey.accept_admin_commands set and the Redis backend.

Commands:
  prev         - previous screen (ignored while a follow-up is open)
  next         - next screen (ignored while a follow-up is open)
  jump INDEX   - jump to a 1-based screen number
  finish       - finish the survey immediately
  ghost on|off - stop or resume recording answers

Examples:
  warren admin jump 15 --session resp-7
  warren admin ghost on --session resp-7`,
	Args: cobra.RangeArgs(1, 2),
	RunE: runAdmin,
}

func init() {
	adminCmd.Flags().StringVarP(&adminSession, "session", "s", "", "Target session ID (required)")
	adminCmd.Flags().DurationVar(&adminWait, "wait", 0, "Wait until the session shows the result of jump or ghost (e.g. 5s)")
	adminCmd.MarkFlagRequired("session")

	rootCmd.AddCommand(adminCmd)
}

// parseAdminCommand turns command line arguments into a command. Jump
// targets are 1-based on the command line.
func parseAdminCommand(args []string) (admin.Command, error) {
	name := admin.CommandType(args[0])
	if err := name.Validate(); err != nil {
		return admin.Command{}, err
	}

	var cmd admin.Command
	switch name {
	case admin.CommandJump:
		if len(args) != 2 {
			return admin.Command{}, fmt.Errorf("jump requires a screen number")
		}
		n, err := strconv.Atoi(args[1])
		if err != nil || n < 1 {
			return admin.Command{}, fmt.Errorf("invalid screen number %q", args[1])
		}
		cmd = admin.Jump(n - 1)
	case admin.CommandGhost:
		if len(args) != 2 {
			return admin.Command{}, fmt.Errorf("ghost requires on or off")
		}
		switch args[1] {
		case "on":
			cmd = admin.Ghost(true)
		case "off":
			cmd = admin.Ghost(false)
		default:
			return admin.Command{}, fmt.Errorf("ghost takes on or off, got %q", args[1])
		}
	default:
		if len(args) != 1 {
			return admin.Command{}, fmt.Errorf("%s takes no argument", name)
		}
		cmd = admin.Command{Type: name}
	}
	return cmd, cmd.Validate()
}

func runAdmin(cmd *cobra.Command, args []string) error {
	command, err := parseAdminCommand(args)
	if err != nil {
		return printer.Error("invalid admin command", err.Error(),
			"Valid commands: prev, next, jump INDEX, finish, ghost on|off")
	}

	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	ctx := context.Background()

	store, err := openStore(ctx, cfg)
	if err != nil {
		return err
	}
	if store == nil {
		return printer.Error("admin commands need Redis",
			"Admin commands travel over Redis Pub/Sub.",
			"Set storage.backend to redis")
	}
	defer store.Close()

	rs, err := redisStore(store)
	if err != nil {
		return err
	}
	session, err := resolveSession(ctx, store, adminSession)
	if err != nil {
		return err
	}
	adminSession = session

	pub, err := admin.NewPublisher(rs.Client(), adminSession)
	if err != nil {
		return fmt.Errorf("failed to create publisher: %w", err)
	}

	receivers, err := pub.Publish(ctx, command)
	if err != nil {
		return fmt.Errorf("failed to publish admin command: %w", err)
	}
	if receivers == 0 {
		printer.Warning("No session is listening on %s\n", adminSession)
		return nil
	}
	printer.Success("Sent %s to session %s\n", command.Type, adminSession)

	if adminWait > 0 {
		return waitForCommand(ctx, store, command)
	}
	return nil
}

// waitForCommand polls the session's stored state until it reflects cmd.
func waitForCommand(ctx context.Context, store kv.Store, cmd admin.Command) error {
	var err error
	switch cmd.Type {
	case admin.CommandJump:
		var state progress.State
		state, err = watch.WaitForIndex(ctx, store, adminSession, *cmd.To, adminWait)
		if err == nil {
			printer.Info("Session is on screen %d of %d\n", state.Index+1, state.Length)
		}
	case admin.CommandGhost:
		err = watch.WaitForGhost(ctx, store, adminSession, *cmd.Value, adminWait)
		if err == nil {
			printer.Info("Ghost mode is %s\n", map[bool]string{true: "on", false: "off"}[*cmd.Value])
		}
	default:
		printer.Info("--wait only applies to jump and ghost\n")
	}
	if err != nil {
		return printer.Error("session did not respond", err.Error(),
			"Check that the session runs with survey.accept_admin_commands set")
	}
	return nil
}
