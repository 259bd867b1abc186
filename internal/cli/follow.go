package cli

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/bethropolis/provtrace/internal/follow"
	"github.com/bethropolis/provtrace/internal/replay"
)

var followFor time.Duration

var followCmd = &cobra.Command{
	Use:   "follow [notes.jsonl]",
	Short: "Track a notification file as an editor appends to it",
	Long: `Plays the notifications already in the file and then every line appended to
it, until interrupted. The file may be created after the command starts.`,
	Args: cobra.ExactArgs(1),
	RunE: runFollow,
}

func init() {
	followCmd.Flags().DurationVar(&followFor, "for", 0, "stop after this long (0 runs until interrupted)")
	rootCmd.AddCommand(followCmd)
}

func runFollow(cmd *cobra.Command, args []string) error {
	p, err := newPipeline(cmd.OutOrStdout())
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	if followFor > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, followFor)
		defer cancel()
	}

	player := replay.NewPlayer(p.mgr, p.sessionOptions()...)
	p.seed(player.Initial)
	f := follow.New(args[0], player)
	runErr := f.Run(ctx)

	res := player.Result()
	cmd.PrintErrf("session %s: %d notifications, %d rejected, %d malformed selections, %d unreadable lines\n",
		res.SessionID, res.Processed, res.Rejected, res.Malformed, f.Skipped())
	if err := p.close(); err != nil && runErr == nil {
		runErr = err
	}
	return runErr
}
