package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/bethropolis/provtrace/internal/replay"
)

var replayOut string

var replayCmd = &cobra.Command{
	Use:   "replay [script.jsonl]",
	Short: "Replay recorded editor notifications into a fresh session",
	Long: `Reads a notification script (one JSON object per line with type, source,
delta/oldDelta or range/oldRange, and ts) and prints the resulting event
records as JSON lines.`,
	Args: cobra.ExactArgs(1),
	RunE: runReplay,
}

func init() {
	replayCmd.Flags().StringVarP(&replayOut, "out", "o", "", "write records to this file instead of stdout")
	rootCmd.AddCommand(replayCmd)
}

func runReplay(cmd *cobra.Command, args []string) error {
	f, err := os.Open(args[0])
	if err != nil {
		return fmt.Errorf("open script: %w", err)
	}
	defer f.Close()

	notes, err := replay.Read(f)
	if err != nil {
		return fmt.Errorf("read script '%s': %w", args[0], err)
	}

	out := cmd.OutOrStdout()
	if replayOut != "" {
		of, err := os.Create(replayOut)
		if err != nil {
			return fmt.Errorf("create output: %w", err)
		}
		defer of.Close()
		out = of
	}

	p, err := newPipeline(out)
	if err != nil {
		return err
	}
	initial := replay.InitialText(notes)
	p.seed(func() string { return initial })
	res := replay.Run(p.mgr, notes, p.sessionOptions()...)
	printErrors(cmd, res.Errors)
	cmd.PrintErrf("session %s: %d notifications, %d rejected, %d malformed selections\n",
		res.SessionID, res.Processed, res.Rejected, res.Malformed)
	return p.close()
}
