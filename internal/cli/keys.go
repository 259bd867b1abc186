package cli

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/bethropolis/provtrace/internal/buffer"
	"github.com/bethropolis/provtrace/internal/core"
	"github.com/bethropolis/provtrace/internal/input"
	"github.com/bethropolis/provtrace/internal/logger"
	"github.com/bethropolis/provtrace/internal/replay"
	"github.com/bethropolis/provtrace/internal/surface"
)

var (
	keysText   string
	keysFile   string
	keysSave   string
	keysRecord string
)

var keysCmd = &cobra.Command{
	Use:   "keys [keys.txt]",
	Short: "Type a key script into the reference editor",
	Long: `Feeds a key script through the key processor and the reference editing
surface. Each line is a key name (Left, Shift+Left, Tab, Ctrl+V, Backspace,
Esc) or a quoted string typed character by character. Event records are
printed as JSON lines.`,
	Args: cobra.ExactArgs(1),
	RunE: runKeys,
}

func init() {
	keysCmd.Flags().StringVar(&keysText, "text", "", "initial document text")
	keysCmd.Flags().StringVar(&keysFile, "file", "", "load the initial document from this file")
	keysCmd.Flags().StringVar(&keysSave, "save", "", "save the final document to this file")
	keysCmd.Flags().StringVar(&keysRecord, "record", "", "write the editor notifications to this script file")
	rootCmd.AddCommand(keysCmd)
}

func runKeys(cmd *cobra.Command, args []string) error {
	f, err := os.Open(args[0])
	if err != nil {
		return fmt.Errorf("open key script: %w", err)
	}
	events, err := input.ReadScript(f)
	f.Close()
	if err != nil {
		return fmt.Errorf("read key script '%s': %w", args[0], err)
	}

	buf := buffer.NewRuneBuffer(keysText)
	if keysFile != "" {
		if err := buf.Load(keysFile); err != nil {
			return err
		}
	}

	var clip surface.Clipboard = &surface.MemoryClipboard{}
	if cfg.Tracker.SystemClipboard {
		clip = surface.NewSystemClipboard()
	}

	p, err := newPipeline(cmd.OutOrStdout())
	if err != nil {
		return err
	}
	initial := buf.Text()
	p.seed(func() string { return initial })
	rec := replay.NewRecorder(nil, nil)
	surf := surface.New(rec, surface.WithBuffer(buf), surface.WithClipboard(clip))
	sess := core.NewSession(p.mgr, p.sessionOptions(
		core.WithReverter(surf),
		core.WithClock(rec.Now),
		core.WithInitialCursor(surf.Caret()),
		core.WithSuggester(core.SuggesterFunc(func() {
			logger.InfoTagf("suggest", "Suggestion requested at %d", surf.Caret())
		})),
	)...)
	rec.SetNext(sess)

	proc := input.NewProcessor()
	var errs []error
	for _, ev := range events {
		err := input.Apply(surf, proc.Process(ev))
		if errors.Is(err, input.ErrQuit) {
			break
		}
		if err != nil {
			errs = append(errs, err)
		}
	}
	printErrors(cmd, errs)
	cmd.PrintErrf("text: %q\n", surf.Text())

	if keysRecord != "" {
		if err := writeScript(keysRecord, rec.Notifications()); err != nil {
			return err
		}
	}
	if keysSave != "" {
		if err := buf.Save(keysSave); err != nil {
			return err
		}
	}
	return p.close()
}

func writeScript(path string, notes []replay.Notification) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create script: %w", err)
	}
	if err := replay.Write(f, notes); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}
