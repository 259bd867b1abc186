// Package cli implements the provtrace command line.
package cli

import (
	"errors"
	"io"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/bethropolis/provtrace/internal/authorship"
	"github.com/bethropolis/provtrace/internal/config"
	"github.com/bethropolis/provtrace/internal/core"
	"github.com/bethropolis/provtrace/internal/event"
	"github.com/bethropolis/provtrace/internal/logger"
	"github.com/bethropolis/provtrace/internal/provenance"
	"github.com/bethropolis/provtrace/internal/store"
	"github.com/bethropolis/provtrace/internal/trigger"
)

var version = "dev"

var (
	cfg      *config.Config
	closeLog func() error
)

var rootCmd = &cobra.Command{
	Use:   "provtrace",
	Short: "Classify editing activity by who made it",
	Long: `provtrace turns editor notifications into an ordered log of editing events,
telling human edits from programmatic ones and enforcing the machine-only
edit policy.`,
	SilenceUsage:       true,
	PersistentPreRunE:  setup,
	PersistentPostRunE: teardown,
}

func init() {
	config.Register(rootCmd.PersistentFlags())
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}

func setup(cmd *cobra.Command, _ []string) error {
	path, err := cmd.Flags().GetString(config.FlagConfig)
	if err != nil {
		return err
	}
	c, err := config.Load(path, cmd.Flags())
	if err != nil {
		return err
	}

	out, closeFn, err := logger.OpenOutput(c.Logger.LogFilePath)
	if err != nil {
		return err
	}
	logger.Init(c.Logger, out)
	for _, w := range c.Warnings {
		logger.Warnf("%s", w)
	}
	logger.Debugf("Mode %v, parse on backward %v, log dir %q", c.Tracker.Mode, c.Tracker.ParseOnBackward, c.Tracker.LogDir)

	cfg, closeLog = c, closeFn
	return nil
}

func teardown(_ *cobra.Command, _ []string) error {
	if closeLog == nil {
		return nil
	}
	logger.Init(logger.NewConfig(), nil)
	err := closeLog()
	closeLog = nil
	return err
}

// pipeline is the event plumbing of one session run from the command line.
type pipeline struct {
	id      string
	mgr     *event.Manager
	history *event.MemorySink
	close   func() error

	// initial returns the document the session started from.
	initial func() string
}

// newPipeline writes records to <log_dir>/<id>.jsonl when a log directory is
// configured, else to out. It also keeps them in memory for the parse
// trigger. A configured database gets a copy of every record.
func newPipeline(out io.Writer) (*pipeline, error) {
	p := &pipeline{
		id:      uuid.NewString(),
		history: &event.MemorySink{},
		close:   func() error { return nil },
		initial: func() string { return "" },
	}

	var sink *event.JSONLSink
	if cfg.Tracker.LogDir != "" {
		s, path, err := event.OpenJSONLFile(cfg.Tracker.LogDir, p.id)
		if err != nil {
			return nil, err
		}
		logger.Infof("Writing events of session %s to %s", p.id, path)
		sink, p.close = s, s.Close
	} else {
		// Hide any Closer so closing the sink leaves stdout open.
		sink = event.NewJSONLSink(struct{ io.Writer }{out})
		p.close = sink.Close
	}
	p.mgr = event.NewManager(sink, p.history)

	if cfg.Tracker.Database != "" {
		db, err := store.Open(cfg.Tracker.Database)
		if err != nil {
			_ = p.close()
			return nil, err
		}
		p.mgr.AddSink(db.Sink(p.id))
		closeSink := p.close
		p.close = func() error {
			return errors.Join(closeSink(), db.Close())
		}
	}

	if cfg.Tracker.ParseOnBackward {
		trigger.ParseOnBackward(p.mgr, p.parse)
	}
	return p, nil
}

// seed sets the text the session started from.
func (p *pipeline) seed(initial func() string) { p.initial = initial }

// document rebuilds the document from the initial text and the records so
// far.
func (p *pipeline) document() (*authorship.Document, error) {
	return authorship.ReplayFrom(p.initial(), p.history.Records())
}

// parse reports the authorship of the document at r.
func (p *pipeline) parse(r event.Record) {
	doc, err := p.document()
	if err != nil {
		logger.WarnTagf("trigger", "Parse at %v failed: %v", r.Timestamp(), err)
		return
	}
	logger.InfoTagf("trigger", "Parsed %d units: %.0f%% human, %.0f%% programmatic",
		doc.Len(), 100*doc.Share(provenance.Human), 100*doc.Share(provenance.Programmatic))
}

func (p *pipeline) sessionOptions(extra ...core.Option) []core.Option {
	opts := []core.Option{core.WithID(p.id), core.WithMode(cfg.Tracker.Mode)}
	return append(opts, extra...)
}

func printErrors(cmd *cobra.Command, errs []error) {
	for _, err := range errs {
		cmd.PrintErrf("warning: %v\n", err)
	}
}
