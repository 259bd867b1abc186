package cli

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/bethropolis/provtrace/internal/authorship"
	"github.com/bethropolis/provtrace/internal/event"
	"github.com/bethropolis/provtrace/internal/provenance"
)

var maskCmd = &cobra.Command{
	Use:   "mask [records.jsonl | --session id]",
	Short: "Show who wrote each character of a logged document",
	Long: `Rebuilds the document from an event log and prints its text, an authorship
mask (_ human, * programmatic, . unknown) and the share of each author.
With --session the records come from the database instead. A session that
started with text needs that text in --initial.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runMask,
}

var (
	maskSession string
	maskInitial string
)

func init() {
	maskCmd.Flags().StringVar(&maskSession, "session", "", "Read the records of this session from the database")
	maskCmd.Flags().StringVar(&maskInitial, "initial", "", "document text the session started from")
	rootCmd.AddCommand(maskCmd)
}

func runMask(cmd *cobra.Command, args []string) error {
	var (
		records []event.Record
		err     error
	)
	switch {
	case maskSession != "":
		records, err = sessionRecords(cmd, maskSession)
	case len(args) == 1:
		records, err = fileRecords(args[0])
	default:
		return errors.New("mask needs an event log or --session")
	}
	if err != nil {
		return err
	}
	doc, err := authorship.ReplayFrom(maskInitial, records)
	if err != nil {
		return err
	}

	cmd.Printf("text:  %q\n", doc.Text())
	cmd.Printf("mask:  %s\n", doc.Mask())
	cmd.Printf("human: %.1f%%\n", 100*doc.Share(provenance.Human))
	cmd.Printf("api:   %.1f%%\n", 100*doc.Share(provenance.Programmatic))
	return nil
}

func fileRecords(path string) ([]event.Record, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open event log: %w", err)
	}
	defer f.Close()

	records, err := event.ReadJSONL(f)
	if err != nil {
		return nil, fmt.Errorf("read event log '%s': %w", path, err)
	}
	return records, nil
}

func sessionRecords(cmd *cobra.Command, id string) ([]event.Record, error) {
	db, err := openStore()
	if err != nil {
		return nil, err
	}
	defer db.Close()

	records, err := db.Records(cmd.Context(), id)
	if err != nil {
		return nil, err
	}
	if len(records) == 0 {
		return nil, fmt.Errorf("session %q has no records", id)
	}
	return records, nil
}
