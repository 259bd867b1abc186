package cli

import (
	"errors"
	"time"

	"github.com/spf13/cobra"

	"github.com/bethropolis/provtrace/internal/store"
)

var errNoDatabase = errors.New("no database configured, set --db or tracker.database")

var sessionsCmd = &cobra.Command{
	Use:   "sessions",
	Short: "List the sessions stored in the database",
	Args:  cobra.NoArgs,
	RunE:  runSessions,
}

func init() {
	rootCmd.AddCommand(sessionsCmd)
}

func openStore() (*store.Store, error) {
	if cfg.Tracker.Database == "" {
		return nil, errNoDatabase
	}
	return store.Open(cfg.Tracker.Database)
}

func runSessions(cmd *cobra.Command, _ []string) error {
	db, err := openStore()
	if err != nil {
		return err
	}
	defer db.Close()

	sessions, err := db.Sessions(cmd.Context())
	if err != nil {
		return err
	}
	if len(sessions) == 0 {
		cmd.Println("No sessions stored.")
		return nil
	}
	for _, s := range sessions {
		cmd.Printf("%s  %4d records  %s\n", s.ID, s.Records,
			time.UnixMilli(s.First).UTC().Format(time.RFC3339))
	}
	return nil
}
