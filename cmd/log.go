package cmd

import (
	"errors"
	"fmt"

	"github.com/PolarWolf314/quill/internal/audit"
	kerrors "github.com/PolarWolf314/quill/internal/errors"
	"github.com/PolarWolf314/quill/internal/ui"

	"github.com/spf13/cobra"
)

var (
	logQuery   audit.Query
	logOneline bool
	logJSON    bool
)

func init() {
	f := logCmd.Flags()
	f.IntVarP(&logQuery.Limit, "number", "n", 0, "show at most this many of the most recent entries")
	f.BoolVar(&logQuery.Reverse, "reverse", false, "newest first")
	f.StringVar(&logQuery.UserID, "user", "", "only entries for this user id")
	f.StringVar(&logQuery.Operations, "operation", "", "only these operations, comma-separated (e.g. share,unlocked)")
	f.StringVar(&logQuery.Since, "since", "", "only entries on or after this date (YYYY-MM-DD)")
	f.StringVar(&logQuery.Until, "until", "", "only entries on or before this date (YYYY-MM-DD)")
	f.BoolVar(&logOneline, "oneline", false, "one short line per entry")
	f.BoolVar(&logJSON, "json", false, "print entries as a JSON array")
}

var logCmd = &cobra.Command{
	Use:   "log",
	Short: "Show the local audit trail",
	Long: `Shows what happened to your keys on this device: sessions created and
unlocked, entries shared, password and biometric changes, cloud backups.
Entries never include key material or entry content.

Examples:
  quill log -n 20 --reverse
  quill log --operation share --since 2026-01-01
  quill log --json`,
	RunE: func(cmd *cobra.Command, args []string) error {
		Logger.Infof("Starting log command")

		s, cleanup := startSpinner("Reading audit log...", verbose)
		defer cleanup()

		a, err := loadApp()
		if err != nil {
			return Logger.ErrorfAndReturn("failed to load configuration: %v", err)
		}

		all, err := a.audit.ReadEntries()
		if err != nil {
			return Logger.ErrorfAndReturn("failed to read %s: %v", a.audit.Path(), err)
		}
		Logger.Debugf("Read %d entries from %s", len(all), a.audit.Path())

		selected, err := audit.Filter(all, logQuery)
		if errors.Is(err, kerrors.ErrInvalidDateFormat) {
			s.FinalMSG = ui.Error.Sprint("✗") + " " + err.Error()
			return nil
		}
		if err != nil {
			return err
		}

		switch {
		case len(all) == 0:
			s.FinalMSG = "No audit log entries found."
			return nil
		case len(selected) == 0:
			s.FinalMSG = "No audit log entries found matching the filters."
			return nil
		}

		cleanup()
		if logJSON {
			return writeJSON("", selected)
		}
		for _, e := range selected {
			fmt.Println(formatLogLine(e, logOneline))
		}
		return nil
	},
}

func formatLogLine(e audit.Entry, oneline bool) string {
	details := audit.FormatDetails(e)
	if oneline {
		return fmt.Sprintf("%s %s %s %s", audit.FormatDate(e.Timestamp), e.UserID, e.Operation, details)
	}
	return fmt.Sprintf("%-19s  %-36s  %-17s  %s",
		audit.FormatDateTime(e.Timestamp), e.UserID, ui.Info.Sprint(e.Operation), details)
}
