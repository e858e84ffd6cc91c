package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/sshcollectorpro/apcounter/internal/database"
)

var (
	historyLimit int
	historyRun   string
)

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "List recent runs, or the devices of one run",
	Args:  cobra.NoArgs,
	RunE:  runHistory,
}

func init() {
	historyCmd.Flags().IntVarP(&historyLimit, "limit", "n", 10, "number of runs to list")
	historyCmd.Flags().StringVar(&historyRun, "run", "", "show device records of this run ID")
	rootCmd.AddCommand(historyCmd)
}

func runHistory(cmd *cobra.Command, args []string) error {
	db, err := database.Open(cfg.Database.SQLite)
	if err != nil {
		return err
	}
	defer database.Close(db)
	h := database.NewHistory(db)
	out := cmd.OutOrStdout()

	if historyRun != "" {
		recs, err := h.DeviceRecords(historyRun)
		if err != nil {
			return err
		}
		if len(recs) == 0 {
			console.Warn("no device records for run " + historyRun)
			return nil
		}
		fmt.Fprintf(out, "%-4s %-24s %-10s %-20s %8s %5s  %s\n", "SEQ", "SWITCH", "STATE", "MODEL", "POWER(W)", "APS", "ERROR")
		for _, r := range recs {
			fmt.Fprintf(out, "%-4d %-24s %-10s %-20s %8.1f %5d  %s\n", r.Seq, r.Hostname, r.State, r.Model, r.PowerAvailable, r.TotalAPs, r.ErrorMsg)
		}
		return nil
	}

	runs, err := h.RecentRuns(historyLimit)
	if err != nil {
		return err
	}
	if len(runs) == 0 {
		console.Warn("no runs recorded yet")
		return nil
	}
	fmt.Fprintf(out, "%-36s %-19s %-10s %5s %5s %5s %6s  %s\n", "RUN", "STARTED", "STATUS", "HOSTS", "OK", "FAIL", "APS", "REPORT")
	for _, r := range runs {
		fmt.Fprintf(out, "%-36s %-19s %-10s %5d %5d %5d %6d  %s\n",
			r.ID, r.StartTime.Format(time.DateTime), r.Status, r.HostCount, r.SuccessCount, r.FailedCount, r.TotalAPs, r.ReportPath)
	}
	fmt.Fprintln(out, console.Hint("apcounter history --run <id> lists the devices of a run"))
	return nil
}
