package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/sshcollectorpro/apcounter/internal/credential"
	"github.com/sshcollectorpro/apcounter/internal/database"
	"github.com/sshcollectorpro/apcounter/internal/device"
	"github.com/sshcollectorpro/apcounter/internal/input"
	"github.com/sshcollectorpro/apcounter/internal/service"
	"github.com/sshcollectorpro/apcounter/internal/storage"
	"github.com/sshcollectorpro/apcounter/pkg/logger"
)

var (
	hostsFile   string
	outputPath  string
	secretsFile string
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Collect AP counts from switches and export the report",
	Example: `  # type hostnames, finish with an empty line
  apcounter run

  # read hostnames from a file and write the report elsewhere
  apcounter run --hosts-file switches.txt --output reports/ap_counts.xlsx`,
	Args: cobra.NoArgs,
	RunE: runCount,
}

func init() {
	addRunFlags(runCmd)
	rootCmd.AddCommand(runCmd)
}

func addRunFlags(cmd *cobra.Command) {
	cmd.Flags().StringVarP(&hostsFile, "hosts-file", "f", "", "read hostnames from file instead of stdin")
	cmd.Flags().StringVarP(&outputPath, "output", "o", "", "report path (default: report.filename)")
	cmd.Flags().StringVar(&secretsFile, "secrets", "", "credential file (default: credentials.file)")
}

func runCount(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var (
		hosts []string
		err   error
	)
	if hostsFile != "" {
		hosts, err = input.ReadHostsFile(hostsFile)
	} else {
		hosts, err = input.ReadHostnames(os.Stdin, console.Writer())
	}
	if err != nil {
		return err
	}

	if secretsFile == "" {
		secretsFile = cfg.Credentials.File
	}
	creds := credential.NewFileProvider(secretsFile, os.Getenv(cfg.Credentials.MasterKeyEnv))
	if _, err := creds.Credentials(); err != nil {
		return report("Failed to load credentials", err, "run 'apcounter secrets encode' to produce the secret values")
	}

	dialer := &device.SSHDialer{
		ConnectTimeout: cfg.SSH.ConnectTimeout,
		CommandTimeout: cfg.SSH.CommandTimeout,
		PromptTimeout:  cfg.SSH.PromptTimeout,
		KeepAlive:      cfg.SSH.KeepAliveInterval,
	}

	var opts []service.CounterOption
	if cfg.Database.Enabled {
		db, err := database.Open(cfg.Database.SQLite)
		if err != nil {
			logger.Warnf("Run history disabled: %v", err)
		} else {
			defer database.Close(db)
			opts = append(opts, service.WithHistory(database.NewHistory(db)))
		}
	}
	if cfg.Collector.SaveRaw || cfg.Report.Upload {
		opts = append(opts, service.WithStorage(storage.New(cfg)))
	}

	svc := service.NewCounterService(cfg, dialer, creds, console, opts...)
	if _, err := svc.Run(ctx, hosts, outputPath); err != nil {
		return fmt.Errorf("run failed: %w", err)
	}
	return nil
}
