package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/sshcollectorpro/apcounter/internal/config"
	"github.com/sshcollectorpro/apcounter/internal/ui"
	"github.com/sshcollectorpro/apcounter/pkg/logger"
)

var (
	cfgFile string
	cfg     *config.Config
	console = ui.New(os.Stdout)
)

var rootCmd = &cobra.Command{
	Use:   "apcounter",
	Short: "Count PoE access points across Cisco switches",
	Long: `apcounter logs in to each switch over SSH, runs "show version" and
"show power inline", counts access points by device identifier and exports
an xlsx report with one row per switch.

Running without a subcommand is the same as "apcounter run".`,
	SilenceUsage:      true,
	SilenceErrors:     true,
	PersistentPreRunE: loadConfig,
	RunE:              runCount,
}

// reportedError 已带提示输出过的错误，Execute 不再重复输出
type reportedError struct{ error }

func (e reportedError) Unwrap() error { return e.error }

// report 输出带提示的错误并标记为已输出
func report(title string, err error, hint string) error {
	fmt.Fprint(os.Stderr, console.FormatError(title, err.Error(), hint))
	return reportedError{err}
}

// Execute 执行根命令，错误统一输出到 stderr
func Execute() error {
	if err := rootCmd.Execute(); err != nil {
		var reported reportedError
		if !errors.As(err, &reported) {
			fmt.Fprint(os.Stderr, console.FormatError(err.Error(), "", ""))
		}
		return err
	}
	return nil
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&cfgFile, "config", "c", "", "config file (default: ./configs/config.yaml)")
	addRunFlags(rootCmd)
}

func loadConfig(cmd *cobra.Command, args []string) error {
	c, err := config.Load(cfgFile)
	if err != nil {
		return report("Failed to load config", err, "check --config or remove it to use defaults")
	}
	cfg = c

	if err := logger.Init(logger.Config{
		Level:      cfg.Log.Level,
		Format:     cfg.Log.Format,
		Output:     cfg.Log.Output,
		FilePath:   cfg.Log.FilePath,
		MaxSize:    cfg.Log.MaxSize,
		MaxBackups: cfg.Log.MaxBackups,
		MaxAge:     cfg.Log.MaxAge,
		Compress:   cfg.Log.Compress,
	}); err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}
	return nil
}
