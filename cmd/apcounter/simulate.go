package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"sort"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/sshcollectorpro/apcounter/simulate"
)

var simulateFile string

var simulateCmd = &cobra.Command{
	Use:   "simulate",
	Short: "Run simulated Cisco IOS switches for local testing",
	Long: `Start one SSH server per device in simulate.yaml. Each server echoes
commands, asks for the enable secret and answers "show" commands from the
configured outputs. Stop with Ctrl+C.`,
	Args: cobra.NoArgs,
	RunE: runSimulate,
}

func init() {
	simulateCmd.Flags().StringVar(&simulateFile, "file", "simulate/simulate.yaml", "simulator config")
	rootCmd.AddCommand(simulateCmd)
}

func runSimulate(cmd *cobra.Command, args []string) error {
	sc, err := simulate.LoadConfig(simulateFile)
	if err != nil {
		return err
	}
	mgr, err := simulate.StartAll(sc)
	if err != nil {
		return err
	}
	defer mgr.Stop()

	servers := mgr.Servers()
	names := make([]string, 0, len(servers))
	for name := range servers {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		fmt.Fprintf(cmd.OutOrStdout(), "%s listening on %s\n", name, servers[name].Addr())
	}
	console.Success("Simulated switches running, press Ctrl+C to stop")

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	<-ctx.Done()
	return nil
}
