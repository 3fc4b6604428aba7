package cmd

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/bnema/waytile/internal/config"
	"github.com/bnema/waytile/internal/ipc"
	"github.com/bnema/waytile/internal/logger"
	"github.com/bnema/waytile/internal/registry"
	"github.com/bnema/waytile/internal/wayland"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run the layout generator",
	Long: `Connect to the compositor, register the layout namespace on every output
and answer layout demands until interrupted. Exits with an error when the
compositor lacks river-layout-v1 or river-options-v1, when the namespace is
taken (with namespace_conflict = "exit"), or when the connection is lost.`,
	RunE: runLayout,
}

func init() {
	runCmd.Flags().StringP("namespace", "n", "", "layout namespace (default from config, \"tile\")")
	runCmd.Flags().String("display", "", "Wayland socket name (default $WAYLAND_DISPLAY)")
	runCmd.Flags().String("namespace-conflict", "", "what to do when the namespace is taken: exit or drop")
	runCmd.Flags().Bool("no-status", false, "do not serve the status socket")

	if err := bindRunFlags(); err != nil {
		panic(err)
	}

	rootCmd.AddCommand(runCmd)
}

// bindRunFlags lets run flags override the matching config keys
func bindRunFlags() error {
	for key, flag := range map[string]string{
		"layout.namespace":          "namespace",
		"layout.namespace_conflict": "namespace-conflict",
		"wayland.display":           "display",
	} {
		if err := viper.BindPFlag(key, runCmd.Flags().Lookup(flag)); err != nil {
			return err
		}
	}
	return viper.BindPFlag("logging.log_level", rootCmd.PersistentFlags().Lookup("log-level"))
}

func runLayout(cmd *cobra.Command, args []string) error {
	cfg := config.Get()
	logger.RedirectStdlib()

	socket, err := wayland.SocketName(cfg.Wayland.Display)
	if err != nil {
		return err
	}

	driver, err := wayland.Connect(socket)
	if err != nil {
		return err
	}
	defer func() {
		if err := driver.Close(); err != nil {
			logger.Debugf("Failed to close connection: %v", err)
		}
	}()

	// The status socket is a convenience; the layout works without it
	if noStatus, _ := cmd.Flags().GetBool("no-status"); !noStatus {
		server := ipc.NewSocketServer(ipc.SocketPath(socket), driver)
		if err := server.Start(); err != nil {
			logger.Warn("Status socket unavailable", "error", err)
		} else {
			defer server.Stop()
		}
	}

	ctx, cancel := context.WithCancel(cmd.Context())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(sigCh)

	go func() {
		select {
		case sig := <-sigCh:
			logger.Info("Received signal", "signal", sig)
			cancel()
		case <-ctx.Done():
		}
	}()

	settings := cfg.Settings()
	logger.Info("Starting layout generator",
		"namespace", settings.Namespace,
		"main_amount", settings.Defaults.MainAmount,
		"main_factor", settings.Defaults.MainFactor)

	client := registry.New(driver.Binder(), settings)
	return driver.Run(ctx, client)
}
