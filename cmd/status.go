package cmd

import (
	"fmt"
	"time"

	"github.com/bnema/waytile/internal/config"
	"github.com/bnema/waytile/internal/ipc"
	"github.com/bnema/waytile/internal/ui"
	"github.com/bnema/waytile/internal/wayland"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"
)

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show the state of a running layout generator",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		display, _ := cmd.Flags().GetString("display")
		if display == "" {
			display = config.Get().Wayland.Display
		}
		socket, err := wayland.SocketName(display)
		if err != nil {
			return err
		}
		client := ipc.NewClient(ipc.SocketPath(socket))

		watch, _ := cmd.Flags().GetBool("watch")
		if watch {
			interval, _ := cmd.Flags().GetDuration("interval")
			if interval <= 0 {
				return fmt.Errorf("interval must be positive, got %s", interval)
			}
			p := tea.NewProgram(ui.NewWatchModel(client.Status, interval),
				tea.WithInput(cmd.InOrStdin()),
				tea.WithOutput(cmd.OutOrStdout()))
			_, err := p.Run()
			return err
		}

		st, err := client.Status()
		if err != nil {
			return err
		}

		fmt.Fprintln(cmd.OutOrStdout(), ui.RenderStatus(st))
		return nil
	},
}

func init() {
	statusCmd.Flags().String("display", "", "Wayland socket name (default $WAYLAND_DISPLAY)")
	statusCmd.Flags().BoolP("watch", "w", false, "Keep polling and redraw the status")
	statusCmd.Flags().Duration("interval", time.Second, "Polling interval for --watch")
	rootCmd.AddCommand(statusCmd)
}
