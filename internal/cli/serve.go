package cli

import (
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/specialistvlad/contractgrid/internal/app"
)

func newServeCommand(g *globalFlags) *cobra.Command {
	var (
		listen     string
		healthPort int
		project    string
	)
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve compilations to editors over socket.io and HTTP",
		Long: `Run the editor server. Editors connect over socket.io at /socket.io/ and
send "compile" events; scripts can POST a request to /compile. GET /health
answers liveness checks.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			a, err := newApp(cmd, g, app.Config{
				ListenAddr:      listen,
				HealthcheckPort: healthPort,
				ProjectFile:     project,
			})
			if err != nil {
				return err
			}
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			if err := a.Serve(ctx); err != nil {
				return failure(err)
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&listen, "listen", app.DefaultListenAddr, "Address to listen on")
	cmd.Flags().IntVar(&healthPort, "healthcheck-port", 0, "Port for a separate health check server. 0 is disabled.")
	cmd.Flags().StringVar(&project, "project", "", "HCL project file used when a request has no header")
	return cmd
}
