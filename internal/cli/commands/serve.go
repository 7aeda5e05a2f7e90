package commands

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/leapstack-labs/askql/internal/server"
	"github.com/spf13/cobra"
)

// NewServeCommand creates the serve command.
func NewServeCommand() *cobra.Command {
	var port int

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the HTTP API",
		Long: `Start the HTTP API serving /ask, /csv/ask, /upload, /schema and /datasets,
plus /healthz and prometheus /metrics. Stops gracefully on SIGINT or SIGTERM.`,
		Example: `  askql serve
  askql serve --port 8080
  askql serve --no-primary`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			app, err := NewApp(cmd)
			if err != nil {
				return err
			}
			defer func() { _ = app.Close() }()

			if !cmd.Flags().Changed("port") {
				port = app.Cfg.Server.Port
			}

			srv := server.NewServer(server.Config{
				Service:    app.Service,
				Metrics:    app.Metrics,
				Port:       port,
				CORSOrigin: app.Cfg.Server.CORSOrigin,
				Logger:     app.Logger,
			})

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			_, _ = fmt.Fprintf(cmd.OutOrStdout(), "askql API listening on http://localhost:%d\n", port)
			if !app.Router.PrimaryEnabled() {
				_, _ = fmt.Fprintln(cmd.OutOrStdout(), "Primary store disabled, answering from the embedded store")
			}
			return srv.Serve(ctx)
		},
	}

	cmd.Flags().IntVarP(&port, "port", "p", 0, "Port to listen on (default from config, 3000)")
	return cmd
}
