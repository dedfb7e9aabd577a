package cli

import (
	"os"
	"os/signal"
	"syscall"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"

	mcpserver "kbedit/internal/mcp"
)

func mcpCmd() *cobra.Command {
	cmd := cobra.Command{
		Use:   "mcp",
		Short: "Serve editing sessions over MCP on stdin/stdout.",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer cancel()

			return withRuntime(ctx, func(rt *runtime) error {
				if err := rt.retention.Start(ctx); err != nil {
					return err
				}
				srv := mcpserver.New(mcpserver.Deps{
					Emitter:  rt.emitter,
					Logger:   rt.logger,
					Articles: rt.articles,
					Sessions: rt.sessions,
				})

				errc := make(chan error, 1)
				go func() { errc <- srv.ServeStdio() }()
				select {
				case err := <-errc:
					return errors.Wrap(err, "mcp server")
				case <-ctx.Done():
					return nil
				}
			})
		},
	}
	return &cmd
}
