package cli

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"kbedit/internal/watch"
)

func importCmd() *cobra.Command {
	var watchDir bool

	cmd := cobra.Command{
		Use:   "import DIR",
		Short: "Import markdown files as articles, one article per file.",
		Long: `Import every .md file in DIR. The file name becomes the article id, so
reimporting a file replaces the body of the same article. With --watch the
command keeps running and reimports files as they change.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer cancel()

			return withRuntime(ctx, func(rt *runtime) error {
				w := cmd.OutOrStdout()
				syncer := watch.New(rt.articles,
					watch.WithLogger(rt.logger),
					watch.OnImport(func(r watch.Result) {
						rt.logger.Info("synced", zap.String("path", r.Path), zap.String("article", r.ArticleID))
					}),
				)

				results, err := syncer.ImportDir(ctx, args[0])
				for _, r := range results {
					verb := "updated"
					if r.Created {
						verb = "created"
					}
					_, _ = fmt.Fprintf(w, "%s\t%s\t%s\n", verb, r.ArticleID, r.Path)
				}
				if err != nil || !watchDir {
					return err
				}
				return syncer.Watch(ctx, args[0])
			})
		},
	}

	cmd.Flags().BoolVarP(&watchDir, "watch", "w", false, "Keep watching DIR and reimport changed files.")

	return &cmd
}
