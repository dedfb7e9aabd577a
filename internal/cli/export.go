package cli

import (
	"fmt"
	"os"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"
)

func exportCmd() *cobra.Command {
	var (
		format string
		out    string
	)

	cmd := cobra.Command{
		Use:   "export ARTICLE_ID",
		Short: "Print an article body as text or html.",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withRuntime(cmd.Context(), func(rt *runtime) error {
				body, err := rt.articles.Export(cmd.Context(), args[0], format)
				if err != nil {
					return err
				}
				if out != "" {
					return errors.Wrap(os.WriteFile(out, []byte(body), 0644), "failed to write output")
				}
				_, err = fmt.Fprintln(cmd.OutOrStdout(), body)
				return err
			})
		},
	}

	cmd.Flags().StringVar(&format, "format", "text", "Output format: text or html.")
	cmd.Flags().StringVarP(&out, "out", "o", "", "Write to a file instead of stdout.")

	return &cmd
}
