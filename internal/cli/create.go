package cli

import (
	"fmt"
	"os"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"
)

func createCmd() *cobra.Command {
	var fromFile string

	cmd := cobra.Command{
		Use:   "create TITLE",
		Short: "Create an article and print its id.",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var content string
			if fromFile != "" {
				data, err := os.ReadFile(fromFile)
				if err != nil {
					return errors.Wrap(err, "failed to read body file")
				}
				content = string(data)
			}
			return withRuntime(cmd.Context(), func(rt *runtime) error {
				a, err := rt.articles.CreateArticle(cmd.Context(), args[0], content)
				if err != nil {
					return err
				}
				_, err = fmt.Fprintln(cmd.OutOrStdout(), a.ID)
				return err
			})
		},
	}

	cmd.Flags().StringVarP(&fromFile, "file", "f", "", "Read the initial body from a file.")

	return &cmd
}
