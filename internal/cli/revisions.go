package cli

import (
	"fmt"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"
)

func revisionsCmd() *cobra.Command {
	cmd := cobra.Command{
		Use:   "revisions",
		Short: "Inspect and prune saved revisions.",
	}
	cmd.AddCommand(revisionsListCmd())
	cmd.AddCommand(revisionsPruneCmd())
	return &cmd
}

func revisionsListCmd() *cobra.Command {
	cmd := cobra.Command{
		Use:     "list ARTICLE_ID",
		Aliases: []string{"ls"},
		Short:   "List revisions of an article, newest first.",
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withRuntime(cmd.Context(), func(rt *runtime) error {
				revs, err := rt.articles.ListRevisions(cmd.Context(), args[0])
				if err != nil {
					return err
				}

				tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
				_, _ = fmt.Fprintln(tw, strings.Join([]string{"ID", "CREATED", "LABEL", "SIZE"}, "\t"))
				for _, r := range revs {
					_, _ = fmt.Fprintf(tw, "%s\t%s\t%s\t%d\n",
						r.ID, r.CreatedAt.Local().Format(time.DateTime), r.Label, len(r.Content))
				}
				return errors.Wrap(tw.Flush(), "failed to render")
			})
		},
	}
	return &cmd
}

func revisionsPruneCmd() *cobra.Command {
	var olderThan time.Duration

	cmd := cobra.Command{
		Use:   "prune",
		Short: "Delete revisions older than the retention period, keeping each article's newest.",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withRuntime(cmd.Context(), func(rt *runtime) error {
				age := olderThan
				if !cmd.Flags().Changed("older-than") {
					var err error
					if age, err = rt.cfg.Revisions.RetentionPeriod(); err != nil {
						return err
					}
				}
				if age <= 0 {
					return errors.New("no retention configured; pass --older-than")
				}
				n, err := rt.articles.PruneRevisions(cmd.Context(), age)
				if err != nil {
					return err
				}
				_, err = fmt.Fprintf(cmd.OutOrStdout(), "pruned %d revision(s)\n", n)
				return err
			})
		},
	}

	cmd.Flags().DurationVar(&olderThan, "older-than", 0, "Age after which revisions are pruned (default revisions.retention).")

	return &cmd
}
