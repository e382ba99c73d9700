package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/japaniel/kanjiguard/pkg/db"
	"github.com/japaniel/kanjiguard/pkg/rewrite"
)

func newModeCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "mode",
		Short: "Show or change the learner's display mode",
	}
	cmd.AddCommand(
		&cobra.Command{
			Use:   "get",
			Short: "Print the learner's display mode",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, args []string) error {
				m, err := a.mode("")
				if err != nil {
					return err
				}
				fmt.Fprintln(cmd.OutOrStdout(), m)
				return nil
			},
		},
		&cobra.Command{
			Use:       "set MODE",
			Short:     "Store the learner's display mode",
			Args:      cobra.ExactArgs(1),
			ValidArgs: []string{"none", "phonetic_substitute", "inline_annotate"},
			RunE: func(cmd *cobra.Command, args []string) error {
				m, err := rewrite.ParseMode(args[0])
				if err != nil {
					return err
				}
				conn, err := a.store()
				if err != nil {
					return err
				}
				if err := db.SetDisplayMode(conn, a.cfg.Learner.Name, m); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Display mode for %s set to %s.\n", a.cfg.Learner.Name, m)
				return nil
			},
		},
	)
	return cmd
}
