package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/japaniel/kanjiguard/pkg/anki"
	"github.com/japaniel/kanjiguard/pkg/db"
	"github.com/japaniel/kanjiguard/pkg/knowledge"
	"github.com/japaniel/kanjiguard/pkg/pipeline"
)

func newImportCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "import",
		Short: "Import study items for the learner",
	}
	cmd.AddCommand(newImportAnkiCmd(a), newImportYAMLCmd(a))
	return cmd
}

func newImportAnkiCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "anki FILE.apkg",
		Short: "Import well-known vocabulary from an Anki deck package",
		Long: `Reads an exported Anki deck (.apkg). Review cards with an interval of at
least 21 days become vocabulary items; suspended and younger cards are skipped.
Re-importing the same deck updates items in place.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			im := &anki.Importer{Logger: a.logger}
			res, err := im.Import(args[0])
			if err != nil {
				return err
			}
			stats, err := a.ingest(cmd, anki.Source, res.Items)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Imported %d cards (%d skipped, %d rejected) for %s.\n",
				stats.Written, res.Skipped, stats.Rejected, a.cfg.Learner.Name)
			return nil
		},
	}
}

func newImportYAMLCmd(a *app) *cobra.Command {
	var source string
	cmd := &cobra.Command{
		Use:   "yaml FILE",
		Short: "Import a hand-maintained study list",
		Long: `Reads a YAML study list:

  kanji: [日, 本]
  vocabulary:
    - {term: 日本, reading: にほん}
  items:
    - {term: 猫, kind: kanji}

Entries with an unknown kind are reported and skipped.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			f, err := os.Open(args[0])
			if err != nil {
				return err
			}
			defer f.Close()
			records, err := knowledge.LoadYAML(f)
			if err != nil {
				if records == nil {
					return err
				}
				a.logger.Warn("some study list entries were skipped", zap.Error(err))
			}
			stats, err := a.ingest(cmd, source, db.ItemsFromRecords(records))
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Imported %d items (%d rejected) for %s.\n",
				stats.Written, stats.Rejected, a.cfg.Learner.Name)
			return nil
		},
	}
	cmd.Flags().StringVar(&source, "source", "yaml", "source name recorded with the items")
	return cmd
}

func (a *app) ingest(cmd *cobra.Command, source string, items []db.StudyItem) (pipeline.Stats, error) {
	conn, err := a.store()
	if err != nil {
		return pipeline.Stats{}, err
	}
	ig := pipeline.NewIngester(conn)
	ig.BatchSize = a.cfg.Pipeline.BatchSize
	ig.Logger = a.logger
	return ig.Ingest(cmd.Context(), a.cfg.Learner.Name, source, items)
}
