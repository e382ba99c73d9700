package main

import (
	"encoding/json"
	"fmt"
	"slices"
	"strings"

	"github.com/spf13/cobra"

	"github.com/japaniel/kanjiguard/pkg/classify"
	"github.com/japaniel/kanjiguard/pkg/db"
	"github.com/japaniel/kanjiguard/pkg/knowledge"
)

func newKnownCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "known",
		Short: "Show the learner's study items and known kanji",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			conn, err := a.store()
			if err != nil {
				return err
			}
			counts, err := db.CountStudyItems(conn, a.cfg.Learner.Name)
			if err != nil {
				return err
			}
			snap, err := a.snapshot()
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Learner: %s\n", a.cfg.Learner.Name)
			kinds := make([]knowledge.Kind, 0, len(counts))
			for k := range counts {
				kinds = append(kinds, k)
			}
			slices.Sort(kinds)
			for _, k := range kinds {
				fmt.Fprintf(out, "  %-16s %d\n", k, counts[k])
			}
			fmt.Fprintf(out, "Known kanji (%d): %s\n", snap.Known.Len(), strings.Join(snap.Known.Strings(), ""))
			return nil
		},
	}
}

func newClassifyCmd(a *app) *cobra.Command {
	var asJSON bool
	cmd := &cobra.Command{
		Use:   "classify",
		Short: "Split the learner's vocabulary into safe and reading-only tiers",
		Long: `Safe words use only kanji the learner has studied (or no kanji at all) and
may be shown as written. Reading-only words contain unstudied kanji and are
listed by their reading. Words with unstudied kanji and no reading are dropped.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			snap, err := a.snapshot()
			if err != nil {
				return err
			}
			res := classify.Classify(snap.Known, snap.Vocabulary, classify.WithDedupe())
			out := cmd.OutOrStdout()
			if asJSON {
				enc := json.NewEncoder(out)
				enc.SetIndent("", "  ")
				return enc.Encode(map[string][]string{
					"safe":          nonNil(res.Safe),
					"phonetic_only": nonNil(res.PhoneticOnly),
				})
			}
			fmt.Fprintf(out, "Safe (%d): %s\n", len(res.Safe), strings.Join(res.Safe, "、"))
			fmt.Fprintf(out, "Reading only (%d): %s\n", len(res.PhoneticOnly), strings.Join(res.PhoneticOnly, "、"))
			return nil
		},
	}
	cmd.Flags().BoolVar(&asJSON, "json", false, "print JSON")
	return cmd
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}
