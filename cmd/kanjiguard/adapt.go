package main

import (
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/japaniel/kanjiguard/pkg/pipeline"
	"github.com/japaniel/kanjiguard/pkg/reader"
)

func newAdaptCmd(a *app) *cobra.Command {
	var urlFlag, fileFlag, modeFlag string
	cmd := &cobra.Command{
		Use:   "adapt [--url URL | --file PATH]",
		Short: "Rewrite Japanese text for the learner",
		Long: `Reads text from --file, a web article from --url, or standard input, and
prints it with every word containing unstudied kanji replaced by its reading
(phonetic_substitute) or annotated with <ruby> markup (inline_annotate).
The mode defaults to the learner's stored setting.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if urlFlag != "" && fileFlag != "" {
				return errors.New("use only one of --url and --file")
			}
			mode, err := a.mode(modeFlag)
			if err != nil {
				return err
			}

			var text string
			switch {
			case urlFlag != "":
				client := &http.Client{Timeout: a.cfg.Fetch.Timeout}
				art, err := reader.FetchArticle(cmd.Context(), client, urlFlag, a.cfg.Fetch.MaxBodyBytes)
				if err != nil {
					return err
				}
				a.logger.Info("article fetched",
					zap.String("url", art.URL),
					zap.String("title", art.Title),
					zap.Int("bytes", len(art.Text)))
				text = art.Text
				if art.Title != "" {
					text = art.Title + "\n\n" + text
				}
			case fileFlag != "":
				b, err := os.ReadFile(fileFlag)
				if err != nil {
					return err
				}
				text = string(b)
			default:
				b, err := io.ReadAll(cmd.InOrStdin())
				if err != nil {
					return err
				}
				text = string(b)
			}

			snap, err := a.snapshot()
			if err != nil {
				return err
			}
			ad := pipeline.NewAdapter(snap, mode)
			ad.Workers = a.cfg.Pipeline.Workers
			ad.Logger = a.logger
			out, err := ad.AdaptDocument(cmd.Context(), text)
			if err != nil {
				return err
			}
			_, err = fmt.Fprint(cmd.OutOrStdout(), out)
			return err
		},
	}
	cmd.Flags().StringVar(&urlFlag, "url", "", "web article to fetch")
	cmd.Flags().StringVar(&fileFlag, "file", "", "text file to read")
	cmd.Flags().StringVar(&modeFlag, "mode", "", "none, phonetic_substitute or inline_annotate")
	return cmd
}
