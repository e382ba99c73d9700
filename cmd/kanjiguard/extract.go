package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/japaniel/kanjiguard/pkg/extract"
)

func newExtractCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "extract [FILE]",
		Short: "Recover the JSON object from a model reply",
		Long: `Reads a model reply from FILE or standard input, finds the JSON payload
(fenced block, outermost braces, or a bare array), repairs raw control
characters inside strings and prints the result as indented JSON.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var raw []byte
			var err error
			if len(args) == 1 {
				raw, err = os.ReadFile(args[0])
			} else {
				raw, err = io.ReadAll(cmd.InOrStdin())
			}
			if err != nil {
				return err
			}

			var v any
			if err := extract.Decode(string(raw), &v); err != nil {
				var xerr *extract.Error
				if errors.As(err, &xerr) && xerr.Preview != "" {
					fmt.Fprintf(cmd.ErrOrStderr(), "candidate:\n%s\n", xerr.Preview)
				}
				return err
			}
			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			enc.SetEscapeHTML(false)
			return enc.Encode(v)
		},
	}
}
