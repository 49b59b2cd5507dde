package main

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/JonMunkholm/csvparser/internal/encoding"
)

type normalizeOptions struct {
	output string
	strict bool
}

func newNormalizeCommand(root *rootOptions) *cobra.Command {
	opts := &normalizeOptions{}
	cmd := &cobra.Command{
		Use:   "normalize FILE",
		Short: "Rewrite a file as clean UTF-8",
		Long: "Rewrite a file as UTF-8 without a BOM, repairing double encoding and\n" +
			"decoding legacy single-byte input. With --strict the file is only\n" +
			"checked and copied when it is already clean.",
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			logger := root.logger(cmd)
			raw, err := os.ReadFile(args[0])
			if err != nil {
				return fmt.Errorf("read %s: %w", args[0], err)
			}

			var out []byte
			if opts.strict {
				out, err = encoding.Validate(raw)
				if err != nil {
					return userError(err)
				}
			} else {
				var rep encoding.Report
				out, rep = encoding.NormalizeReport(raw)
				logger.Info("normalized",
					"file", args[0],
					"kind", rep.Classification.Kind,
					"encoding", rep.Classification.Encoding,
					"repaired", rep.Repaired,
					"dropped_bytes", rep.DroppedBytes,
				)
			}
			return writeOutput(cmd.OutOrStdout(), opts.output, out)
		},
	}
	cmd.Flags().StringVarP(&opts.output, "output", "o", "", "write to file instead of stdout")
	cmd.Flags().BoolVar(&opts.strict, "strict", false, "fail instead of repairing")
	return cmd
}

func writeOutput(stdout io.Writer, path string, data []byte) error {
	if path == "" {
		_, err := stdout.Write(data)
		return err
	}
	return os.WriteFile(path, data, 0o644)
}
