package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/JonMunkholm/csvparser/internal/encoding"
)

var (
	statusClean   = color.New(color.FgGreen).SprintFunc()
	statusFixable = color.New(color.FgYellow).SprintFunc()
	statusBad     = color.New(color.FgRed).SprintFunc()
)

type inspectOptions struct {
	json    bool
	noColor bool
}

func newInspectCommand(root *rootOptions) *cobra.Command {
	opts := &inspectOptions{}
	cmd := &cobra.Command{
		Use:   "inspect FILE...",
		Short: "Report the detected encoding of each file",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if opts.noColor {
				prev := color.NoColor
				color.NoColor = true
				defer func() { color.NoColor = prev }()
			}
			return runInspect(cmd.OutOrStdout(), args, opts)
		},
	}
	cmd.Flags().BoolVar(&opts.json, "json", false, "print one JSON object per file")
	cmd.Flags().BoolVar(&opts.noColor, "no-color", false, "disable colored status")
	return cmd
}

type inspectResult struct {
	File string `json:"file"`
	encoding.Classification
}

func runInspect(w io.Writer, files []string, opts *inspectOptions) error {
	enc := json.NewEncoder(w)
	for _, path := range files {
		raw, err := os.ReadFile(path)
		if err != nil {
			return fmt.Errorf("read %s: %w", path, err)
		}
		c := encoding.Classify(raw)
		if opts.json {
			if err := enc.Encode(inspectResult{File: path, Classification: c}); err != nil {
				return err
			}
			continue
		}
		fmt.Fprintf(w, "%s\t%s\t%s%s\n", path, statusFor(c), c.Encoding, details(c))
	}
	return nil
}

func statusFor(c encoding.Classification) string {
	switch {
	case c.Kind == encoding.Indeterminate:
		return statusBad(c.Kind.String())
	case c.DoubleEncoded || c.Kind == encoding.LegacySingleByte:
		return statusFixable(c.Kind.String())
	default:
		return statusClean(c.Kind.String())
	}
}

func details(c encoding.Classification) string {
	var s string
	if c.BOM {
		s += " bom"
	}
	if c.DoubleEncoded {
		s += fmt.Sprintf(" double-encoded(%d)", c.PatternCount)
	}
	if c.Hint != "" {
		s += fmt.Sprintf(" hint=%s(%d%%)", c.Hint, c.HintConfidence)
	}
	return s
}
