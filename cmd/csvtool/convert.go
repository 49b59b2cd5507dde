package main

import (
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/JonMunkholm/csvparser/internal/config"
	"github.com/JonMunkholm/csvparser/internal/core"
	"github.com/JonMunkholm/csvparser/internal/encoding"
	"github.com/JonMunkholm/csvparser/internal/middleware"
)

type dialectFlags struct {
	delimiter string
	enclosure string
	line      string
}

func (f dialectFlags) dialect() (core.Dialect, error) {
	delim, err := core.ParseRune(f.delimiter)
	if err != nil {
		return core.Dialect{}, err
	}
	enc, err := core.ParseRune(f.enclosure)
	if err != nil {
		return core.Dialect{}, err
	}
	d := core.Dialect{Delimiter: delim, Enclosure: enc, LineDelimiter: config.UnescapeLine(f.line)}
	return d, d.Validate()
}

type convertOptions struct {
	in       dialectFlags
	out      dialectFlags
	mode     string
	pipeline string
	stream   bool
	output   string
}

func newConvertCommand(root *rootOptions) *cobra.Command {
	opts := &convertOptions{}
	cmd := &cobra.Command{
		Use:   "convert FILE",
		Short: "Re-serialize a file in another dialect",
		Long: "Parse FILE with the input dialect, run the optional middleware\n" +
			"pipeline and write it back out with the output dialect.\n" +
			"--stream processes one record at a time; invalid UTF-8 is dropped\n" +
			"but legacy encodings are not decoded in that mode.",
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return userError(runConvert(cmd, root, opts, args[0]))
		},
	}
	fl := cmd.Flags()
	fl.StringVar(&opts.in.delimiter, "delimiter", ",", "input field delimiter")
	fl.StringVar(&opts.in.enclosure, "enclosure", `"`, "input enclosure, empty for none")
	fl.StringVar(&opts.in.line, "line", `\n`, "input line delimiter, escapes allowed")
	fl.StringVar(&opts.out.delimiter, "out-delimiter", ",", "output field delimiter")
	fl.StringVar(&opts.out.enclosure, "out-enclosure", `"`, "output enclosure, empty for none")
	fl.StringVar(&opts.out.line, "out-line", `\n`, "output line delimiter, escapes allowed")
	fl.StringVar(&opts.mode, "encoding", "basic", "basic, strict or none")
	fl.StringVar(&opts.pipeline, "pipeline", "", "TOML file describing the middleware pipeline")
	fl.BoolVar(&opts.stream, "stream", false, "process one record at a time")
	fl.StringVarP(&opts.output, "output", "o", "", "write to file instead of stdout")
	return cmd
}

func runConvert(cmd *cobra.Command, root *rootOptions, opts *convertOptions, path string) error {
	logger := root.logger(cmd)

	inDialect, err := opts.in.dialect()
	if err != nil {
		return fmt.Errorf("input dialect: %w", err)
	}
	outDialect, err := opts.out.dialect()
	if err != nil {
		return fmt.Errorf("output dialect: %w", err)
	}
	conv, err := encoding.ConverterFor(opts.mode, logger)
	if err != nil {
		return err
	}

	// The pipeline runs on read for the input parser and on write for the
	// output parser, so escapes applied on read are undone before writing.
	inOpts := []core.Option{core.WithDialect(inDialect), core.WithConverter(conv), core.WithLogger(logger)}
	outOpts := []core.Option{core.WithDialect(outDialect), core.WithLogger(logger)}
	if opts.pipeline != "" {
		specs, err := middleware.LoadSpecs(opts.pipeline)
		if err != nil {
			return err
		}
		pipeline, err := middleware.BuildPipeline(specs, logger)
		if err != nil {
			return err
		}
		inOpts = append(inOpts, core.WithMiddleware(pipeline))
		outOpts = append(outOpts, core.WithMiddleware(pipeline))
	}

	reader, err := core.NewParser(inOpts...)
	if err != nil {
		return err
	}
	writer, err := core.NewParser(outOpts...)
	if err != nil {
		return err
	}

	if !opts.stream {
		t, err := reader.ReadFile(path)
		if err != nil {
			return err
		}
		if opts.output != "" {
			_, err = writer.WriteFile(t, opts.output)
			return err
		}
		text, err := writer.ToString(t)
		if err != nil {
			return err
		}
		_, err = io.WriteString(cmd.OutOrStdout(), text)
		return err
	}

	src, err := reader.StreamFile(path)
	if err != nil {
		return err
	}
	defer src.Close()

	header, err := src.Header()
	if err != nil {
		return err
	}
	if header == nil {
		return nil
	}

	var (
		dst io.Writer = cmd.OutOrStdout()
		f   *os.File
	)
	if opts.output != "" {
		f, err = os.Create(opts.output)
		if err != nil {
			return &core.IOError{Op: "open", Path: opts.output, Err: err}
		}
		dst = f
	}

	n, err := streamRecords(src, writer, dst, header)
	if f != nil {
		err = closeOutput(f, opts.output, err)
	}
	if err != nil {
		return err
	}
	logger.Info("converted", "file", path, "bytes_read", src.BytesRead(), "bytes_written", n)
	return nil
}

// streamRecords copies every record from src to dst through writer and
// reports the first read or write failure.
func streamRecords(src *core.StreamReader, writer *core.Parser, dst io.Writer, header []string) (int64, error) {
	var readErr error
	n, err := writer.WriteStream(dst, header, func() (core.Record, bool) {
		rec, err := src.Next()
		if err != nil {
			if !errors.Is(err, io.EOF) {
				readErr = err
			}
			return core.Record{}, false
		}
		return rec, true
	})
	if err != nil {
		return n, err
	}
	return n, readErr
}

// closeOutput closes c and returns err, or the close failure when err is nil.
func closeOutput(c io.Closer, path string, err error) error {
	if cerr := c.Close(); cerr != nil && err == nil {
		return &core.IOError{Op: "close", Path: path, Err: cerr}
	}
	return err
}
