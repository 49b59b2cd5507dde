package main

import (
	"bytes"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/JonMunkholm/csvparser/internal/core"
)

func writeTemp(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write %s: %v", path, err)
	}
	return path
}

func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out, errOut bytes.Buffer
	cmd := newRootCommand()
	cmd.SetOut(&out)
	cmd.SetErr(&errOut)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func TestConvert(t *testing.T) {
	pipeline := writeTemp(t, "pipeline.toml", "[[middleware]]\ntype = \"trim_field\"\nfields = [\"a\"]\n")

	tests := []struct {
		name  string
		input string
		args  []string
		want  string
	}{
		{
			name:  "change delimiter",
			input: "a,b\n1,2\n",
			args:  []string{"--out-delimiter", ";"},
			want:  "\"a\";\"b\"\n\"1\";\"2\"",
		},
		{
			name:  "no enclosure with crlf output",
			input: "a,b\n1,2\n",
			args:  []string{"--out-enclosure", "", "--out-line", `\r\n`},
			want:  "a,b\r\n1,2",
		},
		{
			name:  "stream adds trailing line delimiter",
			input: "a,b\n1,2\n",
			args:  []string{"--stream"},
			want:  "\"a\",\"b\"\n\"1\",\"2\"\n",
		},
		{
			name:  "pipeline runs",
			input: "a\n  x  \n",
			args:  []string{"--pipeline", pipeline},
			want:  "\"a\"\n\"x\"",
		},
		{
			name:  "bom stripped",
			input: "\uFEFFa\n1\n",
			args:  []string{"--stream"},
			want:  "\"a\"\n\"1\"\n",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := writeTemp(t, "in.csv", tt.input)
			got, err := run(t, append([]string{"convert", path}, tt.args...)...)
			if err != nil {
				t.Fatalf("convert: %v", err)
			}
			if got != tt.want {
				t.Errorf("got %q, want %q", got, tt.want)
			}
		})
	}
}

func TestConvert_ToFile(t *testing.T) {
	in := writeTemp(t, "in.csv", "a,b\n1,2\n")
	out := filepath.Join(t.TempDir(), "out.csv")

	for _, stream := range []bool{false, true} {
		args := []string{"convert", in, "-o", out}
		if stream {
			args = append(args, "--stream")
		}
		stdout, err := run(t, args...)
		if err != nil {
			t.Fatalf("convert stream=%v: %v", stream, err)
		}
		if stdout != "" {
			t.Errorf("stream=%v: unexpected stdout %q", stream, stdout)
		}
		data, err := os.ReadFile(out)
		if err != nil {
			t.Fatalf("read output: %v", err)
		}
		if !strings.HasPrefix(string(data), "\"a\",\"b\"\n\"1\",\"2\"") {
			t.Errorf("stream=%v: got %q", stream, data)
		}
	}
}

func TestConvert_Errors(t *testing.T) {
	in := writeTemp(t, "in.csv", "a,b\n1,2\n")

	tests := []struct {
		name string
		args []string
	}{
		{"missing file", []string{"convert", filepath.Join(t.TempDir(), "nope.csv")}},
		{"bad delimiter", []string{"convert", in, "--delimiter", ";;"}},
		{"same delimiter and enclosure", []string{"convert", in, "--out-enclosure", ","}},
		{"unknown encoding mode", []string{"convert", in, "--encoding", "latin"}},
		{"missing pipeline", []string{"convert", in, "--pipeline", filepath.Join(t.TempDir(), "p.toml")}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := run(t, tt.args...); err == nil {
				t.Error("expected error")
			}
		})
	}
}

func TestNormalize(t *testing.T) {
	latin := writeTemp(t, "latin.csv", "name\ncaf\xe9\n")

	got, err := run(t, "normalize", latin)
	if err != nil {
		t.Fatalf("normalize: %v", err)
	}
	if got != "name\ncafé\n" {
		t.Errorf("got %q", got)
	}

	if _, err := run(t, "normalize", "--strict", latin); err == nil {
		t.Error("strict normalize of latin-1 input should fail")
	} else if !strings.Contains(err.Error(), "Code: ENC") {
		t.Errorf("strict error not user facing: %v", err)
	}
}

func TestInspect(t *testing.T) {
	clean := writeTemp(t, "clean.csv", "\uFEFFa,b\n1,2\n")
	latin := writeTemp(t, "latin.csv", "name\ncaf\xe9\n")

	got, err := run(t, "inspect", "--no-color", clean, latin)
	if err != nil {
		t.Fatalf("inspect: %v", err)
	}
	lines := strings.Split(strings.TrimSpace(got), "\n")
	if len(lines) != 2 {
		t.Fatalf("got %d lines: %q", len(lines), got)
	}
	if !strings.Contains(lines[0], "\tutf-8\t") || !strings.Contains(lines[0], " bom") {
		t.Errorf("clean line = %q", lines[0])
	}
	if !strings.Contains(lines[1], "\tlegacy\t") {
		t.Errorf("latin line = %q", lines[1])
	}
}

func TestInspect_JSON(t *testing.T) {
	clean := writeTemp(t, "clean.csv", "a,b\n1,2\n")

	got, err := run(t, "inspect", "--json", clean)
	if err != nil {
		t.Fatalf("inspect: %v", err)
	}
	var res struct {
		File string `json:"file"`
		Kind string `json:"kind"`
	}
	if err := json.Unmarshal([]byte(got), &res); err != nil {
		t.Fatalf("decode %q: %v", got, err)
	}
	if res.File != clean || res.Kind != "utf-8" {
		t.Errorf("got %+v", res)
	}
}

type failingCloser struct{ err error }

func (c failingCloser) Close() error { return c.err }

func TestCloseOutput(t *testing.T) {
	diskFull := errors.New("no space left on device")
	writeErr := errors.New("write failed")

	tests := []struct {
		name     string
		closeErr error
		err      error
		want     error
	}{
		{"clean close", nil, nil, nil},
		{"close failure reported", diskFull, nil, diskFull},
		{"earlier error wins", diskFull, writeErr, writeErr},
		{"earlier error kept on clean close", nil, writeErr, writeErr},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := closeOutput(failingCloser{tt.closeErr}, "out.csv", tt.err)
			if tt.want == nil {
				if got != nil {
					t.Fatalf("got %v, want nil", got)
				}
				return
			}
			if !errors.Is(got, tt.want) {
				t.Fatalf("got %v, want %v", got, tt.want)
			}
			var ioErr *core.IOError
			if tt.err == nil && (!errors.As(got, &ioErr) || ioErr.Op != "close" || ioErr.Path != "out.csv") {
				t.Errorf("close failure not wrapped as IOError: %#v", got)
			}
		})
	}
}
