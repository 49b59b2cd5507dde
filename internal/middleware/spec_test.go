package middleware

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/JonMunkholm/csvparser/internal/core"
)

const samplePipeline = `
[[middleware]]
type = "trim_field"
fields = ["name"]

[[middleware]]
type = "FormulaInjection"
injection_characters = "=+-@"

[[middleware]]
type = "datetime"

[[middleware]]
type = "text-field"
fields = ["phone"]

[[middleware]]
type = "encoding_check"
action = "fix"
fallback_encoding = "ISO-8859-1"
fix_mojibake = true
`

func TestBuildPipelineFromTOML(t *testing.T) {
	specs, err := ParseSpecs(samplePipeline)
	if err != nil {
		t.Fatalf("ParseSpecs: %v", err)
	}
	p, err := BuildPipeline(specs, nil)
	if err != nil {
		t.Fatalf("BuildPipeline: %v", err)
	}

	want := []string{NameTrimField, NameFormulaInjection, NameDatetime, NameTextField, NameEncodingCheck}
	units := p.Units()
	if len(units) != len(want) {
		t.Fatalf("got %d units, want %d", len(units), len(want))
	}
	for i, u := range units {
		if u.Name != want[i] {
			t.Errorf("unit %d = %s, want %s", i, u.Name, want[i])
		}
	}

	parser, err := core.NewParser(core.WithMiddleware(p))
	if err != nil {
		t.Fatal(err)
	}
	table, err := parser.FromString("name,phone,when,note\n  Ren\xE9 ,'0123,'2024-05-01,'=1+1\n")
	if err != nil {
		t.Fatalf("FromString: %v", err)
	}
	rec, _ := table.At(0)
	wantRec := core.Pairs("name", "René", "phone", "0123", "when", "2024-05-01", "note", "=1+1")
	if !rec.Equal(wantRec) {
		t.Errorf("got %v, want %v", rec, wantRec)
	}
}

func TestLoadSpecsFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "pipeline.toml")
	if err := os.WriteFile(path, []byte(samplePipeline), 0o600); err != nil {
		t.Fatal(err)
	}
	specs, err := LoadSpecs(path)
	if err != nil {
		t.Fatalf("LoadSpecs: %v", err)
	}
	if len(specs) != 5 || specs[4].Action != "fix" || !specs[4].FixMojibake {
		t.Errorf("unexpected specs: %+v", specs)
	}

	if _, err := LoadSpecs(filepath.Join(t.TempDir(), "missing.toml")); err == nil {
		t.Error("missing file accepted")
	}
}

func TestBuildConfigurationErrors(t *testing.T) {
	tests := []struct {
		name   string
		toml   string
		option string
	}{
		{"unknown type", "[[middleware]]\ntype = \"uppercase\"\n", "type"},
		{"unknown key", "[[middleware]]\ntype = \"datetime\"\nformat = \"x\"\n", "key"},
		{"empty escape", "[[middleware]]\ntype = \"datetime\"\nescape_char = \"\"\n", "escape_char"},
		{"bad action", "[[middleware]]\ntype = \"encoding_check\"\naction = \"ignore\"\n", "action"},
		{"bad pattern", "[[middleware]]\ntype = \"datetime\"\npattern = \"([\"\n", "pattern"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			specs, err := ParseSpecs(tt.toml)
			if err == nil {
				_, err = BuildPipeline(specs, nil)
			}
			var ce *ConfigurationError
			if !errors.As(err, &ce) {
				t.Fatalf("got %v, want *ConfigurationError", err)
			}
			if ce.Option != tt.option {
				t.Errorf("option = %q, want %q", ce.Option, tt.option)
			}
		})
	}
}
