package core

import (
	"fmt"
	"log/slog"
	"os"
	"slices"
	"strings"

	"github.com/JonMunkholm/csvparser/internal/encoding"
)

// Parser reads and writes delimited text with a fixed dialect, row
// middleware and input converter. Build one with NewParser and share it
// freely; a Parser is never mutated after construction.
type Parser struct {
	dialect    Dialect
	middleware RowMiddleware
	converter  encoding.Converter
	noHeader   bool
	headers    []string
	logger     *slog.Logger
}

// Option configures a Parser.
type Option func(*Parser)

// WithDialect replaces the whole dialect.
func WithDialect(d Dialect) Option {
	return func(p *Parser) { p.dialect = d }
}

// WithDelimiter sets the field delimiter.
func WithDelimiter(r rune) Option {
	return func(p *Parser) { p.dialect.Delimiter = r }
}

// WithEnclosure sets the enclosure character; NoEnclosure disables quoting.
func WithEnclosure(r rune) Option {
	return func(p *Parser) { p.dialect.Enclosure = r }
}

// WithLineDelimiter sets the line delimiter.
func WithLineDelimiter(s string) Option {
	return func(p *Parser) { p.dialect.LineDelimiter = s }
}

// WithMiddleware sets the row middleware applied on every read and write.
func WithMiddleware(m RowMiddleware) Option {
	return func(p *Parser) { p.middleware = m }
}

// WithConverter sets the converter ReadFile applies before tokenizing.
func WithConverter(c encoding.Converter) Option {
	return func(p *Parser) { p.converter = c }
}

// WithoutHeader treats every line as data. Rows become positional records;
// headers, when given, are handed to middleware to resolve field names.
func WithoutHeader(headers ...string) Option {
	return func(p *Parser) {
		p.noHeader = true
		p.headers = slices.Clone(headers)
	}
}

// WithLogger sets the logger; slog.Default() is used otherwise.
func WithLogger(l *slog.Logger) Option {
	return func(p *Parser) { p.logger = l }
}

// NewParser returns a Parser using DefaultDialect and the Basic converter
// unless overridden by opts.
func NewParser(opts ...Option) (*Parser, error) {
	p := &Parser{dialect: DefaultDialect()}
	for _, opt := range opts {
		opt(p)
	}
	if err := p.dialect.Validate(); err != nil {
		return nil, err
	}
	if p.logger == nil {
		p.logger = slog.Default()
	}
	if p.converter == nil {
		p.converter = encoding.Basic{Logger: p.logger}
	}
	return p, nil
}

// Dialect returns the parser's dialect.
func (p *Parser) Dialect() Dialect {
	return p.dialect
}

// FromRecords builds a table directly from records. No middleware runs.
func (p *Parser) FromRecords(records ...Record) *Table {
	return NewTable(records...)
}

// FromString tokenizes text and applies read middleware to every row.
func (p *Parser) FromString(text string) (*Table, error) {
	lines, err := tokenize(text, p.dialect)
	if err != nil {
		return nil, err
	}
	if len(lines) == 0 {
		return NewTable(), nil
	}

	header := p.headers
	data := lines
	if !p.noHeader {
		header, data = lines[0], lines[1:]
	}

	t := &Table{records: make([]Record, 0, len(data))}
	for i, fields := range data {
		rec, err := p.readRecord(header, fields, i)
		if err != nil {
			return nil, err
		}
		t.records = append(t.records, rec)
	}
	return t, nil
}

// readRecord keys fields by header and runs read middleware.
func (p *Parser) readRecord(header, fields []string, index int) (Record, error) {
	var rec Record
	if p.noHeader {
		rec = Positional(fields...)
	} else {
		rec = NewRecord(header, fields)
	}
	if p.middleware == nil {
		return rec, nil
	}
	return p.middleware.ApplyRead(rec, RowContext{Index: index, Headers: header})
}

// ToString applies write middleware to copies of the rows and serializes
// them. The table itself is not modified.
func (p *Parser) ToString(t *Table) (string, error) {
	if t == nil || t.Len() == 0 {
		return "", nil
	}
	header := t.Headers()
	ctxHeaders := header
	if ctxHeaders == nil {
		ctxHeaders = p.headers
	}

	rows := make([]Record, 0, t.Len())
	for i, rec := range t.records {
		out, err := p.writeRecord(rec.Clone(), i, ctxHeaders)
		if err != nil {
			return "", err
		}
		rows = append(rows, out)
	}
	return Serialize(rows, header, p.dialect), nil
}

func (p *Parser) writeRecord(rec Record, index int, header []string) (Record, error) {
	if p.middleware == nil {
		return rec, nil
	}
	return p.middleware.ApplyWrite(rec, RowContext{Index: index, Headers: header})
}

// ReadFile reads path, runs the converter over its bytes and parses the
// result.
func (p *Parser) ReadFile(path string) (*Table, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, &IOError{Op: "read", Path: path, Err: err}
	}
	t, err := p.FromBytes(raw)
	if err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	return t, nil
}

// FromBytes runs the converter over raw and parses the result.
func (p *Parser) FromBytes(raw []byte) (*Table, error) {
	text, err := p.converter.Convert(raw)
	if err != nil {
		return nil, err
	}
	return p.FromString(string(text))
}

// WriteFile serializes t to path and returns the number of bytes written.
// The write is not atomic: on failure path may be left partially written.
func (p *Parser) WriteFile(t *Table, path string) (int64, error) {
	text, err := p.ToString(t)
	if err != nil {
		return 0, err
	}

	f, err := os.Create(path)
	if err != nil {
		return 0, &IOError{Op: "open", Path: path, Err: err}
	}
	n, err := f.WriteString(text)
	if err != nil {
		f.Close()
		return int64(n), &IOError{Op: "write", Path: path, Err: err}
	}
	if err := f.Close(); err != nil {
		return int64(n), &IOError{Op: "close", Path: path, Err: err}
	}
	p.logger.Debug("csv written", "path", path, "rows", t.Len(), "bytes", n)
	return int64(n), nil
}

// Serialize renders rows as delimited text. A header line built from
// header is emitted when header is non-nil; every value is enclosed with
// embedded enclosures doubled. Lines are joined by the line delimiter with
// no trailing delimiter. No rows yields "".
func Serialize(rows []Record, header []string, d Dialect) string {
	if len(rows) == 0 {
		return ""
	}
	lines := make([]string, 0, len(rows)+1)
	if header != nil {
		lines = append(lines, d.formatLine(header))
	}
	for _, r := range rows {
		lines = append(lines, d.formatLine(r.ValuesFor(header)))
	}
	return strings.Join(lines, d.LineDelimiter)
}
