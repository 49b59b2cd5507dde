package core

// stream.go reads and writes delimited text one record at a time.
//
// StreamReader pulls records lazily from an io.Reader: the header is read
// once, a UTF-8 BOM is dropped from the start of the input and read
// middleware runs inline as each record is produced. WriteStream and
// WriteStreamSeq push records to an io.Writer with a line delimiter after
// every line.

import (
	"bufio"
	"errors"
	"io"
	"iter"
	"os"

	"github.com/JonMunkholm/csvparser/internal/encoding"
)

// StreamReader is a forward-only, single-pass record source. It is not safe
// for concurrent use.
type StreamReader struct {
	parser  *Parser
	tok     *tokenizer
	counter *encoding.CountingReader
	closer  io.Closer

	header     []string
	headerRead bool
	index      int
	err        error
}

// Stream returns a StreamReader over r. Unless the parser's converter is
// encoding.Passthrough, invalid UTF-8 is dropped as it streams through.
// The caller owns r.
func (p *Parser) Stream(r io.Reader) *StreamReader {
	counter := encoding.NewCountingReader(r, 0)
	var src io.Reader = encoding.NewBOMSkippingReader(counter)
	if _, raw := p.converter.(encoding.Passthrough); !raw {
		src = encoding.NewSanitizingReader(src)
	}
	return &StreamReader{
		parser:  p,
		tok:     newTokenizer(src, p.dialect),
		counter: counter,
	}
}

// StreamFile opens path and returns a StreamReader over it. Close releases
// the file; call it even when abandoning the stream early.
func (p *Parser) StreamFile(path string) (*StreamReader, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, &IOError{Op: "open", Path: path, Err: err}
	}
	s := p.Stream(f)
	s.closer = f
	if info, err := f.Stat(); err == nil {
		s.counter.Total = info.Size()
	}
	return s, nil
}

// Header returns the header fields, reading the first line if needed. In
// no-header mode it returns the parser's configured headers.
func (s *StreamReader) Header() ([]string, error) {
	if s.headerRead {
		return s.header, s.err
	}
	s.headerRead = true
	if s.parser.noHeader {
		s.header = s.parser.headers
		return s.header, nil
	}
	fields, err := s.tok.next()
	if err != nil {
		if err != io.EOF {
			s.err = err
		}
		return nil, s.err
	}
	s.header = fields
	return s.header, nil
}

// Next returns the next record, or io.EOF once the input is exhausted.
func (s *StreamReader) Next() (Record, error) {
	if _, err := s.Header(); err != nil {
		return Record{}, err
	}
	if s.err != nil {
		return Record{}, s.err
	}
	if s.header == nil && !s.parser.noHeader {
		return Record{}, io.EOF
	}

	fields, err := s.tok.next()
	if err != nil {
		s.err = err
		return Record{}, err
	}
	rec, err := s.parser.readRecord(s.header, fields, s.index)
	if err != nil {
		s.err = err
		return Record{}, err
	}
	s.index++
	return rec, nil
}

// All iterates the remaining records. Iteration stops after the first
// error, which is yielded once; io.EOF is not yielded.
func (s *StreamReader) All() iter.Seq2[Record, error] {
	return func(yield func(Record, error) bool) {
		for {
			rec, err := s.Next()
			if errors.Is(err, io.EOF) {
				return
			}
			if !yield(rec, err) || err != nil {
				return
			}
		}
	}
}

// BytesRead returns the number of source bytes consumed so far. Input is
// read ahead in buffered chunks, so this leads the records returned.
func (s *StreamReader) BytesRead() int64 {
	return s.counter.BytesRead
}

// Progress returns the read progress as a percentage for file streams, 0
// otherwise.
func (s *StreamReader) Progress() int {
	return s.counter.Progress()
}

// Close releases the underlying file when the stream was opened by path.
func (s *StreamReader) Close() error {
	if s.closer == nil {
		return nil
	}
	c := s.closer
	s.closer = nil
	return c.Close()
}

// WriteStream writes an enclosed header line, then one line per record
// pulled from next until it reports false or returns an empty record. Write
// middleware runs on each record; values are laid out in header order.
// It returns the number of bytes written.
func (p *Parser) WriteStream(w io.Writer, header []string, next func() (Record, bool)) (int64, error) {
	return p.WriteStreamSeq(w, header, func(yield func(Record) bool) {
		for {
			rec, ok := next()
			if !ok || rec.Len() == 0 {
				return
			}
			if !yield(rec) {
				return
			}
		}
	})
}

// WriteStreamSeq is WriteStream for an iterator. An empty record also ends
// the stream.
func (p *Parser) WriteStreamSeq(w io.Writer, header []string, records iter.Seq[Record]) (int64, error) {
	if err := checkSink(w); err != nil {
		return 0, err
	}

	cw := &countingWriter{w: w}
	bw := bufio.NewWriter(cw)
	line := func(fields []string) error {
		if _, err := bw.WriteString(p.dialect.formatLine(fields)); err != nil {
			return err
		}
		_, err := bw.WriteString(p.dialect.LineDelimiter)
		return err
	}

	if err := line(header); err != nil {
		return cw.n, err
	}

	index := 0
	var werr error
	for rec := range records {
		if rec.Len() == 0 {
			break
		}
		out, err := p.writeRecord(rec.Clone(), index, header)
		if err != nil {
			werr = err
			break
		}
		values := out.ValuesFor(header)
		if out.IsPositional() && len(header) > 0 {
			values = fitTo(values, len(header))
		}
		if err := line(values); err != nil {
			werr = err
			break
		}
		index++
	}

	if err := bw.Flush(); err != nil && werr == nil {
		werr = err
	}
	return cw.n, werr
}

// checkSink rejects writers that cannot take bytes.
func checkSink(w io.Writer) error {
	if w == nil {
		return ErrInvalidResource
	}
	if f, ok := w.(*os.File); ok {
		if f == nil {
			return ErrInvalidResource
		}
		if _, err := f.Stat(); err != nil {
			return ErrInvalidResource
		}
	}
	return nil
}

// fitTo pads values with "" or truncates them to exactly n fields.
func fitTo(values []string, n int) []string {
	if len(values) > n {
		return values[:n]
	}
	for len(values) < n {
		values = append(values, "")
	}
	return values
}

type countingWriter struct {
	w io.Writer
	n int64
}

func (c *countingWriter) Write(p []byte) (int, error) {
	n, err := c.w.Write(p)
	c.n += int64(n)
	return n, err
}
