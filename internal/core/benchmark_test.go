package core

import (
	"bytes"
	"encoding/csv"
	"io"
	"strings"
	"testing"
)

// ============================================================================
// Tokenizer Benchmarks
// ============================================================================

// BenchmarkFromString benchmarks whole-document parsing.
func BenchmarkFromString(b *testing.B) {
	p := mustBenchParser(b)
	text := string(generateTestCSV(100))

	b.ResetTimer()
	b.ReportAllocs()
	for i := 0; i < b.N; i++ {
		p.FromString(text)
	}
}

// BenchmarkFromString_Large benchmarks parsing a larger document.
func BenchmarkFromString_Large(b *testing.B) {
	p := mustBenchParser(b)
	text := string(generateTestCSV(1000))

	b.ResetTimer()
	b.ReportAllocs()
	for i := 0; i < b.N; i++ {
		p.FromString(text)
	}
}

// BenchmarkFromString_Quoted benchmarks fields with embedded delimiters,
// doubled enclosures and line breaks.
func BenchmarkFromString_Quoted(b *testing.B) {
	p := mustBenchParser(b)
	var sb strings.Builder
	sb.WriteString("id,comment\n")
	for i := 0; i < 500; i++ {
		sb.WriteString("1,\"said \"\"hi\"\", then\nleft, quietly\"\n")
	}
	text := sb.String()

	b.ResetTimer()
	b.ReportAllocs()
	for i := 0; i < b.N; i++ {
		p.FromString(text)
	}
}

// BenchmarkParsing_Comparison compares whole-document and streaming reads.
func BenchmarkParsing_Comparison(b *testing.B) {
	p := mustBenchParser(b)
	data := generateTestCSV(500)

	b.Run("FromBytes", func(b *testing.B) {
		b.ReportAllocs()
		for i := 0; i < b.N; i++ {
			p.FromBytes(data)
		}
	})

	b.Run("Stream", func(b *testing.B) {
		b.ReportAllocs()
		for i := 0; i < b.N; i++ {
			s := p.Stream(bytes.NewReader(data))
			for _, err := range s.All() {
				if err != nil {
					b.Fatal(err)
				}
			}
		}
	})

	b.Run("EncodingCSV", func(b *testing.B) {
		b.ReportAllocs()
		for i := 0; i < b.N; i++ {
			r := csv.NewReader(bytes.NewReader(data))
			r.FieldsPerRecord = -1
			for {
				if _, err := r.Read(); err == io.EOF {
					break
				}
			}
		}
	})
}

// ============================================================================
// Serializer Benchmarks
// ============================================================================

// BenchmarkToString benchmarks serialization with write middleware.
func BenchmarkToString(b *testing.B) {
	p, err := NewParser(WithMiddleware(upperWriter{}))
	if err != nil {
		b.Fatal(err)
	}
	t, err := p.FromString(string(generateTestCSV(500)))
	if err != nil {
		b.Fatal(err)
	}

	b.ResetTimer()
	b.ReportAllocs()
	for i := 0; i < b.N; i++ {
		p.ToString(t)
	}
}

// BenchmarkWriteStream benchmarks the streaming writer.
func BenchmarkWriteStream(b *testing.B) {
	p := mustBenchParser(b)
	t, err := p.FromString(string(generateTestCSV(500)))
	if err != nil {
		b.Fatal(err)
	}
	header := t.Headers()
	records := t.Records()

	b.ResetTimer()
	b.ReportAllocs()
	for i := 0; i < b.N; i++ {
		n := 0
		p.WriteStream(io.Discard, header, func() (Record, bool) {
			if n == len(records) {
				return Record{}, false
			}
			n++
			return records[n-1], true
		})
	}
}

// ============================================================================
// Record Benchmarks
// ============================================================================

// BenchmarkRecordGet benchmarks field lookup by name.
func BenchmarkRecordGet(b *testing.B) {
	rec := Pairs("ID", "1001", "Name", "John Doe", "Email", "john@example.com",
		"Date", "2024-01-15", "Amount", "$1,234.56", "Status", "active")

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		rec.Get("Status")
	}
}

// ============================================================================
// Helper Functions
// ============================================================================

func mustBenchParser(b *testing.B) *Parser {
	b.Helper()
	p, err := NewParser()
	if err != nil {
		b.Fatal(err)
	}
	return p
}

// generateTestCSV generates CSV data with the specified number of rows.
func generateTestCSV(rows int) []byte {
	var buf bytes.Buffer
	w := csv.NewWriter(&buf)

	w.Write([]string{"ID", "Name", "Email", "Date", "Amount", "Status"})
	for i := 0; i < rows; i++ {
		w.Write([]string{
			"1001",
			"John Doe",
			"john@example.com",
			"2024-01-15",
			"$1,234.56",
			"active",
		})
	}
	w.Flush()

	return buf.Bytes()
}
