// Package core provides the delimited-text engine: records, tables, the
// tokenizer and serializer, and the streaming adapters.
//
// The package is independent of any transport. Web handlers, CLI tools and
// tests drive it through a [Parser].
//
// # Records
//
// A [Record] is either associative (ordered keys, as produced when input has
// a header row) or positional (values only). Every value is a string; no
// type coercion happens anywhere in the engine.
//
// # Parsing
//
// A [Parser] is configured once with functional options and is safe to
// reuse:
//
//	p, err := core.NewParser(
//	    core.WithDelimiter(';'),
//	    core.WithMiddleware(pipeline),
//	)
//	table, err := p.ReadFile("export.csv")
//
// Raw bytes pass through an encoding.Converter before tokenizing. The
// default converter normalizes any supported encoding to UTF-8.
//
// # Dialect
//
// A [Dialect] names the field delimiter, the enclosure and the line
// delimiter. The line delimiter may be several characters long; the field
// delimiter and the enclosure may not. [NoEnclosure] disables quoting.
//
// # Middleware
//
// Read middleware runs on every parsed row, in pipeline order; write
// middleware runs on a copy of every row before serialization. The
// interface is [RowMiddleware]; the middleware package supplies the units.
//
// # Streaming
//
// [Parser.Stream] yields records one at a time without holding the input
// in memory, and [Parser.WriteStream] writes them back out. Invalid UTF-8
// is dropped while streaming since whole-input detection is not possible.
//
// # Error Handling
//
// Technical errors are mapped to user-friendly messages using [MapError].
// Each category has a code for support reference:
//
//   - ENC001-ENC004: Encoding errors
//   - CFG001-CFG002: Configuration errors (middleware options, dialect)
//   - IO001-IO004: File and stream errors
//   - REQ001-REQ004: Request errors (busy, cancelled, timeout, rate limit)
package core
