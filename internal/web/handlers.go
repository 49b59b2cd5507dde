package web

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"slices"
	"strconv"
	"strings"

	"github.com/JonMunkholm/csvparser/internal/config"
	"github.com/JonMunkholm/csvparser/internal/core"
	"github.com/JonMunkholm/csvparser/internal/encoding"
	"github.com/JonMunkholm/csvparser/internal/logging"
)

const csvContentType = "text/csv; charset=utf-8"

// errColumnsRequired rejects headerless streams with no column names.
var errColumnsRequired = fmt.Errorf("%w: columns are required when header=false", errBadRequest)

// InspectResponse is returned by POST /api/inspect.
type InspectResponse struct {
	encoding.Classification
	Bytes int `json:"bytes"`
}

// handleHealth reports liveness and conversion slot usage.
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, r, map[string]any{
		"status":      "ok",
		"conversions": s.limiter.Status(),
	})
}

// handleInspect classifies the body's encoding without changing it.
func (s *Server) handleInspect(w http.ResponseWriter, r *http.Request) {
	raw, err := s.readBody(w, r)
	if err != nil {
		respondErr(w, r, err)
		return
	}
	writeJSON(w, r, InspectResponse{Classification: encoding.Classify(raw), Bytes: len(raw)})
}

// handleNormalize returns the body as UTF-8. With strict=true, input that
// is not clean UTF-8 is rejected instead of converted.
func (s *Server) handleNormalize(w http.ResponseWriter, r *http.Request) {
	raw, err := s.readBody(w, r)
	if err != nil {
		respondErr(w, r, err)
		return
	}

	if r.URL.Query().Get("strict") == "true" {
		out, err := encoding.Validate(raw)
		if err != nil {
			respondErr(w, r, err)
			return
		}
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		w.Write(out)
		return
	}

	out, rep := encoding.NormalizeReport(raw)
	h := w.Header()
	h.Set("Content-Type", "text/plain; charset=utf-8")
	h.Set("X-Source-Encoding", string(rep.Classification.Encoding))
	h.Set("X-Dropped-Bytes", strconv.Itoa(rep.DroppedBytes))
	if rep.Repaired {
		h.Set("X-Repaired-With", string(rep.RepairedWith))
	}
	w.Write(out)
}

// handleParse returns the body's records as a JSON array.
func (s *Server) handleParse(w http.ResponseWriter, r *http.Request) {
	p, err := s.parserFor(r)
	if err != nil {
		respondErr(w, r, err)
		return
	}
	raw, err := s.readBody(w, r)
	if err != nil {
		respondErr(w, r, err)
		return
	}

	t, err := p.FromBytes(raw)
	if err != nil {
		respondErr(w, r, err)
		return
	}

	records := t.Records()
	if records == nil {
		records = []core.Record{}
	}
	logging.WithFields(r.Context(), "endpoint", "parse").Debug("parsed", "rows", len(records), "bytes", len(raw))
	w.Header().Set("X-Row-Count", strconv.Itoa(len(records)))
	writeJSON(w, r, records)
}

// handleSerialize renders a JSON array of records as delimited text.
func (s *Server) handleSerialize(w http.ResponseWriter, r *http.Request) {
	p, err := s.parserFor(r)
	if err != nil {
		respondErr(w, r, err)
		return
	}

	var records []core.Record
	body := http.MaxBytesReader(w, r.Body, s.cfg.Upload.MaxFileSize)
	if err := json.NewDecoder(body).Decode(&records); err != nil {
		respondErr(w, r, fmt.Errorf("%w: %w", errBadRequest, err))
		return
	}

	text, err := p.ToString(p.FromRecords(records...))
	if err != nil {
		respondErr(w, r, err)
		return
	}
	w.Header().Set("Content-Type", csvContentType)
	io.WriteString(w, text)
}

// handleSanitize streams the body through the read pipeline and straight
// back out through the write pipeline. Nothing is buffered beyond the
// tokenizer's window, so input size is bounded only by UPLOAD_MAX_FILE_SIZE.
// Failures after the first byte is sent are reported in the X-Stream-Error
// trailer.
func (s *Server) handleSanitize(w http.ResponseWriter, r *http.Request) {
	p, err := s.parserFor(r)
	if err != nil {
		respondErr(w, r, err)
		return
	}

	stream := p.Stream(http.MaxBytesReader(w, r.Body, s.cfg.Upload.MaxFileSize))
	header, err := stream.Header()
	if err != nil {
		respondErr(w, r, err)
		return
	}
	if len(header) == 0 {
		if r.URL.Query().Get("header") == "false" {
			respondErr(w, r, errColumnsRequired)
			return
		}
		w.Header().Set("Content-Type", csvContentType)
		w.WriteHeader(http.StatusOK)
		return
	}

	w.Header().Set("Content-Type", csvContentType)
	w.Header().Set("Trailer", "X-Stream-Error")

	var readErr error
	rows := 0
	written, writeErr := p.WriteStreamSeq(w, header, func(yield func(core.Record) bool) {
		for rec, err := range stream.All() {
			if err != nil {
				readErr = err
				return
			}
			rows++
			if !yield(rec) {
				return
			}
		}
	})

	logger := logging.WithFields(r.Context(), "endpoint", "sanitize")
	if err := errors.Join(readErr, writeErr); err != nil {
		w.Header().Set("X-Stream-Error", core.MapError(err).Code)
		logger.Error("stream aborted",
			"error", err,
			"rows", rows,
			"bytes_in", stream.BytesRead(),
			"bytes_out", written,
		)
		return
	}
	logger.Info("stream sanitized",
		"rows", rows,
		"bytes_in", stream.BytesRead(),
		"bytes_out", written,
	)
}

// readBody reads the whole request body up to the configured limit.
func (s *Server) readBody(w http.ResponseWriter, r *http.Request) ([]byte, error) {
	return io.ReadAll(http.MaxBytesReader(w, r.Body, s.cfg.Upload.MaxFileSize))
}

// parserFor builds a parser from the server defaults plus per-request
// overrides:
//
//	delimiter=;        field delimiter
//	enclosure='        enclosure; present but empty disables quoting
//	line=\r\n          line delimiter, escapes allowed
//	encoding=strict    converter mode: basic, strict or none
//	header=false       input has no header row
//	columns=a,b        column names for headerless input
func (s *Server) parserFor(r *http.Request) (*core.Parser, error) {
	q := r.URL.Query()
	opts := slices.Clone(s.opts)

	if v := q.Get("delimiter"); v != "" {
		d, err := core.ParseRune(v)
		if err != nil {
			return nil, err
		}
		opts = append(opts, core.WithDelimiter(d))
	}
	if q.Has("enclosure") {
		e, err := core.ParseRune(q.Get("enclosure"))
		if err != nil {
			return nil, err
		}
		opts = append(opts, core.WithEnclosure(e))
	}
	if v := q.Get("line"); v != "" {
		opts = append(opts, core.WithLineDelimiter(config.UnescapeLine(v)))
	}
	if v := q.Get("encoding"); v != "" {
		c, err := encoding.ConverterFor(v, logging.FromContext(r.Context()))
		if err != nil {
			return nil, fmt.Errorf("%w: %w", errBadRequest, err)
		}
		opts = append(opts, core.WithConverter(c))
	}
	if q.Get("header") == "false" {
		var cols []string
		if v := q.Get("columns"); v != "" {
			cols = strings.Split(v, ",")
		}
		opts = append(opts, core.WithoutHeader(cols...))
	}
	opts = append(opts, core.WithLogger(logging.FromContext(r.Context())))

	return core.NewParser(opts...)
}
