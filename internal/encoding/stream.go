package encoding

// stream.go provides io.Reader wrappers used when input is too large to
// normalize in one piece:
//
//   - BOMSkippingReader removes a leading UTF-8 BOM
//   - SanitizingReader drops invalid UTF-8 sequences on the fly
//   - CountingReader tracks bytes read for progress reporting

import (
	"io"
	"unicode/utf8"
)

// SanitizingReader wraps an io.Reader and drops invalid UTF-8 sequences as
// they pass through, using O(buffer) memory.
type SanitizingReader struct {
	reader io.Reader

	// Leftover bytes from previous read that may form a multi-byte sequence
	pending []byte

	dropped int64
}

// NewSanitizingReader creates a new streaming UTF-8 sanitizer.
func NewSanitizingReader(r io.Reader) *SanitizingReader {
	return &SanitizingReader{
		reader:  r,
		pending: make([]byte, 0, utf8.UTFMax),
	}
}

// Dropped returns the number of bytes removed so far.
func (s *SanitizingReader) Dropped() int64 {
	return s.dropped
}

// Read implements io.Reader.
func (s *SanitizingReader) Read(p []byte) (int, error) {
	if len(p) == 0 {
		return 0, nil
	}

	// Small buffers go through a scratch buffer that always has room for
	// the pending bytes plus one whole sequence.
	if len(p) < utf8.UTFMax || len(p) <= len(s.pending) {
		tmp := make([]byte, len(s.pending)+utf8.UTFMax)
		n, err := s.Read(tmp)
		copied := copy(p, tmp[:n])
		s.pending = append(tmp[copied:n:n], s.pending...)
		if copied < n {
			err = nil
		}
		return copied, err
	}

	for {
		offset := 0
		if len(s.pending) > 0 {
			offset = copy(p, s.pending)
			s.pending = s.pending[:0]
		}

		n, err := s.reader.Read(p[offset:])
		n += offset
		if n == 0 {
			return 0, err
		}

		if isASCIIBytes(p[:n]) {
			return n, err
		}

		kept := s.sanitize(p[:n], err == io.EOF)
		// A chunk made only of invalid or pending bytes yields nothing;
		// keep reading rather than returning (0, nil).
		if kept > 0 || err != nil {
			return kept, err
		}
	}
}

func isASCIIBytes(data []byte) bool {
	for _, b := range data {
		if b >= utf8.RuneSelf {
			return false
		}
	}
	return true
}

// sanitize compacts data in place, dropping invalid sequences. Unless
// atEOF, an incomplete sequence at the end is kept back in pending.
func (s *SanitizingReader) sanitize(data []byte, atEOF bool) int {
	write := 0
	for read := 0; read < len(data); {
		r, size := utf8.DecodeRune(data[read:])

		if !atEOF && r == utf8.RuneError && size == 1 && !utf8.FullRune(data[read:]) {
			s.pending = append(s.pending, data[read:]...)
			return write
		}

		if r == utf8.RuneError && size == 1 {
			s.dropped++
			read++
			continue
		}
		copy(data[write:], data[read:read+size])
		write += size
		read += size
	}
	return write
}

// BOMSkippingReader wraps an io.Reader and skips the UTF-8 BOM if present.
type BOMSkippingReader struct {
	reader     io.Reader
	bomChecked bool
	buf        [3]byte
	bufData    []byte
}

// NewBOMSkippingReader creates a new BOM-skipping reader.
func NewBOMSkippingReader(r io.Reader) *BOMSkippingReader {
	return &BOMSkippingReader{reader: r}
}

// Read implements io.Reader. On the first read, it checks for and skips the BOM.
func (r *BOMSkippingReader) Read(p []byte) (int, error) {
	if !r.bomChecked {
		r.bomChecked = true

		n, err := io.ReadFull(r.reader, r.buf[:])
		if err == io.ErrUnexpectedEOF {
			err = io.EOF
		}
		if n == 3 && r.buf[0] == 0xEF && r.buf[1] == 0xBB && r.buf[2] == 0xBF {
			r.bufData = nil
		} else {
			r.bufData = r.buf[:n]
		}
		if err != nil && (err != io.EOF || len(r.bufData) == 0) {
			return 0, err
		}
		if err == io.EOF {
			copied := copy(p, r.bufData)
			r.bufData = r.bufData[copied:]
			if len(r.bufData) == 0 {
				return copied, io.EOF
			}
			return copied, nil
		}
	}

	if len(r.bufData) > 0 {
		copied := copy(p, r.bufData)
		r.bufData = r.bufData[copied:]
		return copied, nil
	}

	return r.reader.Read(p)
}

// CountingReader wraps an io.Reader to track bytes read.
type CountingReader struct {
	reader    io.Reader
	BytesRead int64
	Total     int64 // 0 if unknown
}

// NewCountingReader creates a counting reader with optional total size.
func NewCountingReader(r io.Reader, total int64) *CountingReader {
	return &CountingReader{reader: r, Total: total}
}

// Read implements io.Reader.
func (r *CountingReader) Read(p []byte) (int, error) {
	n, err := r.reader.Read(p)
	r.BytesRead += int64(n)
	return n, err
}

// Progress returns the read progress as a percentage (0-100).
// Returns 0 if total is unknown.
func (r *CountingReader) Progress() int {
	if r.Total <= 0 {
		return 0
	}
	return int(r.BytesRead * 100 / r.Total)
}
