package openai

import (
	"bufio"
	"io"
	"sync"
)

const maxLineSize = 256 * 1024

// LineSource reads an SSE body line by line.
type LineSource struct {
	body    io.ReadCloser
	scanner *bufio.Scanner
	once    sync.Once
}

// NewLineSource wraps body. Lines up to 256KB are accepted.
func NewLineSource(body io.ReadCloser) *LineSource {
	scanner := bufio.NewScanner(body)
	scanner.Buffer(make([]byte, 0, 64*1024), maxLineSize)

	return &LineSource{body: body, scanner: scanner}
}

// Next returns the next line without its terminator, or io.EOF at the end.
func (s *LineSource) Next() (string, error) {
	if s.scanner.Scan() {
		return s.scanner.Text(), nil
	}
	if err := s.scanner.Err(); err != nil {
		return "", err
	}
	return "", io.EOF
}

// Close abandons the body. It is safe to call more than once.
func (s *LineSource) Close() error {
	var err error
	s.once.Do(func() {
		err = s.body.Close()
	})
	return err
}
