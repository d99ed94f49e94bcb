package cli

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"sync"
)

// MaxNoteBytes bounds a consultation note read from input.
const MaxNoteBytes = 1 << 20

var (
	// ErrInputCancelled is returned when input is canceled by context.
	ErrInputCancelled = errors.New("input canceled")
	// ErrNoteTooLarge is returned when a note exceeds MaxNoteBytes.
	ErrNoteTooLarge = errors.New("note too large")
)

// NonBlockingReader reads user input while respecting context cancellation.
// A canceled read leaves its goroutine blocked until the underlying reader
// returns; the next read waits for it.
type NonBlockingReader struct {
	reader      *bufio.Reader
	readingLock sync.Mutex
}

// NewNonBlockingReader creates a new non-blocking reader.
func NewNonBlockingReader(reader io.Reader) *NonBlockingReader {
	if reader == nil {
		panic("reader cannot be nil")
	}
	return &NonBlockingReader{
		reader: bufio.NewReader(reader),
	}
}

type readResult struct {
	err   error
	value string
}

func (r *NonBlockingReader) read(ctx context.Context, fn func(*bufio.Reader) (string, error)) (string, error) {
	if ctx.Err() != nil {
		return "", ErrInputCancelled
	}

	resultCh := make(chan readResult, 1)
	go func() {
		r.readingLock.Lock()
		defer r.readingLock.Unlock()

		value, err := fn(r.reader)
		resultCh <- readResult{value: value, err: err}
	}()

	select {
	case <-ctx.Done():
		return "", ErrInputCancelled
	case res := <-resultCh:
		return res.value, res.err
	}
}

// ReadLine reads one trimmed line. A final line without a newline is
// returned without error.
func (r *NonBlockingReader) ReadLine(ctx context.Context) (string, error) {
	line, err := r.read(ctx, func(br *bufio.Reader) (string, error) {
		return br.ReadString('\n')
	})
	if err != nil && !(errors.Is(err, io.EOF) && line != "") {
		return "", err
	}
	return strings.TrimSpace(line), nil
}

// ReadNote reads everything until EOF as one note.
func (r *NonBlockingReader) ReadNote(ctx context.Context) (string, error) {
	return r.read(ctx, func(br *bufio.Reader) (string, error) {
		data, err := io.ReadAll(io.LimitReader(br, MaxNoteBytes+1))
		if err != nil {
			return "", err
		}
		if len(data) > MaxNoteBytes {
			return "", fmt.Errorf("%w: limit is %d bytes", ErrNoteTooLarge, MaxNoteBytes)
		}
		return string(data), nil
	})
}

// Confirm writes question and reads a yes/no answer. Empty input counts as
// no.
func (r *NonBlockingReader) Confirm(ctx context.Context, w io.Writer, question string) (bool, error) {
	if _, err := fmt.Fprint(w, FormatPrompt(question+" [s/N]")); err != nil {
		return false, err
	}
	answer, err := r.ReadLine(ctx)
	if err != nil {
		if errors.Is(err, io.EOF) {
			return false, nil
		}
		return false, err
	}
	switch strings.ToLower(answer) {
	case "s", "sim", "y", "yes":
		return true, nil
	default:
		return false, nil
	}
}
