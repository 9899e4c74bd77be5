// Package sse splits a vendor HTTP body into server-sent event frames.
//
// The reader knows nothing about vendors and never parses JSON. It only
// finds logical lines, strips the field prefix, and pairs event names with
// their data when the dialect needs both.
package sse

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"iter"
	"strings"

	"github.com/shinshin86/aituber-onair-sub001/pkg/debug"
)

// Mode selects how lines are grouped into frames.
type Mode int

const (
	// ModeData emits one frame per data: line.
	ModeData Mode = iota

	// ModeEventData emits one frame per event block: the event: line and
	// its data: lines, joined with "\n", once the blank line (or the next
	// event: line, or the end of the body) closes the block. Blocks with
	// no event name are dropped.
	ModeEventData
)

func (m Mode) String() string {
	switch m {
	case ModeData:
		return "data"
	case ModeEventData:
		return "event-data"
	default:
		return fmt.Sprintf("Mode(%d)", int(m))
	}
}

// DefaultMaxLineSize bounds one logical line.
const DefaultMaxLineSize = 4 << 20

// DoneSentinel is the data payload that terminates a stream.
const DoneSentinel = "[DONE]"

// ErrLineTooLong is returned when a single line exceeds the configured limit.
var ErrLineTooLong = errors.New("sse: line too long")

// Frame is one decoded event payload. Event is empty in ModeData.
type Frame struct {
	Event string
	Data  string
}

// String renders the frame as its payload. In ModeEventData the event name
// and the data are joined by a blank line.
func (f Frame) String() string {
	if f.Event == "" {
		return f.Data
	}
	return f.Event + "\n\n" + f.Data
}

// Option configures a Reader.
type Option func(*Reader)

// WithMaxLineSize overrides DefaultMaxLineSize.
func WithMaxLineSize(n int) Option {
	return func(r *Reader) {
		if n > 0 {
			r.maxLine = n
		}
	}
}

// Reader yields frames from a byte stream. Partial lines are held as raw
// bytes until their terminator arrives, so multi-byte characters and JSON
// split across reads are reassembled intact. A Reader is not safe for
// concurrent use.
type Reader struct {
	mode    Mode
	maxLine int
	scanner *bufio.Scanner

	event string
	data  []string
	done  bool
	err   error
}

// NewReader returns a Reader over r.
func NewReader(r io.Reader, mode Mode, opts ...Option) *Reader {
	rd := &Reader{
		mode:    mode,
		maxLine: DefaultMaxLineSize,
	}
	for _, opt := range opts {
		opt(rd)
	}

	initial := 64 * 1024
	if initial > rd.maxLine {
		initial = rd.maxLine
	}
	rd.scanner = bufio.NewScanner(r)
	rd.scanner.Buffer(make([]byte, 0, initial), rd.maxLine)
	// ScanLines strips "\n" or "\r\n" and still returns a final line that
	// has no terminator.
	rd.scanner.Split(bufio.ScanLines)
	return rd
}

// Next returns the next frame. It returns io.EOF once the stream ends or
// the [DONE] sentinel is read, and keeps returning the same error after.
func (r *Reader) Next() (Frame, error) {
	if r.done {
		return Frame{}, io.EOF
	}
	if r.err != nil {
		return Frame{}, r.err
	}

	for r.scanner.Scan() {
		line := r.scanner.Text()

		if line == "" {
			// Blank line ends an SSE event block.
			if f, ok := r.flush(); ok {
				return f, nil
			}
			continue
		}

		field, value, ok := splitField(line)
		if !ok {
			continue
		}

		switch field {
		case "event":
			f, pending := r.flush()
			r.event = value
			if pending {
				return f, nil
			}
		case "data":
			if value == DoneSentinel {
				r.done = true
				return Frame{}, io.EOF
			}
			if r.mode == ModeData {
				return Frame{Data: value}, nil
			}
			r.data = append(r.data, value)
		default:
			// id:, retry: and unknown fields carry nothing for us.
		}
	}

	if err := r.scanner.Err(); err != nil {
		if errors.Is(err, bufio.ErrTooLong) {
			r.err = fmt.Errorf("%w (limit %d bytes)", ErrLineTooLong, r.maxLine)
		} else {
			r.err = err
		}
		return Frame{}, r.err
	}

	r.done = true
	if f, ok := r.flush(); ok {
		return f, nil
	}
	return Frame{}, io.EOF
}

// flush closes the current event block and reports whether it produced a
// frame.
func (r *Reader) flush() (Frame, bool) {
	event, data := r.event, r.data
	r.event, r.data = "", nil
	if len(data) == 0 {
		return Frame{}, false
	}
	if event == "" {
		debug.Log("streaming", "dropping data without event", "data", debug.Truncate(data[0], 200))
		return Frame{}, false
	}
	return Frame{Event: event, Data: strings.Join(data, "\n")}, true
}

// All returns an iterator over the remaining frames. Iteration ends at
// io.EOF; any other error is yielded once as the final pair.
func (r *Reader) All() iter.Seq2[Frame, error] {
	return func(yield func(Frame, error) bool) {
		for {
			f, err := r.Next()
			if errors.Is(err, io.EOF) {
				return
			}
			if err != nil {
				yield(Frame{}, err)
				return
			}
			if !yield(f, nil) {
				return
			}
		}
	}
}

// splitField parses "field: value". Comment lines (leading ':') and lines
// without a colon report ok=false. One space after the colon is removed.
func splitField(line string) (field, value string, ok bool) {
	if strings.HasPrefix(line, ":") {
		return "", "", false
	}
	field, value, ok = strings.Cut(line, ":")
	if !ok {
		return "", "", false
	}
	value = strings.TrimPrefix(value, " ")
	return field, value, true
}
