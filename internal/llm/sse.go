package llm

import (
	"bufio"
	"fmt"
	"io"
	"iter"
	"strings"
)

const (
	eventPrefix = "event:"
	dataPrefix  = "data:"

	maxLineBytes = 1 << 20
)

// Event is one server-sent event. Multi-line data is joined with newlines.
type Event struct {
	Name string
	Data string
}

// ReadEvents parses a text/event-stream body. Comments and unknown fields
// are skipped; a trailing event without a blank line is still delivered.
func ReadEvents(r io.Reader) iter.Seq2[Event, error] {
	return func(yield func(Event, error) bool) {
		scanner := bufio.NewScanner(r)
		scanner.Buffer(make([]byte, 0, 64*1024), maxLineBytes)

		var current Event
		var data []string
		flush := func() bool {
			if len(data) == 0 {
				current = Event{}
				return true
			}
			current.Data = strings.Join(data, "\n")
			ev := current
			current, data = Event{}, nil
			return yield(ev, nil)
		}

		for scanner.Scan() {
			line := scanner.Text()
			switch {
			case line == "":
				if !flush() {
					return
				}
			case strings.HasPrefix(line, eventPrefix):
				current.Name = strings.TrimSpace(strings.TrimPrefix(line, eventPrefix))
			case strings.HasPrefix(line, dataPrefix):
				data = append(data, strings.TrimPrefix(strings.TrimPrefix(line, dataPrefix), " "))
			}
		}
		if err := scanner.Err(); err != nil {
			yield(Event{}, fmt.Errorf("error reading streamed response: %w", err))
			return
		}
		flush()
	}
}
