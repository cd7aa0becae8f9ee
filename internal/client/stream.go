package client

import (
	"bufio"
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/Domenick1991/wingquest/internal/domain"
)

// sseFrame is one raw Server-Sent Event.
type sseFrame struct {
	event string
	data  string
}

// sseScanner splits a text/event-stream body into frames. Frames end at a
// blank line; comment lines and the id/retry fields are skipped.
type sseScanner struct {
	reader *bufio.Reader
	done   bool
}

func newSSEScanner(r io.Reader) *sseScanner {
	return &sseScanner{reader: bufio.NewReaderSize(r, 64*1024)}
}

func (s *sseScanner) next() (sseFrame, error) {
	if s.done {
		return sseFrame{}, io.EOF
	}

	var (
		event   string
		data    []string
		hasData bool
	)
	for {
		line, err := s.reader.ReadString('\n')
		if err != nil {
			if err != io.EOF {
				return sseFrame{}, err
			}
			s.done = true
			line = strings.TrimRight(line, "\r\n")
			if line != "" {
				if field, value := splitField(line); field == "data" {
					data = append(data, value)
					hasData = true
				}
			}
			if hasData {
				return sseFrame{event: event, data: strings.Join(data, "\n")}, nil
			}
			return sseFrame{}, io.EOF
		}

		line = strings.TrimRight(line, "\r\n")
		if line == "" {
			if hasData {
				return sseFrame{event: event, data: strings.Join(data, "\n")}, nil
			}
			event = ""
			continue
		}
		if strings.HasPrefix(line, ":") {
			continue
		}

		field, value := splitField(line)
		switch field {
		case "data":
			data = append(data, value)
			hasData = true
		case "event":
			event = value
		}
	}
}

func splitField(line string) (string, string) {
	field, value, ok := strings.Cut(line, ":")
	if !ok {
		return line, ""
	}
	return field, strings.TrimPrefix(value, " ")
}

// StreamReader decodes the assistant event stream into domain.ChatEvent
// values, one per Next call.
type StreamReader struct {
	scanner *sseScanner
	body    io.ReadCloser
}

func NewStreamReader(body io.ReadCloser) *StreamReader {
	return &StreamReader{scanner: newSSEScanner(body), body: body}
}

// Next blocks until the next event is decoded. It returns io.EOF after the
// final frame or when the server closes the stream. Frames with unknown
// event names are skipped.
func (r *StreamReader) Next() (domain.ChatEvent, error) {
	for {
		frame, err := r.scanner.next()
		if err != nil {
			return domain.ChatEvent{}, err
		}
		if frame.data == "[DONE]" {
			r.scanner.done = true
			return domain.ChatEvent{}, io.EOF
		}
		event, ok, err := decodeFrame(frame)
		if err != nil {
			return domain.ChatEvent{}, err
		}
		if ok {
			return event, nil
		}
	}
}

func (r *StreamReader) Close() error {
	return r.body.Close()
}

func decodeFrame(frame sseFrame) (domain.ChatEvent, bool, error) {
	switch frame.event {
	case "", "message", "delta":
		var payload struct {
			Delta string `json:"delta"`
		}
		if err := json.Unmarshal([]byte(frame.data), &payload); err != nil {
			return domain.ChatEvent{}, false, fmt.Errorf("decode delta frame: %w", err)
		}
		return domain.ChatEvent{Kind: domain.ChatEventDelta, Delta: payload.Delta}, true, nil

	case "tool_plan", "tool_result":
		var payload struct {
			Tool string `json:"tool"`
		}
		data := json.RawMessage(frame.data)
		if json.Valid(data) {
			_ = json.Unmarshal(data, &payload)
		} else {
			// Plain-text tool output is carried as a JSON string.
			quoted, err := json.Marshal(frame.data)
			if err != nil {
				return domain.ChatEvent{}, false, fmt.Errorf("encode tool frame: %w", err)
			}
			data = quoted
		}
		phase := strings.TrimPrefix(frame.event, "tool_")
		return domain.ChatEvent{
			Kind: domain.ChatEventTool,
			Tool: &domain.ToolEvent{Phase: phase, Tool: payload.Tool, Data: data},
		}, true, nil

	case "final":
		var final domain.ChatFinal
		if err := json.Unmarshal([]byte(frame.data), &final); err != nil {
			return domain.ChatEvent{}, false, fmt.Errorf("decode final frame: %w", err)
		}
		return domain.ChatEvent{Kind: domain.ChatEventFinal, Final: &final}, true, nil

	case "error":
		var chatErr domain.ChatError
		if err := json.Unmarshal([]byte(frame.data), &chatErr); err != nil {
			chatErr = domain.ChatError{Code: "STREAM_ERROR", Detail: frame.data}
		}
		return domain.ChatEvent{Kind: domain.ChatEventError, Error: &chatErr}, true, nil
	}
	return domain.ChatEvent{}, false, nil
}
