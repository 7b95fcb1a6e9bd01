package ai

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"strings"
)

// ErrEmptyStream is returned when a stream ends without producing any content.
var ErrEmptyStream = errors.New("ai: stream produced no content")

const (
	dataPrefix = "data: "
	doneMarker = "[DONE]"
)

type decoderState int

const (
	// stateAccumulating waits for a newline to complete the next line.
	stateAccumulating decoderState = iota
	// stateHaveLine is processing a complete line.
	stateHaveLine
	// stateAwaitingMore holds a payload that did not decode yet.
	stateAwaitingMore
	stateDone
)

// StreamDecoder reconstructs text from a newline delimited "data: " event stream of chat
// completion chunks. Output does not depend on how the input is split across Feed calls.
type StreamDecoder struct {
	buf      []byte
	held     string
	state    decoderState
	text     strings.Builder
	produced bool
}

// NewStreamDecoder returns a decoder waiting for input.
func NewStreamDecoder() *StreamDecoder {
	return &StreamDecoder{}
}

// Done reports whether the terminal marker has been seen or Finish was called.
func (d *StreamDecoder) Done() bool {
	return d.state == stateDone
}

// Text returns the content decoded so far.
func (d *StreamDecoder) Text() string {
	return d.text.String()
}

// Feed consumes chunk and returns the content fragments completed by it, in order.
func (d *StreamDecoder) Feed(chunk []byte) []string {
	if d.state == stateDone {
		return nil
	}
	d.buf = append(d.buf, chunk...)

	var fragments []string
	if d.state == stateAwaitingMore {
		if fragment, ok := decodeDelta(d.held); ok {
			fragments = d.emit(fragments, fragment)
			d.held = ""
			d.state = stateAccumulating
		}
	}

	for {
		idx := bytes.IndexByte(d.buf, '\n')
		if idx < 0 {
			return fragments
		}
		line := string(d.buf[:idx])
		d.buf = d.buf[idx+1:]

		payload, ok := dataPayload(line)
		if !ok {
			continue
		}
		if d.state == stateAwaitingMore {
			// A later line is complete, so the held payload can no longer be continued.
			d.held = ""
		}
		if payload == doneMarker {
			d.state = stateDone
			d.buf = nil
			return fragments
		}

		d.state = stateHaveLine
		fragment, ok := decodeDelta(payload)
		if !ok {
			d.held = payload
			d.state = stateAwaitingMore
			continue
		}
		fragments = d.emit(fragments, fragment)
		d.state = stateAccumulating
	}
}

// Finish flushes a trailing unterminated line and returns the full text. ErrEmptyStream is
// returned when no content was produced.
func (d *StreamDecoder) Finish() (string, error) {
	if d.state != stateDone && len(d.buf) > 0 {
		d.Feed([]byte("\n"))
	}
	if d.state == stateAwaitingMore {
		if fragment, ok := decodeDelta(d.held); ok {
			d.emit(nil, fragment)
		}
		d.held = ""
	}
	d.state = stateDone
	d.buf = nil

	if !d.produced {
		return "", ErrEmptyStream
	}
	return d.text.String(), nil
}

func (d *StreamDecoder) emit(fragments []string, fragment string) []string {
	if fragment == "" {
		return fragments
	}
	d.produced = true
	d.text.WriteString(fragment)
	return append(fragments, fragment)
}

func dataPayload(line string) (string, bool) {
	line = strings.TrimSuffix(line, "\r")
	if strings.TrimSpace(line) == "" || strings.HasPrefix(line, ":") {
		return "", false
	}
	if !strings.HasPrefix(line, dataPrefix) {
		return "", false
	}
	return strings.TrimSpace(line[len(dataPrefix):]), true
}

func decodeDelta(payload string) (string, bool) {
	var chunk struct {
		Choices []struct {
			Delta struct {
				Content string `json:"content"`
			} `json:"delta"`
		} `json:"choices"`
	}
	if err := json.Unmarshal([]byte(payload), &chunk); err != nil {
		return "", false
	}
	if len(chunk.Choices) == 0 {
		return "", true
	}
	return chunk.Choices[0].Delta.Content, true
}

// ReadStream decodes r until the terminal marker or EOF. onFragment, when set, receives
// each fragment as it completes; a non-nil return stops reading.
func ReadStream(ctx context.Context, r io.Reader, onFragment func(string) error) (string, error) {
	decoder := NewStreamDecoder()
	buf := make([]byte, 4096)
	for !decoder.Done() {
		if err := ctx.Err(); err != nil {
			return decoder.Text(), err
		}
		n, err := r.Read(buf)
		if n > 0 {
			for _, fragment := range decoder.Feed(buf[:n]) {
				if onFragment == nil {
					continue
				}
				if cbErr := onFragment(fragment); cbErr != nil {
					return decoder.Text(), cbErr
				}
			}
		}
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return decoder.Text(), err
		}
	}
	return decoder.Finish()
}
