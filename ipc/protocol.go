package ipc

import (
	"bufio"
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
)

var ErrUnknownFrame = errors.New("unknown frame")

// maxLine bounds a single engine line; action frames late in a match run to
// a few hundred kilobytes.
const maxLine = 8 << 20

// Envelope is one line from the engine, classified by its shape.
// Data is kept raw so handlers decode only what they need.
type Envelope struct {
	Type string
	Data json.RawMessage
}

type frameShape struct {
	UnitInformation json.RawMessage `json:"unitInformation"`
	TurnInfo        []float64       `json:"turnInfo"`
}

// Classify sorts a raw engine line into one of the Type constants.
func Classify(line []byte) (Envelope, error) {
	var p frameShape
	if err := json.Unmarshal(line, &p); err != nil {
		return Envelope{}, fmt.Errorf("%w: %w", ErrUnknownFrame, err)
	}
	data := json.RawMessage(bytes.Clone(line))
	if len(p.UnitInformation) > 0 {
		return Envelope{Type: TypeConfig, Data: data}, nil
	}
	if len(p.TurnInfo) == 0 {
		return Envelope{}, fmt.Errorf("%w: no turnInfo", ErrUnknownFrame)
	}
	switch int(p.TurnInfo[0]) {
	case 0:
		return Envelope{Type: TypeTurn, Data: data}, nil
	case 1:
		return Envelope{Type: TypeActionFrame, Data: data}, nil
	case 2:
		return Envelope{Type: TypeEndGame, Data: data}, nil
	}
	return Envelope{}, fmt.Errorf("%w: phase %v", ErrUnknownFrame, p.TurnInfo[0])
}

// Reader yields envelopes from the engine's line stream.
type Reader struct {
	sc *bufio.Scanner
}

func NewReader(r io.Reader) *Reader {
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 0, 64<<10), maxLine)
	return &Reader{sc: sc}
}

// ReadEnvelope returns the next classified line, skipping blank ones.
// It returns io.EOF when the engine closes the stream.
func (r *Reader) ReadEnvelope() (Envelope, error) {
	for r.sc.Scan() {
		line := bytes.TrimSpace(r.sc.Bytes())
		if len(line) == 0 {
			continue
		}
		return Classify(line)
	}
	if err := r.sc.Err(); err != nil {
		return Envelope{}, fmt.Errorf("read line: %w", err)
	}
	return Envelope{}, io.EOF
}

// WriteCommands writes one command stack as a single JSON line.
func WriteCommands(w io.Writer, cmds []Command) error {
	if cmds == nil {
		cmds = []Command{}
	}
	payload, err := json.Marshal(cmds)
	if err != nil {
		return fmt.Errorf("marshal commands: %w", err)
	}
	payload = append(payload, '\n')
	if _, err := w.Write(payload); err != nil {
		return fmt.Errorf("write commands: %w", err)
	}
	return nil
}
