package ipc

import (
	"bufio"
	"encoding/json"
	"fmt"
	"io"
	"sync"
)

// maxMessageSize bounds one encoded message. A line larger than this is a
// protocol violation, not a big page: document bytes never travel through
// the channel, only paths and metadata.
const maxMessageSize = 4 * 1024 * 1024

// Encoder writes envelopes as newline-delimited JSON. Safe for concurrent
// use: the pool's dispatch loop and its shutdown path may both write.
type Encoder struct {
	mu sync.Mutex
	w  *bufio.Writer
}

// NewEncoder creates an Encoder on the given stream.
func NewEncoder(w io.Writer) *Encoder {
	return &Encoder{w: bufio.NewWriter(w)}
}

// Encode writes one envelope and flushes it immediately; messages must not
// sit in a buffer while the peer waits.
func (e *Encoder) Encode(env Envelope) error {
	data, err := json.Marshal(env)
	if err != nil {
		return fmt.Errorf("encode %s: %w", env.Type, err)
	}

	e.mu.Lock()
	defer e.mu.Unlock()
	if _, err := e.w.Write(data); err != nil {
		return fmt.Errorf("write %s: %w", env.Type, err)
	}
	if err := e.w.WriteByte('\n'); err != nil {
		return fmt.Errorf("write %s: %w", env.Type, err)
	}
	return e.w.Flush()
}

// Send wraps a typed payload and writes it in one step.
func (e *Encoder) Send(t MessageType, payload any) error {
	env, err := NewEnvelope(t, payload)
	if err != nil {
		return err
	}
	return e.Encode(env)
}

// Decoder reads newline-delimited envelopes from a stream.
type Decoder struct {
	scanner *bufio.Scanner
}

// NewDecoder creates a Decoder on the given stream.
func NewDecoder(r io.Reader) *Decoder {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 64*1024), maxMessageSize)
	return &Decoder{scanner: scanner}
}

// Decode reads the next envelope. It returns io.EOF when the stream closes
// cleanly, which the pool treats as the worker process ending.
func (d *Decoder) Decode() (Envelope, error) {
	if !d.scanner.Scan() {
		if err := d.scanner.Err(); err != nil {
			return Envelope{}, err
		}
		return Envelope{}, io.EOF
	}
	var env Envelope
	if err := json.Unmarshal(d.scanner.Bytes(), &env); err != nil {
		return Envelope{}, fmt.Errorf("malformed message: %w", err)
	}
	return env, nil
}

// Receive decodes the next envelope and validates its payload in one step.
// The payload is returned as the typed struct for the message kind.
func (d *Decoder) Receive() (Envelope, any, error) {
	env, err := d.Decode()
	if err != nil {
		return Envelope{}, nil, err
	}
	payload, err := env.DecodePayload()
	if err != nil {
		return env, nil, err
	}
	return env, payload, nil
}
