package ipc

import (
	"encoding/json"
	"errors"
	"fmt"
	"path/filepath"

	"github.com/shinych/webmirror/internal/model"
)

// MessageType tags one message kind in the protocol.
type MessageType string

// The closed set of protocol messages.
const (
	// MsgInit configures a freshly spawned worker.
	MsgInit MessageType = "INIT"

	// MsgSetCookies broadcasts the captured session cookies to a worker.
	MsgSetCookies MessageType = "SET_COOKIES"

	// MsgDownload dispatches one download task to a worker.
	MsgDownload MessageType = "DOWNLOAD"

	// MsgShutdown asks a worker to exit. Advisory: the pool escalates to
	// a kill after the grace period.
	MsgShutdown MessageType = "SHUTDOWN"

	// MsgReady signals that a worker finished initializing.
	MsgReady MessageType = "READY"

	// MsgResult reports the outcome of a dispatched task. A task-level
	// error travels inside the payload; it is not a worker failure.
	MsgResult MessageType = "RESULT"
)

// Validation errors returned at the channel boundary.
var (
	// ErrUnknownMessageType is returned for a type tag outside the
	// closed protocol set.
	ErrUnknownMessageType = errors.New("unknown message type")

	// ErrInvalidPayload is returned when a payload fails validation for
	// its message type.
	ErrInvalidPayload = errors.New("invalid payload")
)

// Envelope is the wire form of every message: a type tag plus the raw
// payload bytes for that type.
type Envelope struct {
	Type    MessageType     `json:"type"`
	Payload json.RawMessage `json:"payload,omitempty"`
}

// InitPayload configures a worker after spawn.
type InitPayload struct {
	// WorkerID is the pool's identifier for this worker.
	WorkerID int `json:"worker_id"`

	// PageWaitMillis is how long the renderer waits after the document
	// becomes ready, giving scripts time to populate the page.
	PageWaitMillis int `json:"page_wait_millis"`
}

// SetCookiesPayload broadcasts captured session cookies.
type SetCookiesPayload struct {
	Cookies []model.Cookie `json:"cookies"`
}

// DownloadPayload dispatches one page download.
type DownloadPayload struct {
	Task model.DownloadTask `json:"task"`

	// Cookies accompany each task so a respawned worker needs no
	// separate re-broadcast before its first dispatch.
	Cookies []model.Cookie `json:"cookies,omitempty"`
}

// ReadyPayload announces a worker as initialized.
type ReadyPayload struct {
	WorkerID int `json:"worker_id"`
}

// ResultPayload reports a task outcome.
type ResultPayload struct {
	// TaskType names the operation the result answers, "download" here.
	TaskType string `json:"task_type"`

	// TaskID echoes the dispatched task identifier.
	TaskID string `json:"task_id"`

	// PageID echoes the page the task covered.
	PageID string `json:"page_id"`

	// Data carries success details (saved path, byte count).
	Data *ResultData `json:"data,omitempty"`

	// Error carries the task-level failure message. A set Error never
	// means the worker itself is unhealthy.
	Error string `json:"error,omitempty"`
}

// ResultData describes a successful download.
type ResultData struct {
	SavePath string `json:"save_path"`
	Bytes    int64  `json:"bytes"`
	Title    string `json:"title,omitempty"`
}

// NewEnvelope wraps a typed payload into its envelope.
func NewEnvelope(t MessageType, payload any) (Envelope, error) {
	env := Envelope{Type: t}
	if payload != nil {
		data, err := json.Marshal(payload)
		if err != nil {
			return Envelope{}, fmt.Errorf("marshal %s payload: %w", t, err)
		}
		env.Payload = data
	}
	return env, nil
}

// DecodePayload unmarshals and validates the envelope's payload into the
// typed struct for its message type. The returned value is one of the
// *Payload types above, or nil for payload-less messages.
func (e Envelope) DecodePayload() (any, error) {
	switch e.Type {
	case MsgInit:
		var p InitPayload
		if err := e.unmarshal(&p); err != nil {
			return nil, err
		}
		if p.WorkerID < 0 {
			return nil, fmt.Errorf("%w: %s: negative worker id", ErrInvalidPayload, e.Type)
		}
		return p, nil

	case MsgSetCookies:
		var p SetCookiesPayload
		if err := e.unmarshal(&p); err != nil {
			return nil, err
		}
		return p, nil

	case MsgDownload:
		var p DownloadPayload
		if err := e.unmarshal(&p); err != nil {
			return nil, err
		}
		switch {
		case p.Task.URL == "":
			return nil, fmt.Errorf("%w: %s: missing url", ErrInvalidPayload, e.Type)
		case p.Task.PageID == "":
			return nil, fmt.Errorf("%w: %s: missing page id", ErrInvalidPayload, e.Type)
		case !filepath.IsAbs(p.Task.SavePath):
			return nil, fmt.Errorf("%w: %s: save path %q is not absolute", ErrInvalidPayload, e.Type, p.Task.SavePath)
		}
		return p, nil

	case MsgShutdown:
		return nil, nil

	case MsgReady:
		var p ReadyPayload
		if err := e.unmarshal(&p); err != nil {
			return nil, err
		}
		return p, nil

	case MsgResult:
		var p ResultPayload
		if err := e.unmarshal(&p); err != nil {
			return nil, err
		}
		if p.Data == nil && p.Error == "" {
			return nil, fmt.Errorf("%w: %s: neither data nor error", ErrInvalidPayload, e.Type)
		}
		return p, nil

	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownMessageType, e.Type)
	}
}

func (e Envelope) unmarshal(dst any) error {
	if len(e.Payload) == 0 {
		return fmt.Errorf("%w: %s: empty payload", ErrInvalidPayload, e.Type)
	}
	if err := json.Unmarshal(e.Payload, dst); err != nil {
		return fmt.Errorf("%w: %s: %v", ErrInvalidPayload, e.Type, err)
	}
	return nil
}
