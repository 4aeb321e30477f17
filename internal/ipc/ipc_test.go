package ipc

import (
	"bytes"
	"errors"
	"io"
	"strings"
	"testing"

	"github.com/shinych/webmirror/internal/model"
)

// TestEnvelopeRoundTrip tests encode/decode through a byte stream.
func TestEnvelopeRoundTrip(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	enc := NewEncoder(&buf)

	task := model.DownloadTask{
		TaskID:   "w1-12345",
		PageID:   "29d979ee1aa84a6c92b7a5c0d1e2f3a4",
		URL:      "https://s.example/page",
		SavePath: "/mirror/Page/index.html",
	}
	if err := enc.Send(MsgDownload, DownloadPayload{
		Task:    task,
		Cookies: []model.Cookie{{Name: "session", Value: "abc", Domain: "s.example"}},
	}); err != nil {
		t.Fatalf("send: %v", err)
	}
	if err := enc.Send(MsgShutdown, nil); err != nil {
		t.Fatalf("send shutdown: %v", err)
	}

	dec := NewDecoder(&buf)

	env, payload, err := dec.Receive()
	if err != nil {
		t.Fatalf("receive: %v", err)
	}
	if env.Type != MsgDownload {
		t.Fatalf("type = %s, expected DOWNLOAD", env.Type)
	}
	dl, ok := payload.(DownloadPayload)
	if !ok {
		t.Fatalf("payload type %T", payload)
	}
	if dl.Task != task {
		t.Errorf("task = %+v, expected %+v", dl.Task, task)
	}
	if len(dl.Cookies) != 1 || dl.Cookies[0].Name != "session" {
		t.Errorf("cookies = %+v", dl.Cookies)
	}

	env, payload, err = dec.Receive()
	if err != nil {
		t.Fatalf("receive shutdown: %v", err)
	}
	if env.Type != MsgShutdown || payload != nil {
		t.Errorf("shutdown = %s %v", env.Type, payload)
	}

	if _, _, err := dec.Receive(); !errors.Is(err, io.EOF) {
		t.Errorf("expected EOF at stream end, got %v", err)
	}
}

// TestPayloadValidation tests boundary validation of each message kind.
func TestPayloadValidation(t *testing.T) {
	t.Parallel()

	valid := model.DownloadTask{
		PageID: "p1", URL: "https://s.example/", SavePath: "/out/index.html",
	}

	tests := map[string]struct {
		envType MessageType
		payload any
		wantErr error
	}{
		"download without url": {
			MsgDownload,
			DownloadPayload{Task: model.DownloadTask{PageID: "p", SavePath: "/a/b"}},
			ErrInvalidPayload,
		},
		"download without page id": {
			MsgDownload,
			DownloadPayload{Task: model.DownloadTask{URL: "https://x/", SavePath: "/a/b"}},
			ErrInvalidPayload,
		},
		"download with relative save path": {
			MsgDownload,
			DownloadPayload{Task: model.DownloadTask{PageID: "p", URL: "https://x/", SavePath: "out/index.html"}},
			ErrInvalidPayload,
		},
		"result with neither data nor error": {
			MsgResult,
			ResultPayload{TaskType: "download", TaskID: "t1"},
			ErrInvalidPayload,
		},
		"valid download": {
			MsgDownload,
			DownloadPayload{Task: valid},
			nil,
		},
		"valid error result": {
			MsgResult,
			ResultPayload{TaskType: "download", TaskID: "t1", Error: "render timed out"},
			nil,
		},
		"valid success result": {
			MsgResult,
			ResultPayload{TaskType: "download", TaskID: "t1", Data: &ResultData{SavePath: "/out/index.html"}},
			nil,
		},
		"init with negative worker id": {
			MsgInit,
			InitPayload{WorkerID: -1},
			ErrInvalidPayload,
		},
	}

	for name, tt := range tests {
		name, tt := name, tt
		t.Run(name, func(t *testing.T) {
			t.Parallel()

			env, err := NewEnvelope(tt.envType, tt.payload)
			if err != nil {
				t.Fatalf("envelope: %v", err)
			}
			_, err = env.DecodePayload()
			if tt.wantErr == nil {
				if err != nil {
					t.Errorf("expected valid payload, got %v", err)
				}
				return
			}
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("got %v, expected %v", err, tt.wantErr)
			}
		})
	}
}

// TestUnknownMessageType tests rejection outside the closed set.
func TestUnknownMessageType(t *testing.T) {
	t.Parallel()

	env := Envelope{Type: MessageType("REBOOT")}
	if _, err := env.DecodePayload(); !errors.Is(err, ErrUnknownMessageType) {
		t.Errorf("got %v, expected ErrUnknownMessageType", err)
	}
}

// TestDecoderMalformedLine tests that garbage on the stream is an error, not
// a crash.
func TestDecoderMalformedLine(t *testing.T) {
	t.Parallel()

	dec := NewDecoder(strings.NewReader("{not json}\n"))
	if _, err := dec.Decode(); err == nil {
		t.Fatal("expected error for malformed message")
	}
}
