// Package webhook relays the last message of a conversation to an n8n
// workflow webhook and reports progress through status events.
package webhook

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	log "github.com/sirupsen/logrus"
)

const (
	DefaultInputField    = "chatInput"
	DefaultResponseField = "output"
	DefaultEmitInterval  = 2 * time.Second

	msgCalling    = "/Calling N8N Workflow..."
	msgNoMessages = "No messages found in the request body"
	msgComplete   = "Complete"

	maxErrorBody = 64 << 10
)

// Valves configures a Forwarder.
type Valves struct {
	URL                   string
	BearerToken           string
	InputField            string
	ResponseField         string
	EmitInterval          time.Duration
	EnableStatusIndicator bool
}

// DefaultValves returns the stock field names, a two second emit interval
// and status indication enabled.
func DefaultValves() Valves {
	return Valves{
		InputField:            DefaultInputField,
		ResponseField:         DefaultResponseField,
		EmitInterval:          DefaultEmitInterval,
		EnableStatusIndicator: true,
	}
}

type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// Body is the conversation being forwarded. Forward appends the reply to
// Messages.
type Body struct {
	Messages []Message `json:"messages"`
}

// Session identifies the conversation on the workflow side.
type Session struct {
	ChatID    string
	MessageID string
}

// SessionID is the value sent as sessionId. A missing chat id is sent as the
// literal "None".
func (s Session) SessionID() string {
	if s.ChatID == "" {
		return "None"
	}
	return s.ChatID
}

// Caller is the optional request/response channel back to the chat client.
// Forward accepts it but never calls it.
type Caller func(ctx context.Context, req map[string]any) (map[string]any, error)

// Hooks are the caller-side callbacks of one Forward call.
type Hooks struct {
	Emitter Emitter
	Call    Caller
}

type Option func(*Forwarder)

// WithHTTPClient sets the client used for the workflow call.
func WithHTTPClient(c *http.Client) Option {
	return func(f *Forwarder) { f.client = c }
}

// WithClock sets the clock used by the status throttle.
func WithClock(now func() time.Time) Option {
	return func(f *Forwarder) { f.now = now }
}

// Forwarder posts conversations to a workflow webhook. The status throttle
// is shared by every call on the same Forwarder.
type Forwarder struct {
	valves   Valves
	client   *http.Client
	now      func() time.Time
	throttle *throttle
}

func NewForwarder(v Valves, opts ...Option) *Forwarder {
	if v.InputField == "" {
		v.InputField = DefaultInputField
	}
	if v.ResponseField == "" {
		v.ResponseField = DefaultResponseField
	}
	f := &Forwarder{valves: v, client: http.DefaultClient, now: time.Now}
	for _, opt := range opts {
		opt(f)
	}
	f.throttle = newThrottle(v.EmitInterval)
	return f
}

// Valves returns the forwarder configuration.
func (f *Forwarder) Valves() Valves { return f.valves }

// Forward sends the content of the last message in body to the workflow and
// appends the reply to body as an assistant message.
//
// With no messages, Forward appends an assistant message explaining that,
// emits a terminal error status and returns ErrNoMessages without calling
// the workflow. Workflow failures emit a terminal error status and are
// returned; they are never retried.
func (f *Forwarder) Forward(ctx context.Context, body *Body, s Session, h Hooks) (string, error) {
	f.EmitStatus(ctx, h.Emitter, LevelInfo, msgCalling, false)
	if body == nil || len(body.Messages) == 0 {
		f.EmitStatus(ctx, h.Emitter, LevelError, msgNoMessages, true)
		if body != nil {
			body.Messages = append(body.Messages, Message{Role: "assistant", Content: msgNoMessages})
		}
		return "", ErrNoMessages
	}
	question := body.Messages[len(body.Messages)-1].Content
	reply, err := f.call(ctx, s, question)
	if err != nil {
		f.EmitStatus(ctx, h.Emitter, LevelError, "Error during sequence execution: "+err.Error(), true)
		return "", err
	}
	body.Messages = append(body.Messages, Message{Role: "assistant", Content: reply})
	f.EmitStatus(ctx, h.Emitter, LevelInfo, msgComplete, true)
	return reply, nil
}

func (f *Forwarder) call(ctx context.Context, s Session, question string) (string, error) {
	payload := map[string]string{"sessionId": s.SessionID()}
	payload[f.valves.InputField] = question
	buf, err := json.Marshal(payload)
	if err != nil {
		return "", err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, f.valves.URL, bytes.NewReader(buf))
	if err != nil {
		return "", fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+f.valves.BearerToken)
	req.Header.Set("Content-Type", "application/json")

	log.WithFields(log.Fields{"url": f.valves.URL, "session": s.SessionID()}).Debug("calling workflow")
	resp, err := f.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("call workflow: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		data, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		return "", &StatusError{Code: resp.StatusCode, Body: string(data)}
	}
	var out map[string]json.RawMessage
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return "", fmt.Errorf("decode workflow response: %w", err)
	}
	raw, ok := out[f.valves.ResponseField]
	if !ok {
		return "", fmt.Errorf("%w: %q", ErrMissingField, f.valves.ResponseField)
	}
	if bytes.Equal(bytes.TrimSpace(raw), []byte("null")) {
		return "", fmt.Errorf("%w: %q is null", ErrMissingField, f.valves.ResponseField)
	}
	return replyText(raw)
}

// replyText returns a JSON string value as is and any other value as compact
// JSON text.
func replyText(raw json.RawMessage) (string, error) {
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return s, nil
	}
	var buf bytes.Buffer
	if err := json.Compact(&buf, raw); err != nil {
		return "", err
	}
	return buf.String(), nil
}
