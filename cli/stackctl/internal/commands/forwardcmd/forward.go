// Package forwardcmd exposes the webhook forwarder on the command line.
package forwardcmd

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"

	log "github.com/sirupsen/logrus"
	"github.com/spf13/pflag"

	"github.com/Luiggi370z/local-ai-stack/cli/stackctl/internal/cmdregistry"
	"github.com/Luiggi370z/local-ai-stack/cli/stackctl/internal/webhook"
)

// Register adds the forward command to the registry.
func Register(r *cmdregistry.Registry) {
	r.Register("forward", handle)
}

// logEmitter writes status events to the process log.
type logEmitter struct{}

func (logEmitter) Emit(_ context.Context, ev webhook.Event) error {
	entry := log.WithFields(log.Fields{"status": ev.Data.Status, "done": ev.Data.Done})
	if ev.Data.Level == webhook.LevelError {
		entry.Error(ev.Data.Description)
	} else {
		entry.Info(ev.Data.Description)
	}
	return nil
}

// forward [--session ID] [--message-id ID] [--body FILE|-] [--json] [message...]
func handle(ctx context.Context, c *cmdregistry.Context) error {
	fs := pflag.NewFlagSet("forward", pflag.ContinueOnError)
	fs.SetOutput(c.Stderr)
	var s webhook.Session
	fs.StringVar(&s.ChatID, "session", "", "chat id sent as sessionId")
	fs.StringVar(&s.MessageID, "message-id", "", "message id of the request")
	bodyPath := fs.String("body", "", `JSON conversation {"messages":[...]}; "-" reads stdin`)
	asJSON := fs.Bool("json", false, "print the whole conversation instead of the reply")
	if err := fs.Parse(c.Args); err != nil {
		return cmdregistry.Usagef("forward: %v", err)
	}

	body := &webhook.Body{}
	if *bodyPath != "" {
		if err := readBody(c, *bodyPath, body); err != nil {
			return err
		}
	}
	if msg := strings.TrimSpace(strings.Join(fs.Args(), " ")); msg != "" {
		body.Messages = append(body.Messages, webhook.Message{Role: "user", Content: msg})
	}

	valves := c.Config.N8N.Valves()
	if c.DryRun {
		fmt.Fprintf(c.Stderr, "+ POST %s (session %s, %d messages)\n", valves.URL, s.SessionID(), len(body.Messages))
		return nil
	}
	client := &http.Client{Timeout: c.Config.N8N.Timeout.Duration}
	f := webhook.NewForwarder(valves, webhook.WithHTTPClient(client))
	reply, err := f.Forward(ctx, body, s, webhook.Hooks{Emitter: logEmitter{}})
	if err != nil {
		return err
	}
	if *asJSON {
		enc := json.NewEncoder(c.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(body)
	}
	_, err = fmt.Fprintln(c.Stdout, reply)
	return err
}

func readBody(c *cmdregistry.Context, path string, body *webhook.Body) error {
	var r io.Reader
	if path == "-" {
		r = c.Stdin
	} else {
		f, err := os.Open(path)
		if err != nil {
			return err
		}
		defer f.Close()
		r = f
	}
	if r == nil {
		return cmdregistry.Usagef("forward: no stdin available for --body -")
	}
	if err := json.NewDecoder(r).Decode(body); err != nil {
		return fmt.Errorf("parse conversation body: %w", err)
	}
	return nil
}
