// Package notify sends the verdict to chat services through shoutrrr URLs.
package notify

import (
	"bytes"
	"fmt"
	"text/template"

	"github.com/Masterminds/sprig/v3"
	"github.com/huangsam/ticsgate/internal/logging"
	"github.com/huangsam/ticsgate/schema"
	"github.com/nicholas-fedor/shoutrrr"
)

// MessageData holds all data available to the notification template.
type MessageData struct {
	Verdict    schema.Verdict
	Repository string // owner/repo
	Ref        string // Pull request number or commit
	RunURL     string
}

const messageTemplate = `{{ if .Verdict.Passed }}{{ "\U0001f7e2" }} TICS quality gate passed{{ else }}{{ "\U0001f534" }} TICS quality gate failed{{ end }}
{{- with .Repository }} for {{ . }}{{ end }}{{ with .Ref }} ({{ . }}){{ end }}
{{- with .Verdict.Message }}
{{ . }}{{ end }}
{{- with .Verdict.ExplorerURLs }}
{{ first . }}{{ end }}
{{- with .RunURL }}
{{ . }}{{ end }}`

var messageTmpl = template.Must(template.New("notify").Funcs(sprig.TxtFuncMap()).Parse(messageTemplate))

// Render executes the notification template.
func Render(data MessageData) (string, error) {
	var buf bytes.Buffer
	if err := messageTmpl.Execute(&buf, data); err != nil {
		return "", fmt.Errorf("executing template: %w", err)
	}
	return buf.String(), nil
}

// Notifier delivers messages to every configured service URL.
type Notifier struct {
	urls []string
	log  *logging.Logger
	send func(url, message string) error
}

// New creates a Notifier for the shoutrrr service URLs.
func New(urls []string, log *logging.Logger) *Notifier {
	return &Notifier{urls: urls, log: log, send: send}
}

// Notify sends the verdict to every URL. Delivery failures are logged as
// warnings and never returned, as notifications do not affect the verdict.
// It returns the number of successful deliveries.
func (n *Notifier) Notify(data MessageData) int {
	if len(n.urls) == 0 {
		return 0
	}
	message, err := Render(data)
	if err != nil {
		n.log.Warnf("Could not render notification: %v", err)
		return 0
	}

	delivered := 0
	for i, url := range n.urls {
		if err := n.send(url, message); err != nil {
			// The URL itself carries credentials.
			n.log.Warnf("Could not deliver notification %d: %v", i+1, err)
			continue
		}
		delivered++
	}
	n.log.Debugf("Delivered %d of %d notification(s)", delivered, len(n.urls))
	return delivered
}

func send(url, message string) error {
	sender, err := shoutrrr.CreateSender(url)
	if err != nil {
		return fmt.Errorf("creating sender: %w", err)
	}
	for _, e := range sender.Send(message, nil) {
		if e != nil {
			return fmt.Errorf("sending: %w", e)
		}
	}
	return nil
}
