package notify

import (
	"bytes"
	"errors"
	"testing"

	"github.com/huangsam/ticsgate/internal/logging"
	"github.com/huangsam/ticsgate/schema"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRender(t *testing.T) {
	tests := []struct {
		name     string
		data     MessageData
		expected string
	}{
		{
			name:     "passed",
			data:     MessageData{Verdict: schema.Verdict{Passed: true}, Repository: "octo/repo", Ref: "#7"},
			expected: "\U0001f7e2 TICS quality gate passed for octo/repo (#7)",
		},
		{
			name: "failed with details",
			data: MessageData{
				Verdict: schema.Verdict{
					Message:      "Quality gate failed: 2 condition(s) did not pass",
					ExplorerURLs: []string{"http://viewer/Explorer.html#a", "http://viewer/Explorer.html#b"},
				},
				RunURL: "https://github.com/octo/repo/actions/runs/1",
			},
			expected: "\U0001f534 TICS quality gate failed\n" +
				"Quality gate failed: 2 condition(s) did not pass\n" +
				"http://viewer/Explorer.html#a\n" +
				"https://github.com/octo/repo/actions/runs/1",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			msg, err := Render(tt.data)
			require.NoError(t, err)
			assert.Equal(t, tt.expected, msg)
		})
	}
}

func TestNotify(t *testing.T) {
	var buf bytes.Buffer
	n := New([]string{"generic://ok", "generic://broken"}, logging.New(logging.Options{Writer: &buf}))

	var sent []string
	n.send = func(url, message string) error {
		if url == "generic://broken" {
			return errors.New("connection refused")
		}
		sent = append(sent, message)
		return nil
	}

	delivered := n.Notify(MessageData{Verdict: schema.Verdict{Passed: true}})
	assert.Equal(t, 1, delivered)
	assert.Equal(t, []string{"\U0001f7e2 TICS quality gate passed"}, sent)
	assert.Contains(t, buf.String(), "::warning::")
	assert.Contains(t, buf.String(), "Could not deliver notification 2: connection refused")
	assert.NotContains(t, buf.String(), "generic://broken")
}

func TestNotify_NoURLs(t *testing.T) {
	n := New(nil, logging.Nop())
	n.send = func(string, string) error {
		t.Fatal("send must not be called")
		return nil
	}
	assert.Zero(t, n.Notify(MessageData{}))
}

func TestSend_InvalidURL(t *testing.T) {
	err := send("notaservice://whatever", "hi")
	assert.ErrorContains(t, err, "creating sender")
}
