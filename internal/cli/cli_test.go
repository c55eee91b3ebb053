package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type result struct {
	code   int
	stdout string
	stderr string
}

func run(t *testing.T, stdin string, args ...string) result {
	t.Helper()
	var stdout, stderr bytes.Buffer
	code := Run(context.Background(), args, strings.NewReader(stdin), &stdout, &stderr)
	return result{code: code, stdout: stdout.String(), stderr: stderr.String()}
}

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

const pinYAML = `type: pin_chat_message
chat_id: "@channel"
message_id: 42
token: "123:abc"
`

// fakeBotAPI answers every method with {"ok":true,"result":true}.
func fakeBotAPI(t *testing.T) (url string, hits *int32, bodies *[]map[string]interface{}) {
	t.Helper()
	var count int32
	var seen []map[string]interface{}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&count, 1)
		data, _ := io.ReadAll(r.Body)
		var body map[string]interface{}
		_ = json.Unmarshal(data, &body)
		seen = append(seen, body)
		w.Write([]byte(`{"ok":true,"result":true}`)) // nolint:errcheck
	}))
	t.Cleanup(srv.Close)
	return srv.URL + "/bot", &count, &seen
}

func TestValidate(t *testing.T) {
	t.Setenv(TokenEnv, "")
	cfg := writeFile(t, "agent.yaml", pinYAML)

	res := run(t, "", "validate", "--config", cfg)
	assert.Equal(t, ExitSuccess, res.code, res.stderr)
	assert.Contains(t, res.stdout, "Options are valid.")
}

func TestValidate_ReportsEveryProblem(t *testing.T) {
	t.Setenv(TokenEnv, "")

	res := run(t, "", "validate", "--set", "type=pin_chat_message")
	assert.Equal(t, ExitError, res.code)
	assert.Contains(t, res.stdout, "token is a required field")
	assert.Contains(t, res.stdout, "chat_id is a required field")
	assert.Contains(t, res.stdout, "message_id is a required field")
}

func TestValidate_TokenFromEnvironment(t *testing.T) {
	t.Setenv(TokenEnv, "from-env")
	cfg := writeFile(t, "agent.json", `{"type":"stop_poll","chat_id":"-100","message_id":"5"}`)

	res := run(t, "", "validate", "--config", cfg)
	assert.Equal(t, ExitSuccess, res.code, res.stdout)
}

func TestValidate_JSON(t *testing.T) {
	t.Setenv(TokenEnv, "")

	res := run(t, "", "validate", "--format", "json", "--set", "type=nope", "--set", "token=t", "--set", "chat_id=1")
	require.Equal(t, ExitError, res.code)

	var out ValidationResult
	require.NoError(t, json.Unmarshal([]byte(res.stdout), &out))
	assert.False(t, out.Valid)
	assert.Equal(t, []string{
		"type has invalid value: should be 'pin_chat_message', 'unpin_chat_message', 'send_poll', 'stop_poll'",
	}, out.Errors)
}

func TestBadFlags(t *testing.T) {
	tests := []struct {
		name string
		args []string
		want string
	}{
		{name: "bad assignment", args: []string{"validate", "--set", "novalue"}, want: "invalid assignment"},
		{name: "bad format", args: []string{"validate", "--format", "xml"}, want: "invalid format"},
		{name: "bad log level", args: []string{"check", "--log-level", "loud"}, want: "unknown log level"},
		{name: "missing config", args: []string{"validate", "--config", "/does/not/exist.yaml"}, want: "reading options"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res := run(t, "", tt.args...)
			assert.Equal(t, ExitError, res.code)
			assert.Contains(t, res.stderr, tt.want)
		})
	}
}

func TestCheck(t *testing.T) {
	t.Setenv(TokenEnv, "")
	apiURL, hits, bodies := fakeBotAPI(t)
	cfg := writeFile(t, "agent.yaml", pinYAML)

	res := run(t, "", "check", "--config", cfg, "--api-url", apiURL, "--history", "memory")

	require.Equal(t, ExitSuccess, res.code, res.stderr)
	assert.Equal(t, int32(1), atomic.LoadInt32(hits))
	assert.Equal(t, map[string]interface{}{"chat_id": "@channel", "message_id": "42"}, (*bodies)[0])

	var emitted map[string]interface{}
	require.NoError(t, json.Unmarshal([]byte(res.stdout), &emitted))
	assert.Equal(t, map[string]interface{}{
		"ok":         true,
		"result":     true,
		"action":     "pinChatMessage",
		"chat_id":    "@channel",
		"message_id": "42",
	}, emitted)
	assert.Contains(t, res.stderr, "request status : 200")
}

func TestCheck_InvalidOptionsMakeNoCall(t *testing.T) {
	t.Setenv(TokenEnv, "")
	apiURL, hits, _ := fakeBotAPI(t)

	res := run(t, "", "check", "--set", "type=send_poll", "--set", "chat_id=1", "--set", "token=t", "--api-url", apiURL, "--history", "memory")

	assert.Equal(t, ExitError, res.code)
	assert.Contains(t, res.stderr, "question is a required field")
	assert.Zero(t, atomic.LoadInt32(hits))
}

func TestReceive(t *testing.T) {
	t.Setenv(TokenEnv, "")
	apiURL, hits, bodies := fakeBotAPI(t)
	stdin := `{"chat":"@a","id":"1"}
{"chat":"@b","id":"2"}
`

	res := run(t, stdin, "receive",
		"--set", "type=unpin_chat_message",
		"--set", "chat_id={{ chat }}",
		"--set", "message_id={{ id }}",
		"--set", "token=t",
		"--set", "emit_events=false",
		"--api-url", apiURL,
		"--history", "memory",
	)

	require.Equal(t, ExitSuccess, res.code, res.stderr)
	assert.Equal(t, int32(2), atomic.LoadInt32(hits))
	assert.Equal(t, "@b", (*bodies)[1]["chat_id"])
	assert.Empty(t, res.stdout, "emission disabled")
}

func TestReceive_EventsFile(t *testing.T) {
	t.Setenv(TokenEnv, "")
	apiURL, hits, _ := fakeBotAPI(t)
	events := writeFile(t, "events.json", `[{"id":"7"}]`)

	res := run(t, "", "receive", "--events-file", events,
		"--set", "type=stop_poll", "--set", "chat_id=1", "--set", "message_id={{ id }}", "--set", "token=t",
		"--api-url", apiURL, "--history", "memory",
	)

	require.Equal(t, ExitSuccess, res.code, res.stderr)
	assert.Equal(t, int32(1), atomic.LoadInt32(hits))
	assert.Contains(t, res.stdout, `"action":"stopPoll"`)
	assert.Contains(t, res.stdout, `"message_id":"7"`)
}

func TestHealth(t *testing.T) {
	t.Setenv(TokenEnv, "")
	apiURL, _, _ := fakeBotAPI(t)
	cfg := writeFile(t, "agent.yaml", pinYAML)
	dir := t.TempDir()

	res := run(t, "", "health", "--config", cfg, "--history", dir)
	assert.Equal(t, ExitNotWorking, res.code)
	assert.Contains(t, res.stdout, "telegrambis: not working")
	assert.Contains(t, res.stdout, "last event: never")

	res = run(t, "", "check", "--config", cfg, "--api-url", apiURL, "--history", dir, "--dry-run")
	require.Equal(t, ExitSuccess, res.code, res.stderr)
	res = run(t, "", "health", "--config", cfg, "--history", dir)
	assert.Equal(t, ExitNotWorking, res.code, "dry runs are not recorded")

	res = run(t, "", "check", "--config", cfg, "--api-url", apiURL, "--history", dir)
	require.Equal(t, ExitSuccess, res.code, res.stderr)

	res = run(t, "", "health", "--config", cfg, "--history", dir, "--format", "json")
	assert.Equal(t, ExitSuccess, res.code, res.stdout)
	var out HealthResult
	require.NoError(t, json.Unmarshal([]byte(res.stdout), &out))
	assert.True(t, out.Working)
	assert.Equal(t, "telegrambis", out.Agent)
	assert.NotNil(t, out.LastEventAt)
	assert.Nil(t, out.LastErrorAt)
}

func TestDescribe(t *testing.T) {
	res := run(t, "", "describe", "--format", "json", "--name", "pinner")
	require.Equal(t, ExitSuccess, res.code, res.stderr)

	var meta map[string]interface{}
	require.NoError(t, json.Unmarshal([]byte(res.stdout), &meta))
	assert.Equal(t, "pinner", meta["name"])
	assert.Equal(t, "every_12h", meta["default_schedule"])
	assert.Equal(t, true, meta["no_bulk_receive"])

	res = run(t, "", "describe")
	require.Equal(t, ExitSuccess, res.code)
	assert.Contains(t, res.stdout, "telegrambis (schedule: every_12h")
	assert.Contains(t, res.stdout, "token")
	assert.Contains(t, res.stdout, "(secret)")
	assert.Contains(t, res.stdout, "(default regular)")
}

func TestCheck_StatusLineSurvivesLogLevel(t *testing.T) {
	t.Setenv(TokenEnv, "")
	apiURL, _, _ := fakeBotAPI(t)
	cfg := writeFile(t, "agent.yaml", pinYAML)

	res := run(t, "", "check", "--config", cfg, "--api-url", apiURL, "--history", "memory", "--log-level", "error")

	require.Equal(t, ExitSuccess, res.code, res.stderr)
	assert.Contains(t, res.stderr, "request status : 200")
}
