package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

type cliRun struct {
	stdout string
	stderr string
	err    error
}

func runCLI(t *testing.T, args ...string) cliRun {
	t.Helper()
	return runCLIContext(t, context.Background(), args...)
}

func runCLIContext(t *testing.T, ctx context.Context, args ...string) cliRun {
	t.Helper()
	out, errOut := &bytes.Buffer{}, &bytes.Buffer{}
	cmd := NewRootCommand()
	cmd.SetOut(out)
	cmd.SetErr(errOut)
	cmd.SetArgs(args)
	err := cmd.ExecuteContext(ctx)
	return cliRun{stdout: out.String(), stderr: errOut.String(), err: err}
}

func testDB(t *testing.T) string {
	t.Helper()
	return filepath.Join(t.TempDir(), "ticktrack.db")
}

func writeFile(t *testing.T, name, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func writeConfig(t *testing.T, tickURL, hookURL string) string {
	t.Helper()
	return writeFile(t, "ticktrack.yaml", fmt.Sprintf(`
tick:
  url: %s
notify:
  default_sinks:
    - %s
`, tickURL, hookURL))
}

// decodeData unmarshals the data field of a JSON CLIResponse into v.
func decodeData(t *testing.T, stdout string, v any) {
	t.Helper()
	var resp struct {
		Status string          `json:"status"`
		Data   json.RawMessage `json:"data"`
	}
	require.NoError(t, json.Unmarshal([]byte(stdout), &resp), stdout)
	require.Equal(t, "ok", resp.Status)
	require.NoError(t, json.Unmarshal(resp.Data, v))
}

const recordsFixture = `{"tick_handle":"h-1","received_at":"2026-03-01T11:50:00Z","payload":{"StarSystem":"Alpha","Conflicts":[{"WarType":"war","Faction1":{"Name":"Fuel Rats","Stake":"Rescue Depot","WonDays":1},"Faction2":{"Name":"Gold Syndicate","Stake":"","WonDays":0}}]}}

{"tick_handle":"h-1","received_at":"2026-03-01T11:52:00Z","payload":null}
{"tick_handle":"h-1","received_at":"2026-03-01T11:54:00Z","payload":{"StarSystem":"Beta","Conflicts":[{"WarType":"election","Faction1":{"Name":"Nobody","WonDays":0},"Faction2":{"Name":"Someone","WonDays":0}}]}}
`

const mirrorFixture = `
- location: Alpha
  side1: Fuel Rats
  side2: Gold Syndicate
  stake1: Rescue Depot
  score1: 2
  score2: 0
  kind: war
- location: Gamma
  side1: Gold Syndicate
  side2: fuel rats
  score1: 0
  score2: 0
  kind: civilwar
`
