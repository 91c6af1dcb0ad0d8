package cmd

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kilianp07/zerowaste/core/allocation"
	"github.com/kilianp07/zerowaste/core/allocation/audit"
	"github.com/kilianp07/zerowaste/core/model"
)

// writeConfig creates a config backed by a temporary SQLite store and audit
// database, using the repository's model artifacts.
func writeConfig(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	modelPath, err := filepath.Abs("../configs/model.yaml")
	require.NoError(t, err)
	body := fmt.Sprintf(`store:
  backend: sqlite
  path: %s
model:
  artifact_path: %s
audit:
  backend: sqlite
  path: %s
logging:
  level: error
`, filepath.Join(dir, "zerowaste.db"), modelPath, filepath.Join(dir, "audit.db"))
	path := filepath.Join(dir, "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	scoreDonation, scoreReceiver, scoreSave = "", "", false
	auditDonation, auditReceiver, auditAction, auditSince, auditFormat = "", "", "", 0, "json"
	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&out)
	rootCmd.SetArgs(args)
	err := rootCmd.Execute()
	return out.String(), err
}

func TestCLIPickupLifecycle(t *testing.T) {
	allocation.ResetMetrics(nil)
	cfg := writeConfig(t)
	fixtures, err := filepath.Abs("../fixtures/sample.yaml")
	require.NoError(t, err)

	out, err := execute(t, "-c", cfg, "seed", fixtures)
	require.NoError(t, err)
	assert.Contains(t, out, "seeded 2 donors, 2 receivers, 3 donations")

	out, err = execute(t, "-c", cfg, "score", "--receiver", "rcv-restos")
	require.NoError(t, err)
	assert.Contains(t, out, "don-veg")

	out, err = execute(t, "-c", cfg, "pickup", "request", "don-veg", "rcv-restos")
	require.NoError(t, err)
	var view allocation.PickupRequestView
	require.NoError(t, json.Unmarshal([]byte(out), &view))
	assert.Equal(t, model.RequestPending, view.Request.Status)

	out, err = execute(t, "-c", cfg, "pickup", "pending", "donor-market")
	require.NoError(t, err)
	assert.Contains(t, out, view.Request.ID)

	_, err = execute(t, "-c", cfg, "pickup", "decide", view.Request.ID, "accept")
	require.NoError(t, err)

	_, err = execute(t, "-c", cfg, "pickup", "request", "don-veg", "rcv-shelter")
	assert.ErrorIs(t, err, model.ErrDonationNotAvailable)

	_, err = execute(t, "-c", cfg, "pickup", "complete", "don-veg")
	require.NoError(t, err)

	out, err = execute(t, "-c", cfg, "audit", "--donation", "don-veg")
	require.NoError(t, err)
	var records []audit.Record
	require.NoError(t, json.Unmarshal([]byte(out), &records))
	assert.Len(t, records, 3)

	out, err = execute(t, "-c", cfg, "audit", "--donation", "don-veg", "--action", "decision", "--format", "csv")
	require.NoError(t, err)
	assert.Equal(t, 2, strings.Count(out, "\n"))
	assert.Contains(t, out, view.Request.ID)
}

func TestCLIScoreSingle(t *testing.T) {
	allocation.ResetMetrics(nil)
	cfg := writeConfig(t)
	fixtures, err := filepath.Abs("../fixtures/sample.yaml")
	require.NoError(t, err)
	_, err = execute(t, "-c", cfg, "seed", fixtures)
	require.NoError(t, err)

	out, err := execute(t, "-c", cfg, "score", "--receiver", "rcv-restos", "--donation", "don-bread")
	require.NoError(t, err)
	var res map[string]any
	require.NoError(t, json.Unmarshal([]byte(out), &res))
	assert.Equal(t, "gbrt-2024-06", res["model_version"])
	assert.Contains(t, res, "score")
}

func TestCLIRejectsBadDecision(t *testing.T) {
	_, err := execute(t, "-c", writeConfig(t), "pickup", "decide", "req-1", "maybe")
	assert.ErrorContains(t, err, "decision must be")
}
