package export

import (
	"bytes"
	"encoding/csv"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kilianp07/zerowaste/core/allocation/audit"
)

var ts = time.Date(2024, 5, 10, 8, 0, 0, 0, time.UTC)

func TestWriteCSV(t *testing.T) {
	records := []audit.Record{
		{Timestamp: ts, Action: audit.ActionDecision, RequestID: "p1", DonationID: "d1", DonorID: "donor1", ReceiverID: "r1",
			Decision: "accept", Outcome: "accepted", Score: 0.69, ModelVersion: "v1", Cascaded: []string{"p2", "p3"}},
		{Timestamp: ts.Add(time.Hour), Action: audit.ActionComplete, DonationID: "d1", ReceiverID: "r1"},
	}
	var buf bytes.Buffer
	require.NoError(t, WriteCSV(&buf, records))

	rows, err := csv.NewReader(&buf).ReadAll()
	require.NoError(t, err)
	require.Len(t, rows, 3)
	assert.Equal(t, CSVHeader, rows[0])
	assert.Equal(t, []string{"2024-05-10T08:00:00Z", "decision", "p1", "d1", "donor1", "r1", "accept", "accepted", "0.69", "v1", "p2;p3"}, rows[1])
	assert.Equal(t, "", rows[2][8])
}

func TestWriteJSONEmpty(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteJSON(&buf, nil))
	assert.Equal(t, "[]\n", buf.String())
}
