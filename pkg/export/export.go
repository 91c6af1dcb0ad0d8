// Package export writes audit records for reporting tools.
package export

import (
	"encoding/csv"
	"encoding/json"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/kilianp07/zerowaste/core/allocation/audit"
)

// CSVHeader is the first row written by WriteCSV.
var CSVHeader = []string{
	"timestamp", "action", "request_id", "donation_id", "donor_id", "receiver_id",
	"decision", "outcome", "score", "model_version", "cascaded",
}

// WriteJSON writes the records as one indented JSON array.
func WriteJSON(w io.Writer, records []audit.Record) error {
	if records == nil {
		records = []audit.Record{}
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(records)
}

// WriteCSV writes one row per record. Cascaded request ids are joined with
// a semicolon.
func WriteCSV(w io.Writer, records []audit.Record) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(CSVHeader); err != nil {
		return err
	}
	for _, r := range records {
		score := ""
		if r.Action != audit.ActionComplete {
			score = strconv.FormatFloat(r.Score, 'f', -1, 64)
		}
		rec := []string{
			r.Timestamp.UTC().Format(time.RFC3339),
			string(r.Action),
			r.RequestID,
			r.DonationID,
			r.DonorID,
			r.ReceiverID,
			r.Decision,
			r.Outcome,
			score,
			r.ModelVersion,
			strings.Join(r.Cascaded, ";"),
		}
		if err := cw.Write(rec); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}
