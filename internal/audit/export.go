package audit

import (
	"bytes"
	"encoding/csv"
	"strconv"
	"time"
)

// Exporter writes audit trail exports. This is the flat-file contract other
// tooling (reporting, compliance) reads.
type Exporter struct{}

// NewExporter constructs an Exporter.
func NewExporter() *Exporter {
	return &Exporter{}
}

// WriteCSV renders entries as CSV, one row per entry plus a header.
func (e *Exporter) WriteCSV(entries []Entry) ([]byte, error) {
	var buf bytes.Buffer
	w := csv.NewWriter(&buf)
	header := []string{"created_at", "actor_id", "table_name", "record_id", "action", "changes_summary", "ip_address", "user_agent"}
	if err := w.Write(header); err != nil {
		return nil, err
	}
	for _, entry := range entries {
		record := []string{
			entry.CreatedAt.UTC().Format(time.RFC3339),
			strconv.FormatInt(entry.ActorID, 10),
			entry.TableName,
			entry.RecordID,
			entry.Action,
			entry.Summary,
			entry.IP,
			entry.UserAgent,
		}
		if err := w.Write(record); err != nil {
			return nil, err
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
