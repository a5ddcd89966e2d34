package audit

import (
	"bytes"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"strconv"
	"time"

	"github.com/polisgate/polisgate/internal/entities"
)

// ExportFormat selects the serialization used by Export.
type ExportFormat string

const (
	ExportFormatJSON   ExportFormat = "json"
	ExportFormatNDJSON ExportFormat = "ndjson"
	ExportFormatCSV    ExportFormat = "csv"
)

// Export serializes audit entries for compliance reporting.
func Export(entries []*entities.AuditEntry, format ExportFormat) ([]byte, error) {
	switch format {
	case ExportFormatJSON:
		return exportJSON(entries)
	case ExportFormatNDJSON:
		return exportNDJSON(entries)
	case ExportFormatCSV:
		return exportCSV(entries)
	default:
		return nil, fmt.Errorf("unsupported export format: %s", format)
	}
}

func exportJSON(entries []*entities.AuditEntry) ([]byte, error) {
	return json.MarshalIndent(entries, "", "  ")
}

func exportNDJSON(entries []*entities.AuditEntry) ([]byte, error) {
	var buf bytes.Buffer
	encoder := json.NewEncoder(&buf)
	for _, entry := range entries {
		if err := encoder.Encode(entry); err != nil {
			return nil, fmt.Errorf("failed to encode entry: %w", err)
		}
	}
	return buf.Bytes(), nil
}

func exportCSV(entries []*entities.AuditEntry) ([]byte, error) {
	var buf bytes.Buffer
	writer := csv.NewWriter(&buf)

	header := []string{
		"ID",
		"Timestamp",
		"ActorID",
		"Resource",
		"Action",
		"Granted",
		"Reason",
		"EffectiveScope",
		"RiskLevel",
		"Fault",
	}
	if err := writer.Write(header); err != nil {
		return nil, fmt.Errorf("failed to write CSV header: %w", err)
	}

	for _, e := range entries {
		record := []string{
			e.ID,
			e.Timestamp.Format(time.RFC3339),
			e.ActorID,
			e.Resource,
			e.Action,
			strconv.FormatBool(e.Granted),
			e.Reason,
			string(e.EffectiveScope),
			string(e.RiskLevel),
			strconv.FormatBool(e.Fault),
		}
		if err := writer.Write(record); err != nil {
			return nil, fmt.Errorf("failed to write CSV record: %w", err)
		}
	}

	writer.Flush()
	if err := writer.Error(); err != nil {
		return nil, fmt.Errorf("failed to flush CSV: %w", err)
	}
	return buf.Bytes(), nil
}
