package metrics

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
)

// reportEntry fixes the key order of a report object.
type reportEntry struct {
	GroupID    string `json:"groupId"`
	ArtifactID string `json:"artifactId"`
	Phase      string `json:"phase"`
	Goal       string `json:"goal"`
	ID         string `json:"id"`
	ThreadID   int64  `json:"threadId"`
	Start      int64  `json:"start"`
	End        *int64 `json:"end"`
}

// Render serializes records as a compact JSON array, preserving their order.
func Render(records []TimingRecord) ([]byte, error) {
	entries := make([]reportEntry, 0, len(records))
	for _, r := range records {
		entries = append(entries, reportEntry{
			GroupID:    r.Key.GroupID,
			ArtifactID: r.Key.ArtifactID,
			Phase:      r.Key.Phase,
			Goal:       r.Key.Goal,
			ID:         r.Key.ExecutionID,
			ThreadID:   r.WorkerID,
			Start:      r.Start,
			End:        r.End,
		})
	}

	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(entries); err != nil {
		return nil, fmt.Errorf("failed to encode report: %w", err)
	}
	return bytes.TrimSuffix(buf.Bytes(), []byte("\n")), nil
}

func WriteReport(w io.Writer, records []TimingRecord) error {
	data, err := Render(records)
	if err != nil {
		return err
	}
	_, err = w.Write(data)
	return err
}
