// Package trace converts step timings into the Chrome trace event format,
// viewable in chrome://tracing or https://ui.perfetto.dev. Each worker is
// rendered as its own thread lane.
package trace

import (
	"bytes"
	"encoding/json"
	"fmt"
	"path/filepath"
	"sort"

	"github.com/spf13/afero"

	"github.com/elskow/buildevents/internal/metrics"
)

const buildPID = 1

type Event struct {
	Name      string         `json:"name"`
	Cat       string         `json:"cat"`
	Phase     string         `json:"ph"`
	Timestamp int64          `json:"ts"`  // micro seconds
	Dur       int64          `json:"dur"` // micro seconds
	Pid       int            `json:"pid"`
	Tid       int64          `json:"tid"`
	Args      map[string]any `json:"args"`
}

type File struct {
	TraceEvents     []Event `json:"traceEvents"`
	DisplayTimeUnit string  `json:"displayTimeUnit"`
}

// Convert emits one complete event per finished record, ordered by worker
// and start time. Records that never ended are left out.
func Convert(records []metrics.TimingRecord) []Event {
	events := make([]Event, 0, len(records))
	for _, r := range records {
		dur, ok := r.Duration()
		if !ok {
			continue
		}
		events = append(events, Event{
			Name:      r.Key.ArtifactID + ":" + r.Key.Goal,
			Cat:       r.Key.Phase,
			Phase:     "X",
			Timestamp: r.Start * 1000,
			Dur:       dur * 1000,
			Pid:       buildPID,
			Tid:       r.WorkerID,
			Args: map[string]any{
				"groupId":     r.Key.GroupID,
				"executionId": r.Key.ExecutionID,
				"outcome":     string(r.Outcome),
			},
		})
	}

	sort.Slice(events, func(i, j int) bool {
		if events[i].Tid != events[j].Tid {
			return events[i].Tid < events[j].Tid
		}
		if events[i].Timestamp != events[j].Timestamp {
			return events[i].Timestamp < events[j].Timestamp
		}
		return events[i].Name < events[j].Name
	})
	return events
}

// Write stores the trace of records at path, creating parent directories.
func Write(fs afero.Fs, path string, records []metrics.TimingRecord) error {
	if err := fs.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create trace directory: %w", err)
	}

	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(File{TraceEvents: Convert(records), DisplayTimeUnit: "ms"}); err != nil {
		return fmt.Errorf("failed to encode trace: %w", err)
	}

	if err := afero.WriteFile(fs, path, buf.Bytes(), 0644); err != nil {
		return fmt.Errorf("failed to write trace %s: %w", path, err)
	}
	return nil
}
