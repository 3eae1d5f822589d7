package metrics

import (
	"sync"

	"github.com/spf13/afero"
)

type Outcome string

const (
	OutcomeStarted   Outcome = "started"
	OutcomeSucceeded Outcome = "succeeded"
	OutcomeFailed    Outcome = "failed"
	OutcomeSkipped   Outcome = "skipped"
)

// shardCount must stay a power of two.
const shardCount = 32

// TimingRecord holds the timing of one step. Start and End are
// milliseconds since the session started; End is nil while the step runs.
type TimingRecord struct {
	Key      StepKey
	WorkerID int64
	Start    int64
	End      *int64
	Outcome  Outcome
}

func (r TimingRecord) Duration() (int64, bool) {
	if r.End == nil {
		return 0, false
	}
	return *r.End - r.Start, true
}

type shard struct {
	mu      sync.RWMutex
	records map[StepKey]*TimingRecord
}

// MetricStore maps step keys to timing records. It is safe for concurrent
// use; each key hashes to one of a fixed set of independently locked shards.
type MetricStore struct {
	fs     afero.Fs
	shards [shardCount]*shard
}

func NewMetricStore(fs afero.Fs) *MetricStore {
	ms := &MetricStore{fs: fs}
	for i := range ms.shards {
		ms.shards[i] = &shard{
			records: make(map[StepKey]*TimingRecord),
		}
	}
	return ms
}

func (ms *MetricStore) shardFor(key StepKey) *shard {
	return ms.shards[key.Hash()&(shardCount-1)]
}

// RecordStart registers a started step, replacing any record already held
// for the same key.
func (ms *MetricStore) RecordStart(key StepKey, workerID int64, nowMillis int64) {
	s := ms.shardFor(key)
	s.mu.Lock()
	defer s.mu.Unlock()

	s.records[key] = &TimingRecord{
		Key:      key,
		WorkerID: workerID,
		Start:    nowMillis,
		Outcome:  OutcomeStarted,
	}
}

// RecordEnd marks the step as ended. Keys that were never started are ignored.
func (ms *MetricStore) RecordEnd(key StepKey, nowMillis int64) {
	ms.RecordOutcome(key, nowMillis, OutcomeSucceeded)
}

// RecordOutcome is RecordEnd with the reason the step ended.
func (ms *MetricStore) RecordOutcome(key StepKey, nowMillis int64, outcome Outcome) {
	s := ms.shardFor(key)
	s.mu.Lock()
	defer s.mu.Unlock()

	if r, exists := s.records[key]; exists {
		end := nowMillis
		r.End = &end
		r.Outcome = outcome
	}
}

// Snapshot copies the current records. Shards are read one at a time, so
// concurrent writers may land on either side of the copy.
func (ms *MetricStore) Snapshot() []TimingRecord {
	records := make([]TimingRecord, 0, ms.Len())
	for _, s := range ms.shards {
		s.mu.RLock()
		for _, r := range s.records {
			rec := *r
			if r.End != nil {
				end := *r.End
				rec.End = &end
			}
			records = append(records, rec)
		}
		s.mu.RUnlock()
	}
	return records
}

func (ms *MetricStore) Len() int {
	n := 0
	for _, s := range ms.shards {
		s.mu.RLock()
		n += len(s.records)
		s.mu.RUnlock()
	}
	return n
}
