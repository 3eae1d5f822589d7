package metrics

import (
	"github.com/cespare/xxhash/v2"

	"github.com/elskow/buildevents/internal/pipeline/types"
)

// StepKey identifies a single step execution within a session.
type StepKey struct {
	GroupID     string
	ArtifactID  string
	Phase       string
	Goal        string
	ExecutionID string
}

func NewStepKey(groupID, artifactID, phase, goal, executionID string) StepKey {
	return StepKey{
		GroupID:     groupID,
		ArtifactID:  artifactID,
		Phase:       phase,
		Goal:        goal,
		ExecutionID: executionID,
	}
}

// KeyFromEvent derives the lookup key of a lifecycle event.
func KeyFromEvent(ev types.Event) StepKey {
	return NewStepKey(ev.GroupID, ev.ArtifactID, ev.Phase, ev.Goal, ev.ExecutionID)
}

// Hash is stable across processes. Fields are NUL separated so that
// shifting bytes between adjacent fields changes the digest.
func (k StepKey) Hash() uint64 {
	d := xxhash.New()
	for i, field := range [...]string{k.GroupID, k.ArtifactID, k.Phase, k.Goal, k.ExecutionID} {
		if i > 0 {
			_, _ = d.Write([]byte{0})
		}
		_, _ = d.WriteString(field)
	}
	return d.Sum64()
}

func (k StepKey) String() string {
	return k.GroupID + ":" + k.ArtifactID + ":" + k.Phase + ":" + k.Goal + "@" + k.ExecutionID
}
