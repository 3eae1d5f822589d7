package types

import (
	"fmt"
	"time"
)

type StepStatus string

const (
	StepStatusPending   StepStatus = "pending"
	StepStatusRunning   StepStatus = "running"
	StepStatusSuccess   StepStatus = "success"
	StepStatusFailed    StepStatus = "failed"
	StepStatusSkipped   StepStatus = "skipped"
	StepStatusCancelled StepStatus = "cancelled"
)

// Event is the payload of a step lifecycle callback. WorkerID is only
// meaningful for start events.
type Event struct {
	GroupID     string
	ArtifactID  string
	Phase       string
	Goal        string
	ExecutionID string
	WorkerID    int64
}

type Plan struct {
	Projects []Project `yaml:"projects"`
}

type Project struct {
	GroupID    string `yaml:"group_id"`
	ArtifactID string `yaml:"artifact_id"`
	Dir        string `yaml:"dir,omitempty"`
	Steps      []Step `yaml:"steps"`
}

type Step struct {
	Phase string `yaml:"phase"`
	Goal  string `yaml:"goal"`
	ID    string `yaml:"id,omitempty"`
	Run   string `yaml:"run,omitempty"`
	Skip  bool   `yaml:"skip,omitempty"`
}

// ExecutionID falls back to the orchestrator's default execution name.
func (s Step) ExecutionID() string {
	if s.ID != "" {
		return s.ID
	}
	return fmt.Sprintf("default-%s", s.Goal)
}

func (s Step) Name() string {
	return s.Phase + ":" + s.Goal + "@" + s.ExecutionID()
}

func (p Project) Name() string {
	return p.GroupID + ":" + p.ArtifactID
}

func (p Project) EventFor(step Step, workerID int64) Event {
	return Event{
		GroupID:     p.GroupID,
		ArtifactID:  p.ArtifactID,
		Phase:       step.Phase,
		Goal:        step.Goal,
		ExecutionID: step.ExecutionID(),
		WorkerID:    workerID,
	}
}

type StepResult struct {
	Project  string        `json:"project"`
	Step     string        `json:"step"`
	WorkerID int64         `json:"worker_id"`
	Status   StepStatus    `json:"status"`
	Duration time.Duration `json:"duration"`
	Error    error         `json:"-"`
}

type BuildResult struct {
	Success  bool
	Steps    []StepResult
	Duration time.Duration
	Error    error
}
