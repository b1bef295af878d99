package deploy

import "fmt"

// State names a step of the deploy state machine.
type State string

const (
	StateStart          State = "start"
	StateWorkspaceReady State = "workspace_ready"
	StateCloned         State = "cloned"
	StateBranchReady    State = "branch_ready"
	StateBuilt          State = "built"
	StateNoOpDone       State = "noop_done"
	StateDeploySkipped  State = "deploy_skipped"
	StateCommitted      State = "committed"
	StatePushed         State = "pushed"
	StateDone           State = "done"
	StateFailed         State = "failed"
)

// BranchKind describes how the destination branch was obtained.
type BranchKind int

const (
	NotCloned BranchKind = iota
	TrackingRemote
	Orphan
)

// BranchState is the destination branch together with how it was obtained.
type BranchState struct {
	Kind BranchKind
	Name string
}

func (s BranchState) String() string {
	switch s.Kind {
	case TrackingRemote:
		return fmt.Sprintf("tracking(%s)", s.Name)
	case Orphan:
		return fmt.Sprintf("orphan(%s)", s.Name)
	default:
		return "not_cloned"
	}
}

// ChangeOutcome is the workspace status after the build step.
type ChangeOutcome int

const (
	NoChanges ChangeOutcome = iota
	HasChanges
)

// DeployContext is the mutable state of a single run.
type DeployContext struct {
	SourceDir   string
	Workspace   string
	Branch      string
	RemoteURL   string
	BranchState BranchState
}

// Result captures the outcome of a single run. Outcome is the terminal state:
// StateNoOpDone, StateDeploySkipped, StatePushed, or StateFailed.
type Result struct {
	Outcome State
	Reason  string
	Context DeployContext
	Trail   []State
}

// Pushed reports whether the run modified the remote.
func (r Result) Pushed() bool {
	return r.Outcome == StatePushed
}
