package mirror

// WorkflowState enumerates the bulk-delete workflow's states.
type WorkflowState int

const (
	WorkflowIdle WorkflowState = iota
	WorkflowConfirming
	WorkflowSubmitting
)

func (s WorkflowState) String() string {
	switch s {
	case WorkflowIdle:
		return "idle"
	case WorkflowConfirming:
		return "confirming"
	case WorkflowSubmitting:
		return "submitting"
	default:
		return ""
	}
}

// Workflow is the bulk-delete state machine.
//
// One submission is in flight at a time. The submitted id set is captured at
// confirmation so later selection changes cannot alter an in-flight request.
type Workflow struct {
	state    WorkflowState
	inflight []string
}

// NewWorkflow creates a Workflow in the idle state.
func NewWorkflow() *Workflow {
	return &Workflow{state: WorkflowIdle}
}

// State returns the current workflow state.
func (w *Workflow) State() WorkflowState { return w.state }

// Inflight returns the ids captured by the current submission, if any.
func (w *Workflow) Inflight() []string { return w.inflight }

// Request moves idle → confirming. Returns false when the workflow is not
// idle; requesting with an empty selection is the caller's no-op to enforce.
func (w *Workflow) Request() bool {
	if w.state != WorkflowIdle {
		return false
	}
	w.state = WorkflowConfirming
	return true
}

// Cancel moves confirming → idle without touching the selection.
func (w *Workflow) Cancel() bool {
	if w.state != WorkflowConfirming {
		return false
	}
	w.state = WorkflowIdle
	return true
}

// Confirm moves confirming → submitting, capturing ids as the batch to submit.
func (w *Workflow) Confirm(ids []string) bool {
	if w.state != WorkflowConfirming || len(ids) == 0 {
		return false
	}
	w.state = WorkflowSubmitting
	w.inflight = ids
	return true
}

// Resolve moves submitting → idle once the request finished, in success or
// failure. The outcome never removes images: that is the deletion event
// stream's job.
func (w *Workflow) Resolve() bool {
	if w.state != WorkflowSubmitting {
		return false
	}
	w.state = WorkflowIdle
	w.inflight = nil
	return true
}
