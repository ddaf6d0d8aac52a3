package mirror

import (
	"io"
	"sync"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/imx/internal/models"
)

// Snapshot is the immutable render state handed to the view's callback.
type Snapshot struct {
	Sequence  []models.Image // derived display order
	Selected  []string       // pruned selection, sorted
	Workflow  WorkflowState
	Inflight  []string // ids captured by the active submission
	Exhausted bool     // no further pages available
	Version   uint64
	Err       error    // last fetch or submission error, cleared on the next success
	Rejected  []string // ids the controller rejected on the last submission
}

// RenderFunc receives a fresh [Snapshot] after every state change.
type RenderFunc func(Snapshot)

// ViewOpts configures a [View].
type ViewOpts struct {
	PageSize int
	Policy   Policy
	Logger   *log.Logger
	OnRender RenderFunc
}

// View owns one list-view instance's state: the KnownSet, derivation policy,
// selection, and delete workflow.
//
// The view performs no I/O. Drivers fetch pages, pump subscription events, and
// submit deletions, then hand results to the Ingest/Resolve methods. All
// methods are safe for concurrent use; after Close every ingestion is a no-op
// so late completions cannot touch a disposed view.
type View struct {
	mu        sync.Mutex
	set       *KnownSet
	policy    Policy
	selection *Selection
	workflow  *Workflow

	render      RenderFunc
	logger      *log.Logger
	pageSize    int
	exhausted   bool
	closed      bool
	lastErr     error
	rejected    []string
	unsubscribe func()
}

// NewView creates a View with the given options. PageSize defaults to 25.
func NewView(opts ViewOpts) *View {
	if opts.PageSize <= 0 {
		opts.PageSize = 25
	}
	if opts.Logger == nil {
		opts.Logger = log.New(io.Discard)
	}
	return &View{
		set:       NewKnownSet(opts.Logger),
		policy:    opts.Policy,
		selection: NewSelection(),
		workflow:  NewWorkflow(),
		render:    opts.OnRender,
		logger:    opts.Logger,
		pageSize:  opts.PageSize,
	}
}

// PageSize returns the configured fetch page size.
func (v *View) PageSize() int { return v.pageSize }

// NextOffset returns the offset for the next page request and whether a
// request should be issued at all. The offset equals the current known size,
// which is why the driver must never overlap page requests: a second request
// computed before the first merge lands would fetch a duplicate range.
func (v *View) NextOffset() (int, bool) {
	v.mu.Lock()
	defer v.mu.Unlock()
	if v.closed || v.exhausted {
		return 0, false
	}
	return v.set.Len(), true
}

// KnownLen returns the number of known records.
func (v *View) KnownLen() int {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.set.Len()
}

// IngestPage merges one fetched page. A page shorter than requested signals
// exhaustion and disables further paging until a refresh resets it.
func (v *View) IngestPage(page []models.Image, requested int) {
	v.mu.Lock()
	if v.closed {
		v.mu.Unlock()
		return
	}

	changed := v.set.MergePage(page)
	if len(page) < requested {
		v.exhausted = true
		changed = true
	}
	v.lastErr = nil

	snap := v.snapshotLocked()
	v.mu.Unlock()
	if changed {
		v.notify(snap)
	}
}

// ResetExhausted re-enables paging; the periodic refresh uses this after
// re-walking the known range, since new images may have appeared since the
// last end-of-data signal.
func (v *View) ResetExhausted() {
	v.mu.Lock()
	if v.closed {
		v.mu.Unlock()
		return
	}
	v.exhausted = false
	v.mu.Unlock()
}

// IngestDeletion applies one deletion event from the subscription stream.
func (v *View) IngestDeletion(ev models.DeletionEvent) {
	v.mu.Lock()
	if v.closed {
		v.mu.Unlock()
		return
	}

	changed := v.set.ApplyDeletion(ev)
	snap := v.snapshotLocked()
	v.mu.Unlock()
	if changed {
		v.notify(snap)
	}
}

// IngestFetchError surfaces a failed page fetch. The known set is untouched
// and paging stays retryable.
func (v *View) IngestFetchError(err error) {
	v.mu.Lock()
	if v.closed {
		v.mu.Unlock()
		return
	}
	v.lastErr = err
	snap := v.snapshotLocked()
	v.mu.Unlock()
	v.notify(snap)
}

// ToggleSelect flips selection membership for id and reports the new state.
func (v *View) ToggleSelect(id string) bool {
	v.mu.Lock()
	if v.closed {
		v.mu.Unlock()
		return false
	}
	selected := v.selection.Toggle(id)
	snap := v.snapshotLocked()
	v.mu.Unlock()
	v.notify(snap)
	return selected
}

// RequestDelete opens the confirmation dialog for the current selection.
// An empty (post-prune) selection is a no-op, not an error.
func (v *View) RequestDelete() bool {
	v.mu.Lock()
	if v.closed {
		v.mu.Unlock()
		return false
	}

	v.selection.Prune(v.policy.Derive(v.set))
	if v.selection.Count() == 0 {
		v.mu.Unlock()
		return false
	}

	ok := v.workflow.Request()
	snap := v.snapshotLocked()
	v.mu.Unlock()
	if ok {
		v.notify(snap)
	}
	return ok
}

// CancelDelete dismisses the confirmation dialog, keeping the selection.
func (v *View) CancelDelete() bool {
	v.mu.Lock()
	if v.closed {
		v.mu.Unlock()
		return false
	}
	ok := v.workflow.Cancel()
	snap := v.snapshotLocked()
	v.mu.Unlock()
	if ok {
		v.notify(snap)
	}
	return ok
}

// ConfirmDelete captures the selection as one batch submission and returns the
// ids the driver must send. The ids are fixed at confirmation; later selection
// changes cannot alter the in-flight request.
func (v *View) ConfirmDelete() ([]string, bool) {
	v.mu.Lock()
	if v.closed {
		v.mu.Unlock()
		return nil, false
	}

	v.selection.Prune(v.policy.Derive(v.set))
	ids := v.selection.IDs()
	ok := v.workflow.Confirm(ids)
	snap := v.snapshotLocked()
	v.mu.Unlock()
	if ok {
		v.notify(snap)
	}
	return ids, ok
}

// ResolveDelete records the submission outcome. The selection clears either
// way and the workflow returns to idle; actual removal from the list is driven
// solely by deletion events, since the controller's acknowledgment does not
// mean the fleet has converged.
func (v *View) ResolveDelete(rejected []string, err error) {
	v.mu.Lock()
	if v.closed {
		v.mu.Unlock()
		return
	}

	if !v.workflow.Resolve() {
		v.mu.Unlock()
		return
	}
	v.selection.Clear()
	v.lastErr = err
	v.rejected = rejected

	snap := v.snapshotLocked()
	v.mu.Unlock()
	v.notify(snap)
}

// Snapshot derives the current render state, pruning the selection first so
// the subset invariant holds at every read.
func (v *View) Snapshot() Snapshot {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.snapshotLocked()
}

// SetUnsubscribe stores the subscription release handle invoked on Close.
// A handle arriving after disposal is released immediately.
func (v *View) SetUnsubscribe(fn func()) {
	v.mu.Lock()
	if v.closed {
		v.mu.Unlock()
		if fn != nil {
			fn()
		}
		return
	}
	v.unsubscribe = fn
	v.mu.Unlock()
}

// Close disposes the view. Pending fetch, event, and submission completions
// become no-ops and the subscription handle, if any, is released.
func (v *View) Close() {
	v.mu.Lock()
	if v.closed {
		v.mu.Unlock()
		return
	}
	v.closed = true
	unsub := v.unsubscribe
	v.unsubscribe = nil
	v.mu.Unlock()

	if unsub != nil {
		unsub()
	}
}

// Closed reports whether the view has been disposed.
func (v *View) Closed() bool {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.closed
}

func (v *View) snapshotLocked() Snapshot {
	sequence := v.policy.Derive(v.set)
	v.selection.Prune(sequence)

	return Snapshot{
		Sequence:  sequence,
		Selected:  v.selection.IDs(),
		Workflow:  v.workflow.State(),
		Inflight:  v.workflow.Inflight(),
		Exhausted: v.exhausted,
		Version:   v.set.Version(),
		Err:       v.lastErr,
		Rejected:  v.rejected,
	}
}

func (v *View) notify(snap Snapshot) {
	if v.render != nil {
		v.render(snap)
	}
}
