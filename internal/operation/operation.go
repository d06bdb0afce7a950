// Package operation tracks a single retrieval: its scratch directory, the
// stage it has reached, and the lock guarding its target directory.
package operation

import (
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/ZebulonRouseFrantzich/torfetch/internal/fsutil"
	"github.com/ZebulonRouseFrantzich/torfetch/internal/logging"
)

// State is the stage a retrieval has reached.
type State string

const (
	StateIdle            State = "idle"
	StateReleaseResolved State = "release_resolved"
	StateStaged          State = "staged"
	StateFetching        State = "fetching"
	StateUnpacking       State = "unpacking"
	StateRelocating      State = "relocating"
	StateDecompressing   State = "decompressing"
	StateCleaned         State = "cleaned"
	StateFailed          State = "failed"
)

// DirPrefix prefixes every scratch directory name.
const DirPrefix = "torfetch-"

// Operation is one retrieval run. It is not safe for concurrent Advance
// calls; the fan-out stages only read Dir.
type Operation struct {
	ID      uuid.UUID
	Dir     string
	Started time.Time

	fsys   fsutil.FS
	logger logging.Logger

	mu      sync.Mutex
	state   State
	history []State

	cleanupOnce sync.Once
	cleanupErr  error
}

// Option configures an Operation.
type Option func(*Operation)

// WithLogger sets the logger that records stage transitions.
func WithLogger(l logging.Logger) Option {
	return func(o *Operation) {
		o.logger = logging.OrNop(l)
	}
}

// New creates the scratch directory <parent>/torfetch-<uuid> and returns an
// Operation in StateIdle. An empty parent selects os.TempDir().
func New(fsys fsutil.FS, parent string, opts ...Option) (*Operation, error) {
	if fsys == nil {
		fsys = fsutil.OS()
	}
	if parent == "" {
		parent = os.TempDir()
	}

	id := uuid.New()
	op := &Operation{
		ID:      id,
		Dir:     filepath.Join(parent, DirPrefix+id.String()),
		Started: time.Now().UTC(),
		fsys:    fsys,
		logger:  logging.Nop(),
		state:   StateIdle,
		history: []State{StateIdle},
	}
	for _, opt := range opts {
		opt(op)
	}

	if err := fsys.Mkdir(op.Dir, 0o700); err != nil {
		return nil, err
	}
	op.logger.Debug("operation created", "id", op.ID.String(), "dir", op.Dir)
	return op, nil
}

// State returns the current stage.
func (o *Operation) State() State {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.state
}

// History returns every stage entered so far, oldest first.
func (o *Operation) History() []State {
	o.mu.Lock()
	defer o.mu.Unlock()
	out := make([]State, len(o.history))
	copy(out, o.history)
	return out
}

// Advance moves the operation into state.
func (o *Operation) Advance(state State) {
	o.mu.Lock()
	from := o.state
	o.state = state
	o.history = append(o.history, state)
	o.mu.Unlock()

	o.logger.Debug("operation stage", "id", o.ID.String(), "from", string(from), "to", string(state),
		"elapsed", time.Since(o.Started).String())
}

// Fail marks the operation as failed.
func (o *Operation) Fail() {
	o.Advance(StateFailed)
}

// Failed reports whether Fail was called at any point.
func (o *Operation) Failed() bool {
	for _, s := range o.History() {
		if s == StateFailed {
			return true
		}
	}
	return false
}

// Cleanup removes the scratch directory. Only the first call does any work;
// later calls return its result. A directory that is already gone is not an
// error.
func (o *Operation) Cleanup() error {
	o.cleanupOnce.Do(func() {
		if err := o.fsys.RemoveAll(o.Dir); err != nil {
			o.cleanupErr = err
			o.logger.Warn("operation cleanup failed", "id", o.ID.String(), "dir", o.Dir, "error", err)
			return
		}
		o.Advance(StateCleaned)
	})
	return o.cleanupErr
}
