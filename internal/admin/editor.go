package admin

import (
	"context"
	"sync"

	"shophub/internal/model"
)

// State is the lifecycle position of the admin draft.
type State string

const (
	StateEmpty           State = "empty"
	StateEditingNew      State = "editing_new"
	StateEditingExisting State = "editing_existing"
)

// Submitter sends a draft to the backend.
type Submitter interface {
	Submit(ctx context.Context, draft model.Draft, mode Mode, targetID string) (*model.Product, error)
}

// DraftState is a copy of the editor contents.
type DraftState struct {
	State    State       `json:"state"`
	Mode     Mode        `json:"mode,omitempty"`
	TargetID string      `json:"targetId,omitempty"`
	Draft    model.Draft `json:"draft"`
	HasImage bool        `json:"hasImage"`
}

// Editor holds the single draft of an admin session. Starting a new draft
// replaces the current one and its unsaved changes are lost.
type Editor struct {
	mu       sync.Mutex
	state    State
	draft    model.Draft
	targetID string
	rev      uint64
}

// NewEditor creates an editor with no draft.
func NewEditor() *Editor {
	return &Editor{state: StateEmpty}
}

// StartCreate opens an empty draft for a new product.
func (e *Editor) StartCreate() {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.open(StateEditingNew, model.Draft{}, "")
}

// StartEdit opens a draft pre-populated from p.
func (e *Editor) StartEdit(p model.Product) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.open(StateEditingExisting, model.DraftFromProduct(p), p.ID)
}

// Update applies fn to the open draft.
func (e *Editor) Update(fn func(d *model.Draft)) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.state == StateEmpty {
		return model.ErrNoDraft
	}
	fn(&e.draft)
	e.rev++
	return nil
}

// Cancel discards the draft.
func (e *Editor) Cancel() {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.open(StateEmpty, model.Draft{}, "")
}

// Current returns a copy of the editor contents.
func (e *Editor) Current() DraftState {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.current()
}

// Submit sends the open draft through s and reports the mode it was sent
// with. On success the editor returns to empty, unless the draft was
// replaced or changed while the request was in flight. On failure the draft
// is kept as it was.
func (e *Editor) Submit(ctx context.Context, s Submitter) (*model.Product, Mode, error) {
	e.mu.Lock()
	if e.state == StateEmpty {
		e.mu.Unlock()
		return nil, "", model.ErrNoDraft
	}
	cur := e.current()
	rev := e.rev
	e.mu.Unlock()

	product, err := s.Submit(ctx, cur.Draft, cur.Mode, cur.TargetID)
	if err != nil {
		return nil, cur.Mode, err
	}

	e.mu.Lock()
	if e.rev == rev {
		e.open(StateEmpty, model.Draft{}, "")
	}
	e.mu.Unlock()

	return product, cur.Mode, nil
}

func (e *Editor) open(state State, draft model.Draft, targetID string) {
	e.state = state
	e.draft = draft
	e.targetID = targetID
	e.rev++
}

func (e *Editor) current() DraftState {
	ds := DraftState{
		State:    e.state,
		TargetID: e.targetID,
		Draft:    e.draft,
		HasImage: e.draft.Image != nil,
	}
	switch e.state {
	case StateEditingNew:
		ds.Mode = ModeCreate
	case StateEditingExisting:
		ds.Mode = ModeUpdate
	}
	return ds
}
