// Package drafts implements the pending-action list used when editing a
// neurocore's agents. Changes accumulate in memory as tagged entries and are
// committed as individual writes once the neurocore itself has been saved.
package drafts

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/synaptiq/synaptiq/admin-plane/pkg/models"
)

// Action tags an entry with the write it will generate on save.
type Action string

const (
	// ActionNone marks a persisted agent left untouched.
	ActionNone   Action = ""
	ActionCreate Action = "create"
	ActionUpdate Action = "update"
	ActionDelete Action = "delete"
)

// Entry is one agent in the draft list. ID is empty until the agent has
// been persisted.
type Entry struct {
	ID     string             `json:"id,omitempty"`
	Fields models.AgentFields `json:"fields"`
	Action Action             `json:"action,omitempty"`
}

// List holds the draft entries for one edit session. Not safe for
// concurrent use; the owning session serializes access.
type List struct {
	entries  []Entry
	resolved bool
}

// NewList returns an empty draft list, used when creating a neurocore that
// has no agents yet.
func NewList() *List {
	return &List{}
}

// Seed builds a draft list from the persisted agents of a neurocore, each
// entry untagged.
func Seed(agents []models.Agent) *List {
	l := &List{entries: make([]Entry, len(agents))}
	for i, a := range agents {
		l.entries[i] = Entry{
			ID: a.ID,
			Fields: models.AgentFields{
				Name:     a.Name,
				Function: a.Function,
				Reactive: a.Reactive,
			},
		}
	}
	return l
}

// Add appends a new entry tagged create. It has no persisted identity until
// the list is resolved.
func (l *List) Add(fields models.AgentFields) {
	l.entries = append(l.entries, Entry{Fields: fields, Action: ActionCreate})
}

// Edit replaces the fields of the entry at index. A persisted entry becomes
// update; an entry still tagged create stays create (it is still just "to be
// created", with new values).
//
// Deleted entries are hidden from callers, so editing one indicates a bug in
// the caller and panics.
func (l *List) Edit(index int, fields models.AgentFields) error {
	if index < 0 || index >= len(l.entries) {
		return fmt.Errorf("draft entry %d out of range", index)
	}
	e := &l.entries[index]
	if e.Action == ActionDelete {
		panic("drafts: edit of delete-tagged entry")
	}
	e.Fields = fields
	if e.ID != "" && e.Action != ActionCreate {
		e.Action = ActionUpdate
	}
	return nil
}

// Remove drops or tags the entry at index. A persisted entry is kept and
// tagged delete so its row id survives until resolution; an unpersisted
// create entry is spliced out, there is nothing to delete remotely.
func (l *List) Remove(index int) error {
	if index < 0 || index >= len(l.entries) {
		return fmt.Errorf("draft entry %d out of range", index)
	}
	if l.entries[index].ID == "" {
		l.entries = append(l.entries[:index], l.entries[index+1:]...)
		return nil
	}
	l.entries[index].Action = ActionDelete
	return nil
}

// VisibleEntry is a draft entry as shown to the caller, with its position in
// the full list (the index Edit and Remove expect) and a display status.
type VisibleEntry struct {
	Index  int                `json:"index"`
	ID     string             `json:"id,omitempty"`
	Fields models.AgentFields `json:"fields"`
	Status string             `json:"status"` // "new", "modified" or "existing"
}

// Visible returns the entries not tagged delete, in list order.
func (l *List) Visible() []VisibleEntry {
	visible := make([]VisibleEntry, 0, len(l.entries))
	for i, e := range l.entries {
		if e.Action == ActionDelete {
			continue
		}
		status := "existing"
		switch e.Action {
		case ActionCreate:
			status = "new"
		case ActionUpdate:
			status = "modified"
		}
		visible = append(visible, VisibleEntry{Index: i, ID: e.ID, Fields: e.Fields, Status: status})
	}
	return visible
}

// Len returns the full list length, delete-tagged entries included.
func (l *List) Len() int { return len(l.entries) }

// Deleted reports whether the entry at index is delete-tagged. Callers taking
// indexes from outside must check this before Edit. Out-of-range indexes
// report false; Edit and Remove reject those themselves.
func (l *List) Deleted(index int) bool {
	return index >= 0 && index < len(l.entries) && l.entries[index].Action == ActionDelete
}

// AgentWriter is the slice of the store the resolver needs.
type AgentWriter interface {
	CreateAgent(ctx context.Context, agent *models.Agent) error
	UpdateAgent(ctx context.Context, agent *models.Agent) error
	DeleteAgent(ctx context.Context, id string) error
}

// Failure records one entry whose write failed during resolution. Message
// carries the error text for clients; Err keeps the wrapped error.
type Failure struct {
	Index   int    `json:"index"`
	Action  Action `json:"action"`
	Name    string `json:"name"`
	Message string `json:"message"`
	Err     error  `json:"-"`
}

// Result summarizes a resolution pass.
type Result struct {
	Created  int       `json:"created"`
	Updated  int       `json:"updated"`
	Deleted  int       `json:"deleted"`
	Failures []Failure `json:"failures,omitempty"`
}

// Resolve walks the full list in order and issues one write per tagged
// entry: create inserts under neurocoreID, update and delete go by the
// entry's persisted id. Writes are independent; a failure is recorded and
// the walk continues. A list resolves at most once — calling Resolve again
// without re-seeding issues no writes.
func (l *List) Resolve(ctx context.Context, w AgentWriter, neurocoreID string) Result {
	var res Result
	if l.resolved {
		return res
	}
	l.resolved = true

	now := time.Now().UTC()
	for i, e := range l.entries {
		var err error
		switch e.Action {
		case ActionCreate:
			err = w.CreateAgent(ctx, &models.Agent{
				ID:          uuid.NewString(),
				Name:        e.Fields.Name,
				Function:    e.Fields.Function,
				Reactive:    e.Fields.Reactive,
				NeurocoreID: neurocoreID,
				CreatedAt:   now,
				UpdatedAt:   now,
			})
			if err == nil {
				res.Created++
			}
		case ActionUpdate:
			err = w.UpdateAgent(ctx, &models.Agent{
				ID:       e.ID,
				Name:     e.Fields.Name,
				Function: e.Fields.Function,
				Reactive: e.Fields.Reactive,
			})
			if err == nil {
				res.Updated++
			}
		case ActionDelete:
			err = w.DeleteAgent(ctx, e.ID)
			if err == nil {
				res.Deleted++
			}
		default:
			// Untouched persisted agent, nothing to write.
		}
		if err != nil {
			res.Failures = append(res.Failures, Failure{
				Index:   i,
				Action:  e.Action,
				Name:    e.Fields.Name,
				Message: err.Error(),
				Err:     err,
			})
		}
	}
	return res
}
