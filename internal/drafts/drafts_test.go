package drafts

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/synaptiq/synaptiq/admin-plane/pkg/models"
)

// recordingWriter captures resolution writes in order.
type recordingWriter struct {
	calls   []string
	created []models.Agent
	updated []models.Agent
	deleted []string
	failOn  map[string]error // call label -> error
}

func (w *recordingWriter) CreateAgent(_ context.Context, a *models.Agent) error {
	w.calls = append(w.calls, "create:"+a.Name)
	if err := w.failOn["create:"+a.Name]; err != nil {
		return err
	}
	w.created = append(w.created, *a)
	return nil
}

func (w *recordingWriter) UpdateAgent(_ context.Context, a *models.Agent) error {
	w.calls = append(w.calls, "update:"+a.ID)
	if err := w.failOn["update:"+a.ID]; err != nil {
		return err
	}
	w.updated = append(w.updated, *a)
	return nil
}

func (w *recordingWriter) DeleteAgent(_ context.Context, id string) error {
	w.calls = append(w.calls, "delete:"+id)
	if err := w.failOn["delete:"+id]; err != nil {
		return err
	}
	w.deleted = append(w.deleted, id)
	return nil
}

func persisted(id, name string) models.Agent {
	return models.Agent{ID: id, Name: name, Function: models.FunctionAttendant, Reactive: true}
}

func fields(name string) models.AgentFields {
	return models.AgentFields{Name: name, Function: models.FunctionAttendant, Reactive: true}
}

func TestSeedUntagged(t *testing.T) {
	l := Seed([]models.Agent{persisted("a1", "First"), persisted("a2", "Second")})
	require.Equal(t, 2, l.Len())

	visible := l.Visible()
	require.Len(t, visible, 2)
	for _, v := range visible {
		assert.Equal(t, "existing", v.Status)
	}
}

func TestAddShowsAsNew(t *testing.T) {
	l := NewList()
	l.Add(fields("Newcomer"))

	visible := l.Visible()
	require.Len(t, visible, 1)
	assert.Equal(t, "new", visible[0].Status)
	assert.Empty(t, visible[0].ID)
}

func TestEditPersistedBecomesModified(t *testing.T) {
	l := Seed([]models.Agent{persisted("a1", "First")})
	require.NoError(t, l.Edit(0, fields("Renamed")))

	visible := l.Visible()
	require.Len(t, visible, 1)
	assert.Equal(t, "modified", visible[0].Status)
	assert.Equal(t, "Renamed", visible[0].Fields.Name)
}

func TestEditCreatedStaysNew(t *testing.T) {
	l := NewList()
	l.Add(fields("Draft"))
	require.NoError(t, l.Edit(0, fields("Draft v2")))

	visible := l.Visible()
	require.Len(t, visible, 1)
	assert.Equal(t, "new", visible[0].Status)
	assert.Equal(t, "Draft v2", visible[0].Fields.Name)

	// Still a single insert on resolve, no update against a row that
	// doesn't exist yet.
	w := &recordingWriter{}
	res := l.Resolve(context.Background(), w, "nc-1")
	assert.Equal(t, 1, res.Created)
	assert.Equal(t, []string{"create:Draft v2"}, w.calls)
}

func TestRemoveCreatedVanishes(t *testing.T) {
	l := Seed([]models.Agent{persisted("a1", "First")})
	l.Add(fields("Ephemeral"))
	require.Equal(t, 2, l.Len())

	require.NoError(t, l.Remove(1))
	assert.Equal(t, 1, l.Len(), "created entry must be spliced out entirely")

	w := &recordingWriter{}
	res := l.Resolve(context.Background(), w, "nc-1")
	assert.Zero(t, res.Created+res.Updated+res.Deleted)
	assert.Empty(t, w.calls, "no delete call for a row that never existed")
}

func TestRemovePersistedKeepsEntry(t *testing.T) {
	l := Seed([]models.Agent{persisted("a1", "First"), persisted("a2", "Second")})
	require.NoError(t, l.Remove(1))

	assert.Equal(t, 2, l.Len(), "delete-tagged entry stays in the list")
	visible := l.Visible()
	require.Len(t, visible, 1)
	assert.Equal(t, "a1", visible[0].ID)
}

func TestEditDeletedPanics(t *testing.T) {
	l := Seed([]models.Agent{persisted("a1", "First")})
	require.NoError(t, l.Remove(0))

	// Deleted lets callers holding external indexes avoid the assert.
	assert.True(t, l.Deleted(0))
	assert.False(t, l.Deleted(1))
	assert.False(t, l.Deleted(-1))

	assert.Panics(t, func() { _ = l.Edit(0, fields("Zombie")) })
}

func TestIndexOutOfRange(t *testing.T) {
	l := NewList()
	assert.Error(t, l.Edit(0, fields("x")))
	assert.Error(t, l.Remove(-1))
}

// Scenario: neurocore with persisted A1, A2. A1 renamed, A3 added, A2
// removed. During editing the visible list is [A1(modified), A3(new)];
// saving issues update(A1), insert(A3), delete(A2).
func TestEditScenario(t *testing.T) {
	l := Seed([]models.Agent{persisted("a1", "A1"), persisted("a2", "A2")})
	require.NoError(t, l.Edit(0, fields("A1 renamed")))
	l.Add(fields("A3"))
	require.NoError(t, l.Remove(1))

	visible := l.Visible()
	require.Len(t, visible, 2)
	assert.Equal(t, "modified", visible[0].Status)
	assert.Equal(t, "A1 renamed", visible[0].Fields.Name)
	assert.Equal(t, "new", visible[1].Status)
	assert.Equal(t, "A3", visible[1].Fields.Name)

	w := &recordingWriter{}
	res := l.Resolve(context.Background(), w, "nc-1")
	assert.Equal(t, Result{Created: 1, Updated: 1, Deleted: 1}, res)

	// Writes follow list order, one per tagged entry.
	assert.Equal(t, []string{"update:a1", "delete:a2", "create:A3"}, w.calls)
	require.Len(t, w.created, 1)
	assert.Equal(t, "nc-1", w.created[0].NeurocoreID)
	assert.NotEmpty(t, w.created[0].ID)
}

func TestResolveUntaggedIsNoop(t *testing.T) {
	l := Seed([]models.Agent{persisted("a1", "First")})
	w := &recordingWriter{}
	res := l.Resolve(context.Background(), w, "nc-1")
	assert.Zero(t, res.Created+res.Updated+res.Deleted)
	assert.Empty(t, w.calls)
}

func TestResolveAtMostOnce(t *testing.T) {
	l := NewList()
	l.Add(fields("Once"))

	w := &recordingWriter{}
	first := l.Resolve(context.Background(), w, "nc-1")
	assert.Equal(t, 1, first.Created)

	second := l.Resolve(context.Background(), w, "nc-1")
	assert.Zero(t, second.Created)
	assert.Len(t, w.calls, 1, "retried submit must not re-issue writes")
}

func TestResolvePartialFailure(t *testing.T) {
	l := Seed([]models.Agent{persisted("a1", "A1"), persisted("a2", "A2")})
	require.NoError(t, l.Edit(0, fields("A1 v2")))
	require.NoError(t, l.Remove(1))
	l.Add(fields("A3"))

	boom := errors.New("connection reset")
	w := &recordingWriter{failOn: map[string]error{"delete:a2": boom}}
	res := l.Resolve(context.Background(), w, "nc-1")

	// The failing delete is reported but does not block siblings.
	assert.Equal(t, 1, res.Updated)
	assert.Equal(t, 1, res.Created)
	assert.Zero(t, res.Deleted)
	require.Len(t, res.Failures, 1)
	assert.Equal(t, ActionDelete, res.Failures[0].Action)
	assert.ErrorIs(t, res.Failures[0].Err, boom)
}

func TestDeleteUsesOriginalID(t *testing.T) {
	l := Seed([]models.Agent{persisted("a1", "First")})
	require.NoError(t, l.Edit(0, fields("Edited before removal")))
	require.NoError(t, l.Remove(0))

	w := &recordingWriter{}
	l.Resolve(context.Background(), w, "nc-1")
	assert.Equal(t, []string{"delete:a1"}, w.calls)
}

func TestSessionLifecycle(t *testing.T) {
	m := NewManager(time.Hour)
	defer m.Shutdown()

	s := m.Open("nc-1", []models.Agent{persisted("a1", "First")})
	got, err := m.Get(s.ID)
	require.NoError(t, err)
	assert.Equal(t, "nc-1", got.NeurocoreID)

	got.WithList(func(l *List) {
		l.Add(fields("A2"))
		assert.Len(t, l.Visible(), 2)
	})

	m.Close(s.ID)
	_, err = m.Get(s.ID)
	assert.Error(t, err)
}

func TestSessionSweep(t *testing.T) {
	m := NewManager(10 * time.Millisecond)
	defer m.Shutdown()

	s := m.Open("", nil)
	time.Sleep(20 * time.Millisecond)
	m.sweep()

	_, err := m.Get(s.ID)
	assert.Error(t, err)
}
