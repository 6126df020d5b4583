// AngelaMos | 2026
// projection_test.go

package roster

import (
	"context"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Dramos02/employee-directory/internal/employee"
)

func testLogger() *slog.Logger {
	return slog.New(slog.DiscardHandler)
}

func standardEmployee(id, name string) employee.Employee {
	return employee.Employee{
		ID:       id,
		Email:    id + "@example.com",
		FullName: name,
		Phone:    "09171234567",
		Role:     employee.RoleUser,
	}
}

func added(emp employee.Employee) employee.ChangeEvent {
	return employee.ChangeEvent{Kind: employee.ChangeAdded, Employee: emp}
}

func TestProjectionAppendsInEventOrder(t *testing.T) {
	p := NewProjection(testLogger())

	p.apply(added(standardEmployee("d1", "First")))
	p.apply(added(standardEmployee("d2", "Second")))
	p.apply(added(standardEmployee("d3", "Third")))

	snapshot := p.Snapshot()
	require.Len(t, snapshot, 3)
	assert.Equal(t, "d1", snapshot[0].ID)
	assert.Equal(t, "d2", snapshot[1].ID)
	assert.Equal(t, "d3", snapshot[2].ID)
}

func TestProjectionIgnoresNonAddedEvents(t *testing.T) {
	p := NewProjection(testLogger())

	emp := standardEmployee("d1", "First")
	p.apply(added(emp))

	emp.FullName = "Renamed"
	p.apply(employee.ChangeEvent{Kind: employee.ChangeModified, Employee: emp})
	p.apply(employee.ChangeEvent{Kind: employee.ChangeRemoved, Employee: emp})

	snapshot := p.Snapshot()
	require.Len(t, snapshot, 1)
	// The roster is append-only: the rename never reaches it and the
	// removal does not shrink it.
	assert.Equal(t, "First", snapshot[0].FullName)
}

func TestProjectionIgnoresNonStandardRoles(t *testing.T) {
	p := NewProjection(testLogger())

	adminEmp := standardEmployee("a1", "Admin")
	adminEmp.Role = employee.RoleAdmin
	p.apply(added(adminEmp))

	unsetEmp := standardEmployee("u1", "Unprovisioned")
	unsetEmp.Role = employee.RoleUnset
	p.apply(added(unsetEmp))

	assert.Zero(t, p.Size())
}

func TestProjectionDeduplicatesByID(t *testing.T) {
	p := NewProjection(testLogger())

	p.apply(added(standardEmployee("d1", "First")))
	p.apply(added(standardEmployee("d1", "First")))

	assert.Equal(t, 1, p.Size())
}

type staticLister struct {
	employees []employee.Employee
}

func (l *staticLister) ListByRole(
	_ context.Context,
	role string,
) ([]employee.Employee, error) {
	var out []employee.Employee
	for _, emp := range l.employees {
		if emp.Role == role {
			out = append(out, emp)
		}
	}
	return out, nil
}

func TestProjectionBootstrap(t *testing.T) {
	adminEmp := standardEmployee("a1", "Admin")
	adminEmp.Role = employee.RoleAdmin

	lister := &staticLister{employees: []employee.Employee{
		standardEmployee("d1", "First"),
		adminEmp,
		standardEmployee("d2", "Second"),
	}}

	p := NewProjection(testLogger())
	require.NoError(t, p.Bootstrap(context.Background(), lister))

	snapshot := p.Snapshot()
	require.Len(t, snapshot, 2)
	assert.Equal(t, "d1", snapshot[0].ID)
	assert.Equal(t, "d2", snapshot[1].ID)
}

func TestProjectionRunConsumesFeed(t *testing.T) {
	p := NewProjection(testLogger())

	events := make(chan employee.ChangeEvent, 3)
	events <- added(standardEmployee("d1", "First"))
	events <- added(standardEmployee("d2", "Second"))
	close(events)

	// Run returns when the channel closes.
	p.Run(context.Background(), events)

	assert.Equal(t, 2, p.Size())
}

func TestSnapshotAndWatch(t *testing.T) {
	p := NewProjection(testLogger())
	p.apply(added(standardEmployee("d1", "First")))

	snapshot, additions, cancel := p.SnapshotAndWatch(8)
	defer cancel()

	require.Len(t, snapshot, 1)

	p.apply(added(standardEmployee("d2", "Second")))

	select {
	case entry := <-additions:
		assert.Equal(t, "d2", entry.ID)
	default:
		t.Fatal("expected watched addition to be delivered")
	}

	// The snapshot entry is never replayed on the watch channel.
	select {
	case entry := <-additions:
		t.Fatalf("unexpected extra entry %q", entry.ID)
	default:
	}
}

func TestSnapshotAndWatchCancelClosesChannel(t *testing.T) {
	p := NewProjection(testLogger())

	_, additions, cancel := p.SnapshotAndWatch(1)
	cancel()

	_, open := <-additions
	assert.False(t, open)

	// Appends after cancel must not panic on the closed channel.
	p.apply(added(standardEmployee("d1", "First")))
}

func TestSnapshotIsACopy(t *testing.T) {
	p := NewProjection(testLogger())
	p.apply(added(standardEmployee("d1", "First")))

	snapshot := p.Snapshot()
	snapshot[0].FullName = "mutated"

	assert.Equal(t, "First", p.Snapshot()[0].FullName)
}
