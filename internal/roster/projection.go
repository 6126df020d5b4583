// AngelaMos | 2026
// projection.go

package roster

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/Dramos02/employee-directory/internal/employee"
)

// Entry is one roster line: the fields an administrator sees for a
// standard employee.
type Entry struct {
	ID       string `json:"id"`
	FullName string `json:"full_name"`
	Email    string `json:"email"`
	Phone    string `json:"phone"`
}

// EmployeeLister is the slice of the employee repository the
// projection needs to bootstrap.
type EmployeeLister interface {
	ListByRole(ctx context.Context, role string) ([]employee.Employee, error)
}

// Projection keeps an in-memory, append-only view of standard
// employees. Only added events with the standard role are applied;
// modifications and removals are deliberately ignored, so an entry's
// position is stable for the lifetime of the process once it appears.
type Projection struct {
	mu       sync.RWMutex
	entries  []Entry
	seen     map[string]struct{}
	watchers map[int]chan Entry
	nextID   int
	logger   *slog.Logger
}

func NewProjection(logger *slog.Logger) *Projection {
	return &Projection{
		seen:     make(map[string]struct{}),
		watchers: make(map[int]chan Entry),
		logger:   logger,
	}
}

// Bootstrap loads the current set of standard employees in creation
// order. Must complete before Run starts consuming live events.
func (p *Projection) Bootstrap(ctx context.Context, lister EmployeeLister) error {
	employees, err := lister.ListByRole(ctx, employee.RoleUser)
	if err != nil {
		return fmt.Errorf("bootstrap roster: %w", err)
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	for _, emp := range employees {
		p.appendLocked(toEntry(&emp))
	}

	p.logger.Info("roster bootstrapped", "entries", len(p.entries))
	return nil
}

// Run consumes the change feed until ctx is cancelled or the channel
// closes. Single consumer: appends happen in the order events arrive,
// which is the commit order of the writes that produced them.
func (p *Projection) Run(ctx context.Context, events <-chan employee.ChangeEvent) {
	for {
		select {
		case <-ctx.Done():
			return
		case event, ok := <-events:
			if !ok {
				return
			}
			p.apply(event)
		}
	}
}

func (p *Projection) apply(event employee.ChangeEvent) {
	if event.Kind != employee.ChangeAdded {
		return
	}
	if event.Employee.Role != employee.RoleUser {
		return
	}

	entry := toEntry(&event.Employee)

	p.mu.Lock()
	appended := p.appendLocked(entry)
	p.mu.Unlock()

	if appended {
		p.logger.Debug("roster entry added", "employee_id", entry.ID)
	}
}

// appendLocked adds the entry and notifies watchers. Duplicate IDs are
// skipped so a bootstrap overlapping the live feed cannot double-list
// an employee. Caller holds p.mu.
func (p *Projection) appendLocked(entry Entry) bool {
	if _, dup := p.seen[entry.ID]; dup {
		return false
	}

	p.seen[entry.ID] = struct{}{}
	p.entries = append(p.entries, entry)

	for id, ch := range p.watchers {
		select {
		case ch <- entry:
		default:
			p.logger.Warn("slow roster watcher, dropping entry",
				"watcher", id,
				"employee_id", entry.ID,
			)
		}
	}

	return true
}

// Snapshot returns a copy of the roster in append order.
func (p *Projection) Snapshot() []Entry {
	p.mu.RLock()
	defer p.mu.RUnlock()

	out := make([]Entry, len(p.entries))
	copy(out, p.entries)
	return out
}

// SnapshotAndWatch atomically takes a snapshot and registers a
// watcher, so the caller sees every entry exactly once: first in the
// snapshot, then on the channel. The cancel func closes the channel.
func (p *Projection) SnapshotAndWatch(buffer int) ([]Entry, <-chan Entry, func()) {
	p.mu.Lock()
	defer p.mu.Unlock()

	snapshot := make([]Entry, len(p.entries))
	copy(snapshot, p.entries)

	id := p.nextID
	p.nextID++

	ch := make(chan Entry, buffer)
	p.watchers[id] = ch

	cancel := func() {
		p.mu.Lock()
		defer p.mu.Unlock()
		if w, ok := p.watchers[id]; ok {
			delete(p.watchers, id)
			close(w)
		}
	}

	return snapshot, ch, cancel
}

func (p *Projection) Size() int {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return len(p.entries)
}

func toEntry(emp *employee.Employee) Entry {
	return Entry{
		ID:       emp.ID,
		FullName: emp.FullName,
		Email:    emp.Email,
		Phone:    emp.Phone,
	}
}
