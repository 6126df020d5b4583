// AngelaMos | 2026
// events.go

package employee

// ChangeKind mirrors the three change types a document store reports
// for a committed write.
type ChangeKind int

const (
	ChangeAdded ChangeKind = iota
	ChangeModified
	ChangeRemoved
)

func (k ChangeKind) String() string {
	switch k {
	case ChangeAdded:
		return "added"
	case ChangeModified:
		return "modified"
	case ChangeRemoved:
		return "removed"
	default:
		return "unknown"
	}
}

// ChangeEvent describes one committed change to an employee record.
// Events for a single publisher are delivered to each subscriber in
// publish order; no ordering holds across independent subscribers.
type ChangeEvent struct {
	Kind     ChangeKind
	Employee Employee
}

// Publisher receives change events after each committed write. The
// service treats publishing as fire-and-forget; a nil Publisher is
// allowed and drops all events.
type Publisher interface {
	Publish(event ChangeEvent)
}
