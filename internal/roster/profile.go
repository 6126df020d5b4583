// AngelaMos | 2026
// profile.go

package roster

import (
	"context"
	"log/slog"
	"net/http"
	"sync/atomic"

	"github.com/google/uuid"

	"github.com/Dramos02/employee-directory/internal/employee"
	"github.com/Dramos02/employee-directory/internal/middleware"
)

// ProfileLoader fetches the current document for the connecting
// employee. Satisfied by the employee service.
type ProfileLoader interface {
	GetMe(ctx context.Context, employeeID string) (*employee.Employee, error)
}

// ProfileHub streams an employee's own profile document. A watcher
// connects, authenticates with its first message, receives the current
// document, then a fresh copy on every committed change to it. A
// removed document ends the stream.
type ProfileHub struct {
	feed     *Feed
	loader   ProfileLoader
	verifier middleware.TokenVerifier
	logger   *slog.Logger
	watchers atomic.Int64
}

func NewProfileHub(
	feed *Feed,
	loader ProfileLoader,
	verifier middleware.TokenVerifier,
	logger *slog.Logger,
) *ProfileHub {
	return &ProfileHub{
		feed:     feed,
		loader:   loader,
		verifier: verifier,
		logger:   logger,
	}
}

func (h *ProfileHub) ConnectedWatchers() int {
	return int(h.watchers.Load())
}

// ServeWS upgrades the request and runs the watch session. Any
// authenticated employee may watch; the stream is always scoped to the
// token's own document.
func (h *ProfileHub) ServeWS(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Error("websocket upgrade failed", "error", err)
		return
	}

	claims, ok := authenticateConn(r.Context(), conn, h.verifier)
	if !ok {
		//nolint:errcheck // connection is being abandoned
		_ = conn.Close()
		return
	}

	c := &client{
		id:     uuid.New().String(),
		conn:   conn,
		send:   make(chan []byte, clientBuffer),
		logger: h.logger,
	}

	// Subscribing before the initial load means no change committed in
	// between is missed; at worst the same document is sent twice, and
	// each message is a full copy.
	events, cancelWatch := h.feed.Subscribe()

	emp, err := h.loader.GetMe(r.Context(), claims.EmployeeID)
	if err != nil {
		cancelWatch()
		//nolint:errcheck // best-effort error report
		_ = conn.WriteJSON(wsMessage{Type: "error", Data: "profile unavailable"})
		//nolint:errcheck // connection is being abandoned
		_ = conn.Close()
		return
	}

	h.watchers.Add(1)
	c.detach = func() { h.watchers.Add(-1) }

	h.logger.Info("profile watcher connected",
		"client_id", c.id,
		"employee_id", claims.EmployeeID,
	)

	c.enqueue(wsMessage{
		Type: "profile",
		Data: employee.ToEmployeeResponse(emp),
	})

	go c.writePump()
	go c.forwardProfile(events, claims.EmployeeID)
	go c.readPump(cancelWatch)
}

// forwardProfile owns c.send the same way forwardAdditions does for
// the roster stream: the channel closes only after the watch cancel
// and the drain of anything still buffered.
func (c *client) forwardProfile(
	events <-chan employee.ChangeEvent,
	employeeID string,
) {
	defer close(c.send)

	for event := range events {
		if event.Employee.ID != employeeID {
			continue
		}

		switch event.Kind {
		case employee.ChangeAdded, employee.ChangeModified:
			c.enqueue(wsMessage{
				Type: "profile",
				Data: employee.ToEmployeeResponse(&event.Employee),
			})
		case employee.ChangeRemoved:
			c.enqueue(wsMessage{Type: "removed"})
			return
		}
	}
}
