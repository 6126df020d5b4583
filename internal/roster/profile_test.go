// AngelaMos | 2026
// profile_test.go

package roster

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Dramos02/employee-directory/internal/employee"
)

type fakeLoader struct {
	emp employee.Employee
	err error
}

func (l *fakeLoader) GetMe(
	_ context.Context,
	_ string,
) (*employee.Employee, error) {
	if l.err != nil {
		return nil, l.err
	}
	emp := l.emp
	return &emp, nil
}

func dialProfileHub(t *testing.T, hub *ProfileHub) *websocket.Conn {
	t.Helper()

	srv := httptest.NewServer(http.HandlerFunc(hub.ServeWS))
	t.Cleanup(srv.Close)

	url := "ws" + strings.TrimPrefix(srv.URL, "http")
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = conn.Close() })

	return conn
}

func TestProfileHubSendsDocumentThenUpdates(t *testing.T) {
	feed := NewFeed(testLogger())
	loader := &fakeLoader{emp: standardEmployee("e1", "Dana Reyes")}
	verifier := &fakeVerifier{employeeID: "e1", role: "user"}

	hub := NewProfileHub(feed, loader, verifier, testLogger())
	conn := dialProfileHub(t, hub)

	require.NoError(t, conn.WriteJSON(map[string]string{"token": "valid"}))

	msgType, data := readMessage(t, conn)
	require.Equal(t, "profile", msgType)

	var doc employee.EmployeeResponse
	require.NoError(t, json.Unmarshal(data, &doc))
	assert.Equal(t, "e1", doc.ID)
	assert.Equal(t, "Dana Reyes", doc.FullName)

	renamed := standardEmployee("e1", "Dana R. Cruz")
	feed.Publish(employee.ChangeEvent{
		Kind:     employee.ChangeModified,
		Employee: renamed,
	})

	msgType, data = readMessage(t, conn)
	require.Equal(t, "profile", msgType)
	require.NoError(t, json.Unmarshal(data, &doc))
	assert.Equal(t, "Dana R. Cruz", doc.FullName)
}

func TestProfileHubFiltersOtherEmployees(t *testing.T) {
	feed := NewFeed(testLogger())
	loader := &fakeLoader{emp: standardEmployee("e1", "Dana Reyes")}
	verifier := &fakeVerifier{employeeID: "e1", role: "user"}

	hub := NewProfileHub(feed, loader, verifier, testLogger())
	conn := dialProfileHub(t, hub)

	require.NoError(t, conn.WriteJSON(map[string]string{"token": "valid"}))

	msgType, _ := readMessage(t, conn)
	require.Equal(t, "profile", msgType)

	// A change to someone else's document never reaches this watcher;
	// the next message is the removal of its own.
	feed.Publish(employee.ChangeEvent{
		Kind:     employee.ChangeModified,
		Employee: standardEmployee("e2", "Someone Else"),
	})
	feed.Publish(employee.ChangeEvent{
		Kind:     employee.ChangeRemoved,
		Employee: standardEmployee("e1", "Dana Reyes"),
	})

	msgType, _ = readMessage(t, conn)
	assert.Equal(t, "removed", msgType)
}

func TestProfileHubRejectsInvalidToken(t *testing.T) {
	feed := NewFeed(testLogger())
	loader := &fakeLoader{emp: standardEmployee("e1", "Dana Reyes")}
	verifier := &fakeVerifier{err: errors.New("bad signature")}

	hub := NewProfileHub(feed, loader, verifier, testLogger())
	conn := dialProfileHub(t, hub)

	require.NoError(t, conn.WriteJSON(map[string]string{"token": "forged"}))

	msgType, data := readMessage(t, conn)
	assert.Equal(t, "error", msgType)
	assert.Contains(t, string(data), "invalid token")
}

func TestProfileHubReportsLoadFailure(t *testing.T) {
	feed := NewFeed(testLogger())
	loader := &fakeLoader{err: errors.New("connection refused")}
	verifier := &fakeVerifier{employeeID: "e1", role: "user"}

	hub := NewProfileHub(feed, loader, verifier, testLogger())
	conn := dialProfileHub(t, hub)

	require.NoError(t, conn.WriteJSON(map[string]string{"token": "valid"}))

	msgType, data := readMessage(t, conn)
	assert.Equal(t, "error", msgType)
	assert.Contains(t, string(data), "profile unavailable")
	assert.Equal(t, 0, feed.SubscriberCount())
}
