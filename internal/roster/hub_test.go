// AngelaMos | 2026
// hub_test.go

package roster

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Dramos02/employee-directory/internal/middleware"
)

type fakeVerifier struct {
	employeeID string
	role       string
	err        error
}

func (v *fakeVerifier) VerifyAccessToken(
	_ context.Context,
	_ string,
) (*middleware.AccessTokenClaims, error) {
	if v.err != nil {
		return nil, v.err
	}

	id := v.employeeID
	if id == "" {
		id = "admin-1"
	}
	return &middleware.AccessTokenClaims{
		EmployeeID: id,
		Role:       v.role,
	}, nil
}

func dialHub(t *testing.T, hub *Hub) *websocket.Conn {
	t.Helper()

	srv := httptest.NewServer(http.HandlerFunc(hub.ServeWS))
	t.Cleanup(srv.Close)

	url := "ws" + strings.TrimPrefix(srv.URL, "http")
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = conn.Close() })

	return conn
}

func readMessage(t *testing.T, conn *websocket.Conn) (string, json.RawMessage) {
	t.Helper()

	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))

	var msg struct {
		Type string          `json:"type"`
		Data json.RawMessage `json:"data"`
	}
	require.NoError(t, conn.ReadJSON(&msg))
	return msg.Type, msg.Data
}

func TestHubSnapshotThenAdditions(t *testing.T) {
	p := NewProjection(testLogger())
	p.apply(added(standardEmployee("d1", "First")))

	hub := NewHub(p, &fakeVerifier{role: "admin"}, testLogger())
	conn := dialHub(t, hub)

	require.NoError(t, conn.WriteJSON(map[string]string{"token": "valid"}))

	msgType, data := readMessage(t, conn)
	require.Equal(t, "snapshot", msgType)

	var snapshot snapshotPayload
	require.NoError(t, json.Unmarshal(data, &snapshot))
	require.Len(t, snapshot.Entries, 1)
	assert.Equal(t, "d1", snapshot.Entries[0].ID)

	p.apply(added(standardEmployee("d2", "Second")))

	msgType, data = readMessage(t, conn)
	require.Equal(t, "added", msgType)

	var entry Entry
	require.NoError(t, json.Unmarshal(data, &entry))
	assert.Equal(t, "d2", entry.ID)
}

func TestHubRejectsNonAdmin(t *testing.T) {
	p := NewProjection(testLogger())
	hub := NewHub(p, &fakeVerifier{role: "user"}, testLogger())
	conn := dialHub(t, hub)

	require.NoError(t, conn.WriteJSON(map[string]string{"token": "valid"}))

	msgType, data := readMessage(t, conn)
	assert.Equal(t, "error", msgType)
	assert.Contains(t, string(data), "admin role required")
}

func TestHubTeardownDrainsBufferedAdditions(t *testing.T) {
	hub := NewHub(NewProjection(testLogger()), &fakeVerifier{role: "admin"}, testLogger())

	c := &client{
		id:     "viewer-1",
		send:   make(chan []byte, clientBuffer),
		logger: testLogger(),
	}
	c.detach = func() { hub.remove(c) }
	hub.clients[c.id] = c

	additions := make(chan Entry, 4)
	additions <- Entry{ID: "d1", FullName: "First"}
	additions <- Entry{ID: "d2", FullName: "Second"}

	done := make(chan struct{})
	go func() {
		defer close(done)
		c.forwardAdditions(additions)
	}()

	// The disconnect order: the watch cancel closes the additions
	// channel and the client deregisters while entries are still
	// buffered. The forwarder must drain them and own the close of
	// c.send rather than racing a close from deregistration.
	close(additions)
	c.detach()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("forwardAdditions did not finish")
	}

	var got []string
	for payload := range c.send {
		var msg struct {
			Type string `json:"type"`
			Data Entry  `json:"data"`
		}
		require.NoError(t, json.Unmarshal(payload, &msg))
		require.Equal(t, "added", msg.Type)
		got = append(got, msg.Data.ID)
	}
	assert.Equal(t, []string{"d1", "d2"}, got)
	assert.Equal(t, 0, hub.ConnectedViewers())
}

func TestHubRejectsInvalidToken(t *testing.T) {
	p := NewProjection(testLogger())
	hub := NewHub(p, &fakeVerifier{err: errors.New("bad signature")}, testLogger())
	conn := dialHub(t, hub)

	require.NoError(t, conn.WriteJSON(map[string]string{"token": "forged"}))

	msgType, data := readMessage(t, conn)
	assert.Equal(t, "error", msgType)
	assert.Contains(t, string(data), "invalid token")
}
