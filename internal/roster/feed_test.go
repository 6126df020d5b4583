// AngelaMos | 2026
// feed_test.go

package roster

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFeedDeliversInPublishOrder(t *testing.T) {
	f := NewFeed(testLogger())

	events, cancel := f.Subscribe()
	defer cancel()

	f.Publish(added(standardEmployee("d1", "First")))
	f.Publish(added(standardEmployee("d2", "Second")))

	first := <-events
	second := <-events
	assert.Equal(t, "d1", first.Employee.ID)
	assert.Equal(t, "d2", second.Employee.ID)
}

func TestFeedFansOutToAllSubscribers(t *testing.T) {
	f := NewFeed(testLogger())

	a, cancelA := f.Subscribe()
	defer cancelA()
	b, cancelB := f.Subscribe()
	defer cancelB()

	f.Publish(added(standardEmployee("d1", "First")))

	assert.Equal(t, "d1", (<-a).Employee.ID)
	assert.Equal(t, "d1", (<-b).Employee.ID)
}

func TestFeedDropsWhenSubscriberFull(t *testing.T) {
	f := NewFeed(testLogger())

	events, cancel := f.Subscribe()
	defer cancel()

	// One more than the buffer; the overflow event is dropped rather
	// than blocking the publisher.
	for i := 0; i <= subscriberBuffer; i++ {
		f.Publish(added(standardEmployee("d", "Employee")))
	}

	assert.Len(t, events, subscriberBuffer)
}

func TestFeedCancelRemovesSubscriber(t *testing.T) {
	f := NewFeed(testLogger())

	events, cancel := f.Subscribe()
	require.Equal(t, 1, f.SubscriberCount())

	cancel()
	assert.Zero(t, f.SubscriberCount())

	_, open := <-events
	assert.False(t, open)

	// Publishing after cancel must not panic.
	f.Publish(added(standardEmployee("d1", "First")))
}
