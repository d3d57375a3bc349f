package kafka

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"notify-service/internal/notify"
)

type fakeNotifier struct {
	broadcasts []notify.Notification
	targeted   map[string][]notify.Notification
}

func newFakeNotifier() *fakeNotifier {
	return &fakeNotifier{targeted: make(map[string][]notify.Notification)}
}

func (f *fakeNotifier) Broadcast(n notify.Notification) error {
	f.broadcasts = append(f.broadcasts, n)
	return nil
}

func (f *fakeNotifier) SendToUser(username string, n notify.Notification) error {
	f.targeted[username] = append(f.targeted[username], n)
	return nil
}

func TestHandleBroadcastCommand(t *testing.T) {
	notifier := newFakeNotifier()
	c := &Consumer{dispatcher: notifier}

	c.handle([]byte(`{"notification": "deploy finished"}`))

	require.Len(t, notifier.broadcasts, 1)
	assert.Equal(t, "deploy finished", notifier.broadcasts[0].Notification)
	assert.Equal(t, "system", notifier.broadcasts[0].User.Username)
	assert.Empty(t, notifier.targeted)
}

func TestHandleTargetedCommand(t *testing.T) {
	notifier := newFakeNotifier()
	c := &Consumer{dispatcher: notifier}

	c.handle([]byte(`{"username": "alice", "notification": "build failed"}`))

	require.Len(t, notifier.targeted["alice"], 1)
	assert.Equal(t, "build failed", notifier.targeted["alice"][0].Notification)
	assert.Empty(t, notifier.broadcasts)
}

func TestHandleSkipsBadCommands(t *testing.T) {
	notifier := newFakeNotifier()
	c := &Consumer{dispatcher: notifier}

	c.handle([]byte(`not json`))
	c.handle([]byte(`{"username": "alice"}`))

	assert.Empty(t, notifier.broadcasts)
	assert.Empty(t, notifier.targeted)
}
