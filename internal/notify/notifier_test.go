package notify_test

import (
	"context"
	"testing"

	"github.com/rohmanhakim/offcache/internal/notify"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParsePushPayload(t *testing.T) {
	payload := []byte(`{"title":"New lookbook","body":"Autumn textures are in","url":"/portfolio/autumn"}`)

	notification, err := notify.ParsePushPayload(payload)

	require.NoError(t, err)
	assert.Equal(t, "New lookbook", notification.Title())
	assert.Equal(t, "Autumn textures are in", notification.Body())
	assert.Equal(t, "/portfolio/autumn", notification.TargetURL())
}

func TestParsePushPayload_SparseFieldsGetDefaults(t *testing.T) {
	notification, err := notify.ParsePushPayload([]byte(`{"body":"hello"}`))

	require.NoError(t, err)
	assert.Equal(t, "Update available", notification.Title())
	assert.Equal(t, "/", notification.TargetURL())
}

func TestParsePushPayload_MalformedJSON(t *testing.T) {
	_, err := notify.ParsePushPayload([]byte(`{not json`))

	require.Error(t, err)
	notifyErr, ok := err.(*notify.NotifyError)
	require.True(t, ok)
	assert.Equal(t, notify.ErrCausePayloadInvalid, notifyErr.Cause)
	assert.False(t, notifyErr.IsRetryable())
}

func TestMemoryNotifier_Records(t *testing.T) {
	notifier := notify.NewMemoryNotifier()
	notification := notify.NewNotification("t", "b", "/u")

	require.NoError(t, notifier.Show(context.Background(), notification))
	require.NoError(t, notifier.OpenWindow(context.Background(), "/u"))

	require.Len(t, notifier.Shown(), 1)
	assert.Equal(t, "t", notifier.Shown()[0].Title())
	assert.Equal(t, []string{"/u"}, notifier.Opened())
}
