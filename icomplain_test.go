package icomplain

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Polqt/iComplain/realtime"
)

func TestNewApp(t *testing.T) {
	app, err := NewApp(Options{
		BaseURL:   "http://localhost:8000",
		PrefsPath: filepath.Join(t.TempDir(), "prefs.json"),
	})
	require.NoError(t, err)
	defer app.Close()

	assert.NotNil(t, app.API)
	assert.NotNil(t, app.Auth)
	assert.NotNil(t, app.Tickets)
	assert.NotNil(t, app.Comments)
	assert.NotNil(t, app.Feedback)
	assert.NotNil(t, app.Notifications)
	assert.NotNil(t, app.Search)
	require.NotNil(t, app.Channel)
	assert.Equal(t, realtime.StateDisconnected, app.Channel.State())
}

func TestNewAppBadBaseURL(t *testing.T) {
	_, err := NewApp(Options{BaseURL: "://not a url"})
	assert.Error(t, err)
}

func TestAppStartRespectsRealtimeFlag(t *testing.T) {
	app, err := NewApp(Options{
		BaseURL:   "http://localhost:8000",
		PrefsPath: filepath.Join(t.TempDir(), "prefs.json"),
	})
	require.NoError(t, err)
	defer app.Close()

	// Realtime disabled: Start must not open the socket.
	app.Start(context.Background())
	assert.Equal(t, realtime.StateDisconnected, app.Channel.State())
}
