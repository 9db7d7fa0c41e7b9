package webd

import (
	"context"
	"log/slog"
	"os"
	"testing"

	"github.com/rotblauer/trajd/common"
	"github.com/rotblauer/trajd/params"
)

func TestMain(m *testing.M) {
	reset := common.SlogResetLevel(slog.LevelWarn + 1)
	code := m.Run()
	reset()
	os.Exit(code)
}

// newTestWebDaemon creates a new WebDaemon for testing purposes.
// If datadir is empty, results are memoized in memory only.
func newTestWebDaemon(datadir string) (daemon *WebDaemon, teardown func() error) {
	config := params.DefaultTestWebDaemonConfig()
	config.DataDir = datadir
	daemon, err := NewWebDaemon(config)
	if err != nil {
		panic(err)
	}
	teardown = func() error {
		return daemon.Close(context.Background())
	}
	return daemon, teardown
}
