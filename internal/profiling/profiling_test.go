// SPDX-License-Identifier: Apache-2.0

package profiling

import (
	"net/http"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

// CPU profiling is process wide, so these tests can't run in parallel.
func TestSession(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "profiles")

	session, err := Start(Config{Dir: dir})
	require.NoError(t, err)
	require.Nil(t, session.server)
	require.NoError(t, session.Stop())

	for _, name := range []string{cpuProfileName, allocsProfileName} {
		info, err := os.Stat(filepath.Join(dir, name))
		require.NoError(t, err)
		require.NotZero(t, info.Size(), name)
	}
}

func TestSession_Server(t *testing.T) {
	session, err := Start(Config{ServerAddress: "127.0.0.1:0", Dir: t.TempDir()})
	require.NoError(t, err)

	resp, err := http.Get("http://" + session.addr.String() + "/debug/pprof/")
	require.NoError(t, err)
	resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	require.NoError(t, session.Stop())
}

func TestStart_InvalidAddress(t *testing.T) {
	_, err := Start(Config{ServerAddress: "not-an-address", Dir: t.TempDir()})
	require.Error(t, err)
}
