package cli

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/pflag"
	"github.com/stretchr/testify/require"
)

// resetFlags restores every flag of the command tree to its default.
func resetFlags(t *testing.T) {
	t.Helper()
	reset := func(f *pflag.Flag) {
		require.NoError(t, f.Value.Set(f.DefValue))
		f.Changed = false
	}
	rootCmd.Flags().VisitAll(reset)
	rootCmd.PersistentFlags().VisitAll(reset)
	schemaDropCmd.Flags().VisitAll(reset)
}

// clearConnectionEnv hides connection settings of the machine running the tests.
func clearConnectionEnv(t *testing.T) {
	for _, name := range []string{
		"SPARKIFY_CONNECTION_STRING", "DATABASE_URL",
		"PGHOST", "PGPORT", "PGUSER", "PGPASSWORD", "PGDATABASE", "PGSSLMODE",
		"AZURE_TENANT_ID", "AZURE_CLIENT_ID", "AZURE_CLIENT_SECRET",
	} {
		t.Setenv(name, "")
	}
}

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
}

// execute runs the root command with args and captures its output.
func execute(t *testing.T, args ...string) (string, string, error) {
	t.Helper()
	var stdout, stderr bytes.Buffer
	rootCmd.SetOut(&stdout)
	rootCmd.SetErr(&stderr)
	rootCmd.SetArgs(args)
	t.Cleanup(func() {
		rootCmd.SetOut(nil)
		rootCmd.SetErr(nil)
		rootCmd.SetArgs(nil)
	})
	err := rootCmd.Execute()
	return stdout.String(), stderr.String(), err
}

const (
	songJSON = `{"num_songs": 1, "artist_id": "ARD7TVE1187B99BFB1", "artist_latitude": null, "artist_longitude": null, "artist_location": "California - LA", "artist_name": "Casual", "song_id": "SOMZWCG12A8C13C480", "title": "I Didn't Mean To", "duration": 218.93179, "year": 0}`

	logJSON = `{"artist":null,"auth":"Logged In","firstName":"Walter","gender":"M","itemInSession":0,"lastName":"Frye","length":null,"level":"free","location":"San Francisco-Oakland-Hayward, CA","method":"GET","page":"Home","registration":1540919166796.0,"sessionId":38,"song":null,"status":200,"ts":1541105830796,"userAgent":"Mozilla\/5.0","userId":"39"}
{"artist":"Casual","auth":"Logged In","firstName":"Jacob","gender":"M","itemInSession":0,"lastName":"Klein","length":218.93179,"level":"paid","location":"Tampa-St. Petersburg-Clearwater, FL","method":"PUT","page":"NextSong","registration":1540558108796.0,"sessionId":518,"song":"I Didn't Mean To","status":200,"ts":1542242300796,"userAgent":"Mozilla\/5.0","userId":"73"}`
)

// writeDataset lays out song_data and log_data under dir.
func writeDataset(t *testing.T, dir string) (songRoot, logRoot string) {
	t.Helper()
	songRoot = filepath.Join(dir, "song_data")
	logRoot = filepath.Join(dir, "log_data")
	writeFile(t, filepath.Join(songRoot, "A", "A", "A", "TRAAAAW128F429D538.json"), songJSON)
	writeFile(t, filepath.Join(logRoot, "2018", "11", "2018-11-15-events.json"), logJSON)
	return songRoot, logRoot
}
