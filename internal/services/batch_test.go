package services

import (
	"context"
	"errors"
	"testing"

	"github.com/sparkify-data/sparkify-etl/internal/calendar"
	"github.com/sparkify-data/sparkify-etl/internal/extract"
	"github.com/sparkify-data/sparkify-etl/internal/files/filesystem"
	"github.com/sparkify-data/sparkify-etl/internal/files/scanner"
	"github.com/sparkify-data/sparkify-etl/internal/logging"
	"github.com/sparkify-data/sparkify-etl/internal/store"
	"github.com/sparkify-data/sparkify-etl/internal/testing/fixtures"
	"github.com/sparkify-data/sparkify-etl/pkg/sparkify"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestDriver(fs filesystem.FileSystemProvider, st sparkify.Store) (*BatchDriver, *recordingReporter) {
	rep := &recordingReporter{}
	return NewBatchDriver(scanner.NewScannerWithFS(sparkify.DefaultExtension, fs), st, logging.NewNullLogger(), rep), rep
}

func TestNewBatchDriver_PanicsOnNil(t *testing.T) {
	sc := scanner.NewScannerWithFS(".json", filesystem.NewMemoryFileSystem())
	st := store.NewMemoryStore()
	lg := logging.NewNullLogger()
	rep := &recordingReporter{}

	assert.PanicsWithValue(t, "scanner cannot be nil", func() { NewBatchDriver(nil, st, lg, rep) })
	assert.PanicsWithValue(t, "store cannot be nil", func() { NewBatchDriver(sc, nil, lg, rep) })
	assert.PanicsWithValue(t, "logger cannot be nil", func() { NewBatchDriver(sc, st, nil, rep) })
	assert.PanicsWithValue(t, "progress cannot be nil", func() { NewBatchDriver(sc, st, lg, nil) })
}

func TestProcessDirectory_SongFiles(t *testing.T) {
	fs := fixtures.NewDataset().
		AddSong("A/A/A/TRAAAAW128F429D538.json", fixtures.SampleSong()).
		AddSong("A/B/C/TRABCEI128F424C983.json", fixtures.SampleLocatedSong()).
		Build()
	mem := store.NewMemoryStore()
	driver, rep := newTestDriver(fs, mem)

	summary, err := driver.ProcessDirectory(context.Background(), fixtures.SongRoot, extract.NewSongExtractor())

	require.NoError(t, err)
	assert.Equal(t, sparkify.PhaseSongs, summary.Phase)
	assert.Equal(t, 2, summary.Found)
	assert.Equal(t, 2, summary.Committed)
	assert.Empty(t, summary.Failures)
	assert.Equal(t, sparkify.FileResult{Songs: 2, Artists: 2}, summary.Rows)

	snap := mem.Snapshot()
	require.Len(t, snap.Songs, 2)
	require.Len(t, snap.Artists, 2)
	assert.Equal(t, 2, snap.Commits)
	for _, song := range snap.Songs {
		found := false
		for _, a := range snap.Artists {
			found = found || a.ArtistID == song.ArtistID
		}
		assert.True(t, found, "artist of %s stored", song.SongID)
	}

	assert.Equal(t, []string{
		"song_data started",
		"A/A/A/TRAAAAW128F429D538.json",
		"A/B/C/TRABCEI128F424C983.json",
		"song_data finished",
	}, rep.events)
}

func TestProcessDirectory_EmptyDirectory(t *testing.T) {
	mem := store.NewMemoryStore()
	driver, rep := newTestDriver(fixtures.NewDataset().Build(), mem)

	summary, err := driver.ProcessDirectory(context.Background(), fixtures.LogRoot, extract.NewLogExtractor(calendar.ISO))

	require.NoError(t, err)
	assert.Equal(t, 0, summary.Found)
	assert.Equal(t, 0, summary.Committed)
	assert.Equal(t, 0, mem.Snapshot().Commits)
	assert.Equal(t, []string{"log_data started", "log_data finished"}, rep.events)
}

func TestProcessDirectory_MissingRoot(t *testing.T) {
	driver, rep := newTestDriver(filesystem.NewMemoryFileSystem(), store.NewMemoryStore())

	_, err := driver.ProcessDirectory(context.Background(), "/nowhere", extract.NewSongExtractor())

	assert.ErrorIs(t, err, sparkify.ErrDataDirNotFound)
	assert.Empty(t, rep.events)
}

func TestProcessDirectory_ParseErrorSkipsFile(t *testing.T) {
	fs := fixtures.NewDataset().
		AddSong("A/good.json", fixtures.SampleSong()).
		AddRaw(fixtures.SongRoot+"/bad.json", "{not json").
		AddSong("c/good.json", fixtures.SampleLocatedSong()).
		Build()
	mem := store.NewMemoryStore()
	driver, _ := newTestDriver(fs, mem)

	summary, err := driver.ProcessDirectory(context.Background(), fixtures.SongRoot, extract.NewSongExtractor())

	require.NoError(t, err)
	assert.Equal(t, 3, summary.Found)
	assert.Equal(t, 2, summary.Committed)
	require.Len(t, summary.Failures, 1)
	assert.Equal(t, "bad.json", summary.Failures[0].File.RelativePath)
	assert.Equal(t, sparkify.FileSkipped, summary.Failures[0].Status)
	assert.ErrorIs(t, summary.Failures[0].Err, sparkify.ErrParse)
	assert.Len(t, mem.Snapshot().Songs, 2)
}

func TestProcessDirectory_MalformedRecordRollsBackFile(t *testing.T) {
	play, _ := eventJSON(fixtures.SamplePlay())
	fs := fixtures.NewDataset().
		AddRaw(fixtures.LogRoot+"/a-events.json", play+"\n"+`{"page":"NextSong","ts":"yesterday","userId":"8"}`).
		AddLog("b-events.json", fixtures.SampleUnmatchedPlay()).
		Build()
	mem := store.NewMemoryStore()
	driver, _ := newTestDriver(fs, mem)

	summary, err := driver.ProcessDirectory(context.Background(), fixtures.LogRoot, extract.NewLogExtractor(calendar.ISO))

	require.NoError(t, err)
	assert.Equal(t, 1, summary.Committed)
	require.Len(t, summary.Failures, 1)
	assert.Equal(t, sparkify.FileRolledBack, summary.Failures[0].Status)
	assert.ErrorIs(t, summary.Failures[0].Err, sparkify.ErrMalformedRecord)

	snap := mem.Snapshot()
	assert.Equal(t, 1, snap.Rollbacks)
	require.Len(t, snap.Songplays, 1, "only the second file committed")
	assert.Equal(t, fixtures.SampleUnmatchedPlay().TS, snap.Songplays[0].StartTime.UnixMilli())
}

func TestProcessDirectory_ConnectionLossAbortsPhase(t *testing.T) {
	fs := fixtures.NewDataset().
		AddLog("a-events.json", fixtures.SamplePlay()).
		AddLog("b-events.json", fixtures.SampleUnmatchedPlay()).
		Build()
	mem := store.NewMemoryStore()
	driver, rep := newTestDriver(fs, &faultyStore{inner: mem, failOn: "time", err: connectionLost()})

	summary, err := driver.ProcessDirectory(context.Background(), fixtures.LogRoot, extract.NewLogExtractor(calendar.ISO))

	require.Error(t, err)
	assert.ErrorIs(t, err, sparkify.ErrConnectionFailed)
	assert.Contains(t, err.Error(), "aborted at a-events.json")
	assert.Equal(t, 0, summary.Committed)
	assert.Empty(t, summary.Failures)
	assert.Equal(t, []string{"log_data started"}, rep.events, "no further files and no phase summary")
	assert.Equal(t, 1, mem.Snapshot().Rollbacks)
}

func TestProcessDirectory_BeginConnectionLossAborts(t *testing.T) {
	fs := fixtures.NewDataset().AddSong("a.json", fixtures.SampleSong()).Build()
	driver, _ := newTestDriver(fs, &faultyStore{inner: store.NewMemoryStore(), failOn: "begin", err: connectionLost()})

	_, err := driver.ProcessDirectory(context.Background(), fixtures.SongRoot, extract.NewSongExtractor())

	assert.ErrorIs(t, err, sparkify.ErrConnectionFailed)
}

func TestProcessDirectory_CommitFailureIsIsolated(t *testing.T) {
	fs := fixtures.NewDataset().AddSong("a.json", fixtures.SampleSong()).Build()
	mem := store.NewMemoryStore()
	driver, _ := newTestDriver(fs, &faultyStore{inner: mem, failOn: "commit", err: errors.New("serialization failure")})

	summary, err := driver.ProcessDirectory(context.Background(), fixtures.SongRoot, extract.NewSongExtractor())

	require.NoError(t, err)
	require.Len(t, summary.Failures, 1)
	assert.Equal(t, sparkify.FileRolledBack, summary.Failures[0].Status)
	assert.Empty(t, mem.Snapshot().Songs)
}

func TestProcessDirectory_SongplayFailureDiscardsEarlierRows(t *testing.T) {
	other := fixtures.SampleUnmatchedPlay()
	other.UserID = "8"
	fs := fixtures.NewDataset().
		AddLog("a-events.json", fixtures.SamplePlay()).
		AddLog("b-events.json", other).
		Build()
	mem := store.NewMemoryStore()
	faulty := &faultyStore{inner: mem, failOn: "songplay", err: errors.New("check constraint violated"), limit: 1}
	driver, _ := newTestDriver(fs, faulty)

	summary, err := driver.ProcessDirectory(context.Background(), fixtures.LogRoot, extract.NewLogExtractor(calendar.ISO))

	require.NoError(t, err)
	assert.Equal(t, 1, summary.Committed)
	require.Len(t, summary.Failures, 1)
	assert.Equal(t, "a-events.json", summary.Failures[0].File.RelativePath)
	assert.Equal(t, sparkify.FileRolledBack, summary.Failures[0].Status)

	snap := mem.Snapshot()
	assert.Equal(t, 1, snap.Rollbacks)
	require.Len(t, snap.Times, 1, "time row of the failed file is discarded")
	assert.Equal(t, other.TS, snap.Times[0].StartTime.UnixMilli())
	require.Len(t, snap.Users, 1, "user row of the failed file is discarded")
	assert.Contains(t, snap.Users, "8")
	require.Len(t, snap.Songplays, 1)
	assert.Equal(t, "8", snap.Songplays[0].UserID)
}

func TestProcessDirectory_CancelledContext(t *testing.T) {
	fs := fixtures.NewDataset().AddSong("a.json", fixtures.SampleSong()).Build()
	driver, _ := newTestDriver(fs, store.NewMemoryStore())

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := driver.ProcessDirectory(ctx, fixtures.SongRoot, extract.NewSongExtractor())

	assert.ErrorIs(t, err, context.Canceled)
}
