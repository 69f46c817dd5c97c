package scandb

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/burst-data/qscan/internal/qscan"
)

func newTestDB(t *testing.T) *DB {
	t.Helper()
	db, err := NewDB(filepath.Join(t.TempDir(), "scan.db"))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return db
}

func TestMigrations(t *testing.T) {
	db := newTestDB(t)
	version, dirty, err := db.MigrateVersion()
	require.NoError(t, err)
	assert.False(t, dirty)
	assert.GreaterOrEqual(t, version, uint(1))

	// Re-applying is a no-op.
	require.NoError(t, db.MigrateUp())
}

func TestRecordAndQueryRoundtrip(t *testing.T) {
	db := newTestDB(t)

	run, err := NewRun(1234.5, map[string]float64{"q_max": 64})
	require.NoError(t, err)
	require.NotEmpty(t, run.ID)
	require.NoError(t, db.RecordRun(run))

	kept := qscan.ChannelResult{
		Channel:       "SENSOR:X",
		Q:             11.3,
		PeakEnergy:    50,
		PeakSNR:       10,
		PeakTime:      1234.6,
		PeakFrequency: 20,
		Threshold:     4.2,
		Whitened:      &qscan.Eventgram{Tiles: []qscan.Tile{{Energy: 50}}},
		Raw:           &qscan.Eventgram{Tiles: []qscan.Tile{{Energy: 48}, {Energy: 13}}},
		Elapsed:       150 * time.Millisecond,
	}
	dropped := qscan.ChannelResult{
		Channel: "SENSOR:Y",
		Dropped: true,
		Reason:  qscan.DropInsignificant,
	}
	require.NoError(t, db.RecordChannelResult(run.ID, kept))
	require.NoError(t, db.RecordChannelResult(run.ID, dropped))

	rows, err := db.ChannelResults(run.ID)
	require.NoError(t, err)
	require.Len(t, rows, 2)

	assert.Equal(t, "SENSOR:X", rows[0].Channel)
	assert.False(t, rows[0].Dropped)
	assert.Empty(t, rows[0].Reason)
	assert.Equal(t, 11.3, rows[0].Q)
	assert.Equal(t, 10.0, rows[0].PeakSNR)
	assert.Equal(t, 1, rows[0].WhitenedTiles)
	assert.Equal(t, 2, rows[0].RawTiles)

	assert.Equal(t, "SENSOR:Y", rows[1].Channel)
	assert.True(t, rows[1].Dropped)
	assert.Equal(t, "insignificant", rows[1].Reason)
}

func TestChannelResultsUnknownRun(t *testing.T) {
	db := newTestDB(t)
	rows, err := db.ChannelResults("no-such-run")
	require.NoError(t, err)
	assert.Empty(t, rows)
}
