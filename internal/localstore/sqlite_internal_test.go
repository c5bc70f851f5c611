package localstore

import (
	"bytes"
	"context"
	"log/slog"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSQLite_CloseLogsCheckpointFailure(t *testing.T) {
	var logs bytes.Buffer

	logger := slog.New(slog.NewTextHandler(&logs, nil))

	store, err := OpenSQLite(context.Background(), filepath.Join(t.TempDir(), "till.db"), logger)
	require.NoError(t, err)

	require.NoError(t, store.db.Close())
	require.NoError(t, store.Close())

	assert.Contains(t, logs.String(), "failed to checkpoint WAL")
}

func TestSQLiteDSN(t *testing.T) {
	tests := []struct {
		name string
		path string
		want string
	}{
		{
			name: "relative",
			path: "till.db",
			want: "file:till.db?_pragma=busy_timeout%285000%29&_pragma=journal_mode%28wal%29",
		},
		{
			name: "absolute with query characters",
			path: "/data/till?1#a.db",
			want: "file:/data/till%3F1%23a.db?_pragma=busy_timeout%285000%29&_pragma=journal_mode%28wal%29",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, sqliteDSN(tt.path))
		})
	}
}
