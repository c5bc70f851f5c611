package main

import (
	"bytes"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/MrJamesThe3rd/tillsync/internal/reconcile"
	"github.com/MrJamesThe3rd/tillsync/internal/record"
)

func sampleResult() reconcile.Result {
	return reconcile.Result{
		StartedAt: time.Date(2026, 10, 18, 9, 0, 0, 0, time.UTC),
		Duration:  120 * time.Millisecond,
		Changed:   true,
		Entities: map[record.Entity]reconcile.EntityResult{
			record.EntityProducts:     {Pending: 2, Confirmed: 2, Pulled: 5, Changed: true},
			record.EntityTransactions: {Pending: 1, Err: errors.New("pushing transactions: timeout")},
		},
	}
}

func TestWriteResult(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, writeResult(&buf, sampleResult()))

	out := buf.String()
	assert.Contains(t, out, "ENTITY")
	assert.Contains(t, out, "pushing transactions: timeout")
	assert.Less(t, bytes.Index(buf.Bytes(), []byte("products")), bytes.Index(buf.Bytes(), []byte("transactions")))
	assert.NotContains(t, out, "categories")
}

func TestWriteResultJSON(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, writeResultJSON(&buf, sampleResult()))

	var got struct {
		DurationMs int64                 `json:"durationMs"`
		Entities   map[string]entityJSON `json:"entities"`
	}
	require.NoError(t, json.Unmarshal(buf.Bytes(), &got))

	assert.EqualValues(t, 120, got.DurationMs)
	assert.Equal(t, 5, got.Entities["products"].Pulled)
	assert.Equal(t, "pushing transactions: timeout", got.Entities["transactions"].Error)
}

func TestWriteResult_Refused(t *testing.T) {
	res := reconcile.Result{Err: reconcile.ErrCycleInProgress}

	var buf bytes.Buffer
	require.NoError(t, writeResult(&buf, res))
	assert.Equal(t, "sync did not run: sync cycle already in progress\n", buf.String())

	buf.Reset()
	require.NoError(t, writeResultJSON(&buf, res))

	var got struct {
		Error string `json:"error"`
	}
	require.NoError(t, json.Unmarshal(buf.Bytes(), &got))
	assert.Equal(t, "sync cycle already in progress", got.Error)
}

func TestRootCommand_Subcommands(t *testing.T) {
	cmd := newRootCommand()

	var names []string
	for _, c := range cmd.Commands() {
		names = append(names, c.Name())
	}

	assert.ElementsMatch(t, []string{"run", "sync", "status", "import"}, names)
}
