package record_test

import (
	"encoding/json"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/MrJamesThe3rd/tillsync/internal/record"
)

func TestSyncStatus_AbsentMeansPending(t *testing.T) {
	var p record.Product
	require.NoError(t, json.Unmarshal([]byte(`{"id":"p1","name":"Tea","categoryId":"hot","price":15,"active":true}`), &p))

	assert.Equal(t, record.StatusPending, p.SyncStatus)
	assert.True(t, p.Price.Equal(decimal.NewFromInt(15)))
}

func TestSyncStatus_Decode(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		want    record.SyncStatus
		wantErr bool
	}{
		{name: "Synced", input: `"synced"`, want: record.StatusSynced},
		{name: "Pending", input: `"pending"`, want: record.StatusPending},
		{name: "Null", input: `null`, want: record.StatusPending},
		{name: "Unknown", input: `"archived"`, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var s record.SyncStatus

			err := json.Unmarshal([]byte(tt.input), &s)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}

			require.NoError(t, err)
			assert.Equal(t, tt.want, s)
		})
	}
}

func TestSyncStatus_EncodesAsString(t *testing.T) {
	b, err := json.Marshal(record.Category{ID: "hot", Name: "Hot", SyncStatus: record.StatusSynced})
	require.NoError(t, err)
	assert.JSONEq(t, `{"id":"hot","name":"Hot","isDefault":false,"syncStatus":"synced"}`, string(b))
}

func TestWithStatus_DoesNotMutateInput(t *testing.T) {
	in := []record.Expense{{ID: "e1"}, {ID: "e2", SyncStatus: record.StatusSynced}}

	out := record.WithStatus(in, record.StatusSynced)

	assert.Equal(t, record.StatusPending, in[0].SyncStatus)
	assert.Equal(t, record.StatusSynced, out[0].SyncStatus)
	assert.Equal(t, []string{"e1", "e2"}, record.IDs(out))
}

func TestTransaction_ItemCount(t *testing.T) {
	tx := record.Transaction{Items: []record.LineItem{{Quantity: 2}, {Quantity: 3}}}
	assert.Equal(t, 5, tx.ItemCount())
}
