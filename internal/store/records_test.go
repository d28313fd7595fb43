package store

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRawRecordsByHandle_OrderAndPayload(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()

	_, err := s.InsertRawRecord(ctx, RawRecord{TickHandle: "h-1", Payload: []byte(`{"n":2}`), ReceivedAt: testTime(5)})
	require.NoError(t, err)
	_, err = s.InsertRawRecord(ctx, RawRecord{TickHandle: "h-1", ReceivedAt: testTime(1)})
	require.NoError(t, err)
	_, err = s.InsertRawRecord(ctx, RawRecord{TickHandle: "h-2", Payload: []byte(`{}`), ReceivedAt: testTime(2)})
	require.NoError(t, err)

	records, err := s.RawRecordsByHandle(ctx, "h-1")
	require.NoError(t, err)
	require.Len(t, records, 2)

	assert.Nil(t, records[0].Payload, "NULL payload must stay nil")
	assert.True(t, records[0].ReceivedAt.Equal(testTime(1)))
	assert.Equal(t, `{"n":2}`, string(records[1].Payload))
}

func TestRawRecordsByHandle_Unknown(t *testing.T) {
	s := createTestStore(t)

	records, err := s.RawRecordsByHandle(context.Background(), "missing")
	require.NoError(t, err)
	assert.Empty(t, records)
}
