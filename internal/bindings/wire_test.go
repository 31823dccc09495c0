package bindings

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/quiltdb/quilt/internal/types"
)

func TestEventsWireRoundTrip(t *testing.T) {
	events := []types.Event{
		{
			Origin:  "device-a",
			Seq:     1,
			TS:      time.Date(2025, 6, 1, 12, 0, 0, 123456789, time.UTC),
			Type:    types.EventCreated,
			Payload: []byte{0x01, 0x02, 0x03},
		},
		{
			Origin:  "device-b",
			Seq:     7,
			TS:      time.Date(2025, 6, 1, 12, 0, 1, 0, time.UTC),
			Type:    types.EventDeleted,
			Payload: []byte{0xff},
		},
	}

	wire, err := json.Marshal(EventsToDTO(events))
	require.NoError(t, err)

	got, err := EventsFromJSON(wire)
	require.NoError(t, err)
	require.Len(t, got, 2)
	for i := range events {
		assert.Equal(t, events[i].Origin, got[i].Origin)
		assert.Equal(t, events[i].Seq, got[i].Seq)
		assert.Equal(t, events[i].Type, got[i].Type)
		assert.Equal(t, events[i].Payload, got[i].Payload)
		assert.True(t, events[i].TS.Equal(got[i].TS), "ts round trip: %v vs %v", events[i].TS, got[i].TS)
	}
}

func TestEventsFromJSONRejectsSchemaViolations(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{"empty origin", `[{"origin":"","seq":1,"ts":"2025-06-01T12:00:00Z","type":"updated","payload":"AQI="}]`},
		{"float seq", `[{"origin":"a","seq":1.5,"ts":"2025-06-01T12:00:00Z","type":"updated","payload":"AQI="}]`},
		{"empty payload", `[{"origin":"a","seq":1,"ts":"2025-06-01T12:00:00Z","type":"updated","payload":""}]`},
		{"bad base64 payload", `[{"origin":"a","seq":1,"ts":"2025-06-01T12:00:00Z","type":"updated","payload":"!!"}]`},
		{"bad timestamp", `[{"origin":"a","seq":1,"ts":"yesterday","type":"updated","payload":"AQI="}]`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := EventsFromJSON([]byte(tt.body))
			assert.Error(t, err)
		})
	}
}

func TestEventsFromJSONEmptyBatch(t *testing.T) {
	got, err := EventsFromJSON([]byte(`[]`))
	require.NoError(t, err)
	assert.Empty(t, got)
}
