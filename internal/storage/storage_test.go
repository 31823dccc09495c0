package storage

import (
	"errors"
	"testing"
	"time"

	"github.com/quiltdb/quilt/internal/types"
)

func validEvent(origin string, seq int64) types.Event {
	return types.Event{
		Origin:  origin,
		Seq:     seq,
		TS:      time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC).Add(time.Duration(seq) * time.Second),
		Type:    types.EventUpdated,
		Payload: []byte{0x01, 0x02},
	}
}

func TestValidateBatch(t *testing.T) {
	tests := []struct {
		name    string
		events  []types.Event
		wantErr bool
	}{
		{
			name: "valid multi-origin",
			events: []types.Event{
				validEvent("a", 1), validEvent("b", 5), validEvent("a", 2), validEvent("b", 6),
			},
		},
		{
			name:   "empty batch",
			events: nil,
		},
		{
			name: "gap within origin is fine",
			events: []types.Event{
				validEvent("a", 1), validEvent("a", 9),
			},
		},
		{
			name: "duplicate seq for origin",
			events: []types.Event{
				validEvent("a", 1), validEvent("a", 1),
			},
			wantErr: true,
		},
		{
			name: "decreasing seq for origin",
			events: []types.Event{
				validEvent("a", 3), validEvent("a", 2),
			},
			wantErr: true,
		},
		{
			name:    "missing origin",
			events:  []types.Event{validEvent("", 1)},
			wantErr: true,
		},
		{
			name:    "zero seq",
			events:  []types.Event{validEvent("a", 0)},
			wantErr: true,
		},
		{
			name: "negative seq",
			events: []types.Event{
				{Origin: "a", Seq: -1, TS: time.Now(), Type: types.EventUpdated, Payload: []byte{1}},
			},
			wantErr: true,
		},
		{
			name: "unknown event type",
			events: []types.Event{
				{Origin: "a", Seq: 1, TS: time.Now(), Type: "exploded", Payload: []byte{1}},
			},
			wantErr: true,
		},
		{
			name: "zero timestamp",
			events: []types.Event{
				{Origin: "a", Seq: 1, Type: types.EventUpdated, Payload: []byte{1}},
			},
			wantErr: true,
		},
		{
			name: "empty payload",
			events: []types.Event{
				{Origin: "a", Seq: 1, TS: time.Now(), Type: types.EventUpdated},
			},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateBatch(tt.events)
			if tt.wantErr {
				if !errors.Is(err, ErrMalformedBatch) {
					t.Fatalf("ValidateBatch = %v, want ErrMalformedBatch", err)
				}
				var be *BatchError
				if !errors.As(err, &be) {
					t.Fatalf("error %v does not carry a BatchError", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("ValidateBatch: %v", err)
			}
		})
	}
}
