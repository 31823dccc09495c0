package bindings

import (
	"encoding/json"
	"fmt"

	"github.com/quiltdb/quilt/internal/types"
)

// EventsToDTO converts events to their wire representation. Used by the
// CLI's export path and by tests; payloads stay encrypted.
func EventsToDTO(events []types.Event) []EventDTO {
	out := make([]EventDTO, 0, len(events))
	for _, ev := range events {
		out = append(out, eventToDTO(ev))
	}
	return out
}

// EventsFromJSON validates raw wire JSON against the events schema and
// decodes it.
func EventsFromJSON(data []byte) ([]types.Event, error) {
	if err := validateEventsJSON(data); err != nil {
		return nil, fmt.Errorf("invalid events payload: %w", err)
	}
	var items []EventDTO
	if err := json.Unmarshal(data, &items); err != nil {
		return nil, fmt.Errorf("decode events: %w", err)
	}
	events := make([]types.Event, 0, len(items))
	for _, item := range items {
		ev, err := dtoToEvent(item)
		if err != nil {
			return nil, err
		}
		events = append(events, ev)
	}
	return events, nil
}
