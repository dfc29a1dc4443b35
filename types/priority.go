package types

import (
	"encoding/json"
	"strings"
)

// TicketPriority describes a ticket's urgency. On the wire it appears either
// as a structured object or as a bare name string (older payloads); both
// shapes decode into the same struct through a total mapping, so callers
// never branch on the wire form.
type TicketPriority struct {
	ID        int    `json:"id"`
	Name      string `json:"name"`
	Level     int    `json:"level"`
	ColorCode string `json:"color_code"`
}

// UnknownPriority is the sentinel used when a ticket arrives without a
// usable priority. Matches the placeholder the list loaders substitute.
var UnknownPriority = TicketPriority{ID: 0, Name: "Unknown", Level: 0, ColorCode: "#000"}

// knownPriorities maps the catalog names to their canonical definitions.
var knownPriorities = map[string]TicketPriority{
	"low":    {ID: 1, Name: "Low", Level: 1, ColorCode: "#6b7280"},
	"medium": {ID: 2, Name: "Medium", Level: 2, ColorCode: "#3b82f6"},
	"high":   {ID: 3, Name: "High", Level: 3, ColorCode: "#f59e0b"},
	"urgent": {ID: 4, Name: "Urgent", Level: 4, ColorCode: "#ef4444"},
}

// PriorityFromName maps a bare priority name to its canonical definition.
// Unrecognized names resolve to UnknownPriority with the name preserved.
func PriorityFromName(name string) TicketPriority {
	if p, ok := knownPriorities[strings.ToLower(strings.TrimSpace(name))]; ok {
		return p
	}
	if strings.TrimSpace(name) == "" {
		return UnknownPriority
	}
	p := UnknownPriority
	p.Name = name
	return p
}

// priorityObject mirrors the structured wire shape without the custom
// unmarshaler, so decoding it cannot recurse.
type priorityObject struct {
	ID        int    `json:"id"`
	Name      string `json:"name"`
	Level     int    `json:"level"`
	ColorCode string `json:"color_code"`
}

func (p *TicketPriority) UnmarshalJSON(data []byte) error {
	trimmed := strings.TrimSpace(string(data))
	if trimmed == "null" || trimmed == "" {
		*p = UnknownPriority
		return nil
	}

	var name string
	if err := json.Unmarshal(data, &name); err == nil {
		*p = PriorityFromName(name)
		return nil
	}

	var obj priorityObject
	if err := json.Unmarshal(data, &obj); err != nil {
		return err
	}
	*p = TicketPriority(obj)
	if p.Name == "" {
		*p = UnknownPriority
	}
	return nil
}
