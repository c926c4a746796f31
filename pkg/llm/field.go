package llm

import "encoding/json"

// Field follows path through nested JSON objects and returns the raw value at
// its end, or nil when any step is missing or not an object. Keys are matched
// exactly and the last of duplicate keys wins.
func Field(raw json.RawMessage, path ...string) json.RawMessage {
	for _, key := range path {
		var fields map[string]json.RawMessage
		if err := json.Unmarshal(raw, &fields); err != nil {
			return nil
		}
		raw = fields[key]
	}
	return raw
}
