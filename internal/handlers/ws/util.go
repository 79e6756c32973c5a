package ws

import "encoding/json"

// Frames are flat JSON objects discriminated by a "type" field, matching the
// payload shapes the web client sends.

func Serialize(msg Message) ([]byte, error) {
	raw, err := ToJson(msg)
	if err != nil {
		return nil, err
	}
	var m map[string]json.RawMessage
	if err := json.Unmarshal(raw, &m); err != nil {
		return nil, err
	}
	typeField, err := json.Marshal(msg.GetType())
	if err != nil {
		return nil, err
	}
	m["type"] = typeField
	return json.Marshal(m)
}

func Deserialize(jsonBytes []byte) (Message, error) {
	var probe struct {
		Type string `json:"type"`
	}
	if err := json.Unmarshal(jsonBytes, &probe); err != nil {
		return nil, err
	}

	msg, err := CreateMessage(probe.Type, typeRegistry)
	if err != nil {
		return nil, err
	}

	if err := FromJson(jsonBytes, msg); err != nil {
		return nil, err
	}

	return msg, nil
}
