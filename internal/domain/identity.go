package domain

import (
	"bytes"
	"encoding/json"
)

// Identity is the user record returned by the API. Its shape is owned by the
// server; id and username are decoded when present and the full object is
// kept in Raw.
type Identity struct {
	ID       string
	Username string
	Raw      json.RawMessage
}

type identityFields struct {
	ID       json.RawMessage `json:"id"`
	Username string          `json:"username"`
}

// UnmarshalJSON decodes the known fields and keeps a copy of the raw object.
// The id may be a number or a string.
func (i *Identity) UnmarshalJSON(data []byte) error {
	var f identityFields
	if err := json.Unmarshal(data, &f); err != nil {
		return err
	}
	id, err := decodeID(f.ID)
	if err != nil {
		return err
	}
	*i = Identity{
		ID:       id,
		Username: f.Username,
		Raw:      append(json.RawMessage(nil), data...),
	}
	return nil
}

func decodeID(raw json.RawMessage) (string, error) {
	raw = bytes.TrimSpace(raw)
	switch {
	case len(raw) == 0, bytes.Equal(raw, []byte("null")):
		return "", nil
	case raw[0] == '"':
		var s string
		if err := json.Unmarshal(raw, &s); err != nil {
			return "", err
		}
		return s, nil
	default:
		return string(raw), nil
	}
}

// MarshalJSON returns the raw server object when available.
func (i Identity) MarshalJSON() ([]byte, error) {
	if len(i.Raw) > 0 {
		return i.Raw, nil
	}
	out := map[string]string{}
	if i.ID != "" {
		out["id"] = i.ID
	}
	if i.Username != "" {
		out["username"] = i.Username
	}
	return json.Marshal(out)
}

// DisplayName is the best human-readable label for the identity.
func (i *Identity) DisplayName() string {
	if i == nil {
		return ""
	}
	if i.Username != "" {
		return i.Username
	}
	return i.ID
}
