package domain

import (
	"encoding/json"
	"testing"
)

func TestIdentity_UnmarshalJSON(t *testing.T) {
	tests := []struct {
		name         string
		input        string
		wantID       string
		wantUsername string
	}{
		{name: "numeric id", input: `{"id":1,"username":"alice"}`, wantID: "1", wantUsername: "alice"},
		{name: "string id", input: `{"id":"u-7","username":"bob"}`, wantID: "u-7", wantUsername: "bob"},
		{name: "escaped string id", input: `{"id":"a\"b\u00e9","username":"erin"}`, wantID: `a"bé`, wantUsername: "erin"},
		{name: "null id", input: `{"id":null,"username":"frank"}`, wantID: "", wantUsername: "frank"},
		{name: "username only", input: `{"username":"carol"}`, wantID: "", wantUsername: "carol"},
		{name: "extra fields", input: `{"username":"dave","role":"admin"}`, wantID: "", wantUsername: "dave"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var id Identity
			if err := json.Unmarshal([]byte(tt.input), &id); err != nil {
				t.Fatalf("Unmarshal() error = %v", err)
			}
			if id.ID != tt.wantID {
				t.Errorf("ID = %q, want %q", id.ID, tt.wantID)
			}
			if id.Username != tt.wantUsername {
				t.Errorf("Username = %q, want %q", id.Username, tt.wantUsername)
			}
			if string(id.Raw) != tt.input {
				t.Errorf("Raw = %s, want %s", id.Raw, tt.input)
			}
		})
	}
}

func TestIdentity_NullUser(t *testing.T) {
	var body struct {
		User *Identity `json:"user"`
	}
	if err := json.Unmarshal([]byte(`{"ok":true,"user":null}`), &body); err != nil {
		t.Fatalf("Unmarshal() error = %v", err)
	}
	if body.User != nil {
		t.Errorf("User = %+v, want nil", body.User)
	}
}

func TestIdentity_DisplayName(t *testing.T) {
	var nilID *Identity
	if got := nilID.DisplayName(); got != "" {
		t.Errorf("nil DisplayName() = %q", got)
	}
	if got := (&Identity{ID: "9"}).DisplayName(); got != "9" {
		t.Errorf("DisplayName() = %q, want %q", got, "9")
	}
	if got := (&Identity{ID: "9", Username: "alice"}).DisplayName(); got != "alice" {
		t.Errorf("DisplayName() = %q, want %q", got, "alice")
	}
}
