package logger

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"
)

func TestInitLogger(t *testing.T) {
	tests := []struct {
		name        string
		environment string
		logJSON     bool
		wantDebug   bool
		wantJSON    bool
	}{
		{name: "production json", environment: "production", logJSON: true, wantJSON: true},
		{name: "production text", environment: "production", logJSON: false},
		{name: "development text", environment: "development", logJSON: false, wantDebug: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			l := initLogger(&buf, tt.environment, tt.logJSON)

			l.Debug("debug line", "k", "v")
			l.Info("info line", "k", "v")

			out := buf.String()
			if got := strings.Contains(out, "debug line"); got != tt.wantDebug {
				t.Errorf("debug logged = %v, want %v:\n%s", got, tt.wantDebug, out)
			}
			if !strings.Contains(out, "info line") {
				t.Errorf("info line missing:\n%s", out)
			}
			firstLine := strings.SplitN(strings.TrimSpace(out), "\n", 2)[0]
			isJSON := json.Valid([]byte(firstLine))
			if isJSON != tt.wantJSON {
				t.Errorf("JSON output = %v, want %v: %s", isJSON, tt.wantJSON, firstLine)
			}
		})
	}
}
