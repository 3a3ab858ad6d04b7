package apiclient

import "testing"

func TestResolveBaseOrigin(t *testing.T) {
	tests := []struct {
		name       string
		override   string
		pageOrigin string
		want       string
	}{
		{
			name:       "override wins over page origin",
			override:   "https://api.example.com",
			pageOrigin: "http://localhost:5173",
			want:       "https://api.example.com",
		},
		{
			name:     "override trailing slash trimmed",
			override: "https://api.example.com/",
			want:     "https://api.example.com",
		},
		{
			name:       "dev frontend port swapped",
			pageOrigin: "http://192.168.1.20:5173",
			want:       "http://192.168.1.20:5001",
		},
		{
			name:       "other port kept",
			pageOrigin: "https://portal.example.com",
			want:       "https://portal.example.com",
		},
		{
			name: "no page origin falls back to local default",
			want: DefaultBaseOrigin,
		},
		{
			name:     "blank override ignored",
			override: "   ",
			want:     DefaultBaseOrigin,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ResolveBaseOrigin(tt.override, tt.pageOrigin); got != tt.want {
				t.Errorf("ResolveBaseOrigin(%q, %q) = %q, want %q", tt.override, tt.pageOrigin, got, tt.want)
			}
		})
	}
}
