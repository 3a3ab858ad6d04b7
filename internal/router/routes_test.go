package router

import "testing"

func TestNewTable_Validation(t *testing.T) {
	tests := []struct {
		name    string
		routes  []Route
		wantErr bool
	}{
		{name: "default routes", routes: DefaultRoutes()},
		{
			name:    "duplicate path",
			routes:  []Route{{Path: "/a"}, {Path: "/a/"}},
			wantErr: true,
		},
		{
			name:    "redirect to unknown path",
			routes:  []Route{{Path: "/", Redirect: "/missing"}},
			wantErr: true,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewTable(tt.routes)
			if (err != nil) != tt.wantErr {
				t.Errorf("NewTable() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestTable_Lookup(t *testing.T) {
	table, err := NewTable(DefaultRoutes())
	if err != nil {
		t.Fatalf("NewTable() error = %v", err)
	}

	tests := []struct {
		path         string
		wantPath     string
		wantOK       bool
		requiresAuth bool
	}{
		{path: "/", wantPath: "/", wantOK: true},
		{path: "/home", wantPath: "/home", wantOK: true, requiresAuth: true},
		{path: "/home/", wantPath: "/home", wantOK: true, requiresAuth: true},
		{path: "profile", wantPath: "/profile", wantOK: true, requiresAuth: true},
		{path: "/login?next=/profile", wantPath: "/login", wantOK: true},
		{path: "/register#top", wantPath: "/register", wantOK: true},
		{path: "/admin", wantOK: false},
	}
	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			r, ok := table.Lookup(tt.path)
			if ok != tt.wantOK {
				t.Fatalf("Lookup(%q) ok = %v, want %v", tt.path, ok, tt.wantOK)
			}
			if !ok {
				return
			}
			if r.Path != tt.wantPath {
				t.Errorf("Path = %q, want %q", r.Path, tt.wantPath)
			}
			if r.RequiresAuth != tt.requiresAuth {
				t.Errorf("RequiresAuth = %v, want %v", r.RequiresAuth, tt.requiresAuth)
			}
		})
	}
}

func TestTable_RoutesOrder(t *testing.T) {
	table, err := NewTable(DefaultRoutes())
	if err != nil {
		t.Fatalf("NewTable() error = %v", err)
	}
	want := []string{"/", "/login", "/register", "/home", "/profile"}
	got := table.Routes()
	if len(got) != len(want) {
		t.Fatalf("Routes() len = %d, want %d", len(got), len(want))
	}
	for i, r := range got {
		if r.Path != want[i] {
			t.Errorf("Routes()[%d] = %q, want %q", i, r.Path, want[i])
		}
	}
}
