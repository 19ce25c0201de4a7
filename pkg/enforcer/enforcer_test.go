package enforcer

import (
	"io"
	"log/slog"
	"strings"
	"testing"

	"github.com/Ryan-Har/gymsync/pkg/models"
	"github.com/stretchr/testify/require"
)

// --- Helper: a no-op logger for tests ---
func NoopLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// --- buildPrefixes tests ---
func TestBuildPrefixes(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected []string
	}{
		{
			name:     "simple nested path",
			input:    "/a/b/c",
			expected: []string{"/a/b/c", "/a/b", "/a", "/"},
		},
		{
			name:     "root only",
			input:    "/",
			expected: []string{"/"},
		},
		{
			name:     "empty string treated as root",
			input:    "",
			expected: []string{"/"},
		},
		{
			name:     "no leading slash",
			input:    "x/y",
			expected: []string{"/x/y", "/x", "/"},
		},
		{
			name:     "single segment",
			input:    "/foo",
			expected: []string{"/foo", "/"},
		},
		{
			name:     "path with trailing slash",
			input:    "/routines/delete/",
			expected: []string{"/routines/delete", "/routines", "/"},
		},
		{
			name:     "deeply nested path",
			input:    "/a/b/c/d/e/f",
			expected: []string{"/a/b/c/d/e/f", "/a/b/c/d/e", "/a/b/c/d", "/a/b/c", "/a/b", "/a", "/"},
		},
		{
			name:     "path with dots",
			input:    "/api/v1.0/users",
			expected: []string{"/api/v1.0/users", "/api/v1.0", "/api", "/"},
		},
		{
			name:     "path with parameter",
			input:    "/workouts/{id}/delete",
			expected: []string{"/workouts/{id}/delete", "/workouts/{id}", "/workouts", "/"},
		},
		{
			name:     "path with hyphens and underscores",
			input:    "/api/workout-state/get_all",
			expected: []string{"/api/workout-state/get_all", "/api/workout-state", "/api", "/"},
		},
		{
			name:     "root with trailing slashes",
			input:    "///",
			expected: []string{"/"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			actual := buildPrefixes(tt.input)
			require.Equal(t, tt.expected, actual)
		})
	}
}

// FindMatchingPolicy against the routes the local UI registers
func TestFindMatchingPolicyDefaults(t *testing.T) {
	e := NewEnforcer(NoopLogger(), nil, nil, nil)
	e.LoadDefaultPolicies()

	tests := []struct {
		name      string
		path      string
		method    string
		wantRole  models.Role
		wantFound bool
	}{
		{"dashboard is protected", "/", "GET", models.RoleUser, true},
		{"login page is open", "/login", "GET", models.RoleGuest, true},
		{"login submit is open", "/login", "POST", models.RoleGuest, true},
		{"register is open", "/register", "POST", models.RoleGuest, true},
		{"metrics are open", "/metrics", "GET", models.RoleGuest, true},
		{"metrics post falls back to root", "/metrics", "POST", models.RoleUser, true},
		{"workout create falls back to root", "/workouts", "POST", models.RoleUser, true},
		{"nested falls back to root", "/routines/delete", "POST", models.RoleUser, true},
		{"state api is protected", "/api/state", "GET", models.RoleUser, true},
		{"case insensitive HTTP methods", "/login", "post", models.RoleGuest, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			role, found := e.FindMatchingPolicy(tt.path, tt.method)
			require.Equal(t, tt.wantFound, found, "expected found=%v", tt.wantFound)
			require.Equal(t, tt.wantRole, role, "expected role=%v", tt.wantRole)
		})
	}
}

func TestFindMatchingPolicy_NoPolicies(t *testing.T) {
	e := NewEnforcer(NoopLogger(), nil, nil, nil)
	role, found := e.FindMatchingPolicy("/anything", "GET")
	require.False(t, found)
	require.Equal(t, models.RoleGuest, role)
}

// Test policy precedence - exact method wins over wildcard on same path
func TestPolicyPrecedence(t *testing.T) {
	e := NewEnforcer(NoopLogger(), nil, nil, nil)

	e.SetPolicy("/workouts", "*", models.RoleUser)
	e.SetPolicy("/workouts", "GET", models.RoleGuest)

	role, found := e.FindMatchingPolicy("/workouts", "GET")
	require.True(t, found)
	require.Equal(t, models.RoleGuest, role, "exact method should win over wildcard")

	role, found = e.FindMatchingPolicy("/workouts", "POST")
	require.True(t, found)
	require.Equal(t, models.RoleUser, role, "should fall back to wildcard for other methods")
}

// Test empty method string (edge case)
func TestEmptyMethod(t *testing.T) {
	e := NewEnforcer(NoopLogger(), nil, nil, nil)
	e.SetPolicy("/api", "*", models.RoleUser)

	role, found := e.FindMatchingPolicy("/api", "")
	require.True(t, found)
	require.Equal(t, models.RoleUser, role)
}

func TestSetPolicyStoresUppercaseMethods(t *testing.T) {
	e := NewEnforcer(NoopLogger(), nil, nil, nil)
	e.SetPolicy("routines", "post", models.RoleUser)
	require.Equal(t, models.RoleUser, e.Policies["/routines"]["POST"])
}

func BenchmarkBuildPrefixes(b *testing.B) {
	path := "/" + strings.Repeat("a/", 100) + "endpoint"
	for i := 0; i < b.N; i++ {
		buildPrefixes(path)
	}
}
