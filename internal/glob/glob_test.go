package glob

import "testing"

func TestMatch(t *testing.T) {
	cases := []struct {
		pattern, path string
		want          bool
	}{
		{"**/dist/**", "dist/out.js", true},
		{"**/dist/**", "a/b/dist/out.js", true},
		{"**/dist/**", "src/dist.js", false},
		{"*.env", ".env", false},
		{"*.env", "foo.env", true},
		{"**/.env*", ".env", true},
		{"**/.env*", "a/.env.local", true},
		{"**/*.pem", "certs/server.pem", true},
		{"**/id_rsa*", "home/.ssh/id_rsa", true},
		{"a?c", "abc", true},
		{"a?c", "ac", false},
		{"src/*.ts", "src/login.ts", true},
		{"src/*.ts", "src/sub/login.ts", false},
	}
	for _, c := range cases {
		got := Match(c.pattern, c.path)
		if got != c.want {
			t.Errorf("Match(%q, %q) = %v, want %v", c.pattern, c.path, got, c.want)
		}
	}
}

func TestMatchAny(t *testing.T) {
	patterns := []string{"**/dist/**", "**/.env*"}
	if !MatchAny(patterns, "dist/out.js") {
		t.Fatal("expected match")
	}
	if MatchAny(patterns, "src/login.ts") {
		t.Fatal("expected no match")
	}
}
