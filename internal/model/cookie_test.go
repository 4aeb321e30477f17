package model

import "testing"

// TestParseCookieHeader tests cookie header splitting.
func TestParseCookieHeader(t *testing.T) {
	t.Parallel()

	t.Run("splits pairs and scopes to domain", func(t *testing.T) {
		t.Parallel()

		cookies := ParseCookieHeader("token_v2=abc123; session_token=def456", "notes.example.com")
		if len(cookies) != 2 {
			t.Fatalf("got %d cookies, expected 2", len(cookies))
		}
		if cookies[0].Name != "token_v2" || cookies[0].Value != "abc123" {
			t.Errorf("first cookie = %+v", cookies[0])
		}
		if cookies[1].Name != "session_token" || cookies[1].Value != "def456" {
			t.Errorf("second cookie = %+v", cookies[1])
		}
		for _, c := range cookies {
			if c.Domain != "notes.example.com" {
				t.Errorf("cookie %s domain = %q", c.Name, c.Domain)
			}
			if c.Path != "/" {
				t.Errorf("cookie %s path = %q", c.Name, c.Path)
			}
		}
	})

	t.Run("trims whitespace around pairs", func(t *testing.T) {
		t.Parallel()

		cookies := ParseCookieHeader("  a=1 ;  b = 2 ", "s.example")
		if len(cookies) != 2 {
			t.Fatalf("got %d cookies, expected 2", len(cookies))
		}
		if cookies[1].Name != "b" || cookies[1].Value != "2" {
			t.Errorf("second cookie = %+v", cookies[1])
		}
	})

	t.Run("skips malformed pairs", func(t *testing.T) {
		t.Parallel()

		cookies := ParseCookieHeader("valid=1; malformed; =novalue", "s.example")
		if len(cookies) != 1 {
			t.Fatalf("got %d cookies, expected 1", len(cookies))
		}
		if cookies[0].Name != "valid" {
			t.Errorf("cookie = %+v", cookies[0])
		}
	})

	t.Run("empty header returns nil", func(t *testing.T) {
		t.Parallel()

		if cookies := ParseCookieHeader("", "s.example"); cookies != nil {
			t.Errorf("got %v, expected nil", cookies)
		}
	})

	t.Run("value may contain equals sign", func(t *testing.T) {
		t.Parallel()

		cookies := ParseCookieHeader("jwt=a.b=c", "s.example")
		if len(cookies) != 1 || cookies[0].Value != "a.b=c" {
			t.Fatalf("cookies = %+v", cookies)
		}
	})
}

// TestMergeCookies tests combining captured cookies with a fallback set.
func TestMergeCookies(t *testing.T) {
	t.Parallel()

	t.Run("captured value wins on same name and domain", func(t *testing.T) {
		t.Parallel()

		merged := MergeCookies(
			[]Cookie{{Name: "token_v2", Value: "new", Domain: "s.example"}},
			[]Cookie{{Name: "token_v2", Value: "old", Domain: "s.example"}},
		)
		if len(merged) != 1 || merged[0].Value != "new" {
			t.Fatalf("merged = %+v", merged)
		}
	})

	t.Run("fallback-only cookies are appended", func(t *testing.T) {
		t.Parallel()

		merged := MergeCookies(
			[]Cookie{{Name: "csrf", Value: "x", Domain: "s.example"}},
			[]Cookie{{Name: "token_v2", Value: "y", Domain: "s.example"}},
		)
		if len(merged) != 2 {
			t.Fatalf("merged = %+v", merged)
		}
	})

	t.Run("same name on another domain is kept", func(t *testing.T) {
		t.Parallel()

		merged := MergeCookies(
			[]Cookie{{Name: "token_v2", Value: "a", Domain: "s.example"}},
			[]Cookie{{Name: "token_v2", Value: "b", Domain: "other.example"}},
		)
		if len(merged) != 2 {
			t.Fatalf("merged = %+v", merged)
		}
	})

	t.Run("empty capture returns fallback", func(t *testing.T) {
		t.Parallel()

		fallback := []Cookie{{Name: "token_v2", Value: "y", Domain: "s.example"}}
		merged := MergeCookies(nil, fallback)
		if len(merged) != 1 || merged[0].Value != "y" {
			t.Fatalf("merged = %+v", merged)
		}
	})
}
