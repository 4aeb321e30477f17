package model

import "strings"

// ParseCookieHeader splits a "name=value; name2=value2" header into
// cookies scoped to the given domain. Malformed pairs are skipped.
func ParseCookieHeader(header, domain string) []Cookie {
	if header == "" {
		return nil
	}

	var cookies []Cookie
	for _, pair := range strings.Split(header, ";") {
		pair = strings.TrimSpace(pair)
		name, value, ok := strings.Cut(pair, "=")
		if !ok || name == "" {
			continue
		}
		cookies = append(cookies, Cookie{
			Name:   strings.TrimSpace(name),
			Value:  strings.TrimSpace(value),
			Domain: domain,
			Path:   "/",
		})
	}
	return cookies
}

// MergeCookies combines captured browser cookies with a fallback set.
// Captured cookies win; fallback cookies whose name and domain are not
// present in the captured set are appended.
func MergeCookies(captured, fallback []Cookie) []Cookie {
	if len(captured) == 0 {
		return fallback
	}

	seen := make(map[string]struct{}, len(captured))
	for _, c := range captured {
		seen[c.Domain+"\x00"+c.Name] = struct{}{}
	}

	merged := append([]Cookie(nil), captured...)
	for _, c := range fallback {
		if _, ok := seen[c.Domain+"\x00"+c.Name]; !ok {
			merged = append(merged, c)
		}
	}
	return merged
}
