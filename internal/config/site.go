package config

// SiteConfig holds per-site overrides for a single host.
// This allows customizing mirror behavior for sites that are mirrored
// repeatedly without retyping flags.
type SiteConfig struct {
	// Cookie is the session cookie header to use for this host.
	// Format: "name=value" or "name1=value1; name2=value2"
	Cookie string `yaml:"cookie,omitempty"`

	// Depth overrides the global maximum depth for this host.
	// If zero, the global setting is used. Negative means unlimited.
	Depth int `yaml:"depth,omitempty"`

	// Workers overrides the worker pool size for this host.
	Workers int `yaml:"workers,omitempty"`

	// PageWaitMillis overrides the settle delay after document-ready,
	// in milliseconds. Script-heavy sites need a longer wait.
	PageWaitMillis int `yaml:"pageWaitMillis,omitempty"`
}

// File represents the structure of the .webmirror configuration file.
type File struct {
	// Sites maps hostnames to their overrides.
	// Keys are bare hosts (e.g., "notes.example.com").
	Sites map[string]SiteConfig `yaml:"sites,omitempty"`

	// Defaults contains overrides applied to all hosts unless a
	// site-specific entry overrides them again.
	Defaults SiteConfig `yaml:"defaults,omitempty"`
}

// SiteConfig returns the merged configuration for a host: defaults first,
// then the host's own entry on top.
func (cf *File) SiteConfig(host string) SiteConfig {
	result := cf.Defaults

	if site, ok := cf.Sites[host]; ok {
		if site.Cookie != "" {
			result.Cookie = site.Cookie
		}
		if site.Depth != 0 {
			result.Depth = site.Depth
		}
		if site.Workers != 0 {
			result.Workers = site.Workers
		}
		if site.PageWaitMillis != 0 {
			result.PageWaitMillis = site.PageWaitMillis
		}
	}

	return result
}
