package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"
)

// TestNewConfig tests that defaults are populated.
func TestNewConfig(t *testing.T) {
	t.Parallel()

	c := NewConfig()
	if c.MaxDepth != DefaultMaxDepth {
		t.Errorf("MaxDepth = %d, expected %d", c.MaxDepth, DefaultMaxDepth)
	}
	if c.Workers != DefaultWorkers {
		t.Errorf("Workers = %d, expected %d", c.Workers, DefaultWorkers)
	}
	if c.PageTimeout != DefaultPageTimeout {
		t.Errorf("PageTimeout = %v, expected %v", c.PageTimeout, DefaultPageTimeout)
	}
	if c.OutputDir != DefaultOutputDir {
		t.Errorf("OutputDir = %q, expected %q", c.OutputDir, DefaultOutputDir)
	}
	if !c.SaveToDB {
		t.Error("SaveToDB should default to true")
	}
}

// TestConfigValidate tests validation of each field.
func TestConfigValidate(t *testing.T) {
	t.Parallel()

	valid := func() *Config {
		c := NewConfig()
		c.RootURL = "https://notes.example.com/"
		return c
	}

	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr error
	}{
		{
			name:    "valid config passes",
			mutate:  func(*Config) {},
			wantErr: nil,
		},
		{
			name:    "missing root URL",
			mutate:  func(c *Config) { c.RootURL = "" },
			wantErr: ErrNoRootURL,
		},
		{
			name:    "relative root URL",
			mutate:  func(c *Config) { c.RootURL = "/just/a/path" },
			wantErr: ErrInvalidRootURL,
		},
		{
			name:    "non-http scheme",
			mutate:  func(c *Config) { c.RootURL = "ftp://example.com/" },
			wantErr: ErrInvalidRootURL,
		},
		{
			name:    "empty output dir",
			mutate:  func(c *Config) { c.OutputDir = "" },
			wantErr: ErrNoOutputDir,
		},
		{
			name:    "zero workers",
			mutate:  func(c *Config) { c.Workers = 0 },
			wantErr: ErrInvalidWorkers,
		},
		{
			name:    "negative retries",
			mutate:  func(c *Config) { c.MaxRetries = -1 },
			wantErr: ErrInvalidMaxRetries,
		},
		{
			name:    "zero page timeout",
			mutate:  func(c *Config) { c.PageTimeout = 0 },
			wantErr: ErrInvalidPageTimeout,
		},
		{
			name:    "negative page wait",
			mutate:  func(c *Config) { c.PageWait = -time.Second },
			wantErr: ErrInvalidPageWait,
		},
		{
			name:    "negative depth is unlimited and valid",
			mutate:  func(c *Config) { c.MaxDepth = -1 },
			wantErr: nil,
		},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			c := valid()
			tt.mutate(c)
			err := c.Validate()
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("Validate() = %v, expected %v", err, tt.wantErr)
			}
		})
	}
}

// TestLoadConfigFile tests YAML loading and the not-found sentinel.
func TestLoadConfigFile(t *testing.T) {
	t.Parallel()

	t.Run("loads sites and defaults", func(t *testing.T) {
		t.Parallel()

		path := filepath.Join(t.TempDir(), DefaultConfigFile)
		content := `defaults:
  pageWaitMillis: 1000
sites:
  notes.example.com:
    cookie: "token_v2=abc"
    depth: 3
    workers: 2
`
		if err := os.WriteFile(path, []byte(content), 0600); err != nil {
			t.Fatal(err)
		}

		cf, err := LoadConfigFile(path)
		if err != nil {
			t.Fatalf("LoadConfigFile() error = %v", err)
		}

		site := cf.SiteConfig("notes.example.com")
		if site.Cookie != "token_v2=abc" {
			t.Errorf("Cookie = %q", site.Cookie)
		}
		if site.Depth != 3 {
			t.Errorf("Depth = %d", site.Depth)
		}
		if site.Workers != 2 {
			t.Errorf("Workers = %d", site.Workers)
		}
		if site.PageWaitMillis != 1000 {
			t.Errorf("PageWaitMillis = %d, defaults should fill unset fields", site.PageWaitMillis)
		}

		other := cf.SiteConfig("other.example.com")
		if other.Cookie != "" {
			t.Errorf("unknown host should only get defaults, got cookie %q", other.Cookie)
		}
		if other.PageWaitMillis != 1000 {
			t.Errorf("unknown host PageWaitMillis = %d", other.PageWaitMillis)
		}
	})

	t.Run("missing file returns sentinel", func(t *testing.T) {
		t.Parallel()

		_, err := LoadConfigFile(filepath.Join(t.TempDir(), "nope"))
		if !errors.Is(err, ErrConfigNotFound) {
			t.Errorf("error = %v, expected ErrConfigNotFound", err)
		}
	})

	t.Run("malformed yaml returns error", func(t *testing.T) {
		t.Parallel()

		path := filepath.Join(t.TempDir(), DefaultConfigFile)
		if err := os.WriteFile(path, []byte("sites: [not a map"), 0600); err != nil {
			t.Fatal(err)
		}
		if _, err := LoadConfigFile(path); err == nil {
			t.Error("expected parse error")
		}
	})
}

// TestApplySiteOverrides tests flag precedence over the config file.
func TestApplySiteOverrides(t *testing.T) {
	t.Parallel()

	newConfig := func() *Config {
		c := NewConfig()
		c.RootURL = "https://notes.example.com/"
		c.SiteConfigs = &File{
			Sites: map[string]SiteConfig{
				"notes.example.com": {
					Cookie:         "token_v2=file",
					Depth:          5,
					Workers:        8,
					PageWaitMillis: 3000,
				},
			},
		}
		return c
	}

	t.Run("file values fill untouched flags", func(t *testing.T) {
		t.Parallel()

		c := newConfig()
		c.ApplySiteOverrides(func(string) bool { return false })

		if c.Cookie != "token_v2=file" {
			t.Errorf("Cookie = %q", c.Cookie)
		}
		if c.MaxDepth != 5 {
			t.Errorf("MaxDepth = %d", c.MaxDepth)
		}
		if c.Workers != 8 {
			t.Errorf("Workers = %d", c.Workers)
		}
		if c.PageWait != 3*time.Second {
			t.Errorf("PageWait = %v", c.PageWait)
		}
	})

	t.Run("explicit flags win over file", func(t *testing.T) {
		t.Parallel()

		c := newConfig()
		c.Cookie = "token_v2=flag"
		c.MaxDepth = 1
		c.ApplySiteOverrides(func(name string) bool {
			return name == "cookie" || name == "depth"
		})

		if c.Cookie != "token_v2=flag" {
			t.Errorf("Cookie = %q, flag value must win", c.Cookie)
		}
		if c.MaxDepth != 1 {
			t.Errorf("MaxDepth = %d, flag value must win", c.MaxDepth)
		}
		if c.Workers != 8 {
			t.Errorf("Workers = %d, untouched flag should take file value", c.Workers)
		}
	})
}

// TestWriteStarterConfig tests the init template.
func TestWriteStarterConfig(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), DefaultConfigFile)
	if err := WriteStarterConfig(path); err != nil {
		t.Fatalf("WriteStarterConfig() error = %v", err)
	}

	// The template must itself be loadable YAML.
	if _, err := LoadConfigFile(path); err != nil {
		t.Errorf("starter config does not parse: %v", err)
	}

	if err := WriteStarterConfig(path); !errors.Is(err, ErrConfigExists) {
		t.Errorf("second write = %v, expected ErrConfigExists", err)
	}
}

// TestXDGDirectories tests the application directory layout.
func TestXDGDirectories(t *testing.T) {
	t.Parallel()

	t.Run("XDGDataDir ends with the app name", func(t *testing.T) {
		t.Parallel()

		dir := XDGDataDir()
		if dir == "" || filepath.Base(dir) != AppName {
			t.Errorf("XDGDataDir() = %q", dir)
		}
	})

	t.Run("XDGConfigDir ends with the app name", func(t *testing.T) {
		t.Parallel()

		dir := XDGConfigDir()
		if dir == "" || filepath.Base(dir) != AppName {
			t.Errorf("XDGConfigDir() = %q", dir)
		}
	})
}

// TestFindConfigFile tests explicit-path resolution.
func TestFindConfigFile(t *testing.T) {
	t.Parallel()

	t.Run("explicit existing path is returned", func(t *testing.T) {
		t.Parallel()

		path := filepath.Join(t.TempDir(), DefaultConfigFile)
		if err := os.WriteFile(path, []byte("sites:\n"), 0600); err != nil {
			t.Fatal(err)
		}
		if got := FindConfigFile(path); got != path {
			t.Errorf("FindConfigFile() = %q, expected %q", got, path)
		}
	})

	t.Run("explicit missing path returns empty", func(t *testing.T) {
		t.Parallel()

		missing := filepath.Join(t.TempDir(), DefaultConfigFile)
		if got := FindConfigFile(missing); got != "" {
			t.Errorf("FindConfigFile() = %q, expected empty", got)
		}
	})
}
