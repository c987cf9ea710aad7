// Package settings loads the YAML settings shared by the namereg commands.
package settings

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"
)

// ErrUnknownBackend is returned for a backend name that is not supported.
var ErrUnknownBackend = errors.New("unknown backend")

// Settings represents the settings file.
type Settings struct {
	Scheme         string `yaml:"scheme"`
	DefaultService string `yaml:"defaultService"`
	HomePage       string `yaml:"homePage"`

	// Home holds the registrant's identity and name configuration.
	Home          string `yaml:"home"`
	PassphraseEnv string `yaml:"passphraseEnv,omitempty"`

	// Discovery is the URL of the discovery service used by the discovery backends.
	Discovery string `yaml:"discovery,omitempty"`

	Records RecordsSettings `yaml:"records"`
	Storage StorageSettings `yaml:"storage"`
	Log     LogSettings     `yaml:"log"`
}

// RecordsSettings selects the record store.
type RecordsSettings struct {
	Backend          string        `yaml:"backend"` // memory, fs, badger, http or discovery
	Dir              string        `yaml:"dir,omitempty"`
	URL              string        `yaml:"url,omitempty"`
	SnapshotInterval time.Duration `yaml:"snapshotInterval,omitempty"`
}

// StorageSettings selects the blob store holding service directories.
type StorageSettings struct {
	Backend   string `yaml:"backend"` // memory, fs, s3, http or discovery
	Dir       string `yaml:"dir,omitempty"`
	URL       string `yaml:"url,omitempty"`
	Bucket    string `yaml:"bucket,omitempty"`
	Prefix    string `yaml:"prefix,omitempty"`
	Region    string `yaml:"region,omitempty"`
	CacheSize int    `yaml:"cacheSize,omitempty"`
}

// LogSettings configures logging.
type LogSettings struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// Default returns the settings used when no file is given.
func Default() *Settings {
	return &Settings{
		Scheme:         "safe",
		DefaultService: "www",
		HomePage:       "index.html",
		Home:           "~/.namereg",
		PassphraseEnv:  "NAMEREG_PASSPHRASE",
		Records: RecordsSettings{
			Backend:          "fs",
			Dir:              "~/.namereg/records",
			SnapshotInterval: time.Minute,
		},
		Storage: StorageSettings{
			Backend:   "fs",
			Dir:       "~/.namereg/storage",
			CacheSize: 256,
		},
		Log: LogSettings{
			Level:  "info",
			Format: "console",
		},
	}
}

// Load reads the settings file at path over the defaults. Path-like values
// go through SubstituteString with '*' meaning the directory of the file.
func Load(path string) (*Settings, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read settings file '%s': %w", path, err)
	}

	s := Default()
	if err := yaml.Unmarshal(data, s); err != nil {
		return nil, fmt.Errorf("failed to process settings file '%s': %w", path, err)
	}

	absPath, err := filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("failed to get absolute path for settings file '%s': %w", path, err)
	}
	s.Expand(filepath.Dir(absPath))

	if err := s.Validate(); err != nil {
		return nil, fmt.Errorf("invalid settings file '%s': %w", path, err)
	}
	return s, nil
}

// Expand applies SubstituteString to every path-like value.
func (s *Settings) Expand(baseDir string) {
	for _, p := range []*string{
		&s.Home,
		&s.Discovery,
		&s.Records.Dir,
		&s.Records.URL,
		&s.Storage.Dir,
		&s.Storage.URL,
		&s.Storage.Bucket,
		&s.Storage.Prefix,
	} {
		*p = SubstituteString(*p, baseDir)
	}
}

// Validate checks the backend selections.
func (s *Settings) Validate() error {
	switch s.Records.Backend {
	case "memory", "badger":
	case "fs":
		if s.Records.Dir == "" {
			return errors.New("records.dir is required for the fs backend")
		}
	case "http":
		if s.Records.URL == "" {
			return errors.New("records.url is required for the http backend")
		}
	case "discovery":
		if s.Discovery == "" {
			return errors.New("discovery is required for the records discovery backend")
		}
	default:
		return fmt.Errorf("%w: records.backend %q", ErrUnknownBackend, s.Records.Backend)
	}

	switch s.Storage.Backend {
	case "memory":
	case "fs":
		if s.Storage.Dir == "" {
			return errors.New("storage.dir is required for the fs backend")
		}
	case "http":
		if s.Storage.URL == "" {
			return errors.New("storage.url is required for the http backend")
		}
	case "s3":
		if s.Storage.Bucket == "" {
			return errors.New("storage.bucket is required for the s3 backend")
		}
	case "discovery":
		if s.Discovery == "" {
			return errors.New("discovery is required for the storage discovery backend")
		}
	default:
		return fmt.Errorf("%w: storage.backend %q", ErrUnknownBackend, s.Storage.Backend)
	}
	return nil
}

// Write saves s as YAML at path.
func (s *Settings) Write(path string) error {
	data, err := yaml.Marshal(s)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}
