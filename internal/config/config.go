package config

import (
	"encoding/json"
	"fmt"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"github.com/antonmeskildsen/tracker-tools/internal/codec"
	"github.com/antonmeskildsen/tracker-tools/internal/edf"
	"github.com/antonmeskildsen/tracker-tools/internal/fsutil"
	"github.com/antonmeskildsen/tracker-tools/internal/ingest"
)

// DefaultDatabasePath is used by the store commands when no database_path
// is configured.
const DefaultDatabasePath = "ascc.db"

const maxFileSize = 1 * 1024 * 1024 // 1MB

// Config holds the tool settings. Every field is optional; the Get* methods
// return the default for fields left unset, so partial files are safe.
type Config struct {
	// Classification
	Workers   *int `json:"workers,omitempty" yaml:"workers,omitempty"`       // 0 means one per CPU
	ChunkSize *int `json:"chunk_size,omitempty" yaml:"chunk_size,omitempty"` // lines per work unit

	// Output
	Format      *string `json:"format,omitempty" yaml:"format,omitempty"`           // json, cbor or proto
	Compression *string `json:"compression,omitempty" yaml:"compression,omitempty"` // none, gzip or zstd

	// Store
	DatabasePath *string `json:"database_path,omitempty" yaml:"database_path,omitempty"`

	// EDF2ASC is the converter run on .edf inputs.
	EDF2ASC *string `json:"edf2asc,omitempty" yaml:"edf2asc,omitempty"`

	Progress *bool `json:"progress,omitempty" yaml:"progress,omitempty"`
}

func ptrInt(v int) *int          { return &v }
func ptrBool(v bool) *bool       { return &v }
func ptrString(v string) *string { return &v }

// DefaultConfig returns a Config with every field set to its default.
func DefaultConfig() *Config {
	return &Config{
		Workers:      ptrInt(0),
		ChunkSize:    ptrInt(ingest.DefaultChunkSize),
		Format:       ptrString(codec.CBOR.String()),
		Compression:  ptrString(codec.None.String()),
		DatabasePath: ptrString(DefaultDatabasePath),
		EDF2ASC:      ptrString(edf.DefaultTool),
		Progress:     ptrBool(false),
	}
}

// LoadConfig reads a Config from a .json, .yaml or .yml file and validates it.
func LoadConfig(path string) (*Config, error) {
	return LoadConfigFS(fsutil.OSFileSystem{}, path)
}

// LoadConfigFS is LoadConfig reading through fsys.
func LoadConfigFS(fsys fsutil.FileSystem, path string) (*Config, error) {
	cleanPath := filepath.Clean(path)
	ext := filepath.Ext(cleanPath)
	if ext != ".json" && ext != ".yaml" && ext != ".yml" {
		return nil, fmt.Errorf("config file must have .json, .yaml or .yml extension, got %q", ext)
	}

	fileInfo, err := fsys.Stat(cleanPath)
	if err != nil {
		return nil, fmt.Errorf("failed to stat config file: %w", err)
	}
	if fileInfo.Size() > maxFileSize {
		return nil, fmt.Errorf("config file too large: %d bytes (max %d)", fileInfo.Size(), maxFileSize)
	}

	data, err := fsys.ReadFile(cleanPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	cfg := &Config{}
	if ext == ".json" {
		err = json.Unmarshal(data, cfg)
	} else {
		err = yaml.Unmarshal(data, cfg)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to parse config %s: %w", ext[1:], err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

// Validate checks that the configuration values are valid.
func (c *Config) Validate() error {
	if c.Workers != nil && *c.Workers < 0 {
		return fmt.Errorf("workers must be non-negative, got %d", *c.Workers)
	}
	if c.ChunkSize != nil && *c.ChunkSize <= 0 {
		return fmt.Errorf("chunk_size must be positive, got %d", *c.ChunkSize)
	}
	if c.Format != nil {
		if _, err := codec.ParseFormat(*c.Format); err != nil {
			return fmt.Errorf("invalid format: %w", err)
		}
	}
	if c.Compression != nil {
		if _, err := codec.ParseCompression(*c.Compression); err != nil {
			return fmt.Errorf("invalid compression: %w", err)
		}
	}
	if c.DatabasePath != nil && *c.DatabasePath == "" {
		return fmt.Errorf("database_path must not be empty")
	}
	if c.EDF2ASC != nil && *c.EDF2ASC == "" {
		return fmt.Errorf("edf2asc must not be empty")
	}
	return nil
}

// GetWorkers returns the workers value or the default.
func (c *Config) GetWorkers() int {
	if c.Workers == nil {
		return 0
	}
	return *c.Workers
}

// GetChunkSize returns the chunk_size value or the default.
func (c *Config) GetChunkSize() int {
	if c.ChunkSize == nil {
		return ingest.DefaultChunkSize
	}
	return *c.ChunkSize
}

// GetFormat returns the configured output format, CBOR when unset or unknown.
func (c *Config) GetFormat() codec.Format {
	if c.Format == nil {
		return codec.CBOR
	}
	f, err := codec.ParseFormat(*c.Format)
	if err != nil {
		return codec.CBOR
	}
	return f
}

// GetCompression returns the configured compression, none when unset or unknown.
func (c *Config) GetCompression() codec.Compression {
	if c.Compression == nil {
		return codec.None
	}
	comp, err := codec.ParseCompression(*c.Compression)
	if err != nil {
		return codec.None
	}
	return comp
}

func (c *Config) GetDatabasePath() string {
	if c.DatabasePath == nil || *c.DatabasePath == "" {
		return DefaultDatabasePath
	}
	return *c.DatabasePath
}

func (c *Config) GetEDF2ASC() string {
	if c.EDF2ASC == nil || *c.EDF2ASC == "" {
		return edf.DefaultTool
	}
	return *c.EDF2ASC
}

func (c *Config) GetProgress() bool {
	if c.Progress == nil {
		return false
	}
	return *c.Progress
}

// IngestOptions converts the classification settings. progress is attached
// only when the progress setting is enabled.
func (c *Config) IngestOptions(progress func(done, total int)) ingest.Options {
	opts := ingest.Options{
		Workers:   c.GetWorkers(),
		ChunkSize: c.GetChunkSize(),
	}
	if c.GetProgress() {
		opts.Progress = progress
	}
	return opts
}
