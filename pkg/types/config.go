package types

import (
	"errors"
	"time"
	_ "time/tzdata"
)

// Config holds the settings a Backend and the services around it need.
type Config struct {
	DataDir     string        `json:"data_dir" yaml:"data_dir" mapstructure:"data_dir"`
	Password    string        `json:"-" yaml:"password" mapstructure:"password"`
	Timezone    string        `json:"timezone" yaml:"timezone" mapstructure:"timezone"`
	Listen      string        `json:"listen" yaml:"listen" mapstructure:"listen"`
	Attribution string        `json:"attribution" yaml:"attribution" mapstructure:"attribution"`
	Archive     ArchiveConfig `json:"archive" yaml:"archive" mapstructure:"archive"`
}

// ArchiveConfig selects where rendered documents are kept.
type ArchiveConfig struct {
	Driver string   `json:"driver" yaml:"driver" mapstructure:"driver"`
	Dir    string   `json:"dir" yaml:"dir" mapstructure:"dir"`
	S3     S3Config `json:"s3" yaml:"s3" mapstructure:"s3"`
}

// S3Config holds the S3 or MinIO bucket parameters for the archive.
type S3Config struct {
	Bucket    string `json:"bucket" yaml:"bucket" mapstructure:"bucket"`
	Region    string `json:"region" yaml:"region" mapstructure:"region"`
	Endpoint  string `json:"endpoint" yaml:"endpoint" mapstructure:"endpoint"`
	PathStyle bool   `json:"path_style" yaml:"path_style" mapstructure:"path_style"`
}

// Archive drivers.
const (
	ArchiveNone = "none"
	ArchiveFS   = "fs"
	ArchiveS3   = "s3"
)

// Defaults.
const (
	DefaultTimezone    = "Europe/Berlin"
	DefaultListen      = ":8080"
	DefaultAttribution = "QM-Verfahrensanweisungen"
)

// Config validation errors.
var (
	ErrDataDirEmpty       = errors.New("data directory must not be empty")
	ErrPasswordEmpty      = errors.New("password must not be empty")
	ErrTimezoneUnknown    = errors.New("unknown timezone")
	ErrArchiveUnknown     = errors.New("unknown archive driver")
	ErrArchiveBucketEmpty = errors.New("s3 archive requires a bucket")
)

var knownArchives = map[string]bool{
	"":          true,
	ArchiveNone: true,
	ArchiveFS:   true,
	ArchiveS3:   true,
}

// Validate checks that the Config is usable. It returns one of the sentinel
// errors above on failure.
func (c Config) Validate() error {
	if c.DataDir == "" {
		return ErrDataDirEmpty
	}
	if c.Password == "" {
		return ErrPasswordEmpty
	}
	if _, err := c.Location(); err != nil {
		return ErrTimezoneUnknown
	}
	if !knownArchives[c.Archive.Driver] {
		return ErrArchiveUnknown
	}
	if c.Archive.Driver == ArchiveS3 && c.Archive.S3.Bucket == "" {
		return ErrArchiveBucketEmpty
	}
	return nil
}

// Location resolves Timezone, falling back to DefaultTimezone when empty.
func (c Config) Location() (*time.Location, error) {
	tz := c.Timezone
	if tz == "" {
		tz = DefaultTimezone
	}
	return time.LoadLocation(tz)
}
