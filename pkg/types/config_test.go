package types

import (
	"errors"
	"testing"
)

func TestConfigValidate(t *testing.T) {
	valid := Config{DataDir: "/tmp/data", Password: "QM2024"}

	tests := []struct {
		name    string
		mutate  func(c *Config)
		wantErr error
	}{
		{
			name:    "valid minimal config",
			mutate:  func(c *Config) {},
			wantErr: nil,
		},
		{
			name:    "empty data dir returns ErrDataDirEmpty",
			mutate:  func(c *Config) { c.DataDir = "" },
			wantErr: ErrDataDirEmpty,
		},
		{
			name:    "empty password returns ErrPasswordEmpty",
			mutate:  func(c *Config) { c.Password = "" },
			wantErr: ErrPasswordEmpty,
		},
		{
			name:    "bogus timezone returns ErrTimezoneUnknown",
			mutate:  func(c *Config) { c.Timezone = "Mars/Olympus_Mons" },
			wantErr: ErrTimezoneUnknown,
		},
		{
			name:    "explicit UTC timezone is valid",
			mutate:  func(c *Config) { c.Timezone = "UTC" },
			wantErr: nil,
		},
		{
			name:    "unknown archive driver returns ErrArchiveUnknown",
			mutate:  func(c *Config) { c.Archive.Driver = "ftp" },
			wantErr: ErrArchiveUnknown,
		},
		{
			name:    "s3 archive without bucket returns ErrArchiveBucketEmpty",
			mutate:  func(c *Config) { c.Archive.Driver = ArchiveS3 },
			wantErr: ErrArchiveBucketEmpty,
		},
		{
			name: "s3 archive with bucket is valid",
			mutate: func(c *Config) {
				c.Archive.Driver = ArchiveS3
				c.Archive.S3.Bucket = "qm-docs"
			},
			wantErr: nil,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := valid
			tt.mutate(&cfg)
			err := cfg.Validate()
			if tt.wantErr == nil {
				if err != nil {
					t.Fatalf("expected nil error, got %v", err)
				}
				return
			}
			if !errors.Is(err, tt.wantErr) {
				t.Fatalf("expected error %v, got %v", tt.wantErr, err)
			}
		})
	}
}

func TestConfigLocationDefaultsToBerlin(t *testing.T) {
	loc, err := Config{}.Location()
	if err != nil {
		t.Fatalf("Location: %v", err)
	}
	if loc.String() != DefaultTimezone {
		t.Fatalf("expected %s, got %s", DefaultTimezone, loc)
	}
}
