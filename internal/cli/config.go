package cli

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"

	"github.com/mesh-intelligence/qmva/internal/paths"
	"github.com/mesh-intelligence/qmva/pkg/types"
)

const (
	configFileName = "config"
	configFileType = "yaml"
	configFileExt  = "config.yaml"

	envPrefix = "QMVA"
)

// Config keys.
const (
	cfgKeyDataDir        = "data_dir"
	cfgKeyPassword       = "password"
	cfgKeyTimezone       = "timezone"
	cfgKeyListen         = "listen"
	cfgKeyAttribution    = "attribution"
	cfgKeyArchiveDriver  = "archive.driver"
	cfgKeyArchiveDir     = "archive.dir"
	cfgKeyS3Bucket       = "archive.s3.bucket"
	cfgKeyS3Region       = "archive.s3.region"
	cfgKeyS3Endpoint     = "archive.s3.endpoint"
	cfgKeyS3PathStyle    = "archive.s3.path_style"
	cfgKeyLogLevel       = "log.level"
	cfgKeyLogDevelopment = "log.development"
)

// envKeys are the keys QMVA_* variables may override. data_dir is resolved
// by internal/paths so that config.yaml keeps precedence over QMVA_DATA_DIR.
var envKeys = []string{
	cfgKeyPassword, cfgKeyTimezone, cfgKeyListen, cfgKeyAttribution,
	cfgKeyArchiveDriver, cfgKeyArchiveDir,
	cfgKeyS3Bucket, cfgKeyS3Region, cfgKeyS3Endpoint, cfgKeyS3PathStyle,
	cfgKeyLogLevel, cfgKeyLogDevelopment,
}

// defaultConfigYAML is written to config.yaml on first run.
const defaultConfigYAML = `# qmva configuration
# Every key can be overridden by a QMVA_ variable, e.g. QMVA_PASSWORD or
# QMVA_ARCHIVE_DRIVER. data_dir is overridden by --data-dir only.

# Directory holding qm_va.csv, lesebestaetigungen.csv and mitarbeiter.csv.
# Relative paths are taken relative to this directory.
# data_dir:

# Shared password for changes (required by "qmva serve").
# password:

timezone: Europe/Berlin
listen: ":8080"
attribution: QM-Verfahrensanweisungen

# Where rendered PDF documents are kept: none, fs or s3.
archive:
  driver: none
  # dir:
  s3:
    # bucket:
    # region: us-east-1
    # endpoint: http://localhost:9000
    path_style: false

log:
  level: info
  development: false
`

// logSettings configures the process logger.
type logSettings struct {
	Level       string `mapstructure:"level"`
	Development bool   `mapstructure:"development"`
}

// settings is the decoded config.yaml.
type settings struct {
	types.Config `mapstructure:",squash"`
	Log          logSettings `mapstructure:"log"`
	ConfigDir    string      `mapstructure:"-"`
}

// loadSettings resolves the directories, reads config.yaml with Viper and
// applies QMVA_* overrides. It creates the config directory and a default
// config.yaml on first run.
func loadSettings(opts *rootOptions) (settings, error) {
	configDir, err := paths.ResolveConfigDir(opts.configDir)
	if err != nil {
		return settings{}, sysErr("resolve config dir", err)
	}
	v, err := loadConfig(configDir)
	if err != nil {
		return settings{}, sysErr("load config", err)
	}

	var s settings
	if err := v.Unmarshal(&s); err != nil {
		return settings{}, fmt.Errorf("%w: decode config: %w", types.ErrInvalidData, err)
	}
	s.ConfigDir = configDir
	s.DataDir, err = paths.ResolveDataDir(opts.dataDir, v.GetString(cfgKeyDataDir), configDir)
	if err != nil {
		return settings{}, sysErr("resolve data dir", err)
	}
	return s, nil
}

// loadConfig reads config.yaml from configDir. A missing config.yaml is not
// an error.
func loadConfig(configDir string) (*viper.Viper, error) {
	if err := ensureConfigDir(configDir); err != nil {
		return nil, fmt.Errorf("ensure config dir: %w", err)
	}
	if err := ensureDefaultConfigFile(configDir); err != nil {
		return nil, fmt.Errorf("ensure default config: %w", err)
	}

	v := viper.New()
	v.SetDefault(cfgKeyDataDir, "")
	v.SetDefault(cfgKeyPassword, "")
	v.SetDefault(cfgKeyTimezone, types.DefaultTimezone)
	v.SetDefault(cfgKeyListen, types.DefaultListen)
	v.SetDefault(cfgKeyAttribution, types.DefaultAttribution)
	v.SetDefault(cfgKeyArchiveDriver, types.ArchiveNone)
	v.SetDefault(cfgKeyArchiveDir, "")
	v.SetDefault(cfgKeyS3Bucket, "")
	v.SetDefault(cfgKeyS3Region, "")
	v.SetDefault(cfgKeyS3Endpoint, "")
	v.SetDefault(cfgKeyS3PathStyle, false)
	v.SetDefault(cfgKeyLogLevel, "info")
	v.SetDefault(cfgKeyLogDevelopment, false)

	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	for _, key := range envKeys {
		if err := v.BindEnv(key); err != nil {
			return nil, fmt.Errorf("bind env %s: %w", key, err)
		}
	}

	v.SetConfigName(configFileName)
	v.SetConfigType(configFileType)
	v.AddConfigPath(configDir)
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if errors.As(err, &notFound) {
			return v, nil
		}
		return nil, fmt.Errorf("read config: %w", err)
	}
	return v, nil
}

func ensureConfigDir(configDir string) error {
	return os.MkdirAll(configDir, 0o755)
}

// ensureDefaultConfigFile creates a default config.yaml if the file does not
// exist in configDir.
func ensureDefaultConfigFile(configDir string) error {
	path := filepath.Join(configDir, configFileExt)

	_, err := os.Stat(path)
	if err == nil {
		return nil
	}
	if !os.IsNotExist(err) {
		return fmt.Errorf("stat config file: %w", err)
	}
	return os.WriteFile(path, []byte(defaultConfigYAML), 0o600)
}
