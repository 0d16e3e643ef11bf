package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"

	"github.com/studiowebux/restspec/internal/executor"
	"github.com/studiowebux/restspec/internal/target"
	"github.com/studiowebux/restspec/internal/types"
	"github.com/studiowebux/restspec/internal/validator"
)

const (
	// FilePermissions is the default permission mode for regular files (read/write for owner, read for others)
	FilePermissions = 0644
	// DirPermissions is the default permission mode for directories (rwxr-xr-x)
	DirPermissions = 0755

	// LocalConfigFile is looked up in the working directory before ConfigFile
	LocalConfigFile = ".restspec.yaml"
	// DefaultEnvFile is loaded when present; a missing file is not an error
	DefaultEnvFile = ".env"
)

// Configuration keys. Environment variables are the upper-cased key with "." replaced by "_".
const (
	KeyHost         = "target.host"
	KeyPort         = "target.port"
	KeyProtocol     = "target.protocol"
	KeyConcurrency  = "concurrency"
	KeyJSONMode     = "json_mode"
	KeyTimeout      = "timeout"
	KeyRPS          = "rps"
	KeyCommand      = "launch.command"
	KeyHealthPath   = "launch.health_path"
	KeyReadyTimeout = "launch.ready_timeout"
	KeyInsecure     = "tls.insecure"
	KeyCACert       = "tls.ca_cert"
	KeyClientCert   = "tls.cert"
	KeyClientKey    = "tls.key"
)

var (
	// ConfigDir is the global configuration directory (~/.restspec)
	ConfigDir string

	// DatabasePath is the SQLite database holding run history
	DatabasePath string

	// LogDir receives restspec.log and launched target output
	LogDir string

	// ConfigFile is the global config file
	ConfigFile string
)

// Initialize sets up the configuration directories under the home directory.
// It creates ~/.restspec/ if it doesn't exist.
func Initialize() error {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return fmt.Errorf("failed to get home directory: %w", err)
	}
	return InitializeAt(filepath.Join(homeDir, ".restspec"))
}

// InitializeAt sets the global paths below dir and creates the directories
func InitializeAt(dir string) error {
	ConfigDir = dir
	DatabasePath = filepath.Join(ConfigDir, "restspec.db")
	LogDir = filepath.Join(ConfigDir, "logs")
	ConfigFile = filepath.Join(ConfigDir, "config.yaml")

	for _, d := range []string{ConfigDir, LogDir} {
		if err := os.MkdirAll(d, DirPermissions); err != nil {
			return fmt.Errorf("failed to create directory %s: %w", d, err)
		}
	}

	return nil
}

// Launch is the resolved launch configuration of a run
type Launch struct {
	Host              string
	Port              int
	Protocol          string
	Concurrency       int
	JSONMode          validator.Mode
	Timeout           time.Duration
	RequestsPerSecond float64
	Command           string
	HealthPath        string
	ReadyTimeout      time.Duration
	TLS               *executor.TLSConfig
}

// SetDefaults registers the default value of every key on v
func SetDefaults(v *viper.Viper) {
	v.SetDefault(KeyHost, target.DefaultHost)
	v.SetDefault(KeyPort, 0)
	v.SetDefault(KeyProtocol, target.DefaultScheme)
	v.SetDefault(KeyConcurrency, 1)
	v.SetDefault(KeyJSONMode, "strict")
	v.SetDefault(KeyTimeout, executor.DefaultTimeout)
	v.SetDefault(KeyRPS, 0)
	v.SetDefault(KeyCommand, "")
	v.SetDefault(KeyHealthPath, "")
	v.SetDefault(KeyReadyTimeout, target.DefaultReadyTimeout)
	v.SetDefault(KeyInsecure, false)
	v.SetDefault(KeyCACert, "")
	v.SetDefault(KeyClientCert, "")
	v.SetDefault(KeyClientKey, "")
}

// NewViper returns a viper instance reading the environment and, when one
// exists, configFile, ./.restspec.yaml or ConfigFile in that order.
func NewViper(configFile string) (*viper.Viper, error) {
	v := viper.New()
	SetDefaults(v)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	path := configFile
	if path == "" {
		for _, candidate := range []string{LocalConfigFile, ConfigFile} {
			if candidate == "" {
				continue
			}
			if _, err := os.Stat(candidate); err == nil {
				path = candidate
				break
			}
		}
	}
	if path == "" {
		return v, nil
	}

	v.SetConfigFile(path)
	if err := v.ReadInConfig(); err != nil {
		return nil, types.Wrap(types.KindConfiguration, "config", err, "failed to read "+path)
	}
	return v, nil
}

// LoadEnvFile loads KEY=VALUE pairs into the process environment without
// overriding variables already set. A missing default .env is ignored.
func LoadEnvFile(path string) error {
	explicit := path != ""
	if !explicit {
		path = DefaultEnvFile
	}

	if err := godotenv.Load(path); err != nil {
		if !explicit && errors.Is(err, os.ErrNotExist) {
			return nil
		}
		return types.Wrap(types.KindConfiguration, "config", err, "failed to load env file "+path)
	}
	return nil
}

// LoadLaunch resolves the launch configuration from v
func LoadLaunch(v *viper.Viper) (Launch, error) {
	const op = "config.LoadLaunch"
	SetDefaults(v)

	mode, err := validator.ParseMode(v.GetString(KeyJSONMode))
	if err != nil {
		return Launch{}, err
	}

	l := Launch{
		Host:              v.GetString(KeyHost),
		Port:              v.GetInt(KeyPort),
		Protocol:          v.GetString(KeyProtocol),
		Concurrency:       v.GetInt(KeyConcurrency),
		JSONMode:          mode,
		Timeout:           v.GetDuration(KeyTimeout),
		RequestsPerSecond: v.GetFloat64(KeyRPS),
		Command:           strings.TrimSpace(v.GetString(KeyCommand)),
		HealthPath:        v.GetString(KeyHealthPath),
		ReadyTimeout:      v.GetDuration(KeyReadyTimeout),
	}

	if l.Concurrency < 1 {
		return Launch{}, types.Errorf(types.KindConfiguration, op, "concurrency must be at least 1, got %d", l.Concurrency)
	}
	if l.Timeout <= 0 {
		return Launch{}, types.Errorf(types.KindConfiguration, op, "timeout must be positive, got %s", l.Timeout)
	}
	if l.RequestsPerSecond < 0 {
		return Launch{}, types.Errorf(types.KindConfiguration, op, "rps must not be negative")
	}

	tlsCfg := executor.TLSConfig{
		CAFile:             v.GetString(KeyCACert),
		CertFile:           v.GetString(KeyClientCert),
		KeyFile:            v.GetString(KeyClientKey),
		InsecureSkipVerify: v.GetBool(KeyInsecure),
	}
	if tlsCfg != (executor.TLSConfig{}) {
		l.TLS = &tlsCfg
	}

	return l, nil
}

// Endpoint validates the target address. Port 0 picks a free port.
func (l Launch) Endpoint() (target.Endpoint, error) {
	return target.NewEndpoint(l.Protocol, l.Host, l.Port)
}

// Launcher returns a process launcher when a command is configured and an
// attached launcher otherwise. Process output goes to logPath.
func (l Launch) Launcher(logPath string) (target.Launcher, error) {
	if l.Command == "" {
		return &target.Attached{HealthPath: l.HealthPath, ReadyTimeout: l.ReadyTimeout}, nil
	}

	cmd, err := target.ParseCommand(l.Command)
	if err != nil {
		return nil, types.Wrap(types.KindConfiguration, "config.Launcher", err, "invalid "+KeyCommand)
	}
	cmd.HealthPath = l.HealthPath
	cmd.ReadyTimeout = l.ReadyTimeout
	cmd.LogPath = logPath
	return cmd, nil
}
