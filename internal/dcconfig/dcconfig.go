// Package dcconfig loads the deployment core's ambient defaults — per-platform
// backup retention, streaming thresholds, and performance thresholds — from an
// optional TOML file, overridable by environment variables (bound through
// viper). It mirrors the teacher's internal/config package
// (deploy.go's key-table-plus-env-mapping shape, yaml_config.go's
// file-plus-override layering), done in TOML instead of YAML.
package dcconfig

import (
	"fmt"
	"os"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/spf13/viper"

	"github.com/bulgogi-whopper/taptik-deploy-core/internal/deployerr"
	"github.com/bulgogi-whopper/taptik-deploy-core/internal/types"
)

// Key describes one dcconfig.* configuration key, modeled on the teacher's
// DeployKey table (internal/config/deploy.go): a name, an optional env var
// mapping, a default, and an optional validator.
type Key struct {
	Name        string
	Description string
	EnvVar      string
	Default     string
	Validate    func(string) error
}

// Keys defines every fixed dcconfig.* key; init() builds the lookup table
// from this declared slice, matching the teacher's pattern. Per-platform
// retention is not a Key: Load reads it from the file's [retention_days]
// table and from DEPLOYCORE_RETENTION_DAYS_<PLATFORM> env vars.
var Keys = []Key{
	{
		Name:        "dcconfig.large_file_threshold_bytes",
		Description: "size above which an artifact is streamed in chunks rather than read whole",
		EnvVar:      "DEPLOYCORE_LARGE_FILE_THRESHOLD_BYTES",
		Default:     "10485760",
		Validate:    validatePositiveInt,
	},
	{
		Name:        "dcconfig.memory_threshold_bytes",
		Description: "heap usage above which the streamer requests a GC hint",
		EnvVar:      "DEPLOYCORE_MEMORY_THRESHOLD_BYTES",
		Default:     "209715200",
		Validate:    validatePositiveInt,
	},
	{
		Name:        "dcconfig.deployment_timeout",
		Description: "wall-clock duration after which a deployment is flagged as over budget",
		EnvVar:      "DEPLOYCORE_DEPLOYMENT_TIMEOUT",
		Default:     "30s",
		Validate:    validateDuration,
	},
	{
		Name:        "dcconfig.component_timeout",
		Description: "wall-clock duration after which a single component is flagged as over budget",
		EnvVar:      "DEPLOYCORE_COMPONENT_TIMEOUT",
		Default:     "10s",
		Validate:    validateDuration,
	},
	{
		Name:        "dcconfig.heap_threshold_bytes",
		Description: "peak heap usage above which a deployment is flagged as over budget",
		EnvVar:      "DEPLOYCORE_HEAP_THRESHOLD_BYTES",
		Default:     "209715200",
		Validate:    validatePositiveInt,
	},
	{
		Name:        "dcconfig.default_retention_days",
		Description: "fallback backup retention, in days, for a platform with no explicit override",
		EnvVar:      "DEPLOYCORE_DEFAULT_RETENTION_DAYS",
		Default:     "30",
		Validate:    validatePositiveInt,
	},
}

var keyMap map[string]*Key

func init() {
	keyMap = make(map[string]*Key, len(Keys))
	for i := range Keys {
		keyMap[Keys[i].Name] = &Keys[i]
	}
}

// LookupKey returns the Key definition for name, or nil if unrecognized.
func LookupKey(name string) *Key {
	return keyMap[name]
}

// platformRetentionEnvVar returns the env var dcconfig binds for a
// per-platform retention override, e.g. DEPLOYCORE_RETENTION_DAYS_CLAUDECODE.
func platformRetentionEnvVar(platform types.Platform) string {
	return "DEPLOYCORE_RETENTION_DAYS_" + envSuffix(string(platform))
}

func envSuffix(platform string) string {
	out := make([]byte, 0, len(platform))
	for _, r := range platform {
		if r >= 'a' && r <= 'z' {
			r -= 'a' - 'A'
		}
		out = append(out, byte(r))
	}
	return string(out)
}

// Config is the resolved set of ambient defaults the orchestrator and its
// collaborators are constructed with.
type Config struct {
	LargeFileThresholdBytes int64
	MemoryThresholdBytes    int64
	Thresholds              types.PerformanceThresholds
	DefaultRetentionDays    int
	RetentionDaysByPlatform map[types.Platform]int
}

// fileConfig is the TOML document shape loaded from an optional config file.
type fileConfig struct {
	LargeFileThresholdBytes int64            `toml:"large_file_threshold_bytes"`
	MemoryThresholdBytes    int64            `toml:"memory_threshold_bytes"`
	DeploymentTimeout       string           `toml:"deployment_timeout"`
	ComponentTimeout        string           `toml:"component_timeout"`
	HeapThresholdBytes      int64            `toml:"heap_threshold_bytes"`
	DefaultRetentionDays    int              `toml:"default_retention_days"`
	RetentionDaysByPlatform map[string]int   `toml:"retention_days"`
}

// Load resolves Config from three layers, lowest to highest precedence:
// built-in defaults, an optional TOML file at path (skipped entirely if it
// doesn't exist), then environment variables bound via viper. path may be
// empty to skip the file layer.
func Load(path string) (Config, error) {
	v := viper.New()

	for _, k := range Keys {
		v.SetDefault(k.Name, k.Default)
		if k.EnvVar != "" {
			if err := v.BindEnv(k.Name, k.EnvVar); err != nil {
				return Config{}, deployerr.Wrap(deployerr.InternalInvariant, "bind env var for "+k.Name, err)
			}
		}
	}

	var fc fileConfig
	if path != "" {
		if _, err := os.Stat(path); err == nil {
			if _, err := toml.DecodeFile(path, &fc); err != nil {
				return Config{}, deployerr.Wrap(deployerr.InternalInvariant, "parse dcconfig file "+path, err)
			}
			if fc.LargeFileThresholdBytes > 0 {
				v.SetDefault("dcconfig.large_file_threshold_bytes", fc.LargeFileThresholdBytes)
			}
			if fc.MemoryThresholdBytes > 0 {
				v.SetDefault("dcconfig.memory_threshold_bytes", fc.MemoryThresholdBytes)
			}
			if fc.DeploymentTimeout != "" {
				v.SetDefault("dcconfig.deployment_timeout", fc.DeploymentTimeout)
			}
			if fc.ComponentTimeout != "" {
				v.SetDefault("dcconfig.component_timeout", fc.ComponentTimeout)
			}
			if fc.HeapThresholdBytes > 0 {
				v.SetDefault("dcconfig.heap_threshold_bytes", fc.HeapThresholdBytes)
			}
			if fc.DefaultRetentionDays > 0 {
				v.SetDefault("dcconfig.default_retention_days", fc.DefaultRetentionDays)
			}
		} else if !os.IsNotExist(err) {
			return Config{}, deployerr.Wrap(deployerr.InternalInvariant, "stat dcconfig file "+path, err)
		}
	}

	for _, k := range Keys {
		if k.Validate == nil {
			continue
		}
		if err := k.Validate(v.GetString(k.Name)); err != nil {
			return Config{}, deployerr.Wrap(deployerr.InternalInvariant, "invalid value for "+k.Name, err).
				WithSeverity(deployerr.SeverityHigh)
		}
	}

	deploymentTimeout, err := time.ParseDuration(v.GetString("dcconfig.deployment_timeout"))
	if err != nil {
		return Config{}, deployerr.Wrap(deployerr.InternalInvariant, "parse dcconfig.deployment_timeout", err)
	}
	componentTimeout, err := time.ParseDuration(v.GetString("dcconfig.component_timeout"))
	if err != nil {
		return Config{}, deployerr.Wrap(deployerr.InternalInvariant, "parse dcconfig.component_timeout", err)
	}

	retentionByPlatform := map[types.Platform]int{
		types.PlatformClaudeCode: v.GetInt("dcconfig.default_retention_days"),
		types.PlatformKiro:       v.GetInt("dcconfig.default_retention_days"),
		types.PlatformCursor:     v.GetInt("dcconfig.default_retention_days"),
		types.PlatformWindsurf:   v.GetInt("dcconfig.default_retention_days"),
	}
	for _, platform := range []types.Platform{types.PlatformClaudeCode, types.PlatformKiro, types.PlatformCursor, types.PlatformWindsurf} {
		if override, ok := fc.RetentionDaysByPlatform[string(platform)]; ok && override > 0 {
			retentionByPlatform[platform] = override
		}
		if envValue := os.Getenv(platformRetentionEnvVar(platform)); envValue != "" {
			var days int
			if _, err := fmt.Sscanf(envValue, "%d", &days); err == nil && days > 0 {
				retentionByPlatform[platform] = days
			}
		}
	}

	return Config{
		LargeFileThresholdBytes: v.GetInt64("dcconfig.large_file_threshold_bytes"),
		MemoryThresholdBytes:    v.GetInt64("dcconfig.memory_threshold_bytes"),
		Thresholds: types.PerformanceThresholds{
			DeploymentTimeout:  deploymentTimeout,
			ComponentTimeout:   componentTimeout,
			HeapThresholdBytes: v.GetInt64("dcconfig.heap_threshold_bytes"),
		},
		DefaultRetentionDays:    v.GetInt("dcconfig.default_retention_days"),
		RetentionDaysByPlatform: retentionByPlatform,
	}, nil
}

func validatePositiveInt(value string) error {
	var n int64
	if _, err := fmt.Sscanf(value, "%d", &n); err != nil {
		return fmt.Errorf("must be an integer, got %q", value)
	}
	if n <= 0 {
		return fmt.Errorf("must be positive, got %d", n)
	}
	return nil
}

func validateDuration(value string) error {
	if _, err := time.ParseDuration(value); err != nil {
		return fmt.Errorf("must be a duration (e.g. \"30s\"), got %q: %w", value, err)
	}
	return nil
}
