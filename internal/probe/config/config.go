package config

import (
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/knadh/koanf/providers/env/v2"
	"github.com/knadh/koanf/providers/structs"
	"github.com/knadh/koanf/v2"
)

// AppConfig holds daemon configuration parsed from environment variables.
type AppConfig struct {
	// Env is the runtime environment, either "dev" or "prod".
	Env string `koanf:"env" validate:"required,oneof=dev prod"`

	// LogLevel controls log verbosity: "debug", "info", "warn", or "error".
	LogLevel string `koanf:"log_level" validate:"required,oneof=debug info warn error"`

	// Listen is the host:port the HTTP API binds to.
	Listen string `koanf:"listen" validate:"required,hostname_port"`

	// CacheSize is the per-instance decision cache capacity; 0 disables it.
	CacheSize int `koanf:"cache_size" validate:"gte=0"`

	// DataDir is where persistent instances keep their bolt databases.
	DataDir string `koanf:"data_dir" validate:"required"`

	// InstancesFile is the HuJSON file declaring the instances to start.
	InstancesFile string `koanf:"instances_file" validate:"required"`
}

// DefaultAppConfig defines the default daemon configuration.
var DefaultAppConfig = AppConfig{
	Env:           "prod",
	LogLevel:      "info",
	Listen:        ":7080",
	CacheSize:     1024,
	DataDir:       "/var/lib/probecached",
	InstancesFile: "/etc/probecached/instances.hujson",
}

// envLoader loads environment variables with the prefix "PROBE_",
// transforming keys to lowercase without the prefix. Mockable in tests.
var envLoader = func(k *koanf.Koanf) error {
	return k.Load(env.Provider(".", env.Opt{
		Prefix: "PROBE_",
		TransformFunc: func(key, value string) (string, any) {
			key = strings.ToLower(strings.TrimPrefix(key, "PROBE_"))
			return key, strings.TrimSpace(value)
		},
	}), nil)
}

// defaultLoader loads DefaultAppConfig via the structs provider.
var defaultLoader = func(k *koanf.Koanf) error {
	return k.Load(structs.Provider(DefaultAppConfig, "koanf"), nil)
}

// Load parses environment variables into an AppConfig, applying defaults and
// running validation.
func Load() (*AppConfig, error) {
	k := koanf.New(".")

	if err := defaultLoader(k); err != nil {
		return nil, fmt.Errorf("error loading default config: %w", err)
	}
	if err := envLoader(k); err != nil {
		return nil, fmt.Errorf("error loading env: %w", err)
	}

	var cfg AppConfig
	if err := k.Unmarshal("", &cfg); err != nil {
		return nil, fmt.Errorf("error unmarshalling config: %w", err)
	}

	validate := validator.New(validator.WithRequiredStructEnabled())
	if err := validate.Struct(&cfg); err != nil {
		return nil, fmt.Errorf("validation failed: %w", err)
	}

	return &cfg, nil
}
