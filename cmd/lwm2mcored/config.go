package main

import (
	"fmt"
	"strings"

	"github.com/spf13/viper"
)

// Config is the viper-backed, file+env configuration for the example
// binary. Config file I/O is a thin adapter, so none of the core
// packages ever see a *Config — they take constructed Go values only.
type Config struct {
	Endpoint        string `mapstructure:"endpoint"`
	BootstrapServer string `mapstructure:"bootstrap_server"`
	DMServerID      uint16 `mapstructure:"dm_server_id"`
	StoragePath     string `mapstructure:"storage_path"`
	MetricsAddr     string `mapstructure:"metrics_addr"`

	Device DeviceConfig `mapstructure:"device"`
}

// DeviceConfig seeds deviceinfo.StaticProvider's fixed fields.
type DeviceConfig struct {
	Manufacturer    string `mapstructure:"manufacturer"`
	ModelNumber     string `mapstructure:"model_number"`
	SerialNumber    string `mapstructure:"serial_number"`
	FirmwareVersion string `mapstructure:"firmware_version"`
	IMEI            string `mapstructure:"imei"`
	ICCID           string `mapstructure:"iccid"`
	SubscriptionID  string `mapstructure:"subscription_id"`
	MSISDN          string `mapstructure:"msisdn"`
}

func defaultConfig() Config {
	return Config{
		Endpoint:    "lwm2mcore-client",
		DMServerID:  123,
		StoragePath: "./lwm2mcore.badger",
		MetricsAddr: ":9100",
		Device: DeviceConfig{
			Manufacturer: "lwm2mcore",
			ModelNumber:  "generic",
		},
	}
}

// loadConfig reads configPath (if non-empty) plus LWM2MCORE_-prefixed
// environment overrides into a Config, falling back to defaultConfig's
// values for anything unset.
func loadConfig(configPath string) (Config, error) {
	cfg := defaultConfig()

	v := viper.New()
	v.SetEnvPrefix("lwm2mcore")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	v.SetConfigType("yaml")

	if configPath != "" {
		v.SetConfigFile(configPath)
		if err := v.ReadInConfig(); err != nil {
			return cfg, fmt.Errorf("lwm2mcored: reading config %s: %w", configPath, err)
		}
	}

	if err := v.Unmarshal(&cfg); err != nil {
		return cfg, fmt.Errorf("lwm2mcored: parsing config: %w", err)
	}
	return cfg, nil
}
