// Package config provides the configuration types and loaders shared by
// services that use fault-lib.
//
// Usage:
//
//	import "github.com/Goden-Gun/fault-lib/pkg/config"
//
//	type MyConfig struct {
//	    App   config.AppConfig   `yaml:"app" mapstructure:"app"`
//	    Log   config.LogConfig   `yaml:"log" mapstructure:"log"`
//	    Retry config.RetryConfig `yaml:"retry" mapstructure:"retry"`
//	    // ... service-specific configs
//	}
//
//	func LoadMyConfig() (*MyConfig, error) {
//	    cfg := &MyConfig{}
//	    if err := config.LoadConfig(cfg); err != nil {
//	        return nil, err
//	    }
//	    cfg.Retry.ApplyDefaults()
//	    return cfg, nil
//	}
//
// Services that need the whole fault-handling stack can use Config and
// Load directly.
package config
