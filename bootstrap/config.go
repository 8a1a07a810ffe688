package bootstrap

import (
	"github.com/kbukum/depkit/config"
)

// Config is what Setup needs from a configuration type. Any struct embedding
// config.ServiceConfig satisfies it through promoted methods.
//
//	type MyConfig struct {
//	    config.ServiceConfig `yaml:",inline" mapstructure:",squash"`
//	    Pricing PricingConfig `yaml:"pricing" mapstructure:"pricing"`
//	}
//
//	rt, err := bootstrap.Setup(ctx, &cfg)
type Config interface {
	GetServiceConfig() *config.ServiceConfig
	ApplyDefaults()
	Validate() error
}
