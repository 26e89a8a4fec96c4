package config

import (
	"errors"
	"log"
	"strings"
	"sync/atomic"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/viper"
)

// BillingConfig holds the pricing knobs read from billing.yml.
type BillingConfig struct {
	VATRate           float64 `mapstructure:"vatRate"`
	PaymentDueDays    int     `mapstructure:"paymentDueDays"`
	ChargeMaxAttempts int     `mapstructure:"chargeMaxAttempts"`
}

func DefaultBillingConfig() BillingConfig {
	return BillingConfig{
		VATRate:           0.10,
		PaymentDueDays:    14,
		ChargeMaxAttempts: 3,
	}
}

type BillingConfigHolder struct {
	current atomic.Value // holds BillingConfig
}

func NewBillingConfigHolder() (*BillingConfigHolder, error) {
	v := viper.New()

	v.SetConfigName("billing")
	v.SetConfigType("yml")
	v.AddConfigPath("/var/lib/scriba/config") // Volume-mounted config
	v.AddConfigPath("/etc/scriba")            // System config
	v.AddConfigPath(".")                      // Current directory (dev mode)

	v.SetEnvPrefix("SCRIBA")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	defaults := DefaultBillingConfig()
	v.SetDefault("billing.vatRate", defaults.VATRate)
	v.SetDefault("billing.paymentDueDays", defaults.PaymentDueDays)
	v.SetDefault("billing.chargeMaxAttempts", defaults.ChargeMaxAttempts)

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, err
		}
	}

	var cfg BillingConfig
	if err := v.UnmarshalKey("billing", &cfg); err != nil {
		return nil, err
	}
	if err := validateBillingConfig(cfg); err != nil {
		return nil, err
	}

	holder := &BillingConfigHolder{}
	holder.current.Store(cfg)

	v.WatchConfig()
	v.OnConfigChange(func(e fsnotify.Event) {
		var updated BillingConfig
		if err := v.UnmarshalKey("billing", &updated); err != nil {
			log.Printf("[billing-config] reload failed: %v", err)
			return
		}
		if err := validateBillingConfig(updated); err != nil {
			log.Printf("[billing-config] invalid config ignored: %v", err)
			return
		}
		holder.current.Store(updated)
		log.Printf("[billing-config] reloaded from %s", e.Name)
	})

	return holder, nil
}

func (h *BillingConfigHolder) Get() BillingConfig {
	return h.current.Load().(BillingConfig)
}

// NewStaticBillingConfigHolder returns a holder pinned to cfg, without file watching.
func NewStaticBillingConfigHolder(cfg BillingConfig) *BillingConfigHolder {
	holder := &BillingConfigHolder{}
	holder.current.Store(cfg)
	return holder
}

func validateBillingConfig(cfg BillingConfig) error {
	if cfg.VATRate < 0 || cfg.VATRate >= 1 {
		return errors.New("billing.vatRate must be in [0, 1)")
	}
	if cfg.PaymentDueDays <= 0 {
		return errors.New("billing.paymentDueDays must be positive")
	}
	if cfg.ChargeMaxAttempts <= 0 {
		return errors.New("billing.chargeMaxAttempts must be positive")
	}
	return nil
}
