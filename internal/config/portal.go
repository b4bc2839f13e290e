package config

import (
	"log"
	"strings"
	"sync/atomic"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/viper"
)

// PortalConfig holds review-policy knobs that operators tune without a
// redeploy. It is read from portal.yml and hot-reloaded on change.
type PortalConfig struct {
	UnreadCacheTTL     time.Duration `mapstructure:"unreadCacheTTL"`
	MaxCommentLength   int           `mapstructure:"maxCommentLength"`
	EnabledMemberships []string      `mapstructure:"enabledMemberships"`
}

const DefaultMaxCommentLength = 4000

func DefaultPortalConfig() PortalConfig {
	return PortalConfig{
		// The unread counter tolerates being stale for up to ten minutes.
		UnreadCacheTTL:   10 * time.Minute,
		MaxCommentLength: DefaultMaxCommentLength,
		EnabledMemberships: []string{
			"ordinary", "associate", "individual", "trade_association",
		},
	}
}

type PortalConfigHolder struct {
	current atomic.Value // holds PortalConfig
}

func NewPortalConfigHolder() (*PortalConfigHolder, error) {
	v := viper.New()

	v.SetConfigName("portal")
	v.SetConfigType("yml")
	v.AddConfigPath("/var/lib/memberportal/config")
	v.AddConfigPath("/etc/memberportal")
	v.AddConfigPath(".")

	v.SetEnvPrefix("MEMBERPORTAL")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	holder := &PortalConfigHolder{}

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, err
		}
		holder.current.Store(DefaultPortalConfig())
		return holder, nil
	}

	cfg, err := unmarshalPortal(v)
	if err != nil {
		return nil, err
	}
	holder.current.Store(cfg)

	v.OnConfigChange(func(event fsnotify.Event) {
		reloaded, err := unmarshalPortal(v)
		if err != nil {
			log.Printf("portal config reload failed: %v", err)
			return
		}
		holder.current.Store(reloaded)
	})
	v.WatchConfig()

	return holder, nil
}

func (h *PortalConfigHolder) Get() PortalConfig {
	if value, ok := h.current.Load().(PortalConfig); ok {
		return value
	}
	return DefaultPortalConfig()
}

func unmarshalPortal(v *viper.Viper) (PortalConfig, error) {
	cfg := DefaultPortalConfig()
	if err := v.UnmarshalKey("portal", &cfg); err != nil {
		return PortalConfig{}, err
	}
	if cfg.UnreadCacheTTL <= 0 {
		cfg.UnreadCacheTTL = DefaultPortalConfig().UnreadCacheTTL
	}
	if cfg.MaxCommentLength <= 0 {
		cfg.MaxCommentLength = DefaultPortalConfig().MaxCommentLength
	}
	if len(cfg.EnabledMemberships) == 0 {
		cfg.EnabledMemberships = DefaultPortalConfig().EnabledMemberships
	}
	return cfg, nil
}
