// Package config loads and validates the JSON document that describes a
// device coordination process: its web server port, channels, nodes, scenes,
// and optional notification sinks.
package config

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/go-playground/validator/v10"
)

const (
	// DefaultConfigPath is used when no --config flag is given.
	DefaultConfigPath = "config.json"
	// DefaultWebServerPort backs the minimal status HTTP surface.
	DefaultWebServerPort = 8080
)

// Config is the root configuration document.
type Config struct {
	WebServer     WebServerConfig      `json:"web_server" validate:"required"`
	Channels      []ChannelConfig      `json:"channels" validate:"dive"`
	Nodes         []NodeConfig         `json:"nodes" validate:"dive"`
	Scenes        []SceneConfig        `json:"scenes" validate:"dive"`
	Notifications *NotificationsConfig `json:"notifications,omitempty" validate:"omitempty"`
}

// WebServerConfig binds the read-only status HTTP surface.
type WebServerConfig struct {
	Port int `json:"port" validate:"required,min=1,max=65535"`
}

// ChannelConfig describes one configured channel.
type ChannelConfig struct {
	ChannelID          int64          `json:"channel_id" validate:"required"`
	Enabled            bool           `json:"enabled"`
	ProtocolKind       string         `json:"protocol_kind" validate:"required,oneof=pjlink modbus modbus_gateway xinke_q1 computer_control custom screen_plc hs_sequencer novastar mock"`
	Description        string         `json:"description,omitempty"`
	Parameters         map[string]any `json:"parameters"`
	DispatchTimeoutMS  int64          `json:"dispatch_timeout_ms,omitempty" validate:"omitempty,min=1"`
	NotifyOnDisconnect bool           `json:"notify_on_disconnect,omitempty"`
}

// DependencyPredicate gates a node write on another node's observed state.
type DependencyPredicate struct {
	RefID         int64   `json:"ref_id" validate:"required"`
	EqualsValue   *any    `json:"equals_value,omitempty"`
	RequiresOnline *bool  `json:"requires_online,omitempty"`
	Strategy      string  `json:"strategy" validate:"required,oneof=auto manual"`
}

// NodeConfig describes one configured node.
type NodeConfig struct {
	GlobalID   int64                 `json:"global_id" validate:"required"`
	ChannelID  int64                 `json:"channel_id" validate:"required"`
	DeviceID   int64                 `json:"device_id"`
	Alias      string                `json:"alias" validate:"required"`
	Scale      *float64              `json:"scale,omitempty"`
	Dependency []DependencyPredicate `json:"dependency,omitempty" validate:"dive"`
}

// SceneStep is one write step of a scene.
type SceneStep struct {
	GlobalID    int64   `json:"global_id" validate:"required"`
	TargetValue any     `json:"value"`
	DelayAfterMS int64  `json:"delay_after_ms,omitempty" validate:"omitempty,min=0"`
}

// SceneConfig describes a named, ordered sequence of writes.
type SceneConfig struct {
	Name         string      `json:"name" validate:"required"`
	AbortOnError bool        `json:"abort_on_error,omitempty"`
	CronExpr     string      `json:"cron_expr,omitempty"`
	Steps        []SceneStep `json:"steps" validate:"dive"`
}

// NotificationsConfig configures the optional Notification Sink.
type NotificationsConfig struct {
	Discord  *DiscordNotificationConfig  `json:"discord,omitempty"`
	Telegram *TelegramNotificationConfig `json:"telegram,omitempty"`
	Email    *EmailNotificationConfig    `json:"email,omitempty"`
}

// DiscordNotificationConfig configures Discord alert delivery.
type DiscordNotificationConfig struct {
	BotToken  string `json:"bot_token" validate:"required"`
	ChannelID string `json:"channel_id" validate:"required"`
}

// TelegramNotificationConfig configures Telegram alert delivery.
type TelegramNotificationConfig struct {
	BotToken string `json:"bot_token" validate:"required"`
	ChatID   int64  `json:"chat_id" validate:"required"`
}

// EmailNotificationConfig configures SMTP alert delivery.
type EmailNotificationConfig struct {
	SMTPHost string `json:"smtp_host" validate:"required"`
	SMTPPort int    `json:"smtp_port" validate:"required,min=1,max=65535"`
	Username string `json:"username"`
	Password string `json:"password"`
	From     string `json:"from" validate:"required,email"`
	To       string `json:"to" validate:"required,email"`
}

var validate = validator.New()

// Load reads and validates the configuration document at path. Duplicate
// channel_id or global_id values are treated as a load-time fatal error,
// matching the same check the channel registry and node manager would
// otherwise have to perform independently.
func Load(path string) (*Config, error) {
	if path == "" {
		path = DefaultConfigPath
	}
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config %s: %w", path, err)
	}

	cfg := &Config{WebServer: WebServerConfig{Port: DefaultWebServerPort}}
	if err := json.Unmarshal(raw, cfg); err != nil {
		return nil, fmt.Errorf("parse config %s: %w", path, err)
	}

	if err := validate.Struct(cfg); err != nil {
		return nil, fmt.Errorf("validate config %s: %w", path, err)
	}

	if err := checkDuplicates(cfg); err != nil {
		return nil, fmt.Errorf("config %s: %w", path, err)
	}

	return cfg, nil
}

func checkDuplicates(cfg *Config) error {
	seenChannels := map[int64]bool{}
	for _, ch := range cfg.Channels {
		if seenChannels[ch.ChannelID] {
			return fmt.Errorf("duplicate channel_id %d", ch.ChannelID)
		}
		seenChannels[ch.ChannelID] = true
	}

	seenNodes := map[int64]bool{}
	for _, n := range cfg.Nodes {
		if seenNodes[n.GlobalID] {
			return fmt.Errorf("duplicate global_id %d", n.GlobalID)
		}
		seenNodes[n.GlobalID] = true
		if !seenChannels[n.ChannelID] {
			return fmt.Errorf("node %d references unknown channel_id %d", n.GlobalID, n.ChannelID)
		}
	}
	return nil
}
