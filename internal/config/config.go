package config

import "time"

// Config is the root configuration for a nestor instance.
type Config struct {
	API        APIConfig        `yaml:"api"`
	Archive    ArchiveConfig    `yaml:"archive"`
	Events     []string         `yaml:"events"`
	Router     RouterConfig     `yaml:"router"`
	Connection ConnectionConfig `yaml:"connection"`
	Health     HealthConfig     `yaml:"health"`
}

// APIConfig holds Slack Web API settings. Token may be left empty and
// supplied through the environment instead; see the auth package.
type APIConfig struct {
	BaseURL    string        `yaml:"base_url"`
	Token      string        `yaml:"token"`
	Timeout    time.Duration `yaml:"timeout"`
	MaxRetries int           `yaml:"max_retries"`
}

// ArchiveConfig holds the destination of the per-channel event logs.
// A positional command line argument overrides Dir.
type ArchiveConfig struct {
	Dir string `yaml:"dir"`
}

// RouterConfig holds routing and augmentation settings. Augment and
// LogDropped are pointers so an explicit false survives defaulting.
type RouterConfig struct {
	Augment    *bool  `yaml:"augment"`
	React      bool   `yaml:"react"`
	Reaction   string `yaml:"reaction"`
	LogDropped *bool  `yaml:"log_dropped"`
}

// ConnectionConfig holds RTM websocket settings.
type ConnectionConfig struct {
	ReconnectBaseDelay time.Duration `yaml:"reconnect_base_delay"`
	ReconnectMaxDelay  time.Duration `yaml:"reconnect_max_delay"`
	PingInterval       time.Duration `yaml:"ping_interval"`
	PongTimeout        time.Duration `yaml:"pong_timeout"`
	BufferSize         int           `yaml:"buffer_size"`
}

// HealthConfig holds the optional health endpoint. An empty Addr disables it.
type HealthConfig struct {
	Addr string `yaml:"addr"`
}
