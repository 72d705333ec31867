package config

import (
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Config 服务端配置
type Config struct {
	Server ServerConfig `yaml:"server"`
	Redis  RedisConfig  `yaml:"redis"`
	Game   GameConfig   `yaml:"game"`
}

// ServerConfig WebSocket 服务器配置
type ServerConfig struct {
	Host string `yaml:"host"`
	Port int    `yaml:"port"`
}

// RedisConfig Redis 配置
type RedisConfig struct {
	Addr     string `yaml:"addr"`
	Password string `yaml:"password"`
	DB       int    `yaml:"db"`
}

// GameConfig 游戏配置
type GameConfig struct {
	DiscussionTime         int `yaml:"discussion_time"`          // 讨论阶段时长（秒）
	SpeedrunDiscussionTime int `yaml:"speedrun_discussion_time"` // speedrun 模式讨论时长（秒）
	VotingTime             int `yaml:"voting_time"`              // 投票阶段时长（秒）
	RoomTimeout            int `yaml:"room_timeout"`             // 等待中房间超时（分钟）
	InitialHandSize        int `yaml:"initial_hand_size"`        // UNO 起始手牌数
}

// DiscussionDuration 返回指定模式的讨论阶段时长
func (c *GameConfig) DiscussionDuration(speedrun bool) time.Duration {
	if speedrun {
		return time.Duration(c.SpeedrunDiscussionTime) * time.Second
	}
	return time.Duration(c.DiscussionTime) * time.Second
}

// VotingDuration 返回投票阶段时长
func (c *GameConfig) VotingDuration() time.Duration {
	return time.Duration(c.VotingTime) * time.Second
}

// RoomTimeoutDuration 返回房间等待超时时长
func (c *GameConfig) RoomTimeoutDuration() time.Duration {
	return time.Duration(c.RoomTimeout) * time.Minute
}

// Load 加载配置文件
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, err
	}

	cfg.applyDefaults()
	return &cfg, nil
}

// applyDefaults 填充缺省值
func (c *Config) applyDefaults() {
	if c.Server.Host == "" {
		c.Server.Host = "0.0.0.0"
	}
	if c.Server.Port == 0 {
		c.Server.Port = 1780
	}
	if c.Redis.Addr == "" {
		c.Redis.Addr = "localhost:6379"
	}
	if c.Game.DiscussionTime == 0 {
		c.Game.DiscussionTime = 300
	}
	if c.Game.SpeedrunDiscussionTime == 0 {
		c.Game.SpeedrunDiscussionTime = 120
	}
	if c.Game.VotingTime == 0 {
		c.Game.VotingTime = 60
	}
	if c.Game.RoomTimeout == 0 {
		c.Game.RoomTimeout = 30
	}
	if c.Game.InitialHandSize == 0 {
		c.Game.InitialHandSize = 7
	}
}

// Default 返回默认配置
func Default() *Config {
	cfg := &Config{}
	cfg.applyDefaults()
	return cfg
}
