package config

import (
	"time"

	"github.com/spf13/viper"
)

type Config struct {
	Server   ServerConfig   `mapstructure:"server"`
	Database DatabaseConfig `mapstructure:"database"`
	Engine   EngineConfig   `mapstructure:"engine"`
}

type ServerConfig struct {
	HTTPAddress    string `mapstructure:"http_address"`
	RPCAddress     string `mapstructure:"rpc_address"`
	MetricsAddress string `mapstructure:"metrics_address"`
}

type DatabaseConfig struct {
	// Driver selects the persistence implementation: "gorm" or "pq".
	Driver   string         `mapstructure:"driver"`
	Postgres PostgresConfig `mapstructure:"postgres"`
}

type PostgresConfig struct {
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	User     string `mapstructure:"user"`
	Password string `mapstructure:"password"`
	DBName   string `mapstructure:"dbname"`
}

// EngineConfig is the static match-engine tuning supplied at startup.
type EngineConfig struct {
	// FeeRateBP is the platform fee in basis points (250 = 2.5%).
	FeeRateBP int64 `mapstructure:"fee_rate_bp"`
	// GracePeriod is how long a disconnected seat keeps human control.
	GracePeriod time.Duration `mapstructure:"grace_period"`
	// CleanupDelay before an all-disconnected waiting room is torn down.
	CleanupDelay time.Duration `mapstructure:"cleanup_delay"`
	// BotDelayMin/Max bound the simulated thinking time of automated seats.
	BotDelayMin time.Duration `mapstructure:"bot_delay_min"`
	BotDelayMax time.Duration `mapstructure:"bot_delay_max"`
	// PartnerBotErrorRate is the chance [0,1] that a bot partnered with a
	// human deliberately picks a weaker move.
	PartnerBotErrorRate float64 `mapstructure:"partner_bot_error_rate"`
	// TargetScore ends a target-mode trick game when a seat reaches it.
	TargetScore int `mapstructure:"target_score"`
	// MaxStake is the per-seat stake ceiling in minor units (0 = no limit).
	MaxStake int64 `mapstructure:"max_stake"`
	// DrawBetAnte and DrawBetRaiseCap bound the draw-betting variant.
	DrawBetAnte     int64 `mapstructure:"draw_bet_ante"`
	DrawBetRaiseCap int64 `mapstructure:"draw_bet_raise_cap"`
}

func LoadConfig(path string) (config *Config, err error) {
	viper.AddConfigPath(path)
	viper.SetConfigName("config")
	viper.SetConfigType("yaml")

	viper.SetDefault("engine.fee_rate_bp", 250)
	viper.SetDefault("engine.grace_period", "20s")
	viper.SetDefault("engine.cleanup_delay", "60s")
	viper.SetDefault("engine.bot_delay_min", "400ms")
	viper.SetDefault("engine.bot_delay_max", "900ms")
	viper.SetDefault("engine.partner_bot_error_rate", 0.25)
	viper.SetDefault("engine.target_score", 51)
	viper.SetDefault("engine.draw_bet_ante", 100)
	viper.SetDefault("engine.draw_bet_raise_cap", 1600)

	viper.AutomaticEnv()

	err = viper.ReadInConfig()
	if err != nil {
		return
	}

	err = viper.Unmarshal(&config)
	return
}
