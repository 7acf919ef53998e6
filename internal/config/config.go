package config

import (
	"errors"
	"io/fs"
	"strings"

	"github.com/spf13/viper"
	"github.com/subosito/gotenv"
)

type Config struct {
	App struct {
		Env      string
		Timezone string
	} `mapstructure:"app"`

	HTTP struct {
		Addr string
	} `mapstructure:"http"`

	Postgres struct {
		DSN string
	} `mapstructure:"postgres"`

	Storage struct {
		// Driver is "postgres" or "memory".
		Driver string
	} `mapstructure:"storage"`

	Metrics struct {
		Enabled bool
	} `mapstructure:"metrics"`

	Telegram struct {
		Token      string
		ChatIDs    []int64 `mapstructure:"chat_ids"`
		BotEnabled bool    `mapstructure:"bot_enabled"`
	} `mapstructure:"telegram"`

	Export struct {
		DailyAt string `mapstructure:"daily_at"`
		Enabled bool
	} `mapstructure:"export"`

	DeliveryTargets []string `mapstructure:"delivery_targets"`
}

// Load reads the YAML file at path. A .env file in the working directory is
// loaded first; APP_* variables override file values (APP_POSTGRES_DSN for
// postgres.dsn).
func Load(path string) (Config, error) {
	if err := gotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return Config{}, err
	}

	v := viper.New()
	v.SetConfigFile(path)
	v.SetEnvPrefix("APP")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	v.SetDefault("app.env", "prod")
	v.SetDefault("app.timezone", "Europe/Berlin")
	v.SetDefault("http.addr", ":8080")
	v.SetDefault("storage.driver", "postgres")
	v.SetDefault("metrics.enabled", true)
	v.SetDefault("telegram.token", "")
	v.SetDefault("telegram.chat_ids", []int64{})
	v.SetDefault("telegram.bot_enabled", false)
	v.SetDefault("export.daily_at", "16:00")
	v.SetDefault("export.enabled", false)
	v.SetDefault("postgres.dsn", "")
	v.SetDefault("delivery_targets", []string{})

	var c Config
	if err := v.ReadInConfig(); err != nil {
		return c, err
	}
	if err := v.Unmarshal(&c); err != nil {
		return c, err
	}
	return c, nil
}
