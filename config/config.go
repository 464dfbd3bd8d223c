package config

import (
	"github.com/spf13/viper"
	"sync"
)

var once sync.Once

func InitConfig() {
	once.Do(func() {
		viper.AutomaticEnv()

		viper.BindEnv("telegram_bot_token", "TELEGRAM_BOT_TOKEN")
		viper.BindEnv("db_path", "DB_PATH")
		viper.BindEnv("metrics_port", "METRICS_PORT")
		viper.BindEnv("debug", "DEBUG")
		viper.BindEnv("lang", "LANG")
		viper.BindEnv("check_interval_sec", "CHECK_INTERVAL_SEC")
		viper.BindEnv("price_cache_ttl_sec", "PRICE_CACHE_TTL_SEC")
		viper.BindEnv("quote_batch_size", "QUOTE_BATCH_SIZE")

		viper.SetDefault("db_path", "/app/data/bot.db")
		viper.SetDefault("metrics_port", 9090)
		viper.SetDefault("debug", false)
		viper.SetDefault("lang", "en")
		viper.SetDefault("check_interval_sec", 30)
		viper.SetDefault("price_cache_ttl_sec", 30)
		viper.SetDefault("quote_batch_size", 5)
	})
}

func GetString(key string) string {
	InitConfig()
	return viper.GetString(key)
}

func GetInt(key string) int {
	InitConfig()
	return viper.GetInt(key)
}

func GetBool(key string) bool {
	InitConfig()
	return viper.GetBool(key)
}
