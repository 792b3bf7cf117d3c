package config

import (
	"fmt"

	"github.com/ilyakaznacheev/cleanenv"
)

// CommenceConfig 支付插件运行配置
type CommenceConfig struct {
	Listen string `env:"LISTEN" env-default:":8080"`

	Database struct {
		DSN string `env:"DSN"`
	} `env-prefix:"DATABASE_"`

	Redis struct {
		Addr     string `env:"ADDR" env-default:"localhost:6379"`
		Password string `env:"PASSWORD"`
		DB       int    `env:"DB" env-default:"0"`
	} `env-prefix:"REDIS_"`

	// 网关商户凭证配置
	Gateway struct {
		APIBase          string `env:"API_BASE" env-default:"https://payport.novalnet.de/v2"`
		Signature        string `env:"SIGNATURE"`          // 商户激活密钥
		PaymentAccessKey string `env:"PAYMENT_ACCESS_KEY"` // 支付访问密钥，API认证与回调校验共用
		TariffID         string `env:"TARIFF_ID"`
		ClientKey        string `env:"CLIENT_KEY"` // 前端托管SDK使用
		TestMode         bool   `env:"TEST_MODE" env-default:"false"`
	} `env-prefix:"GATEWAY_"`

	Webhook struct {
		// 为空时跳过回调来源IP校验
		AllowedIP string `env:"ALLOWED_IP"`
	} `env-prefix:"WEBHOOK_"`

	// 管理端消息语言，见 pkg/locale
	Locale string `env:"LOCALE" env-default:"en"`

	CheckoutSessionTTLMinutes int `env:"CHECKOUT_SESSION_TTL" env-default:"60"`
}

var Config *CommenceConfig

// Load 从环境变量读取配置
func Load() (*CommenceConfig, error) {
	var cfg CommenceConfig
	if err := cleanenv.ReadEnv(&cfg); err != nil {
		return nil, fmt.Errorf("failed to read config: %w", err)
	}
	return &cfg, nil
}
