package commence

import (
	"fmt"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"gorm.io/driver/mysql"

	"github.com/flaboy/aira-pay/pkg/admin"
	"github.com/flaboy/aira-pay/pkg/checkout"
	"github.com/flaboy/aira-pay/pkg/config"
	"github.com/flaboy/aira-pay/pkg/database"
	"github.com/flaboy/aira-pay/pkg/events"
	"github.com/flaboy/aira-pay/pkg/extensions/payment"
	"github.com/flaboy/aira-pay/pkg/extensions/payment/novalnet"
	"github.com/flaboy/aira-pay/pkg/migration"
	"github.com/flaboy/aira-pay/pkg/transactions"
	"github.com/flaboy/aira-pay/pkg/webhook"
)

var (
	gatewayClient      *novalnet.Client
	sessionStore       *checkout.SessionStore
	adminController    *admin.Controller
	checkoutController *checkout.Controller
	webhookHandler     *webhook.Handler
)

// Start 按配置装配插件：数据库、迁移、会话存储、支付方式注册、网关客户端
func Start(cfg *config.CommenceConfig) error {
	config.Config = cfg

	// DSN为空时跳过建连，宿主或测试自行调database.Init
	if cfg.Database.DSN != "" {
		if err := database.Init(mysql.Open(cfg.Database.DSN)); err != nil {
			return fmt.Errorf("failed to open database: %w", err)
		}
		if err := migration.AutoMigrate(database.Database()); err != nil {
			return fmt.Errorf("failed to run migrations: %w", err)
		}
	}

	rdb := redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
	sessionStore = checkout.NewSessionStore(rdb, time.Duration(cfg.CheckoutSessionTTLMinutes)*time.Minute)

	payment.Init()

	gatewayClient = novalnet.NewClient(novalnet.ClientConfig{
		APIBase:          cfg.Gateway.APIBase,
		Signature:        cfg.Gateway.Signature,
		TariffID:         cfg.Gateway.TariffID,
		PaymentAccessKey: cfg.Gateway.PaymentAccessKey,
		Lang:             cfg.Locale,
		TestMode:         cfg.Gateway.TestMode,
	})

	helper := transactions.NewHelper(gatewayClient)
	adminController = admin.NewController(helper, gatewayClient, cfg.Locale)
	checkoutController = checkout.NewController(sessionStore, gatewayClient)
	webhookHandler = webhook.NewHandler(cfg.Gateway.PaymentAccessKey, cfg.Webhook.AllowedIP)

	return nil
}

// RegisterRoutes 挂载管理端、店面端与回调路由
func RegisterRoutes(r gin.IRouter) {
	adminController.RegisterRoutes(r.Group("/admin/payment"))
	checkoutController.RegisterRoutes(r.Group("/storefront/payment"))
	webhookHandler.RegisterRoutes(r)
}

// RegisterEventHandler 注册宿主业务系统的事件处理器
func RegisterEventHandler(handler events.EventHandler) {
	events.SetEventHandler(handler)
}

// RegisterOrderResolver 注册宿主订单聚合的只读解析器
func RegisterOrderResolver(resolver events.OrderResolver) {
	events.SetOrderResolver(resolver)
}

// Gateway 获取网关客户端
func Gateway() *novalnet.Client {
	return gatewayClient
}

// Sessions 获取结账会话存储
func Sessions() *checkout.SessionStore {
	return sessionStore
}
