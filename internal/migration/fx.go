package migration

import (
	accountdomain "github.com/smallbiznis/scriba/internal/account/domain"
	billingdomain "github.com/smallbiznis/scriba/internal/billing/domain"
	"github.com/smallbiznis/scriba/internal/config"
	quotadomain "github.com/smallbiznis/scriba/internal/quota/domain"
	subscriptiondomain "github.com/smallbiznis/scriba/internal/subscription/domain"
	transcriptdomain "github.com/smallbiznis/scriba/internal/transcript/domain"
	"go.uber.org/fx"
	"gorm.io/gorm"
)

var Module = fx.Module("migrations",
	fx.Invoke(func(conn *gorm.DB, cfg config.Config) error {
		if cfg.DBType != "postgres" {
			// sqlite and mysql are dev/test targets; let gorm build the schema.
			return conn.AutoMigrate(
				&accountdomain.Account{},
				&quotadomain.ServiceToken{},
				&quotadomain.UsageRecord{},
				&subscriptiondomain.SubscriptionPlan{},
				&subscriptiondomain.Subscription{},
				&billingdomain.MonthlyBilling{},
				&billingdomain.Payment{},
				&billingdomain.OveragePayment{},
				&billingdomain.SubscriptionPayment{},
				&transcriptdomain.TranscriptionRequest{},
				&transcriptdomain.TranscriptionResponse{},
			)
		}

		sqlDB, err := conn.DB()
		if err != nil {
			return err
		}
		return RunMigrations(sqlDB)
	}),
)
