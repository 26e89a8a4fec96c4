package server

import (
	"context"
	"net/http"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/smallbiznis/scriba/internal/account"
	accountdomain "github.com/smallbiznis/scriba/internal/account/domain"
	"github.com/smallbiznis/scriba/internal/billing"
	billingdomain "github.com/smallbiznis/scriba/internal/billing/domain"
	"github.com/smallbiznis/scriba/internal/config"
	"github.com/smallbiznis/scriba/internal/observability"
	obstracing "github.com/smallbiznis/scriba/internal/observability/tracing"
	"github.com/smallbiznis/scriba/internal/quota"
	quotadomain "github.com/smallbiznis/scriba/internal/quota/domain"
	"github.com/smallbiznis/scriba/internal/stt"
	sttdomain "github.com/smallbiznis/scriba/internal/stt/domain"
	"github.com/smallbiznis/scriba/internal/subscription"
	subscriptiondomain "github.com/smallbiznis/scriba/internal/subscription/domain"
	"github.com/smallbiznis/scriba/internal/summarize"
	"github.com/smallbiznis/scriba/internal/transcript"
	transcriptdomain "github.com/smallbiznis/scriba/internal/transcript/domain"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

var Module = fx.Module("http.server",
	observability.Module,
	fx.Provide(registerGin),
	account.Module,
	stt.Module,
	quota.Module,
	subscription.Module,
	billing.Module,
	transcript.Module,
	summarize.Module,
	fx.Invoke(NewServer),
	fx.Invoke(run),
)

func NewEngine(log *zap.Logger) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(RequestLogger(log))
	r.Use(obstracing.GinMiddleware())
	r.Use(ErrorHandlingMiddleware())

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	return r
}

func registerGin(log *zap.Logger) *gin.Engine {
	return NewEngine(log)
}

func run(lc fx.Lifecycle, r *gin.Engine, cfg config.Config, log *zap.Logger) {
	srv := &http.Server{
		Addr:    cfg.HTTPAddr,
		Handler: r,
	}

	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			go func() {
				log.Info("http server listening", zap.String("addr", cfg.HTTPAddr))
				if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
					panic(err)
				}
			}()
			return nil
		},
		OnStop: func(ctx context.Context) error {
			shutdownCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
			defer cancel()
			return srv.Shutdown(shutdownCtx)
		},
	})
}

type Server struct {
	engine          *gin.Engine
	cfg             config.Config
	genID           *snowflake.Node
	log             *zap.Logger
	accountSvc      accountdomain.Service
	sttSvc          sttdomain.Service
	quotaSvc        quotadomain.Service
	subscriptionSvc subscriptiondomain.Service
	billingSvc      billingdomain.Service
	transcriptSvc   transcriptdomain.Service
	summarizer      summarize.Summarizer
}

type ServerParams struct {
	fx.In

	Gin             *gin.Engine
	Cfg             config.Config
	GenID           *snowflake.Node
	Log             *zap.Logger
	AccountSvc      accountdomain.Service
	SttSvc          sttdomain.Service
	QuotaSvc        quotadomain.Service
	SubscriptionSvc subscriptiondomain.Service
	BillingSvc      billingdomain.Service
	TranscriptSvc   transcriptdomain.Service
	Summarizer      summarize.Summarizer
}

func NewServer(p ServerParams) *Server {
	svc := &Server{
		engine:          p.Gin,
		cfg:             p.Cfg,
		genID:           p.GenID,
		log:             p.Log.Named("server"),
		accountSvc:      p.AccountSvc,
		sttSvc:          p.SttSvc,
		quotaSvc:        p.QuotaSvc,
		subscriptionSvc: p.SubscriptionSvc,
		billingSvc:      p.BillingSvc,
		transcriptSvc:   p.TranscriptSvc,
		summarizer:      p.Summarizer,
	}

	svc.registerAPIRoutes()
	svc.registerAdminRoutes()

	return svc
}

func (s *Server) Engine() *gin.Engine {
	return s.engine
}

func (s *Server) registerAPIRoutes() {
	api := s.engine.Group("/v1", s.APIKeyRequired())

	// -------- Transcriptions --------
	api.POST("/transcriptions", s.CreateTranscription)
	api.GET("/transcriptions", s.ListTranscriptions)
	api.GET("/transcriptions/:request_id", s.GetTranscription)

	// -------- Providers --------
	api.GET("/providers", s.ListProviders)
	api.GET("/providers/:name/formats", s.GetProviderFormats)

	// -------- Quota --------
	api.GET("/quota", s.GetQuota)
	api.GET("/quota/history", s.GetQuotaHistory)
	api.GET("/usage/export", s.ExportUsage)

	// -------- Plans --------
	api.GET("/plans", s.ListPlans)

	// -------- Billing (read) --------
	api.GET("/billings/:id", s.GetBilling)
	api.GET("/billings/:id/statement", s.GetBillingStatement)
}

func (s *Server) registerAdminRoutes() {
	admin := s.engine.Group("/admin", s.APIKeyRequired(), s.AdminRequired())

	admin.POST("/billing/run", s.RunMonthlyBilling)
	admin.POST("/billing/renew", s.RunSubscriptionRenewal)
	admin.GET("/billing/summary", s.GetBillingSummary)
	admin.GET("/billings", s.ListBillings)
}
