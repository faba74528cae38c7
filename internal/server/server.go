package server

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/smallbiznis/rentbill/internal/config"
	invoicedomain "github.com/smallbiznis/rentbill/internal/invoice/domain"
	"github.com/smallbiznis/rentbill/internal/observability"
	obslogger "github.com/smallbiznis/rentbill/internal/observability/logger"
	obsmetrics "github.com/smallbiznis/rentbill/internal/observability/metrics"
	obstracing "github.com/smallbiznis/rentbill/internal/observability/tracing"
	paymentlogdomain "github.com/smallbiznis/rentbill/internal/paymentlog/domain"
	readingdomain "github.com/smallbiznis/rentbill/internal/reading/domain"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

var Module = fx.Module("http.server",
	fx.Provide(registerGin),
	fx.Provide(NewServer),
	fx.Invoke(run),
)

func NewEngine(obsCfg observability.Config, log *zap.Logger, httpMetrics *obsmetrics.HTTPMetrics) *gin.Engine {
	if !obsCfg.Debug() {
		gin.SetMode(gin.ReleaseMode)
	}
	registerValidators()

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(obslogger.GinMiddleware(obslogger.MiddlewareConfig{
		Logger:          log,
		ErrorClassifier: classifyErrorForLog,
	}))
	r.Use(obstracing.GinMiddleware())
	r.Use(httpMetrics.Middleware())
	r.Use(ErrorHandlingMiddleware())

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	return r
}

func registerGin(obsCfg observability.Config, log *zap.Logger, httpMetrics *obsmetrics.HTTPMetrics) *gin.Engine {
	return NewEngine(obsCfg, log, httpMetrics)
}

func run(lc fx.Lifecycle, cfg config.Config, log *zap.Logger, s *Server) {
	srv := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           s.Engine(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			go func() {
				if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
					log.Fatal("http server stopped", zap.Error(err))
				}
			}()
			log.Info("http server listening", zap.String("addr", cfg.HTTPAddr))
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
	engine        *gin.Engine
	log           *zap.Logger
	invoiceSvc    invoicedomain.Service
	readingSvc    readingdomain.Service
	paymentLogSvc paymentlogdomain.Service
}

type ServerParams struct {
	fx.In

	Gin           *gin.Engine
	Log           *zap.Logger
	InvoiceSvc    invoicedomain.Service
	ReadingSvc    readingdomain.Service
	PaymentLogSvc paymentlogdomain.Service
}

func NewServer(p ServerParams) *Server {
	svc := &Server{
		engine:        p.Gin,
		log:           p.Log.Named("http.server"),
		invoiceSvc:    p.InvoiceSvc,
		readingSvc:    p.ReadingSvc,
		paymentLogSvc: p.PaymentLogSvc,
	}

	svc.registerAPIRoutes()

	return svc
}

func (s *Server) Engine() *gin.Engine {
	return s.engine
}

func (s *Server) registerAPIRoutes() {
	api := s.engine.Group("/api")

	api.POST("/buildings/:id/invoices", s.ActorRequired(), s.GenerateInvoices)

	api.GET("/invoices", s.ListInvoices)
	api.POST("/invoices/overdue-sweep", s.ActorRequired(), s.RunOverdueSweep)
	api.GET("/invoices/:id", s.GetInvoiceByID)
	api.POST("/invoices/:id/issue", s.ActorRequired(), s.IssueInvoice)
	api.POST("/invoices/:id/pay", s.ActorRequired(), s.PayInvoice)
	api.POST("/invoices/:id/void", s.ActorRequired(), s.VoidInvoice)
	api.POST("/invoices/:id/send-email", s.ActorRequired(), s.SendInvoiceEmail)
	api.GET("/invoices/:id/payment-logs", s.ListPaymentLogs)

	api.POST("/rooms/:id/readings", s.ActorRequired(), s.CreateReading)
	api.GET("/rooms/:id/readings", s.ReadingHistory)
	api.GET("/readings/:id", s.GetReading)
	api.PATCH("/readings/:id", s.ActorRequired(), s.UpdateReading)
}
