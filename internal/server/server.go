package server

import (
	"context"
	"net/http"
	"time"

	"github.com/assocdesk/memberportal/internal/audit"
	"github.com/assocdesk/memberportal/internal/auth"
	"github.com/assocdesk/memberportal/internal/authorization"
	"github.com/assocdesk/memberportal/internal/config"
	"github.com/assocdesk/memberportal/internal/contact"
	"github.com/assocdesk/memberportal/internal/conversation"
	"github.com/assocdesk/memberportal/internal/membership"
	"github.com/assocdesk/memberportal/internal/membership/lifecycle"
	"github.com/assocdesk/memberportal/internal/notification"
	obslogging "github.com/assocdesk/memberportal/internal/observability/logging"
	obsmetrics "github.com/assocdesk/memberportal/internal/observability/metrics"
	obstracing "github.com/assocdesk/memberportal/internal/observability/tracing"
	"github.com/assocdesk/memberportal/internal/providers"
	"github.com/assocdesk/memberportal/internal/providers/pdf"
	"github.com/assocdesk/memberportal/internal/tsic"
	"github.com/bwmarrin/snowflake"
	"github.com/gin-gonic/gin"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"

	auditdomain "github.com/assocdesk/memberportal/internal/audit/domain"
	authdomain "github.com/assocdesk/memberportal/internal/auth/domain"
	conversationdomain "github.com/assocdesk/memberportal/internal/conversation/domain"
	membershipdomain "github.com/assocdesk/memberportal/internal/membership/domain"
	notificationdomain "github.com/assocdesk/memberportal/internal/notification/domain"
)

var Module = fx.Module("http.server",
	obsmetrics.Module,
	fx.Provide(registerGin),
	authorization.Module,
	audit.Module,
	auth.Module,
	membership.Module,
	lifecycle.Module,
	conversation.Module,
	notification.Module,
	providers.Module,
	tsic.Module,
	contact.Module,
	fx.Invoke(NewServer),
	fx.Invoke(run),
)

func NewEngine(log *zap.Logger, httpMetrics *obsmetrics.HTTPMetrics) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(obslogging.GinMiddleware(log))
	r.Use(obstracing.GinMiddleware())
	r.Use(httpMetrics.GinMiddleware())
	r.Use(ErrorHandlingMiddleware())

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	r.GET("/metrics", gin.WrapH(httpMetrics.Handler()))

	return r
}

func registerGin(log *zap.Logger, httpMetrics *obsmetrics.HTTPMetrics) *gin.Engine {
	return NewEngine(log, httpMetrics)
}

func run(lc fx.Lifecycle, r *gin.Engine, cfg config.Config, log *zap.Logger) {
	srv := &http.Server{
		Addr:    cfg.ListenAddr,
		Handler: r,
	}

	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			log.Info("http server listening", zap.String("addr", cfg.ListenAddr))
			go func() {
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
	db              *gorm.DB
	log             *zap.Logger
	genID           *snowflake.Node
	authsvc         authdomain.Service
	authzSvc        authorization.Service
	auditSvc        auditdomain.Service
	membershipSvc   membershipdomain.Service
	conversationSvc conversationdomain.Service
	notificationSvc notificationdomain.Service
	tsicSvc         tsic.Service
	contactSvc      contact.Service
	pdfProvider     pdf.Provider
}

type ServerParams struct {
	fx.In

	Gin             *gin.Engine
	Cfg             config.Config
	DB              *gorm.DB
	Log             *zap.Logger
	GenID           *snowflake.Node
	Authsvc         authdomain.Service
	AuthzSvc        authorization.Service
	AuditSvc        auditdomain.Service
	MembershipSvc   membershipdomain.Service
	ConversationSvc conversationdomain.Service
	NotificationSvc notificationdomain.Service
	TsicSvc         tsic.Service
	ContactSvc      contact.Service
	PDFProvider     pdf.Provider
}

func NewServer(p ServerParams) *Server {
	svc := &Server{
		engine:          p.Gin,
		cfg:             p.Cfg,
		db:              p.DB,
		log:             p.Log.Named("http.server"),
		genID:           p.GenID,
		authsvc:         p.Authsvc,
		authzSvc:        p.AuthzSvc,
		auditSvc:        p.AuditSvc,
		membershipSvc:   p.MembershipSvc,
		conversationSvc: p.ConversationSvc,
		notificationSvc: p.NotificationSvc,
		tsicSvc:         p.TsicSvc,
		contactSvc:      p.ContactSvc,
		pdfProvider:     p.PDFProvider,
	}

	svc.registerAuthRoutes()
	svc.registerPublicRoutes()
	svc.registerMemberRoutes()
	svc.registerAdminRoutes()

	return svc
}
