package routes

import (
	"net/http"

	"CommClinic/cache"
	"CommClinic/config"
	"CommClinic/controllers"
	"CommClinic/database"
	"CommClinic/handlers"
	"CommClinic/metrics"
	"CommClinic/middlewares"
	"CommClinic/repositories"
	"CommClinic/services"

	"github.com/gin-gonic/gin"
	"github.com/go-redis/redis/v8"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// Dependencies are the long-lived resources the router is built from.
type Dependencies struct {
	Config  *config.AppConfig
	DB      *gorm.DB
	Redis   *redis.Client
	Cache   *cache.Cache
	Logger  *zap.Logger
	Metrics *metrics.Metrics
}

// SetupRoutes initializes the routes and middleware for the server
func SetupRoutes(deps Dependencies) http.Handler {
	cfg := deps.Config
	log := deps.Logger
	if log == nil {
		log = zap.NewNop()
	}
	m := deps.Metrics
	if m == nil {
		m = metrics.New(nil)
	}

	if cfg.IsDevelopment() {
		gin.SetMode(gin.DebugMode)
	} else {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(middlewares.CorsMiddleware(cfg.CORSOrigins))
	router.Use(middlewares.SecurityHeaders())
	router.Use(middlewares.NewRateLimiterMiddleware(middlewares.RateLimiterConfig{
		RequestsPerSecond: cfg.RateLimitRPS,
		Burst:             cfg.RateLimitBurst,
	}))
	router.Use(middlewares.LoggingMiddleware(log, m))

	appointmentRepo := repositories.NewAppointmentRepository(deps.DB, deps.Cache, cfg.AppointmentCacheTTL, log)
	soapNoteRepo := repositories.NewSoapNoteRepository(deps.DB, deps.Cache, log)
	eventRepo := repositories.NewEventRepository(deps.DB)
	patientRepo := repositories.NewPatientRepository(deps.DB, deps.Cache, log)
	providerRepo := repositories.NewProviderRepository(deps.DB, deps.Cache, log)

	var locker services.ScheduleLocker
	if deps.Redis != nil {
		locker = database.NewLocker(deps.Redis)
	}

	eventLog := services.NewEventLog(eventRepo, log, m)
	appointmentService := services.NewAppointmentService(appointmentRepo, patientRepo, providerRepo, eventLog, locker,
		services.AppointmentServiceOptions{
			Location: cfg.Location(),
			LockTTL:  cfg.ScheduleLockTTL,
			Logger:   log,
			Metrics:  m,
		})
	soapNoteService := services.NewSoapNoteService(appointmentRepo, soapNoteRepo, eventLog, log)
	analyticsService := services.NewAnalyticsService(appointmentRepo, eventRepo, nil, log)

	controller := controllers.NewAppointmentController(
		handlers.NewAppointmentHandler(appointmentService, log),
		handlers.NewSoapNoteHandler(soapNoteService, log),
		handlers.NewAnalyticsHandler(analyticsService, log),
	)

	api := router.Group("/")
	api.Use(middlewares.TokenAuthMiddleware([]byte(cfg.SymmetricKey)))
	controller.RegisterRoutes(api)

	controllers.SetupRootRoute(router, m.Handler())

	return router
}
