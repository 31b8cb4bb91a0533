package routes

import (
	"github.com/go-redis/redis/v8"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"permanence-system/internal/controllers"
	"permanence-system/internal/listeners"
	"permanence-system/internal/repositories"
	"permanence-system/internal/services"
	"permanence-system/pkg/config"
	"permanence-system/pkg/eventbus"
	"permanence-system/pkg/filestorage"
	"permanence-system/pkg/middleware"
	"permanence-system/pkg/pdf"
	"permanence-system/pkg/service"
	"permanence-system/pkg/websocket"
)

type Loggers struct {
	Main       *zap.Logger
	Auth       *zap.Logger
	Permanence *zap.Logger
	Registre   *zap.Logger
	Audit      *zap.Logger
	Live       *zap.Logger
}

// NewLoggers: один логгер с именованными ветками по компонентам.
func NewLoggers(base *zap.Logger) *Loggers {
	return &Loggers{
		Main:       base,
		Auth:       base.Named("auth"),
		Permanence: base.Named("permanence"),
		Registre:   base.Named("registre"),
		Audit:      base.Named("audit"),
		Live:       base.Named("live"),
	}
}

func InitRouter(
	e *echo.Echo,
	dbConn *pgxpool.Pool,
	redisClient *redis.Client,
	jwtSvc service.JWTService,
	bus *eventbus.Bus,
	hub *websocket.Hub,
	loggers *Loggers,
	cfg *config.Config,
) error {
	loggers.Main.Info("InitRouter: Начало создания маршрутов")

	// --- 0. ОБЩИЕ КОМПОНЕНТЫ ---
	api := e.Group("/api")
	fileStorage, err := filestorage.NewLocalFileStorage(cfg.PDF.StorageDir)
	if err != nil {
		return err
	}
	txManager := repositories.NewTxManager(dbConn)
	cacheRepo := repositories.NewRedisCacheRepository(redisClient)
	renderer := pdf.NewFPDFRenderer(cfg.PDF)

	// --- 1. РЕПОЗИТОРИИ ---
	userRepo := repositories.NewUserRepository(dbConn, loggers.Auth)
	permanenceRepo := repositories.NewPermanenceRepository(dbConn, loggers.Permanence)
	assignmentRepo := repositories.NewAssignmentRepository(dbConn, loggers.Permanence)
	logbookRepo := repositories.NewLogbookRepository(dbConn, loggers.Registre)
	energyRepo := repositories.NewEnergyRepository(dbConn, loggers.Registre)
	restartRepo := repositories.NewRestartRepository(dbConn, loggers.Registre)
	receptionRepo := repositories.NewReceptionRepository(dbConn, loggers.Registre)
	deviceRepo := repositories.NewDeviceRepository(dbConn, loggers.Main)
	siteRepo := repositories.NewSiteRepository(dbConn, loggers.Main)
	settingRepo := repositories.NewSettingRepository(dbConn, loggers.Main)
	activityLogRepo := repositories.NewActivityLogRepository(dbConn, loggers.Audit)

	// --- 2. СЕРВИСЫ ---
	auditService := services.NewAuditService(activityLogRepo, loggers.Audit)
	authService := services.NewAuthService(userRepo, cacheRepo, jwtSvc, cfg.Auth, loggers.Auth)
	userService := services.NewUserService(userRepo, loggers.Auth)
	settingService := services.NewSettingService(settingRepo, cacheRepo, fileStorage, cfg.Settings, loggers.Main)
	permanenceService := services.NewPermanenceService(txManager, permanenceRepo, assignmentRepo, userRepo, bus, loggers.Permanence)
	assignmentService := services.NewAssignmentService(permanenceRepo, assignmentRepo, userRepo, siteRepo, loggers.Permanence)
	logbookService := services.NewLogbookService(permanenceRepo, assignmentRepo, logbookRepo, loggers.Registre)
	energyService := services.NewEnergyService(permanenceRepo, assignmentRepo, energyRepo, deviceRepo, loggers.Registre)
	restartService := services.NewRestartService(permanenceRepo, assignmentRepo, restartRepo, deviceRepo, loggers.Registre)
	receptionService := services.NewReceptionService(permanenceRepo, assignmentRepo, receptionRepo, deviceRepo, userRepo, loggers.Registre)
	deviceService := services.NewDeviceService(deviceRepo, siteRepo, assignmentRepo, loggers.Main)
	siteService := services.NewSiteService(siteRepo, loggers.Main)
	printService := services.NewPrintService(
		permanenceRepo, assignmentRepo, logbookRepo, receptionRepo, userRepo,
		settingService, fileStorage, renderer, auditService, loggers.Permanence,
	)
	exportService := services.NewExportService(
		userRepo, permanenceRepo, assignmentRepo, logbookRepo, settingRepo, activityLogRepo,
		auditService, loggers.Audit,
	)

	listeners.NewActivityListener(auditService, loggers.Audit).Register(bus)
	listeners.NewLiveListener(hub, permanenceRepo, assignmentRepo, userRepo, loggers.Live).Register(bus)

	// --- 3. КОНТРОЛЛЕРЫ ---
	authController := controllers.NewAuthController(authService, loggers.Auth)
	userController := controllers.NewUserController(userService, loggers.Auth)
	permanenceController := controllers.NewPermanenceController(permanenceService, printService, loggers.Permanence)
	assignmentController := controllers.NewAssignmentController(assignmentService, loggers.Permanence)
	deviceController := controllers.NewDeviceController(deviceService, loggers.Main)
	siteController := controllers.NewSiteController(siteService, loggers.Main)
	settingController := controllers.NewSettingController(settingService, loggers.Main)
	exportController := controllers.NewExportController(exportService, auditService, loggers.Audit)
	liveController := controllers.NewLiveController(hub, jwtSvc, userRepo, cfg.Server.CORSOrigins, loggers.Live)

	// --- 4. РОУТЕРЫ ---
	authMW := middleware.NewAuthMiddleware(jwtSvc, userRepo, loggers.Auth)
	secureGroup := api.Group("", authMW.Auth)

	runAuthRouter(api, authController, authMW)
	runUserRouter(secureGroup, userController)
	runPermanenceRouter(secureGroup, permanenceController, assignmentController)
	runRegistreRouter(secureGroup, registreServices{
		logbook:   logbookService,
		energy:    energyService,
		restart:   restartService,
		reception: receptionService,
	}, loggers.Registre)
	runReferenceRouter(secureGroup, deviceController, siteController)
	runSettingRouter(secureGroup, settingController)
	runExportRouter(secureGroup, exportController)
	runLiveRouter(api, liveController)

	loggers.Main.Info("InitRouter: Создание маршрутов завершено", zap.Int("routes", len(e.Routes())))
	return nil
}
