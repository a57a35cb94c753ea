package dependency

import (
	"time"

	"github.com/gin-gonic/gin"

	"scorely-session-svc/src/clients"
	"scorely-session-svc/src/internal/admission"
	"scorely-session-svc/src/internal/auth"
	"scorely-session-svc/src/internal/cache"
	"scorely-session-svc/src/internal/config"
	"scorely-session-svc/src/internal/dispatcher"
	"scorely-session-svc/src/internal/history"
	"scorely-session-svc/src/internal/live"
	"scorely-session-svc/src/internal/pairing"
	"scorely-session-svc/src/internal/publisher"
	"scorely-session-svc/src/internal/scoring"
	"scorely-session-svc/src/internal/session"
)

type Manager struct {
	Router         *gin.Engine
	Config         *config.Configuration
	Mongodb        *clients.MongoDB
	Redis          *clients.RedisClient
	RabbitMQ       *clients.RabbitMQ
	Broker         *clients.MQTT
	Store          *session.Store
	Filter         *admission.Filter
	Publisher      *publisher.Publisher
	Engine         *scoring.Engine
	Pairing        *pairing.Manager
	Dispatcher     *dispatcher.Dispatcher
	CacheService   cache.Service
	HistoryService history.Service
	HistoryHandler history.Handler
	LiveHandler    live.Handler
	AuthService    auth.Service
	AuthHandler    auth.Handler
	ActivityClient *clients.ActivityClient
}

func NewDependencyManager(router *gin.Engine,
	mongodb *clients.MongoDB,
	redisClient *clients.RedisClient,
	rabbitMQ *clients.RabbitMQ,
	broker *clients.MQTT,
	cfg *config.Configuration) (*Manager, error) {

	activityClient := clients.NewActivityClient(cfg, rabbitMQ.Channel)
	cacheService := cache.NewCacheService(redisClient.Client, cfg)

	historyRepo := history.NewRepository(mongodb, cfg.Database.MatchCollection, cfg.Database.LocationCollection)
	historyService := history.NewService(historyRepo, cacheService, activityClient, cfg)
	historyHandler := history.NewHandler(cfg, historyService)

	store := session.NewStore(time.Duration(cfg.Pairing.DefaultWindowMs) * time.Millisecond)
	filter := admission.NewFilter(&cfg.Admission)
	pub := publisher.New(broker)
	engine := scoring.NewEngine(store, pub, historyService, time.Duration(cfg.Database.Timeout)*time.Second)
	pairingMgr := pairing.NewManager(store, pub, activityClient, time.Duration(cfg.Pairing.DefaultWindowMs)*time.Millisecond)
	disp := dispatcher.New(broker, filter, engine, pairingMgr, activityClient, cfg.Broker.QueueSize)

	liveHandler := live.NewHandler(store, pub)

	authService, err := auth.NewService(&cfg.Security)
	if err != nil {
		return nil, err
	}
	authHandler := auth.NewHandler(authService)

	return &Manager{
		Router:         router,
		Config:         cfg,
		Mongodb:        mongodb,
		Redis:          redisClient,
		RabbitMQ:       rabbitMQ,
		Broker:         broker,
		Store:          store,
		Filter:         filter,
		Publisher:      pub,
		Engine:         engine,
		Pairing:        pairingMgr,
		Dispatcher:     disp,
		CacheService:   cacheService,
		HistoryService: historyService,
		HistoryHandler: historyHandler,
		LiveHandler:    liveHandler,
		AuthService:    authService,
		AuthHandler:    authHandler,
		ActivityClient: activityClient,
	}, nil
}
