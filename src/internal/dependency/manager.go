package dependency

import (
	"github.com/gin-gonic/gin"

	"wellmind-session-svc/src/clients"
	"wellmind-session-svc/src/internal/activity"
	"wellmind-session-svc/src/internal/chat"
	"wellmind-session-svc/src/internal/config"
	"wellmind-session-svc/src/internal/session"
)

type Manager struct {
	Router          *gin.Engine
	Config          *config.Configuration
	Redis           *clients.RedisClient
	RabbitMQ        *clients.RabbitMQ
	SessionManager  *session.Manager
	SessionHandler  session.Handler
	Tracker         *activity.Tracker
	ActivityHandler activity.Handler
	Pipeline        *chat.Pipeline
	ChatHandler     chat.Handler
	AuthClient      *clients.AuthClient
	InferenceClient *clients.InferenceClient
}

func NewDependencyManager(router *gin.Engine,
	redisClient *clients.RedisClient,
	rabbitMQ *clients.RabbitMQ,
	cfg *config.Configuration) *Manager {

	var publisher activity.Publisher
	if rabbitMQ != nil {
		publisher = rabbitMQ.Channel
	}

	store := session.NewRedisStore(redisClient.Client)
	tracker := activity.NewTracker(store, publisher, cfg)
	sessionManager := session.NewManager(store, tracker, cfg)
	authClient := clients.NewAuthClient(cfg)
	inferenceClient := clients.NewInferenceClient(cfg)
	pipeline := chat.NewPipeline(inferenceClient, sessionManager, tracker, cfg)
	sessionManager.OnSessionCleared(pipeline.Reset)

	sessionHandler := session.NewHandler(cfg, sessionManager, authClient, pipeline)
	chatHandler := chat.NewHandler(cfg, pipeline)
	activityHandler := activity.NewHandler(tracker)

	return &Manager{
		Router:          router,
		Config:          cfg,
		Redis:           redisClient,
		RabbitMQ:        rabbitMQ,
		SessionManager:  sessionManager,
		SessionHandler:  sessionHandler,
		Tracker:         tracker,
		ActivityHandler: activityHandler,
		Pipeline:        pipeline,
		ChatHandler:     chatHandler,
		AuthClient:      authClient,
		InferenceClient: inferenceClient,
	}
}
