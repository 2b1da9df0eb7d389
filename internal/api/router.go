package api

import (
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/wfunc/table-game/internal/config"
	"github.com/wfunc/table-game/internal/middleware"
	"github.com/wfunc/table-game/internal/repository"
	"github.com/wfunc/table-game/internal/utils"
	"github.com/wfunc/table-game/internal/websocket"
)

// Router API路由器
type Router struct {
	engine         *gin.Engine
	db             *gorm.DB
	hub            *websocket.Hub
	authHandler    *AuthHandler
	roomHandler    *RoomHandler
	wsHandler      *WebSocketHandler
	authMiddleware *middleware.AuthMiddleware
	log            *zap.Logger
}

// RouterDeps 路由器依赖
type RouterDeps struct {
	DB         *gorm.DB
	Users      repository.UserRepository
	Rooms      repository.RoomRepository
	History    repository.HistoryRepository
	Hub        *websocket.Hub
	JWTManager *utils.JWTManager
	GameConfig *config.GameConfig
	Log        *zap.Logger
}

// NewRouter 创建路由器
func NewRouter(deps *RouterDeps) *Router {
	engine := gin.New()

	// 全局中间件
	engine.Use(gin.Recovery())
	engine.Use(gin.Logger())

	router := &Router{
		engine:         engine,
		db:             deps.DB,
		hub:            deps.Hub,
		authHandler:    NewAuthHandler(deps.Users, deps.JWTManager, deps.GameConfig, deps.Log),
		roomHandler:    NewRoomHandler(deps.Rooms, deps.Users, deps.History, deps.Log),
		wsHandler:      NewWebSocketHandler(deps.Hub, deps.Log),
		authMiddleware: middleware.NewAuthMiddleware(deps.JWTManager),
		log:            deps.Log,
	}

	router.setupRoutes()

	return router
}

// setupRoutes 设置路由
func (r *Router) setupRoutes() {
	// 健康检查
	r.engine.GET("/health", r.healthCheck)

	v1 := r.engine.Group("/api/v1")
	{
		// 认证相关路由
		auth := v1.Group("/auth")
		{
			auth.POST("/register", r.authHandler.Register)
			auth.POST("/login", r.authHandler.Login)
			auth.POST("/refresh", r.authHandler.RefreshToken)

			authRequired := auth.Group("")
			authRequired.Use(r.authMiddleware.RequireAuth())
			{
				authRequired.GET("/me", r.authHandler.Me)
			}
		}

		// 大厅查询路由（需要认证）
		lobby := v1.Group("")
		lobby.Use(r.authMiddleware.RequireAuth())
		{
			lobby.GET("/rooms", r.roomHandler.ListRooms)
			lobby.GET("/user/balance", r.roomHandler.Balance)
			lobby.GET("/user/stats", r.roomHandler.Stats)
			lobby.GET("/leaderboard", r.roomHandler.Leaderboard)
			lobby.GET("/history", r.roomHandler.History)
		}
	}

	// WebSocket路由，连接后首帧内认证
	r.engine.GET("/ws", r.wsHandler.Serve)

	// 404处理
	r.engine.NoRoute(func(c *gin.Context) {
		c.JSON(404, gin.H{
			"code":    "NOT_FOUND",
			"message": "接口不存在",
		})
	})
}

// healthCheck 健康检查
func (r *Router) healthCheck(c *gin.Context) {
	sqlDB, err := r.db.DB()
	if err != nil {
		c.JSON(500, gin.H{
			"status":  "unhealthy",
			"message": "数据库连接失败",
		})
		return
	}

	if err := sqlDB.Ping(); err != nil {
		c.JSON(500, gin.H{
			"status":  "unhealthy",
			"message": "数据库ping失败",
		})
		return
	}

	c.JSON(200, gin.H{
		"status":  "healthy",
		"message": "服务运行正常",
		"online":  r.hub.GetOnlineCount(),
	})
}

// Run 运行服务器
func (r *Router) Run(addr string) error {
	r.log.Info("Starting API server", zap.String("address", addr))
	return r.engine.Run(addr)
}

// GetEngine 获取Gin引擎（用于测试）
func (r *Router) GetEngine() *gin.Engine {
	return r.engine
}
