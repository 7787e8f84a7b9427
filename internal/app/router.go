package app

import (
	"net/http"

	"meetingrooms/internal/config"
	"meetingrooms/internal/domain/auth"
	"meetingrooms/internal/domain/reservation"
	"meetingrooms/internal/domain/room"
	"meetingrooms/internal/events"
	"meetingrooms/internal/lock"
	"meetingrooms/internal/middleware"
	"meetingrooms/internal/pkg/jwt"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type Deps struct {
	Config    *config.Config
	DB        *gorm.DB
	Log       *zap.Logger
	Locker    lock.RoomLocker
	Publisher events.Publisher
	Hub       *events.Hub
}

func NewRouter(d Deps) *gin.Engine {
	if d.Config.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}

	jwtService := jwt.New(d.Config.Auth.JWTSecret, d.Config.Auth.JWTAccessTTL)

	roomRepo := room.NewRepository(d.DB)
	reservationRepo := reservation.NewRepository(d.DB)
	userRepo := auth.NewUserRepository(d.DB)

	authHandler := auth.NewHandler(auth.NewService(userRepo, jwtService, d.Log), jwtService.TTL())
	roomHandler := room.NewHandler(room.NewService(roomRepo, d.Log))
	reservationHandler := reservation.NewHandler(
		reservation.NewService(reservationRepo, roomRepo, d.Locker, d.Publisher, d.Log),
		d.Hub,
	)

	r := gin.New()
	r.Use(
		middleware.RequestID(),
		middleware.RequestLogger(d.Log),
		middleware.CORS(d.Config.HTTP.AllowedOrigins),
	)

	r.GET("/api/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok", "service": d.Config.App.Name})
	})

	v1 := r.Group("/api/v1")
	{
		// public
		authHandler.RegisterPublicRoutes(v1)

		protected := v1.Group("")
		protected.Use(middleware.JWTAuth(jwtService))
		{
			authHandler.RegisterProtectedRoutes(protected)
		}

		roomHandler.RegisterRoutes(v1, protected)
		reservationHandler.RegisterRoutes(v1, protected)
	}

	return r
}
