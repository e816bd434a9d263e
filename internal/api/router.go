package api

import (
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/your-org/faceid/internal/api/handlers"
	"github.com/your-org/faceid/internal/api/ws"
	"github.com/your-org/faceid/internal/attendance"
	"github.com/your-org/faceid/internal/auth"
)

type RouterConfig struct {
	Attendance *attendance.Service
	Auth       *auth.Service
	Issuer     *auth.TokenIssuer
	Directory  handlers.IdentityDirectory
	Records    handlers.LedgerReader
	DB         handlers.Pinger
	Hub        *ws.Hub
	// Optional backends.
	Snapshots handlers.SnapshotStore
	Publisher handlers.DecisionPublisher
	NATS      handlers.NATSPinger
	MinIO     handlers.Pinger
}

func NewRouter(cfg RouterConfig) *gin.Engine {
	gin.SetMode(gin.ReleaseMode)

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(LoggingMiddleware())
	r.Use(cors.Default())

	// System endpoints (no auth)
	systemH := handlers.NewSystemHandler(cfg.DB)
	systemH.NATS = cfg.NATS
	systemH.MinIO = cfg.MinIO
	r.GET("/healthz", systemH.Healthz)
	r.GET("/readyz", systemH.Readyz)
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	authH := handlers.NewAuthHandler(cfg.Auth)
	registerH := handlers.NewRegisterHandler(cfg.Attendance)
	attendanceH := handlers.NewAttendanceHandler(cfg.Attendance, cfg.Records)
	attendanceH.Snapshots = cfg.Snapshots
	attendanceH.Publisher = cfg.Publisher
	peopleH := handlers.NewPeopleHandler(cfg.Directory)

	v1 := r.Group("/v1")
	v1.POST("/login", authH.Login)

	// Everything else requires a valid token.
	authed := v1.Group("")
	authed.Use(auth.Middleware(cfg.Issuer))
	authed.GET("/verify", authH.Verify)
	authed.POST("/attendance", attendanceH.Mark)
	authed.GET("/ws", cfg.Hub.HandleWS)

	// Enrollment, reporting and identity administration are admin-only.
	admin := authed.Group("")
	admin.Use(auth.RequireAdmin())
	admin.POST("/register", registerH.Register)
	admin.GET("/attendance", attendanceH.List)
	admin.GET("/attendance/export", attendanceH.Export)
	admin.GET("/attendance/:id/snapshot", attendanceH.Snapshot)
	admin.GET("/people", peopleH.List)
	admin.GET("/people/:id", peopleH.Get)
	admin.DELETE("/people/:id", peopleH.Delete)

	return r
}
