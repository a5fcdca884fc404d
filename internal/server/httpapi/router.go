package httpapi

import (
	"net/http"
	"time"

	"github.com/dmitrijs2005/gophvote/internal/logging"
	"github.com/dmitrijs2005/gophvote/internal/metrics"
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
)

// Deps are the collaborators the router serves.
type Deps struct {
	Users          UserService
	Proposals      ProposalService
	Archive        ArchiveService
	Metrics        *metrics.Metrics
	Logger         logging.Logger
	JWTSecret      []byte
	AllowedOrigins []string
}

// NewRouter wires middleware and the /v1 routes.
func NewRouter(d Deps) *gin.Engine {
	logger := d.Logger
	if logger == nil {
		logger = logging.Nop()
	}

	r := gin.New()
	r.Use(gin.Recovery())
	if d.Metrics != nil {
		r.Use(d.Metrics.GinMiddleware())
	}

	origins := d.AllowedOrigins
	if len(origins) == 0 {
		origins = []string{"*"}
	}
	r.Use(cors.New(cors.Config{
		AllowOrigins:  origins,
		AllowMethods:  []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowHeaders:  []string{"Origin", "Content-Type", "Authorization"},
		ExposeHeaders: []string{"Content-Length"},
		MaxAge:        12 * time.Hour,
	}))

	h := &handlers{
		users:     d.Users,
		proposals: d.Proposals,
		archive:   d.Archive,
		errors:    &errorWriter{logger: logger},
	}

	r.GET("/healthz", func(c *gin.Context) { c.String(http.StatusOK, "OK") })
	if d.Metrics != nil {
		r.GET("/metrics", gin.WrapH(d.Metrics.Handler()))
	}

	v1 := r.Group("/v1")
	{
		v1.POST("/auth/register", h.register)
		v1.POST("/auth/login", h.login)
		v1.GET("/proposals", h.list)
		v1.GET("/proposals/:id", h.get)

		secured := v1.Group("", JWT(d.JWTSecret))
		secured.POST("/proposals", h.create)
		secured.POST("/proposals/:id/vote/yes", h.voteYes)
		secured.POST("/proposals/:id/vote/no", h.voteNo)
		secured.PUT("/proposals/:id", h.update)
		secured.DELETE("/proposals/:id", h.delete)
		secured.POST("/exports", h.export)
	}

	return r
}
