// Package api exposes the pipeline's HTTP surface: upload, status polling,
// image retrieval, recovery operations, and debug introspection.
package api

import (
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/spf13/afero"

	"github.com/layerpipe/layerpipe/pkg/environment"
	"github.com/layerpipe/layerpipe/pkg/ingest"
	"github.com/layerpipe/layerpipe/pkg/layer"
	"github.com/layerpipe/layerpipe/pkg/logging"
)

// Server wires the HTTP handlers to the pipeline's components.
type Server struct {
	fs       afero.Fs
	store    *layer.Store
	ingestor *ingest.Ingestor
	env      *environment.Environment
	logger   *logging.Logger
}

// NewRouter builds the gin engine with every route of the pipeline's HTTP
// contract. The debug group is administrative and not part of the stable
// surface.
func NewRouter(fs afero.Fs, store *layer.Store, ingestor *ingest.Ingestor, env *environment.Environment, logger *logging.Logger) *gin.Engine {
	gin.SetMode(gin.ReleaseMode)

	s := &Server{fs: fs, store: store, ingestor: ingestor, env: env, logger: logger}

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(cors.Default())
	r.Use(s.requestLogger())
	r.MaxMultipartMemory = env.MaxUploadBytes()

	r.POST("/upload", s.handleUpload)
	r.GET("/layers/:layerId/status", s.handleStatus)
	r.GET("/layers/:layerId/image/:filename", s.handleImage)
	r.POST("/reprocess-existing-layer/:layerId", s.handleReprocess)
	r.POST("/layers/:layerId/repair-bounds", s.handleRepairBounds)

	debug := r.Group("/debug")
	debug.GET("/layers", s.handleDebugLayers)
	debug.DELETE("/clear-layers", s.handleClearLayers)
	debug.GET("/filesystem", s.handleDebugFilesystem)

	return r
}

// requestLogger records method, path, status and latency for every request.
func (s *Server) requestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		s.logger.Debug("http request",
			"method", c.Request.Method,
			"path", c.Request.URL.Path,
			"status", c.Writer.Status(),
			"duration", time.Since(start))
	}
}

// errorBody is the envelope for non-2xx responses.
func errorBody(message string) gin.H {
	return gin.H{"success": false, "message": message}
}

func notFound(c *gin.Context, message string) {
	c.JSON(http.StatusNotFound, errorBody(message))
}
