package restapi

import (
	"github.com/AustralianCyberSecurityCentre/azul-dupwatch.git/counter"
	"github.com/AustralianCyberSecurityCentre/azul-dupwatch.git/fingerprint"
	"github.com/AustralianCyberSecurityCentre/azul-dupwatch.git/pipeline"
	st "github.com/AustralianCyberSecurityCentre/azul-dupwatch.git/settings"
	"github.com/gin-contrib/pprof"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// FirstSeener looks up when a fingerprint was first observed.
type FirstSeener interface {
	FirstSeen(fp fingerprint.Fingerprint) (float64, bool)
}

// StatusServer exposes the collector's counts over http.
type StatusServer struct {
	Router    *gin.Engine
	counter   *counter.Counter
	sightings FirstSeener
	stats     *pipeline.Stats
}

type Option func(*StatusServer)

func WithSightings(f FirstSeener) Option {
	return func(s *StatusServer) { s.sightings = f }
}

// WithStats reports the last pulse interval of a local capture pipeline.
func WithStats(stats *pipeline.Stats) Option {
	return func(s *StatusServer) { s.stats = stats }
}

// response to hitting '/' on the server
func GetRoot(c *gin.Context) {
	c.Writer.Header().Set("Content-Type", "text/plain")
	_, err := c.Writer.Write([]byte("Dupwatch Collector"))
	if err != nil {
		st.Logger.Err(err).Msg("get root")
	}
}

// Basic middleware to log errors.
func ErrorLoggerMiddleware(c *gin.Context) {
	if c == nil {
		st.Logger.Error().Msg("gin error, couldn't provide error info as context was nil.")
		return
	}
	c.Next()

	for _, err := range c.Errors {
		if c.Request == nil || c.Request.URL == nil {
			st.Logger.Error().Err(err).Msg("gin error, limited detail was Request or Request URL was nil.")
		} else {
			st.Logger.Error().Err(err).Msgf("gin error on route %s %s", c.Request.Method, c.Request.URL)
		}
	}
}

func NewStatusServer(c *counter.Counter, opts ...Option) *StatusServer {
	gin.SetMode(gin.ReleaseMode) // don't print route list on start
	s := &StatusServer{counter: c}
	for _, o := range opts {
		o(s)
	}

	router := gin.New()
	router.Use(ErrorLoggerMiddleware)
	// totals across every fingerprint
	lpath := "/api/v1/summary"
	router.GET(lpath, MetricHandler(lpath, s.GetSummary))
	// count for a single fingerprint
	lpath = "/api/v1/fingerprint/:hex"
	router.GET(lpath, MetricHandler(lpath, s.GetFingerprint))

	// base response
	router.GET("/", GetRoot)

	// memory monitoring
	pprof.Register(router, "debug/pprof")

	// prometheus metrics endpoint
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	s.Router = router
	return s
}
