package restapi

import (
	"fmt"
	"time"

	"github.com/AustralianCyberSecurityCentre/azul-dupwatch.git/prom"
	st "github.com/AustralianCyberSecurityCentre/azul-dupwatch.git/settings"
	"github.com/gin-gonic/gin"
	"github.com/goccy/go-json"
)

// keys handlers set on the gin context for the access log
const (
	ctxFingerprint = "dupwatch.fingerprint"
	ctxCount       = "dupwatch.count"
	ctxErrorTitle  = "dupwatch.error_title"
)

// AccessLine is one status api request in restapi.ok.log or restapi.err.log.
type AccessLine struct {
	Time      string `json:"time"`
	DurationS string `json:"duration_s"`
	Status    int    `json:"status"`
	Method    string `json:"method"`
	Route     string `json:"route"`
	Remote    string `json:"remote"`
	// fingerprint the request asked about, normalised to lowercase hex
	Fingerprint string `json:"fingerprint,omitempty"`
	Count       uint64 `json:"count,omitempty"`
	Error       string `json:"error,omitempty"`
}

func newAccessLine(c *gin.Context, route string, start time.Time, elapsed float64) AccessLine {
	line := AccessLine{
		Time:      start.Format(time.RFC3339),
		DurationS: fmt.Sprintf("%.4f", elapsed),
		Status:    c.Writer.Status(),
		Method:    c.Request.Method,
		Route:     route,
		Remote:    c.ClientIP(),
		Error:     c.GetString(ctxErrorTitle),
	}
	line.Fingerprint = c.GetString(ctxFingerprint)
	if line.Fingerprint == "" {
		// unparseable lookups keep what the client sent
		line.Fingerprint = c.Param("hex")
	}
	line.Count = c.GetUint64(ctxCount)
	return line
}

// MetricHandler times fn and writes an access line.
// The route template is not available from the request so it is supplied on startup.
func MetricHandler(route string, fn gin.HandlerFunc) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		fn(c)
		elapsed := time.Since(start).Seconds()
		status := c.Writer.Status()
		prom.RestapiTimes.WithLabelValues(c.Request.Method, route).Observe(elapsed)
		prom.RestapiCodes.WithLabelValues(c.Request.Method, route, fmt.Sprint(status)).Inc()

		raw, err := json.Marshal(newAccessLine(c, route, start, elapsed))
		if err != nil {
			st.Logger.Warn().Err(err).Str("route", route).Msg("could not marshal restapi access line")
			return
		}
		if status < 400 {
			st.WriteFileLog(st.ChLogRestapiOk, raw)
		} else {
			st.WriteFileLog(st.ChLogRestapiErr, raw)
		}
	}
}
