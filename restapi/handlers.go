package restapi

import (
	"fmt"
	"net/http"

	"github.com/AustralianCyberSecurityCentre/azul-dupwatch.git/counter"
	"github.com/AustralianCyberSecurityCentre/azul-dupwatch.git/fingerprint"
	"github.com/AustralianCyberSecurityCentre/azul-dupwatch.git/pipeline"
	"github.com/gin-gonic/gin"
)

type SummaryResponse struct {
	Counter counter.Summary `json:"counter"`
	// last completed pulse interval when this process also captures
	LastPulse *pipeline.StatsSnapshot `json:"last_pulse,omitempty"`
}

type FingerprintResponse struct {
	Fingerprint string  `json:"fingerprint"`
	Count       uint64  `json:"count"`
	Duplicate   bool    `json:"duplicate"`
	FirstSeen   float64 `json:"first_seen,omitempty"`
}

func (s *StatusServer) GetSummary(c *gin.Context) {
	resp := SummaryResponse{Counter: s.counter.Summary()}
	if s.stats != nil {
		last := s.stats.Last()
		resp.LastPulse = &last
	}
	c.JSON(http.StatusOK, resp)
}

func (s *StatusServer) GetFingerprint(c *gin.Context) {
	fp, err := fingerprint.Parse(c.Param("hex"))
	if err != nil {
		JSONError(c, http.StatusBadRequest, "invalid fingerprint", err)
		return
	}
	c.Set(ctxFingerprint, fp.String())
	n := s.counter.Count(fp)
	c.Set(ctxCount, n)
	if n == 0 {
		JSONError(c, http.StatusNotFound, "fingerprint not observed", fmt.Errorf("%s has not been observed", fp))
		return
	}
	resp := FingerprintResponse{Fingerprint: fp.String(), Count: n, Duplicate: n >= 2}
	if s.sightings != nil {
		if first, ok := s.sightings.FirstSeen(fp); ok {
			resp.FirstSeen = first
		}
	}
	c.JSON(http.StatusOK, resp)
}
