package prom

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	CaptureFramesRead = promauto.NewCounter(prometheus.CounterOpts{
		Name: "dupwatch_capture_frames_read_total",
		Help: "Frames delivered by the capture source",
	})
	CaptureReadErrors = promauto.NewCounter(prometheus.CounterOpts{
		Name: "dupwatch_capture_read_errors_total",
		Help: "Capture reads that failed and were skipped",
	})
	CaptureFramesAdmitted = promauto.NewCounter(prometheus.CounterOpts{
		Name: "dupwatch_capture_frames_admitted_total",
		Help: "Frames accepted by the admission filter",
	})
	CaptureFramesFiltered = promauto.NewCounter(prometheus.CounterOpts{
		Name: "dupwatch_capture_frames_filtered_total",
		Help: "Frames rejected by the admission filter",
	})
	CaptureTraceErrors = promauto.NewCounter(prometheus.CounterOpts{
		Name: "dupwatch_capture_trace_errors_total",
		Help: "Frames that could not be written to the trace file",
	})
)
