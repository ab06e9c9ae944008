package pipeline

import "github.com/AustralianCyberSecurityCentre/azul-dupwatch.git/models"

type EventKind int

const (
	EventFrame EventKind = iota
	EventPulse
)

func (k EventKind) String() string {
	switch k {
	case EventFrame:
		return "frame"
	case EventPulse:
		return "pulse"
	}
	return "unknown"
}

// Event is a single entry on the pipeline queue.
type Event struct {
	Kind  EventKind
	Frame models.Frame
	Pulse models.Pulse
}
