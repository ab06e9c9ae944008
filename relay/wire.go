package relay

import (
	"fmt"
	"math"
	"strconv"

	"github.com/AustralianCyberSecurityCentre/azul-dupwatch.git/fingerprint"
	"github.com/AustralianCyberSecurityCentre/azul-dupwatch.git/models"
	"github.com/goccy/go-json"
	"github.com/tidwall/gjson"
)

// Message is the payload frame of a relay request.
// Packet is either the 16 fingerprint bytes or the full frame.
type Message struct {
	Timestamp float64
	Packet    []byte
}

// octets encode as a json array of integers rather than base64
type octets []byte

func (o octets) MarshalJSON() ([]byte, error) {
	out := make([]byte, 0, 2+len(o)*4)
	out = append(out, '[')
	for i, b := range o {
		if i > 0 {
			out = append(out, ',')
		}
		out = strconv.AppendUint(out, uint64(b), 10)
	}
	return append(out, ']'), nil
}

type wireMessage struct {
	Timestamp float64 `json:"timestamp"`
	Packet    octets  `json:"packet"`
}

// DecodeError describes a payload that is not a relay message.
type DecodeError struct {
	Reason string
}

func (e *DecodeError) Error() string {
	return "malformed relay message: " + e.Reason
}

func EncodeMessage(m Message) ([]byte, error) {
	pkt := octets(m.Packet)
	if pkt == nil {
		pkt = octets{}
	}
	return json.Marshal(wireMessage{Timestamp: m.Timestamp, Packet: pkt})
}

// DecodeMessage validates and decodes a payload frame.
func DecodeMessage(raw []byte) (Message, error) {
	if !gjson.ValidBytes(raw) {
		return Message{}, &DecodeError{Reason: "invalid json"}
	}
	doc := gjson.ParseBytes(raw)
	if !doc.IsObject() {
		return Message{}, &DecodeError{Reason: "not an object"}
	}
	ts := doc.Get("timestamp")
	if ts.Type != gjson.Number {
		return Message{}, &DecodeError{Reason: "timestamp must be a number"}
	}
	pkt := doc.Get("packet")
	if !pkt.IsArray() {
		return Message{}, &DecodeError{Reason: "packet must be an array"}
	}
	elems := pkt.Array()
	m := Message{Timestamp: ts.Num, Packet: make([]byte, 0, len(elems))}
	for i, v := range elems {
		if v.Type != gjson.Number || v.Num != math.Trunc(v.Num) || v.Num < 0 || v.Num > 255 {
			return Message{}, &DecodeError{Reason: fmt.Sprintf("packet[%d] is not a byte", i)}
		}
		m.Packet = append(m.Packet, byte(v.Num))
	}
	return m, nil
}

// MessageFromRecord carries the full payload when requested and available,
// otherwise the fingerprint.
func MessageFromRecord(rec models.Record, sendPayload bool) Message {
	if sendPayload && rec.Payload != nil {
		return Message{Timestamp: rec.Timestamp, Packet: rec.Payload}
	}
	return Message{Timestamp: rec.Timestamp, Packet: append([]byte{}, rec.Fingerprint[:]...)}
}

// Record derives the counted record. A 16 byte packet is a fingerprint, anything
// else is frame data and is fingerprinted here. A shipped frame of exactly 16 bytes
// is therefore counted by its content rather than its hash.
func (m Message) Record() models.Record {
	rec := models.Record{Timestamp: m.Timestamp}
	if fp, err := fingerprint.FromBytes(m.Packet); err == nil {
		rec.Fingerprint = fp
	} else {
		rec.Fingerprint = fingerprint.Compute(m.Packet)
	}
	return rec
}

func EncodeRecord(rec models.Record, sendPayload bool) ([]byte, error) {
	return EncodeMessage(MessageFromRecord(rec, sendPayload))
}

func DecodeRecord(raw []byte) (models.Record, error) {
	m, err := DecodeMessage(raw)
	if err != nil {
		return models.Record{}, err
	}
	return m.Record(), nil
}
