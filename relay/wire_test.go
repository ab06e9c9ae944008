package relay

import (
	"strings"
	"testing"

	"github.com/AustralianCyberSecurityCentre/azul-dupwatch.git/fingerprint"
	"github.com/AustralianCyberSecurityCentre/azul-dupwatch.git/models"
	"github.com/stretchr/testify/require"
)

func TestEncodeLiteral(t *testing.T) {
	m := Message{Timestamp: 1.2345, Packet: make([]byte, 32)}
	raw, err := EncodeMessage(m)
	require.Nil(t, err)
	zeros := strings.TrimSuffix(strings.Repeat("0,", 32), ",")
	require.Equal(t, `{"timestamp":1.2345,"packet":[`+zeros+`]}`, string(raw))

	back, err := DecodeMessage(raw)
	require.Nil(t, err)
	require.Equal(t, m, back)
}

func TestEncodeBytes(t *testing.T) {
	raw, err := EncodeMessage(Message{Timestamp: 2, Packet: []byte{0, 1, 127, 255}})
	require.Nil(t, err)
	require.Equal(t, `{"timestamp":2,"packet":[0,1,127,255]}`, string(raw))

	raw, err = EncodeMessage(Message{})
	require.Nil(t, err)
	require.Equal(t, `{"timestamp":0,"packet":[]}`, string(raw))
}

func TestDecodeAcceptsWhitespaceAndExtras(t *testing.T) {
	m, err := DecodeMessage([]byte(`{ "packet": [1, 2], "timestamp": 0.0, "extra": true }`))
	require.Nil(t, err)
	require.Equal(t, Message{Timestamp: 0, Packet: []byte{1, 2}}, m)
}

func TestDecodeMalformed(t *testing.T) {
	tables := []struct {
		test string
		raw  string
	}{
		{"not json", `{"timestamp":`},
		{"not object", `[1,2,3]`},
		{"missing timestamp", `{"packet":[1]}`},
		{"string timestamp", `{"timestamp":"1","packet":[1]}`},
		{"missing packet", `{"timestamp":1}`},
		{"packet not array", `{"timestamp":1,"packet":"AAA="}`},
		{"byte too large", `{"timestamp":1,"packet":[256]}`},
		{"negative byte", `{"timestamp":1,"packet":[-1]}`},
		{"fractional byte", `{"timestamp":1,"packet":[1.5]}`},
		{"string byte", `{"timestamp":1,"packet":["1"]}`},
		{"empty", ``},
	}
	for _, table := range tables {
		_, err := DecodeMessage([]byte(table.raw))
		var decodeErr *DecodeError
		require.ErrorAs(t, err, &decodeErr, table.test)
	}
}

func TestRecordConversion(t *testing.T) {
	frame := []byte("abcdefghijklmnopqrstuvwxyz")
	fp := fingerprint.Compute(frame)
	rec := models.Record{Timestamp: 10.5, Fingerprint: fp, Payload: frame}

	// fingerprints are shipped by default and reinterpreted in place
	m := MessageFromRecord(rec, false)
	require.Equal(t, fp[:], m.Packet)
	require.Equal(t, models.Record{Timestamp: 10.5, Fingerprint: fp}, m.Record())

	// payloads are fingerprinted by the collector
	m = MessageFromRecord(rec, true)
	require.Equal(t, frame, m.Packet)
	require.Equal(t, fp, m.Record().Fingerprint)

	// a payload of exactly fingerprint size cannot be told apart from a fingerprint
	short := []byte("0123456789abcdef")
	m = MessageFromRecord(models.Record{Fingerprint: fingerprint.Compute(short), Payload: short}, true)
	require.Equal(t, fingerprint.Fingerprint(short), m.Record().Fingerprint)
	require.NotEqual(t, fingerprint.Compute(short), m.Record().Fingerprint)

	// empty packets are empty payloads
	require.Equal(t, fingerprint.Compute(nil), Message{}.Record().Fingerprint)

	raw, err := EncodeRecord(rec, false)
	require.Nil(t, err)
	back, err := DecodeRecord(raw)
	require.Nil(t, err)
	require.Equal(t, fp, back.Fingerprint)
	require.Equal(t, 10.5, back.Timestamp)
}
