/*
Package settings controls reading configuration from environment and assigning defaults
*/
package settings

import (
	"log" // cannot use zerolog as log options not initialised
	"strings"
	"time"

	"github.com/go-viper/mapstructure/v2"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/structs"
	"github.com/knadh/koanf/v2"
)

// environment variables are read as DW.SECTION.KEY or DW__SECTION__KEY
const envPrefix = "DW"

var Settings *DWSettings
var Capture *DWCapture
var Pipeline *DWPipeline
var Relay *DWRelay
var Sightings *DWSightings
var Report *DWReport

type DWCapture struct {
	// name of the interface to capture from
	Interface string `koanf:"interface"`
	// read frames from this pcap file instead of a live interface
	ReadFile string `koanf:"read_file"`
	// bytes captured per frame
	Snaplen     int  `koanf:"snaplen"`
	Promiscuous bool `koanf:"promiscuous"`
	// how long a live read waits before checking for shutdown
	ReadTimeout time.Duration `koanf:"read_timeout"`
	// optional BPF expression applied by libpcap before admission filtering
	BPF string `koanf:"bpf"`
	// pcap trace of every admitted frame, empty disables
	TracePath string `koanf:"trace_path"`
	// optional yaml file of admission rules merged over the values below
	FilterFile string `koanf:"filter_file"`
	// hex ethertypes that are admitted e.g 0x0800
	EtherTypes []string `koanf:"ethertypes"`
	// IPv4 addresses or CIDR ranges never admitted as source or destination
	ExcludeAddrs []string `koanf:"exclude_addrs"`
	// also exclude every address assigned to the capture interface
	ExcludeLocal bool `koanf:"exclude_local"`
}

type DWPipeline struct {
	// capacity of the event queue shared by the frame and pulse producers
	QueueSize int `koanf:"queue_size"`
	// how often a stats pulse is emitted
	PulseInterval time.Duration `koanf:"pulse_interval"`
}

type DWRelay struct {
	// collector rendezvous, e.g tcp://*:5556
	BindAddr string `koanf:"bind_addr"`
	// producer target, e.g tcp://127.0.0.1:5556
	ConnectAddr string `koanf:"connect_addr"`
	// routing identity announced by the producer
	Identity string `koanf:"identity"`
	// identity the collector addresses replies to, empty echoes the request identity
	ReplyIdentity string `koanf:"reply_identity"`
	// capacity of the producer's outbound queue
	QueueSize int `koanf:"queue_size"`
	// ship full frame bytes instead of the fingerprint. The collector reads a 16 byte
	// packet as a fingerprint, so frames of exactly that length are counted by content
	SendPayload bool `koanf:"send_payload"`
}

type DWSightings struct {
	/*
		The sightings index remembers when each fingerprint was first seen so duplicate
		reports can carry the delay between copies. It is bounded and may forget entries;
		it is never consulted when counting.
	*/
	// memory for the index, 0 disables it
	SizeBytes Bytes `koanf:"size_bytes"`
	// how long a first sighting is remembered
	TTL time.Duration `koanf:"ttl"`
	// number of cache shards, concurrency vs max entry size
	Shards int `koanf:"shards"`
}

type DWKafka struct {
	// Kafka bootstrap server list, empty disables the kafka sink
	Endpoint string `koanf:"endpoint"`
	Topic    string `koanf:"topic"`
	// export sarama's internal metrics through prometheus
	ExtendedMetrics bool `koanf:"extended_metrics"`
}

type DWRedis struct {
	// empty disables the redis sink
	Endpoint string `koanf:"endpoint"`
	Username string `koanf:"username"`
	Password string `koanf:"password"`
	DB       int    `koanf:"db"`
	// number of attempts for each redis call
	MaxRetries               int `koanf:"max_retries"`
	ConnectionTimeoutSeconds int `koanf:"connection_timeout_seconds"`
	// expiry for mirrored counts, 0 keeps them forever
	ExpirationSeconds int `koanf:"expiration_seconds"`
	// delete dup.* keys from an earlier run on startup, counts restart at zero
	ResetOnStart bool `koanf:"reset_on_start"`
}

type DWReport struct {
	// capacity of the queue between the counter and the report sinks
	QueueSize int `koanf:"queue_size"`
	// write duplicate reports to duplicates.log under the log path
	File  bool    `koanf:"file"`
	Kafka DWKafka `koanf:"kafka"`
	Redis DWRedis `koanf:"redis"`
}

type DWSettings struct {
	// status/metrics server will listen for connections from this address
	ListenAddr string `koanf:"listen_addr"`
	// for custom log files, the folder to place these file in
	LogPath string `koanf:"log_path"`
	// zerolog level name
	LogLevel string `koanf:"log_level"`
	// console or json
	LogFormat string      `koanf:"log_format"`
	Capture   DWCapture   `koanf:"capture"`
	Pipeline  DWPipeline  `koanf:"pipeline"`
	Relay     DWRelay     `koanf:"relay"`
	Sightings DWSightings `koanf:"sightings"`
	Report    DWReport    `koanf:"report"`
}

var defaults DWSettings = DWSettings{
	ListenAddr: ":8112",
	LogPath:    "/tmp/logs/dupwatch/",
	LogLevel:   "info",
	LogFormat:  "console",
	Capture: DWCapture{
		Snaplen:      65535,
		Promiscuous:  true,
		ReadTimeout:  250 * time.Millisecond,
		TracePath:    "out.pcap",
		EtherTypes:   []string{"0x0800"},
		ExcludeAddrs: []string{},
		ExcludeLocal: true,
	},
	Pipeline: DWPipeline{
		QueueSize:     50,
		PulseInterval: time.Second,
	},
	Relay: DWRelay{
		BindAddr:      "tcp://*:5556",
		ConnectAddr:   "tcp://127.0.0.1:5556",
		Identity:      "test_client",
		ReplyIdentity: "test_client",
		QueueSize:     50,
		SendPayload:   false,
	},
	Sightings: DWSightings{
		SizeBytes: HumanToBytesFatal("64MiB"),
		TTL:       time.Hour,
		Shards:    64,
	},
	Report: DWReport{
		QueueSize: 256,
		File:      true,
		Kafka: DWKafka{
			Topic: "dupwatch.duplicates",
		},
		Redis: DWRedis{
			MaxRetries:               3,
			ConnectionTimeoutSeconds: 5,
		},
	},
}

// envKey maps DW.CAPTURE.TRACE_PATH or DW__CAPTURE__TRACE_PATH to capture.trace_path.
// Returns an empty key for variables that only share the prefix.
func envKey(s string) string {
	var rest string
	switch {
	case strings.HasPrefix(s, envPrefix+"."):
		rest = strings.TrimPrefix(s, envPrefix+".")
	case strings.HasPrefix(s, envPrefix+"__"):
		rest = strings.ReplaceAll(strings.TrimPrefix(s, envPrefix+"__"), "__", ".")
	default:
		return ""
	}
	return strings.ToLower(rest)
}

// parseSettings overlays the environment on top of the provided defaults.
func parseSettings(base DWSettings) (*DWSettings, error) {
	k := koanf.New(".")
	if err := k.Load(structs.Provider(base, "koanf"), nil); err != nil {
		return nil, err
	}
	if err := k.Load(env.Provider(envPrefix, ".", envKey), nil); err != nil {
		return nil, err
	}
	var out DWSettings
	err := k.UnmarshalWithConf("", &out, koanf.UnmarshalConf{
		Tag: "koanf",
		DecoderConfig: &mapstructure.DecoderConfig{
			DecodeHook: mapstructure.ComposeDecodeHookFunc(
				BytesHookFunc(),
				mapstructure.StringToTimeDurationHookFunc(),
				mapstructure.StringToSliceHookFunc(","),
			),
			Metadata:         nil,
			Result:           &out,
			WeaklyTypedInput: true,
			TagName:          "koanf",
		},
	})
	if err != nil {
		return nil, err
	}
	return &out, nil
}

func ResetSettings() {
	parsed, err := parseSettings(defaults)
	if err != nil {
		log.Fatalf("could not read dupwatch settings from environment: %s", err.Error())
	}
	Settings = parsed
	setupLoggers(Settings)
	Capture = &Settings.Capture
	Pipeline = &Settings.Pipeline
	Relay = &Settings.Relay
	Sightings = &Settings.Sightings
	Report = &Settings.Report
}

func init() {
	ResetSettings()
}
