package settings

import (
	"fmt"
	"log"
	"reflect"

	"github.com/dustin/go-humanize"
	"github.com/go-viper/mapstructure/v2"
)

// Bytes is a size that may be configured in human readable form, e.g 64MiB.
type Bytes uint64

func (b Bytes) String() string {
	return humanize.IBytes(uint64(b))
}

// HumanToBytes parses a human readable size.
func HumanToBytes(s string) (Bytes, error) {
	v, err := humanize.ParseBytes(s)
	if err != nil {
		return 0, fmt.Errorf("invalid byte size %q: %w", s, err)
	}
	return Bytes(v), nil
}

// HumanToBytesFatal parses a human readable size used as a default.
func HumanToBytesFatal(s string) Bytes {
	b, err := HumanToBytes(s)
	if err != nil {
		log.Fatal(err)
	}
	return b
}

// BytesHookFunc decodes strings from the environment into Bytes.
func BytesHookFunc() mapstructure.DecodeHookFunc {
	return func(from reflect.Type, to reflect.Type, data any) (any, error) {
		if to != reflect.TypeOf(Bytes(0)) || from.Kind() != reflect.String {
			return data, nil
		}
		return HumanToBytes(data.(string))
	}
}
