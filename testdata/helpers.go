package testdata

import (
	"fmt"
	"reflect"
	"testing"

	"github.com/goccy/go-json"
	"github.com/stretchr/testify/require"
)

// compare two structures by first dumping to json
// this removes problems with time, and other non-normalised data
func MarshalEqual(t *testing.T, in1, in2 any) {
	// non pointer marshalling can prevent custom MarshalJSON from running properly
	if reflect.ValueOf(in1).Kind() != reflect.Ptr {
		panic(fmt.Errorf("provided in1 was not a pointer, was %s", reflect.TypeOf(in1)))
	}
	if reflect.ValueOf(in2).Kind() != reflect.Ptr {
		panic(fmt.Errorf("provided in2 was not a pointer, was %s", reflect.TypeOf(in2)))
	}
	raw1, err := json.Marshal(in1)
	require.Nil(t, err)
	raw2, err := json.Marshal(in2)
	require.Nil(t, err)
	require.JSONEq(t, string(raw1), string(raw2))
}
