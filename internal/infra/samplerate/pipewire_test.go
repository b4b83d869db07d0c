package samplerate

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParseMetadataValue(t *testing.T) {
	output := `Found "settings" metadata 31
update: id:0 key:'clock.rate' value:'48000' type:''
update: id:0 key:'clock.allowed-rates' value:'[ 44100 48000 96000 ]' type:''
update: id:0 key:'clock.force-rate' value:'0' type:''
`

	tests := []struct {
		name     string
		key      string
		expected string
		found    bool
	}{
		{name: "clock rate", key: "clock.rate", expected: "48000", found: true},
		{name: "allowed rates", key: "clock.allowed-rates", expected: "[ 44100 48000 96000 ]", found: true},
		{name: "force rate", key: "clock.force-rate", expected: "0", found: true},
		{name: "missing key", key: "clock.quantum", found: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			value, ok := parseMetadataValue(output, tt.key)
			assert.Equal(t, tt.found, ok)
			assert.Equal(t, tt.expected, value)
		})
	}
}

func TestParseRateList(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected []float64
	}{
		{name: "bracketed list", input: "[ 44100 48000 96000 ]", expected: []float64{44100, 48000, 96000}},
		{name: "comma separated", input: "[44100,48000]", expected: []float64{44100, 48000}},
		{name: "garbage entries are skipped", input: "[ 44100 abc 0 ]", expected: []float64{44100}},
		{name: "empty", input: "[ ]", expected: nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, parseRateList(tt.input))
		})
	}
}

func TestParseRate(t *testing.T) {
	rate, err := parseRate(" 96000 ")
	assert.NoError(t, err)
	assert.Equal(t, 96000.0, rate)

	_, err = parseRate("fast")
	assert.Error(t, err)
}
