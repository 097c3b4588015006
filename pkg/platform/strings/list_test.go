package strings

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSplitList(t *testing.T) {
	tests := []struct {
		name     string
		raw      string
		sep      string
		expected []string
	}{
		{name: "empty", raw: "", sep: ",", expected: nil},
		{name: "blank", raw: "   ", sep: ",", expected: nil},
		{name: "single", raw: "localhost:9092", sep: ",", expected: []string{"localhost:9092"}},
		{name: "trims and drops empties", raw: " a:9092, b:9092,", sep: ",", expected: []string{"a:9092", "b:9092"}},
		{name: "dedupes preserving order", raw: "b,a,b,a", sep: ",", expected: []string{"b", "a"}},
		{name: "other separator", raw: "x; y", sep: ";", expected: []string{"x", "y"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, SplitList(tt.raw, tt.sep))
		})
	}
}

func TestDedupeAndTrim(t *testing.T) {
	assert.Nil(t, DedupeAndTrim(nil))
	assert.Nil(t, DedupeAndTrim([]string{" ", ""}))
	assert.Equal(t, []string{"foo", "bar"}, DedupeAndTrim([]string{"  foo ", "bar", "foo", ""}))
}
