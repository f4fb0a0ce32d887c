package main

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"golang.org/x/text/transform"
)

type failingTransformer struct{}

func (failingTransformer) TransformString(t transform.Transformer, s string) (string, int, error) {
	return "", 0, errors.New("transform failed")
}

func TestNormalizeLabel(t *testing.T) {
	testCases := []struct {
		name    string
		input   string
		want    string
		wantErr bool
	}{
		{name: "Plain", input: "San Francisco", want: "San Francisco"},
		{name: "Decomposed accents are composed", input: "São Paulo", want: "São Paulo"},
		{name: "Whitespace is collapsed", input: "  New \t York\n", want: "New York"},
		{name: "Control characters are dropped", input: "Kraków\u0007", want: "Kraków"},
		{name: "Empty", input: "", want: ""},
		{name: "Invalid UTF-8", input: "\xff\xfe", wantErr: true},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			got, err := normalizeLabel(tc.input)
			if tc.wantErr {
				assert.Error(t, err)
				return
			}
			assert.NoError(t, err)
			assert.Equal(t, tc.want, got)
		})
	}
}

func TestCleanLabel_FallsBackOnTransformError(t *testing.T) {
	original := transformer
	transformer = failingTransformer{}
	t.Cleanup(func() { transformer = original })

	_, err := normalizeLabel("Zürich")
	assert.Error(t, err)
	assert.Equal(t, "Zürich", cleanLabel("  Zürich "))
}
