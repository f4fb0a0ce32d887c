package main

import (
	"fmt"
	"strings"
	"unicode"
	"unicode/utf8"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// StringTransformer runs a transform.Transformer over a string. Tests swap it
// out to exercise the error path.
type StringTransformer interface {
	TransformString(t transform.Transformer, s string) (string, int, error)
}

type defaultTransformer struct{}

func (dt defaultTransformer) TransformString(t transform.Transformer, s string) (string, int, error) {
	return transform.String(t, s)
}

var transformer StringTransformer = defaultTransformer{}

// normalizeLabel prepares an upstream place name or event title for display.
// It composes the text to NFC, drops control characters and collapses runs
// of whitespace, so "São  Paulo\n" becomes "São Paulo".
func normalizeLabel(s string) (string, error) {
	if !utf8.ValidString(s) {
		return "", fmt.Errorf("input string is not valid UTF-8")
	}
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Cc)), norm.NFC)
	result, _, err := transformer.TransformString(t, s)
	if err != nil {
		return "", err
	}
	return strings.Join(strings.Fields(result), " "), nil
}

// cleanLabel is normalizeLabel for callers that would rather keep the raw
// value than fail.
func cleanLabel(s string) string {
	if out, err := normalizeLabel(s); err == nil {
		return out
	}
	return strings.TrimSpace(s)
}
