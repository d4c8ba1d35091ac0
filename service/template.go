package service

import (
	"bytes"
	"log/slog"
	"regexp"
)

// TemplateFiller substitutes variables into a contract template.
// Templates use {{key}} placeholders; unknown placeholders are left in
// place with a warning rather than failing the fill.
type TemplateFiller struct{}

func NewTemplateFiller() *TemplateFiller {
	return &TemplateFiller{}
}

var placeholderRe = regexp.MustCompile(`\{\{\s*([a-zA-Z0-9_]+)\s*\}\}`)

// Fill replaces every {{key}} placeholder with its value from variables.
// Placeholders with no matching variable survive untouched and are
// reported with a warning.
func (t *TemplateFiller) Fill(templateBytes []byte, variables map[string]string) []byte {
	filled := placeholderRe.ReplaceAllFunc(templateBytes, func(match []byte) []byte {
		key := string(placeholderRe.FindSubmatch(match)[1])
		if value, ok := variables[key]; ok {
			return []byte(value)
		}
		slog.Warn("template placeholder has no value", "placeholder", key)
		return match
	})

	return filled
}

// HasPlaceholders reports whether data still contains unfilled placeholders
func (t *TemplateFiller) HasPlaceholders(data []byte) bool {
	return bytes.Contains(data, []byte("{{")) && placeholderRe.Match(data)
}
