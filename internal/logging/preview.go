package logging

import (
	"strings"
	"unicode/utf8"
)

// maxPreviewRunes bounds how much of a message body ever reaches a log line.
const maxPreviewRunes = 48

// BodyPreview returns a log-safe excerpt of a chat message body. Full bodies
// are user content and never logged verbatim.
func BodyPreview(body string) string {
	body = strings.TrimSpace(body)
	body = strings.ReplaceAll(body, "\n", " ")
	if utf8.RuneCountInString(body) <= maxPreviewRunes {
		return body
	}
	runes := []rune(body)
	return string(runes[:maxPreviewRunes]) + "…"
}
