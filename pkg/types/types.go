package types

import "strings"

type OutputFormat string

const (
	OutputFormatMP4  OutputFormat = "mp4"
	OutputFormatWebM OutputFormat = "webm"
)

// ParseOutputFormat normalizes a user supplied format name. The empty
// string selects MP4, the default container.
func ParseOutputFormat(s string) (OutputFormat, bool) {
	switch OutputFormat(strings.ToLower(s)) {
	case "", OutputFormatMP4:
		return OutputFormatMP4, true
	case OutputFormatWebM:
		return OutputFormatWebM, true
	}
	return "", false
}
