package ffmpeg

import "strings"

// ParseLogLevel splits an encoder output line into its level and message.
//
// With level-prefixed output ffmpeg writes "[info] message" or
// "[component @ 0x...] [level] message". The level bracket is stripped and a
// component prefix kept. Lines without a level tag are returned unchanged with
// a level guessed from their content, see classifyUntagged.
func ParseLogLevel(line string) (level, msg string) {
	if len(line) < 3 || line[0] != '[' {
		return classifyUntagged(line), line
	}

	end := strings.Index(line, "] ")
	if end == -1 {
		return classifyUntagged(line), line
	}

	if bracket := line[1:end]; isLogLevel(bracket) {
		return bracket, line[end+2:]
	}

	component := line[:end+2]
	rest := line[end+2:]
	if len(rest) > 2 && rest[0] == '[' {
		if nextEnd := strings.Index(rest, "] "); nextEnd != -1 {
			if next := rest[1:nextEnd]; isLogLevel(next) {
				return next, component + rest[nextEnd+2:]
			}
		}
	}

	return classifyUntagged(line), line
}

// Markers ffmpeg prints in untagged error output, e.g. "Error opening output
// files: Connection refused" or "[tcp @ 0x1] Connection to tcp://... failed".
var errorMarkers = []string{
	"Conversion failed",
	"Invalid argument",
	"No such file or directory",
	"Connection refused",
	"Permission denied",
	" failed",
}

// classifyUntagged assigns a level to output written without -loglevel
// level+..., which is how the encoder runs. Progress lines repeat several
// times a second, so they go to verbose.
func classifyUntagged(line string) string {
	msg := line
	if strings.HasPrefix(msg, "[") {
		if end := strings.Index(msg, "] "); end != -1 {
			msg = msg[end+2:]
		}
	}

	switch {
	case strings.HasPrefix(msg, "frame=") || strings.HasPrefix(msg, "size="):
		return "verbose"
	case strings.HasPrefix(msg, "Warning") || strings.HasPrefix(msg, "warning"):
		return "warning"
	case strings.HasPrefix(msg, "Error") || strings.HasPrefix(msg, "error"):
		return "error"
	}
	for _, marker := range errorMarkers {
		if strings.Contains(msg, marker) {
			return "error"
		}
	}
	return "info"
}

func isLogLevel(s string) bool {
	switch s {
	case "quiet", "panic", "fatal", "error", "warning", "info", "verbose", "debug", "trace":
		return true
	}
	return false
}
