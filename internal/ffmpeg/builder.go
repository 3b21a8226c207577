package ffmpeg

import (
	"strconv"
	"strings"
)

// BuildArgs returns the encoder arguments, excluding the binary itself:
//
//	-f <input_format> -i <input_device> -c:v libx264 -preset ultrafast
//	-tune zerolatency -b:v <bitrate>k -c:a aac -b:a 128k -f mpegts <destination>
//
// Destination is passed through untouched; callers validate it.
func BuildArgs(p Params) []string {
	p = p.withDefaults()

	return []string{
		"-f", p.InputFormat,
		"-i", p.InputDevice,
		"-c:v", VideoCodec,
		"-preset", Preset,
		"-tune", Tune,
		"-b:v", strconv.FormatUint(uint64(p.Bitrate), 10) + "k",
		"-c:a", AudioCodec,
		"-b:a", AudioBitrate,
		"-f", OutputFormat,
		p.Destination,
	}
}

// Binary returns the executable the arguments are meant for.
func Binary(p Params) string {
	return p.withDefaults().Binary
}

// BuildCommand renders the full invocation as a single shell-safe string.
// Used for logging and for printing the command without running it.
func BuildCommand(p Params) string {
	args := append([]string{Binary(p)}, BuildArgs(p)...)

	var cmd strings.Builder
	for i, arg := range args {
		if i > 0 {
			cmd.WriteByte(' ')
		}
		cmd.WriteString(quote(arg))
	}
	return cmd.String()
}

// quote wraps arg in single quotes when a shell would split or expand it.
func quote(arg string) string {
	if arg == "" {
		return "''"
	}
	if !strings.ContainsAny(arg, " \t\n'\"\\$`&|;<>()*?[]#~!{}") {
		return arg
	}
	return "'" + strings.ReplaceAll(arg, "'", `'\''`) + "'"
}
