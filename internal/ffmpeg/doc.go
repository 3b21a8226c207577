// Package ffmpeg builds the encoder invocation and interprets its output.
//
// The argument template is fixed. Per session only the video bitrate and the
// destination change; the input format and device are deployment settings.
package ffmpeg
