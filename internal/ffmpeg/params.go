package ffmpeg

// Defaults for the capture input. They match the dummy DirectShow device the
// encoder was first wired against and can be overridden application-wide.
const (
	DefaultBinary      = "ffmpeg"
	DefaultInputFormat = "dshow"
	DefaultInputDevice = "video=dummy:audio=dummy"
)

// Fixed encoding settings of the template.
const (
	VideoCodec   = "libx264"
	Preset       = "ultrafast"
	Tune         = "zerolatency"
	AudioCodec   = "aac"
	AudioBitrate = "128k"
	OutputFormat = "mpegts"
)

// Params holds everything that varies between encoder invocations.
// Only Bitrate and Destination change per session; the input fields are
// deployment settings.
type Params struct {
	Binary      string // ffmpeg executable name or path
	InputFormat string // -f for the input (dshow, lavfi, v4l2)
	InputDevice string // -i for the input

	Bitrate     uint32 // video bitrate in kbps
	Destination string // output URL or file path
}

// withDefaults returns a copy with empty input fields filled in.
func (p Params) withDefaults() Params {
	if p.Binary == "" {
		p.Binary = DefaultBinary
	}
	if p.InputFormat == "" {
		p.InputFormat = DefaultInputFormat
	}
	if p.InputDevice == "" {
		p.InputDevice = DefaultInputDevice
	}
	return p
}
