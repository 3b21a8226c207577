package session

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// StreamConfig describes one streaming session. It is captured at start and
// replaced wholesale by the next start.
type StreamConfig struct {
	Destination  string // output URL or path handed to the encoder
	Bitrate      uint32 // video bitrate in kbps
	Resolution   string // "WxH"
	AudioEnabled bool
	VideoEnabled bool
}

// Validate reports the first problem that would make the config unusable.
func (c StreamConfig) Validate() error {
	if strings.TrimSpace(c.Destination) == "" {
		return errors.New("destination is required")
	}
	if c.Bitrate == 0 {
		return errors.New("bitrate must be greater than zero")
	}
	if c.Resolution != "" {
		if _, _, err := ParseResolution(c.Resolution); err != nil {
			return err
		}
	}
	return nil
}

// ParseResolution splits a "WxH" string into its dimensions.
func ParseResolution(res string) (width, height int, err error) {
	w, h, ok := strings.Cut(strings.ToLower(res), "x")
	if !ok {
		return 0, 0, fmt.Errorf("invalid resolution %q: expected WxH", res)
	}
	width, err = strconv.Atoi(w)
	if err != nil || width <= 0 {
		return 0, 0, fmt.Errorf("invalid resolution width %q", w)
	}
	height, err = strconv.Atoi(h)
	if err != nil || height <= 0 {
		return 0, 0, fmt.Errorf("invalid resolution height %q", h)
	}
	return width, height, nil
}
