package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/smazurov/livecast/internal/session"
	"github.com/smazurov/livecast/internal/stats"
)

// Source provides the snapshots scraped by Collector. *control.Facade
// satisfies it.
type Source interface {
	Status() session.Status
	GetStats() stats.StreamStats
}

// Collector reports the session and stats snapshots on every scrape.
type Collector struct {
	source Source

	streaming     *prometheus.Desc
	uptime        *prometheus.Desc
	encoderExited *prometheus.Desc
	bitrate       *prometheus.Desc
	targetBitrate *prometheus.Desc
	fps           *prometheus.Desc
	dropped       *prometheus.Desc
	quality       *prometheus.Desc
}

// NewCollector creates a collector over source.
func NewCollector(source Source) *Collector {
	return &Collector{
		source: source,
		streaming: prometheus.NewDesc(
			prometheus.BuildFQName(namespace, "session", "streaming"),
			"1 while a session is streaming", nil, nil),
		uptime: prometheus.NewDesc(
			prometheus.BuildFQName(namespace, "session", "uptime_seconds"),
			"Time since the active session started", nil, nil),
		encoderExited: prometheus.NewDesc(
			prometheus.BuildFQName(namespace, "encoder", "exited"),
			"1 if the active session's encoder has exited on its own", nil, nil),
		targetBitrate: prometheus.NewDesc(
			prometheus.BuildFQName(namespace, "session", "target_bitrate_kbps"),
			"Configured video bitrate of the active session", nil, nil),
		bitrate: prometheus.NewDesc(
			prometheus.BuildFQName(namespace, "stream", "bitrate_kbps"),
			"Reported stream bitrate", nil, nil),
		fps: prometheus.NewDesc(
			prometheus.BuildFQName(namespace, "stream", "fps"),
			"Reported frames per second", nil, nil),
		dropped: prometheus.NewDesc(
			prometheus.BuildFQName(namespace, "stream", "dropped_frames"),
			"Reported dropped frames", nil, nil),
		quality: prometheus.NewDesc(
			prometheus.BuildFQName(namespace, "stream", "network_quality_info"),
			"Reported network quality label", []string{"quality"}, nil),
	}
}

// Describe implements prometheus.Collector.
func (c *Collector) Describe(ch chan<- *prometheus.Desc) {
	ch <- c.streaming
	ch <- c.uptime
	ch <- c.encoderExited
	ch <- c.targetBitrate
	ch <- c.bitrate
	ch <- c.fps
	ch <- c.dropped
	ch <- c.quality
}

// Collect implements prometheus.Collector.
func (c *Collector) Collect(ch chan<- prometheus.Metric) {
	st := c.source.Status()
	streaming := st.State == session.StateStreaming

	ch <- prometheus.MustNewConstMetric(c.streaming, prometheus.GaugeValue, boolToFloat(streaming))
	ch <- prometheus.MustNewConstMetric(c.uptime, prometheus.GaugeValue, st.Uptime.Seconds())
	ch <- prometheus.MustNewConstMetric(c.encoderExited, prometheus.GaugeValue, boolToFloat(st.EncoderExited))

	var target float64
	if st.Config != nil {
		target = float64(st.Config.Bitrate)
	}
	ch <- prometheus.MustNewConstMetric(c.targetBitrate, prometheus.GaugeValue, target)

	s := c.source.GetStats()
	ch <- prometheus.MustNewConstMetric(c.bitrate, prometheus.GaugeValue, float64(s.Bitrate))
	ch <- prometheus.MustNewConstMetric(c.fps, prometheus.GaugeValue, float64(s.FPS))
	ch <- prometheus.MustNewConstMetric(c.dropped, prometheus.GaugeValue, float64(s.DroppedFrames))
	ch <- prometheus.MustNewConstMetric(c.quality, prometheus.GaugeValue, 1, s.NetworkQuality)
}

func boolToFloat(b bool) float64 {
	if b {
		return 1
	}
	return 0
}
