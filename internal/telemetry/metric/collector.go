package metric

import (
	"context"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/yndnr/lexdesk-go/pkg/token"
)

// TokenSource reads the currently held token.
type TokenSource interface {
	Get(ctx context.Context) (string, bool, error)
}

// TokenCollector reports how long the held token remains valid.
// It reads the source on every scrape and never logs the token.
type TokenCollector struct {
	source TokenSource
	now    func() time.Time

	present   *prometheus.Desc
	expiresIn *prometheus.Desc
}

// NewTokenCollector creates a collector over source.
func NewTokenCollector(source TokenSource, now func() time.Time) *TokenCollector {
	if now == nil {
		now = time.Now
	}
	return &TokenCollector{
		source: source,
		now:    now,
		present: prometheus.NewDesc(
			prometheus.BuildFQName(namespace, "token", "present"),
			"1 when a token is held, 0 otherwise",
			nil, nil,
		),
		expiresIn: prometheus.NewDesc(
			prometheus.BuildFQName(namespace, "token", "expires_in_seconds"),
			"Seconds until the held token expires; negative once expired",
			nil, nil,
		),
	}
}

// Describe implements prometheus.Collector.
func (c *TokenCollector) Describe(ch chan<- *prometheus.Desc) {
	ch <- c.present
	ch <- c.expiresIn
}

// Collect implements prometheus.Collector.
func (c *TokenCollector) Collect(ch chan<- prometheus.Metric) {
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()

	raw, ok, err := c.source.Get(ctx)
	if err != nil || !ok {
		ch <- prometheus.MustNewConstMetric(c.present, prometheus.GaugeValue, 0)
		return
	}
	ch <- prometheus.MustNewConstMetric(c.present, prometheus.GaugeValue, 1)

	claims, err := token.Decode(raw)
	if err != nil {
		return
	}
	left := claims.ExpiresAt - c.now().Unix()
	ch <- prometheus.MustNewConstMetric(c.expiresIn, prometheus.GaugeValue, float64(left))
}
