// Package fetcher collects contest datasets from upstream and writes them to
// the data directory read by the viewer.
package fetcher

import (
	"strings"
	"time"

	"github.com/okian/ahcview/internal/config"
	model "github.com/okian/ahcview/internal/domain/model"
)

// contestPlaceholder is replaced by the contest id in URL templates.
const contestPlaceholder = "{contest_id}"

// Config holds what one collection run needs.
type Config struct {
	ContestsURL string
	ResultsURL  string
	ExtendedURL string
	HomeURL     string
	SessionFile string
	UserAgent   string
	Interval    time.Duration
	Timeout     time.Duration
	Workers     int
	QueueSize   int
}

// FromConfig extracts the collector settings from the process config.
func FromConfig(c *config.Config) Config {
	return Config{
		ContestsURL: c.FetchContestsURL,
		ResultsURL:  c.FetchResultsURL,
		ExtendedURL: c.FetchExtendedURL,
		HomeURL:     c.FetchHomeURL,
		SessionFile: c.FetchSessionFile,
		UserAgent:   c.FetchUserAgent,
		Interval:    c.FetchInterval(),
		Timeout:     c.FetchTimeout(),
		Workers:     c.FetchWorkers,
		QueueSize:   c.FetchQueueSize,
	}
}

func expand(template string, id model.ContestID) string {
	return strings.ReplaceAll(template, contestPlaceholder, id.String())
}
