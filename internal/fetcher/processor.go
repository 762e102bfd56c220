package fetcher

import (
	"context"
	"fmt"
	"sync/atomic"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	model "github.com/okian/ahcview/internal/domain/model"
	"github.com/okian/ahcview/pkg/logger"
)

// Writer persists collected datasets.
type Writer interface {
	HasStandings(id model.ContestID) bool
	SaveStandings(ctx context.Context, doc model.StandingsFile) error
	SaveExtended(ctx context.Context, doc model.ExtendedFile) error
}

// Processor downloads and stores the dataset named by a fetch job.
type Processor struct {
	client      *Client
	writer      Writer
	resultsURL  string
	extendedURL string
	now         func() time.Time
	logger      logger.Logger
	tracer      trace.Tracer

	fetched atomic.Int64
	cached  atomic.Int64
	failed  atomic.Int64
}

// NewProcessor creates a processor writing through w.
func NewProcessor(client *Client, w Writer, cfg Config) *Processor {
	return &Processor{
		client:      client,
		writer:      w,
		resultsURL:  cfg.ResultsURL,
		extendedURL: cfg.ExtendedURL,
		now:         time.Now,
		logger:      logger.Get().Named("fetcher"),
		tracer:      otel.Tracer("ahcview-fetcher"),
	}
}

// Process implements worker.Processor.
func (p *Processor) Process(ctx context.Context, j model.FetchJob) error {
	ctx, span := p.tracer.Start(ctx, "Processor.Process", trace.WithAttributes(
		attribute.String("contest.id", j.ContestID.String()),
		attribute.String("dataset", string(j.Dataset)),
	))
	defer span.End()

	var err error
	switch j.Dataset {
	case model.DatasetStandings:
		err = p.standings(ctx, j)
	case model.DatasetExtended:
		err = p.extended(ctx, j)
	default:
		err = fmt.Errorf("unknown dataset %q", j.Dataset)
	}
	if err != nil {
		p.failed.Add(1)
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	return err
}

func (p *Processor) standings(ctx context.Context, j model.FetchJob) error {
	if p.writer.HasStandings(j.ContestID) {
		p.cached.Add(1)
		p.logger.Info(ctx, "results already cached, skipping", logger.String("contest", j.ContestID.String()))
		return nil
	}

	p.logger.Info(ctx, "fetching results", logger.String("contest", j.ContestID.String()))
	var entries []resultEntry
	if err := p.client.GetJSON(ctx, kindResults, expand(p.resultsURL, j.ContestID), false, &entries); err != nil {
		return err
	}
	doc := model.StandingsFile{
		ContestID: j.ContestID,
		FetchedAt: p.timestamp(),
		RunID:     j.RunID,
		Rows:      simplifyResults(entries),
	}
	if err := p.writer.SaveStandings(ctx, doc); err != nil {
		return err
	}
	p.fetched.Add(1)
	p.logger.Info(ctx, "results saved",
		logger.String("contest", j.ContestID.String()),
		logger.Int("rows", len(doc.Rows)),
	)
	return nil
}

func (p *Processor) extended(ctx context.Context, j model.FetchJob) error {
	p.logger.Info(ctx, "fetching extended standings", logger.String("contest", j.ContestID.String()))
	var raw extendedStandings
	if err := p.client.GetJSON(ctx, kindExtended, expand(p.extendedURL, j.ContestID), true, &raw); err != nil {
		return err
	}
	doc := model.ExtendedFile{
		ContestID: j.ContestID,
		FetchedAt: p.timestamp(),
		RunID:     j.RunID,
		Rows:      simplifyExtended(raw),
	}
	if err := p.writer.SaveExtended(ctx, doc); err != nil {
		return err
	}
	p.fetched.Add(1)
	p.logger.Info(ctx, "extended standings saved",
		logger.String("contest", j.ContestID.String()),
		logger.Int("rows", len(doc.Rows)),
	)
	return nil
}

func (p *Processor) timestamp() string {
	return p.now().UTC().Format(time.RFC3339)
}
