package service

import (
	"context"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/okian/ahcview/internal/domain/model"
	"github.com/okian/ahcview/internal/domain/projection"
	"github.com/okian/ahcview/internal/domain/standings"
	"github.com/okian/ahcview/internal/domain/types"
	"github.com/okian/ahcview/pkg/logger"
	"github.com/okian/ahcview/pkg/metrics"
)

// evaluate builds one contest's record. Dataset failures are logged and
// leave the affected fields null.
func (s *Service) evaluate(ctx context.Context, id model.ContestID, user string) types.Result {
	ctx, span := s.tracer.Start(ctx, "Service.evaluate",
		trace.WithAttributes(attribute.String("contest.id", id.String())),
	)
	defer span.End()
	metrics.RecordContestEvaluated()

	res := types.Result{Contest: id.Display()}

	rows, err := s.store.Standings(ctx, id)
	if err != nil {
		s.soft(ctx, span, model.DatasetStandings, id, err)
		rows = nil
	} else {
		metrics.RecordDatasetLoad(string(model.DatasetStandings), metrics.OutcomeOK)
	}

	found := standings.Lookup(rows, user)
	res.Rank, res.Perf = found.Rank, found.Perf
	if len(found.Index) == 0 {
		return res
	}

	ext, err := s.store.Extended(ctx, id)
	if err != nil {
		s.soft(ctx, span, model.DatasetExtended, id, err)
		return res
	}
	metrics.RecordDatasetLoad(string(model.DatasetExtended), metrics.OutcomeOK)

	proj := projection.Project(ext, user, found.Index)
	res.ExtendedRank = proj.ExtendedRank
	res.ExtendedEquivRank = proj.EquivRank
	res.ExtendedEquivPerf = proj.EquivPerf

	if proj.ExtendedRank != nil {
		fields := []logger.Field{
			logger.String("contest", id.String()),
			logger.String("user", user),
			logger.Int("extended_rank", *proj.ExtendedRank),
			logger.Int("equiv_rank", *proj.EquivRank),
		}
		if proj.EquivPerf != nil {
			fields = append(fields, logger.Int("equiv_perf", *proj.EquivPerf))
		}
		s.logger.Debug(ctx, "extended equivalent", fields...)
	}
	return res
}

func (s *Service) soft(ctx context.Context, span trace.Span, dataset model.Dataset, id model.ContestID, err error) {
	if ctx.Err() != nil {
		return
	}
	outcome := outcomeOf(err)
	metrics.RecordDatasetLoad(string(dataset), outcome)
	span.AddEvent("dataset unavailable", trace.WithAttributes(
		attribute.String("dataset", string(dataset)),
		attribute.String("outcome", outcome),
	))
	if outcome == metrics.OutcomeError {
		metrics.RecordErrorByComponent("repository", string(dataset))
	}
	s.logger.Warn(ctx, "dataset unavailable, treating as empty",
		logger.String("contest", id.String()),
		logger.String("dataset", string(dataset)),
		logger.String("outcome", outcome),
		logger.Error(err),
	)
}
