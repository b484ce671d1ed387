package services

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/rs/zerolog/log"
	"github.com/zatekoja/transcript-triage/backend/internal/domain/repositories"
)

// BackfillBatchSize is the page size used when scanning for transcripts without a lead
const BackfillBatchSize = 100

// LeadBackfiller generates the lead for one transcript
type LeadBackfiller interface {
	BackfillLead(ctx context.Context, transcriptID, model string) (*LeadGenerationResult, error)
}

// BackfillSummary reports what a backfill run did
type BackfillSummary struct {
	TotalProcessed int
	LeadsCreated   int
	NoLeadCount    int
	FailureCount   int
}

// LeadBackfillService generates leads for new transcripts that never got one
type LeadBackfillService struct {
	transcripts repositories.TranscriptRepository
	backfiller  LeadBackfiller
	model       string
	workerCount int
	batchSize   int
}

// NewLeadBackfillService creates a new lead backfill service
func NewLeadBackfillService(
	transcripts repositories.TranscriptRepository,
	backfiller LeadBackfiller,
	model string,
	workers int,
) *LeadBackfillService {
	if workers <= 0 {
		workers = 1
	}
	return &LeadBackfillService{
		transcripts: transcripts,
		backfiller:  backfiller,
		model:       model,
		workerCount: workers,
		batchSize:   BackfillBatchSize,
	}
}

// BackfillAll pages through transcripts without a lead and feeds them to the worker pool.
// A failed transcript still has no lead afterwards, so a later run retries it.
func (s *LeadBackfillService) BackfillAll(ctx context.Context) (*BackfillSummary, error) {
	if err := ValidateModel(s.model); err != nil {
		return nil, err
	}

	var processed, created, empty, failure int64

	idChan := make(chan string, s.batchSize)
	var wg sync.WaitGroup

	for i := 0; i < s.workerCount; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for id := range idChan {
				result, err := s.BackfillSingle(ctx, id)
				atomic.AddInt64(&processed, 1)
				switch {
				case err != nil:
					atomic.AddInt64(&failure, 1)
					log.Warn().Err(err).Str("transcript_id", id).Msg("lead backfill failed")
				case result.LeadCount == 0:
					atomic.AddInt64(&empty, 1)
				default:
					atomic.AddInt64(&created, 1)
				}
			}
		}()
	}

	produceErr := s.produce(ctx, idChan)
	close(idChan)
	wg.Wait()

	if produceErr != nil {
		return nil, produceErr
	}

	return &BackfillSummary{
		TotalProcessed: int(processed),
		LeadsCreated:   int(created),
		NoLeadCount:    int(empty),
		FailureCount:   int(failure),
	}, nil
}

func (s *LeadBackfillService) produce(ctx context.Context, idChan chan<- string) error {
	afterID := ""
	for {
		ids, err := s.transcripts.ListIDsWithoutLead(ctx, afterID, s.batchSize)
		if err != nil {
			return fmt.Errorf("failed to list transcripts without lead: %w", err)
		}
		if len(ids) == 0 {
			return nil
		}

		for _, id := range ids {
			select {
			case idChan <- id:
			case <-ctx.Done():
				return ctx.Err()
			}
		}

		if len(ids) < s.batchSize {
			return nil
		}
		afterID = ids[len(ids)-1]
	}
}

// BackfillSingle generates the lead for one transcript
func (s *LeadBackfillService) BackfillSingle(ctx context.Context, transcriptID string) (*LeadGenerationResult, error) {
	result, err := s.backfiller.BackfillLead(ctx, transcriptID, s.model)
	if err != nil {
		return nil, fmt.Errorf("failed to backfill lead for %s: %w", transcriptID, err)
	}
	return result, nil
}
