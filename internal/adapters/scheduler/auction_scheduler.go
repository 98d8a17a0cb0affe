package scheduler

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/mwkdckd93-sudo/maz/internal/domain/shared"
	"github.com/mwkdckd93-sudo/maz/internal/ports/outbound"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/sourcegraph/conc/pool"
)

const leaseName = "auction-closer"

// AuctionCloser finalizes and settles a single auction
type AuctionCloser interface {
	CloseAuction(ctx context.Context, auctionID uuid.UUID) (*shared.AuctionCloseResult, error)
	SettleAuction(ctx context.Context, auctionID uuid.UUID) error
}

// DueLister finds auctions that need closing or settling
type DueLister interface {
	ListDue(ctx context.Context, now time.Time, limit int) ([]uuid.UUID, error)
}

type AuctionScheduler struct {
	store       DueLister
	closer      AuctionCloser
	lease       outbound.Lease
	interval    time.Duration
	batchSize   int
	concurrency int
	leaseTTL    time.Duration
	now         func() time.Time
	sweeping    atomic.Bool
	logger      zerolog.Logger
	ctx         context.Context
	cancel      context.CancelFunc
	wg          sync.WaitGroup
}

type AuctionSchedulerParams struct {
	Store       DueLister
	Closer      AuctionCloser
	Lease       outbound.Lease
	Interval    time.Duration
	BatchSize   int
	Concurrency int
	LeaseTTL    time.Duration
	Clock       func() time.Time
	Logger      zerolog.Logger
}

func NewAuctionScheduler(params AuctionSchedulerParams) *AuctionScheduler {
	ctx, cancel := context.WithCancel(context.Background())

	clock := params.Clock
	if clock == nil {
		clock = time.Now
	}
	interval := params.Interval
	if interval <= 0 {
		interval = time.Minute
	}
	batchSize := params.BatchSize
	if batchSize <= 0 {
		batchSize = 100
	}
	concurrency := params.Concurrency
	if concurrency <= 0 {
		concurrency = 1
	}
	leaseTTL := params.LeaseTTL
	if leaseTTL <= 0 {
		leaseTTL = 2 * interval
	}

	return &AuctionScheduler{
		store:       params.Store,
		closer:      params.Closer,
		lease:       params.Lease,
		interval:    interval,
		batchSize:   batchSize,
		concurrency: concurrency,
		leaseTTL:    leaseTTL,
		now:         clock,
		logger:      params.Logger.With().Str("component", "auction_scheduler").Logger(),
		ctx:         ctx,
		cancel:      cancel,
	}
}

// Start begins the sweep loop
func (s *AuctionScheduler) Start() {
	s.logger.Info().Dur("interval", s.interval).Msg("Starting auction scheduler")

	s.wg.Add(1)
	go s.schedulerLoop()
}

// Stop gracefully stops the scheduler and waits for the running sweep
func (s *AuctionScheduler) Stop() {
	s.logger.Info().Msg("Stopping auction scheduler")
	s.cancel()
	s.wg.Wait()
}

func (s *AuctionScheduler) schedulerLoop() {
	defer s.wg.Done()

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	s.Sweep(s.ctx)
	for {
		select {
		case <-ticker.C:
			s.Sweep(s.ctx)
		case <-s.ctx.Done():
			s.logger.Info().Msg("Scheduler loop stopped")
			return
		}
	}
}

// Sweep closes and settles one batch of due auctions. It returns the number of auctions
// processed; overlapping sweeps and sweeps while another instance holds the lease do nothing.
func (s *AuctionScheduler) Sweep(ctx context.Context) int {
	if !s.sweeping.CompareAndSwap(false, true) {
		s.logger.Debug().Msg("Previous sweep still running, skipping")
		return 0
	}
	defer s.sweeping.Store(false)

	if s.lease != nil {
		release, err := s.lease.Acquire(ctx, leaseName, s.leaseTTL)
		if err != nil {
			s.logger.Error().Err(err).Msg("Failed to acquire closer lease")
			return 0
		}
		if release == nil {
			s.logger.Debug().Msg("Closer lease held by another instance, skipping")
			return 0
		}
		defer release()
	}

	due, err := s.store.ListDue(ctx, s.now(), s.batchSize)
	if err != nil {
		s.logger.Error().Err(err).Msg("Failed to list due auctions")
		return 0
	}
	if len(due) == 0 {
		return 0
	}

	s.logger.Debug().Int("count", len(due)).Msg("Found due auctions")

	p := pool.New().WithMaxGoroutines(s.concurrency)
	for _, auctionID := range due {
		auctionID := auctionID
		p.Go(func() {
			s.processAuction(ctx, auctionID)
		})
	}
	p.Wait()

	return len(due)
}

// processAuction closes the auction if it is due and then runs its settlement
func (s *AuctionScheduler) processAuction(ctx context.Context, auctionID uuid.UUID) {
	logger := s.logger.With().Str("auction_id", auctionID.String()).Logger()

	defer func() {
		if p := recover(); p != nil {
			logger.Error().Interface("panic", p).Msg("Auction processing panic")
		}
	}()

	result, err := s.closer.CloseAuction(ctx, auctionID)
	if err != nil {
		logger.Error().Err(err).Msg("Failed to close auction")
		return
	}

	if err := s.closer.SettleAuction(ctx, auctionID); err != nil {
		logger.Warn().Err(err).Msg("Failed to settle auction, will retry on next sweep")
		return
	}

	if result.Closed {
		logger.Info().Str("status", result.Status).Msg("Auction ended successfully")
	}
}
