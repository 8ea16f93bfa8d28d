package services

import (
	"fmt"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/sirupsen/logrus"
	"github.com/trekhive/trek-booking-backend/internal/config"
	"github.com/trekhive/trek-booking-backend/internal/database"
)

// CronService manages scheduled background jobs. The only job today is the
// ledger recompute, which recalculates slot counts for upcoming batches from
// live bookings so external writes or historical drift never persist.
type CronService struct {
	cron      *cron.Cron
	batchRepo *database.BatchRepository
	audit     *AuditService
	cfg       *config.BookingConfig
	logger    *logrus.Logger
}

// NewCronService creates a new CronService
func NewCronService(batchRepo *database.BatchRepository, audit *AuditService, cfg *config.BookingConfig, logger *logrus.Logger) *CronService {
	return &CronService{
		cron:      cron.New(cron.WithSeconds()),
		batchRepo: batchRepo,
		audit:     audit,
		cfg:       cfg,
		logger:    logger,
	}
}

// Start schedules and starts all cron jobs
func (s *CronService) Start() error {
	_, err := s.cron.AddFunc(s.cfg.RecomputeCron, s.recomputeBatchesJob)
	if err != nil {
		return fmt.Errorf("failed to schedule batch recompute job: %w", err)
	}
	s.logger.WithField("schedule", s.cfg.RecomputeCron).Info("Scheduled batch recompute job")

	s.cron.Start()
	s.logger.Info("Cron service started")
	return nil
}

// Stop stops all cron jobs and waits for running ones to finish
func (s *CronService) Stop() {
	ctx := s.cron.Stop()
	<-ctx.Done()
	s.logger.Info("Cron service stopped")
}

// recomputeBatchesJob recalculates slot counts for batches departing within
// the configured window
func (s *CronService) recomputeBatchesJob() {
	startTime := time.Now()

	ids, err := s.batchRepo.ListUpcomingIDs(s.cfg.RecomputeWindow)
	if err != nil {
		s.logger.WithError(err).Error("Batch recompute job failed to list batches")
		return
	}

	corrected := 0
	for _, id := range ids {
		before, err := s.batchRepo.GetByID(id)
		if err != nil {
			s.logger.WithError(err).WithField("batch_id", id).Error("Batch recompute failed to load batch")
			continue
		}

		counts, err := s.batchRepo.Recompute(id)
		if err != nil {
			s.logger.WithError(err).WithField("batch_id", id).Error("Batch recompute failed")
			continue
		}

		if counts.BookedSlots != before.BookedSlots {
			corrected++
			s.logger.WithFields(logrus.Fields{
				"batch_id":     id,
				"booked_was":   before.BookedSlots,
				"booked_now":   counts.BookedSlots,
				"available":    counts.AvailableSlots,
			}).Warn("Batch slot counts drifted, corrected")

			if err := s.audit.LogBatchRecomputed(id, counts.BookedSlots, counts.AvailableSlots); err != nil {
				s.logger.WithError(err).Warn("Failed to write recompute audit event")
			}
		}
	}

	s.logger.WithFields(logrus.Fields{
		"batches":   len(ids),
		"corrected": corrected,
		"duration":  time.Since(startTime).String(),
	}).Info("Batch recompute job finished")
}

// RunRecomputeNow runs the recompute job immediately, for the admin endpoint
func (s *CronService) RunRecomputeNow() {
	s.recomputeBatchesJob()
}
