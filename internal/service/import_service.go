package service

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/noah-isme/students-gateway/internal/models"
)

// FailedImportMessage is reported when no record of a batch was persisted.
const FailedImportMessage = "Failed to import any students"

// PersistFunc creates one student through the persistence collaborator.
type PersistFunc func(ctx context.Context, student models.Student) (*models.Student, error)

// ImportResult is the aggregate outcome of a bulk import.
type ImportResult struct {
	SuccessCount int
	FailCount    int
	Success      bool
	Message      string
}

// ImportService submits validated candidates one at a time and tolerates partial failure.
type ImportService struct {
	metrics *MetricsService
	logger  *zap.Logger
}

// NewImportService constructs the import orchestrator.
func NewImportService(metrics *MetricsService, logger *zap.Logger) *ImportService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ImportService{metrics: metrics, logger: logger}
}

// Import persists records strictly in order, tagging each with the caller identity. A failing
// record is logged and counted; it never stops the batch and nothing is rolled back.
// The run is not cancelled when ctx is; the collaborator's own timeout governs each call.
func (s *ImportService) Import(ctx context.Context, identity models.Identity, records []models.Student, persist PersistFunc) ImportResult {
	runCtx := context.WithoutCancel(ctx)
	var result ImportResult
	for i, record := range records {
		record.ID = ""
		record.UserID = identity.ID
		if _, err := persist(runCtx, record); err != nil {
			result.FailCount++
			s.metrics.RecordImportRecord(false)
			s.logger.Warn("failed to import student",
				zap.Int("index", i),
				zap.String("email", record.Email),
				zap.String("user_id", identity.ID),
				zap.Error(err))
			continue
		}
		result.SuccessCount++
		s.metrics.RecordImportRecord(true)
	}

	result.Success = result.SuccessCount > 0
	result.Message = importMessage(result)
	s.metrics.RecordImportBatch(result.Success)
	s.logger.Info("student import finished",
		zap.String("user_id", identity.ID),
		zap.Int("submitted", len(records)),
		zap.Int("succeeded", result.SuccessCount),
		zap.Int("failed", result.FailCount))
	return result
}

func importMessage(r ImportResult) string {
	if !r.Success {
		return FailedImportMessage
	}
	msg := fmt.Sprintf("Successfully imported %d students", r.SuccessCount)
	if r.FailCount > 0 {
		msg += fmt.Sprintf(" (%d failed)", r.FailCount)
	}
	return msg
}
