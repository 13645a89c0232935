package services

import (
	"context"
	"math"

	"github.com/senyabanana/negotiation-service/internal/models"
)

// ProgressFunc получает процент выполнения массовой рассылки после каждого
// отклика. Это побочный эффект для индикатора, а не требование корректности.
type ProgressFunc func(percent int)

type BulkService struct {
	Negotiations *NegotiationService
}

// NewBulkService создает новый экземпляр BulkService.
func NewBulkService(negotiations *NegotiationService) *BulkService {
	return &BulkService{Negotiations: negotiations}
}

// DispatchBulk рассылает один переговорный запрос по набору откликов.
// Обработка последовательная: отклики идут по одному, сбой одного никогда
// не прерывает пакет, а попадает в Skipped с человекочитаемой причиной.
// На уровне API операция всегда завершается успешно.
func (s *BulkService) DispatchBulk(ctx context.Context, bulkReq models.BulkRequest, progress ProgressFunc) (models.BulkResult, error) {
	result := models.BulkResult{Skipped: []models.SkippedProposal{}}

	if len(bulkReq.Proposals) == 0 {
		return result, models.NewValidationError("no proposals supplied")
	}
	if bulkReq.ReductionType != models.PercentReduction && bulkReq.ReductionType != models.FixedReduction {
		return result, models.NewValidationError("invalid reduction type, must be 'percent' or 'fixed'")
	}
	if bulkReq.Value <= 0 {
		return result, models.NewValidationError("reduction value must be positive")
	}
	if bulkReq.ReductionType == models.PercentReduction && bulkReq.Value >= 100 {
		return result, models.NewValidationError("percent reduction must be below 100")
	}

	total := len(bulkReq.Proposals)
	for i, ref := range bulkReq.Proposals {
		target := targetPrice(ref.Price, bulkReq.ReductionType, bulkReq.Value)
		ask := models.SessionRequest{
			ProposalID:  ref.ID,
			TargetTotal: &target,
			Message:     bulkReq.Message,
		}

		if _, err := s.Negotiations.CreateSession(ctx, ask); err != nil {
			result.Skipped = append(result.Skipped, models.SkippedProposal{
				ProposalID: ref.ID,
				Reason:     err.Error(),
			})
		} else {
			result.SuccessCount++
		}

		if progress != nil {
			progress(int(math.Round(float64(i+1) / float64(total) * 100)))
		}
	}
	return result, nil
}

// targetPrice считает целевую цену отклика для заданного снижения.
func targetPrice(price float64, reductionType models.ReductionType, value float64) float64 {
	if reductionType == models.PercentReduction {
		return price * (1 - value/100)
	}
	return price - value
}
