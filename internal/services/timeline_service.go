package services

import (
	"context"
	"sort"

	"github.com/senyabanana/negotiation-service/internal/models"
	"github.com/senyabanana/negotiation-service/internal/repository"
)

type TimelineService struct {
	Sessions repository.SessionRepository
	Versions repository.VersionRepository
}

// NewTimelineService создает новый экземпляр TimelineService.
func NewTimelineService(sessions repository.SessionRepository, versions repository.VersionRepository) *TimelineService {
	return &TimelineService{Sessions: sessions, Versions: versions}
}

// BuildTimeline собирает хронологию переговоров по отклику: создание сессий,
// ответы, завершения и комментарии, отсортированные по времени.
func (s *TimelineService) BuildTimeline(ctx context.Context, proposalId string) ([]models.TimelineStep, error) {
	sessions, err := s.Sessions.GetProposalSessions(ctx, proposalId)
	if err != nil {
		return nil, err
	}
	comments, err := s.Sessions.GetProposalComments(ctx, proposalId)
	if err != nil {
		return nil, err
	}
	return MergeTimeline(sessions, comments), nil
}

// MergeTimeline сводит сессии и комментарии в один упорядоченный список шагов.
// Внутри одной сессии естественный порядок создан-отвечен-завершён держится
// сам собой: каждая отметка времени ставится отдельным монотонным событием.
func MergeTimeline(sessions []models.NegotiationSession, comments []models.Comment) []models.TimelineStep {
	var steps []models.TimelineStep

	for _, session := range sessions {
		steps = append(steps, models.TimelineStep{
			Type:                   models.SessionCreatedStep,
			SessionID:              session.ID,
			Message:                session.GlobalComment,
			TargetTotal:            session.TargetTotal,
			TargetReductionPercent: session.TargetReductionPercent,
			OccurredAt:             session.CreatedAt,
		})
		if session.RespondedAt != nil {
			steps = append(steps, models.TimelineStep{
				Type:       models.ResponseSubmittedStep,
				SessionID:  session.ID,
				OccurredAt: *session.RespondedAt,
			})
		}
		if session.ResolvedAt != nil {
			stepType := models.CancelledStep
			if session.Status == models.ResolvedSession {
				stepType = models.ResolvedStep
			}
			steps = append(steps, models.TimelineStep{
				Type:       stepType,
				SessionID:  session.ID,
				Outcome:    session.Outcome,
				OccurredAt: *session.ResolvedAt,
			})
		}
	}

	for _, comment := range comments {
		steps = append(steps, models.TimelineStep{
			Type:       models.CommentStep,
			SessionID:  comment.SessionID,
			AuthorType: comment.AuthorType,
			Message:    comment.Content,
			OccurredAt: comment.CreatedAt,
		})
	}

	sort.SliceStable(steps, func(i, j int) bool {
		return steps[i].OccurredAt.Before(steps[j].OccurredAt)
	})
	return steps
}

// BuildVersionSteps собирает компактную историю "оферта - запрос - новая
// оферта" по отклику.
func (s *TimelineService) BuildVersionSteps(ctx context.Context, proposalId string) ([]models.VersionStep, error) {
	versions, err := s.Versions.GetVersions(ctx, proposalId)
	if err != nil {
		return nil, err
	}
	sessions, err := s.Sessions.GetProposalSessions(ctx, proposalId)
	if err != nil {
		return nil, err
	}
	return PairVersionSteps(versions, sessions), nil
}

// PairVersionSteps чередует запросы изменений и версии: N-й запрос
// сопоставляется с N-й последующей версией по порядку создания, а не по
// внешнему ключу - в исторических данных сессия не всегда ссылается на
// порождённую версию. Сопоставление выполняется по мере возможности: при
// неравном числе запросов и версий хвост выводится без пары.
func PairVersionSteps(versions []models.ProposalVersion, sessions []models.NegotiationSession) []models.VersionStep {
	var steps []models.VersionStep

	if len(versions) > 0 {
		steps = append(steps, models.VersionStep{
			Type:          models.OriginalOfferStep,
			VersionNumber: versions[0].VersionNumber,
			Price:         versions[0].Price,
			OccurredAt:    versions[0].CreatedAt,
		})
	}

	updated := versions
	if len(updated) > 0 {
		updated = updated[1:]
	}

	for i := 0; i < len(sessions) || i < len(updated); i++ {
		if i < len(sessions) {
			session := sessions[i]
			steps = append(steps, models.VersionStep{
				Type:                   models.ChangeRequestStep,
				SessionID:              session.ID,
				TargetTotal:            session.TargetTotal,
				TargetReductionPercent: session.TargetReductionPercent,
				Message:                session.GlobalComment,
				OccurredAt:             session.CreatedAt,
			})
		}
		if i < len(updated) {
			version := updated[i]
			steps = append(steps, models.VersionStep{
				Type:          models.UpdatedOfferStep,
				VersionNumber: version.VersionNumber,
				Price:         version.Price,
				OccurredAt:    version.CreatedAt,
			})
		}
	}
	return steps
}
