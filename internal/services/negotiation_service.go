package services

import (
	"context"
	"fmt"
	"log"

	"github.com/senyabanana/negotiation-service/internal/aggregation"
	"github.com/senyabanana/negotiation-service/internal/models"
	"github.com/senyabanana/negotiation-service/internal/notify"
	"github.com/senyabanana/negotiation-service/internal/repository"
	"github.com/senyabanana/negotiation-service/internal/utils"
)

type NegotiationService struct {
	Sessions  repository.SessionRepository
	Versions  repository.VersionRepository
	Proposals repository.ProposalRepository
	Notifier  notify.Notifier
	Logger    *log.Logger
}

// NewNegotiationService создает новый экземпляр NegotiationService.
func NewNegotiationService(
	sessions repository.SessionRepository,
	versions repository.VersionRepository,
	proposals repository.ProposalRepository,
	notifier notify.Notifier,
	logger *log.Logger,
) *NegotiationService {
	return &NegotiationService{
		Sessions:  sessions,
		Versions:  versions,
		Proposals: proposals,
		Notifier:  notifier,
		Logger:    logger,
	}
}

// CreateSession открывает новую сессию переговоров по отклику.
// Возвращает конфликт, если по отклику уже идут переговоры; проверка в базе
// через частичный уникальный индекс остаётся авторитетной защитой от гонки.
func (s *NegotiationService) CreateSession(ctx context.Context, sessionReq models.SessionRequest) (*models.NegotiationSession, error) {
	if sessionReq.ProposalID == "" {
		return nil, models.NewValidationError("missing required field: proposalId")
	}
	if sessionReq.TargetTotal != nil && sessionReq.TargetReductionPercent != nil {
		return nil, models.NewValidationError("at most one of targetTotal and targetReductionPercent may be set")
	}
	if sessionReq.TargetTotal != nil && *sessionReq.TargetTotal <= 0 {
		return nil, models.NewValidationError("targetTotal must be a positive amount")
	}
	if sessionReq.TargetReductionPercent != nil && (*sessionReq.TargetReductionPercent <= 0 || *sessionReq.TargetReductionPercent >= 100) {
		return nil, models.NewValidationError("targetReductionPercent must be between 0 and 100")
	}

	proposal, err := s.Proposals.GetProposalByID(ctx, sessionReq.ProposalID)
	if err != nil {
		return nil, err
	}

	hasActive, err := s.Sessions.HasActiveSession(ctx, sessionReq.ProposalID)
	if err != nil {
		return nil, err
	}
	if hasActive {
		return nil, models.NewConflictError("a negotiation is already in progress")
	}

	milestoneAsks, err := s.validateMilestoneDrafts(ctx, sessionReq.ProposalID, sessionReq.MilestoneDrafts)
	if err != nil {
		return nil, err
	}

	baseline, err := s.Versions.GetLatestVersion(ctx, sessionReq.ProposalID)
	if err != nil {
		return nil, err
	}
	if baseline == nil {
		baseline, err = s.Versions.EnsureBaselineVersion(ctx, sessionReq.ProposalID)
		if err != nil {
			return nil, err
		}
	}

	session := &models.NegotiationSession{
		ProposalID:             sessionReq.ProposalID,
		ProjectID:              proposal.ProjectID,
		TargetTotal:            sessionReq.TargetTotal,
		TargetReductionPercent: sessionReq.TargetReductionPercent,
		GlobalComment:          sessionReq.Message,
		BaselineVersionID:      baseline.ID,
		LineItemAsks:           sessionReq.LineItemAsks,
		MilestoneAsks:          milestoneAsks,
	}
	session, err = s.Sessions.CreateSession(ctx, session)
	if err != nil {
		return nil, err
	}

	if proposal.Status == models.SubmittedProposal {
		if _, err := s.Proposals.UpdateProposalStatus(ctx, proposal.ID, string(models.NegotiatingProposal)); err != nil {
			return nil, err
		}
	}

	notify.Dispatch(s.Notifier, s.Logger, notify.NegotiationRequested, notify.Payload{
		"sessionId":  session.ID,
		"proposalId": session.ProposalID,
		"projectId":  session.ProjectID,
	})
	return session, nil
}

// RecordResponse фиксирует ответ исполнителя: создаёт новую версию отклика
// и переводит сессию в responded с отметкой времени и id версии.
func (s *NegotiationService) RecordResponse(ctx context.Context, sessionId string, snapshot models.VersionSnapshot, message string) (*models.ProposalVersion, error) {
	if snapshot.Price <= 0 {
		return nil, models.NewValidationError("price must be a positive amount")
	}

	session, err := s.Sessions.GetSessionByID(ctx, sessionId)
	if err != nil {
		return nil, err
	}

	validTransitions := models.AllowedSessionTransitions[session.Status]
	if !utils.ContainsSessionStatus(validTransitions, models.RespondedSession) {
		return nil, models.NewConflictError(fmt.Sprintf("session in status %s cannot accept a response", session.Status))
	}

	if snapshot.ChangeReason == "" {
		snapshot.ChangeReason = "negotiated revision"
	}
	version, err := s.Versions.CreateVersion(ctx, session.ProposalID, snapshot)
	if err != nil {
		return nil, err
	}

	if _, err := s.Sessions.MarkResponded(ctx, sessionId, version.ID); err != nil {
		return nil, err
	}
	if message != "" {
		if _, err := s.Sessions.AddComment(ctx, sessionId, models.RespondentAuthor, message); err != nil {
			return nil, err
		}
	}

	notify.Dispatch(s.Notifier, s.Logger, notify.NegotiationResponded, notify.Payload{
		"sessionId":  sessionId,
		"proposalId": session.ProposalID,
		"versionId":  version.ID,
	})
	return version, nil
}

// Resolve завершает сессию решением инициатора. При принятии цена, сроки
// и объём работ отклика зеркалируют версию, созданную ответом этой сессии;
// при отклонении отклик переводится в Rejected.
func (s *NegotiationService) Resolve(ctx context.Context, sessionId string, outcome models.SessionOutcome) (*models.NegotiationSession, error) {
	if outcome != models.AcceptedOutcome && outcome != models.RejectedOutcome {
		return nil, models.NewValidationError("invalid outcome, must be either 'accepted' or 'rejected'")
	}

	session, err := s.Sessions.GetSessionByID(ctx, sessionId)
	if err != nil {
		return nil, err
	}

	validTransitions := models.AllowedSessionTransitions[session.Status]
	if !utils.ContainsSessionStatus(validTransitions, models.ResolvedSession) {
		return nil, models.NewConflictError(fmt.Sprintf("session in status %s cannot be resolved", session.Status))
	}

	if outcome == models.AcceptedOutcome {
		version, err := s.negotiatedVersion(ctx, session)
		if err != nil {
			return nil, err
		}
		if version == nil {
			return nil, models.NewValidationError("no version to accept")
		}
		if _, err := s.Proposals.MirrorVersion(ctx, session.ProposalID, version); err != nil {
			return nil, err
		}
	} else {
		if _, err := s.Proposals.UpdateProposalStatus(ctx, session.ProposalID, string(models.RejectedProposal)); err != nil {
			return nil, err
		}
	}

	resolved, err := s.Sessions.MarkResolved(ctx, sessionId, outcome)
	if err != nil {
		return nil, err
	}

	notify.Dispatch(s.Notifier, s.Logger, notify.NegotiationResolved, notify.Payload{
		"sessionId":  sessionId,
		"proposalId": session.ProposalID,
		"outcome":    string(outcome),
	})
	return resolved, nil
}

// Cancel отменяет сессию до получения ответа. Доступно обеим сторонам.
func (s *NegotiationService) Cancel(ctx context.Context, sessionId string) (*models.NegotiationSession, error) {
	session, err := s.Sessions.GetSessionByID(ctx, sessionId)
	if err != nil {
		return nil, err
	}

	validTransitions := models.AllowedSessionTransitions[session.Status]
	if !utils.ContainsSessionStatus(validTransitions, models.CancelledSession) {
		return nil, models.NewConflictError(fmt.Sprintf("session in status %s cannot be cancelled", session.Status))
	}
	return s.Sessions.MarkCancelled(ctx, sessionId)
}

// AddComment добавляет комментарий в сессию. Только добавление, без правок.
func (s *NegotiationService) AddComment(ctx context.Context, sessionId string, authorType models.AuthorType, content string) (*models.Comment, error) {
	if content == "" {
		return nil, models.NewValidationError("comment content is required")
	}
	if authorType != models.InitiatorAuthor && authorType != models.RespondentAuthor {
		return nil, models.NewValidationError("invalid author type, must be 'initiator' or 'respondent'")
	}
	if _, err := s.Sessions.GetSessionByID(ctx, sessionId); err != nil {
		return nil, err
	}
	return s.Sessions.AddComment(ctx, sessionId, authorType, content)
}

// GetComments возвращает комментарии сессии.
func (s *NegotiationService) GetComments(ctx context.Context, sessionId string) ([]models.Comment, error) {
	if _, err := s.Sessions.GetSessionByID(ctx, sessionId); err != nil {
		return nil, err
	}
	return s.Sessions.GetComments(ctx, sessionId)
}

// negotiatedVersion возвращает версию, созданную ответом сессии. Версии,
// записанные после ответа, на принятие не влияют. Унаследованные строки без
// negotiated_version_id откатываются к последней версии отклика.
func (s *NegotiationService) negotiatedVersion(ctx context.Context, session *models.NegotiationSession) (*models.ProposalVersion, error) {
	if session.NegotiatedVersionID != "" {
		version, err := s.Versions.GetVersionByID(ctx, session.NegotiatedVersionID)
		if err != nil {
			return nil, err
		}
		if version != nil {
			return version, nil
		}
	}
	return s.Versions.GetLatestVersion(ctx, session.ProposalID)
}

// validateMilestoneDrafts проверяет, что объединение нескорректированных
// этапов и целевых процентов черновиков в сумме даёт 100, и собирает
// сохраняемые привязки. Ничего не пишется в базу до успешной проверки.
func (s *NegotiationService) validateMilestoneDrafts(ctx context.Context, proposalId string, drafts []models.MilestoneAdjustmentDraft) ([]models.MilestoneAdjustment, error) {
	if len(drafts) == 0 {
		return nil, nil
	}

	milestones, err := s.Proposals.GetMilestones(ctx, proposalId)
	if err != nil {
		return nil, err
	}

	valid, delta := aggregation.ValidateAdjustedPercentages(milestones, drafts, aggregation.PercentageTolerance)
	if !valid {
		return nil, models.NewValidationError(fmt.Sprintf("milestone percentages must total 100, current sum is %.2f", 100+delta))
	}

	originals := make(map[string]float64, len(milestones))
	for _, m := range milestones {
		originals[m.ID] = m.Percentage
	}

	asks := make([]models.MilestoneAdjustment, 0, len(drafts))
	for _, draft := range drafts {
		original := draft.OriginalPercentage
		if stored, ok := originals[draft.MilestoneID]; ok {
			original = stored
		}
		asks = append(asks, models.MilestoneAdjustment{
			MilestoneID:        draft.MilestoneID,
			OriginalPercentage: original,
			TargetPercentage:   draft.TargetPercentage,
			InitiatorNote:      draft.InitiatorNote,
		})
	}
	return asks, nil
}
