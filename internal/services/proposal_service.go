package services

import (
	"context"
	"fmt"
	"net/http"

	"github.com/senyabanana/negotiation-service/internal/aggregation"
	"github.com/senyabanana/negotiation-service/internal/models"
	"github.com/senyabanana/negotiation-service/internal/repository"
	"github.com/senyabanana/negotiation-service/internal/utils"
)

type ProposalService struct {
	Proposals repository.ProposalRepository
	Versions  repository.VersionRepository
	Invites   repository.InviteRepository
}

// NewProposalService создает новый экземпляр ProposalService.
func NewProposalService(proposals repository.ProposalRepository, versions repository.VersionRepository, invites repository.InviteRepository) *ProposalService {
	return &ProposalService{Proposals: proposals, Versions: versions, Invites: invites}
}

// MilestoneSummary - этап платежей с рассчитанной суммой от итога версии.
type MilestoneSummary struct {
	models.MilestonePayment
	Amount float64 `json:"amount"`
}

// ProposalSummary - итоги по последней версии отклика для отображения.
type ProposalSummary struct {
	ProposalID      string                     `json:"proposalId"`
	VersionNumber   int                        `json:"versionNumber"`
	Totals          aggregation.LineItemTotals `json:"totals"`
	Milestones      []MilestoneSummary         `json:"milestones,omitempty"`
	PercentageValid bool                       `json:"percentageValid"`
	PercentageDelta float64                    `json:"percentageDelta"`
}

// FetchProposals получает список откликов с фильтром по статусам.
func (s *ProposalService) FetchProposals(ctx context.Context, limit, offset int, statuses []string) ([]models.Proposal, error) {
	allowedStatuses := map[models.ProposalStatus]bool{
		models.SubmittedProposal:   true,
		models.NegotiatingProposal: true,
		models.ApprovedProposal:    true,
		models.RejectedProposal:    true,
		models.WithdrawnProposal:   true,
	}
	for _, status := range statuses {
		if !allowedStatuses[models.ProposalStatus(status)] {
			return nil, models.NewValidationError(fmt.Sprintf("unsupported proposal status: %s", status))
		}
	}
	return s.Proposals.GetProposals(ctx, limit, offset, statuses)
}

// SubmitProposal подаёт новый отклик. Если отклик пришёл по приглашению,
// приглашение переводится в submitted строго по его id.
func (s *ProposalService) SubmitProposal(ctx context.Context, proposalReq models.ProposalRequest) (*models.Proposal, error) {
	if proposalReq.ProjectID == "" || proposalReq.RespondentID == "" {
		return nil, models.NewValidationError("missing required fields: projectId or respondentId")
	}
	if proposalReq.Price <= 0 {
		return nil, models.NewValidationError("price must be a positive amount")
	}

	proposal, err := s.Proposals.CreateProposal(ctx, proposalReq)
	if err != nil {
		return nil, err
	}

	if proposalReq.InviteID != "" {
		if _, err := s.Invites.MarkSubmitted(ctx, proposalReq.InviteID); err != nil {
			return nil, err
		}
	}
	return proposal, nil
}

// GetProposalStatus получает статус отклика.
func (s *ProposalService) GetProposalStatus(ctx context.Context, proposalId string) (models.ProposalStatus, error) {
	if proposalId == "" {
		return "", models.NewValidationError("missing required parameter: proposalId")
	}
	return s.Proposals.GetProposalStatus(ctx, proposalId)
}

// UpdateProposalStatus меняет статус отклика с проверкой допустимости перехода.
func (s *ProposalService) UpdateProposalStatus(ctx context.Context, proposalId, status string) (*models.Proposal, error) {
	if status == "" || proposalId == "" {
		return nil, models.NewValidationError("missing required parameters: proposalId or status")
	}

	currentProposal, err := s.Proposals.GetProposalByID(ctx, proposalId)
	if err != nil {
		return nil, err
	}

	validTransitions := models.AllowedProposalTransitions[currentProposal.Status]
	if !utils.ContainsProposalStatus(validTransitions, models.ProposalStatus(status)) {
		return nil, models.NewValidationError(fmt.Sprintf("invalid proposal status transition: %s -> %s", currentProposal.Status, status))
	}
	return s.Proposals.UpdateProposalStatus(ctx, proposalId, status)
}

// GetInviteStatus получает статус приглашения.
func (s *ProposalService) GetInviteStatus(ctx context.Context, inviteId string) (models.InviteStatus, error) {
	if inviteId == "" {
		return "", models.NewValidationError("missing required parameter: inviteId")
	}
	invite, err := s.Invites.GetInviteByID(ctx, inviteId)
	if err != nil {
		return "", err
	}
	return invite.Status, nil
}

// UpdateInviteStatus меняет статус приглашения с проверкой допустимости перехода.
func (s *ProposalService) UpdateInviteStatus(ctx context.Context, inviteId, status string) (*models.RFPInvite, error) {
	if status == "" || inviteId == "" {
		return nil, models.NewValidationError("missing required parameters: inviteId or status")
	}

	invite, err := s.Invites.GetInviteByID(ctx, inviteId)
	if err != nil {
		return nil, err
	}

	validTransitions := models.AllowedInviteTransitions[invite.Status]
	if !utils.ContainsInviteStatus(validTransitions, models.InviteStatus(status)) {
		return nil, models.NewValidationError(fmt.Sprintf("invalid invite status transition: %s -> %s", invite.Status, status))
	}
	return s.Invites.UpdateInviteStatus(ctx, inviteId, models.InviteStatus(status))
}

// GetVersions получает все версии отклика.
func (s *ProposalService) GetVersions(ctx context.Context, proposalId string) ([]models.ProposalVersion, error) {
	if _, err := s.Proposals.GetProposalByID(ctx, proposalId); err != nil {
		return nil, err
	}
	return s.Versions.GetVersions(ctx, proposalId)
}

// GetLatestVersion получает последнюю версию отклика; nil - допустимое
// состояние отклика без истории версий.
func (s *ProposalService) GetLatestVersion(ctx context.Context, proposalId string) (*models.ProposalVersion, error) {
	if _, err := s.Proposals.GetProposalByID(ctx, proposalId); err != nil {
		return nil, err
	}
	return s.Versions.GetLatestVersion(ctx, proposalId)
}

// CreateVersion создает новую версию отклика.
func (s *ProposalService) CreateVersion(ctx context.Context, proposalId string, snapshot models.VersionSnapshot) (*models.ProposalVersion, error) {
	if snapshot.Price <= 0 {
		return nil, models.NewValidationError("price must be a positive amount")
	}
	if _, err := s.Proposals.GetProposalByID(ctx, proposalId); err != nil {
		return nil, err
	}
	return s.Versions.CreateVersion(ctx, proposalId, snapshot)
}

// EnsureBaselineVersion гарантирует наличие версии 1 у отклика.
func (s *ProposalService) EnsureBaselineVersion(ctx context.Context, proposalId string) (*models.ProposalVersion, error) {
	if _, err := s.Proposals.GetProposalByID(ctx, proposalId); err != nil {
		return nil, err
	}
	return s.Versions.EnsureBaselineVersion(ctx, proposalId)
}

// GetSummary считает итоги по последней версии отклика: обязательные
// и опциональные суммы, суммы этапов и проверку процентов.
func (s *ProposalService) GetSummary(ctx context.Context, proposalId string) (*ProposalSummary, error) {
	if _, err := s.Proposals.GetProposalByID(ctx, proposalId); err != nil {
		return nil, err
	}

	latest, err := s.Versions.GetLatestVersion(ctx, proposalId)
	if err != nil {
		return nil, err
	}
	if latest == nil {
		latest, err = s.Versions.EnsureBaselineVersion(ctx, proposalId)
		if err != nil {
			return nil, err
		}
	}

	summary := ProposalSummary{
		ProposalID:    proposalId,
		VersionNumber: latest.VersionNumber,
		Totals:        aggregation.SumLineItems(latest.LineItems),
	}

	milestones, err := s.Proposals.GetMilestones(ctx, proposalId)
	if err != nil {
		return nil, err
	}
	baseTotal := summary.Totals.Mandatory
	if baseTotal == 0 {
		baseTotal = latest.Price
	}
	for _, m := range milestones {
		summary.Milestones = append(summary.Milestones, MilestoneSummary{
			MilestonePayment: m,
			Amount:           aggregation.MilestoneAmount(m.Percentage, baseTotal),
		})
	}
	summary.PercentageValid, summary.PercentageDelta = aggregation.ValidatePercentageTotal(milestones, aggregation.PercentageTolerance)
	return &summary, nil
}

// DiffVersions сравнивает две версии отклика.
func (s *ProposalService) DiffVersions(ctx context.Context, proposalId string, from, to int) (*aggregation.VersionDiff, error) {
	if from <= 0 || to <= 0 {
		return nil, models.NewValidationError("version numbers must be positive integers")
	}

	fromVersion, err := s.Versions.GetVersionByNumber(ctx, proposalId, from)
	if err != nil {
		return nil, err
	}
	toVersion, err := s.Versions.GetVersionByNumber(ctx, proposalId, to)
	if err != nil {
		return nil, err
	}
	if fromVersion == nil || toVersion == nil {
		return nil, models.NewErrorResponse(http.StatusNotFound, "version not found")
	}

	diff := aggregation.DiffVersions(*fromVersion, *toVersion)
	return &diff, nil
}
