package models

import "time"

type ProposalStatus string // Статус отклика на проект

const (
	SubmittedProposal   ProposalStatus = "Submitted"   // Отклик подан
	NegotiatingProposal ProposalStatus = "Negotiating" // По отклику идут переговоры
	ApprovedProposal    ProposalStatus = "Approved"    // Отклик принят
	RejectedProposal    ProposalStatus = "Rejected"    // Отклик отклонён
	WithdrawnProposal   ProposalStatus = "Withdrawn"   // Отклик отозван исполнителем
)

// AllowedProposalTransitions описывает допустимые переходы статуса отклика.
var AllowedProposalTransitions = map[ProposalStatus][]ProposalStatus{
	SubmittedProposal:   {NegotiatingProposal, ApprovedProposal, RejectedProposal, WithdrawnProposal},
	NegotiatingProposal: {ApprovedProposal, RejectedProposal, WithdrawnProposal},
	ApprovedProposal:    {},
	RejectedProposal:    {},
	WithdrawnProposal:   {},
}

// Proposal представляет модель отклика исполнителя на проект.
// Цена, сроки и объём работ меняются только через новые версии или переходы статуса.
type Proposal struct {
	ID             string         `json:"id"`
	ProjectID      string         `json:"projectId"`
	RespondentID   string         `json:"respondentId"`
	RespondentName string         `json:"respondentName"`
	Price          float64        `json:"price"`
	TimelineDays   int            `json:"timelineDays"`
	Status         ProposalStatus `json:"status"`
	ScopeText      string         `json:"scopeText"`
	Terms          string         `json:"terms"`
	InviteID       string         `json:"inviteId,omitempty"`
	DeclarationBy  string         `json:"declarationBy,omitempty"`
	DeclarationAt  *time.Time     `json:"declarationAt,omitempty"`
	CreatedAt      time.Time      `json:"createdAt"`
}

// ProposalRequest представляет структуру запроса для подачи отклика.
type ProposalRequest struct {
	ProjectID      string  `json:"projectId"`
	RespondentID   string  `json:"respondentId"`
	RespondentName string  `json:"respondentName"`
	Price          float64 `json:"price"`
	TimelineDays   int     `json:"timelineDays"`
	ScopeText      string  `json:"scopeText"`
	Terms          string  `json:"terms"`
	InviteID       string  `json:"inviteId,omitempty"`
	DeclarationBy  string  `json:"declarationBy,omitempty"`
}
