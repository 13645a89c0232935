package models

import "time"

type InviteStatus string // Статус приглашения к участию в запросе предложений

const (
	PendingInvite    InviteStatus = "pending"     // Приглашение создано
	SentInvite       InviteStatus = "sent"        // Приглашение отправлено
	OpenedInvite     InviteStatus = "opened"      // Приглашение открыто получателем
	InProgressInvite InviteStatus = "in_progress" // Получатель готовит отклик
	SubmittedInvite  InviteStatus = "submitted"   // Отклик по приглашению подан
	DeclinedInvite   InviteStatus = "declined"    // Получатель отказался
	ExpiredInvite    InviteStatus = "expired"     // Срок приглашения истёк
)

// AllowedInviteTransitions описывает допустимые переходы статуса приглашения.
// Перевод в submitted выполняется ровно один раз и строго по id приглашения,
// чтобы не задеть соседние приглашения того же исполнителя.
var AllowedInviteTransitions = map[InviteStatus][]InviteStatus{
	PendingInvite:    {SentInvite, DeclinedInvite, ExpiredInvite},
	SentInvite:       {OpenedInvite, DeclinedInvite, ExpiredInvite},
	OpenedInvite:     {InProgressInvite, SubmittedInvite, DeclinedInvite, ExpiredInvite},
	InProgressInvite: {SubmittedInvite, DeclinedInvite, ExpiredInvite},
	SubmittedInvite:  {},
	DeclinedInvite:   {},
	ExpiredInvite:    {},
}

// RFPInvite представляет канал распространения, породивший отклик.
type RFPInvite struct {
	ID        string       `json:"id"`
	RFPID     string       `json:"rfpId"`
	AdvisorID string       `json:"advisorId"`
	Status    InviteStatus `json:"status"`
	CreatedAt time.Time    `json:"createdAt"`
	UpdatedAt time.Time    `json:"updatedAt"`
}
