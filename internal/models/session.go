package models

import "time"

type (
	SessionStatus  string // Статус сессии переговоров
	AuthorType     string // Автор комментария в сессии
	SessionOutcome string // Решение инициатора по ответу
	ReductionType  string // Тип снижения цены в массовой рассылке
)

const (
	OpenSession             SessionStatus = "open"              // Сессия создана, но ещё не сохранена как отправленная
	AwaitingResponseSession SessionStatus = "awaiting_response" // Запрос отправлен, ожидается ответ исполнителя
	RespondedSession        SessionStatus = "responded"         // Исполнитель ответил новой версией
	ResolvedSession         SessionStatus = "resolved"          // Инициатор принял или отклонил ответ
	CancelledSession        SessionStatus = "cancelled"         // Сессия отменена до ответа

	InitiatorAuthor  AuthorType = "initiator"  // Комментарий оставил заказчик
	RespondentAuthor AuthorType = "respondent" // Комментарий оставил исполнитель

	AcceptedOutcome SessionOutcome = "accepted" // Ответ принят
	RejectedOutcome SessionOutcome = "rejected" // Ответ отклонён

	PercentReduction ReductionType = "percent" // Снижение на процент от текущей цены
	FixedReduction   ReductionType = "fixed"   // Снижение на фиксированную сумму
)

// AllowedSessionTransitions описывает допустимые переходы статуса сессии.
var AllowedSessionTransitions = map[SessionStatus][]SessionStatus{
	OpenSession:             {AwaitingResponseSession, CancelledSession},
	AwaitingResponseSession: {RespondedSession, CancelledSession},
	RespondedSession:        {ResolvedSession},
	ResolvedSession:         {},
	CancelledSession:        {},
}

// NegotiationSession представляет один раунд переговоров по отклику.
// Авторитетно не более одного из полей TargetTotal и TargetReductionPercent;
// второе при необходимости выводится из первого на чтении.
type NegotiationSession struct {
	ID                     string                `json:"id"`
	ProposalID             string                `json:"proposalId"`
	ProjectID              string                `json:"projectId"`
	Status                 SessionStatus         `json:"status"`
	TargetTotal            *float64              `json:"targetTotal,omitempty"`
	TargetReductionPercent *float64              `json:"targetReductionPercent,omitempty"`
	GlobalComment          string                `json:"globalComment,omitempty"`
	BaselineVersionID      string                `json:"baselineVersionId"`
	NegotiatedVersionID    string                `json:"negotiatedVersionId,omitempty"`
	Outcome                SessionOutcome        `json:"outcome,omitempty"`
	LineItemAsks           []LineItemNegotiation `json:"lineItemAsks,omitempty"`
	MilestoneAsks          []MilestoneAdjustment `json:"milestoneAsks,omitempty"`
	CreatedAt              time.Time             `json:"createdAt"`
	RespondedAt            *time.Time            `json:"respondedAt,omitempty"`
	ResolvedAt             *time.Time            `json:"resolvedAt,omitempty"`
}

// LineItemNegotiation привязывает запрос изменения к конкретной позиции сметы.
type LineItemNegotiation struct {
	ID            string   `json:"id"`
	SessionID     string   `json:"sessionId"`
	LineItemID    string   `json:"lineItemId"`
	TargetTotal   *float64 `json:"targetTotal,omitempty"`
	InitiatorNote string   `json:"initiatorNote,omitempty"`
}

// MilestoneAdjustment - сохранённый запрос изменения этапа внутри сессии.
type MilestoneAdjustment struct {
	ID                 string  `json:"id"`
	SessionID          string  `json:"sessionId"`
	MilestoneID        string  `json:"milestoneId"`
	OriginalPercentage float64 `json:"originalPercentage"`
	TargetPercentage   float64 `json:"targetPercentage"`
	InitiatorNote      string  `json:"initiatorNote,omitempty"`
}

// Comment представляет сообщение в обсуждении сессии. Только добавление,
// без редактирования и удаления.
type Comment struct {
	ID         string     `json:"id"`
	SessionID  string     `json:"sessionId"`
	AuthorType AuthorType `json:"authorType"`
	Content    string     `json:"content"`
	CreatedAt  time.Time  `json:"createdAt"`
}

// SessionRequest представляет структуру запроса для создания сессии переговоров.
type SessionRequest struct {
	ProposalID             string                     `json:"proposalId"`
	TargetTotal            *float64                   `json:"targetTotal,omitempty"`
	TargetReductionPercent *float64                   `json:"targetReductionPercent,omitempty"`
	Message                string                     `json:"message,omitempty"`
	LineItemAsks           []LineItemNegotiation      `json:"lineItemAsks,omitempty"`
	MilestoneDrafts        []MilestoneAdjustmentDraft `json:"milestoneDrafts,omitempty"`
}

// BulkProposalRef - ссылка на отклик в массовой рассылке запроса.
type BulkProposalRef struct {
	ID        string  `json:"id"`
	ProjectID string  `json:"projectId"`
	Price     float64 `json:"price"`
}

// BulkRequest представляет структуру запроса массовой рассылки переговоров.
type BulkRequest struct {
	Proposals     []BulkProposalRef `json:"proposals"`
	ReductionType ReductionType     `json:"reductionType"`
	Value         float64           `json:"value"`
	Message       string            `json:"message,omitempty"`
}

// SkippedProposal описывает отклик, пропущенный при массовой рассылке.
type SkippedProposal struct {
	ProposalID string `json:"proposalId"`
	Reason     string `json:"reason"`
}

// BulkResult - итог массовой рассылки. Операция целиком всегда завершается
// успешно на уровне API; сбои по отдельным откликам перечислены в Skipped.
type BulkResult struct {
	SuccessCount int               `json:"successCount"`
	Skipped      []SkippedProposal `json:"skipped"`
}
