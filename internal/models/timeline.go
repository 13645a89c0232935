package models

import "time"

type StepType string // Тип шага в истории переговоров

const (
	SessionCreatedStep    StepType = "session_created"    // Инициатор открыл сессию
	ResponseSubmittedStep StepType = "response_submitted" // Исполнитель ответил
	ResolvedStep          StepType = "resolved"           // Сессия завершена решением
	CancelledStep         StepType = "cancelled"          // Сессия отменена
	CommentStep           StepType = "comment"            // Комментарий в сессии

	OriginalOfferStep StepType = "original_offer" // Версия 1 в компактной истории
	ChangeRequestStep StepType = "change_request" // Запрос изменений в компактной истории
	UpdatedOfferStep  StepType = "updated_offer"  // Версия >1 в компактной истории
)

// TimelineStep - один шаг хронологической истории отклика.
// Полный список сортируется по OccurredAt по возрастанию.
type TimelineStep struct {
	Type                   StepType       `json:"type"`
	SessionID              string         `json:"sessionId,omitempty"`
	AuthorType             AuthorType     `json:"authorType,omitempty"`
	Message                string         `json:"message,omitempty"`
	TargetTotal            *float64       `json:"targetTotal,omitempty"`
	TargetReductionPercent *float64       `json:"targetReductionPercent,omitempty"`
	Outcome                SessionOutcome `json:"outcome,omitempty"`
	OccurredAt             time.Time      `json:"occurredAt"`
}

// VersionStep - шаг компактной истории "оферта - запрос - новая оферта".
type VersionStep struct {
	Type                   StepType  `json:"type"`
	VersionNumber          int       `json:"versionNumber,omitempty"`
	Price                  float64   `json:"price,omitempty"`
	SessionID              string    `json:"sessionId,omitempty"`
	TargetTotal            *float64  `json:"targetTotal,omitempty"`
	TargetReductionPercent *float64  `json:"targetReductionPercent,omitempty"`
	Message                string    `json:"message,omitempty"`
	OccurredAt             time.Time `json:"occurredAt"`
}
