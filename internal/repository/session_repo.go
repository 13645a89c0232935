package repository

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/senyabanana/negotiation-service/internal/models"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// SessionRepository - интерфейс для работы с сессиями переговоров.
type SessionRepository interface {
	CreateSession(ctx context.Context, session *models.NegotiationSession) (*models.NegotiationSession, error)
	GetSessionByID(ctx context.Context, sessionId string) (*models.NegotiationSession, error)
	GetProposalSessions(ctx context.Context, proposalId string) ([]models.NegotiationSession, error)
	HasActiveSession(ctx context.Context, proposalId string) (bool, error)
	MarkResponded(ctx context.Context, sessionId, versionId string) (*models.NegotiationSession, error)
	MarkResolved(ctx context.Context, sessionId string, outcome models.SessionOutcome) (*models.NegotiationSession, error)
	MarkCancelled(ctx context.Context, sessionId string) (*models.NegotiationSession, error)
	AddComment(ctx context.Context, sessionId string, authorType models.AuthorType, content string) (*models.Comment, error)
	GetComments(ctx context.Context, sessionId string) ([]models.Comment, error)
	GetProposalComments(ctx context.Context, proposalId string) ([]models.Comment, error)
}

// PostgresSessionRepository - реализация SessionRepository для базы данных.
type PostgresSessionRepository struct {
	DB *pgxpool.Pool
}

// NewPostgresSessionRepository создает новый экземпляр PostgresSessionRepository.
func NewPostgresSessionRepository(db *pgxpool.Pool) *PostgresSessionRepository {
	return &PostgresSessionRepository{DB: db}
}

const sessionColumns = `id, proposal_id, project_id, status, target_total, target_reduction_percent, global_comment, baseline_version_id, negotiated_version_id, outcome, created_at, responded_at, resolved_at`

func scanSession(row pgx.Row) (*models.NegotiationSession, error) {
	var s models.NegotiationSession
	err := row.Scan(
		&s.ID,
		&s.ProposalID,
		&s.ProjectID,
		&s.Status,
		&s.TargetTotal,
		&s.TargetReductionPercent,
		&s.GlobalComment,
		&s.BaselineVersionID,
		&s.NegotiatedVersionID,
		&s.Outcome,
		&s.CreatedAt,
		&s.RespondedAt,
		&s.ResolvedAt,
	)
	if err != nil {
		return nil, err
	}
	return &s, nil
}

// CreateSession сохраняет сессию вместе с привязками к позициям и этапам.
// Частичный уникальный индекс по незавершённым сессиям - авторитетная защита
// от двух параллельных сессий по одному отклику; проверка в сервисе лишь
// быстрый путь для понятного ответа пользователю.
func (r *PostgresSessionRepository) CreateSession(ctx context.Context, session *models.NegotiationSession) (*models.NegotiationSession, error) {
	session.ID = uuid.New().String()
	session.Status = models.AwaitingResponseSession
	session.CreatedAt = time.Now().UTC()

	insertQuery := `INSERT INTO negotiation_sessions (` + sessionColumns + `)
                   VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)`
	_, err := r.DB.Exec(
		ctx,
		insertQuery,
		session.ID,
		session.ProposalID,
		session.ProjectID,
		session.Status,
		session.TargetTotal,
		session.TargetReductionPercent,
		session.GlobalComment,
		session.BaselineVersionID,
		session.NegotiatedVersionID,
		session.Outcome,
		session.CreatedAt,
		session.RespondedAt,
		session.ResolvedAt)
	if isUniqueViolation(err) {
		return nil, models.NewConflictError("a negotiation is already in progress")
	}
	if err != nil {
		return nil, err
	}

	for i := range session.LineItemAsks {
		ask := &session.LineItemAsks[i]
		ask.ID = uuid.New().String()
		ask.SessionID = session.ID
		askQuery := `INSERT INTO line_item_negotiations (id, session_id, line_item_id, target_total, initiator_note)
		             VALUES ($1, $2, $3, $4, $5)`
		_, err = r.DB.Exec(ctx, askQuery, ask.ID, ask.SessionID, ask.LineItemID, ask.TargetTotal, ask.InitiatorNote)
		if err != nil {
			return nil, err
		}
	}

	for i := range session.MilestoneAsks {
		adjustment := &session.MilestoneAsks[i]
		adjustment.ID = uuid.New().String()
		adjustment.SessionID = session.ID
		adjustmentQuery := `INSERT INTO milestone_adjustments (id, session_id, milestone_id, original_percentage, target_percentage, initiator_note)
		                    VALUES ($1, $2, $3, $4, $5, $6)`
		_, err = r.DB.Exec(
			ctx,
			adjustmentQuery,
			adjustment.ID,
			adjustment.SessionID,
			adjustment.MilestoneID,
			adjustment.OriginalPercentage,
			adjustment.TargetPercentage,
			adjustment.InitiatorNote)
		if err != nil {
			return nil, err
		}
	}
	return session, nil
}

// GetSessionByID получает сессию по ID вместе с привязками.
func (r *PostgresSessionRepository) GetSessionByID(ctx context.Context, sessionId string) (*models.NegotiationSession, error) {
	query := `SELECT ` + sessionColumns + ` FROM negotiation_sessions WHERE id = $1`
	session, err := scanSession(r.DB.QueryRow(ctx, query, sessionId))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, models.NewErrorResponse(http.StatusNotFound, "negotiation session not found")
	}
	if err != nil {
		return nil, err
	}

	session.LineItemAsks, err = r.getLineItemAsks(ctx, sessionId)
	if err != nil {
		return nil, err
	}
	session.MilestoneAsks, err = r.getMilestoneAsks(ctx, sessionId)
	if err != nil {
		return nil, err
	}
	return session, nil
}

// GetProposalSessions возвращает все сессии отклика в порядке создания.
func (r *PostgresSessionRepository) GetProposalSessions(ctx context.Context, proposalId string) ([]models.NegotiationSession, error) {
	query := `SELECT ` + sessionColumns + ` FROM negotiation_sessions WHERE proposal_id = $1 ORDER BY created_at`
	rows, err := r.DB.Query(ctx, query, proposalId)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var sessions []models.NegotiationSession
	for rows.Next() {
		session, err := scanSession(rows)
		if err != nil {
			return nil, err
		}
		sessions = append(sessions, *session)
	}
	return sessions, nil
}

// HasActiveSession проверяет, есть ли у отклика незавершённая сессия.
func (r *PostgresSessionRepository) HasActiveSession(ctx context.Context, proposalId string) (bool, error) {
	var exists bool
	query := `SELECT EXISTS(
	            SELECT 1 FROM negotiation_sessions
	            WHERE proposal_id = $1 AND status IN ($2, $3)
	          )`
	err := r.DB.QueryRow(ctx, query, proposalId, models.OpenSession, models.AwaitingResponseSession).Scan(&exists)
	if err != nil {
		return false, err
	}
	return exists, nil
}

// MarkResponded переводит сессию в responded, проставляя responded_at
// и id созданной ответной версии. Статус в условии UPDATE защищает переход
// от конкурирующей записи; ноль обновлённых строк означает конфликт.
func (r *PostgresSessionRepository) MarkResponded(ctx context.Context, sessionId, versionId string) (*models.NegotiationSession, error) {
	updateQuery := `UPDATE negotiation_sessions
	                SET status = $1, negotiated_version_id = $2, responded_at = $3
	                WHERE id = $4 AND status = $5 RETURNING ` + sessionColumns
	session, err := scanSession(r.DB.QueryRow(ctx, updateQuery, models.RespondedSession, versionId, time.Now().UTC(), sessionId, models.AwaitingResponseSession))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, models.NewConflictError("session is not awaiting a response")
	}
	return session, err
}

// MarkResolved переводит сессию в resolved, проставляя resolved_at и решение.
func (r *PostgresSessionRepository) MarkResolved(ctx context.Context, sessionId string, outcome models.SessionOutcome) (*models.NegotiationSession, error) {
	updateQuery := `UPDATE negotiation_sessions
	                SET status = $1, outcome = $2, resolved_at = $3
	                WHERE id = $4 AND status = $5 RETURNING ` + sessionColumns
	session, err := scanSession(r.DB.QueryRow(ctx, updateQuery, models.ResolvedSession, outcome, time.Now().UTC(), sessionId, models.RespondedSession))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, models.NewConflictError("session has no response to resolve")
	}
	return session, err
}

// MarkCancelled переводит сессию в cancelled, проставляя resolved_at.
func (r *PostgresSessionRepository) MarkCancelled(ctx context.Context, sessionId string) (*models.NegotiationSession, error) {
	updateQuery := `UPDATE negotiation_sessions
	                SET status = $1, resolved_at = $2
	                WHERE id = $3 AND status IN ($4, $5) RETURNING ` + sessionColumns
	session, err := scanSession(r.DB.QueryRow(ctx, updateQuery, models.CancelledSession, time.Now().UTC(), sessionId, models.OpenSession, models.AwaitingResponseSession))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, models.NewConflictError("session can no longer be cancelled")
	}
	return session, err
}

// AddComment добавляет комментарий в сессию.
func (r *PostgresSessionRepository) AddComment(ctx context.Context, sessionId string, authorType models.AuthorType, content string) (*models.Comment, error) {
	newComment := models.Comment{
		ID:         uuid.New().String(),
		SessionID:  sessionId,
		AuthorType: authorType,
		Content:    content,
		CreatedAt:  time.Now().UTC(),
	}
	insertQuery := `INSERT INTO negotiation_comments (id, session_id, author_type, content, created_at)
                   VALUES ($1, $2, $3, $4, $5)`
	_, err := r.DB.Exec(
		ctx,
		insertQuery,
		newComment.ID,
		newComment.SessionID,
		newComment.AuthorType,
		newComment.Content,
		newComment.CreatedAt)
	if err != nil {
		return nil, err
	}
	return &newComment, nil
}

// GetComments возвращает комментарии сессии в порядке создания.
func (r *PostgresSessionRepository) GetComments(ctx context.Context, sessionId string) ([]models.Comment, error) {
	query := `SELECT id, session_id, author_type, content, created_at
	          FROM negotiation_comments WHERE session_id = $1 ORDER BY created_at`
	return r.queryComments(ctx, query, sessionId)
}

// GetProposalComments возвращает комментарии всех сессий отклика.
func (r *PostgresSessionRepository) GetProposalComments(ctx context.Context, proposalId string) ([]models.Comment, error) {
	query := `SELECT c.id, c.session_id, c.author_type, c.content, c.created_at
	          FROM negotiation_comments c
	          JOIN negotiation_sessions s ON c.session_id = s.id
	          WHERE s.proposal_id = $1
	          ORDER BY c.created_at`
	return r.queryComments(ctx, query, proposalId)
}

func (r *PostgresSessionRepository) queryComments(ctx context.Context, query string, arg interface{}) ([]models.Comment, error) {
	rows, err := r.DB.Query(ctx, query, arg)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var comments []models.Comment
	for rows.Next() {
		var c models.Comment
		if err := rows.Scan(&c.ID, &c.SessionID, &c.AuthorType, &c.Content, &c.CreatedAt); err != nil {
			return nil, err
		}
		comments = append(comments, c)
	}
	return comments, nil
}

// getLineItemAsks возвращает привязки сессии к позициям сметы.
func (r *PostgresSessionRepository) getLineItemAsks(ctx context.Context, sessionId string) ([]models.LineItemNegotiation, error) {
	query := `SELECT id, session_id, line_item_id, target_total, initiator_note
	          FROM line_item_negotiations WHERE session_id = $1 ORDER BY id`
	rows, err := r.DB.Query(ctx, query, sessionId)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var asks []models.LineItemNegotiation
	for rows.Next() {
		var ask models.LineItemNegotiation
		if err := rows.Scan(&ask.ID, &ask.SessionID, &ask.LineItemID, &ask.TargetTotal, &ask.InitiatorNote); err != nil {
			return nil, err
		}
		asks = append(asks, ask)
	}
	return asks, nil
}

// getMilestoneAsks возвращает привязки сессии к этапам платежей.
func (r *PostgresSessionRepository) getMilestoneAsks(ctx context.Context, sessionId string) ([]models.MilestoneAdjustment, error) {
	query := `SELECT id, session_id, milestone_id, original_percentage, target_percentage, initiator_note
	          FROM milestone_adjustments WHERE session_id = $1 ORDER BY id`
	rows, err := r.DB.Query(ctx, query, sessionId)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var adjustments []models.MilestoneAdjustment
	for rows.Next() {
		var a models.MilestoneAdjustment
		if err := rows.Scan(&a.ID, &a.SessionID, &a.MilestoneID, &a.OriginalPercentage, &a.TargetPercentage, &a.InitiatorNote); err != nil {
			return nil, err
		}
		adjustments = append(adjustments, a)
	}
	return adjustments, nil
}
