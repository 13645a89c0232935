package repository

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/senyabanana/negotiation-service/internal/models"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/lib/pq"
)

// ProposalRepository - интерфейс для работы с откликами.
type ProposalRepository interface {
	GetProposals(ctx context.Context, limit, offset int, statuses []string) ([]models.Proposal, error)
	CreateProposal(ctx context.Context, proposalReq models.ProposalRequest) (*models.Proposal, error)
	GetProposalByID(ctx context.Context, proposalId string) (*models.Proposal, error)
	GetProposalStatus(ctx context.Context, proposalId string) (models.ProposalStatus, error)
	UpdateProposalStatus(ctx context.Context, proposalId, status string) (*models.Proposal, error)
	MirrorVersion(ctx context.Context, proposalId string, version *models.ProposalVersion) (*models.Proposal, error)
	GetMilestones(ctx context.Context, proposalId string) ([]models.MilestonePayment, error)
}

// PostgresProposalRepository - реализация ProposalRepository для базы данных.
type PostgresProposalRepository struct {
	DB *pgxpool.Pool
}

// NewPostgresProposalRepository создает новый экземпляр PostgresProposalRepository.
func NewPostgresProposalRepository(db *pgxpool.Pool) *PostgresProposalRepository {
	return &PostgresProposalRepository{DB: db}
}

const proposalColumns = `id, project_id, respondent_id, respondent_name, price, timeline_days, status, scope_text, terms, invite_id, declaration_by, declaration_at, created_at`

func scanProposal(row pgx.Row) (*models.Proposal, error) {
	var p models.Proposal
	err := row.Scan(
		&p.ID,
		&p.ProjectID,
		&p.RespondentID,
		&p.RespondentName,
		&p.Price,
		&p.TimelineDays,
		&p.Status,
		&p.ScopeText,
		&p.Terms,
		&p.InviteID,
		&p.DeclarationBy,
		&p.DeclarationAt,
		&p.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &p, nil
}

// GetProposals возвращает список откликов с фильтром по статусам.
func (r *PostgresProposalRepository) GetProposals(ctx context.Context, limit, offset int, statuses []string) ([]models.Proposal, error) {
	query := `SELECT ` + proposalColumns + ` FROM proposals`
	var filters []string
	var args []interface{}
	argIndex := 1

	if len(statuses) > 0 {
		filters = append(filters, fmt.Sprintf("status = ANY($%d)", argIndex))
		args = append(args, pq.Array(statuses))
		argIndex++
	}

	if len(filters) > 0 {
		query += " WHERE " + strings.Join(filters, " AND ")
	}

	query += fmt.Sprintf(" ORDER BY created_at LIMIT $%d OFFSET $%d", argIndex, argIndex+1)
	args = append(args, limit, offset)

	rows, err := r.DB.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var proposals []models.Proposal
	for rows.Next() {
		proposal, err := scanProposal(rows)
		if err != nil {
			return nil, err
		}
		proposals = append(proposals, *proposal)
	}
	return proposals, nil
}

// CreateProposal создает новый отклик.
func (r *PostgresProposalRepository) CreateProposal(ctx context.Context, proposalReq models.ProposalRequest) (*models.Proposal, error) {
	newProposal := models.Proposal{
		ID:             uuid.New().String(),
		ProjectID:      proposalReq.ProjectID,
		RespondentID:   proposalReq.RespondentID,
		RespondentName: proposalReq.RespondentName,
		Price:          proposalReq.Price,
		TimelineDays:   proposalReq.TimelineDays,
		Status:         models.SubmittedProposal,
		ScopeText:      proposalReq.ScopeText,
		Terms:          proposalReq.Terms,
		InviteID:       proposalReq.InviteID,
		DeclarationBy:  proposalReq.DeclarationBy,
		CreatedAt:      time.Now().UTC(),
	}
	if newProposal.DeclarationBy != "" {
		signedAt := newProposal.CreatedAt
		newProposal.DeclarationAt = &signedAt
	}

	insertQuery := `INSERT INTO proposals (` + proposalColumns + `)
                   VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)`
	_, err := r.DB.Exec(
		ctx,
		insertQuery,
		newProposal.ID,
		newProposal.ProjectID,
		newProposal.RespondentID,
		newProposal.RespondentName,
		newProposal.Price,
		newProposal.TimelineDays,
		newProposal.Status,
		newProposal.ScopeText,
		newProposal.Terms,
		newProposal.InviteID,
		newProposal.DeclarationBy,
		newProposal.DeclarationAt,
		newProposal.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("failed to insert proposal: %w", err)
	}
	return &newProposal, nil
}

// GetProposalByID получает отклик по ID.
func (r *PostgresProposalRepository) GetProposalByID(ctx context.Context, proposalId string) (*models.Proposal, error) {
	query := `SELECT ` + proposalColumns + ` FROM proposals WHERE id = $1`
	proposal, err := scanProposal(r.DB.QueryRow(ctx, query, proposalId))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, models.NewErrorResponse(http.StatusNotFound, "proposal not found")
	}
	return proposal, err
}

// GetProposalStatus возвращает статус отклика.
func (r *PostgresProposalRepository) GetProposalStatus(ctx context.Context, proposalId string) (models.ProposalStatus, error) {
	var status models.ProposalStatus
	query := `SELECT status FROM proposals WHERE id = $1`
	err := r.DB.QueryRow(ctx, query, proposalId).Scan(&status)
	if errors.Is(err, pgx.ErrNoRows) {
		return "", models.NewErrorResponse(http.StatusNotFound, "proposal not found")
	}
	if err != nil {
		return "", err
	}
	return status, nil
}

// UpdateProposalStatus меняет статус отклика.
func (r *PostgresProposalRepository) UpdateProposalStatus(ctx context.Context, proposalId, status string) (*models.Proposal, error) {
	updateQuery := `UPDATE proposals SET status = $1 WHERE id = $2 RETURNING ` + proposalColumns
	return scanProposal(r.DB.QueryRow(ctx, updateQuery, status, proposalId))
}

// MirrorVersion переносит цену, сроки и объём работ принятой версии
// на сам отклик и переводит его в статус Approved.
func (r *PostgresProposalRepository) MirrorVersion(ctx context.Context, proposalId string, version *models.ProposalVersion) (*models.Proposal, error) {
	updateQuery := `UPDATE proposals SET price = $1, timeline_days = $2, scope_text = $3, terms = $4, status = $5
	                WHERE id = $6 RETURNING ` + proposalColumns
	return scanProposal(r.DB.QueryRow(
		ctx,
		updateQuery,
		version.Price,
		version.TimelineDays,
		version.ScopeText,
		version.Terms,
		models.ApprovedProposal,
		proposalId))
}

// GetMilestones возвращает этапы графика платежей отклика.
func (r *PostgresProposalRepository) GetMilestones(ctx context.Context, proposalId string) ([]models.MilestonePayment, error) {
	query := `SELECT id, proposal_id, description, trigger_text, percentage
	          FROM milestone_payments WHERE proposal_id = $1 ORDER BY percentage DESC, id`
	rows, err := r.DB.Query(ctx, query, proposalId)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var milestones []models.MilestonePayment
	for rows.Next() {
		var m models.MilestonePayment
		if err := rows.Scan(&m.ID, &m.ProposalID, &m.Description, &m.Trigger, &m.Percentage); err != nil {
			return nil, err
		}
		milestones = append(milestones, m)
	}
	return milestones, nil
}
