package repository

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/senyabanana/negotiation-service/internal/models"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// InviteRepository - интерфейс для работы с приглашениями.
type InviteRepository interface {
	GetInviteByID(ctx context.Context, inviteId string) (*models.RFPInvite, error)
	UpdateInviteStatus(ctx context.Context, inviteId string, status models.InviteStatus) (*models.RFPInvite, error)
	MarkSubmitted(ctx context.Context, inviteId string) (*models.RFPInvite, error)
}

// PostgresInviteRepository - реализация InviteRepository для базы данных.
type PostgresInviteRepository struct {
	DB *pgxpool.Pool
}

// NewPostgresInviteRepository создает новый экземпляр PostgresInviteRepository.
func NewPostgresInviteRepository(db *pgxpool.Pool) *PostgresInviteRepository {
	return &PostgresInviteRepository{DB: db}
}

const inviteColumns = `id, rfp_id, advisor_id, status, created_at, updated_at`

func scanInvite(row pgx.Row) (*models.RFPInvite, error) {
	var invite models.RFPInvite
	err := row.Scan(
		&invite.ID,
		&invite.RFPID,
		&invite.AdvisorID,
		&invite.Status,
		&invite.CreatedAt,
		&invite.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &invite, nil
}

// GetInviteByID получает приглашение по ID.
func (r *PostgresInviteRepository) GetInviteByID(ctx context.Context, inviteId string) (*models.RFPInvite, error) {
	query := `SELECT ` + inviteColumns + ` FROM rfp_invites WHERE id = $1`
	invite, err := scanInvite(r.DB.QueryRow(ctx, query, inviteId))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, models.NewErrorResponse(http.StatusNotFound, "invite not found")
	}
	return invite, err
}

// UpdateInviteStatus меняет статус приглашения.
func (r *PostgresInviteRepository) UpdateInviteStatus(ctx context.Context, inviteId string, status models.InviteStatus) (*models.RFPInvite, error) {
	updateQuery := `UPDATE rfp_invites SET status = $1, updated_at = $2 WHERE id = $3 RETURNING ` + inviteColumns
	return scanInvite(r.DB.QueryRow(ctx, updateQuery, status, time.Now().UTC(), inviteId))
}

// MarkSubmitted переводит приглашение в submitted ровно один раз.
// Обновление идёт строго по id приглашения, а не по паре (advisor, rfp),
// чтобы не задеть соседние приглашения того же исполнителя. Терминальные
// статусы (submitted, declined, expired) не трогаются.
func (r *PostgresInviteRepository) MarkSubmitted(ctx context.Context, inviteId string) (*models.RFPInvite, error) {
	updateQuery := `UPDATE rfp_invites SET status = $1, updated_at = $2
	                WHERE id = $3 AND status NOT IN ($1, $4, $5)`
	_, err := r.DB.Exec(ctx, updateQuery, models.SubmittedInvite, time.Now().UTC(), inviteId, models.DeclinedInvite, models.ExpiredInvite)
	if err != nil {
		return nil, err
	}
	return r.GetInviteByID(ctx, inviteId)
}
