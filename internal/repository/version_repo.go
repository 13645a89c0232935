package repository

import (
	"context"
	"errors"
	"time"

	"github.com/senyabanana/negotiation-service/internal/models"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

// uniqueViolation - код ошибки Postgres для нарушения уникального ограничения.
const uniqueViolation = "23505"

// VersionRepository - интерфейс для работы с версиями откликов.
type VersionRepository interface {
	GetVersions(ctx context.Context, proposalId string) ([]models.ProposalVersion, error)
	GetVersionByNumber(ctx context.Context, proposalId string, versionNumber int) (*models.ProposalVersion, error)
	GetVersionByID(ctx context.Context, versionId string) (*models.ProposalVersion, error)
	GetLatestVersion(ctx context.Context, proposalId string) (*models.ProposalVersion, error)
	CreateVersion(ctx context.Context, proposalId string, snapshot models.VersionSnapshot) (*models.ProposalVersion, error)
	EnsureBaselineVersion(ctx context.Context, proposalId string) (*models.ProposalVersion, error)
}

// PostgresVersionRepository - реализация VersionRepository для базы данных.
type PostgresVersionRepository struct {
	DB *pgxpool.Pool
}

// NewPostgresVersionRepository создает новый экземпляр PostgresVersionRepository.
func NewPostgresVersionRepository(db *pgxpool.Pool) *PostgresVersionRepository {
	return &PostgresVersionRepository{DB: db}
}

const versionColumns = `id, proposal_id, version_number, price, timeline_days, scope_text, terms, change_reason, created_at`

func scanVersion(row pgx.Row) (*models.ProposalVersion, error) {
	var v models.ProposalVersion
	err := row.Scan(
		&v.ID,
		&v.ProposalID,
		&v.VersionNumber,
		&v.Price,
		&v.TimelineDays,
		&v.ScopeText,
		&v.Terms,
		&v.ChangeReason,
		&v.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &v, nil
}

// GetVersions возвращает все версии отклика в порядке создания.
func (r *PostgresVersionRepository) GetVersions(ctx context.Context, proposalId string) ([]models.ProposalVersion, error) {
	query := `SELECT ` + versionColumns + ` FROM proposal_versions WHERE proposal_id = $1 ORDER BY version_number`
	rows, err := r.DB.Query(ctx, query, proposalId)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var versions []models.ProposalVersion
	for rows.Next() {
		version, err := scanVersion(rows)
		if err != nil {
			return nil, err
		}
		versions = append(versions, *version)
	}
	rows.Close()

	for i := range versions {
		lineItems, err := r.getLineItems(ctx, proposalId, versions[i].VersionNumber)
		if err != nil {
			return nil, err
		}
		versions[i].LineItems = lineItems
	}
	return versions, nil
}

// GetVersionByNumber возвращает конкретную версию отклика.
func (r *PostgresVersionRepository) GetVersionByNumber(ctx context.Context, proposalId string, versionNumber int) (*models.ProposalVersion, error) {
	query := `SELECT ` + versionColumns + ` FROM proposal_versions WHERE proposal_id = $1 AND version_number = $2`
	version, err := scanVersion(r.DB.QueryRow(ctx, query, proposalId, versionNumber))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	version.LineItems, err = r.getLineItems(ctx, proposalId, version.VersionNumber)
	if err != nil {
		return nil, err
	}
	return version, nil
}

// GetVersionByID возвращает версию по её собственному id.
func (r *PostgresVersionRepository) GetVersionByID(ctx context.Context, versionId string) (*models.ProposalVersion, error) {
	query := `SELECT ` + versionColumns + ` FROM proposal_versions WHERE id = $1`
	version, err := scanVersion(r.DB.QueryRow(ctx, query, versionId))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	version.LineItems, err = r.getLineItems(ctx, version.ProposalID, version.VersionNumber)
	if err != nil {
		return nil, err
	}
	return version, nil
}

// GetLatestVersion возвращает последнюю версию отклика. Отсутствие версии -
// допустимое состояние (отклик без истории), возвращается nil без ошибки.
func (r *PostgresVersionRepository) GetLatestVersion(ctx context.Context, proposalId string) (*models.ProposalVersion, error) {
	query := `SELECT ` + versionColumns + ` FROM proposal_versions
	          WHERE proposal_id = $1 ORDER BY version_number DESC LIMIT 1`
	version, err := scanVersion(r.DB.QueryRow(ctx, query, proposalId))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	version.LineItems, err = r.getLineItems(ctx, proposalId, version.VersionNumber)
	if err != nil {
		return nil, err
	}
	return version, nil
}

// CreateVersion создает новую версию отклика с номером max(existing)+1.
// Нарушение уникальности (proposal_id, version_number) при конкурентной записи
// возвращается как конфликт; вызывающая сторона повторяет со свежим max.
func (r *PostgresVersionRepository) CreateVersion(ctx context.Context, proposalId string, snapshot models.VersionSnapshot) (*models.ProposalVersion, error) {
	var maxVersion int
	versionQuery := `SELECT COALESCE(MAX(version_number), 0) FROM proposal_versions WHERE proposal_id = $1`
	err := r.DB.QueryRow(ctx, versionQuery, proposalId).Scan(&maxVersion)
	if err != nil {
		return nil, err
	}

	newVersion := models.ProposalVersion{
		ID:            uuid.New().String(),
		ProposalID:    proposalId,
		VersionNumber: maxVersion + 1,
		Price:         snapshot.Price,
		TimelineDays:  snapshot.TimelineDays,
		ScopeText:     snapshot.ScopeText,
		Terms:         snapshot.Terms,
		ChangeReason:  snapshot.ChangeReason,
		CreatedAt:     time.Now().UTC(),
	}

	insertQuery := `INSERT INTO proposal_versions (` + versionColumns + `)
                   VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`
	_, err = r.DB.Exec(
		ctx,
		insertQuery,
		newVersion.ID,
		newVersion.ProposalID,
		newVersion.VersionNumber,
		newVersion.Price,
		newVersion.TimelineDays,
		newVersion.ScopeText,
		newVersion.Terms,
		newVersion.ChangeReason,
		newVersion.CreatedAt)
	if isUniqueViolation(err) {
		return nil, models.NewConflictError("version number already taken, retry with a fresh max")
	}
	if err != nil {
		return nil, err
	}

	for _, item := range snapshot.LineItems {
		if item.ID == "" {
			item.ID = uuid.New().String()
		}
		itemQuery := `INSERT INTO proposal_line_items (id, proposal_id, version_number, description, quantity, unit, unit_price, total, is_optional, charge_type, duration_months)
		              VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)`
		_, err = r.DB.Exec(
			ctx,
			itemQuery,
			item.ID,
			proposalId,
			newVersion.VersionNumber,
			item.Description,
			item.Quantity,
			item.Unit,
			item.UnitPrice,
			item.Total,
			item.IsOptional,
			item.ChargeType,
			item.DurationMonths)
		if err != nil {
			return nil, err
		}
		newVersion.LineItems = append(newVersion.LineItems, item)
	}
	return &newVersion, nil
}

// EnsureBaselineVersion гарантирует наличие версии 1. Унаследованные отклики
// могут предшествовать учёту версий, поэтому при отсутствии истории версия 1
// синтезируется из текущих полей отклика. Повторный вызов возвращает
// существующую версию 1, а не дубликат.
func (r *PostgresVersionRepository) EnsureBaselineVersion(ctx context.Context, proposalId string) (*models.ProposalVersion, error) {
	existing, err := r.GetVersionByNumber(ctx, proposalId, 1)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return existing, nil
	}

	var snapshot models.VersionSnapshot
	proposalQuery := `SELECT price, timeline_days, scope_text, terms FROM proposals WHERE id = $1`
	err = r.DB.QueryRow(ctx, proposalQuery, proposalId).Scan(
		&snapshot.Price,
		&snapshot.TimelineDays,
		&snapshot.ScopeText,
		&snapshot.Terms,
	)
	if err != nil {
		return nil, err
	}
	snapshot.ChangeReason = models.BaselineChangeReason

	created, err := r.CreateVersion(ctx, proposalId, snapshot)
	if models.IsConflict(err) {
		// Параллельный вызов успел первым - возвращаем его результат.
		return r.GetVersionByNumber(ctx, proposalId, 1)
	}
	return created, err
}

// getLineItems возвращает позиции сметы для конкретной версии.
func (r *PostgresVersionRepository) getLineItems(ctx context.Context, proposalId string, versionNumber int) ([]models.FeeLineItem, error) {
	query := `SELECT id, description, quantity, unit, unit_price, total, is_optional, charge_type, duration_months
	          FROM proposal_line_items WHERE proposal_id = $1 AND version_number = $2 ORDER BY id`
	rows, err := r.DB.Query(ctx, query, proposalId, versionNumber)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var items []models.FeeLineItem
	for rows.Next() {
		var item models.FeeLineItem
		if err := rows.Scan(
			&item.ID,
			&item.Description,
			&item.Quantity,
			&item.Unit,
			&item.UnitPrice,
			&item.Total,
			&item.IsOptional,
			&item.ChargeType,
			&item.DurationMonths); err != nil {
			return nil, err
		}
		items = append(items, item)
	}
	return items, nil
}

// isUniqueViolation проверяет, является ли ошибка нарушением уникального ограничения.
func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == uniqueViolation
}
