/**
 * @description
 * This file provides the PostgreSQL implementation of the store contracts. Table names come
 * from the injected Collections and are quoted once at construction time. Amounts travel as
 * numeric text so no precision is lost between decimal.Decimal and numeric(14,2).
 *
 * @dependencies
 * - github.com/jackc/pgx/v5: The PostgreSQL driver for database operations.
 * - github.com/lib/pq: Identifier quoting for the configurable table names.
 * - github.com/google/uuid: Record identifiers.
 * - github.com/shopspring/decimal: Exact amounts.
 */

package store

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/lib/pq"
	"github.com/shopspring/decimal"

	"github.com/LuisRivera1699/wedding-presents/internal/domain"
)

var (
	ErrGiftNotFound         = errors.New("gift not found")
	ErrContributionNotFound = errors.New("contribution not found")
)

// DBTX is the subset of pgxpool.Pool the repository needs.
type DBTX interface {
	Exec(ctx context.Context, sql string, arguments ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// PostgresRepository is a concrete implementation of Repository for PostgreSQL.
type PostgresRepository struct {
	db                 DBTX
	collections        Collections
	giftsTable         string
	contributionsTable string
}

// NewPostgresRepository creates a repository over db using the given collection names.
func NewPostgresRepository(db DBTX, collections Collections) *PostgresRepository {
	collections = collections.withDefaults()
	return &PostgresRepository{
		db:                 db,
		collections:        collections,
		giftsTable:         pq.QuoteIdentifier(collections.Gifts),
		contributionsTable: pq.QuoteIdentifier(collections.Contributions),
	}
}

const giftColumns = `id, name, description, image_url, total_cost::text, created_at, updated_at`

const contributionColumns = `id, gift_id, name, amount::text, payment_method, proof_image_url, status, created_at, updated_at`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanGift(row rowScanner) (*domain.Gift, error) {
	var (
		gift domain.Gift
		cost string
	)
	if err := row.Scan(&gift.ID, &gift.Name, &gift.Description, &gift.ImageURL, &cost, &gift.CreatedAt, &gift.UpdatedAt); err != nil {
		return nil, err
	}
	parsed, err := decimal.NewFromString(cost)
	if err != nil {
		return nil, fmt.Errorf("parse total_cost of gift %s: %w", gift.ID, err)
	}
	gift.TotalCost = parsed
	return &gift, nil
}

func scanContribution(row rowScanner) (*domain.Contribution, error) {
	var (
		c      domain.Contribution
		amount string
		status string
	)
	if err := row.Scan(&c.ID, &c.GiftID, &c.Name, &amount, &c.PaymentMethod, &c.ProofImageURL, &status, &c.CreatedAt, &c.UpdatedAt); err != nil {
		return nil, err
	}
	parsed, err := decimal.NewFromString(amount)
	if err != nil {
		return nil, fmt.Errorf("parse amount of contribution %s: %w", c.ID, err)
	}
	c.Amount = parsed
	c.Status = domain.ContributionStatus(status)
	return &c, nil
}

// ListGifts retrieves every gift ordered by creation time, newest first.
func (r *PostgresRepository) ListGifts(ctx context.Context) ([]domain.Gift, error) {
	rows, err := r.db.Query(ctx, r.giftListQuery())
	if err != nil {
		return nil, fmt.Errorf("list gifts: %w", err)
	}
	defer rows.Close()

	gifts := []domain.Gift{}
	for rows.Next() {
		gift, err := scanGift(rows)
		if err != nil {
			return nil, err
		}
		gifts = append(gifts, *gift)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list gifts: %w", err)
	}
	return gifts, nil
}

// GetGift retrieves a gift by its ID.
func (r *PostgresRepository) GetGift(ctx context.Context, id string) (*domain.Gift, error) {
	query := fmt.Sprintf(`SELECT %s FROM %s WHERE id = $1`, giftColumns, r.giftsTable)
	gift, err := scanGift(r.db.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrGiftNotFound
		}
		return nil, err
	}
	return gift, nil
}

// CreateGift inserts a new gift and fills in its ID and timestamps.
func (r *PostgresRepository) CreateGift(ctx context.Context, gift *domain.Gift) error {
	if gift.ID == "" {
		gift.ID = uuid.NewString()
	}
	query := fmt.Sprintf(`
		INSERT INTO %s (id, name, description, image_url, total_cost)
		VALUES ($1, $2, $3, $4, $5::numeric)
		RETURNING created_at, updated_at
	`, r.giftsTable)
	err := r.db.QueryRow(ctx, query, gift.ID, gift.Name, gift.Description, gift.ImageURL, gift.TotalCost.String()).
		Scan(&gift.CreatedAt, &gift.UpdatedAt)
	if err != nil {
		return fmt.Errorf("insert gift: %w", err)
	}
	return nil
}

// UpdateGift applies the non-nil fields of patch to a gift.
func (r *PostgresRepository) UpdateGift(ctx context.Context, id string, patch domain.GiftPatch) (*domain.Gift, error) {
	if patch.IsEmpty() {
		return r.GetGift(ctx, id)
	}
	var cost *string
	if patch.TotalCost != nil {
		s := patch.TotalCost.String()
		cost = &s
	}
	query := fmt.Sprintf(`
		UPDATE %s
		SET name = COALESCE($2, name),
			description = COALESCE($3, description),
			image_url = COALESCE($4, image_url),
			total_cost = COALESCE($5::numeric, total_cost),
			updated_at = NOW()
		WHERE id = $1
		RETURNING %s
	`, r.giftsTable, giftColumns)
	gift, err := scanGift(r.db.QueryRow(ctx, query, id, patch.Name, patch.Description, patch.ImageURL, cost))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrGiftNotFound
		}
		return nil, fmt.Errorf("update gift: %w", err)
	}
	return gift, nil
}

// DeleteGift removes a gift. Contributions pointing at it are left in place.
func (r *PostgresRepository) DeleteGift(ctx context.Context, id string) error {
	result, err := r.db.Exec(ctx, fmt.Sprintf(`DELETE FROM %s WHERE id = $1`, r.giftsTable), id)
	if err != nil {
		return fmt.Errorf("delete gift: %w", err)
	}
	if result.RowsAffected() == 0 {
		return ErrGiftNotFound
	}
	return nil
}

// ListContributions retrieves contributions ordered by creation time, newest first.
func (r *PostgresRepository) ListContributions(ctx context.Context, q domain.ContributionQuery) ([]domain.Contribution, error) {
	query, args := r.contributionListQuery(q)
	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list contributions: %w", err)
	}
	defer rows.Close()

	contributions := []domain.Contribution{}
	for rows.Next() {
		c, err := scanContribution(rows)
		if err != nil {
			return nil, err
		}
		contributions = append(contributions, *c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list contributions: %w", err)
	}
	return contributions, nil
}

func (r *PostgresRepository) giftListQuery() string {
	return fmt.Sprintf(`SELECT %s FROM %s ORDER BY created_at DESC, id DESC`, giftColumns, r.giftsTable)
}

func (r *PostgresRepository) contributionListQuery(q domain.ContributionQuery) (string, []any) {
	var (
		conditions []string
		args       []any
	)
	if q.Status != "" {
		args = append(args, string(q.Status))
		conditions = append(conditions, fmt.Sprintf("status = $%d", len(args)))
	}
	if q.GiftID != "" {
		args = append(args, q.GiftID)
		conditions = append(conditions, fmt.Sprintf("gift_id = $%d", len(args)))
	}

	var b strings.Builder
	fmt.Fprintf(&b, "SELECT %s FROM %s", contributionColumns, r.contributionsTable)
	if len(conditions) > 0 {
		b.WriteString(" WHERE ")
		b.WriteString(strings.Join(conditions, " AND "))
	}
	b.WriteString(" ORDER BY created_at DESC, id DESC")
	return b.String(), args
}

// GetContribution retrieves a contribution by its ID.
func (r *PostgresRepository) GetContribution(ctx context.Context, id string) (*domain.Contribution, error) {
	query := fmt.Sprintf(`SELECT %s FROM %s WHERE id = $1`, contributionColumns, r.contributionsTable)
	c, err := scanContribution(r.db.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrContributionNotFound
		}
		return nil, err
	}
	return c, nil
}

// CreateContribution inserts a new contribution and fills in its ID and timestamps.
func (r *PostgresRepository) CreateContribution(ctx context.Context, c *domain.Contribution) error {
	if c.ID == "" {
		c.ID = uuid.NewString()
	}
	if c.Status == "" {
		c.Status = domain.StatusPending
	}
	query := fmt.Sprintf(`
		INSERT INTO %s (id, gift_id, name, amount, payment_method, proof_image_url, status)
		VALUES ($1, $2, $3, $4::numeric, $5, $6, $7)
		RETURNING created_at, updated_at
	`, r.contributionsTable)
	err := r.db.QueryRow(ctx, query, c.ID, c.GiftID, c.Name, c.Amount.String(), c.PaymentMethod, c.ProofImageURL, string(c.Status)).
		Scan(&c.CreatedAt, &c.UpdatedAt)
	if err != nil {
		return fmt.Errorf("insert contribution: %w", err)
	}
	return nil
}

// UpdateContributionStatus moves a contribution to status with a single conditional update.
// When the stored status already matches, the current record is returned unchanged.
func (r *PostgresRepository) UpdateContributionStatus(ctx context.Context, id string, status domain.ContributionStatus) (*domain.Contribution, bool, error) {
	query := fmt.Sprintf(`
		UPDATE %s
		SET status = $2, updated_at = NOW()
		WHERE id = $1 AND status <> $2
		RETURNING %s
	`, r.contributionsTable, contributionColumns)
	c, err := scanContribution(r.db.QueryRow(ctx, query, id, string(status)))
	if err == nil {
		return c, true, nil
	}
	if !errors.Is(err, pgx.ErrNoRows) {
		return nil, false, fmt.Errorf("update contribution status: %w", err)
	}

	// No row updated: either the id is unknown or the status already matches.
	current, err := r.GetContribution(ctx, id)
	if err != nil {
		return nil, false, err
	}
	return current, false, nil
}

// DeleteContribution permanently removes a contribution.
func (r *PostgresRepository) DeleteContribution(ctx context.Context, id string) error {
	result, err := r.db.Exec(ctx, fmt.Sprintf(`DELETE FROM %s WHERE id = $1`, r.contributionsTable), id)
	if err != nil {
		return fmt.Errorf("delete contribution: %w", err)
	}
	if result.RowsAffected() == 0 {
		return ErrContributionNotFound
	}
	return nil
}

// ListReferencedURLs collects every proof and gift image URL stored in either collection.
func (r *PostgresRepository) ListReferencedURLs(ctx context.Context) (map[string]struct{}, error) {
	query := fmt.Sprintf(`
		SELECT proof_image_url FROM %s WHERE proof_image_url <> ''
		UNION
		SELECT image_url FROM %s WHERE image_url <> ''
	`, r.contributionsTable, r.giftsTable)
	rows, err := r.db.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("list referenced urls: %w", err)
	}
	defer rows.Close()

	refs := map[string]struct{}{}
	for rows.Next() {
		var url string
		if err := rows.Scan(&url); err != nil {
			return nil, err
		}
		refs[url] = struct{}{}
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list referenced urls: %w", err)
	}
	return refs, nil
}
