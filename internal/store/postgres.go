package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/cmorris/wordforge/internal/dedup"
	"github.com/cmorris/wordforge/internal/domain"
)

// PostgresContentStore implements ContentStore over Postgres.
// The unique constraint on (normalized_text, locale) is what makes
// InsertOrGet correct under concurrent commits.
type PostgresContentStore struct {
	db     DBTX
	logger *slog.Logger
}

// Ensure PostgresContentStore implements the ContentStore interface
var _ ContentStore = (*PostgresContentStore)(nil)

// NewPostgresContentStore creates a new PostgresContentStore using the
// provided database connection or transaction.
func NewPostgresContentStore(db DBTX, logger *slog.Logger) *PostgresContentStore {
	return &PostgresContentStore{
		db:     db,
		logger: logger.With("component", "content_store"),
	}
}

// WithTx returns a new store instance that uses the provided transaction.
// The transaction is created and managed by the caller.
func (s *PostgresContentStore) WithTx(tx *sql.Tx) *PostgresContentStore {
	return &PostgresContentStore{
		db:     tx,
		logger: s.logger,
	}
}

// FindByKey retrieves the committed record for a normalized key.
// Returns ErrRecordNotFound if no record exists.
func (s *PostgresContentStore) FindByKey(ctx context.Context, key dedup.Key) (*domain.ContentRecord, error) {
	query := `
		SELECT id, source_text, normalized_text, locale, key_hash,
		       enrichment, asset_url, asset_status, created_at
		FROM content_records
		WHERE key_hash = $1 AND normalized_text = $2 AND locale = $3`

	row := s.db.QueryRowContext(ctx, query, int64(key.Hash()), key.Text, key.Locale)

	rec, err := scanContentRecord(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrRecordNotFound
		}
		return nil, fmt.Errorf("failed to query content record: %w", err)
	}

	return rec, nil
}

// InsertOrGet commits the record unless one already exists for its key.
// On a conflict the existing record is fetched and returned with
// wasExisting=true.
func (s *PostgresContentStore) InsertOrGet(ctx context.Context, rec *domain.ContentRecord) (*domain.ContentRecord, bool, error) {
	if err := rec.Validate(); err != nil {
		return nil, false, fmt.Errorf("%w: %w", ErrInvalidEntity, err)
	}

	query := `
		INSERT INTO content_records
			(id, source_text, normalized_text, locale, key_hash,
			 enrichment, asset_url, asset_status, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		ON CONFLICT (normalized_text, locale) DO NOTHING
		RETURNING id`

	var insertedID uuid.UUID
	err := s.db.QueryRowContext(ctx, query,
		rec.ID,
		rec.SourceText,
		rec.NormalizedText,
		rec.Locale,
		int64(rec.KeyHash),
		[]byte(rec.Enrichment),
		nullableString(rec.AssetURL),
		string(rec.AssetStatus),
		rec.CreatedAt,
	).Scan(&insertedID)

	if err == nil {
		s.logger.DebugContext(ctx, "content record committed",
			"record_id", insertedID,
			"normalized_text", rec.NormalizedText,
			"locale", rec.Locale)
		return rec, false, nil
	}

	if !errors.Is(err, sql.ErrNoRows) {
		return nil, false, fmt.Errorf("failed to insert content record: %w", err)
	}

	// Conflict: another commit won the race. Fetch the winner.
	existing, err := s.FindByKey(ctx, dedup.Key{Text: rec.NormalizedText, Locale: rec.Locale})
	if err != nil {
		return nil, false, fmt.Errorf("conflicting record disappeared: %w", err)
	}

	return existing, true, nil
}

// scanner abstracts *sql.Row and *sql.Rows for record scanning.
type scanner interface {
	Scan(dest ...any) error
}

func scanContentRecord(row scanner) (*domain.ContentRecord, error) {
	var (
		rec       domain.ContentRecord
		keyHash   int64
		assetURL  sql.NullString
		status    string
		createdAt time.Time
	)

	err := row.Scan(
		&rec.ID,
		&rec.SourceText,
		&rec.NormalizedText,
		&rec.Locale,
		&keyHash,
		&rec.Enrichment,
		&assetURL,
		&status,
		&createdAt,
	)
	if err != nil {
		return nil, err
	}

	rec.KeyHash = uint64(keyHash)
	rec.AssetURL = assetURL.String
	rec.AssetStatus = domain.AssetStatus(status)
	rec.CreatedAt = createdAt
	return &rec, nil
}

func nullableString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}
