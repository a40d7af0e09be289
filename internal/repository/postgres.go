package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
	"github.com/pgvector/pgvector-go"

	"rentalsearch/internal/model"
)

const listingColumns = `
	listing_id, title, price,
	COALESCE(bedrooms, 0) AS bedrooms,
	COALESCE(bathrooms, 0) AS bathrooms,
	COALESCE(NULLIF(housing_type, ''), 'unknown') AS housing_type,
	COALESCE(private_room, false) AS private_room,
	COALESCE(private_bath, false) AS private_bath,
	COALESCE(smoking, false) AS smoking,
	COALESCE(description, '') AS description,
	COALESCE(location, '') AS location,
	latitude, longitude, walk_score,
	COALESCE(source, '') AS source,
	COALESCE(url, '') AS url,
	updated_at`

// PostgresRepository handles database operations
type PostgresRepository struct {
	db *sqlx.DB
}

// NewPostgresRepository creates a new PostgreSQL repository
func NewPostgresRepository(dsn string, maxConn, maxIdleConn int) (*PostgresRepository, error) {
	db, err := sqlx.Connect("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	db.SetMaxOpenConns(maxConn)
	db.SetMaxIdleConns(maxIdleConn)
	db.SetConnMaxLifetime(5 * time.Minute)
	db.SetConnMaxIdleTime(2 * time.Minute)

	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return &PostgresRepository{db: db}, nil
}

// Close closes the database connection
func (r *PostgresRepository) Close() error {
	return r.db.Close()
}

// LoadListings reads the full normalized listing pool in a stable order
func (r *PostgresRepository) LoadListings(ctx context.Context) ([]model.Listing, error) {
	query := fmt.Sprintf(`SELECT %s FROM listing_info ORDER BY updated_at DESC, listing_id`, listingColumns)

	var listings []model.Listing
	if err := r.db.SelectContext(ctx, &listings, query); err != nil {
		return nil, fmt.Errorf("failed to load listings: %w", err)
	}
	return listings, nil
}

// BatchUpdateEmbeddings updates embeddings for multiple listings in one transaction
func (r *PostgresRepository) BatchUpdateEmbeddings(ctx context.Context, items []model.EmbeddingItem) (int, []string) {
	success := 0
	var errs []string

	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return 0, append(errs, fmt.Sprintf("failed to start transaction: %v", err))
	}
	defer tx.Rollback()

	stmt, err := tx.PreparexContext(ctx, `UPDATE listing_info SET embedding = $1, updated_at = NOW() WHERE listing_id = $2`)
	if err != nil {
		return 0, append(errs, fmt.Sprintf("failed to prepare statement: %v", err))
	}
	defer stmt.Close()

	for _, item := range items {
		if len(item.Embedding) == 0 {
			errs = append(errs, fmt.Sprintf("listing_id %s: empty embedding", item.ListingID))
			continue
		}
		res, err := stmt.ExecContext(ctx, pgvector.NewVector(item.Embedding), item.ListingID)
		if err != nil {
			errs = append(errs, fmt.Sprintf("listing_id %s: %v", item.ListingID, err))
			continue
		}
		if n, _ := res.RowsAffected(); n == 0 {
			errs = append(errs, fmt.Sprintf("listing_id %s: not found", item.ListingID))
			continue
		}
		success++
	}

	if err := tx.Commit(); err != nil {
		return 0, append(errs, fmt.Sprintf("failed to commit transaction: %v", err))
	}

	return success, errs
}

// SimilarListings returns the nearest listings to listingID by embedding cosine distance
func (r *PostgresRepository) SimilarListings(ctx context.Context, listingID string, limit int) ([]model.Listing, error) {
	var target pgvector.Vector
	err := r.db.GetContext(ctx, &target, `SELECT embedding FROM listing_info WHERE listing_id = $1 AND embedding IS NOT NULL`, listingID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to load embedding: %w", err)
	}

	query := fmt.Sprintf(`
		SELECT %s FROM listing_info
		WHERE listing_id <> $1 AND embedding IS NOT NULL
		ORDER BY embedding <=> $2
		LIMIT $3`, listingColumns)

	var listings []model.Listing
	if err := r.db.SelectContext(ctx, &listings, query, listingID, target, limit); err != nil {
		return nil, fmt.Errorf("failed to find similar listings: %w", err)
	}
	return listings, nil
}

// LogSearch records a completed search
func (r *PostgresRepository) LogSearch(ctx context.Context, entry model.SearchLog) error {
	filters, err := json.Marshal(entry.Filters)
	if err != nil {
		return fmt.Errorf("failed to encode filters: %w", err)
	}

	query := `
		INSERT INTO search_logs (search_id, query, applied_filters, path, result_count, returned_listing_ids, response_time_ms)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`
	_, err = r.db.ExecContext(ctx, query,
		entry.SearchID,
		entry.Query,
		filters,
		entry.Path,
		entry.ResultCount,
		pq.Array(entry.ListingIDs),
		entry.ResponseTimeMs,
	)
	if err != nil {
		return fmt.Errorf("failed to log search: %w", err)
	}
	return nil
}

// LogFeedback records a user action against a previous search
func (r *PostgresRepository) LogFeedback(ctx context.Context, searchID, listingID, action string) error {
	query := `
		UPDATE search_logs
		SET clicked_listing_id = $2, action = $3
		WHERE search_id = $1
	`
	res, err := r.db.ExecContext(ctx, query, searchID, listingID, strings.ToLower(action))
	if err != nil {
		return fmt.Errorf("failed to log feedback: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("search %s: %w", searchID, ErrSearchNotFound)
	}
	return nil
}

// ErrSearchNotFound is returned when feedback references an unknown search
var ErrSearchNotFound = errors.New("search not found")
