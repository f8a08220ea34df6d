package repository

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"marquee/internal/models"
)

const catalogColumns = `id, media_type, title, overview, poster_path, backdrop_path, release_date,
	vote_average, popularity, genre_ids, visible, updated_at`

type PostgresCatalogStore struct {
	db  *pgxpool.Pool
	now func() time.Time
}

func NewPostgresCatalogStore(db *pgxpool.Pool) *PostgresCatalogStore {
	return &PostgresCatalogStore{db: db, now: time.Now}
}

func (s *PostgresCatalogStore) Upsert(ctx context.Context, item *models.CatalogItem) (UpsertResult, error) {
	query := `
	INSERT INTO catalog_items (id, media_type, title, overview, poster_path, backdrop_path, release_date,
		vote_average, popularity, genre_ids, visible, created_at, updated_at)
	VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, TRUE, $11, $11)
	ON CONFLICT (id, media_type) DO UPDATE SET
		popularity = EXCLUDED.popularity,
		vote_average = EXCLUDED.vote_average,
		poster_path = EXCLUDED.poster_path,
		backdrop_path = EXCLUDED.backdrop_path,
		genre_ids = EXCLUDED.genre_ids,
		updated_at = EXCLUDED.updated_at
	RETURNING (xmax = 0) AS inserted
	`

	now := s.now()
	var inserted bool
	err := s.db.QueryRow(ctx, query,
		item.ID, string(item.MediaType), item.Title, item.Overview, item.PosterPath, item.BackdropPath,
		item.ReleaseDate, item.VoteAverage, item.Popularity, EncodeGenres(item.GenreIDs), now,
	).Scan(&inserted)
	if err != nil {
		return 0, fmt.Errorf("failed to upsert catalog item %s/%d: %w", item.MediaType, item.ID, err)
	}

	item.UpdatedAt = now
	if inserted {
		return Created, nil
	}
	return Updated, nil
}

func (s *PostgresCatalogStore) FindMany(ctx context.Context, filter Filter, order OrderBy, limit int) ([]CatalogRow, error) {
	where, args := buildWhere(filter)

	query := "SELECT " + catalogColumns + " FROM catalog_items" + where + orderClause(order)
	if limit > 0 {
		args = append(args, limit)
		query += fmt.Sprintf(" LIMIT $%d", len(args))
	}

	rows, err := s.db.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query catalog items: %w", err)
	}
	defer rows.Close()

	var out []CatalogRow
	for rows.Next() {
		var row CatalogRow
		var mediaType string
		err := rows.Scan(
			&row.ID, &mediaType, &row.Title, &row.Overview, &row.PosterPath, &row.BackdropPath,
			&row.ReleaseDate, &row.VoteAverage, &row.Popularity, &row.GenreBlob, &row.Visible, &row.UpdatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan catalog row: %w", err)
		}
		row.MediaType = models.MediaType(mediaType)
		out = append(out, row)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating catalog rows: %w", err)
	}

	return out, nil
}

func (s *PostgresCatalogStore) Count(ctx context.Context, filter Filter) (int, error) {
	where, args := buildWhere(filter)

	var n int
	if err := s.db.QueryRow(ctx, "SELECT COUNT(*) FROM catalog_items"+where, args...).Scan(&n); err != nil {
		return 0, fmt.Errorf("failed to count catalog items: %w", err)
	}
	return n, nil
}

func (s *PostgresCatalogStore) SetVisible(ctx context.Context, m models.MediaType, id int64, visible bool) error {
	updateQuery := `
	UPDATE catalog_items
	SET visible = $3
	WHERE id = $1 AND media_type = $2
	`

	tag, err := s.db.Exec(ctx, updateQuery, id, string(m), visible)
	if err != nil {
		return fmt.Errorf("failed to set visibility: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func buildWhere(filter Filter) (string, []any) {
	var conds []string
	var args []any

	if filter.MediaType != nil {
		args = append(args, string(*filter.MediaType))
		conds = append(conds, fmt.Sprintf("media_type = $%d", len(args)))
	}
	if filter.Visible != nil {
		args = append(args, *filter.Visible)
		conds = append(conds, fmt.Sprintf("visible = $%d", len(args)))
	}
	if filter.Year != nil {
		args = append(args, strconv.Itoa(*filter.Year))
		conds = append(conds, fmt.Sprintf("LEFT(release_date, 4) = $%d", len(args)))
	}

	if len(conds) == 0 {
		return "", args
	}
	return " WHERE " + strings.Join(conds, " AND "), args
}

func orderClause(order OrderBy) string {
	switch order {
	case OrderVoteAverage:
		return " ORDER BY vote_average DESC, id ASC"
	case OrderReleaseDate:
		return " ORDER BY release_date DESC NULLS LAST, id ASC"
	default:
		return " ORDER BY popularity DESC, id ASC"
	}
}
