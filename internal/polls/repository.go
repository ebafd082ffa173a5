package polls

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/livepoll/backend/internal/models"
)

// ErrNotFound is returned when no poll matches the id, or when a vote's option
// index fails the bound check inside the update.
var ErrNotFound = errors.New("poll not found")

const pollColumns = `id, question, options, counts, total_votes, created_at`

// Repository handles poll persistence.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository creates a polls repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// Create inserts a new poll with a zero tally per option and fills in ID, Counts and CreatedAt.
func (r *Repository) Create(ctx context.Context, p *models.Poll) error {
	const query = `INSERT INTO polls (question, options, counts, total_votes)
		VALUES ($1, $2::text[], array_fill(0, ARRAY[cardinality($2::text[])]), 0)
		RETURNING id, counts, total_votes, created_at`
	err := r.pool.QueryRow(ctx, query, p.Question, p.Options).
		Scan(&p.ID, &p.Counts, &p.TotalVotes, &p.CreatedAt)
	if err != nil {
		return fmt.Errorf("insert poll: %w", err)
	}
	return nil
}

// GetByID returns a poll by ID.
func (r *Repository) GetByID(ctx context.Context, id uuid.UUID) (*models.Poll, error) {
	query := `SELECT ` + pollColumns + ` FROM polls WHERE id = $1`
	p, err := scanPoll(r.pool.QueryRow(ctx, query, id))
	if err != nil {
		return nil, err
	}
	return p, nil
}

// List returns every poll, newest first.
func (r *Repository) List(ctx context.Context) ([]models.Poll, error) {
	query := `SELECT ` + pollColumns + ` FROM polls ORDER BY created_at DESC, id`
	rows, err := r.pool.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("list polls: %w", err)
	}
	defer rows.Close()

	list := make([]models.Poll, 0)
	for rows.Next() {
		p, err := scanPoll(rows)
		if err != nil {
			return nil, err
		}
		list = append(list, *p)
	}
	return list, rows.Err()
}

// IncrementVote adds one vote to counts[optionIndex] and total_votes in a single
// statement, so concurrent votes on the same poll never lose an increment and a
// failed write leaves both fields untouched. Postgres arrays are 1-based.
func (r *Repository) IncrementVote(ctx context.Context, id uuid.UUID, optionIndex int) (*models.Poll, error) {
	query := `UPDATE polls
		SET counts[$2::int + 1] = counts[$2::int + 1] + 1,
			total_votes = total_votes + 1
		WHERE id = $1 AND $2::int >= 0 AND $2::int < cardinality(options)
		RETURNING ` + pollColumns
	p, err := scanPoll(r.pool.QueryRow(ctx, query, id, optionIndex))
	if err != nil {
		return nil, err
	}
	return p, nil
}

func scanPoll(row pgx.Row) (*models.Poll, error) {
	var p models.Poll
	err := row.Scan(&p.ID, &p.Question, &p.Options, &p.Counts, &p.TotalVotes, &p.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("scan poll: %w", err)
	}
	return &p, nil
}
