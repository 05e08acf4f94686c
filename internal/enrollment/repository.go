package enrollment

import (
	"context"
	"errors"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// ErrNotFound is returned when no enrollment matches.
var ErrNotFound = errors.New("enrollment not found")

// ErrAlreadyEnrolled is returned when the email already holds a card.
var ErrAlreadyEnrolled = errors.New("email already enrolled")

// Record is a completed enrollment. The SSN digits are kept only as a
// bcrypt hash.
type Record struct {
	ID           string
	FirstName    string
	LastName     string
	Email        string
	SSNHash      []byte
	AccountToken string
	CardToken    string
	Simulated    bool
	CreatedAt    time.Time
}

// Repository persists completed enrollments.
type Repository interface {
	Create(ctx context.Context, rec Record) error
	FindByEmail(ctx context.Context, email string) (Record, error)
}

// PostgresRepository implements Repository using PostgreSQL.
type PostgresRepository struct {
	db *pgxpool.Pool
}

// NewPostgresRepository builds a Postgres-backed enrollment repository.
func NewPostgresRepository(db *pgxpool.Pool) *PostgresRepository {
	return &PostgresRepository{db: db}
}

// Create inserts a completed enrollment.
func (r *PostgresRepository) Create(ctx context.Context, rec Record) error {
	id, err := uuid.Parse(rec.ID)
	if err != nil {
		return err
	}
	_, err = r.db.Exec(ctx, `INSERT INTO enrollments (id, first_name, last_name, email, ssn_hash, account_token, card_token, simulated, created_at)
        VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`,
		id, rec.FirstName, rec.LastName, normalizeEmail(rec.Email), rec.SSNHash, rec.AccountToken, rec.CardToken, rec.Simulated, rec.CreatedAt.UTC())
	return err
}

// FindByEmail fetches an enrollment by email address.
func (r *PostgresRepository) FindByEmail(ctx context.Context, email string) (Record, error) {
	row := r.db.QueryRow(ctx, `SELECT id, first_name, last_name, email, ssn_hash, account_token, card_token, simulated, created_at
        FROM enrollments WHERE email = $1`, normalizeEmail(email))
	var (
		id  uuid.UUID
		rec Record
	)
	err := row.Scan(&id, &rec.FirstName, &rec.LastName, &rec.Email, &rec.SSNHash, &rec.AccountToken, &rec.CardToken, &rec.Simulated, &rec.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return Record{}, ErrNotFound
	}
	if err != nil {
		return Record{}, err
	}
	rec.ID = id.String()
	rec.CreatedAt = rec.CreatedAt.UTC()
	return rec, nil
}

type memoryRepository struct {
	mu      sync.RWMutex
	records map[string]Record
}

// NewMemoryRepository builds an in-process enrollment store.
func NewMemoryRepository() Repository {
	return &memoryRepository{records: make(map[string]Record)}
}

func (r *memoryRepository) Create(_ context.Context, rec Record) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	key := normalizeEmail(rec.Email)
	if _, exists := r.records[key]; exists {
		return ErrAlreadyEnrolled
	}
	r.records[key] = rec
	return nil
}

func (r *memoryRepository) FindByEmail(_ context.Context, email string) (Record, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	rec, ok := r.records[normalizeEmail(email)]
	if !ok {
		return Record{}, ErrNotFound
	}
	return rec, nil
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
