package catalog

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
	_ "github.com/jackc/pgx/v5/stdlib"
)

const (
	pingTimeout  = 1 * time.Second
	queryTimeout = 3 * time.Second
	pgUniqueCode = "23505"
)

const schemaSQL = `
CREATE TABLE IF NOT EXISTS products (
	seq         BIGSERIAL,
	id          BIGINT PRIMARY KEY,
	name        TEXT NOT NULL,
	category_id TEXT NOT NULL DEFAULT '',
	price       DOUBLE PRECISION NOT NULL DEFAULT 0,
	image_url   TEXT NOT NULL DEFAULT '',
	available   BOOLEAN NOT NULL DEFAULT TRUE
)`

const productColumns = `id, name, category_id, price, image_url, available`

// PostgresStore is the catalog backend for deployments where several server
// processes share one catalog. Id assignment takes a table lock so concurrent
// creates from any process serialise.
type PostgresStore struct {
	db *sql.DB
}

func NewPostgresStore(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

// OpenPostgres connects through the pgx database/sql driver.
func OpenPostgres(dsn string) (*sql.DB, error) {
	db, err := sql.Open("pgx", dsn)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrStorageUnavailable, err)
	}
	db.SetMaxOpenConns(10)
	db.SetConnMaxIdleTime(5 * time.Minute)
	return db, nil
}

func (s *PostgresStore) EnsureSchema(ctx context.Context) error {
	return withTimeout(ctx, queryTimeout, func(ctx context.Context) error {
		if _, err := s.db.ExecContext(ctx, schemaSQL); err != nil {
			return fmt.Errorf("%w: ensure schema: %v", ErrStorageUnavailable, err)
		}
		return nil
	})
}

func (s *PostgresStore) Ping(ctx context.Context) error {
	return withTimeout(ctx, pingTimeout, func(ctx context.Context) error {
		if err := s.db.PingContext(ctx); err != nil {
			return fmt.Errorf("%w: %v", ErrStorageUnavailable, err)
		}
		return nil
	})
}

func (s *PostgresStore) List(ctx context.Context) ([]Product, error) {
	out := make([]Product, 0, 16)

	err := withTimeout(ctx, queryTimeout, func(ctx context.Context) error {
		rows, err := s.db.QueryContext(ctx, `SELECT `+productColumns+` FROM products ORDER BY seq ASC`)
		if err != nil {
			return err
		}
		defer rows.Close()

		for rows.Next() {
			p, err := scanProduct(rows)
			if err != nil {
				return err
			}
			out = append(out, p)
		}
		return rows.Err()
	})
	if err != nil {
		return nil, fmt.Errorf("%w: list: %v", ErrStorageUnavailable, err)
	}
	return out, nil
}

func (s *PostgresStore) Create(ctx context.Context, d Draft) (Product, error) {
	if err := d.validate(); err != nil {
		return Product{}, err
	}

	var created Product
	err := s.inTx(ctx, func(ctx context.Context, tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx, `LOCK TABLE products IN SHARE ROW EXCLUSIVE MODE`); err != nil {
			return err
		}

		id := d.ID
		if id == 0 {
			var top int64
			if err := tx.QueryRowContext(ctx, `SELECT COALESCE(MAX(id), 0) FROM products`).Scan(&top); err != nil {
				return err
			}
			next, err := checkNext(top)
			if err != nil {
				return err
			}
			id = next
		}

		created = d.product(id)
		_, err := tx.ExecContext(ctx, `
			INSERT INTO products (`+productColumns+`)
			VALUES ($1, $2, $3, $4, $5, $6)
		`, created.ID, created.Name, created.CategoryID, created.Price, created.ImageURL, created.Available)
		return err
	})
	if isUniqueViolation(err) {
		return Product{}, fmt.Errorf("%w: %d", ErrDuplicateID, d.ID)
	}
	if errors.Is(err, ErrInvalidRecord) {
		return Product{}, err
	}
	if err != nil {
		return Product{}, fmt.Errorf("%w: create: %v", ErrStorageUnavailable, err)
	}
	return created, nil
}

func (s *PostgresStore) Update(ctx context.Context, id int64, p Patch) (Product, bool, error) {
	if err := p.validate(); err != nil {
		return Product{}, false, err
	}

	var (
		out   Product
		found bool
	)
	err := s.inTx(ctx, func(ctx context.Context, tx *sql.Tx) error {
		cur, err := scanProduct(tx.QueryRowContext(ctx,
			`SELECT `+productColumns+` FROM products WHERE id = $1 FOR UPDATE`, id))
		if errors.Is(err, sql.ErrNoRows) {
			return nil
		}
		if err != nil {
			return err
		}

		out, found = p.apply(cur), true
		_, err = tx.ExecContext(ctx, `
			UPDATE products
			SET name = $2, category_id = $3, price = $4, image_url = $5, available = $6
			WHERE id = $1
		`, out.ID, out.Name, out.CategoryID, out.Price, out.ImageURL, out.Available)
		return err
	})
	if err != nil {
		return Product{}, false, fmt.Errorf("%w: update: %v", ErrStorageUnavailable, err)
	}
	return out, found, nil
}

func (s *PostgresStore) ToggleAvailability(ctx context.Context, id int64) (Product, bool, error) {
	var p Product
	err := withTimeout(ctx, queryTimeout, func(ctx context.Context) error {
		var err error
		p, err = scanProduct(s.db.QueryRowContext(ctx, `
			UPDATE products SET available = NOT available
			WHERE id = $1
			RETURNING `+productColumns, id))
		return err
	})
	if errors.Is(err, sql.ErrNoRows) {
		return Product{}, false, nil
	}
	if err != nil {
		return Product{}, false, fmt.Errorf("%w: toggle: %v", ErrStorageUnavailable, err)
	}
	return p, true, nil
}

func (s *PostgresStore) inTx(ctx context.Context, fn func(ctx context.Context, tx *sql.Tx) error) error {
	return withTimeout(ctx, queryTimeout, func(ctx context.Context) error {
		tx, err := s.db.BeginTx(ctx, &sql.TxOptions{Isolation: sql.LevelReadCommitted})
		if err != nil {
			return err
		}
		defer func() { _ = tx.Rollback() }()

		if err := fn(ctx, tx); err != nil {
			return err
		}
		return tx.Commit()
	})
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanProduct(row rowScanner) (Product, error) {
	var p Product
	err := row.Scan(&p.ID, &p.Name, &p.CategoryID, &p.Price, &p.ImageURL, &p.Available)
	return p, err
}

func withTimeout(parent context.Context, d time.Duration, fn func(ctx context.Context) error) error {
	ctx, cancel := context.WithTimeout(parent, d)
	defer cancel()
	return fn(ctx)
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == pgUniqueCode
}
