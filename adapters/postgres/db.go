package postgres

import (
	"context"
	"time"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
	_ "modernc.org/sqlite"

	apperrors "voteaudit/internal/errors"
)

func init() {
	sqlx.BindDriver("sqlite", sqlx.QUESTION)
}

// Open connects to the report database. driver is "postgres" or "sqlite";
// for sqlite the url is a file path or ":memory:".
func Open(ctx context.Context, driver, url string) (*sqlx.DB, error) {
	db, err := sqlx.Open(driver, url)
	if err != nil {
		return nil, apperrors.DatabaseError("open "+driver, err)
	}

	if driver == "sqlite" {
		// single writer; also keeps one :memory: database per handle
		db.SetMaxOpenConns(1)
	} else {
		db.SetMaxOpenConns(10)
		db.SetMaxIdleConns(5)
		db.SetConnMaxLifetime(30 * time.Minute)
	}

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		db.Close()
		return nil, apperrors.DatabaseError("ping "+driver, err)
	}
	return db, nil
}
