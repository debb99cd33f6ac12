package database

import (
	"database/sql"
	"time"

	_ "github.com/lib/pq"

	"github.com/AnshRaj112/karmnik-backend/internal/logger"
)

// FeedingsChannel is the LISTEN/NOTIFY channel fired on every change to feedings.
const FeedingsChannel = "feedings_changed"

var PostgresDB *sql.DB

// ConnectPostgres connects to PostgreSQL and creates the feedings schema.
func ConnectPostgres(postgresURI string) error {
	db, err := sql.Open("postgres", postgresURI)
	if err != nil {
		return err
	}

	db.SetMaxOpenConns(10)
	db.SetMaxIdleConns(2)
	db.SetConnMaxLifetime(5 * time.Minute)

	if err = db.Ping(); err != nil {
		db.Close()
		return err
	}
	PostgresDB = db

	logger.Info("connected to postgres", "module", "database", "uri", MaskURI(postgresURI))

	return InitPostgresTables(PostgresDB)
}

// InitPostgresTables creates the feedings table, its index and the change trigger.
func InitPostgresTables(db *sql.DB) error {
	queries := []string{
		`CREATE TABLE IF NOT EXISTS feedings (
			id UUID PRIMARY KEY DEFAULT gen_random_uuid(),
			timestamp TEXT NOT NULL,
			created_at TIMESTAMP NOT NULL DEFAULT NOW()
		)`,
		`CREATE INDEX IF NOT EXISTS idx_feedings_timestamp ON feedings(timestamp DESC)`,

		`CREATE OR REPLACE FUNCTION notify_feedings_changed() RETURNS trigger AS $$
		BEGIN
			PERFORM pg_notify('` + FeedingsChannel + `', TG_OP);
			RETURN NULL;
		END;
		$$ LANGUAGE plpgsql`,
		`DROP TRIGGER IF EXISTS feedings_changed ON feedings`,
		`CREATE TRIGGER feedings_changed
			AFTER INSERT OR DELETE ON feedings
			FOR EACH STATEMENT EXECUTE FUNCTION notify_feedings_changed()`,
	}

	for _, query := range queries {
		if _, err := db.Exec(query); err != nil {
			return err
		}
	}

	logger.Info("postgres tables initialized", "module", "database")
	return nil
}

// DisconnectPostgres closes the PostgreSQL connection
func DisconnectPostgres() error {
	if PostgresDB != nil {
		return PostgresDB.Close()
	}
	return nil
}
