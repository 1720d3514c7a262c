package storage

import (
	"fmt"
	"time"

	"auction-predictor/src/interfaces"
	"auction-predictor/src/logger"
	"auction-predictor/src/models"
)

// -----------------------------------------------------------------------------

// NewDatabase picks the backend configured in storage.db_type.
func NewDatabase(cfg *models.MConfig, log *logger.Logger) (interfaces.IDatabase, error) {
	switch cfg.Storage.DBType {
	case "postgres":
		return NewPostgresDB(cfg, log)
	case "sqlite", "":
		return NewSQLiteDB(cfg, log)
	}
	return nil, fmt.Errorf("unsupported database type: %s", cfg.Storage.DBType)
}

// -----------------------------------------------------------------------------

// Dates are stored as unix seconds at UTC midnight of the calendar date.
func dayUnix(t time.Time) int64 {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC).Unix()
}

func fromUnix(s int64) time.Time {
	return time.Unix(s, 0).UTC()
}
