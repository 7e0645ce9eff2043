package data

import (
	"context"
	"database/sql"
	"errors"

	"github.com/technosupport/ts-camwatch/internal/crypto"
)

var (
	ErrRecordNotFound = errors.New("record not found")
	ErrAlreadyExists  = errors.New("record already exists")
)

// DBTX is a common interface for *sql.DB and *sql.Tx
type DBTX interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
}

// Repositories bundles one model per table over a shared handle.
type Repositories struct {
	db *sql.DB

	NVRs     NVRModel
	Cameras  CameraModel
	Downtime DowntimeModel
	Logs     LogModel
	Settings SettingsModel
}

func NewRepositories(db *sql.DB, box *crypto.Box) *Repositories {
	return &Repositories{
		db:       db,
		NVRs:     NVRModel{DB: db, Box: box},
		Cameras:  CameraModel{DB: db},
		Downtime: DowntimeModel{DB: db},
		Logs:     LogModel{DB: db},
		Settings: SettingsModel{DB: db},
	}
}

// WithTx runs fn against transaction-bound copies of the models and commits
// when fn returns nil. Logs keep the root handle so nothing written through
// them joins the transaction; on the single-connection sqlite pool that also
// means fn must not write logs until the transaction has ended.
func (r *Repositories) WithTx(ctx context.Context, fn func(*Repositories) error) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	txr := &Repositories{
		db:       r.db,
		NVRs:     NVRModel{DB: tx, Box: r.NVRs.Box},
		Cameras:  CameraModel{DB: tx},
		Downtime: DowntimeModel{DB: tx},
		Logs:     r.Logs,
		Settings: SettingsModel{DB: tx},
	}
	if err := fn(txr); err != nil {
		return err
	}
	return tx.Commit()
}
