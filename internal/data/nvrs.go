package data

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/technosupport/ts-camwatch/internal/crypto"
)

// NVRModel reads and writes recorder rows. Passwords are sealed at rest with
// the recorder IP as associated data, so a sealed value copied onto another
// row refuses to open.
type NVRModel struct {
	DB  DBTX
	Box *crypto.Box
}

func (m NVRModel) List(ctx context.Context) ([]*NVR, error) {
	query := `
		SELECT ip, "user", password, enabled
		FROM nvrs
		ORDER BY ip`

	rows, err := m.DB.QueryContext(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	nvrs := []*NVR{}
	for rows.Next() {
		var n NVR
		if err := rows.Scan(&n.IP, &n.User, &n.Password, &n.Enabled); err != nil {
			return nil, err
		}
		if err := m.open(&n); err != nil {
			return nil, err
		}
		nvrs = append(nvrs, &n)
	}
	return nvrs, rows.Err()
}

// ListEnabled returns the recorders the monitor loop should poll this tick.
func (m NVRModel) ListEnabled(ctx context.Context) ([]*NVR, error) {
	query := `
		SELECT ip, "user", password, enabled
		FROM nvrs
		WHERE enabled = $1
		ORDER BY ip`

	rows, err := m.DB.QueryContext(ctx, query, true)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	nvrs := []*NVR{}
	for rows.Next() {
		var n NVR
		if err := rows.Scan(&n.IP, &n.User, &n.Password, &n.Enabled); err != nil {
			return nil, err
		}
		if err := m.open(&n); err != nil {
			return nil, err
		}
		nvrs = append(nvrs, &n)
	}
	return nvrs, rows.Err()
}

func (m NVRModel) Get(ctx context.Context, ip string) (*NVR, error) {
	query := `
		SELECT ip, "user", password, enabled
		FROM nvrs
		WHERE ip = $1`

	var n NVR
	err := m.DB.QueryRowContext(ctx, query, ip).Scan(&n.IP, &n.User, &n.Password, &n.Enabled)
	if err == sql.ErrNoRows {
		return nil, ErrRecordNotFound
	}
	if err != nil {
		return nil, err
	}
	if err := m.open(&n); err != nil {
		return nil, err
	}
	return &n, nil
}

// Create inserts a recorder; a second insert for the same IP is reported as
// ErrAlreadyExists rather than a driver-specific constraint error.
func (m NVRModel) Create(ctx context.Context, n *NVR) error {
	sealed, err := m.seal(n.Password, n.IP)
	if err != nil {
		return err
	}

	query := `
		INSERT INTO nvrs (ip, "user", password, enabled)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (ip) DO NOTHING`

	res, err := m.DB.ExecContext(ctx, query, n.IP, n.User, sealed, n.Enabled)
	if err != nil {
		return err
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return ErrAlreadyExists
	}
	return nil
}

// Update applies the non-nil fields of params and returns the updated row.
func (m NVRModel) Update(ctx context.Context, ip string, params UpdateNVRParams) (*NVR, error) {
	set := ""
	args := []any{}
	nextArg := 1

	if params.User != nil {
		set += fmt.Sprintf(`"user" = $%d, `, nextArg)
		args = append(args, *params.User)
		nextArg++
	}
	if params.Password != nil {
		sealed, err := m.seal(*params.Password, ip)
		if err != nil {
			return nil, err
		}
		set += fmt.Sprintf("password = $%d, ", nextArg)
		args = append(args, sealed)
		nextArg++
	}
	if params.Enabled != nil {
		set += fmt.Sprintf("enabled = $%d, ", nextArg)
		args = append(args, *params.Enabled)
		nextArg++
	}
	if set == "" {
		return m.Get(ctx, ip)
	}
	set = set[:len(set)-2]

	query := fmt.Sprintf(`UPDATE nvrs SET %s WHERE ip = $%d`, set, nextArg)
	args = append(args, ip)

	res, err := m.DB.ExecContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return nil, err
	}
	if affected == 0 {
		return nil, ErrRecordNotFound
	}
	return m.Get(ctx, ip)
}

func (m NVRModel) Delete(ctx context.Context, ip string) error {
	res, err := m.DB.ExecContext(ctx, `DELETE FROM nvrs WHERE ip = $1`, ip)
	if err != nil {
		return err
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return ErrRecordNotFound
	}
	return nil
}

func (m NVRModel) seal(password, ip string) (string, error) {
	if m.Box == nil {
		return password, nil
	}
	return m.Box.Seal(password, ip)
}

func (m NVRModel) open(n *NVR) error {
	if m.Box == nil {
		return nil
	}
	plain, err := m.Box.Open(n.Password, n.IP)
	if err != nil {
		return fmt.Errorf("open password for nvr %s: %w", n.IP, err)
	}
	n.Password = plain
	return nil
}
