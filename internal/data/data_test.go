package data_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/technosupport/ts-camwatch/internal/crypto"
	"github.com/technosupport/ts-camwatch/internal/data"
)

// 1. Camera lookup miss is (nil, nil), not an error
func TestCameraGetByIdentity_Miss(t *testing.T) {
	db, mock, _ := sqlmock.New()
	defer db.Close()

	mock.ExpectQuery("SELECT").WillReturnRows(sqlmock.NewRows(nil))

	m := data.CameraModel{DB: db}
	c, err := m.GetByIdentity(context.Background(), "10.0.0.5", "3")
	if err != nil {
		t.Fatalf("GetByIdentity: %v", err)
	}
	if c != nil {
		t.Errorf("expected nil camera on miss, got %+v", c)
	}
}

// 2. Camera insert fills id and column defaults
func TestCameraInsert(t *testing.T) {
	db, mock, _ := sqlmock.New()
	defer db.Close()

	rows := sqlmock.NewRows([]string{"id", "is_muted", "importance"}).AddRow(7, false, 2)
	mock.ExpectQuery("INSERT INTO cameras").WillReturnRows(rows)

	now := time.Now()
	c := &data.Camera{Name: "Gate", IP: "10.0.0.51", NVRIP: "10.0.0.5", ChannelID: "1", LastOnline: &now, Status: data.StatusOnline}

	m := data.CameraModel{DB: db}
	if err := m.Insert(context.Background(), c); err != nil {
		t.Fatalf("Insert: %v", err)
	}
	if c.ID != 7 {
		t.Errorf("id = %d, want 7", c.ID)
	}
	if c.Importance != data.ImportanceNormal {
		t.Errorf("importance = %d, want %d", c.Importance, data.ImportanceNormal)
	}
}

// 3. Reconciler update writes exactly the observed fields
func TestCameraUpdateObserved(t *testing.T) {
	db, mock, _ := sqlmock.New()
	defer db.Close()

	mock.ExpectExec("UPDATE cameras").
		WithArgs("Gate", "10.0.0.51", data.StatusOffline, nil, int64(7)).
		WillReturnResult(sqlmock.NewResult(0, 1))

	c := &data.Camera{ID: 7, Name: "Gate", IP: "10.0.0.51", Status: data.StatusOffline}
	m := data.CameraModel{DB: db}
	if err := m.UpdateObserved(context.Background(), c); err != nil {
		t.Fatalf("UpdateObserved: %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Error(err)
	}
}

// 4. Scheduler update persists counters per sink
func TestCameraUpdateAlertState(t *testing.T) {
	db, mock, _ := sqlmock.New()
	defer db.Close()

	now := time.Now()
	mock.ExpectExec("UPDATE cameras").
		WithArgs(2, sqlmock.AnyArg(), 0, nil, int64(7)).
		WillReturnResult(sqlmock.NewResult(0, 1))

	c := &data.Camera{ID: 7, MailAlertCount: 2, MailLastAlert: &now}
	m := data.CameraModel{DB: db}
	if err := m.UpdateAlertState(context.Background(), c); err != nil {
		t.Fatalf("UpdateAlertState: %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Error(err)
	}
}

// 5. Downtime open inserts when nothing is open
func TestDowntimeOpen_New(t *testing.T) {
	db, mock, _ := sqlmock.New()
	defer db.Close()

	mock.ExpectQuery("SELECT id, camera_id").WillReturnRows(sqlmock.NewRows(nil))
	mock.ExpectQuery("INSERT INTO downtime_events").
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(11))

	m := data.DowntimeModel{DB: db}
	e, err := m.Open(context.Background(), 7, time.Now())
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	if e.ID != 11 {
		t.Errorf("id = %d, want 11", e.ID)
	}
}

// 6. Downtime open is a no-op while an interval is already open
func TestDowntimeOpen_AlreadyOpen(t *testing.T) {
	db, mock, _ := sqlmock.New()
	defer db.Close()

	started := time.Now().Add(-10 * time.Minute)
	rows := sqlmock.NewRows([]string{"id", "camera_id", "start_time", "end_time"}).
		AddRow(11, 7, started, nil)
	mock.ExpectQuery("SELECT id, camera_id").WillReturnRows(rows)

	m := data.DowntimeModel{DB: db}
	e, err := m.Open(context.Background(), 7, time.Now())
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	if e.ID != 11 {
		t.Errorf("reused a new interval instead of the open one")
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unexpected insert: %s", err)
	}
}

// 7. Close targets only the open interval
func TestDowntimeClose(t *testing.T) {
	db, mock, _ := sqlmock.New()
	defer db.Close()

	mock.ExpectExec("UPDATE downtime_events").
		WithArgs(sqlmock.AnyArg(), int64(7)).
		WillReturnResult(sqlmock.NewResult(0, 1))

	m := data.DowntimeModel{DB: db}
	if err := m.Close(context.Background(), 7, time.Now()); err != nil {
		t.Fatalf("Close: %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Error(err)
	}
}

// 8. Overlap query scans open intervals with a nil end
func TestDowntimeListOverlapping(t *testing.T) {
	db, mock, _ := sqlmock.New()
	defer db.Close()

	start := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)
	closed := start.Add(30 * time.Minute)
	rows := sqlmock.NewRows([]string{"camera_id", "name", "start_time", "end_time"}).
		AddRow(7, "Gate", start, closed).
		AddRow(8, "Lobby", start, nil)
	mock.ExpectQuery("SELECT d.camera_id").WillReturnRows(rows)

	m := data.DowntimeModel{DB: db}
	spans, err := m.ListOverlapping(context.Background(), start, start.Add(time.Hour))
	if err != nil {
		t.Fatalf("ListOverlapping: %v", err)
	}
	if len(spans) != 2 {
		t.Fatalf("got %d spans, want 2", len(spans))
	}
	if spans[0].EndTime == nil || spans[1].EndTime != nil {
		t.Error("end_time nullability mapped wrong")
	}
}

// 9. NVR create reports a duplicate IP as ErrAlreadyExists
func TestNVRCreate_Duplicate(t *testing.T) {
	db, mock, _ := sqlmock.New()
	defer db.Close()

	mock.ExpectExec("INSERT INTO nvrs").WillReturnResult(sqlmock.NewResult(0, 0))

	m := data.NVRModel{DB: db}
	err := m.Create(context.Background(), &data.NVR{IP: "10.0.0.5", User: "admin", Password: "pw", Enabled: true})
	if !errors.Is(err, data.ErrAlreadyExists) {
		t.Errorf("err = %v, want ErrAlreadyExists", err)
	}
}

// 10. NVR passwords round-trip through the box
func TestNVRGet_UnsealsPassword(t *testing.T) {
	db, mock, _ := sqlmock.New()
	defer db.Close()

	box := crypto.NewBox("unit-test-secret")
	sealed, err := box.Seal("hunter2", "10.0.0.5")
	if err != nil {
		t.Fatalf("Seal: %v", err)
	}

	rows := sqlmock.NewRows([]string{"ip", "user", "password", "enabled"}).
		AddRow("10.0.0.5", "admin", sealed, true)
	mock.ExpectQuery("SELECT ip").WillReturnRows(rows)

	m := data.NVRModel{DB: db, Box: box}
	n, err := m.Get(context.Background(), "10.0.0.5")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if n.Password != "hunter2" {
		t.Errorf("password = %q, want plaintext back", n.Password)
	}
}

// 11. Settings seed inserts every default exactly once
func TestSettingsSeed(t *testing.T) {
	db, mock, _ := sqlmock.New()
	defer db.Close()

	for range data.DefaultSettings {
		mock.ExpectExec("INSERT INTO settings").WillReturnResult(sqlmock.NewResult(1, 1))
	}

	m := data.SettingsModel{DB: db}
	if err := m.Seed(context.Background()); err != nil {
		t.Fatalf("Seed: %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Error(err)
	}
}

// 12. Settings miss maps to ErrRecordNotFound
func TestSettingsGet_Miss(t *testing.T) {
	db, mock, _ := sqlmock.New()
	defer db.Close()

	mock.ExpectQuery("SELECT key").WillReturnRows(sqlmock.NewRows(nil))

	m := data.SettingsModel{DB: db}
	_, err := m.Get(context.Background(), "NOPE")
	if !errors.Is(err, data.ErrRecordNotFound) {
		t.Errorf("err = %v, want ErrRecordNotFound", err)
	}
}

// 13. Log search runs a count plus a page query and scans newest first
func TestLogSearch(t *testing.T) {
	db, mock, _ := sqlmock.New()
	defer db.Close()

	mock.ExpectQuery("SELECT count").
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(2))
	rows := sqlmock.NewRows([]string{"id", "timestamp", "log_type", "state", "details"}).
		AddRow(2, time.Now(), "Camera", "Offline", "Gate (10.0.0.51)").
		AddRow(1, time.Now().Add(-time.Minute), "Camera", "Online", "Gate (10.0.0.51)")
	mock.ExpectQuery("SELECT id, timestamp").WillReturnRows(rows)

	m := data.LogModel{DB: db}
	entries, total, err := m.Search(context.Background(), "gate", 50, 0)
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if total != 2 || len(entries) != 2 {
		t.Errorf("total=%d len=%d, want 2/2", total, len(entries))
	}
	if entries[0].State != "Offline" {
		t.Errorf("first entry = %q, want newest first", entries[0].State)
	}
}

// 14. Transactional tick commits model writes together
func TestWithTx_Commit(t *testing.T) {
	db, mock, _ := sqlmock.New()
	defer db.Close()

	mock.ExpectBegin()
	mock.ExpectExec("UPDATE cameras").WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	repos := data.NewRepositories(db, nil)
	err := repos.WithTx(context.Background(), func(tx *data.Repositories) error {
		return tx.Cameras.UpdateObserved(context.Background(), &data.Camera{ID: 7, Status: data.StatusOnline})
	})
	if err != nil {
		t.Fatalf("WithTx: %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Error(err)
	}
}

// 15. Transactional tick rolls back on error
func TestWithTx_Rollback(t *testing.T) {
	db, mock, _ := sqlmock.New()
	defer db.Close()

	mock.ExpectBegin()
	mock.ExpectRollback()

	repos := data.NewRepositories(db, nil)
	boom := errors.New("boom")
	err := repos.WithTx(context.Background(), func(tx *data.Repositories) error {
		return boom
	})
	if !errors.Is(err, boom) {
		t.Errorf("err = %v, want boom", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Error(err)
	}
}
