package sqlstorage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
	"github.com/rmonteiro-pa/ciap-agenda/internal/storage"
	"github.com/rmonteiro-pa/ciap-agenda/internal/util"
	log "github.com/sirupsen/logrus"
)

var ErrConnectionFailed = errors.New("failed to connect")

const dbErrUniqueViolation = "23505"

const (
	operatorNameKey = "ciap_operator"
	operatorRoleKey = "ciap_role"
)

type Config struct {
	Host     string
	Port     int
	Database string
	Username string
	Password string
}

type Storage struct {
	host         string
	port         int
	database     string
	username     string
	password     string
	db           *sqlx.DB
	firstWeekDay time.Weekday
}

type eventRow struct {
	storage.Event
	Participants pq.StringArray `db:"participants"`
}

func (r eventRow) toEvent() storage.Event {
	e := r.Event
	e.Participants = []string(r.Participants)
	return e
}

func New(config Config) *Storage {
	return &Storage{
		host:         config.Host,
		port:         config.Port,
		database:     config.Database,
		username:     config.Username,
		password:     config.Password,
		firstWeekDay: time.Monday,
	}
}

func (s *Storage) Connect(ctx context.Context) error {
	db, err := sqlx.ConnectContext(
		ctx,
		"postgres",
		fmt.Sprintf(
			"sslmode=disable host=%s port=%d dbname=%s user=%s password=%s",
			s.host, s.port, s.database, s.username, s.password),
	)
	if err != nil {
		log.Errorf("failed to connect: %v", err)
		return ErrConnectionFailed
	}
	s.db = db
	return nil
}

func (s *Storage) Close(_ context.Context) error {
	if err := s.db.Close(); err != nil {
		return fmt.Errorf("failed to close connection: %w", err)
	}
	return nil
}

func (s *Storage) AddEvent(ctx context.Context, e *storage.Event) error {
	if err := storage.ValidateEvent(e); err != nil {
		return err
	}
	if e.ID == "" {
		e.ID = uuid.NewString()
	}
	_, err := s.db.ExecContext(
		ctx,
		"INSERT INTO events(id, title, description, responsible, participants, created_by, "+
			"start_timestamp, end_timestamp, event_type, status, reminder_minutes, emoji, color) "+
			"VALUES($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)",
		e.ID, e.Title, e.Description, e.Responsible, pq.Array(e.Participants), e.CreatedBy,
		e.StartTime.UTC(), e.EndTime.UTC(), e.Type, e.Status, e.ReminderMinutes, e.Emoji, e.Color)
	var pqErr *pq.Error
	if errors.As(err, &pqErr) && pqErr.Code == dbErrUniqueViolation {
		return fmt.Errorf("duplicate ID %q: %w", e.ID, storage.ErrDuplicateEventID)
	}
	return err
}

func (s *Storage) UpdateEvent(ctx context.Context, id string, e storage.Event) error {
	if err := storage.ValidateEvent(&e); err != nil {
		return err
	}
	res, err := s.db.ExecContext(
		ctx,
		"UPDATE events SET title=$2, description=$3, responsible=$4, participants=$5, "+
			"start_timestamp=$6, end_timestamp=$7, event_type=$8, status=$9, reminder_minutes=$10, "+
			"emoji=$11, color=$12 WHERE id=$1",
		id, e.Title, e.Description, e.Responsible, pq.Array(e.Participants),
		e.StartTime.UTC(), e.EndTime.UTC(), e.Type, e.Status, e.ReminderMinutes, e.Emoji, e.Color)
	if err != nil {
		return err
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return fmt.Errorf("failed to update event with id %q: %w", id, storage.ErrNotFoundEvent)
	}
	return nil
}

func (s *Storage) GetEvent(ctx context.Context, id string) (storage.Event, error) {
	var row eventRow
	err := s.db.GetContext(ctx, &row, selectColumns+" FROM events WHERE id=$1", id)
	if errors.Is(err, sql.ErrNoRows) {
		return storage.Event{}, fmt.Errorf("no event with id %q: %w", id, storage.ErrNotFoundEvent)
	}
	if err != nil {
		return storage.Event{}, err
	}
	return row.toEvent(), nil
}

func (s *Storage) ListEvents(ctx context.Context) ([]storage.Event, error) {
	return s.selectEvents(ctx, selectColumns+" FROM events ORDER BY insertion_seq")
}

func (s *Storage) GetEventsForDay(ctx context.Context, date time.Time) ([]storage.Event, error) {
	startTime := util.TruncateToDay(date)
	endTime := startTime.AddDate(0, 0, 1)
	return s.selectByRange(ctx, startTime, endTime)
}

func (s *Storage) GetEventsForWeek(ctx context.Context, startDate time.Time) ([]storage.Event, error) {
	startTime := util.TruncateToDay(startDate)
	if startTime.Weekday() != s.firstWeekDay {
		return nil, storage.ErrIncorrectStartDate
	}
	endTime := startTime.AddDate(0, 0, 7)
	return s.selectByRange(ctx, startTime, endTime)
}

func (s *Storage) GetEventsForMonth(ctx context.Context, startDate time.Time) ([]storage.Event, error) {
	startTime := util.TruncateToDay(startDate)
	if startTime.Day() != 1 {
		return nil, storage.ErrIncorrectStartDate
	}
	endTime := startTime.AddDate(0, 1, 0)
	return s.selectByRange(ctx, startTime, endTime)
}

func (s *Storage) GetOperator(ctx context.Context) (storage.Operator, error) {
	var op storage.Operator
	err := s.db.GetContext(ctx, &op.Name, "SELECT value FROM settings WHERE key=$1", operatorNameKey)
	if err != nil && !errors.Is(err, sql.ErrNoRows) {
		return op, err
	}
	var role string
	err = s.db.GetContext(ctx, &role, "SELECT value FROM settings WHERE key=$1", operatorRoleKey)
	if err != nil && !errors.Is(err, sql.ErrNoRows) {
		return op, err
	}
	op.Role = storage.Role(role)
	return op, nil
}

func (s *Storage) SetOperator(ctx context.Context, op storage.Operator) error {
	for key, value := range map[string]string{
		operatorNameKey: op.Name,
		operatorRoleKey: string(op.Role),
	} {
		_, err := s.db.ExecContext(
			ctx,
			"INSERT INTO settings(key, value) VALUES($1, $2) "+
				"ON CONFLICT (key) DO UPDATE SET value=EXCLUDED.value",
			key, value)
		if err != nil {
			return fmt.Errorf("failed to store setting %q: %w", key, err)
		}
	}
	return nil
}

const selectColumns = "SELECT id, title, description, responsible, participants, " +
	"created_by, start_timestamp, end_timestamp, event_type, status, reminder_minutes, emoji, color"

// Select in range [startTime:endTime).
func (s *Storage) selectByRange(ctx context.Context, startTime time.Time, endTime time.Time) ([]storage.Event, error) {
	return s.selectEvents(
		ctx,
		selectColumns+" FROM events WHERE start_timestamp>=$1 AND start_timestamp<$2 ORDER BY insertion_seq",
		startTime, endTime)
}

func (s *Storage) selectEvents(ctx context.Context, query string, args ...interface{}) ([]storage.Event, error) {
	var rows []eventRow
	if err := s.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, err
	}
	events := make([]storage.Event, 0, len(rows))
	for _, row := range rows {
		events = append(events, row.toEvent())
	}
	return events, nil
}
