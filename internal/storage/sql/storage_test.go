//go:build sql
// +build sql

package sqlstorage_test

import (
	"context"
	"fmt"
	"os"
	"strconv"
	"testing"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/rmonteiro-pa/ciap-agenda/internal/storage"
	sqlstorage "github.com/rmonteiro-pa/ciap-agenda/internal/storage/sql"
	"github.com/stretchr/testify/require"
)

var (
	host     = "127.0.0.1"
	port     = 5432
	database = "testing"
	username = "postgres"
	password = "pas"
)

func TestMain(m *testing.M) {
	pgHost := os.Getenv("POSTGRES_HOST")
	pgPort := os.Getenv("POSTGRES_PORT")
	if pgHost != "" {
		host = pgHost
	}
	if pgPort != "" {
		port, _ = strconv.Atoi(pgPort)
	}

	cleanupDB()
	os.Exit(m.Run())
}

func createStorage(t *testing.T) *sqlstorage.Storage {
	t.Helper()
	s := sqlstorage.New(sqlstorage.Config{
		Host:     host,
		Port:     port,
		Database: database,
		Username: username,
		Password: password,
	})
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	require.NoError(t, s.Connect(ctx))
	t.Cleanup(func() {
		cleanupDB()
		s.Close(context.Background())
	})
	return s
}

func cleanupDB() {
	db, err := sqlx.Connect(
		"postgres",
		fmt.Sprintf("sslmode=disable host=%s port=%d dbname=%s user=%s password=%s",
			host, port, database, username, password),
	)
	if err != nil {
		return
	}
	defer db.Close()
	db.Exec("DELETE FROM events")
	db.Exec("DELETE FROM settings")
}

func testEvent(title string, start time.Time) storage.Event {
	return storage.Event{
		Title:           title,
		Description:     "description",
		Responsible:     "Gabinete",
		Participants:    []string{"Estado Maior"},
		CreatedBy:       "Secretaria CIAP",
		StartTime:       start,
		EndTime:         start.Add(time.Hour),
		Type:            storage.TypeMeeting,
		Status:          storage.StatusActive,
		ReminderMinutes: 60,
		Emoji:           "📜",
		Color:           "from-slate-900 to-black",
	}
}

func compareEvents(t *testing.T, expected storage.Event, actual storage.Event) {
	t.Helper()
	require.Equal(t, expected.ID, actual.ID)
	require.Equal(t, expected.Title, actual.Title)
	require.Equal(t, expected.Description, actual.Description)
	require.Equal(t, expected.Responsible, actual.Responsible)
	require.Equal(t, expected.Participants, actual.Participants)
	require.True(t, expected.StartTime.Equal(actual.StartTime))
	require.True(t, expected.EndTime.Equal(actual.EndTime))
	require.Equal(t, expected.Type, actual.Type)
	require.Equal(t, expected.Status, actual.Status)
	require.Equal(t, expected.ReminderMinutes, actual.ReminderMinutes)
}

func TestStorage(t *testing.T) {
	ctx := context.Background()
	initDate := time.Date(2300, 1, 1, 0, 0, 0, 0, time.UTC)

	t.Run("add event", func(t *testing.T) {
		s := createStorage(t)
		e := testEvent("test", initDate.Add(9*time.Hour))

		require.NoError(t, s.AddEvent(ctx, &e))
		require.NotEmpty(t, e.ID)

		events, err := s.GetEventsForDay(ctx, initDate)
		require.NoError(t, err)
		require.Equal(t, 1, len(events))
		compareEvents(t, e, events[0])
	})

	t.Run("duplicate id", func(t *testing.T) {
		s := createStorage(t)
		e := testEvent("test", initDate.Add(9*time.Hour))
		e.ID = "fixed"
		require.NoError(t, s.AddEvent(ctx, &e))

		dup := testEvent("other", initDate.Add(11*time.Hour))
		dup.ID = "fixed"
		require.ErrorIs(t, s.AddEvent(ctx, &dup), storage.ErrDuplicateEventID)
	})

	t.Run("update event", func(t *testing.T) {
		s := createStorage(t)
		e := testEvent("test", initDate.Add(9*time.Hour))
		require.NoError(t, s.AddEvent(ctx, &e))

		e.Title = "updated title"
		e.Status = storage.StatusRescheduled
		e.StartTime = e.StartTime.Add(21 * time.Minute)
		e.EndTime = e.EndTime.Add(33 * time.Minute)
		require.NoError(t, s.UpdateEvent(ctx, e.ID, e))

		got, err := s.GetEvent(ctx, e.ID)
		require.NoError(t, err)
		compareEvents(t, e, got)
	})

	t.Run("update of missing event", func(t *testing.T) {
		s := createStorage(t)
		err := s.UpdateEvent(ctx, "missing", testEvent("x", initDate.Add(time.Hour)))
		require.ErrorIs(t, err, storage.ErrNotFoundEvent)
	})

	t.Run("list in insertion order", func(t *testing.T) {
		s := createStorage(t)
		for _, title := range []string{"first", "second", "third"} {
			e := testEvent(title, initDate.Add(9*time.Hour))
			require.NoError(t, s.AddEvent(ctx, &e))
		}
		events, err := s.ListEvents(ctx)
		require.NoError(t, err)
		require.Equal(t, 3, len(events))
		require.Equal(t, "first", events[0].Title)
		require.Equal(t, "third", events[2].Title)
	})

	t.Run("operator settings", func(t *testing.T) {
		s := createStorage(t)
		op := storage.Operator{Name: "Sgt. Lima", Role: storage.RoleSecretary}
		require.NoError(t, s.SetOperator(ctx, op))

		got, err := s.GetOperator(ctx)
		require.NoError(t, err)
		require.Equal(t, op, got)

		op.Role = storage.RoleChief
		require.NoError(t, s.SetOperator(ctx, op))
		got, err = s.GetOperator(ctx)
		require.NoError(t, err)
		require.Equal(t, storage.RoleChief, got.Role)
	})
}
