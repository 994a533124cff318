package memorystorage

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rmonteiro-pa/ciap-agenda/internal/storage"
	"github.com/rmonteiro-pa/ciap-agenda/internal/util"
	log "github.com/sirupsen/logrus"
)

// Fixed keys of the snapshot key-value file. The event list is one ordered
// record sequence; the operator name and role live under their own keys.
const (
	eventsKey   = "ciap_boss_agenda_v5"
	operatorKey = "ciap_operator"
	roleKey     = "ciap_role"
)

type Config struct {
	// SnapshotPath is the key-value file backing the store. Empty means
	// purely in-memory (no persistence).
	SnapshotPath string
}

type Storage struct {
	mu           sync.RWMutex
	events       []storage.Event
	index        map[string]int
	operator     storage.Operator
	snapshotPath string
	firstWeekDay time.Weekday
}

func New(config Config) *Storage {
	return &Storage{
		index:        make(map[string]int),
		snapshotPath: config.SnapshotPath,
		firstWeekDay: time.Monday,
	}
}

func (s *Storage) Connect(_ context.Context) error {
	if s.snapshotPath == "" {
		return nil
	}
	data, err := os.ReadFile(s.snapshotPath)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return fmt.Errorf("failed to read snapshot %q: %w", s.snapshotPath, err)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.load(data)
	return nil
}

// load decodes a snapshot. Corrupt data is logged and discarded; the store
// falls back to an empty state instead of failing.
func (s *Storage) load(data []byte) {
	var kv map[string]json.RawMessage
	if err := json.Unmarshal(data, &kv); err != nil {
		log.Errorf("corrupt snapshot %q, starting empty: %v", s.snapshotPath, err)
		return
	}
	if raw, ok := kv[eventsKey]; ok {
		var events []storage.Event
		if err := json.Unmarshal(raw, &events); err != nil {
			log.Errorf("corrupt event list in snapshot, starting empty: %v", err)
		} else {
			s.events = events
			s.index = make(map[string]int, len(events))
			for i, e := range events {
				s.index[e.ID] = i
			}
		}
	}
	if raw, ok := kv[operatorKey]; ok {
		var name string
		if err := json.Unmarshal(raw, &name); err == nil {
			s.operator.Name = name
		}
	}
	if raw, ok := kv[roleKey]; ok {
		var role storage.Role
		if err := json.Unmarshal(raw, &role); err == nil {
			s.operator.Role = role
		}
	}
}

// persist writes the snapshot; must be called with the lock held.
func (s *Storage) persist() {
	if s.snapshotPath == "" {
		return
	}
	kv := map[string]interface{}{
		eventsKey:   s.events,
		operatorKey: s.operator.Name,
		roleKey:     s.operator.Role,
	}
	data, err := json.Marshal(kv)
	if err != nil {
		log.Errorf("failed to encode snapshot: %v", err)
		return
	}
	if err := os.WriteFile(s.snapshotPath, data, 0o644); err != nil {
		log.Errorf("failed to write snapshot %q: %v", s.snapshotPath, err)
	}
}

func (s *Storage) Close(_ context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.persist()
	return nil
}

func (s *Storage) AddEvent(_ context.Context, e *storage.Event) error {
	if err := storage.ValidateEvent(e); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if e.ID == "" {
		e.ID = uuid.NewString()
	}
	if _, ok := s.index[e.ID]; ok {
		return fmt.Errorf("duplicate ID %q: %w", e.ID, storage.ErrDuplicateEventID)
	}
	s.index[e.ID] = len(s.events)
	s.events = append(s.events, *e)
	s.persist()
	return nil
}

func (s *Storage) UpdateEvent(_ context.Context, id string, e storage.Event) error {
	if err := storage.ValidateEvent(&e); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	i, ok := s.index[id]
	if !ok {
		return fmt.Errorf("failed to update event with id %q: %w", id, storage.ErrNotFoundEvent)
	}
	e.ID = id
	s.events[i] = e
	s.persist()
	return nil
}

func (s *Storage) GetEvent(_ context.Context, id string) (storage.Event, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	i, ok := s.index[id]
	if !ok {
		return storage.Event{}, fmt.Errorf("no event with id %q: %w", id, storage.ErrNotFoundEvent)
	}
	return s.events[i], nil
}

func (s *Storage) ListEvents(_ context.Context) ([]storage.Event, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	events := make([]storage.Event, len(s.events))
	copy(events, s.events)
	return events, nil
}

func (s *Storage) GetEventsForDay(_ context.Context, date time.Time) ([]storage.Event, error) {
	startTime := util.TruncateToDay(date)
	endTime := startTime.AddDate(0, 0, 1)
	return s.selectByRange(startTime, endTime)
}

func (s *Storage) GetEventsForWeek(_ context.Context, startDate time.Time) ([]storage.Event, error) {
	startTime := util.TruncateToDay(startDate)
	if startTime.Weekday() != s.firstWeekDay {
		return nil, storage.ErrIncorrectStartDate
	}
	endTime := startTime.AddDate(0, 0, 7)
	return s.selectByRange(startTime, endTime)
}

func (s *Storage) GetEventsForMonth(_ context.Context, startDate time.Time) ([]storage.Event, error) {
	startTime := util.TruncateToDay(startDate)
	if startTime.Day() != 1 {
		return nil, storage.ErrIncorrectStartDate
	}
	endTime := startTime.AddDate(0, 1, 0)
	return s.selectByRange(startTime, endTime)
}

func (s *Storage) GetOperator(_ context.Context) (storage.Operator, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.operator, nil
}

func (s *Storage) SetOperator(_ context.Context, op storage.Operator) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.operator = op
	s.persist()
	return nil
}

// Select in range [startTime:endTime).
func (s *Storage) selectByRange(startTime time.Time, endTime time.Time) ([]storage.Event, error) {
	events := make([]storage.Event, 0)
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, event := range s.events {
		if !event.StartTime.Before(startTime) && event.StartTime.Before(endTime) {
			events = append(events, event)
		}
	}
	return events, nil
}
