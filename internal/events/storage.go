package events

import (
	"encoding/json"
	"time"

	"gorm.io/gorm"
)

// Storage persists published events.
type Storage interface {
	Store(event Event) error
	Recent(limit int) ([]Event, error)
	Count() (int64, error)
}

// EventRecord is the persisted form of an event.
type EventRecord struct {
	ID        string    `gorm:"primaryKey;type:varchar(36)" json:"id"`
	Type      string    `gorm:"not null;index" json:"type"`
	Source    string    `gorm:"index" json:"source"`
	Title     string    `json:"title"`
	Message   string    `gorm:"type:text" json:"message"`
	Data      string    `gorm:"type:text" json:"data"`
	Timestamp time.Time `gorm:"index" json:"timestamp"`
}

// DatabaseStorage stores events in the shared relational store.
type DatabaseStorage struct {
	db *gorm.DB
}

// NewDatabaseStorage creates a gorm-backed event store.
func NewDatabaseStorage(db *gorm.DB) *DatabaseStorage {
	return &DatabaseStorage{db: db}
}

// Migrate creates the events table.
func (s *DatabaseStorage) Migrate() error {
	return s.db.AutoMigrate(&EventRecord{})
}

func (s *DatabaseStorage) Store(event Event) error {
	data := ""
	if event.Data != nil {
		encoded, err := json.Marshal(event.Data)
		if err != nil {
			return err
		}
		data = string(encoded)
	}
	record := EventRecord{
		ID:        event.ID,
		Type:      string(event.Type),
		Source:    event.Source,
		Title:     event.Title,
		Message:   event.Message,
		Data:      data,
		Timestamp: event.Timestamp,
	}
	return s.db.Create(&record).Error
}

func (s *DatabaseStorage) Recent(limit int) ([]Event, error) {
	var records []EventRecord
	if err := s.db.Order("timestamp DESC").Limit(limit).Find(&records).Error; err != nil {
		return nil, err
	}
	out := make([]Event, 0, len(records))
	for _, r := range records {
		event := Event{
			ID:        r.ID,
			Type:      EventType(r.Type),
			Source:    r.Source,
			Title:     r.Title,
			Message:   r.Message,
			Timestamp: r.Timestamp,
		}
		if r.Data != "" {
			_ = json.Unmarshal([]byte(r.Data), &event.Data)
		}
		out = append(out, event)
	}
	return out, nil
}

func (s *DatabaseStorage) Count() (int64, error) {
	var n int64
	err := s.db.Model(&EventRecord{}).Count(&n).Error
	return n, err
}
