package service

import (
	"context"
	"sync"
	"testing"

	"github.com/rs/zerolog"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/codariq/codariq-api/internal/models"
)

func testLogger() zerolog.Logger {
	return zerolog.Nop()
}

func testDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open("file::memory:"), &gorm.Config{})
	if err != nil {
		t.Fatalf("failed to open test database: %v", err)
	}
	if err := db.AutoMigrate(&models.Feedback{}, &models.Generation{}); err != nil {
		t.Fatalf("failed to migrate test database: %v", err)
	}

	return db
}

type recordingPublisher struct {
	mu     sync.Mutex
	topics []EventTopic
}

func (p *recordingPublisher) Publish(_ context.Context, topic EventTopic, _ any) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.topics = append(p.topics, topic)
}

func (p *recordingPublisher) published() []EventTopic {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]EventTopic(nil), p.topics...)
}
