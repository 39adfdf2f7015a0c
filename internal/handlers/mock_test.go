package handlers_test

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/serroba/paste-go/internal/paste"
)

var errMock = errors.New("mock error")

// mockRepository is a paste.Repository returning fixed errors.
type mockRepository struct {
	createErr error
	readErr   error
	updateErr error
	deleteErr error
}

func (m *mockRepository) Create(_ context.Context, _ paste.CreateInput) (*paste.Record, error) {
	return nil, m.createErr
}

func (m *mockRepository) Read(_ context.Context, _ string) (*paste.Record, error) {
	return nil, m.readErr
}

func (m *mockRepository) Update(_ context.Context, _ paste.ID, _ paste.Payload) (*paste.Record, error) {
	return nil, m.updateErr
}

func (m *mockRepository) Delete(_ context.Context, _ paste.ID) error {
	return m.deleteErr
}

// recordingPublisher remembers the topics it was asked to publish to.
type recordingPublisher struct {
	mu     sync.Mutex
	topics []string
	err    error
}

func (p *recordingPublisher) Publish(topic string, _ ...*message.Message) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.topics = append(p.topics, topic)

	return p.err
}

func (p *recordingPublisher) Close() error {
	return nil
}

func (p *recordingPublisher) Topics() []string {
	p.mu.Lock()
	defer p.mu.Unlock()

	return append([]string(nil), p.topics...)
}

type testClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *testClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()

	return c.now
}

func (c *testClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.now = c.now.Add(d)
}
