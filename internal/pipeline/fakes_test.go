package pipeline

import (
	"bytes"
	"context"
	"errors"
	"image"
	"image/color"
	"image/png"
	"io"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"github.com/timmy/ghostline/internal/domain"
	"github.com/timmy/ghostline/internal/repository"
)

// memStore mirrors the repository's guarded writes in memory.
type memStore struct {
	mu      sync.Mutex
	items   map[string]domain.WorkItem
	history map[string][]domain.ItemStatus
}

func newMemStore(items ...domain.WorkItem) *memStore {
	s := &memStore{items: map[string]domain.WorkItem{}, history: map[string][]domain.ItemStatus{}}
	for _, it := range items {
		s.items[it.ID] = it
	}
	return s
}

func (s *memStore) GetByID(_ context.Context, id string) (*domain.WorkItem, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	it, ok := s.items[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return &it, nil
}

func (s *memStore) Claim(_ context.Context, id string, from, to domain.ItemStatus, at time.Time) error {
	if err := domain.ItemLifecycle.Transition(from, to); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	it, ok := s.items[id]
	if !ok {
		return repository.ErrNotFound
	}
	if it.Status != from {
		return repository.ErrStatusConflict
	}
	it.Status = to
	if to == domain.StatusProcessing {
		it.ProcessingStartedAt = &at
	}
	s.items[id] = it
	s.history[id] = append(s.history[id], to)
	return nil
}

func (s *memStore) SaveTransition(_ context.Context, item *domain.WorkItem, expected domain.ItemStatus) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	it, ok := s.items[item.ID]
	if !ok || it.Status != expected {
		return repository.ErrStatusConflict
	}
	s.items[item.ID] = *item
	s.history[item.ID] = append(s.history[item.ID], item.Status)
	return nil
}

func (s *memStore) ListStaleProcessing(_ context.Context, cutoff time.Time) ([]domain.WorkItem, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []domain.WorkItem
	for _, it := range s.items {
		if it.Status == domain.StatusProcessing && it.ProcessingStartedAt != nil && it.ProcessingStartedAt.Before(cutoff) {
			out = append(out, it)
		}
	}
	return out, nil
}

func (s *memStore) get(t *testing.T, id string) domain.WorkItem {
	t.Helper()
	s.mu.Lock()
	defer s.mu.Unlock()
	it, ok := s.items[id]
	require.True(t, ok)
	return it
}

type fakePublisher struct {
	mu       sync.Mutex
	calls    int
	id       string
	err      error
	delay    time.Duration
	listings []domain.Listing
}

func (p *fakePublisher) CreateProduct(_ context.Context, l domain.Listing) (string, error) {
	time.Sleep(p.delay)
	p.mu.Lock()
	defer p.mu.Unlock()
	p.calls++
	p.listings = append(p.listings, l)
	return p.id, p.err
}

func (p *fakePublisher) count() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.calls
}

type fakeText struct {
	desc       string
	content    string
	descErr    error
	contentErr error
}

func (f *fakeText) GenerateDescription(context.Context, string, domain.Category) (string, error) {
	return f.desc, f.descErr
}

func (f *fakeText) GenerateContent(context.Context, string, domain.Category) (string, error) {
	return f.content, f.contentErr
}

type fakeImages struct {
	data []byte
	err  error
}

func (f *fakeImages) GenerateImage(context.Context, string, domain.Category) ([]byte, error) {
	return f.data, f.err
}

type fakeImageStore struct {
	mu      sync.Mutex
	objects map[string][]byte
	types   map[string]string
	err     error
}

func (f *fakeImageStore) Upload(_ context.Context, key string, r io.Reader, _ int64, contentType string) error {
	if f.err != nil {
		return f.err
	}
	data, err := io.ReadAll(r)
	if err != nil {
		return err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.objects == nil {
		f.objects, f.types = map[string][]byte{}, map[string]string{}
	}
	f.objects[key] = data
	f.types[key] = contentType
	return nil
}

func (f *fakeImageStore) GetURL(key string) string {
	return "https://cdn.example.test/" + key
}

type fakeNotifier struct {
	mu       sync.Mutex
	subjects []string
	err      error
}

func (f *fakeNotifier) Notify(_ context.Context, subject, _ string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.subjects = append(f.subjects, subject)
	return f.err
}

var errUpstream = errors.New("HTTP 422: {\"errors\":{\"title\":[\"can't be blank\"]}}")

func pngBytes(t *testing.T) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, 2, 2))
	img.Set(0, 0, color.RGBA{R: 255, A: 255})
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return buf.Bytes()
}

const validContent = `{"title":"Solo Automation Kit","sections":[{"heading":"Setup","body":"Import the workflow."}]}`
