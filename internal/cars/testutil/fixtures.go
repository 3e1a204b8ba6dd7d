package testutil

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"car-listing/internal/cars/domain/model"
	apperrors "car-listing/internal/shared/errors"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// PNG is the smallest header http.DetectContentType recognizes as image/png.
var PNG = []byte("\x89PNG\r\n\x1a\n\x00\x00\x00\rIHDR")

// CarFixture builds car test data.
type CarFixture struct{}

// NewCarFixture creates a new CarFixture instance
func NewCarFixture() *CarFixture {
	return &CarFixture{}
}

// Uploads returns n PNG uploads.
func (f *CarFixture) Uploads(n int) []model.ImageUpload {
	out := make([]model.ImageUpload, n)
	for i := range out {
		out[i] = model.NewImageUpload(fmt.Sprintf("photo-%d.png", i), PNG)
	}
	return out
}

// Civic returns a valid create input with n images.
func (f *CarFixture) Civic(n int) model.CreateInput {
	return model.CreateInput{
		Title:       "Civic",
		Description: "Reliable commuter",
		Tags:        model.Tags{CarType: "Sedan", Company: "Honda", Dealer: "Metro Motors"},
		Images:      f.Uploads(n),
	}
}

// InMemoryCarRepository is a map-backed CarRepository that follows the
// search and ordering rules of the Mongo repository.
type InMemoryCarRepository struct {
	mu   sync.RWMutex
	cars map[string]*model.Car
}

// NewInMemoryCarRepository creates an empty repository
func NewInMemoryCarRepository() *InMemoryCarRepository {
	return &InMemoryCarRepository{cars: make(map[string]*model.Car)}
}

func (r *InMemoryCarRepository) Create(ctx context.Context, car *model.Car) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	car.ObjectID = primitive.NewObjectID()
	car.ID = car.ObjectID.Hex()
	if car.CreatedAt.IsZero() {
		car.CreatedAt = time.Now().UTC()
	}
	r.cars[car.ID] = car.Clone()
	return nil
}

func (r *InMemoryCarRepository) GetByID(ctx context.Context, id string) (*model.Car, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	car, ok := r.cars[id]
	if !ok {
		return nil, apperrors.ErrNotFound
	}
	return car.Clone(), nil
}

func (r *InMemoryCarRepository) List(ctx context.Context, q model.ListQuery) ([]*model.Car, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.match(q), nil
}

func (r *InMemoryCarRepository) Page(ctx context.Context, q model.ListQuery) ([]*model.Car, int64, error) {
	q = q.Normalize()
	r.mu.RLock()
	all := r.match(q)
	r.mu.RUnlock()

	total := int64(len(all))
	start := int(q.Skip())
	if start > len(all) {
		start = len(all)
	}
	end := start + q.Limit
	if end > len(all) {
		end = len(all)
	}
	return all[start:end], total, nil
}

func (r *InMemoryCarRepository) Replace(ctx context.Context, car *model.Car) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	existing, ok := r.cars[car.ID]
	if !ok {
		return apperrors.ErrNotFound
	}
	next := car.Clone()
	next.ObjectID = existing.ObjectID
	next.Owner = existing.Owner
	next.CreatedAt = existing.CreatedAt
	r.cars[car.ID] = next
	return nil
}

func (r *InMemoryCarRepository) Delete(ctx context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.cars[id]; !ok {
		return apperrors.ErrNotFound
	}
	delete(r.cars, id)
	return nil
}

// Count returns the number of stored cars.
func (r *InMemoryCarRepository) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.cars)
}

func (r *InMemoryCarRepository) match(q model.ListQuery) []*model.Car {
	term := strings.ToLower(strings.TrimSpace(q.Search))
	out := make([]*model.Car, 0)
	for _, car := range r.cars {
		if car.Owner != q.Owner {
			continue
		}
		if term != "" && !matches(car, term) {
			continue
		}
		out = append(out, car.Clone())
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.After(out[j].CreatedAt)
		}
		return out[i].ID > out[j].ID
	})
	return out
}

func matches(car *model.Car, term string) bool {
	for _, field := range []string{car.Title, car.Description, car.Tags.CarType, car.Tags.Company, car.Tags.Dealer} {
		if strings.Contains(strings.ToLower(field), term) {
			return true
		}
	}
	return false
}

// MemoryStore is an AttachmentStore that keeps objects in memory. Deletes
// of ids listed with FailDelete return an error.
type MemoryStore struct {
	mu         sync.Mutex
	objects    map[string][]byte
	failDelete map[string]bool
	failUpload bool
	seq        int
}

// NewMemoryStore creates an empty store
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{objects: map[string][]byte{}, failDelete: map[string]bool{}}
}

func (s *MemoryStore) Upload(ctx context.Context, img model.ImageUpload) (model.Image, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.failUpload {
		return model.Image{}, errors.New("store unavailable")
	}
	s.seq++
	key := fmt.Sprintf("cars/test/%03d-%s", s.seq, img.Filename)
	s.objects[key] = img.Data
	return model.Image{PublicID: key, URL: "http://store.test/car-images/" + key}, nil
}

func (s *MemoryStore) Delete(ctx context.Context, publicID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.failDelete[publicID] {
		return errors.New("delete refused")
	}
	delete(s.objects, publicID)
	return nil
}

func (s *MemoryStore) Ping(ctx context.Context) error { return nil }

// FailDelete makes deletes of publicID fail until cleared.
func (s *MemoryStore) FailDelete(publicID string, fail bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.failDelete[publicID] = fail
}

// FailUploads makes every upload fail.
func (s *MemoryStore) FailUploads(fail bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.failUpload = fail
}

// Has reports whether publicID is stored.
func (s *MemoryStore) Has(publicID string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.objects[publicID]
	return ok
}

// Len returns the number of stored objects.
func (s *MemoryStore) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.objects)
}

// MemoryQueue is a slice-backed CleanupQueue.
type MemoryQueue struct {
	mu    sync.Mutex
	items []model.OrphanedImage
}

func (q *MemoryQueue) Enqueue(ctx context.Context, item model.OrphanedImage) error {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.items = append(q.items, item)
	return nil
}

func (q *MemoryQueue) Dequeue(ctx context.Context, max int) ([]model.OrphanedImage, error) {
	q.mu.Lock()
	defer q.mu.Unlock()
	if max > len(q.items) {
		max = len(q.items)
	}
	out := append([]model.OrphanedImage(nil), q.items[:max]...)
	q.items = q.items[max:]
	return out, nil
}

func (q *MemoryQueue) Len(ctx context.Context) (int64, error) {
	q.mu.Lock()
	defer q.mu.Unlock()
	return int64(len(q.items)), nil
}
