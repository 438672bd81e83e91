package service

import (
	"context"
	"io"
	"sort"
	"sync"
	"time"

	"modelviewer/internal/models"
	"modelviewer/internal/queue"
	"modelviewer/internal/repository"
)

type fakeOptions struct {
	mu     sync.Mutex
	values map[string][]byte
	gets   int
}

func newFakeOptions() *fakeOptions {
	return &fakeOptions{values: map[string][]byte{}}
}

func (f *fakeOptions) Get(_ context.Context, name string) ([]byte, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.gets++
	value, ok := f.values[name]
	if !ok {
		return nil, repository.ErrOptionNotFound
	}
	return value, nil
}

func (f *fakeOptions) Put(_ context.Context, name string, value []byte) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.values[name] = value
	return nil
}

func (f *fakeOptions) Delete(_ context.Context, name string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.values[name]; !ok {
		return repository.ErrOptionNotFound
	}
	delete(f.values, name)
	return nil
}

type staticDefaults models.ViewerDefaults

func (d staticDefaults) GetDefaults(context.Context) models.ViewerDefaults {
	return models.ViewerDefaults(d)
}

type fakeModels struct {
	items  map[int64]models.ModelItem
	meta   map[int64]map[string]string
	nextID int64
}

func newFakeModels() *fakeModels {
	return &fakeModels{
		items:  map[int64]models.ModelItem{},
		meta:   map[int64]map[string]string{},
		nextID: 1,
	}
}

func (f *fakeModels) Create(_ context.Context, item models.ModelItem) (models.ModelItem, error) {
	item.ID = f.nextID
	f.nextID++
	item.CreatedAt = time.Now()
	item.UpdatedAt = item.CreatedAt
	f.items[item.ID] = item
	f.meta[item.ID] = map[string]string{}
	return item, nil
}

func (f *fakeModels) GetItem(_ context.Context, id int64) (models.ModelItem, error) {
	item, ok := f.items[id]
	if !ok {
		return models.ModelItem{}, repository.ErrModelNotFound
	}
	return item, nil
}

func (f *fakeModels) GetMeta(_ context.Context, id int64) (map[string]string, error) {
	out := map[string]string{}
	for k, v := range f.meta[id] {
		out[k] = v
	}
	return out, nil
}

func (f *fakeModels) SaveMeta(_ context.Context, id int64, title *string, meta map[string]string) error {
	item, ok := f.items[id]
	if !ok {
		return repository.ErrModelNotFound
	}
	if title != nil {
		item.Title = *title
		f.items[id] = item
	}
	for k, v := range meta {
		f.meta[id][k] = v
	}
	return nil
}

func (f *fakeModels) List(_ context.Context, authorID string, limit, offset int) ([]models.ModelItem, error) {
	var out []models.ModelItem
	for _, item := range f.items {
		if authorID == "" || item.AuthorID == authorID {
			out = append(out, item)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID > out[j].ID })
	if offset >= len(out) {
		return nil, nil
	}
	out = out[offset:]
	return out[:min(limit, len(out))], nil
}

func (f *fakeModels) Delete(_ context.Context, id int64) error {
	delete(f.items, id)
	delete(f.meta, id)
	return nil
}

type fakeAssets struct {
	assets map[string]models.Asset
}

func newFakeAssets() *fakeAssets {
	return &fakeAssets{assets: map[string]models.Asset{}}
}

func (f *fakeAssets) Create(_ context.Context, asset models.Asset) error {
	f.assets[asset.ID] = asset
	return nil
}

func (f *fakeAssets) GetByID(_ context.Context, id string) (models.Asset, error) {
	asset, ok := f.assets[id]
	if !ok {
		return models.Asset{}, repository.ErrAssetNotFound
	}
	return asset, nil
}

type fakeObjects struct {
	objects map[string][]byte
	types   map[string]string
}

func newFakeObjects() *fakeObjects {
	return &fakeObjects{objects: map[string][]byte{}, types: map[string]string{}}
}

func (f *fakeObjects) Bucket() string { return "models" }

func (f *fakeObjects) Put(_ context.Context, key string, r io.Reader, _ int64, contentType string) (int64, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return 0, err
	}
	f.objects[key] = data
	f.types[key] = contentType
	return int64(len(data)), nil
}

func (f *fakeObjects) PublicURL(bucket, key string) string {
	return "https://cdn.example.com/" + bucket + "/" + key
}

type fakeQueue struct {
	tasks []queue.Task
}

func (f *fakeQueue) Enqueue(_ context.Context, task queue.Task) error {
	f.tasks = append(f.tasks, task)
	return nil
}

type fakeUsers struct {
	users map[string]models.User
}

func newFakeUsers() *fakeUsers {
	return &fakeUsers{users: map[string]models.User{}}
}

func (f *fakeUsers) Create(_ context.Context, user models.User) error {
	for _, existing := range f.users {
		if existing.Email == user.Email {
			return repository.ErrEmailTaken
		}
	}
	f.users[user.ID] = user
	return nil
}

func (f *fakeUsers) FindByEmail(_ context.Context, email string) (models.User, error) {
	for _, user := range f.users {
		if user.Email == email {
			return user, nil
		}
	}
	return models.User{}, repository.ErrUserNotFound
}

func (f *fakeUsers) GetByID(_ context.Context, id string) (models.User, error) {
	user, ok := f.users[id]
	if !ok {
		return models.User{}, repository.ErrUserNotFound
	}
	return user, nil
}

func (f *fakeUsers) CountUsers(context.Context) (int, error) {
	return len(f.users), nil
}
