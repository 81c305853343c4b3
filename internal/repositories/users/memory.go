package users

import (
	"context"
	"sync"

	"github.com/dmitrijs2005/usersync/internal/common"
	"github.com/dmitrijs2005/usersync/internal/models"
)

// MemoryRepository is an in-process Repository. The zero value is not
// usable; call NewMemoryRepository.
type MemoryRepository struct {
	mu      sync.RWMutex
	records []models.UserRecord
	index   map[string]int
}

func NewMemoryRepository(seed ...models.UserRecord) *MemoryRepository {
	r := &MemoryRepository{index: make(map[string]int)}
	for _, u := range seed {
		r.insertLocked(u)
	}
	return r
}

func (r *MemoryRepository) insertLocked(u models.UserRecord) bool {
	if _, ok := r.index[u.Account]; ok {
		return false
	}
	r.index[u.Account] = len(r.records)
	r.records = append(r.records, u)
	return true
}

func (r *MemoryRepository) reindexLocked() {
	r.index = make(map[string]int, len(r.records))
	for i, u := range r.records {
		r.index[u.Account] = i
	}
}

func (r *MemoryRepository) Exists(_ context.Context, account string) (bool, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.index[account]
	return ok, nil
}

func (r *MemoryRepository) InsertIfAbsent(_ context.Context, u models.UserRecord) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.insertLocked(u), nil
}

func (r *MemoryRepository) UpdateSecret(_ context.Context, username, secret string) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var n int64
	for i := range r.records {
		if r.records[i].Username == username {
			r.records[i].Secret = secret
			n++
		}
	}
	return n, nil
}

func (r *MemoryRepository) Delete(_ context.Context, username string) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	kept := r.records[:0]
	var n int64
	for _, u := range r.records {
		if u.Username == username {
			n++
			continue
		}
		kept = append(kept, u)
	}
	r.records = kept
	if n > 0 {
		r.reindexLocked()
	}
	return n, nil
}

func (r *MemoryRepository) List(_ context.Context) ([]models.UserRecord, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]models.UserRecord, len(r.records))
	copy(out, r.records)
	return out, nil
}

func (r *MemoryRepository) Clear(_ context.Context) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	n := int64(len(r.records))
	r.records = nil
	r.index = make(map[string]int)
	return n, nil
}

func (r *MemoryRepository) FindByAccount(_ context.Context, account string) (models.UserRecord, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	i, ok := r.index[account]
	if !ok {
		return models.UserRecord{}, common.ErrorNotFound
	}
	return r.records[i], nil
}
