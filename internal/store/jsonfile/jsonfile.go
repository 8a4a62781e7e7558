package jsonfile

import (
	"encoding/json"
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"sync"
	"time"

	"studyshare-backend-go/internal/models"
	"studyshare-backend-go/internal/store"
)

// Open prepares the data directory and returns flat-file stores backed by
// one JSON file per collection.
func Open(dir string) (store.Stores, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return store.Stores{}, err
	}
	return store.Stores{
		Materials: &materialStore{c: newCollection[models.Material](filepath.Join(dir, "materials.json"))},
		Comments:  &commentStore{c: newCollection[models.Comment](filepath.Join(dir, "comments.json"))},
		Ratings:   &ratingStore{c: newCollection[models.Rating](filepath.Join(dir, "ratings.json"))},
		Users:     &userStore{c: newCollection[models.User](filepath.Join(dir, "users.json"))},
		Admin:     &adminStore{path: filepath.Join(dir, "admin.json")},
	}, nil
}

// nextID picks the current millisecond timestamp and bumps it until it is
// unique among the existing ids. Runs under the collection lock.
func nextID(taken map[int64]bool) int64 {
	id := time.Now().UnixMilli()
	for taken[id] {
		id++
	}
	return id
}

type materialStore struct {
	c *collection[models.Material]
}

func (s *materialStore) List() ([]models.Material, error) {
	s.c.mu.Lock()
	defer s.c.mu.Unlock()
	return s.c.load()
}

func (s *materialStore) Get(id int64) (models.Material, error) {
	s.c.mu.Lock()
	defer s.c.mu.Unlock()
	items, err := s.c.load()
	if err != nil {
		return models.Material{}, err
	}
	for _, m := range items {
		if m.ID == id {
			return m, nil
		}
	}
	return models.Material{}, store.ErrNotFound
}

func (s *materialStore) Create(m models.Material) (models.Material, error) {
	s.c.mu.Lock()
	defer s.c.mu.Unlock()
	items, err := s.c.load()
	if err != nil {
		return models.Material{}, err
	}
	taken := make(map[int64]bool, len(items))
	for _, existing := range items {
		taken[existing.ID] = true
	}
	m.ID = nextID(taken)
	m.ViewCount = 0
	m.DownloadCount = 0
	if m.UploadDate.IsZero() {
		m.UploadDate = time.Now().UTC()
	}
	if m.Tags == nil {
		m.Tags = []string{}
	}
	items = append(items, m)
	if err := s.c.save(items); err != nil {
		return models.Material{}, err
	}
	return m, nil
}

func (s *materialStore) Update(id int64, patch store.MaterialPatch) (models.Material, error) {
	return s.mutate(id, func(m *models.Material) {
		if patch.Title != nil {
			m.Title = *patch.Title
		}
		if patch.Subject != nil {
			m.Subject = *patch.Subject
		}
		if patch.Description != nil {
			m.Description = *patch.Description
		}
		if patch.Uploader != nil {
			m.Uploader = *patch.Uploader
		}
		if patch.Tags != nil {
			m.Tags = *patch.Tags
		}
		now := time.Now().UTC()
		m.UpdatedDate = &now
	})
}

func (s *materialStore) Delete(id int64) error {
	s.c.mu.Lock()
	defer s.c.mu.Unlock()
	items, err := s.c.load()
	if err != nil {
		return err
	}
	for i, m := range items {
		if m.ID == id {
			items = append(items[:i], items[i+1:]...)
			return s.c.save(items)
		}
	}
	return store.ErrNotFound
}

func (s *materialStore) IncrementView(id int64) (models.Material, error) {
	return s.mutate(id, func(m *models.Material) { m.ViewCount++ })
}

func (s *materialStore) IncrementDownload(id int64) (models.Material, error) {
	return s.mutate(id, func(m *models.Material) { m.DownloadCount++ })
}

func (s *materialStore) mutate(id int64, apply func(*models.Material)) (models.Material, error) {
	s.c.mu.Lock()
	defer s.c.mu.Unlock()
	items, err := s.c.load()
	if err != nil {
		return models.Material{}, err
	}
	for i := range items {
		if items[i].ID == id {
			apply(&items[i])
			if err := s.c.save(items); err != nil {
				return models.Material{}, err
			}
			return items[i], nil
		}
	}
	return models.Material{}, store.ErrNotFound
}

type commentStore struct {
	c *collection[models.Comment]
}

func (s *commentStore) List(materialID *int64) ([]models.Comment, error) {
	s.c.mu.Lock()
	defer s.c.mu.Unlock()
	items, err := s.c.load()
	if err != nil {
		return nil, err
	}
	if materialID == nil {
		return items, nil
	}
	filtered := make([]models.Comment, 0, len(items))
	for _, c := range items {
		if c.MaterialID == *materialID {
			filtered = append(filtered, c)
		}
	}
	return filtered, nil
}

func (s *commentStore) Create(c models.Comment) (models.Comment, error) {
	s.c.mu.Lock()
	defer s.c.mu.Unlock()
	items, err := s.c.load()
	if err != nil {
		return models.Comment{}, err
	}
	taken := make(map[int64]bool, len(items))
	for _, existing := range items {
		taken[existing.ID] = true
	}
	c.ID = nextID(taken)
	now := time.Now().UTC()
	c.CreatedAt = now
	c.UpdatedAt = now
	items = append(items, c)
	if err := s.c.save(items); err != nil {
		return models.Comment{}, err
	}
	return c, nil
}

type ratingStore struct {
	c *collection[models.Rating]
}

func (s *ratingStore) List(materialID *int64) ([]models.Rating, error) {
	s.c.mu.Lock()
	defer s.c.mu.Unlock()
	items, err := s.c.load()
	if err != nil {
		return nil, err
	}
	if materialID == nil {
		return items, nil
	}
	filtered := make([]models.Rating, 0, len(items))
	for _, r := range items {
		if r.MaterialID == *materialID {
			filtered = append(filtered, r)
		}
	}
	return filtered, nil
}

func (s *ratingStore) Upsert(materialID int64, userID string, rating float64) (models.Rating, error) {
	s.c.mu.Lock()
	defer s.c.mu.Unlock()
	items, err := s.c.load()
	if err != nil {
		return models.Rating{}, err
	}
	now := time.Now().UTC()
	for i := range items {
		if items[i].MaterialID == materialID && items[i].UserID == userID {
			items[i].Rating = rating
			items[i].UpdatedAt = now
			if err := s.c.save(items); err != nil {
				return models.Rating{}, err
			}
			return items[i], nil
		}
	}
	taken := make(map[int64]bool, len(items))
	for _, existing := range items {
		taken[existing.ID] = true
	}
	row := models.Rating{
		ID:         nextID(taken),
		MaterialID: materialID,
		UserID:     userID,
		Rating:     rating,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
	items = append(items, row)
	if err := s.c.save(items); err != nil {
		return models.Rating{}, err
	}
	return row, nil
}

type userStore struct {
	c *collection[models.User]
}

func (s *userStore) List() ([]models.User, error) {
	s.c.mu.Lock()
	defer s.c.mu.Unlock()
	return s.c.load()
}

func (s *userStore) Get(id string) (models.User, error) {
	s.c.mu.Lock()
	defer s.c.mu.Unlock()
	items, err := s.c.load()
	if err != nil {
		return models.User{}, err
	}
	for _, u := range items {
		if u.ID == id {
			return u, nil
		}
	}
	return models.User{}, store.ErrNotFound
}

func (s *userStore) Create(u models.User) (models.User, error) {
	s.c.mu.Lock()
	defer s.c.mu.Unlock()
	items, err := s.c.load()
	if err != nil {
		return models.User{}, err
	}
	now := time.Now().UTC()
	u.CreatedAt = now
	u.LastLoginAt = now
	if u.UploadedMaterials == nil {
		u.UploadedMaterials = []int64{}
	}
	if u.FavoritesMaterials == nil {
		u.FavoritesMaterials = []int64{}
	}
	items = append(items, u)
	if err := s.c.save(items); err != nil {
		return models.User{}, err
	}
	return u, nil
}

func (s *userStore) Update(id string, patch store.UserPatch) (models.User, error) {
	s.c.mu.Lock()
	defer s.c.mu.Unlock()
	items, err := s.c.load()
	if err != nil {
		return models.User{}, err
	}
	for i := range items {
		if items[i].ID == id {
			if patch.Nickname != nil {
				items[i].Nickname = *patch.Nickname
			}
			if patch.Email != nil {
				items[i].Email = *patch.Email
			}
			if patch.ProfileImage != nil {
				items[i].ProfileImage = *patch.ProfileImage
			}
			if patch.Bio != nil {
				items[i].Bio = *patch.Bio
			}
			now := time.Now().UTC()
			items[i].UpdatedAt = &now
			if err := s.c.save(items); err != nil {
				return models.User{}, err
			}
			return items[i], nil
		}
	}
	return models.User{}, store.ErrNotFound
}

func (s *userStore) Delete(id string) error {
	s.c.mu.Lock()
	defer s.c.mu.Unlock()
	items, err := s.c.load()
	if err != nil {
		return err
	}
	for i, u := range items {
		if u.ID == id {
			items = append(items[:i], items[i+1:]...)
			return s.c.save(items)
		}
	}
	return store.ErrNotFound
}

// adminStore persists the singleton account as a single JSON object file.
type adminStore struct {
	mu   sync.Mutex
	path string
}

// adminRecord is the on-disk shape. AdminAccount hides the hash from API
// responses via json:"-", so the file needs its own mapping.
type adminRecord struct {
	Username           string     `json:"username"`
	PasswordHash       string     `json:"passwordHash"`
	DisplayName        string     `json:"displayName"`
	CreatedAt          time.Time  `json:"createdAt"`
	LastPasswordChange *time.Time `json:"lastPasswordChange,omitempty"`
}

func (s *adminStore) Get() (models.AdminAccount, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	raw, err := os.ReadFile(s.path)
	if errors.Is(err, fs.ErrNotExist) {
		return models.AdminAccount{}, store.ErrNotFound
	}
	if err != nil {
		return models.AdminAccount{}, err
	}
	var rec adminRecord
	if err := json.Unmarshal(raw, &rec); err != nil {
		return models.AdminAccount{}, err
	}
	return models.AdminAccount{
		Username:           rec.Username,
		PasswordHash:       rec.PasswordHash,
		DisplayName:        rec.DisplayName,
		CreatedAt:          rec.CreatedAt,
		LastPasswordChange: rec.LastPasswordChange,
	}, nil
}

func (s *adminStore) Save(a models.AdminAccount) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	raw, err := json.MarshalIndent(adminRecord{
		Username:           a.Username,
		PasswordHash:       a.PasswordHash,
		DisplayName:        a.DisplayName,
		CreatedAt:          a.CreatedAt,
		LastPasswordChange: a.LastPasswordChange,
	}, "", "  ")
	if err != nil {
		return err
	}
	return writeAtomic(s.path, raw)
}
