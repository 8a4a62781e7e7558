// Package postgres implements the store contracts over Postgres via sqlx.
// Selected when DATABASE_URL is set; the schema comes from migrations/.
package postgres

import (
	"database/sql"
	"encoding/json"
	"errors"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/jmoiron/sqlx"

	"studyshare-backend-go/internal/models"
	"studyshare-backend-go/internal/store"
)

func Open(dsn string) (*sqlx.DB, error) {
	db, err := sqlx.Open("pgx", dsn)
	if err != nil {
		return nil, err
	}
	db.SetMaxOpenConns(20)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(30 * time.Minute)
	if err := db.Ping(); err != nil {
		return nil, err
	}
	return db, nil
}

func New(db *sqlx.DB) store.Stores {
	return store.Stores{
		Materials: &materialStore{db: db},
		Comments:  &commentStore{db: db},
		Ratings:   &ratingStore{db: db},
		Users:     &userStore{db: db},
		Admin:     &adminStore{db: db},
	}
}

type materialRow struct {
	ID            int64      `db:"id"`
	Title         string     `db:"title"`
	Subject       string     `db:"subject"`
	Description   string     `db:"description"`
	Uploader      string     `db:"uploader"`
	FileName      string     `db:"file_name"`
	FilePath      string     `db:"file_path"`
	FileSize      int64      `db:"file_size"`
	FileType      string     `db:"file_type"`
	UploadDate    time.Time  `db:"upload_date"`
	UpdatedDate   *time.Time `db:"updated_date"`
	ViewCount     int64      `db:"view_count"`
	DownloadCount int64      `db:"download_count"`
	Tags          []byte     `db:"tags"`
	IPAddress     string     `db:"ip_address"`
}

func (r materialRow) model() models.Material {
	tags := []string{}
	_ = json.Unmarshal(r.Tags, &tags)
	return models.Material{
		ID:            r.ID,
		Title:         r.Title,
		Subject:       r.Subject,
		Description:   r.Description,
		Uploader:      r.Uploader,
		FileName:      r.FileName,
		FilePath:      r.FilePath,
		FileSize:      r.FileSize,
		FileType:      r.FileType,
		UploadDate:    r.UploadDate,
		UpdatedDate:   r.UpdatedDate,
		ViewCount:     r.ViewCount,
		DownloadCount: r.DownloadCount,
		Tags:          tags,
		IPAddress:     r.IPAddress,
	}
}

const materialColumns = `id, title, subject, description, uploader, file_name, file_path,
       file_size, file_type, upload_date, updated_date, view_count, download_count, tags, ip_address`

type materialStore struct {
	db *sqlx.DB
}

func (s *materialStore) List() ([]models.Material, error) {
	rows := []materialRow{}
	if err := s.db.Select(&rows, `
SELECT `+materialColumns+`
FROM materials
ORDER BY inserted_seq
`); err != nil {
		return nil, err
	}
	items := make([]models.Material, 0, len(rows))
	for _, row := range rows {
		items = append(items, row.model())
	}
	return items, nil
}

func (s *materialStore) Get(id int64) (models.Material, error) {
	row := materialRow{}
	err := s.db.Get(&row, `SELECT `+materialColumns+` FROM materials WHERE id = $1`, id)
	if errors.Is(err, sql.ErrNoRows) {
		return models.Material{}, store.ErrNotFound
	}
	if err != nil {
		return models.Material{}, err
	}
	return row.model(), nil
}

func (s *materialStore) Create(m models.Material) (models.Material, error) {
	if m.UploadDate.IsZero() {
		m.UploadDate = time.Now().UTC()
	}
	if m.Tags == nil {
		m.Tags = []string{}
	}
	m.ViewCount = 0
	m.DownloadCount = 0
	tagsJSON, _ := json.Marshal(m.Tags)
	id := time.Now().UnixMilli()
	for {
		var inserted int64
		err := s.db.Get(&inserted, `
INSERT INTO materials (id, title, subject, description, uploader, file_name, file_path,
                       file_size, file_type, upload_date, view_count, download_count, tags, ip_address)
VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,0,0,$11,$12)
ON CONFLICT (id) DO NOTHING
RETURNING id
`, id, m.Title, m.Subject, m.Description, m.Uploader, m.FileName, m.FilePath,
			m.FileSize, m.FileType, m.UploadDate, tagsJSON, m.IPAddress)
		if errors.Is(err, sql.ErrNoRows) {
			id++
			continue
		}
		if err != nil {
			return models.Material{}, err
		}
		m.ID = inserted
		return m, nil
	}
}

func (s *materialStore) Update(id int64, patch store.MaterialPatch) (models.Material, error) {
	current, err := s.Get(id)
	if err != nil {
		return models.Material{}, err
	}
	if patch.Title != nil {
		current.Title = *patch.Title
	}
	if patch.Subject != nil {
		current.Subject = *patch.Subject
	}
	if patch.Description != nil {
		current.Description = *patch.Description
	}
	if patch.Uploader != nil {
		current.Uploader = *patch.Uploader
	}
	if patch.Tags != nil {
		current.Tags = *patch.Tags
	}
	now := time.Now().UTC()
	current.UpdatedDate = &now
	tagsJSON, _ := json.Marshal(current.Tags)
	_, err = s.db.Exec(`
UPDATE materials
SET title = $2, subject = $3, description = $4, uploader = $5, tags = $6, updated_date = $7
WHERE id = $1
`, id, current.Title, current.Subject, current.Description, current.Uploader, tagsJSON, now)
	if err != nil {
		return models.Material{}, err
	}
	return current, nil
}

func (s *materialStore) Delete(id int64) error {
	result, err := s.db.Exec(`DELETE FROM materials WHERE id = $1`, id)
	if err != nil {
		return err
	}
	affected, _ := result.RowsAffected()
	if affected == 0 {
		return store.ErrNotFound
	}
	return nil
}

func (s *materialStore) IncrementView(id int64) (models.Material, error) {
	return s.increment(id, "view_count")
}

func (s *materialStore) IncrementDownload(id int64) (models.Material, error) {
	return s.increment(id, "download_count")
}

func (s *materialStore) increment(id int64, column string) (models.Material, error) {
	result, err := s.db.Exec(`UPDATE materials SET `+column+` = `+column+` + 1 WHERE id = $1`, id)
	if err != nil {
		return models.Material{}, err
	}
	affected, _ := result.RowsAffected()
	if affected == 0 {
		return models.Material{}, store.ErrNotFound
	}
	return s.Get(id)
}

type commentStore struct {
	db *sqlx.DB
}

func (s *commentStore) List(materialID *int64) ([]models.Comment, error) {
	items := []models.Comment{}
	query := `SELECT id, material_id, author, body, rating, created_at, updated_at FROM comments`
	args := []interface{}{}
	if materialID != nil {
		query += ` WHERE material_id = $1`
		args = append(args, *materialID)
	}
	query += ` ORDER BY inserted_seq`
	if err := s.db.Select(&items, query, args...); err != nil {
		return nil, err
	}
	return items, nil
}

func (s *commentStore) Create(c models.Comment) (models.Comment, error) {
	now := time.Now().UTC()
	c.CreatedAt = now
	c.UpdatedAt = now
	id := time.Now().UnixMilli()
	for {
		var inserted int64
		err := s.db.Get(&inserted, `
INSERT INTO comments (id, material_id, author, body, rating, created_at, updated_at)
VALUES ($1,$2,$3,$4,$5,$6,$6)
ON CONFLICT (id) DO NOTHING
RETURNING id
`, id, c.MaterialID, c.Author, c.Text, c.Rating, now)
		if errors.Is(err, sql.ErrNoRows) {
			id++
			continue
		}
		if err != nil {
			return models.Comment{}, err
		}
		c.ID = inserted
		return c, nil
	}
}

type ratingStore struct {
	db *sqlx.DB
}

func (s *ratingStore) List(materialID *int64) ([]models.Rating, error) {
	items := []models.Rating{}
	query := `SELECT id, material_id, user_id, rating, created_at, updated_at FROM ratings`
	args := []interface{}{}
	if materialID != nil {
		query += ` WHERE material_id = $1`
		args = append(args, *materialID)
	}
	query += ` ORDER BY inserted_seq`
	if err := s.db.Select(&items, query, args...); err != nil {
		return nil, err
	}
	return items, nil
}

func (s *ratingStore) Upsert(materialID int64, userID string, rating float64) (models.Rating, error) {
	now := time.Now().UTC()
	row := models.Rating{}
	err := s.db.Get(&row, `
UPDATE ratings
SET rating = $3, updated_at = $4
WHERE material_id = $1 AND user_id = $2
RETURNING id, material_id, user_id, rating, created_at, updated_at
`, materialID, userID, rating, now)
	if err == nil {
		return row, nil
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return models.Rating{}, err
	}
	id := time.Now().UnixMilli()
	for {
		err := s.db.Get(&row, `
INSERT INTO ratings (id, material_id, user_id, rating, created_at, updated_at)
VALUES ($1,$2,$3,$4,$5,$5)
ON CONFLICT (id) DO NOTHING
RETURNING id, material_id, user_id, rating, created_at, updated_at
`, id, materialID, userID, rating, now)
		if errors.Is(err, sql.ErrNoRows) {
			id++
			continue
		}
		if err != nil {
			return models.Rating{}, err
		}
		return row, nil
	}
}

type userRow struct {
	ID           string     `db:"id"`
	Nickname     string     `db:"nickname"`
	Email        string     `db:"email"`
	ProfileImage string     `db:"profile_image"`
	Bio          string     `db:"bio"`
	Role         string     `db:"role"`
	Uploaded     []byte     `db:"uploaded_materials"`
	Favorites    []byte     `db:"favorites_materials"`
	CreatedAt    time.Time  `db:"created_at"`
	UpdatedAt    *time.Time `db:"updated_at"`
	LastLoginAt  time.Time  `db:"last_login_at"`
}

func (r userRow) model() models.User {
	uploaded := []int64{}
	favorites := []int64{}
	_ = json.Unmarshal(r.Uploaded, &uploaded)
	_ = json.Unmarshal(r.Favorites, &favorites)
	return models.User{
		ID:                 r.ID,
		Nickname:           r.Nickname,
		Email:              r.Email,
		ProfileImage:       r.ProfileImage,
		Bio:                r.Bio,
		Role:               r.Role,
		UploadedMaterials:  uploaded,
		FavoritesMaterials: favorites,
		CreatedAt:          r.CreatedAt,
		UpdatedAt:          r.UpdatedAt,
		LastLoginAt:        r.LastLoginAt,
	}
}

const userColumns = `id, nickname, email, profile_image, bio, role, uploaded_materials,
       favorites_materials, created_at, updated_at, last_login_at`

type userStore struct {
	db *sqlx.DB
}

func (s *userStore) List() ([]models.User, error) {
	rows := []userRow{}
	if err := s.db.Select(&rows, `SELECT `+userColumns+` FROM users ORDER BY inserted_seq`); err != nil {
		return nil, err
	}
	items := make([]models.User, 0, len(rows))
	for _, row := range rows {
		items = append(items, row.model())
	}
	return items, nil
}

func (s *userStore) Get(id string) (models.User, error) {
	row := userRow{}
	err := s.db.Get(&row, `SELECT `+userColumns+` FROM users WHERE id = $1`, id)
	if errors.Is(err, sql.ErrNoRows) {
		return models.User{}, store.ErrNotFound
	}
	if err != nil {
		return models.User{}, err
	}
	return row.model(), nil
}

func (s *userStore) Create(u models.User) (models.User, error) {
	now := time.Now().UTC()
	u.CreatedAt = now
	u.LastLoginAt = now
	if u.UploadedMaterials == nil {
		u.UploadedMaterials = []int64{}
	}
	if u.FavoritesMaterials == nil {
		u.FavoritesMaterials = []int64{}
	}
	uploadedJSON, _ := json.Marshal(u.UploadedMaterials)
	favoritesJSON, _ := json.Marshal(u.FavoritesMaterials)
	_, err := s.db.Exec(`
INSERT INTO users (id, nickname, email, profile_image, bio, role, uploaded_materials,
                   favorites_materials, created_at, last_login_at)
VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$9)
`, u.ID, u.Nickname, u.Email, u.ProfileImage, u.Bio, u.Role, uploadedJSON, favoritesJSON, now)
	if err != nil {
		return models.User{}, err
	}
	return u, nil
}

func (s *userStore) Update(id string, patch store.UserPatch) (models.User, error) {
	current, err := s.Get(id)
	if err != nil {
		return models.User{}, err
	}
	if patch.Nickname != nil {
		current.Nickname = *patch.Nickname
	}
	if patch.Email != nil {
		current.Email = *patch.Email
	}
	if patch.ProfileImage != nil {
		current.ProfileImage = *patch.ProfileImage
	}
	if patch.Bio != nil {
		current.Bio = *patch.Bio
	}
	now := time.Now().UTC()
	current.UpdatedAt = &now
	_, err = s.db.Exec(`
UPDATE users
SET nickname = $2, email = $3, profile_image = $4, bio = $5, updated_at = $6
WHERE id = $1
`, id, current.Nickname, current.Email, current.ProfileImage, current.Bio, now)
	if err != nil {
		return models.User{}, err
	}
	return current, nil
}

func (s *userStore) Delete(id string) error {
	result, err := s.db.Exec(`DELETE FROM users WHERE id = $1`, id)
	if err != nil {
		return err
	}
	affected, _ := result.RowsAffected()
	if affected == 0 {
		return store.ErrNotFound
	}
	return nil
}

// adminStore keeps the singleton account in a one-row table.
type adminStore struct {
	db *sqlx.DB
}

func (s *adminStore) Get() (models.AdminAccount, error) {
	account := models.AdminAccount{}
	err := s.db.Get(&account, `
SELECT username, password_hash, display_name, created_at, last_password_change
FROM admin_account
WHERE singleton = TRUE
`)
	if errors.Is(err, sql.ErrNoRows) {
		return models.AdminAccount{}, store.ErrNotFound
	}
	if err != nil {
		return models.AdminAccount{}, err
	}
	return account, nil
}

func (s *adminStore) Save(a models.AdminAccount) error {
	_, err := s.db.Exec(`
INSERT INTO admin_account (singleton, username, password_hash, display_name, created_at, last_password_change)
VALUES (TRUE, $1, $2, $3, $4, $5)
ON CONFLICT (singleton) DO UPDATE
SET username = EXCLUDED.username,
    password_hash = EXCLUDED.password_hash,
    display_name = EXCLUDED.display_name,
    last_password_change = EXCLUDED.last_password_change
`, a.Username, a.PasswordHash, a.DisplayName, a.CreatedAt, a.LastPasswordChange)
	return err
}
