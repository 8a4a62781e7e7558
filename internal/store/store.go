// Package store defines the repository contracts for every persisted
// collection. Two backends implement them: jsonfile (one JSON array file
// per collection, the default) and postgres.
package store

import (
	"errors"

	"studyshare-backend-go/internal/models"
)

// ErrNotFound is returned for unknown identifiers. Handlers translate it
// to 404.
var ErrNotFound = errors.New("record not found")

// MaterialPatch carries a partial update: only non-nil fields overwrite
// the stored values.
type MaterialPatch struct {
	Title       *string
	Subject     *string
	Description *string
	Uploader    *string
	Tags        *[]string
}

type UserPatch struct {
	Nickname     *string
	Email        *string
	ProfileImage *string
	Bio          *string
}

type Materials interface {
	// List returns every material in insertion order.
	List() ([]models.Material, error)
	Get(id int64) (models.Material, error)
	// Create assigns a unique millisecond-timestamp id, zeroes the
	// counters and persists the record.
	Create(m models.Material) (models.Material, error)
	Update(id int64, patch MaterialPatch) (models.Material, error)
	Delete(id int64) error
	IncrementView(id int64) (models.Material, error)
	IncrementDownload(id int64) (models.Material, error)
}

type Comments interface {
	// List returns all comments, or only those of one material when
	// materialID is non-nil.
	List(materialID *int64) ([]models.Comment, error)
	Create(c models.Comment) (models.Comment, error)
}

type Ratings interface {
	List(materialID *int64) ([]models.Rating, error)
	// Upsert replaces the row for (materialID, userID) in place when one
	// exists, keeping its id and createdAt; otherwise it appends.
	Upsert(materialID int64, userID string, rating float64) (models.Rating, error)
}

type Users interface {
	List() ([]models.User, error)
	Get(id string) (models.User, error)
	Create(u models.User) (models.User, error)
	Update(id string, patch UserPatch) (models.User, error)
	Delete(id string) error
}

// Admin holds the singleton back-office account.
type Admin interface {
	Get() (models.AdminAccount, error)
	Save(a models.AdminAccount) error
}

type Stores struct {
	Materials Materials
	Comments  Comments
	Ratings   Ratings
	Users     Users
	Admin     Admin
}
