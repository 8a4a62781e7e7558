package models

import "time"

// Material is an uploaded study document plus its metadata. IDs are
// millisecond timestamps, kept unique at creation time by the store.
type Material struct {
	ID            int64      `json:"id" db:"id"`
	Title         string     `json:"title" db:"title"`
	Subject       string     `json:"subject" db:"subject"`
	Description   string     `json:"description" db:"description"`
	Uploader      string     `json:"uploader" db:"uploader"`
	FileName      string     `json:"fileName" db:"file_name"`
	FilePath      string     `json:"filePath" db:"file_path"`
	FileSize      int64      `json:"fileSize" db:"file_size"`
	FileType      string     `json:"fileType" db:"file_type"`
	UploadDate    time.Time  `json:"uploadDate" db:"upload_date"`
	UpdatedDate   *time.Time `json:"updatedDate,omitempty" db:"updated_date"`
	ViewCount     int64      `json:"viewCount" db:"view_count"`
	DownloadCount int64      `json:"downloadCount" db:"download_count"`
	Tags          []string   `json:"tags"`
	IPAddress     string     `json:"ipAddress,omitempty" db:"ip_address"`
}

type Comment struct {
	ID         int64     `json:"id" db:"id"`
	MaterialID int64     `json:"materialId" db:"material_id"`
	Author     string    `json:"author" db:"author"`
	Text       string    `json:"text" db:"body"`
	Rating     float64   `json:"rating" db:"rating"`
	CreatedAt  time.Time `json:"createdAt" db:"created_at"`
	UpdatedAt  time.Time `json:"updatedAt" db:"updated_at"`
}

// Rating rows are unique per (MaterialID, UserID); a later submission for
// the same pair replaces the value in place, keeping ID and CreatedAt.
type Rating struct {
	ID         int64     `json:"id" db:"id"`
	MaterialID int64     `json:"materialId" db:"material_id"`
	UserID     string    `json:"userId" db:"user_id"`
	Rating     float64   `json:"rating" db:"rating"`
	CreatedAt  time.Time `json:"createdAt" db:"created_at"`
	UpdatedAt  time.Time `json:"updatedAt" db:"updated_at"`
}

type User struct {
	ID                 string     `json:"id" db:"id"`
	Nickname           string     `json:"nickname" db:"nickname"`
	Email              string     `json:"email" db:"email"`
	ProfileImage       string     `json:"profileImage" db:"profile_image"`
	Bio                string     `json:"bio" db:"bio"`
	Role               string     `json:"role" db:"role"`
	UploadedMaterials  []int64    `json:"uploadedMaterials"`
	FavoritesMaterials []int64    `json:"favoritesMaterials"`
	CreatedAt          time.Time  `json:"createdAt" db:"created_at"`
	UpdatedAt          *time.Time `json:"updatedAt,omitempty" db:"updated_at"`
	LastLoginAt        time.Time  `json:"lastLoginAt" db:"last_login_at"`
}

// AdminAccount is a singleton. The password is stored as a bcrypt hash and
// never serialized into API responses.
type AdminAccount struct {
	Username           string     `json:"username" db:"username"`
	PasswordHash       string     `json:"-" db:"password_hash"`
	DisplayName        string     `json:"displayName" db:"display_name"`
	CreatedAt          time.Time  `json:"createdAt" db:"created_at"`
	LastPasswordChange *time.Time `json:"lastPasswordChange,omitempty" db:"last_password_change"`
}
