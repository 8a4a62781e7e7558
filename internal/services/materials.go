package services

import (
	"sort"
	"strings"
	"time"

	"studyshare-backend-go/internal/models"
)

type RecentUpload struct {
	ID         int64     `json:"id"`
	Title      string    `json:"title"`
	Subject    string    `json:"subject"`
	Uploader   string    `json:"uploader"`
	UploadDate time.Time `json:"uploadDate"`
	IPAddress  string    `json:"ipAddress"`
}

type DashboardStats struct {
	TotalMaterials int            `json:"totalMaterials"`
	TotalViews     int64          `json:"totalViews"`
	TotalDownloads int64          `json:"totalDownloads"`
	SubjectStats   map[string]int `json:"subjectStats"`
	FileTypeStats  map[string]int `json:"fileTypeStats"`
	RecentUploads  []RecentUpload `json:"recentUploads"`
}

// FileTypeBucket groups MIME types the way the admin dashboard displays
// them: anything mentioning pdf is PDF, anything mentioning image is 画像,
// the rest is その他.
func FileTypeBucket(contentType string) string {
	lowered := strings.ToLower(contentType)
	switch {
	case strings.Contains(lowered, "pdf"):
		return "PDF"
	case strings.Contains(lowered, "image"):
		return "画像"
	default:
		return "その他"
	}
}

// BuildDashboardStats aggregates the whole material collection in one
// pass, matching the full-scan contract of the stats endpoint.
func BuildDashboardStats(materials []models.Material) DashboardStats {
	stats := DashboardStats{
		TotalMaterials: len(materials),
		SubjectStats:   map[string]int{},
		FileTypeStats:  map[string]int{},
		RecentUploads:  []RecentUpload{},
	}
	for _, m := range materials {
		stats.TotalViews += m.ViewCount
		stats.TotalDownloads += m.DownloadCount
		subject := m.Subject
		if strings.TrimSpace(subject) == "" {
			subject = "その他"
		}
		stats.SubjectStats[subject]++
		stats.FileTypeStats[FileTypeBucket(m.FileType)]++
	}

	recent := make([]models.Material, len(materials))
	copy(recent, materials)
	sort.SliceStable(recent, func(i, j int) bool {
		return recent[i].UploadDate.After(recent[j].UploadDate)
	})
	if len(recent) > 10 {
		recent = recent[:10]
	}
	for _, m := range recent {
		ip := m.IPAddress
		if strings.TrimSpace(ip) == "" {
			ip = "未記録"
		}
		stats.RecentUploads = append(stats.RecentUploads, RecentUpload{
			ID:         m.ID,
			Title:      m.Title,
			Subject:    m.Subject,
			Uploader:   m.Uploader,
			UploadDate: m.UploadDate,
			IPAddress:  ip,
		})
	}
	return stats
}
