package services

import "studyshare-backend-go/internal/models"

type RatingStats struct {
	Count   int     `json:"count"`
	Average float64 `json:"average"`
}

// BuildRatingStats computes the arithmetic mean of the given rows; the
// average is 0 when there are none.
func BuildRatingStats(rows []models.Rating) RatingStats {
	stats := RatingStats{Count: len(rows)}
	if len(rows) == 0 {
		return stats
	}
	var sum float64
	for _, r := range rows {
		sum += r.Rating
	}
	stats.Average = sum / float64(len(rows))
	return stats
}
