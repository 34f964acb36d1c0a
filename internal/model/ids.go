package model

import "github.com/google/uuid"

// NewReviewID generates an opaque 128-bit identifier for a review job.
func NewReviewID() string {
	return uuid.New().String()
}

// NewGradeID generates an opaque 128-bit identifier for a grade job.
func NewGradeID() string {
	return uuid.New().String()
}
