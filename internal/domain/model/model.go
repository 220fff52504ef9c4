// Package model contains domain models passed between layers.
package model

import "time"

// UserID identifies a ranked subject.
type UserID int64

// User owns zero or more score records.
type User struct {
	ID        UserID
	Name      string
	CreatedAt time.Time
}

// Score is a single scoring event. Scores are never updated once created.
type Score struct {
	ID        int64
	UserID    UserID
	Value     int64
	CreatedAt time.Time
}

// Rank is the persisted ranking snapshot for one user.
type Rank struct {
	ID        int64
	UserID    UserID
	Rank      int   // 1 is best
	Score     int64 // total score at computation time
	CreatedAt time.Time
	UpdatedAt time.Time
}

// UserTotal is the sum of one user's score values.
type UserTotal struct {
	UserID UserID
	Total  int64
}

// RankedUser is what the order maker emits for every user holding scores.
type RankedUser struct {
	UserID     UserID
	Rank       int
	TotalScore int64
}
