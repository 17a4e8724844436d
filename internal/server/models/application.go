// Package models holds the server-side domain types of the membership
// application workflow.
package models

import (
	"strings"
	"time"
)

// MaxPhotos caps the number of photo references kept on an application.
const MaxPhotos = 5

// Status is the lifecycle state of an Application.
type Status string

const (
	StatusPending  Status = "pending"
	StatusApproved Status = "approved"
	StatusRejected Status = "rejected"
)

// Valid reports whether s is one of the known statuses.
func (s Status) Valid() bool {
	switch s {
	case StatusPending, StatusApproved, StatusRejected:
		return true
	}
	return false
}

// Terminal reports whether s can no longer change.
func (s Status) Terminal() bool {
	return s == StatusApproved || s == StatusRejected
}

// Label returns the upper-case form shown to staff.
func (s Status) Label() string {
	if !s.Valid() {
		return "UNSPECIFIED"
	}
	return strings.ToUpper(string(s))
}

// Application is a membership request. ID, ApplicantID and CreatedAt never
// change after creation; Photos is written only by the photo session of the
// application; the review fields are written once, by a decision.
type Application struct {
	ID              string
	ApplicantID     string
	Username        string
	DisplayName     string
	GameID          string
	AvatarURL       string
	ApplicationText string
	Photos          []string
	Status          Status
	CreatedAt       time.Time
	ReviewedBy      string
	ReviewedAt      *time.Time
	RejectionReason string
}

// Clone returns a deep copy, so callers can hand records across goroutines.
func (a *Application) Clone() *Application {
	if a == nil {
		return nil
	}
	c := *a
	c.Photos = append([]string(nil), a.Photos...)
	if c.Photos == nil {
		c.Photos = []string{}
	}
	if a.ReviewedAt != nil {
		t := *a.ReviewedAt
		c.ReviewedAt = &t
	}
	return &c
}

// Decision is the terminal review metadata written onto an Application.
type Decision struct {
	Status          Status
	ReviewedBy      string
	ReviewedAt      time.Time
	RejectionReason string
}
