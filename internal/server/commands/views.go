package commands

import (
	"time"

	"github.com/dmitrijs2005/guildgate/internal/server/models"
	"github.com/dmitrijs2005/guildgate/internal/server/services"
)

// ApplicationView is the full staff view of an application.
type ApplicationView struct {
	ID              string     `json:"id"`
	ApplicantID     string     `json:"applicant_id"`
	Username        string     `json:"username,omitempty"`
	DisplayName     string     `json:"display_name"`
	GameID          string     `json:"game_id"`
	AvatarURL       string     `json:"avatar_url,omitempty"`
	ApplicationText string     `json:"application_text"`
	Status          string     `json:"status"`
	Photos          []string   `json:"photos"`
	PhotoCount      int        `json:"photo_count"`
	CreatedAt       time.Time  `json:"created_at"`
	ReviewedBy      string     `json:"reviewed_by,omitempty"`
	ReviewedAt      *time.Time `json:"reviewed_at,omitempty"`
	RejectionReason string     `json:"rejection_reason,omitempty"`
}

// ApplicationSummary is one row of a review page.
type ApplicationSummary struct {
	ID          string    `json:"id"`
	ApplicantID string    `json:"applicant_id"`
	DisplayName string    `json:"display_name"`
	GameID      string    `json:"game_id"`
	PhotoCount  int       `json:"photo_count"`
	CreatedAt   time.Time `json:"created_at"`
}

type PageView struct {
	Items     []ApplicationSummary `json:"items"`
	Page      int                  `json:"page"`
	PageCount int                  `json:"page_count"`
	Total     int                  `json:"total"`
	HasPrev   bool                 `json:"has_prev"`
	HasNext   bool                 `json:"has_next"`
}

type SubmitView struct {
	ApplicationID string `json:"application_id"`
}

type GreetView struct {
	DirectMessage bool `json:"direct_message"`
	Fallback      bool `json:"fallback"`
}

type DecisionView struct {
	Application       ApplicationView `json:"application"`
	ApplicantNotified bool            `json:"applicant_notified"`
	WelcomePosted     bool            `json:"welcome_posted"`
}

type MembershipView struct {
	Member      bool             `json:"member"`
	Application *ApplicationView `json:"application,omitempty"`
}

func applicationView(app *models.Application) ApplicationView {
	photos := app.Photos
	if photos == nil {
		photos = []string{}
	}
	return ApplicationView{
		ID:              app.ID,
		ApplicantID:     app.ApplicantID,
		Username:        app.Username,
		DisplayName:     app.DisplayName,
		GameID:          app.GameID,
		AvatarURL:       app.AvatarURL,
		ApplicationText: app.ApplicationText,
		Status:          string(app.Status),
		Photos:          photos,
		PhotoCount:      len(photos),
		CreatedAt:       app.CreatedAt,
		ReviewedBy:      app.ReviewedBy,
		ReviewedAt:      app.ReviewedAt,
		RejectionReason: app.RejectionReason,
	}
}

func detailView(d *services.ApplicationDetail) ApplicationView {
	v := applicationView(d.Application)
	v.Photos = d.PhotoURLs
	v.PhotoCount = d.PhotoCount
	return v
}

func pageView(p services.Page) PageView {
	items := make([]ApplicationSummary, 0, len(p.Items))
	for _, a := range p.Items {
		items = append(items, ApplicationSummary{
			ID:          a.ID,
			ApplicantID: a.ApplicantID,
			DisplayName: a.DisplayName,
			GameID:      a.GameID,
			PhotoCount:  len(a.Photos),
			CreatedAt:   a.CreatedAt,
		})
	}
	return PageView{
		Items:     items,
		Page:      p.Index,
		PageCount: p.PageCount,
		Total:     p.Total,
		HasPrev:   p.HasPrev,
		HasNext:   p.HasNext,
	}
}
