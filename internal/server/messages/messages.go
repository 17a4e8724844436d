// Package messages renders the user-facing notification text sent through
// the gateway.
package messages

import (
	"fmt"
	"strings"
	"time"

	"github.com/dmitrijs2005/guildgate/internal/server/models"
)

const timeLayout = "2006-01-02 15:04:05"

// Mention formats a platform mention of identity.
func Mention(identity string) string {
	return "<@" + identity + ">"
}

// Welcome is the prompt sent to a newly joined member.
func Welcome() string {
	return "Welcome! Thanks for your interest in joining us.\n\n" +
		"To keep the community healthy every new member fills in an application. " +
		"Use the apply command to start."
}

// WelcomeFallback is posted to the system channel when the welcome DM fails.
func WelcomeFallback(identity string) string {
	return Mention(identity) + ", please check your direct messages to finish your application."
}

// UploadInstructions follows a successful form submission.
func UploadInstructions(applicationID string, window time.Duration) string {
	return fmt.Sprintf("Application #%s submitted.\n\n"+
		"Upload your profile and application screenshots now (up to %d images) by attaching them in this channel. "+
		"You have %s; the application goes to the staff automatically afterwards.",
		applicationID, models.MaxPhotos, humanDuration(window))
}

// Progress is the running upload status after each accepted photo.
func Progress(count int) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Uploaded %d/%d photos\n\n", count, models.MaxPhotos)
	for i := 1; i <= count; i++ {
		fmt.Fprintf(&b, "- photo %d received\n", i)
	}
	if count < models.MaxPhotos {
		b.WriteString("\nKeep uploading or wait for the application to be submitted automatically.")
	}
	return b.String()
}

// Complete is the terminal status of a photo collection session.
func Complete(applicationID string, count int) string {
	return fmt.Sprintf("Application complete!\n\nApplication #%s\nPhotos uploaded: %d\n\n"+
		"Your application has been handed to the staff. You will get the result by direct message.",
		applicationID, count)
}

// AdminAlert announces a finished application in the admin channel.
func AdminAlert(app *models.Application) string {
	return fmt.Sprintf("New application\n\nApplicant: %s\nApplication: #%s\nSubmitted: %s\nPhotos: %d\n\n"+
		"Open the review queue to process it.",
		Mention(app.ApplicantID), app.ID, app.CreatedAt.UTC().Format(timeLayout), len(app.Photos))
}

// Approved is sent to the applicant after approval.
func Approved() string {
	return "Congratulations, your application has been approved!\n\nWelcome aboard. A staff member will invite you shortly."
}

// Rejected is sent to the applicant after rejection.
func Rejected(reason string) string {
	return fmt.Sprintf("Sorry, your application was not approved.\n\nReason:\n%s\n\nYou are welcome to apply again.", reason)
}

// WelcomeBroadcast is posted to the welcome channel after approval.
func WelcomeBroadcast(app *models.Application) string {
	name := app.DisplayName
	if name == "" {
		name = app.ApplicantID
	}
	return fmt.Sprintf("Please welcome our new member **%s** (game id %s)!", name, app.GameID)
}

func humanDuration(d time.Duration) string {
	if d <= 0 {
		return "no time"
	}
	if d%time.Minute == 0 {
		m := int(d / time.Minute)
		if m == 1 {
			return "1 minute"
		}
		return fmt.Sprintf("%d minutes", m)
	}
	return d.Round(time.Second).String()
}
