package services

import (
	"context"
	"fmt"
	"html/template"
	"log"
	"strings"
	"time"

	"faculty-appraisal-api/config"
	"faculty-appraisal-api/models"
	"faculty-appraisal-api/utils"

	"gorm.io/gorm"
)

// MailMessage is an outgoing e-mail produced by a workflow transition.
type MailMessage struct {
	To      []string
	Subject string
	HTML    string
}

// Notifier delivers e-mails after a transition has been committed.
type Notifier interface {
	Notify(ctx context.Context, messages []MailMessage)
}

// MailNotifier sends through SMTP and only logs failures: a lost e-mail never
// undoes a committed decision.
type MailNotifier struct {
	send func(to []string, subject, html string) error
}

func NewMailNotifier() *MailNotifier {
	return &MailNotifier{send: config.SendMail}
}

func (n *MailNotifier) Notify(ctx context.Context, messages []MailMessage) {
	for _, msg := range messages {
		if ctx.Err() != nil {
			log.Printf("notification email aborted: %v", ctx.Err())
			return
		}
		if err := n.send(msg.To, msg.Subject, msg.HTML); err != nil {
			log.Printf("notification email send failed (subject=%q to=%v): %v", msg.Subject, msg.To, err)
		}
	}
}

type notice struct {
	title   string
	message string
	kind    string // info|success|warning|error
}

// notify stores an in-app notification for every recipient and returns the
// matching e-mails for dispatch after commit.
func notify(tx *gorm.DB, recipients []models.User, appraisal *models.Appraisal, n notice, now time.Time) ([]MailMessage, error) {
	var mails []MailMessage
	for _, user := range recipients {
		appraisalID := appraisal.AppraisalID
		row := models.Notification{
			UserID:             user.UserID,
			Title:              n.title,
			Message:            n.message,
			Type:               n.kind,
			RelatedAppraisalID: &appraisalID,
			CreateAt:           now,
		}
		if err := tx.Create(&row).Error; err != nil {
			return nil, fmt.Errorf("create notification: %w", err)
		}
		if !utils.ValidateEmail(strings.TrimSpace(user.Email)) {
			continue
		}
		mails = append(mails, MailMessage{
			To:      []string{strings.TrimSpace(user.Email)},
			Subject: n.title,
			HTML:    buildNotificationEmail(n.title, user.Name, n.message),
		})
	}
	return mails, nil
}

// usersByRole loads active users with role, optionally within one department.
func usersByRole(tx *gorm.DB, role models.Role, department string) ([]models.User, error) {
	var users []models.User
	query := tx.Where("role = ? AND delete_at IS NULL", role)
	if department != "" {
		query = query.Where("department = ?", department)
	}
	if err := query.Find(&users).Error; err != nil {
		return nil, fmt.Errorf("load %s users: %w", role, err)
	}
	return users, nil
}

func buildNotificationEmail(subject, name, message string) string {
	escapedSubject := template.HTMLEscapeString(subject)
	escapedGreeting := template.HTMLEscapeString(fmt.Sprintf("Dear %s,", name))
	escapedMessage := template.HTMLEscapeString(strings.TrimSpace(message))
	escapedMessage = strings.ReplaceAll(strings.ReplaceAll(escapedMessage, "\r\n", "\n"), "\r", "\n")
	escapedMessage = strings.ReplaceAll(escapedMessage, "\n", "<br />")

	return fmt.Sprintf(`<!DOCTYPE html>
<html lang="en">
<head>
<meta charset="utf-8">
<meta name="viewport" content="width=device-width, initial-scale=1">
<title>%s</title>
</head>
<body style="margin:0;padding:0;background-color:#f9fafb;font-family:'Segoe UI',Tahoma,Arial,sans-serif;">
<div style="max-width:640px;margin:0 auto;padding:24px 20px;">
  <div style="background-color:#ffffff;border:1px solid #e5e7eb;border-radius:12px;padding:24px 24px 28px 24px;">
    <p style="margin:0 0 16px 0;font-size:16px;line-height:1.7;color:#111827;">%s</p>
    <p style="margin:0 0 0 0;font-size:16px;line-height:1.7;color:#111827;word-break:break-word;">%s</p>
  </div>
</div>
</body>
</html>`, escapedSubject, escapedGreeting, escapedMessage)
}
