package handlers

import (
	"context"

	"github.com/sendgrid/sendgrid-go"
	"github.com/sendgrid/sendgrid-go/helpers/mail"
	"go.mongodb.org/mongo-driver/bson"
	"go.uber.org/zap"

	"github.com/reunite-app/missing-persons-api/databases"
	"github.com/reunite-app/missing-persons-api/models"
	templates "github.com/reunite-app/missing-persons-api/templates/html"
)

// Mailer sends case lifecycle notifications to the reporting user. Sending is
// best effort: delivery failures are logged and never fail the triggering
// request.
type Mailer struct {
	APIKey string
	From   string
	UDB    databases.UserDatabase
}

// NewMailer wires a mailer. An empty apiKey disables sending entirely, which
// is how local environments run.
func NewMailer(apiKey, from string, udb databases.UserDatabase) *Mailer {
	return &Mailer{APIKey: apiKey, From: from, UDB: udb}
}

// NotifyCaseStatus emails the case's reporting user about a lifecycle change
func (m *Mailer) NotifyCaseStatus(ctx context.Context, caseDoc *models.Case, subject, body string) {
	if m == nil || m.APIKey == "" {
		zap.S().Debugw("email disabled, skipping notification", "caseId", caseDoc.CaseID)
		return
	}

	reporter, err := m.UDB.FindOne(ctx, bson.M{"_id": caseDoc.ReportedBy})
	if err != nil {
		zap.S().Warnw("could not look up reporter for notification",
			"caseId", caseDoc.CaseID,
			"error", err,
		)
		return
	}

	from := mail.NewEmail("Missing Persons Portal", m.From)
	to := mail.NewEmail(reporter.Name, reporter.Email)
	htmlContent := templates.RenderCaseStatusEmail(subject, body)
	message := mail.NewSingleEmail(from, subject, to, body, htmlContent)

	client := sendgrid.NewSendClient(m.APIKey)
	resp, err := client.Send(message)
	if err != nil {
		zap.S().Errorw("failed to send case notification",
			"caseId", caseDoc.CaseID,
			"error", err,
		)
		return
	}
	zap.S().Infow("case notification sent",
		"caseId", caseDoc.CaseID,
		"statusCode", resp.StatusCode,
	)
}
