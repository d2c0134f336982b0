package templates

import (
	"fmt"
	"html"
	"strings"
)

// RenderCaseStatusEmail generates branded HTML for a case lifecycle
// notification. The subject is displayed in the header banner, and bodyContent
// is plain text that gets HTML-escaped and has newlines converted to <br>
// tags.
func RenderCaseStatusEmail(subject, bodyContent string) string {
	// HTML-escape the body to prevent injection, then convert newlines to <br>
	escaped := html.EscapeString(bodyContent)
	htmlBody := strings.ReplaceAll(escaped, "\n", "<br>")

	safeSubject := html.EscapeString(subject)

	return fmt.Sprintf(`<!DOCTYPE html PUBLIC "-//W3C//DTD XHTML 1.0 Strict//EN" "http://www.w3.org/TR/xhtml1/DTD/xhtml1-strict.dtd">
<html xmlns="http://www.w3.org/1999/xhtml">
<head>
  <meta http-equiv="Content-Type" content="text/html; charset=utf-8">
  <meta name="viewport" content="width=device-width, initial-scale=1, minimum-scale=1, maximum-scale=1">
  <title>%s</title>
  <style type="text/css">
    body { font-family: 'Segoe UI', Tahoma, Geneva, Verdana, sans-serif; margin: 0; padding: 0; background-color: #f4f4f7; }
    .container { max-width: 600px; margin: 0 auto; background-color: #ffffff; }
    .header { background: linear-gradient(135deg, #1e3a8a 0%%, #3b82f6 100%%); padding: 40px 30px; text-align: center; }
    .header h1 { color: #fff; margin: 0; font-size: 24px; font-weight: 700; }
    .content { padding: 40px 30px; color: #1f2937; line-height: 1.6; font-size: 15px; }
    .footer { padding: 30px; text-align: center; color: #6b7280; font-size: 12px; border-top: 1px solid rgba(0,0,0,0.08); }
  </style>
</head>
<body>
  <div class="container">
    <div class="header">
      <h1>%s</h1>
    </div>
    <div class="content">
      %s
    </div>
    <div class="footer">
      <p>Missing Persons Portal &mdash; this mailbox is not monitored.</p>
    </div>
  </div>
</body>
</html>`, safeSubject, safeSubject, htmlBody)
}

// CaseApprovedBody returns the plain-text body for an approval notification
func CaseApprovedBody(name, caseID string) string {
	return fmt.Sprintf(`Hello %s,

Your missing person report %s has been reviewed and approved by our team.
It is now publicly visible and location tracking is active.

You can follow updates from your dashboard at any time.`, name, caseID)
}

// CaseRejectedBody returns the plain-text body for a rejection notification
func CaseRejectedBody(name, caseID, reason string) string {
	return fmt.Sprintf(`Hello %s,

Your missing person report %s could not be approved.

Reason: %s

You may submit a new report with corrected details.`, name, caseID, reason)
}

// CaseResolvedBody returns the plain-text body for a resolution notification
func CaseResolvedBody(name, caseID, reason string) string {
	return fmt.Sprintf(`Hello %s,

Case %s has been marked as resolved.

%s

Thank you for using the portal.`, name, caseID, reason)
}
