package notify

import (
	"context"
	"fmt"
	"time"

	"github.com/sendgrid/sendgrid-go"
	"github.com/sendgrid/sendgrid-go/helpers/mail"

	"playpark-backend/internal/domain"
	"playpark-backend/internal/logger"
)

// EmailAlerter escalates expired sessions to branch operations by
// email: an expiry means the front-of-house missed both warnings and
// the vehicle is still out. Other event types are ignored. Delivery is
// asynchronous and failures are logged, never surfaced.
type EmailAlerter struct {
	apiKey     string
	fromEmail  string
	fromName   string
	branchRepo branchLookup
}

type branchLookup interface {
	GetByID(ctx context.Context, id string) (*domain.Branch, error)
}

func NewEmailAlerter(apiKey, fromEmail, fromName string, branchRepo branchLookup) *EmailAlerter {
	return &EmailAlerter{
		apiKey:     apiKey,
		fromEmail:  fromEmail,
		fromName:   fromName,
		branchRepo: branchRepo,
	}
}

func (a *EmailAlerter) Publish(branchID string, event domain.Event) {
	if event.Type != domain.EventExpired {
		return
	}
	go a.sendExpiryAlert(branchID, event)
}

func (a *EmailAlerter) sendExpiryAlert(branchID string, event domain.Event) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	branch, err := a.branchRepo.GetByID(ctx, branchID)
	if err != nil {
		logger.Error("Failed to look up branch for expiry alert", "branch_id", branchID, "error", err)
		return
	}
	if branch.OpsEmail == "" {
		return
	}

	from := mail.NewEmail(a.fromName, a.fromEmail)
	to := mail.NewEmail(branch.Name, branch.OpsEmail)
	subject := fmt.Sprintf("Session expired at %s", branch.Name)
	body := fmt.Sprintf(
		"Rental session %s (game %s) expired at %s and has not been returned.\nPlease collect the vehicle and close out the session.",
		event.SessionID, event.GameID, event.At.Format(time.RFC3339))
	message := mail.NewSingleEmail(from, subject, to, body, "")

	client := sendgrid.NewSendClient(a.apiKey)
	response, err := client.Send(message)
	if err != nil {
		logger.Error("Failed to send expiry alert", "branch_id", branchID, "session_id", event.SessionID, "error", err)
		return
	}
	if response.StatusCode >= 400 {
		logger.Error("Expiry alert rejected by SendGrid",
			"branch_id", branchID, "session_id", event.SessionID, "status", response.StatusCode)
		return
	}
	logger.Debug("Expiry alert sent", "branch_id", branchID, "session_id", event.SessionID)
}
