package notify

import (
	"context"
	"fmt"
	"strconv"
	"time"

	firebase "firebase.google.com/go/v4"
	"firebase.google.com/go/v4/messaging"
	"google.golang.org/api/option"

	"playpark-backend/internal/domain"
	"playpark-backend/internal/logger"
)

// FCMSink pushes lifecycle events to the branch's Firebase Cloud
// Messaging topic so display tablets receive timer state without an
// open connection to the server. Best effort, asynchronous.
type FCMSink struct {
	client *messaging.Client
}

func NewFCMSink(ctx context.Context, credentialsFile string) (*FCMSink, error) {
	app, err := firebase.NewApp(ctx, nil, option.WithCredentialsFile(credentialsFile))
	if err != nil {
		return nil, fmt.Errorf("failed to initialize firebase app: %w", err)
	}
	client, err := app.Messaging(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize fcm client: %w", err)
	}
	return &FCMSink{client: client}, nil
}

func (s *FCMSink) Publish(branchID string, event domain.Event) {
	go s.push(branchID, event)
}

func (s *FCMSink) push(branchID string, event domain.Event) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	data := map[string]string{
		"type":       string(event.Type),
		"session_id": event.SessionID,
		"branch_id":  event.BranchID,
		"game_id":    event.GameID,
		"at":         event.At.Format(time.RFC3339),
	}
	if event.Type == domain.EventTick || event.Type == domain.EventWarning {
		data["remaining_minutes"] = strconv.FormatInt(int64(event.RemainingMinutes), 10)
	}
	if !event.ExpiresAt.IsZero() {
		data["expires_at"] = event.ExpiresAt.Format(time.RFC3339)
	}

	msg := &messaging.Message{
		Topic: "branch-" + branchID,
		Data:  data,
	}
	if _, err := s.client.Send(ctx, msg); err != nil {
		logger.Error("Failed to push event to FCM topic",
			"branch_id", branchID, "session_id", event.SessionID, "event", event.Type, "error", err)
	}
}
