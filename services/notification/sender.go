package notification

import (
	"context"
	"errors"
	"fmt"

	firebase "firebase.google.com/go/v4"
	"firebase.google.com/go/v4/messaging"
	"go.uber.org/zap"
	"google.golang.org/api/option"
)

// ErrNoDeviceToken is returned when the recipient never registered a device.
var ErrNoDeviceToken = errors.New("recipient has no device token")

// Sender delivers one push message to a device token.
type Sender interface {
	Send(ctx context.Context, token string, msg Message, data map[string]string) error
}

type FCMSender struct {
	client *messaging.Client
}

// NewFCMSender initializes the Firebase App and Messaging client.
func NewFCMSender(ctx context.Context, credentialsFile string) (*FCMSender, error) {
	app, err := firebase.NewApp(ctx, nil, option.WithCredentialsFile(credentialsFile))
	if err != nil {
		return nil, fmt.Errorf("firebase: error initializing app: %w", err)
	}
	client, err := app.Messaging(ctx)
	if err != nil {
		return nil, fmt.Errorf("firebase: error getting Messaging client: %w", err)
	}
	return &FCMSender{client: client}, nil
}

func (s *FCMSender) Send(ctx context.Context, token string, msg Message, data map[string]string) error {
	if token == "" {
		return ErrNoDeviceToken
	}
	fcmMsg := &messaging.Message{
		Token: token,
		Notification: &messaging.Notification{
			Title: msg.Title,
			Body:  msg.Body,
		},
		Data: data,
		Android: &messaging.AndroidConfig{
			Priority: "high",
		},
		APNS: &messaging.APNSConfig{
			Headers: map[string]string{
				"apns-priority":  "10",
				"apns-push-type": "alert",
			},
			Payload: &messaging.APNSPayload{
				Aps: &messaging.Aps{Sound: "default"},
			},
		},
	}
	if _, err := s.client.Send(ctx, fcmMsg); err != nil {
		return fmt.Errorf("failed to send FCM message: %w", err)
	}
	return nil
}

// LogSender writes messages to the log instead of delivering them.
type LogSender struct {
	Logger *zap.Logger
}

func (s LogSender) Send(ctx context.Context, token string, msg Message, data map[string]string) error {
	s.Logger.Info("push notification",
		zap.String("title", msg.Title),
		zap.String("body", msg.Body),
		zap.Bool("hasToken", token != ""),
		zap.Any("data", data),
	)
	return nil
}
