package push

import (
	"context"

	"firebase.google.com/go/v4/messaging"
	"go.uber.org/zap"
)

// MaxMulticastTokens is the most registration tokens FCM accepts in a single
// multicast message.
const MaxMulticastTokens = 500

const flutterClickAction = "FLUTTER_NOTIFICATION_CLICK"

type Pusher interface {
	SendPushes(ctx context.Context, userIDs []string, title, body string, data map[string]string) error
}

type NoOpPusher struct{}

func (n *NoOpPusher) SendPushes(_ context.Context, _ []string, _, _ string, _ map[string]string) error {
	return nil
}

type FCMPusher struct {
	log    *zap.Logger
	tokens TokenStore
	client FCMClient
}

type FCMClient interface {
	SendEachForMulticast(ctx context.Context, message *messaging.MulticastMessage) (*messaging.BatchResponse, error)
}

func NewFCMPusher(log *zap.Logger, tokens TokenStore, client FCMClient) *FCMPusher {
	return &FCMPusher{
		log:    log,
		tokens: tokens,
		client: client,
	}
}

func (p *FCMPusher) SendPushes(ctx context.Context, users []string, title, body string, data map[string]string) error {
	pushTokens, err := p.tokens.GetTokensBatch(ctx, users...)
	if err != nil {
		return err
	}

	if len(pushTokens) == 0 {
		p.log.Debug("Dropping push, no tokens for users", zap.Int("num_users", len(users)))
		return nil
	}

	for start := 0; start < len(pushTokens); start += MaxMulticastTokens {
		end := min(start+MaxMulticastTokens, len(pushTokens))
		if err := p.sendBatch(ctx, pushTokens[start:end], title, body, data); err != nil {
			return err
		}
	}

	return nil
}

func (p *FCMPusher) sendBatch(ctx context.Context, pushTokens []Token, title, body string, data map[string]string) error {
	tokens := extractTokens(pushTokens)
	message := p.buildMessage(tokens, title, body, data)

	response, err := p.client.SendEachForMulticast(ctx, message)
	if err != nil {
		return err
	}

	p.log.Debug("Send pushes", zap.Int("success", response.SuccessCount), zap.Int("failed", response.FailureCount))
	p.processResponse(response, pushTokens, tokens)

	return nil
}

func (p *FCMPusher) buildMessage(tokens []string, title, body string, data map[string]string) *messaging.MulticastMessage {
	badge := 1

	return &messaging.MulticastMessage{
		Tokens: tokens,
		Notification: &messaging.Notification{
			Title: title,
			Body:  body,
		},
		Android: &messaging.AndroidConfig{
			Priority: "high",
			Notification: &messaging.AndroidNotification{
				Sound:       "default",
				ClickAction: flutterClickAction,
			},
		},
		APNS: &messaging.APNSConfig{
			Payload: &messaging.APNSPayload{
				Aps: &messaging.Aps{
					Alert: &messaging.ApsAlert{
						Title: title,
						Body:  body,
					},
					Sound:    "default",
					Badge:    &badge,
					ThreadID: data["type"],
				},
			},
		},
		Data: data,
	}
}

func (p *FCMPusher) processResponse(response *messaging.BatchResponse, pushTokens []Token, tokens []string) {
	var invalidTokens []Token

	for i, resp := range response.Responses {
		if resp == nil || resp.Success {
			continue
		}

		if messaging.IsUnregistered(resp.Error) {
			invalidTokens = append(invalidTokens, pushTokens[i])
		} else {
			p.log.Warn("Failed to send push notification",
				zap.Error(resp.Error),
				zap.String("token", tokens[i]),
			)
		}
	}

	if len(invalidTokens) > 0 {
		go func() {
			ctx := context.Background()
			for _, token := range invalidTokens {
				if err := p.tokens.DeleteToken(ctx, token.Type, token.Token); err != nil {
					p.log.Warn("Failed to remove invalid token", zap.String("user_id", token.UserID), zap.Error(err))
				}
			}
			p.log.Debug("Removed invalid tokens", zap.Int("count", len(invalidTokens)))
		}()
	}
}

func extractTokens(pushTokens []Token) []string {
	tokens := make([]string, len(pushTokens))
	for i, token := range pushTokens {
		tokens[i] = token.Token
	}
	return tokens
}
