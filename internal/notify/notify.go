package notify

import (
	"crypto/ecdsa"
	"crypto/elliptic"
	"crypto/rand"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	webpush "github.com/SherClockHolmes/webpush-go"

	"github.com/mwieland/terminus/internal/model"
)

// ErrExpired is returned when a push subscription is no longer valid (410 Gone).
var ErrExpired = errors.New("push subscription expired")

// Payload is the JSON sent to the push service.
type Payload struct {
	Title string `json:"title"`
	Body  string `json:"body"`
	Tag   string `json:"tag,omitempty"`
}

// SubscriptionSource lists the registered push endpoints and prunes dead ones.
type SubscriptionSource interface {
	List() ([]model.Subscription, error)
	DeleteByEndpoint(endpoint string) error
}

// Fallback presents a notification in-app when push delivery is not possible.
type Fallback interface {
	Alert(title, body string)
}

// FallbackFunc adapts a function to the Fallback interface.
type FallbackFunc func(title, body string)

func (f FallbackFunc) Alert(title, body string) { f(title, body) }

// Service delivers reminder notifications over Web Push to every registered
// subscription, falling back to an in-app alert when the capability is
// missing (no VAPID keys, no subscriptions, or every send failed). Callers
// treat both paths as delivered.
type Service struct {
	subs       SubscriptionSource
	fallback   Fallback
	publicKey  string
	privateKey string
	logger     *slog.Logger
}

// NewService creates a push service. Empty VAPID keys put the service in
// permanent fallback mode.
func NewService(subs SubscriptionSource, fallback Fallback, publicKey, privateKey string, logger *slog.Logger) *Service {
	return &Service{
		subs:       subs,
		fallback:   fallback,
		publicKey:  publicKey,
		privateKey: privateKey,
		logger:     logger,
	}
}

// VAPIDPublicKey returns the key browsers need to subscribe.
func (s *Service) VAPIDPublicKey() string {
	return s.publicKey
}

// Notify sends the notification to all subscriptions, best-effort.
// Subscriptions the push service reports as gone are pruned.
func (s *Service) Notify(title, body string) {
	if s.privateKey == "" || s.subs == nil {
		s.fallback.Alert(title, body)
		return
	}

	subs, err := s.subs.List()
	if err != nil {
		s.logger.Error("list push subscriptions", "error", err)
		s.fallback.Alert(title, body)
		return
	}
	if len(subs) == 0 {
		s.fallback.Alert(title, body)
		return
	}

	payload := Payload{Title: title, Body: body, Tag: "reminder"}
	delivered := false
	for i := range subs {
		if err := s.send(&subs[i], payload); err != nil {
			if errors.Is(err, ErrExpired) {
				if delErr := s.subs.DeleteByEndpoint(subs[i].Endpoint); delErr != nil {
					s.logger.Error("prune expired subscription", "error", delErr)
				}
			} else {
				s.logger.Error("send push notification", "error", err)
			}
			continue
		}
		delivered = true
	}

	if !delivered {
		s.fallback.Alert(title, body)
	}
}

func (s *Service) send(sub *model.Subscription, payload Payload) error {
	data, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal payload: %w", err)
	}

	resp, err := webpush.SendNotification(data, &webpush.Subscription{
		Endpoint: sub.Endpoint,
		Keys: webpush.Keys{
			P256dh: sub.P256dhKey,
			Auth:   sub.AuthKey,
		},
	}, &webpush.Options{
		VAPIDPublicKey:  s.publicKey,
		VAPIDPrivateKey: s.privateKey,
		Subscriber:      "mailto:noreply@terminus.local",
		TTL:             3600,
	})
	if err != nil {
		return fmt.Errorf("send push: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusGone {
		return ErrExpired
	}
	if resp.StatusCode >= 400 {
		return fmt.Errorf("push service returned %d", resp.StatusCode)
	}

	return nil
}

// GenerateVAPIDKeys generates an ECDSA P-256 key pair for VAPID, for
// first-run setup.
func GenerateVAPIDKeys() (publicKey, privateKey string, err error) {
	key, err := ecdsa.GenerateKey(elliptic.P256(), rand.Reader)
	if err != nil {
		return "", "", fmt.Errorf("generate ECDSA key: %w", err)
	}

	pubBytes := elliptic.Marshal(elliptic.P256(), key.PublicKey.X, key.PublicKey.Y)
	publicKey = base64.RawURLEncoding.EncodeToString(pubBytes)
	privateKey = base64.RawURLEncoding.EncodeToString(key.D.Bytes())

	return publicKey, privateKey, nil
}
