package storage

import (
	"database/sql"
	"fmt"

	"github.com/mwieland/terminus/internal/model"
)

// PushStore persists Web Push subscriptions registered by browser UIs.
type PushStore struct {
	db *sql.DB
}

func NewPushStore(db *sql.DB) *PushStore {
	return &PushStore{db: db}
}

// Upsert registers a subscription, replacing the keys of an existing one
// with the same endpoint.
func (s *PushStore) Upsert(endpoint, p256dh, auth, deviceName string) (*model.Subscription, error) {
	_, err := s.db.Exec(
		`INSERT INTO push_subscriptions (endpoint, p256dh_key, auth_key, device_name)
		 VALUES (?, ?, ?, ?)
		 ON CONFLICT(endpoint) DO UPDATE SET p256dh_key = excluded.p256dh_key, auth_key = excluded.auth_key, device_name = excluded.device_name`,
		endpoint, p256dh, auth, deviceName,
	)
	if err != nil {
		return nil, fmt.Errorf("upsert push subscription: %w", err)
	}
	return s.getByEndpoint(endpoint)
}

func (s *PushStore) getByEndpoint(endpoint string) (*model.Subscription, error) {
	var sub model.Subscription
	err := s.db.QueryRow(
		`SELECT id, endpoint, p256dh_key, auth_key, device_name, created_at
		 FROM push_subscriptions WHERE endpoint = ?`, endpoint,
	).Scan(&sub.ID, &sub.Endpoint, &sub.P256dhKey, &sub.AuthKey, &sub.DeviceName, &sub.CreatedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get push subscription by endpoint: %w", err)
	}
	return &sub, nil
}

// List returns all registered subscriptions, newest first.
func (s *PushStore) List() ([]model.Subscription, error) {
	rows, err := s.db.Query(
		`SELECT id, endpoint, p256dh_key, auth_key, device_name, created_at
		 FROM push_subscriptions ORDER BY created_at DESC, id DESC`,
	)
	if err != nil {
		return nil, fmt.Errorf("list push subscriptions: %w", err)
	}
	defer rows.Close()

	var subs []model.Subscription
	for rows.Next() {
		var sub model.Subscription
		if err := rows.Scan(&sub.ID, &sub.Endpoint, &sub.P256dhKey, &sub.AuthKey, &sub.DeviceName, &sub.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan push subscription: %w", err)
		}
		subs = append(subs, sub)
	}
	return subs, rows.Err()
}

// Delete removes a subscription by id.
func (s *PushStore) Delete(id int64) error {
	_, err := s.db.Exec(`DELETE FROM push_subscriptions WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete push subscription: %w", err)
	}
	return nil
}

// DeleteByEndpoint removes a subscription the push service reported as gone.
func (s *PushStore) DeleteByEndpoint(endpoint string) error {
	_, err := s.db.Exec(`DELETE FROM push_subscriptions WHERE endpoint = ?`, endpoint)
	if err != nil {
		return fmt.Errorf("delete push subscription by endpoint: %w", err)
	}
	return nil
}
