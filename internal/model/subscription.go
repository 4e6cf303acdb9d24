package model

import "time"

// Subscription is a registered Web Push endpoint for this calendar's browser UI.
type Subscription struct {
	ID         int64     `json:"id"`
	Endpoint   string    `json:"endpoint"`
	P256dhKey  string    `json:"p256dh_key"`
	AuthKey    string    `json:"auth_key"`
	DeviceName string    `json:"device_name"`
	CreatedAt  time.Time `json:"created_at"`
}
