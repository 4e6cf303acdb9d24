package storage

import (
	"testing"
)

func newTestPushStore(t *testing.T) *PushStore {
	t.Helper()
	return NewPushStore(setupTestDB(t))
}

func TestUpsertAndList(t *testing.T) {
	s := newTestPushStore(t)

	sub, err := s.Upsert("https://push.example/ep1", "p256dh-key", "auth-key", "Laptop")
	if err != nil {
		t.Fatalf("upsert: %v", err)
	}
	if sub == nil || sub.Endpoint != "https://push.example/ep1" {
		t.Fatalf("unexpected subscription: %+v", sub)
	}
	if sub.DeviceName != "Laptop" {
		t.Errorf("device name = %q", sub.DeviceName)
	}

	subs, err := s.List()
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(subs) != 1 {
		t.Fatalf("got %d subscriptions, want 1", len(subs))
	}
}

func TestUpsertIsIdempotentByEndpoint(t *testing.T) {
	s := newTestPushStore(t)

	first, err := s.Upsert("https://push.example/ep1", "old-p256dh", "old-auth", "Laptop")
	if err != nil {
		t.Fatalf("first upsert: %v", err)
	}
	second, err := s.Upsert("https://push.example/ep1", "new-p256dh", "new-auth", "Laptop")
	if err != nil {
		t.Fatalf("second upsert: %v", err)
	}

	if first.ID != second.ID {
		t.Errorf("re-subscribing the same endpoint created a new row: %d vs %d", first.ID, second.ID)
	}
	if second.P256dhKey != "new-p256dh" {
		t.Errorf("keys not refreshed on upsert: %q", second.P256dhKey)
	}

	subs, err := s.List()
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(subs) != 1 {
		t.Fatalf("got %d subscriptions, want 1", len(subs))
	}
}

func TestDelete(t *testing.T) {
	s := newTestPushStore(t)

	sub, err := s.Upsert("https://push.example/ep1", "k", "a", "")
	if err != nil {
		t.Fatalf("upsert: %v", err)
	}

	if err := s.Delete(sub.ID); err != nil {
		t.Fatalf("delete: %v", err)
	}

	subs, err := s.List()
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(subs) != 0 {
		t.Fatalf("got %d subscriptions after delete, want 0", len(subs))
	}
}

func TestDeleteByEndpoint(t *testing.T) {
	s := newTestPushStore(t)

	if _, err := s.Upsert("https://push.example/gone", "k", "a", ""); err != nil {
		t.Fatalf("upsert: %v", err)
	}
	if _, err := s.Upsert("https://push.example/alive", "k", "a", ""); err != nil {
		t.Fatalf("upsert: %v", err)
	}

	if err := s.DeleteByEndpoint("https://push.example/gone"); err != nil {
		t.Fatalf("delete by endpoint: %v", err)
	}

	subs, err := s.List()
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(subs) != 1 || subs[0].Endpoint != "https://push.example/alive" {
		t.Fatalf("unexpected subscriptions: %+v", subs)
	}
}
