package idempotency

import (
	"testing"
	"time"

	"github.com/northbridge-systems/commerce-core/internal/domain"
)

func TestCache_MissThenHit(t *testing.T) {
	c := New(time.Hour)
	defer c.Stop()

	now := time.Now()
	fp := Fingerprint([]byte(`{"a":1}`))

	result, _ := c.Lookup("key-1", fp, now)
	if result != LookupMiss {
		t.Fatalf("expected miss, got %v", result)
	}

	c.Store(&domain.IdempotencyRecord{
		Key:          "key-1",
		Fingerprint:  fp,
		StatusCode:   201,
		ResponseBody: []byte(`{"id":"x"}`),
		ContentType:  "application/json",
		CreatedAt:    now,
	})

	result, rec := c.Lookup("key-1", fp, now)
	if result != LookupHit {
		t.Fatalf("expected hit, got %v", result)
	}
	if rec.StatusCode != 201 {
		t.Errorf("expected status 201, got %d", rec.StatusCode)
	}
}

func TestCache_FingerprintMismatchIsConflict(t *testing.T) {
	c := New(time.Hour)
	defer c.Stop()

	now := time.Now()
	c.Store(&domain.IdempotencyRecord{
		Key:         "key-1",
		Fingerprint: Fingerprint([]byte(`{"a":1}`)),
		StatusCode:  201,
		CreatedAt:   now,
	})

	result, _ := c.Lookup("key-1", Fingerprint([]byte(`{"a":2}`)), now)
	if result != LookupConflict {
		t.Fatalf("expected conflict, got %v", result)
	}
}

func TestCache_ExpiredRecordIsMiss(t *testing.T) {
	c := New(time.Minute)
	defer c.Stop()

	created := time.Now().Add(-2 * time.Minute)
	fp := Fingerprint([]byte(`{"a":1}`))
	c.Store(&domain.IdempotencyRecord{
		Key:         "key-1",
		Fingerprint: fp,
		StatusCode:  201,
		CreatedAt:   created,
	})

	result, _ := c.Lookup("key-1", fp, time.Now())
	if result != LookupMiss {
		t.Fatalf("expected miss for expired record, got %v", result)
	}
}
