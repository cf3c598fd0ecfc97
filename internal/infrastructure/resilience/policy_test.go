package resilience

import (
	"testing"
	"time"

	"github.com/kirillkom/incident-docs/internal/config"
)

func TestFromConfigAppliesEnvToDefaultPolicy(t *testing.T) {
	cfg := FromConfig(config.Config{
		RetryMaxAttempts:      5,
		RetryInitialBackoffMS: 50,
		RetryMaxBackoffMS:     400,
		BreakerEnabled:        false,
	})

	got := cfg.For("ledger.insert")
	if got.RetryMaxAttempts != 5 || got.RetryInitialBackoff != 50*time.Millisecond || got.RetryMaxBackoff != 400*time.Millisecond {
		t.Fatalf("unexpected default policy %+v", got)
	}
	if got.BreakerEnabled {
		t.Fatalf("expected breaker disabled")
	}
	if got.BreakerMinRequests == 0 {
		t.Fatalf("expected breaker defaults to be kept")
	}
}

func TestFromConfigSelectsFamilyByOperationPrefix(t *testing.T) {
	cfg := FromConfig(config.Config{RetryMaxAttempts: 3, BreakerEnabled: true})

	blob := cfg.For("gcs.save")
	if blob.RetryMaxAttempts != 3 {
		t.Fatalf("blob attempts must be capped by RETRY_MAX_ATTEMPTS, got %d", blob.RetryMaxAttempts)
	}
	if blob.RetryMaxBackoff != BlobPolicy().RetryMaxBackoff || !blob.BreakerEnabled {
		t.Fatalf("unexpected blob policy %+v", blob)
	}

	publish := cfg.For("nats.publish")
	if publish.RetryMaxAttempts != 2 || publish.BreakerOpenTimeout != 5*time.Second {
		t.Fatalf("unexpected publish policy %+v", publish)
	}
	if publish.Families != nil || blob.Families != nil {
		t.Fatalf("resolved policies must not carry nested families")
	}
}

func TestFromConfigKeepsFamilyDefaultsWhenEnvIsUnset(t *testing.T) {
	cfg := FromConfig(config.Config{})

	if got := cfg.For("gcs.open").RetryMaxAttempts; got != BlobPolicy().RetryMaxAttempts {
		t.Fatalf("expected blob default attempts, got %d", got)
	}
	if got := cfg.For("unknown").RetryMaxAttempts; got != DefaultConfig().RetryMaxAttempts {
		t.Fatalf("expected default attempts, got %d", got)
	}
}
