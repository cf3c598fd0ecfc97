package resilience

import (
	"strings"
	"time"

	"github.com/kirillkom/incident-docs/internal/config"
)

// Config is the retry and breaker budget for one operation family. Families
// overrides it per operation prefix: "gcs.open" resolves to Families["gcs"].
type Config struct {
	RetryMaxAttempts    int
	RetryInitialBackoff time.Duration
	RetryMaxBackoff     time.Duration
	RetryMultiplier     float64

	BreakerEnabled          bool
	BreakerMinRequests      uint32
	BreakerFailureRatio     float64
	BreakerOpenTimeout      time.Duration
	BreakerHalfOpenMaxCalls uint32

	Families map[string]Config
}

const (
	FamilyBlob = "gcs"
	FamilyNATS = "nats"
)

func DefaultConfig() Config {
	return Config{
		RetryMaxAttempts:    3,
		RetryInitialBackoff: 100 * time.Millisecond,
		RetryMaxBackoff:     800 * time.Millisecond,
		RetryMultiplier:     2.0,

		BreakerEnabled:          true,
		BreakerMinRequests:      5,
		BreakerFailureRatio:     0.6,
		BreakerOpenTimeout:      20 * time.Second,
		BreakerHalfOpenMaxCalls: 1,
	}
}

// BlobPolicy suits object store calls: GCS answers 429 under bursty
// uploads, so backoff is longer and the breaker stays open a while.
func BlobPolicy() Config {
	out := DefaultConfig()
	out.RetryMaxAttempts = 4
	out.RetryInitialBackoff = 200 * time.Millisecond
	out.RetryMaxBackoff = 2 * time.Second
	out.BreakerOpenTimeout = 30 * time.Second
	return out
}

// PublishPolicy suits NATS publishes. They sit on the request path of
// template uploads and async generation, so they fail fast.
func PublishPolicy() Config {
	out := DefaultConfig()
	out.RetryMaxAttempts = 2
	out.RetryInitialBackoff = 50 * time.Millisecond
	out.RetryMaxBackoff = 200 * time.Millisecond
	out.BreakerMinRequests = 10
	out.BreakerOpenTimeout = 5 * time.Second
	return out
}

// FromConfig builds the executor budget from environment settings. The
// global retry knobs shape the default policy; BREAKER_ENABLED applies to
// every family and RETRY_MAX_ATTEMPTS caps them.
func FromConfig(cfg config.Config) Config {
	out := DefaultConfig()
	if cfg.RetryMaxAttempts > 0 {
		out.RetryMaxAttempts = cfg.RetryMaxAttempts
	}
	if cfg.RetryInitialBackoffMS > 0 {
		out.RetryInitialBackoff = time.Duration(cfg.RetryInitialBackoffMS) * time.Millisecond
	}
	if cfg.RetryMaxBackoffMS > 0 {
		out.RetryMaxBackoff = time.Duration(cfg.RetryMaxBackoffMS) * time.Millisecond
	}
	out.BreakerEnabled = cfg.BreakerEnabled

	out.Families = map[string]Config{
		FamilyBlob: BlobPolicy(),
		FamilyNATS: PublishPolicy(),
	}
	for name, family := range out.Families {
		family.BreakerEnabled = cfg.BreakerEnabled
		if cfg.RetryMaxAttempts > 0 {
			family.RetryMaxAttempts = min(family.RetryMaxAttempts, cfg.RetryMaxAttempts)
		}
		out.Families[name] = family
	}
	return out
}

// For returns the normalized policy for an operation name.
func (c Config) For(operation string) Config {
	family, _, _ := strings.Cut(operation, ".")
	if p, ok := c.Families[family]; ok {
		p.Families = nil
		return p.normalize()
	}
	out := c
	out.Families = nil
	return out.normalize()
}

func (c Config) normalize() Config {
	out := c
	def := DefaultConfig()

	if out.RetryMaxAttempts <= 0 {
		out.RetryMaxAttempts = def.RetryMaxAttempts
	}
	if out.RetryInitialBackoff <= 0 {
		out.RetryInitialBackoff = def.RetryInitialBackoff
	}
	if out.RetryMaxBackoff < out.RetryInitialBackoff {
		out.RetryMaxBackoff = max(def.RetryMaxBackoff, out.RetryInitialBackoff)
	}
	if out.RetryMultiplier < 1.0 {
		out.RetryMultiplier = def.RetryMultiplier
	}
	if out.BreakerMinRequests == 0 {
		out.BreakerMinRequests = def.BreakerMinRequests
	}
	if out.BreakerFailureRatio <= 0 || out.BreakerFailureRatio > 1 {
		out.BreakerFailureRatio = def.BreakerFailureRatio
	}
	if out.BreakerOpenTimeout <= 0 {
		out.BreakerOpenTimeout = def.BreakerOpenTimeout
	}
	if out.BreakerHalfOpenMaxCalls == 0 {
		out.BreakerHalfOpenMaxCalls = def.BreakerHalfOpenMaxCalls
	}
	return out
}
