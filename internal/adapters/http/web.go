package web

import (
	"context"
	"crypto/rand"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/google/uuid"

	"clubroster/internal/adapters/email"
	"clubroster/internal/adapters/http/middleware"
	"clubroster/internal/adapters/metrics"
	accountStore "clubroster/internal/adapters/storage/account"
	clubStore "clubroster/internal/adapters/storage/club"
	memberStore "clubroster/internal/adapters/storage/member"
	transferStore "clubroster/internal/adapters/storage/transfer"
	"clubroster/internal/application/formfields"
	"clubroster/internal/domain/birthnumber"
	"clubroster/internal/domain/member"
)

// Stores holds all storage dependencies.
type Stores struct {
	AccountStore  accountStore.Store
	ClubStore     clubStore.Store
	MemberStore   memberStore.Store
	TransferStore transferStore.Store
}

// DefaultRateLimitPerSecond is the per-client request budget.
const DefaultRateLimitPerSecond = 10

// Options configures NewMux. Zero values are usable in development.
type Options struct {
	// CSRFKey is the 32-byte CSRF secret. A random key is generated when empty.
	CSRFKey []byte
	// SecureCookies marks cookies Secure; set behind TLS.
	SecureCookies bool
	// TrustedOrigins lists extra host[:port] origins for the CSRF check.
	TrustedOrigins []string
	// BaseURL prefixes links in outgoing e-mail.
	BaseURL string
	// Sender delivers confirmation e-mail. Defaults to a NoopSender.
	Sender  email.Sender
	Metrics *metrics.Metrics
	Rules   member.Rules
	// DecodePolicy drives the form field controller and the default of the
	// birth number API.
	DecodePolicy       birthnumber.Policy
	SlowRequest        time.Duration
	RateLimitPerSecond int
}

// app carries the handler dependencies.
type app struct {
	stores   *Stores
	opts     Options
	sessions *middleware.SessionStore
	fields   *formfields.Controller
	now      func() time.Time
}

func newApp(s *Stores, opts Options) *app {
	if opts.Sender == nil {
		opts.Sender = email.NewNoopSender()
	}
	a := &app{
		stores:   s,
		opts:     opts,
		sessions: middleware.NewSessionStore(),
		fields:   formfields.New(),
		now:      time.Now,
	}
	a.fields.Policy = opts.DecodePolicy
	// The age gate and member validation read the same clock.
	a.fields.Now = func() time.Time { return a.now() }
	return a
}

// NewMux wires HTTP handlers for the app. Background work such as the rate
// limiter sweep stops when ctx is done.
// PRE: s has every store set
// POST: Returns the handler with the full middleware chain
func NewMux(ctx context.Context, s *Stores, opts Options) (http.Handler, error) {
	a := newApp(s, opts)

	key := opts.CSRFKey
	if len(key) == 0 {
		key = make([]byte, 32)
		if _, err := rand.Read(key); err != nil {
			return nil, fmt.Errorf("generate CSRF key: %w", err)
		}
		slog.Warn("csrf_event", "event", "random_key", "detail", "sessions will not survive a restart")
	}
	if len(key) != 32 {
		return nil, fmt.Errorf("CSRF key must be 32 bytes, got %d", len(key))
	}

	rate := opts.RateLimitPerSecond
	if rate <= 0 {
		rate = DefaultRateLimitPerSecond
	}
	limiter := middleware.NewRateLimiter(ctx, rate, time.Second)

	// Applied inner to outer: RateLimit, Auth, CSRF, SecurityHeaders, Timing.
	return middleware.Chain(middleware.RoutePattern(a.routes()),
		middleware.RateLimit(limiter),
		middleware.Auth(a.sessions),
		middleware.CSRF(key, middleware.CSRFOptions{
			Secure:         opts.SecureCookies,
			TrustedOrigins: opts.TrustedOrigins,
		}),
		middleware.SecurityHeaders,
		middleware.Timing(opts.Metrics, opts.SlowRequest),
	), nil
}

// generateID creates a new UUID string.
func generateID() string {
	return uuid.New().String()
}
