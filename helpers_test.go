package realmauth

import (
	"context"
	"strings"
	"sync"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/openparley/realmauth/internal/rate"
	"github.com/openparley/realmauth/internal/stores"
	"github.com/openparley/realmauth/password"
)

func newTestRedis(t *testing.T) (*miniredis.Miniredis, *redis.Client) {
	t.Helper()

	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("miniredis.Run failed: %v", err)
	}

	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	return mr, client
}

func newTestHasher(t *testing.T) *password.Argon2 {
	t.Helper()

	h, err := password.NewArgon2(password.Config{
		Memory:      8192,
		Time:        1,
		Parallelism: 1,
		SaltLength:  16,
		KeyLength:   16,
	})
	if err != nil {
		t.Fatalf("NewArgon2 failed: %v", err)
	}
	return h
}

type mockRealmProvider struct {
	realms map[string]*Realm
}

func (m *mockRealmProvider) Get(_ context.Context, subdomain string) (*Realm, error) {
	r, ok := m.realms[subdomain]
	if !ok {
		return nil, ErrRealmNotFound
	}
	return r, nil
}

func (m *mockRealmProvider) Exists(_ context.Context, subdomain string) (bool, error) {
	_, ok := m.realms[subdomain]
	return ok, nil
}

type mockIdentityProvider struct {
	mu         sync.Mutex
	identities []*Identity
}

func (m *mockIdentityProvider) GetByEmail(_ context.Context, realmSubdomain, email string) (*Identity, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, id := range m.identities {
		if id.RealmSubdomain == realmSubdomain && strings.EqualFold(id.DeliveryEmail, email) {
			return id, nil
		}
	}
	return nil, ErrIdentityNotFound
}

func (m *mockIdentityProvider) GetActiveByEmailAnywhere(_ context.Context, email string) ([]*Identity, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*Identity
	for _, id := range m.identities {
		if id.Active && strings.EqualFold(id.DeliveryEmail, email) {
			out = append(out, id)
		}
	}
	return out, nil
}

func (m *mockIdentityProvider) GetByID(_ context.Context, id string) (*Identity, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, identity := range m.identities {
		if identity.ID == id {
			return identity, nil
		}
	}
	return nil, ErrIdentityNotFound
}

func (m *mockIdentityProvider) UpdatePasswordHash(_ context.Context, id, hash string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, identity := range m.identities {
		if identity.ID == id {
			identity.PasswordHash = hash
			return nil
		}
	}
	return ErrIdentityNotFound
}

type mockEmailSender struct {
	mu   sync.Mutex
	sent []EmailRequest
}

func (m *mockEmailSender) Send(_ context.Context, req EmailRequest) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sent = append(m.sent, req)
	return nil
}

func (m *mockEmailSender) Sent() []EmailRequest {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]EmailRequest, len(m.sent))
	copy(out, m.sent)
	return out
}

// countingHasher wraps a real hasher and counts Verify calls, so tests
// can assert no credential comparison happened.
type countingHasher struct {
	inner       PasswordHasher
	mu          sync.Mutex
	verifyCalls int
}

func (c *countingHasher) Hash(pw string) (string, error) {
	return c.inner.Hash(pw)
}

func (c *countingHasher) Verify(pw, encodedHash string) (bool, error) {
	c.mu.Lock()
	c.verifyCalls++
	c.mu.Unlock()
	return c.inner.Verify(pw, encodedHash)
}

func (c *countingHasher) VerifyCalls() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.verifyCalls
}

func testSigningKey() []byte {
	return []byte(strings.Repeat("k", 32))
}

func newTestEngine(
	t *testing.T,
	rdb *redis.Client,
	realms RealmProvider,
	identities IdentityProvider,
	mailer EmailSender,
	hasher PasswordHasher,
) *Engine {
	t.Helper()

	cfg := defaultConfig()
	cfg.PasswordReset.SigningKey = testSigningKey()

	dummyHash, err := hasher.Hash("nobody-knows-this")
	if err != nil {
		t.Fatalf("Hash dummy secret failed: %v", err)
	}

	return &Engine{
		config:     cfg,
		logger:     zerolog.Nop(),
		limiter:    rate.New(rdb, rate.Config{Prefix: cfg.RateLimit.Prefix, Rules: cfg.RateLimit.Rules}),
		resetStore: stores.NewResetTokenStore(rdb, cfg.PasswordReset.RedisPrefix),
		metrics:    NewMetrics(cfg.Metrics),

		realms:      realms,
		identities:  identities,
		mailer:      mailer,
		hasher:      hasher,
		eligibility: allowAllEligibility{},
		mailingList: alwaysResolves{},
		licenses:    unlimitedLicenses{},
		directory:   managesNothing{},
		strength:    minLengthStrength{min: 6},

		dummyHash: dummyHash,
	}
}
