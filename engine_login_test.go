package realmauth

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/rs/zerolog"
)

func seedLoginFixtures(t *testing.T) (*mockRealmProvider, *mockIdentityProvider, string) {
	t.Helper()

	hasher := newTestHasher(t)
	hash, err := hasher.Hash("P@ssw0rd1")
	if err != nil {
		t.Fatalf("Hash failed: %v", err)
	}

	realms := &mockRealmProvider{realms: map[string]*Realm{
		"acme":  {Subdomain: "acme"},
		"other": {Subdomain: "other"},
	}}
	identities := &mockIdentityProvider{identities: []*Identity{
		{ID: "u1", DeliveryEmail: "bob@acme.com", PasswordHash: hash, Active: true, RealmSubdomain: "acme"},
	}}
	return realms, identities, hash
}

func TestLoginSuccessAndInvalidPassword(t *testing.T) {
	mr, rdb := newTestRedis(t)
	defer mr.Close()
	ctx := context.Background()

	realms, identities, _ := seedLoginFixtures(t)
	engine := newTestEngine(t, rdb, realms, identities, &mockEmailSender{}, newTestHasher(t))

	acme := realms.realms["acme"]

	identity, err := engine.Login(ctx, acme, "bob@acme.com", "P@ssw0rd1")
	if err != nil {
		t.Fatalf("Login failed: %v", err)
	}
	if identity.ID != "u1" {
		t.Fatalf("expected identity u1, got %q", identity.ID)
	}

	if _, err := engine.Login(ctx, acme, "bob@acme.com", "wrong"); !errors.Is(err, ErrInvalidCredentials) {
		t.Fatalf("expected ErrInvalidCredentials, got %v", err)
	}
}

func TestLoginUnknownEmailInvalidCredentials(t *testing.T) {
	mr, rdb := newTestRedis(t)
	defer mr.Close()
	ctx := context.Background()

	realms, identities, _ := seedLoginFixtures(t)
	engine := newTestEngine(t, rdb, realms, identities, &mockEmailSender{}, newTestHasher(t))

	if _, err := engine.Login(ctx, realms.realms["acme"], "ghost@acme.com", "whatever"); !errors.Is(err, ErrInvalidCredentials) {
		t.Fatalf("expected ErrInvalidCredentials, got %v", err)
	}
}

func TestLoginWrongRealmLogsBothSubdomains(t *testing.T) {
	mr, rdb := newTestRedis(t)
	defer mr.Close()
	ctx := context.Background()

	realms, identities, _ := seedLoginFixtures(t)
	engine := newTestEngine(t, rdb, realms, identities, &mockEmailSender{}, newTestHasher(t))

	var logBuf bytes.Buffer
	engine.logger = zerolog.New(&logBuf)

	if _, err := engine.Login(ctx, realms.realms["other"], "bob@acme.com", "P@ssw0rd1"); !errors.Is(err, ErrWrongRealm) {
		t.Fatalf("expected ErrWrongRealm, got %v", err)
	}

	logged := logBuf.String()
	if !strings.Contains(logged, `"level":"warn"`) {
		t.Fatalf("expected warn-level log entry, got %q", logged)
	}
	if !strings.Contains(logged, "acme") || !strings.Contains(logged, "other") {
		t.Fatalf("expected both subdomains in log entry, got %q", logged)
	}
}

func TestLoginMirrorDummyFallsThrough(t *testing.T) {
	mr, rdb := newTestRedis(t)
	defer mr.Close()
	ctx := context.Background()

	realms, identities, hash := seedLoginFixtures(t)
	identities.identities = append(identities.identities, &Identity{
		ID:             "u2",
		DeliveryEmail:  "import@acme.com",
		PasswordHash:   hash,
		Active:         false,
		MirrorDummy:    true,
		RealmSubdomain: "acme",
	})
	engine := newTestEngine(t, rdb, realms, identities, &mockEmailSender{}, newTestHasher(t))

	if _, err := engine.Login(ctx, realms.realms["acme"], "import@acme.com", "P@ssw0rd1"); !errors.Is(err, ErrInvalidCredentials) {
		t.Fatalf("mirror dummy must look like a missing account, got %v", err)
	}
}

func TestLoginDeactivatedAccount(t *testing.T) {
	mr, rdb := newTestRedis(t)
	defer mr.Close()
	ctx := context.Background()

	realms, identities, hash := seedLoginFixtures(t)
	identities.identities = append(identities.identities, &Identity{
		ID:             "u3",
		DeliveryEmail:  "gone@acme.com",
		PasswordHash:   hash,
		Active:         false,
		RealmSubdomain: "acme",
	})
	engine := newTestEngine(t, rdb, realms, identities, &mockEmailSender{}, newTestHasher(t))

	if _, err := engine.Login(ctx, realms.realms["acme"], "gone@acme.com", "P@ssw0rd1"); !errors.Is(err, ErrAccountDeactivated) {
		t.Fatalf("expected ErrAccountDeactivated, got %v", err)
	}
}

func TestLoginEmptyHashNeedsReset(t *testing.T) {
	mr, rdb := newTestRedis(t)
	defer mr.Close()
	ctx := context.Background()

	realms, identities, _ := seedLoginFixtures(t)
	identities.identities = append(identities.identities, &Identity{
		ID:             "u4",
		DeliveryEmail:  "ldap@acme.com",
		Active:         true,
		RealmSubdomain: "acme",
	})
	engine := newTestEngine(t, rdb, realms, identities, &mockEmailSender{}, newTestHasher(t))

	if _, err := engine.Login(ctx, realms.realms["acme"], "ldap@acme.com", "anything"); !errors.Is(err, ErrPasswordResetRequired) {
		t.Fatalf("expected ErrPasswordResetRequired, got %v", err)
	}
}

func TestLoginDeactivatedRealmIsInternalFault(t *testing.T) {
	mr, rdb := newTestRedis(t)
	defer mr.Close()
	ctx := context.Background()

	realms, identities, _ := seedLoginFixtures(t)
	dead := &Realm{Subdomain: "dead", Deactivated: true}
	engine := newTestEngine(t, rdb, realms, identities, &mockEmailSender{}, newTestHasher(t))

	_, err := engine.Login(ctx, dead, "bob@acme.com", "P@ssw0rd1")
	if !errors.Is(err, ErrInternalFault) {
		t.Fatalf("deactivated realm must be an internal fault, got %v", err)
	}
}

func TestLoginRateLimitedSkipsVerification(t *testing.T) {
	mr, rdb := newTestRedis(t)
	defer mr.Close()
	ctx := context.Background()

	realms, identities, _ := seedLoginFixtures(t)
	counting := &countingHasher{inner: newTestHasher(t)}
	engine := newTestEngine(t, rdb, realms, identities, &mockEmailSender{}, counting)

	acme := realms.realms["acme"]

	// Default rule allows 5 attempts per window.
	for i := 0; i < 5; i++ {
		if _, err := engine.Login(ctx, acme, "bob@acme.com", "wrong"); !errors.Is(err, ErrInvalidCredentials) {
			t.Fatalf("attempt %d: expected ErrInvalidCredentials, got %v", i+1, err)
		}
	}

	callsBefore := counting.VerifyCalls()

	_, err := engine.Login(ctx, acme, "bob@acme.com", "wrong")
	var rl *RateLimitedError
	if !errors.As(err, &rl) {
		t.Fatalf("expected RateLimitedError on 6th attempt, got %v", err)
	}
	if rl.RetryAfter <= 0 {
		t.Fatalf("expected positive retry-after, got %v", rl.RetryAfter)
	}
	if !errors.Is(err, ErrRateLimited) {
		t.Fatal("RateLimitedError must match ErrRateLimited")
	}

	if counting.VerifyCalls() != callsBefore {
		t.Fatalf("no password comparison may run while limited: %d calls before, %d after",
			callsBefore, counting.VerifyCalls())
	}
}

func TestLoginRateLimitIsPerRealmAndEmail(t *testing.T) {
	mr, rdb := newTestRedis(t)
	defer mr.Close()
	ctx := context.Background()

	realms, identities, _ := seedLoginFixtures(t)
	engine := newTestEngine(t, rdb, realms, identities, &mockEmailSender{}, newTestHasher(t))

	acme := realms.realms["acme"]
	for i := 0; i < 5; i++ {
		_, _ = engine.Login(ctx, acme, "bob@acme.com", "wrong")
	}
	if _, err := engine.Login(ctx, acme, "bob@acme.com", "wrong"); !errors.Is(err, ErrRateLimited) {
		t.Fatalf("expected rate limit for exhausted key, got %v", err)
	}

	// A different email under the same realm has its own budget.
	if _, err := engine.Login(ctx, acme, "carol@acme.com", "wrong"); errors.Is(err, ErrRateLimited) {
		t.Fatal("unrelated key must not be limited")
	}
}
