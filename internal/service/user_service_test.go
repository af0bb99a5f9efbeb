package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/kuajing-shop/internal/config"
	"github.com/kuajing-shop/internal/constants"
	"github.com/kuajing-shop/internal/repository"

	"github.com/golang-jwt/jwt/v5"
)

type recordingRoleSyncer struct {
	calls map[uint]bool
}

func (r *recordingRoleSyncer) SyncAdmin(userID uint, isAdmin bool) error {
	if r.calls == nil {
		r.calls = make(map[uint]bool)
	}
	r.calls[userID] = isAdmin
	return nil
}

func setupUserServiceTest(t *testing.T, adminIDs ...string) (*UserService, *recordingRoleSyncer) {
	t.Helper()
	db := openServiceTestDB(t, "user_service_test")
	cfg := &config.Config{
		UserJWT:  config.JWTConfig{SecretKey: "user-secret", ExpireHours: 24},
		Identity: config.IdentityConfig{Issuer: "https://id.example.com", Audience: "shop", Secret: "identity-secret"},
		Admin:    config.AdminConfig{ProviderIDs: adminIDs},
	}
	syncer := &recordingRoleSyncer{}
	return NewUserService(cfg, repository.NewUserRepository(db), syncer), syncer
}

func signIdentityToken(t *testing.T, secret, subject, issuer string, expiresIn time.Duration) string {
	t.Helper()
	claims := IdentityClaims{
		Email: subject + "@example.com",
		Name:  "测试用户",
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   subject,
			Issuer:    issuer,
			Audience:  jwt.ClaimStrings{"shop"},
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(expiresIn)),
		},
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(secret))
	if err != nil {
		t.Fatalf("sign identity token failed: %v", err)
	}
	return token
}

func TestLoginWithIdentityCreatesThenReusesUser(t *testing.T) {
	svc, syncer := setupUserServiceTest(t)
	ctx := context.Background()
	token := signIdentityToken(t, "identity-secret", "google|123", "https://id.example.com", time.Hour)

	first, err := svc.LoginWithIdentity(ctx, token)
	if err != nil {
		t.Fatalf("first login failed: %v", err)
	}
	if !first.Created || first.User.Tier != constants.TierGeneral || first.User.IsAdmin {
		t.Fatalf("unexpected first login: %+v", first.User)
	}
	if first.User.MemberNo != MemberNumber(first.User.ID) {
		t.Fatalf("member no not assigned: %s", first.User.MemberNo)
	}
	if isAdmin, ok := syncer.calls[first.User.ID]; !ok || isAdmin {
		t.Fatalf("role sync should run with isAdmin=false, got %v/%v", isAdmin, ok)
	}

	second, err := svc.LoginWithIdentity(ctx, token)
	if err != nil {
		t.Fatalf("second login failed: %v", err)
	}
	if second.Created || second.User.ID != first.User.ID {
		t.Fatalf("second login should reuse user, got created=%v id=%d", second.Created, second.User.ID)
	}

	claims, err := svc.ParseUserJWT(second.Token)
	if err != nil || claims.UserID != first.User.ID {
		t.Fatalf("session token mismatch: %+v err=%v", claims, err)
	}
	state, err := svc.ResolveAuthState(ctx, claims.UserID)
	if err != nil || state.Tier != constants.TierGeneral {
		t.Fatalf("resolve auth state failed: %+v err=%v", state, err)
	}
}

func TestLoginWithIdentityBootstrapsAdmin(t *testing.T) {
	svc, syncer := setupUserServiceTest(t, "owner-1")
	result, err := svc.LoginWithIdentity(context.Background(), signIdentityToken(t, "identity-secret", "owner-1", "https://id.example.com", time.Hour))
	if err != nil {
		t.Fatalf("login failed: %v", err)
	}
	if !result.User.IsAdmin || !syncer.calls[result.User.ID] {
		t.Fatalf("configured provider id should become admin")
	}
}

func TestLoginWithIdentityRejectsBadTokens(t *testing.T) {
	svc, _ := setupUserServiceTest(t)
	ctx := context.Background()
	cases := map[string]string{
		"wrong secret": signIdentityToken(t, "other-secret", "u1", "https://id.example.com", time.Hour),
		"wrong issuer": signIdentityToken(t, "identity-secret", "u1", "https://evil.example.com", time.Hour),
		"expired":      signIdentityToken(t, "identity-secret", "u1", "https://id.example.com", -time.Minute),
		"no subject":   signIdentityToken(t, "identity-secret", "", "https://id.example.com", time.Hour),
		"garbage":      "not-a-token",
	}
	for name, token := range cases {
		if _, err := svc.LoginWithIdentity(ctx, token); !errors.Is(err, ErrIdentityTokenInvalid) {
			t.Fatalf("%s: expected ErrIdentityTokenInvalid, got %v", name, err)
		}
	}
}

func TestParseUserJWTRejectsForeignSignature(t *testing.T) {
	svc, _ := setupUserServiceTest(t)
	claims := UserJWTClaims{
		UserID: 7,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
	}
	forged, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte("someone-else"))
	if err != nil {
		t.Fatalf("sign failed: %v", err)
	}
	if _, err := svc.ParseUserJWT(forged); err == nil {
		t.Fatalf("forged token should be rejected")
	}
}
