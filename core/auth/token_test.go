package auth

import (
	"context"
	"testing"
	"time"

	"github.com/dgrijalva/jwt-go"

	"github.com/trezcool/ptemanager/core"
	"github.com/trezcool/ptemanager/core/user"
)

type fakeRevocations map[string]time.Time

func (f fakeRevocations) RevokeUser(_ context.Context, userID string, at time.Time) error {
	f[userID] = at
	return nil
}

func (f fakeRevocations) RevokedAt(_ context.Context, userID string) (time.Time, bool, error) {
	at, ok := f[userID]
	return at, ok, nil
}

func TestTokenService_IssueVerify(t *testing.T) {
	conf := core.NewTestConfig()
	revs := make(fakeRevocations)
	ts := NewTokenService(conf, revs)
	ctx := context.Background()

	student := user.User{ID: "5b0a2c4e-8f67-4f0c-9a10-0f2dbd4f1a01", Role: user.RoleStudent}
	revoked := user.User{ID: "5b0a2c4e-8f67-4f0c-9a10-0f2dbd4f1a02", Role: user.RoleAdmin}

	validToken, _ := ts.Issue(student)

	// generate an expired token
	NowFunc = func() time.Time { return time.Now().Add(-conf.Auth.JWTExpirationDelta - time.Hour) }
	expiredToken, _ := ts.Issue(student)

	// a token issued before its user got deactivated
	NowFunc = func() time.Time { return time.Now().Add(-time.Minute) }
	revokedToken, _ := ts.Issue(revoked)
	NowFunc = time.Now // reset
	_ = revs.RevokeUser(ctx, revoked.ID, time.Now().Add(-30*time.Second))

	otherKey := NewTokenService(&core.Config{Auth: core.AuthConfig{Secret: "other", JWTExpirationDelta: time.Hour}}, nil)
	forgedToken, _ := otherKey.Issue(student)

	noUserToken, _ := ts.Sign(&Claims{StandardClaims: jwt.StandardClaims{ExpiresAt: time.Now().Add(time.Hour).Unix()}})

	noneToken, _ := jwt.NewWithClaims(jwt.SigningMethodNone, ts.claims(student)).SignedString(jwt.UnsafeAllowNoneSignatureType)

	tests := []struct {
		name    string
		token   string
		wantErr error
		wantID  string
	}{
		{name: "no token", wantErr: ErrInvalidToken},
		{name: "garbage", token: "lmaooo.lol.xd", wantErr: ErrInvalidToken},
		{name: "expired token", token: expiredToken, wantErr: ErrInvalidToken},
		{name: "wrong signing key", token: forgedToken, wantErr: ErrInvalidToken},
		{name: "unsigned token", token: noneToken, wantErr: ErrInvalidToken},
		{name: "no user id", token: noUserToken, wantErr: ErrInvalidToken},
		{name: "revoked token", token: revokedToken, wantErr: ErrTokenRevoked},
		{name: "valid token", token: validToken, wantID: student.ID},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			claims, err := ts.Verify(ctx, tt.token)
			if err != tt.wantErr {
				t.Fatalf("Verify() error = %v, wantErr %v", err, tt.wantErr)
			}
			if tt.wantErr == nil {
				if claims.UserID != tt.wantID {
					t.Errorf("Verify() userId = %q, want %q", claims.UserID, tt.wantID)
				}
				if claims.IsAdmin() {
					t.Error("Verify() student claims report admin")
				}
			}
		})
	}

	t.Run("token issued after revocation", func(t *testing.T) {
		token, _ := ts.Issue(revoked)
		claims, err := ts.Verify(ctx, token)
		if err != nil {
			t.Fatalf("Verify() error = %v", err)
		}
		if !claims.IsAdmin() {
			t.Error("Verify() admin claims do not report admin")
		}
	})
}

func TestExtractFromHeader(t *testing.T) {
	tests := []struct {
		header string
		want   string
	}{
		{header: "", want: ""},
		{header: "Token abc", want: ""},
		{header: "bearer abc", want: ""},
		{header: "Bearer abc", want: "abc"},
		{header: "Bearer  abc ", want: "abc"},
	}
	for _, tt := range tests {
		t.Run(tt.header, func(t *testing.T) {
			if got := ExtractFromHeader(tt.header); got != tt.want {
				t.Errorf("ExtractFromHeader() = %q, want %q", got, tt.want)
			}
		})
	}
}
