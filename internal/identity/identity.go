package identity

import (
	"context"
	"errors"
	"fmt"

	"github.com/golang-jwt/jwt/v5"

	"github.com/imdevedugame/backend-pwa/internal/domain"
)

// ErrUnauthenticated is returned when a credential cannot be tied to a
// marketplace user.
var ErrUnauthenticated = errors.New("unauthenticated")

// Verifier checks HS256 access tokens issued by the identity provider and
// returns their subject.
type Verifier struct {
	secret []byte
	parser *jwt.Parser
}

func NewVerifier(secret []byte) *Verifier {
	return &Verifier{
		secret: secret,
		parser: jwt.NewParser(
			jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
			jwt.WithExpirationRequired(),
		),
	}
}

func (v *Verifier) Verify(token string) (string, error) {
	claims := &jwt.RegisteredClaims{}
	_, err := v.parser.ParseWithClaims(token, claims, func(*jwt.Token) (any, error) {
		return v.secret, nil
	})
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrUnauthenticated, err)
	}

	if claims.Subject == "" {
		return "", fmt.Errorf("%w: token has no subject", ErrUnauthenticated)
	}

	return claims.Subject, nil
}

// UserLookup maps an identity provider subject to a marketplace user id.
type UserLookup interface {
	GetByAuthID(ctx context.Context, authUserID string) (int64, error)
}

type Resolver struct {
	verifier *Verifier
	users    UserLookup
}

func NewResolver(verifier *Verifier, users UserLookup) *Resolver {
	return &Resolver{verifier: verifier, users: users}
}

// Resolve turns a bearer credential into the caller's user id. A valid token
// whose subject has no profile is still unauthenticated.
func (r *Resolver) Resolve(ctx context.Context, credential string) (int64, error) {
	subject, err := r.verifier.Verify(credential)
	if err != nil {
		return 0, err
	}

	userID, err := r.users.GetByAuthID(ctx, subject)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return 0, fmt.Errorf("%w: no profile for subject", ErrUnauthenticated)
		}
		return 0, err
	}

	return userID, nil
}

type ctxKey struct{}

func WithUserID(ctx context.Context, userID int64) context.Context {
	return context.WithValue(ctx, ctxKey{}, userID)
}

func UserIDFromContext(ctx context.Context) (int64, bool) {
	id, ok := ctx.Value(ctxKey{}).(int64)
	return id, ok
}
