package auth

import (
	"strings"
	"time"

	"github.com/go-faster/errors"
	"github.com/golang-jwt/jwt/v5"
)

const bearerPrefix = "Bearer "

// ParseBearer extracts the token from an Authorization header value. The
// value must be "Bearer " followed by a three-segment compact JWS.
func ParseBearer(header string) (string, error) {
	token, ok := strings.CutPrefix(header, bearerPrefix)
	if !ok {
		return "", ErrInvalidCredentialFormat
	}
	token = strings.TrimSpace(token)
	parts := strings.Split(token, ".")
	if len(parts) != 3 {
		return "", ErrInvalidCredentialFormat
	}
	for _, p := range parts[:2] {
		if p == "" || !isBase64URL(p) {
			return "", ErrInvalidCredentialFormat
		}
	}
	if !isBase64URL(parts[2]) {
		return "", ErrInvalidCredentialFormat
	}
	return token, nil
}

func isBase64URL(s string) bool {
	for i := range len(s) {
		c := s[i]
		switch {
		case c >= 'A' && c <= 'Z', c >= 'a' && c <= 'z', c >= '0' && c <= '9', c == '-', c == '_':
		default:
			return false
		}
	}
	return true
}

// Verifier checks a token and returns the account id it was issued for.
type Verifier interface {
	Subject(token string) (string, error)
}

var _ Verifier = (*JWTVerifier)(nil)

// JWTVerifier validates HS256 tokens signed by the account service.
type JWTVerifier struct {
	key    []byte
	parser *jwt.Parser
}

// NewJWTVerifier creates a JWTVerifier. An empty issuer disables the issuer
// check.
func NewJWTVerifier(secret []byte, issuer string, leeway time.Duration) *JWTVerifier {
	opts := []jwt.ParserOption{
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithLeeway(leeway),
	}
	if issuer != "" {
		opts = append(opts, jwt.WithIssuer(issuer))
	}
	return &JWTVerifier{
		key:    secret,
		parser: jwt.NewParser(opts...),
	}
}

// Subject verifies the token signature and registered claims and returns the
// sub claim.
func (v *JWTVerifier) Subject(token string) (string, error) {
	var claims jwt.RegisteredClaims
	if _, err := v.parser.ParseWithClaims(token, &claims, func(*jwt.Token) (any, error) {
		return v.key, nil
	}); err != nil {
		return "", errors.Wrap(err, "parse token")
	}
	if claims.Subject == "" {
		return "", errors.New("token has no subject")
	}
	return claims.Subject, nil
}
