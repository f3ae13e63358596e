// Package identity resolves third-party identity tokens into verified claims
// by calling an external verifier endpoint.
package identity

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/valyala/fastjson"
)

// ErrInvalidToken is returned when the verifier rejects the presented token
var ErrInvalidToken = errors.New("identity token rejected")

// Claims are the verified fields of an identity token
type Claims struct {
	Subject string
	Email   string
	Name    string
	Avatar  string
}

// Verifier resolves an identity token into verified claims
type Verifier interface {
	Verify(ctx context.Context, token string) (Claims, error)
}

const defaultEndpoint = "https://oauth2.googleapis.com/tokeninfo"

// GoogleVerifier validates Google ID tokens through the tokeninfo endpoint
type GoogleVerifier struct {
	endpoint string
	audience string
	client   *http.Client
	parsers  fastjson.ParserPool
}

// Option alters a GoogleVerifier during construction
type Option func(*GoogleVerifier)

// WithEndpoint overrides the tokeninfo endpoint
func WithEndpoint(endpoint string) Option {
	return func(v *GoogleVerifier) {
		v.endpoint = endpoint
	}
}

// WithTimeout bounds the verification round trip
func WithTimeout(d time.Duration) Option {
	return func(v *GoogleVerifier) {
		v.client.Timeout = d
	}
}

// NewGoogleVerifier returns a verifier that accepts only tokens issued for
// audience. A blank audience skips the audience check.
func NewGoogleVerifier(audience string, opts ...Option) *GoogleVerifier {
	v := &GoogleVerifier{
		endpoint: defaultEndpoint,
		audience: audience,
		client:   &http.Client{Timeout: 5 * time.Second},
	}

	for _, opt := range opts {
		opt(v)
	}

	return v
}

// Verify calls the tokeninfo endpoint with the presented token. A non-200
// answer or a claim set without a subject means the token is invalid;
// transport failures are wrapped and returned as-is so callers can tell a bad
// token from an unreachable verifier.
func (v *GoogleVerifier) Verify(ctx context.Context, token string) (Claims, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet,
		v.endpoint+"?id_token="+url.QueryEscape(token), nil)
	if err != nil {
		return Claims{}, err
	}

	resp, err := v.client.Do(req)
	if err != nil {
		return Claims{}, fmt.Errorf("calling identity verifier: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return Claims{}, fmt.Errorf("reading verifier response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return Claims{}, ErrInvalidToken
	}

	parser := v.parsers.Get()
	defer v.parsers.Put(parser)

	val, err := parser.ParseBytes(body)
	if err != nil {
		return Claims{}, fmt.Errorf("malformed verifier response: %w", err)
	}

	claims := Claims{
		Subject: string(val.GetStringBytes("sub")),
		Email:   string(val.GetStringBytes("email")),
		Name:    string(val.GetStringBytes("name")),
		Avatar:  string(val.GetStringBytes("picture")),
	}

	if claims.Subject == "" {
		return Claims{}, ErrInvalidToken
	}

	if v.audience != "" && string(val.GetStringBytes("aud")) != v.audience {
		return Claims{}, ErrInvalidToken
	}

	return claims, nil
}
