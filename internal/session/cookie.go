package session

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
)

const CookieName = "solace_session"

// InsecureDefaultSecret is used when no signing secret is configured.
// Anyone who knows it can forge session cookies.
const InsecureDefaultSecret = "solace-insecure-default-secret"

type ctxKey struct{}

// Cookies issues and verifies signed session cookies.
type Cookies struct {
	secret []byte
	maxAge time.Duration
	secure bool
}

func NewCookies(secret string, maxAge time.Duration, secure bool) *Cookies {
	if secret == "" {
		secret = InsecureDefaultSecret
	}
	return &Cookies{secret: []byte(secret), maxAge: maxAge, secure: secure}
}

func (c *Cookies) sign(id string) string {
	mac := hmac.New(sha256.New, c.secret)
	mac.Write([]byte(id))
	return base64.RawURLEncoding.EncodeToString(mac.Sum(nil))
}

// Encode returns "<id>.<signature>".
func (c *Cookies) Encode(id string) string {
	return id + "." + c.sign(id)
}

// Decode verifies a cookie value and returns the session id.
func (c *Cookies) Decode(value string) (string, bool) {
	id, sig, ok := strings.Cut(value, ".")
	if !ok || id == "" {
		return "", false
	}
	if _, err := uuid.Parse(id); err != nil {
		return "", false
	}
	if !hmac.Equal([]byte(sig), []byte(c.sign(id))) {
		return "", false
	}
	return id, true
}

// Resolve reads the identity from the request, issuing a new one when the
// cookie is missing or fails verification.
func (c *Cookies) Resolve(r *http.Request) Identity {
	if ck, err := r.Cookie(CookieName); err == nil {
		if id, ok := c.Decode(ck.Value); ok {
			return Identity{ID: id}
		}
	}
	return Identity{ID: uuid.NewString(), Fresh: true}
}

func (c *Cookies) write(w http.ResponseWriter, id string) {
	sameSite := http.SameSiteLaxMode
	if c.secure {
		// Cross-site frontends need SameSite=None, which browsers only accept with Secure.
		sameSite = http.SameSiteNoneMode
	}
	http.SetCookie(w, &http.Cookie{
		Name:     CookieName,
		Value:    c.Encode(id),
		Path:     "/",
		MaxAge:   int(c.maxAge.Seconds()),
		HttpOnly: true,
		Secure:   c.secure,
		SameSite: sameSite,
	})
}

// Middleware attaches the request's Identity to its context and refreshes
// the cookie on every response.
func (c *Cookies) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ident := c.Resolve(r)
		c.write(w, ident.ID)
		next.ServeHTTP(w, r.WithContext(WithIdentity(r.Context(), ident)))
	})
}

func WithIdentity(ctx context.Context, ident Identity) context.Context {
	return context.WithValue(ctx, ctxKey{}, ident)
}

func FromContext(ctx context.Context) (Identity, bool) {
	ident, ok := ctx.Value(ctxKey{}).(Identity)
	return ident, ok
}
