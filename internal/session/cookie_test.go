package session

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
)

func TestCookies_EncodeDecode(t *testing.T) {
	c := NewCookies("s3cret", 7*24*time.Hour, false)
	id := uuid.NewString()

	got, ok := c.Decode(c.Encode(id))
	if !ok || got != id {
		t.Errorf("expected %q, got %q (ok=%v)", id, got, ok)
	}
}

func TestCookies_RejectsTampering(t *testing.T) {
	c := NewCookies("s3cret", time.Hour, false)
	other := NewCookies("different", time.Hour, false)
	id := uuid.NewString()

	cases := map[string]string{
		"wrong secret":  other.Encode(id),
		"swapped id":    uuid.NewString() + "." + strings.SplitN(c.Encode(id), ".", 2)[1],
		"no signature":  id,
		"empty":         "",
		"not a uuid":    c.Encode("not-a-uuid"),
		"truncated sig": c.Encode(id)[:len(c.Encode(id))-3],
	}
	for name, value := range cases {
		t.Run(name, func(t *testing.T) {
			if _, ok := c.Decode(value); ok {
				t.Errorf("expected %q to be rejected", value)
			}
		})
	}
}

func TestCookies_DefaultSecret(t *testing.T) {
	a := NewCookies("", time.Hour, false)
	b := NewCookies(InsecureDefaultSecret, time.Hour, false)
	id := uuid.NewString()
	if a.Encode(id) != b.Encode(id) {
		t.Error("empty secret should fall back to the insecure default")
	}
}

func TestMiddleware_IssuesCookie(t *testing.T) {
	c := NewCookies("s3cret", 7*24*time.Hour, false)

	var seen Identity
	h := c.Middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen, _ = FromContext(r.Context())
	}))

	w := httptest.NewRecorder()
	h.ServeHTTP(w, httptest.NewRequest("GET", "/chat-history", nil))

	if !seen.Fresh || seen.ID == "" {
		t.Fatalf("expected fresh identity, got %+v", seen)
	}
	cookies := w.Result().Cookies()
	if len(cookies) != 1 {
		t.Fatalf("expected 1 cookie, got %d", len(cookies))
	}
	ck := cookies[0]
	if ck.Name != CookieName || !ck.HttpOnly {
		t.Errorf("unexpected cookie: %+v", ck)
	}
	if ck.MaxAge != 7*24*60*60 {
		t.Errorf("expected 7 day max age, got %d", ck.MaxAge)
	}
	if id, ok := c.Decode(ck.Value); !ok || id != seen.ID {
		t.Errorf("cookie does not carry the issued id")
	}
}

func TestMiddleware_ReusesValidCookie(t *testing.T) {
	c := NewCookies("s3cret", time.Hour, true)
	id := uuid.NewString()

	var seen Identity
	h := c.Middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen, _ = FromContext(r.Context())
	}))

	req := httptest.NewRequest("POST", "/chat", nil)
	req.AddCookie(&http.Cookie{Name: CookieName, Value: c.Encode(id)})
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)

	if seen.Fresh || seen.ID != id {
		t.Errorf("expected existing identity %q, got %+v", id, seen)
	}
	ck := w.Result().Cookies()[0]
	if !ck.Secure || ck.SameSite != http.SameSiteNoneMode {
		t.Errorf("expected Secure SameSite=None cookie, got %+v", ck)
	}
}

func TestMiddleware_ForgedCookieGetsNewIdentity(t *testing.T) {
	c := NewCookies("s3cret", time.Hour, false)
	forged := NewCookies("attacker", time.Hour, false).Encode(uuid.NewString())

	var seen Identity
	h := c.Middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen, _ = FromContext(r.Context())
	}))
	req := httptest.NewRequest("GET", "/chat-history", nil)
	req.AddCookie(&http.Cookie{Name: CookieName, Value: forged})
	h.ServeHTTP(httptest.NewRecorder(), req)

	if !seen.Fresh {
		t.Error("forged cookie must not be accepted")
	}
}
