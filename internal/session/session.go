// Package session keeps the publisher session in a signed cookie.
package session

import (
	"context"
	"crypto/subtle"
	"net/http"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// Flash categories used by the admin pages.
const (
	FlashPositive = "positive"
	FlashNegative = "negative"
)

// Flash is a one-shot message shown on the next rendered page.
type Flash struct {
	Message  string `json:"message"`
	Category string `json:"category"`
}

// Session is the decoded cookie content.
type Session struct {
	MacaroonRoot      string
	MacaroonDischarge string
	Email             string
	GitHubSecret      string
	CSRFToken         string
	Flashes           []Flash
}

// LoggedIn reports whether the session holds a complete macaroon pair.
func (s *Session) LoggedIn() bool {
	return s.MacaroonRoot != "" && s.MacaroonDischarge != ""
}

// Flash queues a message for the next page.
func (s *Session) Flash(message, category string) {
	s.Flashes = append(s.Flashes, Flash{Message: message, Category: category})
}

// PopFlashes returns and clears the queued messages.
func (s *Session) PopFlashes() []Flash {
	flashes := s.Flashes
	s.Flashes = nil
	return flashes
}

// ValidCSRF compares token with the session CSRF token in constant time.
func (s *Session) ValidCSRF(token string) bool {
	if s.CSRFToken == "" || token == "" {
		return false
	}
	return subtle.ConstantTimeCompare([]byte(s.CSRFToken), []byte(token)) == 1
}

type claims struct {
	Root      string  `json:"mr,omitempty"`
	Discharge string  `json:"md,omitempty"`
	Email     string  `json:"email,omitempty"`
	GitHub    string  `json:"gh,omitempty"`
	CSRF      string  `json:"csrf"`
	Flashes   []Flash `json:"flashes,omitempty"`
	jwt.RegisteredClaims
}

// Store reads and writes sessions as HS256 JWT cookies.
type Store struct {
	secret []byte
	name   string
	ttl    time.Duration
	secure bool
	now    func() time.Time
}

// Option customizes a Store.
type Option func(*Store)

// WithCookieName sets the cookie name.
func WithCookieName(name string) Option {
	return func(s *Store) {
		if name != "" {
			s.name = name
		}
	}
}

// WithTTL sets the session lifetime.
func WithTTL(ttl time.Duration) Option {
	return func(s *Store) {
		if ttl > 0 {
			s.ttl = ttl
		}
	}
}

// WithSecure marks the cookie Secure.
func WithSecure(secure bool) Option {
	return func(s *Store) { s.secure = secure }
}

// WithClock overrides the time source.
func WithClock(now func() time.Time) Option {
	return func(s *Store) { s.now = now }
}

// NewStore creates a Store signing cookies with secret.
func NewStore(secret []byte, opts ...Option) *Store {
	s := &Store{
		secret: secret,
		name:   "snapfront_session",
		ttl:    24 * time.Hour,
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Load decodes the session cookie of r. A missing, tampered or expired
// cookie yields an empty session with a fresh CSRF token.
func (s *Store) Load(r *http.Request) *Session {
	cookie, err := r.Cookie(s.name)
	if err != nil {
		return newSession()
	}
	var c claims
	_, err = jwt.ParseWithClaims(cookie.Value, &c, func(*jwt.Token) (any, error) {
		return s.secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(s.now),
	)
	if err != nil {
		return newSession()
	}
	sess := &Session{
		MacaroonRoot:      c.Root,
		MacaroonDischarge: c.Discharge,
		Email:             c.Email,
		GitHubSecret:      c.GitHub,
		CSRFToken:         c.CSRF,
		Flashes:           c.Flashes,
	}
	if sess.CSRFToken == "" {
		sess.CSRFToken = uuid.NewString()
	}
	return sess
}

// Save signs sess and sets it as the session cookie.
func (s *Store) Save(w http.ResponseWriter, sess *Session) error {
	now := s.now()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims{
		Root:      sess.MacaroonRoot,
		Discharge: sess.MacaroonDischarge,
		Email:     sess.Email,
		GitHub:    sess.GitHubSecret,
		CSRF:      sess.CSRFToken,
		Flashes:   sess.Flashes,
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(s.ttl)),
		},
	})
	signed, err := token.SignedString(s.secret)
	if err != nil {
		return err
	}
	http.SetCookie(w, &http.Cookie{
		Name:     s.name,
		Value:    signed,
		Path:     "/",
		Expires:  now.Add(s.ttl),
		MaxAge:   int(s.ttl / time.Second),
		HttpOnly: true,
		Secure:   s.secure,
		SameSite: http.SameSiteLaxMode,
	})
	return nil
}

// Clear logs the user out: the session is reset and the cookie expired.
func (s *Store) Clear(w http.ResponseWriter, sess *Session) {
	*sess = *newSession()
	http.SetCookie(w, &http.Cookie{
		Name:     s.name,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   s.secure,
		SameSite: http.SameSiteLaxMode,
	})
}

func newSession() *Session {
	return &Session{CSRFToken: uuid.NewString()}
}

type ctxKey struct{}

// NewContext returns a copy of ctx carrying sess.
func NewContext(ctx context.Context, sess *Session) context.Context {
	return context.WithValue(ctx, ctxKey{}, sess)
}

// FromContext returns the session stored in ctx, or an empty one.
func FromContext(ctx context.Context) *Session {
	if sess, ok := ctx.Value(ctxKey{}).(*Session); ok {
		return sess
	}
	return newSession()
}
