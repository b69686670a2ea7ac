// internal/app/system/auth/auth.go
package auth

import (
	"context"
	"fmt"
	"net/http"

	"github.com/gorilla/securecookie"
	"github.com/gorilla/sessions"
	"go.uber.org/zap"
)

/*─────────────────────────────────────────────────────────────────────────────*
 | Session constants                                                           |
 *─────────────────────────────────────────────────────────────────────────────*/

const (
	isAuthKey    = "is_authenticated"
	userIDKey    = "user_id"
	userNameKey  = "user_name"
	userEmailKey = "user_email"
)

// SessionUser is what we cache in the session & inject into r.Context().
// Workspace roles are NOT cached here — they live on Member documents
// and are checked per request by the guard package, so role changes
// take effect immediately.
type SessionUser struct {
	ID    string
	Name  string
	Email string
}

type ctxKey string

const currentUserKey ctxKey = "currentUser"

// UserFetcher loads a fresh session user by ID on each request. It
// returns ok=false when the user no longer exists or is disabled,
// which invalidates the session on the spot.
type UserFetcher interface {
	FetchSessionUser(ctx context.Context, userID string) (SessionUser, bool, error)
}

// SessionManager owns the cookie store and session lifecycle.
type SessionManager struct {
	store       *sessions.CookieStore
	sessionName string
	log         *zap.Logger
	fetcher     UserFetcher
}

// NewSessionManager builds a SessionManager from the session signing
// key and cookie settings. In production (secure=true) cookies are
// Secure with SameSite=None; in dev, SameSite=Lax over plain HTTP.
func NewSessionManager(sessionKey, sessionName, domain string, secure bool, logger *zap.Logger) (*SessionManager, error) {
	if sessionKey == "" {
		return nil, fmt.Errorf("session key is empty; provide 32+ random chars")
	}
	if len(sessionKey) < 32 {
		logger.Warn("session key is short; 32+ chars recommended",
			zap.Int("length", len(sessionKey)))
	}

	store := sessions.NewCookieStore([]byte(sessionKey))
	opts := &sessions.Options{
		Domain:   domain,
		Path:     "/",
		Secure:   secure,
		HttpOnly: true,
	}
	if secure {
		opts.SameSite = http.SameSiteNoneMode
	} else {
		opts.SameSite = http.SameSiteLaxMode
	}
	store.Options = opts

	logger.Info("session store initialized",
		zap.Bool("secure", secure),
		zap.String("domain", domain))

	return &SessionManager{
		store:       store,
		sessionName: sessionName,
		log:         logger,
	}, nil
}

// SetUserFetcher installs the per-request user refresher. Optional;
// without it, LoadSessionUser trusts the cached session values.
func (m *SessionManager) SetUserFetcher(f UserFetcher) { m.fetcher = f }

// Store exposes the underlying cookie store (logout needs its options
// to emit a matching deletion cookie).
func (m *SessionManager) Store() *sessions.CookieStore { return m.store }

// GetSession returns the request's session, decoding the cookie.
func (m *SessionManager) GetSession(r *http.Request) (*sessions.Session, error) {
	return m.store.Get(r, m.sessionName)
}

// CurrentUser returns the user & "found?" flag.
func CurrentUser(r *http.Request) (*SessionUser, bool) {
	u, ok := r.Context().Value(currentUserKey).(*SessionUser)
	return u, ok
}

// LoadSessionUser injects the user into context if they are signed in.
// A corrupt cookie (securecookie decode error) is treated as signed out
// rather than an error.
func (m *SessionManager) LoadSessionUser(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		sess, err := m.GetSession(r)
		if err != nil {
			if scErr, ok := err.(securecookie.Error); ok && scErr.IsDecode() {
				m.log.Debug("session cookie decode failed; treating as signed out")
			}
			next.ServeHTTP(w, r)
			return
		}

		if isAuth, _ := sess.Values[isAuthKey].(bool); isAuth {
			u := &SessionUser{
				ID:    getString(sess, userIDKey),
				Name:  getString(sess, userNameKey),
				Email: getString(sess, userEmailKey),
			}
			if m.fetcher != nil {
				fresh, ok, ferr := m.fetcher.FetchSessionUser(r.Context(), u.ID)
				if ferr != nil {
					m.log.Warn("session user fetch failed", zap.Error(ferr))
				} else if !ok {
					// Deleted or disabled account: drop the session.
					next.ServeHTTP(w, r)
					return
				} else {
					u = &fresh
				}
			}
			r = withUser(r, u)
		}
		next.ServeHTTP(w, r)
	})
}

// RequireSignedIn ensures there is a user in context (set by
// LoadSessionUser). API callers get a plain 401.
func (m *SessionManager) RequireSignedIn(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if _, ok := CurrentUser(r); ok {
			next.ServeHTTP(w, r)
			return
		}
		http.Error(w, "unauthorized", http.StatusUnauthorized)
	})
}

// SignIn records the user in the session cookie.
func (m *SessionManager) SignIn(w http.ResponseWriter, r *http.Request, u SessionUser) error {
	sess, err := m.GetSession(r)
	if err != nil {
		// Decode failures mean a stale/corrupt cookie; start fresh.
		if scErr, ok := err.(securecookie.Error); !ok || !scErr.IsDecode() {
			return err
		}
		sess, _ = m.store.New(r, m.sessionName)
	}
	sess.Values[isAuthKey] = true
	sess.Values[userIDKey] = u.ID
	sess.Values[userNameKey] = u.Name
	sess.Values[userEmailKey] = u.Email
	return sess.Save(r, w)
}

// SignOut clears the session cookie.
func (m *SessionManager) SignOut(w http.ResponseWriter, r *http.Request) error {
	sess, err := m.GetSession(r)
	if err != nil {
		if scErr, ok := err.(securecookie.Error); !ok || !scErr.IsDecode() {
			return err
		}
		sess, _ = m.store.New(r, m.sessionName)
	}

	// Deletion-cookie must match the original store settings.
	if opts := m.store.Options; opts != nil {
		sess.Options.Domain = opts.Domain
		sess.Options.Path = opts.Path
		sess.Options.Secure = opts.Secure
		sess.Options.HttpOnly = opts.HttpOnly
		sess.Options.SameSite = opts.SameSite
	}
	sess.Options.MaxAge = -1 // delete immediately
	return sess.Save(r, w)
}

/* helpers */

func withUser(r *http.Request, u *SessionUser) *http.Request {
	return r.WithContext(context.WithValue(r.Context(), currentUserKey, u))
}

func getString(s *sessions.Session, key string) string {
	if v, ok := s.Values[key].(string); ok {
		return v
	}
	return ""
}

// WithTestUser returns a request whose context carries u. Test helper;
// production code always goes through LoadSessionUser.
func WithTestUser(r *http.Request, u SessionUser) *http.Request {
	return withUser(r, &u)
}
