package identity

import (
	"crypto/rand"
	"encoding/hex"
	"net/http"
	"time"

	"github.com/dgrijalva/jwt-go"
	"github.com/google/uuid"
	"github.com/sokoplace/soko-backend/internal/policy"
)

// Cookie names. user_role and is_authenticated are UI conveniences readable
// by the browser; they are never consulted for authorization.
const (
	CookieSessionToken    = "session_token"
	CookieGuestSession    = "guest_session_id"
	CookieUserRole        = "user_role"
	CookieIsAuthenticated = "is_authenticated"
)

// Kind distinguishes authenticated users from guests.
type Kind string

const (
	KindUser  Kind = "user"
	KindGuest Kind = "guest"
)

// Identity is the resolved actor for a request: either an authenticated user
// (with role) or a guest keyed by a long-lived random cookie. Exactly one of
// UserID/GuestID is set.
type Identity struct {
	Kind    Kind
	UserID  uuid.UUID
	Role    policy.Role
	GuestID string
}

func (i Identity) IsUser() bool { return i.Kind == KindUser }

// OwnerKey returns the (ownerType, ownerID) pair used to key cart rows.
func (i Identity) OwnerKey() (string, string) {
	if i.Kind == KindUser {
		return string(KindUser), i.UserID.String()
	}
	return string(KindGuest), i.GuestID
}

// SessionClaims are the JWT claims carried in the session_token cookie.
type SessionClaims struct {
	Role string `json:"role"`
	jwt.StandardClaims
}

// Resolver turns request cookies into an Identity.
type Resolver struct {
	secret       []byte
	guestTTL     time.Duration
	secureCookie bool
}

func NewResolver(secret string, guestTTL time.Duration, secureCookie bool) *Resolver {
	return &Resolver{secret: []byte(secret), guestTTL: guestTTL, secureCookie: secureCookie}
}

// Resolve never fails: an invalid or expired session token falls through to
// the guest path, and a missing guest cookie mints a fresh guest id, setting
// the cookie on w as a side effect.
func (rs *Resolver) Resolve(w http.ResponseWriter, r *http.Request) Identity {
	if c, err := r.Cookie(CookieSessionToken); err == nil && c.Value != "" {
		if id, ok := rs.parseSession(c.Value); ok {
			return id
		}
	}

	if c, err := r.Cookie(CookieGuestSession); err == nil && c.Value != "" {
		return Identity{Kind: KindGuest, GuestID: c.Value}
	}

	guestID := newGuestID()
	http.SetCookie(w, &http.Cookie{
		Name:     CookieGuestSession,
		Value:    guestID,
		Path:     "/",
		MaxAge:   int(rs.guestTTL.Seconds()),
		HttpOnly: true,
		Secure:   rs.secureCookie,
		SameSite: http.SameSiteLaxMode,
	})
	return Identity{Kind: KindGuest, GuestID: guestID}
}

// IssueToken signs a session token for a user.
func (rs *Resolver) IssueToken(userID uuid.UUID, role policy.Role, ttl time.Duration) (string, error) {
	claims := &SessionClaims{
		Role: string(role),
		StandardClaims: jwt.StandardClaims{
			Subject:   userID.String(),
			ExpiresAt: time.Now().Add(ttl).Unix(),
			IssuedAt:  time.Now().Unix(),
		},
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(rs.secret)
}

func (rs *Resolver) parseSession(token string) (Identity, bool) {
	claims := &SessionClaims{}
	parsed, err := jwt.ParseWithClaims(token, claims, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, jwt.ErrSignatureInvalid
		}
		return rs.secret, nil
	})
	if err != nil || !parsed.Valid {
		return Identity{}, false
	}

	userID, err := uuid.Parse(claims.Subject)
	if err != nil {
		return Identity{}, false
	}
	role, ok := policy.ParseRole(claims.Role)
	if !ok {
		return Identity{}, false
	}
	return Identity{Kind: KindUser, UserID: userID, Role: role}, true
}

// newGuestID mints an unguessable guest session id: guest_ + 32 hex chars.
func newGuestID() string {
	b := make([]byte, 16)
	if _, err := rand.Read(b); err != nil {
		// crypto/rand does not fail on supported platforms
		panic(err)
	}
	return "guest_" + hex.EncodeToString(b)
}
