package sessions

import (
	"encoding/json"
	"strings"
	"time"

	"github.com/jrsteele09/go-materials-client/token"
	"golang.org/x/oauth2"
)

// Durable record slot keys.
const (
	SlotAccessToken  = "accessToken"
	SlotRefreshToken = "refreshToken"
	SlotUser         = "user"
)

// Slots lists every durable slot that makes up a session record.
var Slots = []string{SlotAccessToken, SlotRefreshToken, SlotUser}

// Session is the signed-in state: the user's profile and the token pair
// authorising API calls. A Session is either complete or absent.
type Session struct {
	Profile      json.RawMessage // Opaque profile record as returned by the API
	AccessToken  string          // Short-lived bearer credential
	RefreshToken string          // Longer-lived credential used to rotate the pair
}

// New builds a session from a token pair and profile.
func New(accessToken, refreshToken string, profile json.RawMessage) *Session {
	return &Session{
		Profile:      profile,
		AccessToken:  accessToken,
		RefreshToken: refreshToken,
	}
}

// Valid reports whether both tokens are present.
func (s *Session) Valid() bool {
	return s != nil && s.AccessToken != "" && s.RefreshToken != ""
}

// Token returns the access token as an oauth2 bearer token. Expiry is taken
// from the access token's exp claim when it is a JWT.
func (s *Session) Token() *oauth2.Token {
	if s == nil {
		return nil
	}
	t := &oauth2.Token{
		AccessToken:  s.AccessToken,
		TokenType:    "Bearer",
		RefreshToken: s.RefreshToken,
	}
	if exp, ok := token.ExpiresAt(s.AccessToken); ok {
		t.Expiry = exp
	}
	return t
}

// ExpiresAt returns the access token expiry when it can be determined.
func (s *Session) ExpiresAt() (time.Time, bool) {
	if s == nil {
		return time.Time{}, false
	}
	return token.ExpiresAt(s.AccessToken)
}

// User decodes the fields of the profile the client displays.
func (s *Session) User() (User, error) {
	var u User
	if s == nil || len(s.Profile) == 0 {
		return u, nil
	}
	err := json.Unmarshal(s.Profile, &u)
	return u, err
}

// Clone returns a deep copy so callers cannot mutate the manager's session.
func (s *Session) Clone() *Session {
	if s == nil {
		return nil
	}
	c := *s
	c.Profile = append(json.RawMessage(nil), s.Profile...)
	return &c
}

// Currency is the user's display currency.
type Currency struct {
	Code   string `json:"Code,omitempty"`
	Symbol string `json:"Symbol"`
}

// User holds the profile fields shown on the dashboard.
type User struct {
	ID       json.Number `json:"Id,omitempty"`
	UserName string      `json:"UserName,omitempty"`
	FullName string      `json:"FullName"`
	Avatar   string      `json:"Avatar"`
	Currency Currency    `json:"Currency"`
}

// AvatarURL resolves the avatar path against the image base URL.
func (u User) AvatarURL(imageBaseURL string) string {
	return JoinAssetURL(imageBaseURL, u.Avatar)
}

// JoinAssetURL joins a static asset base URL and a relative asset path.
func JoinAssetURL(base, path string) string {
	if path == "" {
		return ""
	}
	if strings.HasPrefix(path, "http://") || strings.HasPrefix(path, "https://") {
		return path
	}
	return strings.TrimRight(base, "/") + "/" + strings.TrimLeft(path, "/")
}
