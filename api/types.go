package api

import (
	"encoding/base64"
	"encoding/json"

	"github.com/jrsteele09/go-materials-client/sessions"
)

// LoginRequest is the body sent to the login endpoint.
type LoginRequest struct {
	// UserName identifies the account.
	// Required: Yes
	// Example: "admin@example.com"
	UserName string `json:"UserName"`

	// Password is the account password.
	// Required: Yes
	// Security: Never log or expose this value
	Password string `json:"Password"`
}

// RefreshRequest is the body sent to the refresh endpoint.
// Both halves of the current pair are sent; the server rotates both.
type RefreshRequest struct {
	// AccessToken is the current, possibly expired, access token.
	// Example: "eyJhbGciOiJIUzI1NiIsInR5cCI6IkpXVCJ9..."
	AccessToken string `json:"AccessToken"`

	// RefreshToken is the current refresh token.
	// Behavior: Single use - invalidated once a new pair is issued
	RefreshToken string `json:"RefreshToken"`
}

// AuthResponse is returned by both the login and the refresh endpoints.
type AuthResponse struct {
	// Success reports whether the credentials or tokens were accepted.
	// When false the remaining fields are absent.
	Success bool `json:"Success"`

	// Token is the new access token.
	// Usage: Include in Authorization header: "Bearer <Token>"
	// Lifespan: Short-lived
	Token *string `json:"Token,omitempty"`

	// RefreshToken is the new refresh token.
	// Lifespan: Long-lived, rotates on each refresh
	RefreshToken *string `json:"RefreshToken,omitempty"`

	// User is the signed-in user's profile. It is stored verbatim.
	// Example: {"FullName":"Jane Doe","Avatar":"avatars/1.png","Currency":{"Symbol":"$"}}
	User json.RawMessage `json:"User,omitempty"`

	// Message is an optional human readable failure reason.
	Message string `json:"Message,omitempty"`
}

// MaterialsFilter selects a page of materials. It is sent as base64 encoded
// JSON in the "filter" query parameter.
type MaterialsFilter struct {
	// Skip is the number of materials already loaded.
	Skip int `json:"Skip"`

	// Limit is the page size.
	Limit int `json:"Limit"`

	// Types restricts the material types returned.
	// Example: [1]
	Types []int `json:"Types"`
}

// Encode returns the query parameter value for the filter.
func (f MaterialsFilter) Encode() (string, error) {
	if f.Types == nil {
		f.Types = []int{}
	}
	data, err := json.Marshal(f)
	if err != nil {
		return "", err
	}
	return base64.StdEncoding.EncodeToString(data), nil
}

// DecodeMaterialsFilter parses a filter query parameter value.
func DecodeMaterialsFilter(encoded string) (MaterialsFilter, error) {
	var f MaterialsFilter
	data, err := base64.StdEncoding.DecodeString(encoded)
	if err != nil {
		return f, err
	}
	err = json.Unmarshal(data, &f)
	return f, err
}

// Material is a single listed item.
type Material struct {
	ID              json.Number `json:"Id,omitempty"`
	Title           string      `json:"Title"`
	BrandName       string      `json:"BrandName"`
	SalesPriceInUsd float64     `json:"SalesPriceInUsd"`
	CoverPhoto      string      `json:"CoverPhoto"`
}

// CoverPhotoURL resolves the cover photo path against the image base URL.
func (m Material) CoverPhotoURL(imageBaseURL string) string {
	return sessions.JoinAssetURL(imageBaseURL, m.CoverPhoto)
}

// MaterialsPage is the response of the materials list endpoint.
type MaterialsPage struct {
	// Materials holds at most Limit items starting at Skip.
	Materials []Material `json:"Materials"`

	// RemainingCount is the number of materials after this page.
	// Usage: More pages exist while RemainingCount > 0
	RemainingCount *int `json:"RemainingCount"`
}
