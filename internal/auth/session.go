package auth

import (
	"crypto/rand"
	"encoding/base64"
	"fmt"
	"time"

	"github.com/gin-gonic/gin"
)

const (
	// StateCookieName is the name of the cookie that temporarily stores the OAuth state
	StateCookieName = "recoverydesk_oauth_state"
	// StateLength is the length of the random state string in bytes
	StateLength = 32
	stateTTL    = 10 * time.Minute
)

// GenerateRandomString creates a cryptographically secure random string
func GenerateRandomString(length int) (string, error) {
	bytes := make([]byte, length)
	if _, err := rand.Read(bytes); err != nil {
		return "", err
	}
	return base64.URLEncoding.EncodeToString(bytes)[:length], nil
}

// SetOAuthState generates and stores a random state for CSRF protection
func SetOAuthState(c *gin.Context) (string, error) {
	state, err := GenerateRandomString(StateLength)
	if err != nil {
		return "", fmt.Errorf("failed to generate state: %w", err)
	}

	secure := gin.Mode() != gin.DebugMode
	c.SetCookie(StateCookieName, state, int(stateTTL.Seconds()), "/", "", secure, true)
	return state, nil
}

// VerifyOAuthState checks the callback state against the cookie and clears it.
func VerifyOAuthState(c *gin.Context, receivedState string) bool {
	savedState, err := c.Cookie(StateCookieName)
	if err != nil {
		return false
	}
	c.SetCookie(StateCookieName, "", -1, "/", "", false, true)
	return receivedState != "" && savedState == receivedState
}
