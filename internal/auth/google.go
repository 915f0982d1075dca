package auth

import (
	"context"
	"errors"
	"fmt"

	"github.com/gin-gonic/gin"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
	"google.golang.org/api/idtoken"
)

var ErrInvalidOAuthState = errors.New("invalid oauth state")

// GoogleSignIn lets staff authenticate with their Google account. The account
// is matched to an active user by email; it never creates users.
type GoogleSignIn struct {
	config *oauth2.Config
}

func NewGoogleSignIn(clientID, clientSecret, redirectURL string) *GoogleSignIn {
	return &GoogleSignIn{
		config: &oauth2.Config{
			ClientID:     clientID,
			ClientSecret: clientSecret,
			RedirectURL:  redirectURL,
			Scopes:       []string{"openid", "https://www.googleapis.com/auth/userinfo.email", "https://www.googleapis.com/auth/userinfo.profile"},
			Endpoint:     google.Endpoint,
		},
	}
}

// LoginURL stores a fresh state cookie and returns the consent URL.
func (g *GoogleSignIn) LoginURL(c *gin.Context) (string, error) {
	state, err := SetOAuthState(c)
	if err != nil {
		return "", err
	}
	return g.config.AuthCodeURL(state, oauth2.SetAuthURLParam("prompt", "select_account")), nil
}

// Identify completes the callback: state check, code exchange and id_token
// verification.
func (g *GoogleSignIn) Identify(c *gin.Context) (*GoogleIdentity, error) {
	if !VerifyOAuthState(c, c.Query("state")) {
		return nil, ErrInvalidOAuthState
	}

	ctx := c.Request.Context()
	token, err := g.config.Exchange(ctx, c.Query("code"))
	if err != nil {
		return nil, fmt.Errorf("code exchange failed: %w", err)
	}

	rawIDToken, ok := token.Extra("id_token").(string)
	if !ok {
		return nil, errors.New("token response has no id_token")
	}
	return verifyIDToken(ctx, rawIDToken, g.config.ClientID)
}

func verifyIDToken(ctx context.Context, rawIDToken, audience string) (*GoogleIdentity, error) {
	payload, err := idtoken.Validate(ctx, rawIDToken, audience)
	if err != nil {
		return nil, fmt.Errorf("failed to validate ID token: %w", err)
	}
	return identityFromClaims(payload.Subject, payload.Claims)
}

func identityFromClaims(subject string, claims map[string]interface{}) (*GoogleIdentity, error) {
	email, _ := claims["email"].(string)
	if email == "" {
		return nil, errors.New("id_token has no email claim")
	}
	identity := &GoogleIdentity{Subject: subject, Email: email}
	if verified, ok := claims["email_verified"].(bool); ok {
		identity.EmailVerified = verified
	}
	if name, ok := claims["name"].(string); ok {
		identity.Name = name
	}
	return identity, nil
}
