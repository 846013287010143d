package spotify

import "golang.org/x/oauth2"

// OAuthEndpoint is the provider's authorization-code endpoint pair.
var OAuthEndpoint = oauth2.Endpoint{
	AuthURL:  "https://accounts.spotify.com/authorize",
	TokenURL: "https://accounts.spotify.com/api/token",
}

// Scopes required to read the profile and the recent-activity feed.
var OAuthScopes = []string{"user-read-recently-played", "user-read-private", "user-read-email"}
