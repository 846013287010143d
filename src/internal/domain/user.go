package domain

import "time"

const DefaultEmbedColor = "#1DB954"

type User struct {
	ID             string // chat-platform account id
	CatalogID      string // linked catalog account, empty until connected
	AccessToken    string
	RefreshToken   string
	TokenExpiresAt int64 // unix seconds, 0 when unknown
	EmbedColor     string
	IsAdmin        bool
	IsPublic       bool
	CreatedAt      time.Time
	LastSeen       time.Time
}

// Connected reports whether the user has a linked catalog account with
// credentials the gateway can work with.
func (u *User) Connected() bool {
	return u != nil && u.CatalogID != "" && u.AccessToken != "" && u.RefreshToken != ""
}
