// Package realtime streams chart data and chat replies over WebSocket.
//
// Every socket is gated by an access token passed in the `token` query
// parameter. The transport handshake is completed first so the client
// receives a proper close frame (1008) on auth failure instead of a bare
// HTTP error. The verified identity is attached to the connection for its
// whole lifetime; there is no mid-stream re-check, so a connection may
// outlive its token's expiry until it closes naturally.
package realtime

import (
	"finboard/internal/security/token"
)

// Identity is the caller attached to an authenticated connection.
type Identity struct {
	UserID   int64
	Username string
}

// AccessVerifier checks a raw access token and resolves the caller. It is a
// pure check: no storage access, so a deleted-but-unexpired token still
// verifies here. The short access TTL bounds that window.
type AccessVerifier interface {
	VerifyAccess(raw string) (Identity, error)
}

// CodecVerifier adapts a token.Codec to the AccessVerifier interface.
type CodecVerifier struct {
	Codec *token.Codec
}

func (v CodecVerifier) VerifyAccess(raw string) (Identity, error) {
	claims, err := v.Codec.Verify(raw, token.TypeAccess)
	if err != nil {
		return Identity{}, err
	}
	id, err := claims.UserID()
	if err != nil {
		return Identity{}, err
	}
	return Identity{UserID: id, Username: claims.Username}, nil
}
