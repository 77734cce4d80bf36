package apiclient

import "encoding/hex"

// Header names mirrored from pkg/api, kept independent so this package has
// no import on the server module.
const (
	HeaderPrincipal = "X-Memvault-Principal"
	HeaderOpaque    = "X-Memvault-Opaque"
)

// WithPrincipalBytes is a convenience over WithPrincipal for callers that
// hold the raw public-key-hash bytes rather than a hex string.
func (c *Client) WithPrincipalBytes(b []byte) *Client {
	return c.WithPrincipal(hex.EncodeToString(b))
}
