package api

import (
	"encoding/hex"
	"net/http"

	"github.com/memvault/memvault/pkg/memvault/merrors"
	"github.com/memvault/memvault/pkg/memvault/model"
)

// HeaderPrincipal carries a hex-encoded Principal public-key hash.
// HeaderOpaque carries an Opaque external/legacy reference. One of them
// must be set; when both are, HeaderPrincipal is used. This engine has no notion of end-user login sessions, only
// the PersonRef its callers assert, since capsules are addressed by owning
// principal rather than by authenticated account.
const (
	HeaderPrincipal = "X-Memvault-Principal"
	HeaderOpaque    = "X-Memvault-Opaque"
)

// callerFromRequest resolves the acting PersonRef from request headers.
func callerFromRequest(r *http.Request) (model.PersonRef, error) {
	if hexKey := r.Header.Get(HeaderPrincipal); hexKey != "" {
		b, err := hex.DecodeString(hexKey)
		if err != nil {
			return nil, merrors.InvalidArgumentf("%s is not valid hex: %v", HeaderPrincipal, err)
		}
		return model.Principal{Bytes: b}, nil
	}
	if ref := r.Header.Get(HeaderOpaque); ref != "" {
		return model.Opaque{Ref: ref}, nil
	}
	return nil, merrors.Unauthorized()
}
