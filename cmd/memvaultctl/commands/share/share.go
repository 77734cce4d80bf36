// Package share implements sharing and public-link subcommands for
// memvaultctl.
package share

import (
	"encoding/hex"
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"
)

// Cmd is the share subcommand.
var Cmd = &cobra.Command{
	Use:   "share",
	Short: "Manage resource shares and public links",
	Long: `Grant, list, update, and revoke access to a capsule, memory, folder or
gallery, and manage anonymous public links.

Subcommands:
  create    Grant a principal or opaque identity access to a resource
  list      List the shares on a resource
  set-perm  Change the permission mask on an existing share
  revoke    Deactivate a share
  link      Manage public links`,
}

func init() {
	Cmd.AddCommand(createCmd)
	Cmd.AddCommand(listCmd)
	Cmd.AddCommand(setPermCmd)
	Cmd.AddCommand(revokeCmd)
	Cmd.AddCommand(linkCmd)
}

// targetEnvelope builds the {kind, data} PersonRef wire form the server
// expects as a share target, from exactly one of a hex-encoded principal or
// an opaque reference string.
func targetEnvelope(principalHex, opaqueRef string) (json.RawMessage, error) {
	switch {
	case principalHex != "" && opaqueRef != "":
		return nil, fmt.Errorf("specify exactly one of --target-principal or --target-opaque")
	case principalHex != "":
		b, err := hex.DecodeString(principalHex)
		if err != nil {
			return nil, fmt.Errorf("invalid --target-principal hex: %w", err)
		}
		return json.Marshal(struct {
			Kind  string `json:"kind"`
			Bytes []byte `json:"bytes"`
		}{Kind: "principal", Bytes: b})
	case opaqueRef != "":
		return json.Marshal(struct {
			Kind string `json:"kind"`
			Ref  string `json:"ref"`
		}{Kind: "opaque", Ref: opaqueRef})
	default:
		return nil, fmt.Errorf("specify one of --target-principal or --target-opaque")
	}
}
