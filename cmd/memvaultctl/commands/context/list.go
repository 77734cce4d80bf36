package context

import (
	"os"
	"sort"

	"github.com/spf13/cobra"

	"github.com/memvault/memvault/cmd/memvaultctl/cmdutil"
	"github.com/memvault/memvault/internal/cli/credentials"
	"github.com/memvault/memvault/internal/cli/output"
)

type contextRow struct {
	Name      string `json:"name" yaml:"name"`
	ServerURL string `json:"server_url" yaml:"server_url"`
	Identity  string `json:"identity,omitempty" yaml:"identity,omitempty"`
	Current   bool   `json:"current" yaml:"current"`
}

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List all configured contexts",
	RunE: func(cmd *cobra.Command, args []string) error {
		store, err := credentials.NewStore()
		if err != nil {
			return err
		}

		names := store.ListContexts()
		sort.Strings(names)
		current := store.GetCurrentContextName()

		rows := make([]contextRow, 0, len(names))
		for _, name := range names {
			ctx, err := store.GetContext(name)
			if err != nil {
				continue
			}
			identity := ctx.Principal
			if identity == "" {
				identity = ctx.Opaque
			}
			rows = append(rows, contextRow{Name: name, ServerURL: ctx.ServerURL, Identity: identity, Current: name == current})
		}

		return cmdutil.PrintOutput(os.Stdout, rows, len(rows) == 0, "No contexts configured.", &contextTable{rows: rows})
	},
}

type contextTable struct {
	rows []contextRow
}

func (t *contextTable) Headers() []string { return []string{"CURRENT", "NAME", "SERVER", "IDENTITY"} }

func (t *contextTable) Rows() [][]string {
	rows := make([][]string, 0, len(t.rows))
	for _, r := range t.rows {
		marker := ""
		if r.Current {
			marker = "*"
		}
		rows = append(rows, []string{marker, r.Name, r.ServerURL, cmdutil.EmptyOr(r.Identity, "-")})
	}
	return rows
}

var _ output.TableRenderer = (*contextTable)(nil)
