package commands

import (
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/memvault/memvault/cmd/memvaultctl/cmdutil"
	"github.com/memvault/memvault/internal/cli/credentials"
	"github.com/memvault/memvault/internal/cli/health"
	"github.com/memvault/memvault/internal/cli/output"
	"github.com/memvault/memvault/internal/cli/timeutil"
)

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show server status",
	Long: `Display the status of the connected memvaultd server.

This command checks the server health endpoint and displays whether it
is reachable and healthy.

Examples:
  # Check status of the current context's server
  memvaultctl status

  # Output as JSON
  memvaultctl status -o json`,
	RunE: runStatus,
}

func init() {
	rootCmd.AddCommand(statusCmd)
}

// serverStatus is the display projection of a status check.
type serverStatus struct {
	Server    string `json:"server" yaml:"server"`
	Status    string `json:"status" yaml:"status"`
	Healthy   bool   `json:"healthy" yaml:"healthy"`
	Service   string `json:"service,omitempty" yaml:"service,omitempty"`
	StartedAt string `json:"started_at,omitempty" yaml:"started_at,omitempty"`
	Uptime    string `json:"uptime,omitempty" yaml:"uptime,omitempty"`
	Timestamp string `json:"timestamp,omitempty" yaml:"timestamp,omitempty"`
	Error     string `json:"error,omitempty" yaml:"error,omitempty"`
}

func runStatus(cmd *cobra.Command, args []string) error {
	serverURL := cmdutil.Flags.ServerURL
	if serverURL == "" {
		store, err := credentials.NewStore()
		if err != nil {
			return fmt.Errorf("failed to initialize credential store: %w", err)
		}
		ctx, err := store.GetCurrentContext()
		if err != nil {
			return fmt.Errorf("no context configured. Run 'memvaultctl context create' first")
		}
		serverURL = ctx.ServerURL
	}
	if serverURL == "" {
		return fmt.Errorf("no server configured. Run 'memvaultctl context create --server <url>' first")
	}

	status := serverStatus{Server: serverURL, Status: "unreachable", Healthy: false}

	client := &http.Client{Timeout: 5 * time.Second}
	resp, err := client.Get(serverURL + "/health")
	if err != nil {
		status.Error = err.Error()
	} else {
		defer func() { _ = resp.Body.Close() }()

		var hr health.Response
		if err := json.NewDecoder(resp.Body).Decode(&hr); err == nil {
			status.Status = hr.Status
			status.Healthy = hr.Status == "healthy"
			status.Service = hr.Data.Service
			status.StartedAt = timeutil.FormatTime(hr.Data.StartedAt)
			status.Uptime = timeutil.FormatUptime(hr.Data.Uptime)
			status.Timestamp = timeutil.FormatTime(hr.Timestamp)
		} else {
			status.Status = "unknown"
			status.Error = "failed to parse health response"
		}
	}

	format, err := cmdutil.GetOutputFormatParsed()
	if err != nil {
		return err
	}

	switch format {
	case output.FormatJSON:
		return output.PrintJSON(os.Stdout, status)
	case output.FormatYAML:
		return output.PrintYAML(os.Stdout, status)
	default:
		printStatusTable(status)
	}
	return nil
}

func printStatusTable(status serverStatus) {
	fmt.Println()
	fmt.Println("memvault Server Status")
	fmt.Println("=======================")
	fmt.Println()
	fmt.Printf("  Server:     %s\n", status.Server)

	if status.Healthy {
		fmt.Printf("  Status:     \033[32m● %s\033[0m\n", status.Status)
	} else if status.Status == "unreachable" {
		fmt.Printf("  Status:     \033[31m○ %s\033[0m\n", status.Status)
	} else {
		fmt.Printf("  Status:     \033[33m● %s\033[0m\n", status.Status)
	}

	if status.Service != "" {
		fmt.Printf("  Service:    %s\n", status.Service)
	}
	if status.StartedAt != "" {
		fmt.Printf("  Started at: %s\n", status.StartedAt)
	}
	if status.Uptime != "" {
		fmt.Printf("  Uptime:     %s\n", status.Uptime)
	}
	if status.Timestamp != "" {
		fmt.Printf("  Checked at: %s\n", status.Timestamp)
	}
	if status.Error != "" {
		fmt.Printf("  Error:      %s\n", status.Error)
	}
	fmt.Println()
}
