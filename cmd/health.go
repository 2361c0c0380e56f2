// ABOUTME: Health command for the schooltrack CLI
// ABOUTME: Probes the identity and camera services concurrently

package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/schooltrack/schooltrack-cli/internal/capture/httpcam"
	"github.com/schooltrack/schooltrack-cli/internal/config"
	"github.com/schooltrack/schooltrack-cli/internal/gateway"
)

var healthCmd = &cobra.Command{
	Use:   "health",
	Short: "Check service connectivity",
	Long:  `Probe the identity and camera services and report whether each is reachable.`,
	Run: func(cmd *cobra.Command, args []string) {
		ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
		defer cancel()

		exitCode := runHealth(ctx, os.Stdout)
		if exitCode != 0 {
			os.Exit(exitCode)
		}
	},
}

func init() {
	rootCmd.AddCommand(healthCmd)
}

// probeResult holds the outcome of one service probe
type probeResult struct {
	name string
	url  string
	err  error
}

// runHealth probes both services and returns the exit code
func runHealth(ctx context.Context, w io.Writer) int {
	cfg := config.Load()
	identityURL := GetAPIURL()
	camURL := GetCameraURL()

	identity := probeResult{name: "Identity", url: identityURL}
	camera := probeResult{name: "Camera", url: camURL}

	// Both probes run in parallel; each records its own error rather
	// than aborting the other.
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		identity.err = gateway.New(identityURL).Health(gctx)
		return nil
	})
	g.Go(func() error {
		camera.err = httpcam.New(camURL, cfg.CameraTimeout).Health(gctx)
		return nil
	})
	_ = g.Wait()

	results := []probeResult{identity, camera}
	if IsJSONOutput() {
		fmt.Fprintln(w, formatHealthJSON(results))
	} else {
		fmt.Fprintln(w, formatHealthHuman(results))
	}

	for _, r := range results {
		if r.err != nil {
			return 2
		}
	}
	return 0
}

// formatHealthHuman formats probe results for human readability
func formatHealthHuman(results []probeResult) string {
	var output string
	for _, r := range results {
		symbol, detail := "✓", "ok"
		if r.err != nil {
			symbol, detail = "✗", r.err.Error()
		}
		output += fmt.Sprintf("%s %-9s %s (%s)\n", symbol, r.name+":", r.url, detail)
	}
	output += fmt.Sprintf("Checked at %s", time.Now().Format(time.RFC3339))
	return output
}

// formatHealthJSON formats probe results as JSON
func formatHealthJSON(results []probeResult) string {
	services := make([]map[string]interface{}, len(results))
	healthy := true
	for i, r := range results {
		entry := map[string]interface{}{
			"name":    r.name,
			"url":     r.url,
			"healthy": r.err == nil,
		}
		if r.err != nil {
			entry["error"] = r.err.Error()
			healthy = false
		}
		services[i] = entry
	}

	status := "healthy"
	if !healthy {
		status = "unhealthy"
	}
	output := map[string]interface{}{
		"status":   status,
		"services": services,
	}
	data, _ := json.MarshalIndent(output, "", "  ")
	return string(data)
}
