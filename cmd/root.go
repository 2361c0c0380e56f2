// ABOUTME: Root command for the schooltrack CLI
// ABOUTME: Handles global flags and configuration

package cmd

import (
	"github.com/spf13/cobra"

	"github.com/schooltrack/schooltrack-cli/internal/config"
)

var (
	apiURL     string
	cameraURL  string
	jsonOutput bool
)

// rootCmd is the base command
var rootCmd = &cobra.Command{
	Use:   "schooltrack",
	Short: "CLI for the SchoolTrack attendance platform",
	Long: `schooltrack is a command-line client for the SchoolTrack attendance platform.

It provides an interactive sign-in and enrollment flow plus non-interactive
commands for scripted use.

Environment Variables:
  SCHOOLTRACK_API_URL     Identity service URL (default: http://localhost:8080)
  SCHOOLTRACK_CAMERA_URL  Camera service URL (default: http://localhost:8090)`,
}

// Execute runs the root command
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().StringVar(&apiURL, "api-url", "", "Identity service URL (overrides SCHOOLTRACK_API_URL)")
	rootCmd.PersistentFlags().StringVar(&cameraURL, "camera-url", "", "Camera service URL (overrides SCHOOLTRACK_CAMERA_URL)")
	rootCmd.PersistentFlags().BoolVar(&jsonOutput, "json", false, "Output JSON instead of human-readable text")
}

// GetAPIURL returns the identity service URL from flag, env, or default
// (in priority order)
func GetAPIURL() string {
	if apiURL != "" {
		return apiURL
	}
	return config.Load().APIURL
}

// GetCameraURL returns the camera service URL from flag, env, or default
// (in priority order)
func GetCameraURL() string {
	if cameraURL != "" {
		return cameraURL
	}
	return config.Load().CameraURL
}

// IsJSONOutput returns whether JSON output is requested
func IsJSONOutput() bool {
	return jsonOutput
}
