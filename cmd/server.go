package cmd

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"stormlightlabs.org/gamedb/internal/echo"
	"stormlightlabs.org/gamedb/internal/middleware"
	"stormlightlabs.org/gamedb/internal/statusapi"
)

// ServerCmd creates the server command group
func ServerCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "server",
		Short: "Status server operations",
		Long:  "Start and check the ingest status HTTP surface.",
	}

	cmd.AddCommand(ServerStartCmd())
	cmd.AddCommand(ServerHealthCmd())
	return cmd
}

// ServerStartCmd creates the start command
func ServerStartCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "start",
		Short: "Start the status server",
		Long:  "Start the HTTP surface an external dashboard polls for ingest run history and games with issues.",
		RunE:  startServer,
	}

	cmd.Flags().Bool("debug", false, "Enable debug mode (disables rate limiting)")
	return cmd
}

// ServerHealthCmd creates the health command
func ServerHealthCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "health",
		Short: "Check server health",
		Long:  "Perform health check on the running status server.",
		RunE:  checkHealth,
	}
}

func checkHealth(cmd *cobra.Command, args []string) error {
	echo.Header("Health Check")

	cfg, err := loadConfigForCmd(cmd)
	if err != nil {
		return fmt.Errorf("error: failed to load config: %w", err)
	}

	serverURL := fmt.Sprintf("http://%s:%d/health", cfg.Server.Host, cfg.Server.Port)
	echo.Infof("Checking: %s", serverURL)
	echo.Info("")

	resp, err := http.Get(serverURL)
	if err != nil {
		return fmt.Errorf("error: server is not running or unreachable: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusOK {
		echo.Successf("✓ Server is healthy (Status: %s)", resp.Status)

		body, err := io.ReadAll(resp.Body)
		if err == nil && len(body) > 0 {
			var prettyJSON bytes.Buffer
			if err := json.Indent(&prettyJSON, body, "", "  "); err == nil {
				echo.Info("")
				echo.Info(prettyJSON.String())
			}
		}
		return nil
	}

	return fmt.Errorf("error: server returned status: %s", resp.Status)
}

func startServer(cmd *cobra.Command, args []string) error {
	echo.Header("Starting Server")
	echo.Info("Loading configuration...")

	cfg, err := loadConfigForCmd(cmd)
	if err != nil {
		return fmt.Errorf("error: failed to load config: %w", err)
	}

	debugMode, _ := cmd.Flags().GetBool("debug")
	if debugMode {
		cfg.Server.DebugMode = true
	}

	echo.Info("Connecting to database...")
	database, err := connectStore(cfg)
	if err != nil {
		return fmt.Errorf("error: %w", err)
	}
	defer database.Close()
	echo.Success("✓ Connected to database")

	cacheClient := connectCache(cmd, cfg)
	if cacheClient != nil {
		echo.Success("✓ Connected to Redis")
		defer cacheClient.Redis.Close()
	}

	server := statusapi.NewServer(database, cacheClient)

	timeFmt := time.DateTime
	if cfg.Server.DebugMode {
		timeFmt = time.Kitchen
	}

	logger := log.NewWithOptions(cmd.OutOrStdout(), log.Options{
		ReportTimestamp: true,
		TimeFormat:      timeFmt,
		Prefix:          "⚾️",
		ReportCaller:    cfg.Server.DebugMode,
	})

	var handler http.Handler = server
	handler = middleware.Logger(logger)(handler)
	handler = middleware.MetricsMiddleware(nil)(handler)
	handler = middleware.TraceMiddleware(handler)

	if !cfg.Server.DebugMode && cacheClient != nil {
		rateLimiter := middleware.NewRateLimiter(cacheClient.Redis, cfg.Server.DebugMode, 60, time.Minute)
		handler = rateLimiter.Middleware(handler)
		echo.Info("✓ Rate limiting enabled (60 req/min per IP)")
	} else if cfg.Server.DebugMode {
		echo.Warn("⚠ Rate limiting disabled (debug mode)")
	} else {
		echo.Warn("⚠ Rate limiting disabled (Redis unavailable)")
	}

	echo.Info("✓ Request logging enabled")

	addr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	echo.Success(fmt.Sprintf("✓ Server starting on %s", addr))
	echo.Info("Press Ctrl+C to stop")
	echo.Info("")
	return http.ListenAndServe(addr, handler)
}
