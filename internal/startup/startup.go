package startup

import (
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"sort"
	"strings"
	"time"

	"github.com/gorilla/mux"

	"file-dashboard/internal/logging"
)

// Build-time variables (injected via -ldflags)
var (
	Version   = "dev"
	Commit    = "unknown"
	BuildTime = "unknown"
	GoVersion = runtime.Version()
)

// BuildInfo contains version and build information
type BuildInfo struct {
	Version   string `json:"version"`
	Commit    string `json:"commit"`
	BuildTime string `json:"buildTime"`
	GoVersion string `json:"goVersion"`
	OS        string `json:"os"`
	Arch      string `json:"arch"`
}

// GetBuildInfo returns the current build information
func GetBuildInfo() BuildInfo {
	return BuildInfo{
		Version:   Version,
		Commit:    Commit,
		BuildTime: BuildTime,
		GoVersion: GoVersion,
		OS:        runtime.GOOS,
		Arch:      runtime.GOARCH,
	}
}

// RouteInfo contains information about a registered route
type RouteInfo struct {
	Method string
	Path   string
	Name   string
}

func section(title string) {
	logging.Info("")
	logging.Info("------------------------------------------------------------")
	logging.Info("%s", title)
	logging.Info("------------------------------------------------------------")
}

// LogStartup prints the banner, system information and the effective
// configuration. The secret key is never logged.
func LogStartup(cfg *Config) {
	printBanner()
	logSystemInfo()

	section("CONFIGURATION")
	logging.Info("  MANAGED_DIRECTORY:  %s", cfg.ManagedDirectory)
	logging.Info("  DATABASE_PATH:      %s", cfg.DatabasePath)
	logging.Info("  LISTEN_ADDRESS:     %s", cfg.ListenAddress)
	logging.Info("  METRICS_ENABLED:    %v", cfg.MetricsEnabled)
	logging.Info("  THUMBNAIL_SIZE:     %d", cfg.ThumbnailSize)
	logging.Info("  LOG_LEVEL:          %s", logging.GetLevel())
	if cfg.Log.File != "" {
		logging.Info("  LOG_FILE:           %s", cfg.Log.File)
	}

	if cfg.UsesDefaultSecret() {
		logging.Warn("  SECRET_KEY is not set; using the development default")
	}
}

// PrepareDirectories creates the managed directory and the database's
// parent directory, and checks the latter is writable.
func PrepareDirectories(cfg *Config) error {
	section("DIRECTORY SETUP")

	if err := ensureDirectory(cfg.ManagedDirectory, "managed"); err != nil {
		return fmt.Errorf("managed directory error: %w", err)
	}
	logging.Info("  [OK] Managed directory: %s", cfg.ManagedDirectory)

	dbDir := filepath.Dir(cfg.DatabasePath)
	if err := ensureDirectory(dbDir, "database"); err != nil {
		return fmt.Errorf("database directory error: %w", err)
	}

	logging.Debug("  Testing database directory write access...")
	if err := testWriteAccess(dbDir); err != nil {
		return fmt.Errorf("database directory is not writable: %w", err)
	}
	logging.Info("  [OK] Database directory is writable")

	if cfg.DatabaseInManagedDirectory() {
		logging.Warn("  [WARN] Database %s is inside the managed directory; its files are excluded from the catalog", cfg.DatabasePath)
	}
	return nil
}

// LogDatabaseInit logs database initialization
func LogDatabaseInit(duration time.Duration) {
	section("DATABASE INITIALIZATION")
	logging.Info("  [OK] Database initialized in %v", duration)
}

// LogInitialSync logs the outcome of the startup sync
func LogInitialSync(indexed int, pruned int64, duration time.Duration) {
	section("INITIAL SYNC")
	logging.Info("  [OK] %d files indexed, %d removed in %v", indexed, pruned, duration)
}

// GetRoutes extracts all registered routes from a mux.Router
func GetRoutes(router *mux.Router) ([]RouteInfo, error) {
	var routes []RouteInfo

	err := router.Walk(func(route *mux.Route, _ *mux.Router, _ []*mux.Route) error {
		pathTemplate, err := route.GetPathTemplate()
		if err != nil {
			return err
		}

		methods, err := route.GetMethods()
		if err != nil {
			methods = []string{"*"}
		}

		for _, method := range methods {
			routes = append(routes, RouteInfo{
				Method: method,
				Path:   pathTemplate,
				Name:   route.GetName(),
			})
		}
		return nil
	})

	return routes, err
}

// LogHTTPRoutes logs the registered routes grouped by first path segment.
// Routes are listed only at debug level.
func LogHTTPRoutes(router *mux.Router) {
	section("HTTP SERVER SETUP")

	routes, err := GetRoutes(router)
	if err != nil {
		logging.Warn("error walking routes: %v", err)
	}
	logging.Info("  %d routes registered", len(routes))

	if !logging.IsDebugEnabled() {
		return
	}

	groups := make(map[string][]RouteInfo)
	for _, route := range routes {
		group := getRouteGroup(route.Path)
		groups[group] = append(groups[group], route)
	}

	groupKeys := make([]string, 0, len(groups))
	for k := range groups {
		groupKeys = append(groupKeys, k)
	}
	sort.Strings(groupKeys)

	for _, group := range groupKeys {
		if group == "" {
			logging.Debug("  [root]")
		} else {
			logging.Debug("  [%s]", group)
		}
		for _, route := range groups[group] {
			logging.Debug("    %-6s %s", route.Method, route.Path)
		}
	}
}

// getRouteGroup extracts a group name from a route path
func getRouteGroup(path string) string {
	path = strings.TrimPrefix(path, "/")

	first, rest, _ := strings.Cut(path, "/")
	if first == "api" && rest != "" {
		sub, _, _ := strings.Cut(rest, "/")
		return "api/" + sub
	}
	return first
}

// LogServerStarted logs successful server start with endpoint information
func LogServerStarted(listenAddress string, metricsEnabled bool, startupDuration time.Duration) {
	section("SERVER STARTED")
	logging.Info("  Startup time:    %v", startupDuration)
	logging.Info("  Dashboard:       http://%s", listenAddress)
	if metricsEnabled {
		logging.Info("  Metrics:         http://%s/metrics", listenAddress)
	} else {
		logging.Info("  Metrics:         DISABLED")
	}
	logging.Info("")
	logging.Info("  Press Ctrl+C to stop the server")
	logging.Info("------------------------------------------------------------")
}

// LogShutdownInitiated logs shutdown start
func LogShutdownInitiated(signal string) {
	section(fmt.Sprintf("SHUTDOWN INITIATED (received %s)", signal))
}

// LogShutdownStepComplete logs a completed shutdown step
func LogShutdownStepComplete(step string) {
	logging.Info("  [OK] %s", step)
}

// LogShutdownComplete logs shutdown completion
func LogShutdownComplete() {
	logging.Info("  [OK] Shutdown complete")
}

func printBanner() {
	banner := `
------------------------------------------------------------
   _____ __        ____            __    __                         __
  / __(_) /__     / __ \____ _____/ /_  / /_  ____  ____ __________/ /
 / /_/ / / _ \   / / / / __ '/ ___/ __ \/ __ \/ __ \/ __ '/ ___/ __  /
/ __/ / /  __/  / /_/ / /_/ (__  ) / / / /_/ / /_/ / /_/ / /  / /_/ /
/_/ /_/_/\___/  /_____/\__,_/____/_/ /_/_.___/\____/\__,_/_/   \__,_/

------------------------------------------------------------`
	fmt.Fprintln(os.Stderr, banner)
	logging.Info("  Version:    %s", Version)
	logging.Info("  Commit:     %s", Commit)
	logging.Info("  Build Time: %s", BuildTime)
	logging.Info("  Started:    %s", time.Now().Format(time.RFC1123))
}

func logSystemInfo() {
	section("SYSTEM INFORMATION")
	logging.Info("  Go version:      %s", runtime.Version())
	logging.Info("  OS/Arch:         %s/%s", runtime.GOOS, runtime.GOARCH)
	logging.Info("  CPUs available:  %d", runtime.NumCPU())

	if logging.IsDebugEnabled() {
		if wd, err := os.Getwd(); err == nil {
			logging.Debug("  Working dir:     %s", wd)
		}
		if hostname, err := os.Hostname(); err == nil {
			logging.Debug("  Hostname:        %s", hostname)
		}
	}
}

func ensureDirectory(path, name string) error {
	logging.Debug("  Checking %s directory: %s", name, path)

	info, err := os.Stat(path)
	if os.IsNotExist(err) {
		logging.Debug("    Directory does not exist, creating...")
		if err := os.MkdirAll(path, 0o755); err != nil {
			return fmt.Errorf("failed to create directory: %w", err)
		}
		return nil
	}
	if err != nil {
		return fmt.Errorf("failed to stat directory: %w", err)
	}
	if !info.IsDir() {
		return fmt.Errorf("%s exists but is not a directory", path)
	}
	return nil
}

func testWriteAccess(dir string) error {
	testFile := filepath.Join(dir, ".write-test")
	if err := os.WriteFile(testFile, []byte("test"), 0o600); err != nil {
		return err
	}
	if err := os.Remove(testFile); err != nil {
		logging.Warn("failed to remove write test file %s: %v", testFile, err)
	}
	return nil
}
