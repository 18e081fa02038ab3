package daemon

import (
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/flowzoneai/flowzone/internal/config"
)

// Lifecycle manages the daemon's PID file and liveness checks.
type Lifecycle struct {
	settings config.DaemonSettings
	pidFile  string
}

// NewLifecycle creates a lifecycle manager with the PID file under
// ~/.flowzone.
func NewLifecycle(settings config.DaemonSettings) *Lifecycle {
	homeDir, _ := os.UserHomeDir()
	if settings.Port == 0 {
		settings.Port = config.DefaultDaemonPort
	}

	return &Lifecycle{
		settings: settings,
		pidFile:  filepath.Join(homeDir, ".flowzone", "daemon.pid"),
	}
}

// PIDFile returns the PID file path.
func (l *Lifecycle) PIDFile() string {
	return l.pidFile
}

// IsRunning reports whether a daemon is already serving: the PID file exists
// and the health endpoint answers.
func (l *Lifecycle) IsRunning() bool {
	if _, err := l.ReadPID(); err != nil {
		return false
	}
	if l.healthCheck() {
		return true
	}
	// Stale PID file from a dead daemon
	_ = os.Remove(l.pidFile)
	return false
}

// ReadPID returns the PID recorded in the PID file.
func (l *Lifecycle) ReadPID() (int, error) {
	data, err := os.ReadFile(l.pidFile)
	if err != nil {
		return 0, err
	}

	pid, err := strconv.Atoi(string(data))
	if err != nil {
		return 0, fmt.Errorf("invalid PID file content: %w", err)
	}
	return pid, nil
}

// WritePID records the current process PID.
func (l *Lifecycle) WritePID() error {
	dir := filepath.Dir(l.pidFile)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create directory: %w", err)
	}
	return os.WriteFile(l.pidFile, []byte(strconv.Itoa(os.Getpid())), 0644)
}

// RemovePID deletes the PID file.
func (l *Lifecycle) RemovePID() error {
	return os.Remove(l.pidFile)
}

// Port returns the configured port.
func (l *Lifecycle) Port() int {
	return l.settings.Port
}

func (l *Lifecycle) healthCheck() bool {
	client := &http.Client{Timeout: 2 * time.Second}
	resp, err := client.Get(fmt.Sprintf("http://127.0.0.1:%d/health", l.settings.Port))
	if err != nil {
		return false
	}
	defer func() { _ = resp.Body.Close() }()

	return resp.StatusCode == http.StatusOK
}
