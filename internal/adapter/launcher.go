package adapter

import (
	"fmt"
	"log/slog"
	"os/exec"
	"runtime"
	"strings"
)

// Launcher opens episode streams in an external player
type Launcher struct {
	command string   // configured player command, empty for auto-detection
	args    []string // additional arguments for the player
	logger  *slog.Logger

	// start is swapped out in tests
	start func(name string, args ...string) error
}

// launchPath defines a single way to launch a player
type launchPath struct {
	path      string   // Command path: "mpv", "vlc", or "open-a:AppName"
	openFlags []string // For "open-a:" paths only - flags for macOS open command
}

// players registry: platform -> launch paths to try in order
var players = map[string]map[string][]launchPath{
	"mpv": {
		"darwin":  {{path: "mpv"}},
		"linux":   {{path: "mpv"}},
		"windows": {{path: "mpv"}},
	},
	"vlc": {
		"darwin":  {{path: "vlc"}, {path: "open-a:VLC"}},
		"linux":   {{path: "vlc"}},
		"windows": {{path: "vlc"}},
	},
	"iina": {
		"darwin": {{path: "open-a:IINA", openFlags: []string{"-n"}}},
	},
	"celluloid": {
		"linux": {{path: "celluloid"}},
	},
}

// candidatePlayers defines the preferred player order for each platform
var candidatePlayers = map[string][]string{
	"darwin":  {"iina", "vlc", "mpv"},
	"linux":   {"mpv", "celluloid", "vlc"},
	"windows": {"vlc", "mpv"},
}

// NewLauncher creates a new Launcher
func NewLauncher(command string, args []string, logger *slog.Logger) *Launcher {
	if logger == nil {
		logger = slog.Default()
	}
	return &Launcher{
		command: command,
		args:    args,
		logger:  logger,
		start:   startCommand,
	}
}

func startCommand(name string, args ...string) error {
	if _, err := exec.LookPath(name); err != nil {
		return err
	}
	return exec.Command(name, args...).Start() // Start async, don't wait
}

// Launch opens url in the configured player, the first detected candidate,
// or the system default handler.
func (l *Launcher) Launch(url string) error {
	if url == "" {
		return fmt.Errorf("no stream url")
	}

	// Tier 1: User configured a specific player
	if l.command != "" {
		args := append(append([]string{}, l.args...), url)
		l.logger.Info("launching player", "command", l.command, "args", args)
		return l.start(l.command, args...)
	}

	// Tier 2: Try candidate chain
	if name, err := l.detectAndLaunch(url); err == nil {
		l.logger.Info("launched with detected player", "player", name)
		return nil
	}

	// Tier 3: Fall back to system default (open/xdg-open/start)
	l.logger.Info("no candidate players found, using system default")
	return l.launchDefault(url)
}

// detectAndLaunch tries candidate players in order.
// Returns the player name that succeeded.
func (l *Launcher) detectAndLaunch(url string) (string, error) {
	candidates, ok := candidatePlayers[runtime.GOOS]
	if !ok {
		candidates = candidatePlayers["linux"]
	}

	for _, name := range candidates {
		for _, lp := range players[name][runtime.GOOS] {
			var err error
			if app, ok := strings.CutPrefix(lp.path, "open-a:"); ok {
				args := append(append([]string{}, lp.openFlags...), "-a", app, url)
				err = l.start("open", args...)
			} else {
				err = l.start(lp.path, append(append([]string{}, l.args...), url)...)
			}
			if err == nil {
				return name, nil
			}
			l.logger.Debug("launch path not available", "player", name, "path", lp.path, "error", err)
		}
	}
	return "", fmt.Errorf("no candidate players found")
}

// launchDefault opens the URL using the system default handler
func (l *Launcher) launchDefault(url string) error {
	l.logger.Info("launching with system default", "os", runtime.GOOS, "url", url)

	switch runtime.GOOS {
	case "darwin":
		return l.start("open", url)
	case "windows":
		return l.start("cmd", "/c", "start", "", url)
	default:
		return l.start("xdg-open", url)
	}
}
