package platform

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strings"
)

// DefaultAppName names the config and data directories.
const DefaultAppName = "tackboard"

// Paths holds the per-user locations tackboard reads and writes.
type Paths struct {
	ConfigPath string
	DataDir    string
	DBPath     string
	LogDir     string
}

// Options selects the app directory name and whether dev mode isolates it.
type Options struct {
	AppName string
	DevMode bool
}

// envOverride names the variables that replace the config and data bases on one OS.
type envOverride struct {
	config string
	data   string
}

// overridesByOS lists base-dir overrides. macOS keeps the os package defaults.
var overridesByOS = map[string]envOverride{
	"linux":   {config: "XDG_CONFIG_HOME", data: "XDG_DATA_HOME"},
	"windows": {config: "APPDATA", data: "LOCALAPPDATA"},
}

var (
	errEmptyBaseDir = errors.New("empty base dirs")
	errEmptyAppName = errors.New("empty app name")
)

// DefaultPaths resolves paths for the default app name.
func DefaultPaths() (Paths, error) {
	return DefaultPathsWithOptions(Options{AppName: DefaultAppName})
}

// DefaultPathsWithOptions resolves paths for the running OS and user.
func DefaultPathsWithOptions(opts Options) (Paths, error) {
	name := appDirName(opts)
	configBase, err := os.UserConfigDir()
	if err != nil {
		return Paths{}, fmt.Errorf("user config dir: %w", err)
	}
	dataBase, err := userDataBase(runtime.GOOS, configBase)
	if err != nil {
		return Paths{}, err
	}

	env := map[string]string{}
	if o, ok := overridesByOS[runtime.GOOS]; ok {
		env[o.config] = os.Getenv(o.config)
		env[o.data] = os.Getenv(o.data)
	}
	return PathsFor(runtime.GOOS, env, configBase, dataBase, name)
}

// PathsFor resolves paths for goos from explicit base dirs and environment overrides.
func PathsFor(goos string, env map[string]string, userConfigDir, userDataDir, appName string) (Paths, error) {
	if userConfigDir == "" || userDataDir == "" {
		return Paths{}, errEmptyBaseDir
	}
	appName = strings.TrimSpace(appName)
	if appName == "" {
		return Paths{}, errEmptyAppName
	}

	configBase, dataBase := userConfigDir, userDataDir
	if o, ok := overridesByOS[goos]; ok {
		configBase = firstNonEmpty(env[o.config], configBase)
		dataBase = firstNonEmpty(env[o.data], dataBase)
	}

	dataDir := filepath.Join(dataBase, appName)
	return Paths{
		ConfigPath: filepath.Join(configBase, appName, "config.toml"),
		DataDir:    dataDir,
		DBPath:     filepath.Join(dataDir, appName+".db"),
		LogDir:     filepath.Join(dataDir, "log"),
	}, nil
}

// appDirName applies the default name and the dev suffix.
func appDirName(opts Options) string {
	name := firstNonEmpty(strings.TrimSpace(opts.AppName), DefaultAppName)
	if opts.DevMode {
		return name + "-dev"
	}
	return name
}

// userDataBase picks the data root before env overrides apply.
func userDataBase(goos, configBase string) (string, error) {
	switch goos {
	case "linux":
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("user home dir: %w", err)
		}
		return filepath.Join(home, ".local", "share"), nil
	case "windows":
		return firstNonEmpty(strings.TrimSpace(os.Getenv("LOCALAPPDATA")), configBase), nil
	default:
		return configBase, nil
	}
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
