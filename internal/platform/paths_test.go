package platform

import (
	"path/filepath"
	"testing"
)

// TestPathsFor verifies per-OS resolution.
func TestPathsFor(t *testing.T) {
	cases := []struct {
		name       string
		goos       string
		env        map[string]string
		configBase string
		dataBase   string
		wantConfig string
		wantDB     string
	}{
		{
			name:       "linux xdg",
			goos:       "linux",
			env:        map[string]string{"XDG_CONFIG_HOME": "/xdg/config", "XDG_DATA_HOME": "/xdg/data"},
			configBase: "/fallback/config",
			dataBase:   "/fallback/data",
			wantConfig: filepath.Join("/xdg/config", "tackboard", "config.toml"),
			wantDB:     filepath.Join("/xdg/data", "tackboard", "tackboard.db"),
		},
		{
			name:       "linux fallback",
			goos:       "linux",
			env:        map[string]string{},
			configBase: "/home/me/.config",
			dataBase:   "/home/me/.local/share",
			wantConfig: filepath.Join("/home/me/.config", "tackboard", "config.toml"),
			wantDB:     filepath.Join("/home/me/.local/share", "tackboard", "tackboard.db"),
		},
		{
			name:       "windows appdata",
			goos:       "windows",
			env:        map[string]string{"APPDATA": `C:\Users\me\AppData\Roaming`, "LOCALAPPDATA": `C:\Users\me\AppData\Local`},
			configBase: `C:\fallback\config`,
			dataBase:   `C:\fallback\data`,
			wantConfig: filepath.Join(`C:\Users\me\AppData\Roaming`, "tackboard", "config.toml"),
			wantDB:     filepath.Join(`C:\Users\me\AppData\Local`, "tackboard", "tackboard.db"),
		},
		{
			name:       "darwin ignores xdg",
			goos:       "darwin",
			env:        map[string]string{"XDG_CONFIG_HOME": "/ignored", "XDG_DATA_HOME": "/ignored"},
			configBase: "/Users/me/Library/Application Support",
			dataBase:   "/Users/me/Library/Application Support",
			wantConfig: filepath.Join("/Users/me/Library/Application Support", "tackboard", "config.toml"),
			wantDB:     filepath.Join("/Users/me/Library/Application Support", "tackboard", "tackboard.db"),
		},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			p, err := PathsFor(tc.goos, tc.env, tc.configBase, tc.dataBase, DefaultAppName)
			if err != nil {
				t.Fatalf("PathsFor() error = %v", err)
			}
			if p.ConfigPath != tc.wantConfig {
				t.Fatalf("unexpected config path %q", p.ConfigPath)
			}
			if p.DBPath != tc.wantDB {
				t.Fatalf("unexpected db path %q", p.DBPath)
			}
			if p.LogDir != filepath.Join(p.DataDir, "log") {
				t.Fatalf("unexpected log dir %q", p.LogDir)
			}
		})
	}
}

// TestPathsForRejectsEmptyInputs verifies base dir and app name validation.
func TestPathsForRejectsEmptyInputs(t *testing.T) {
	if _, err := PathsFor("darwin", nil, "", "/tmp/data", DefaultAppName); err == nil {
		t.Fatal("expected error for empty dirs")
	}
	if _, err := PathsFor("linux", nil, "/cfg", "/data", " "); err == nil {
		t.Fatal("expected error for empty app name")
	}
}

// TestDefaultPathsWithOptionsDevMode verifies the dev suffix.
func TestDefaultPathsWithOptionsDevMode(t *testing.T) {
	p, err := DefaultPathsWithOptions(Options{DevMode: true})
	if err != nil {
		t.Fatalf("DefaultPathsWithOptions() error = %v", err)
	}
	if filepath.Base(filepath.Dir(p.ConfigPath)) != "tackboard-dev" {
		t.Fatalf("expected dev config dir suffix, got %q", p.ConfigPath)
	}
	if filepath.Base(p.DBPath) != "tackboard-dev.db" {
		t.Fatalf("expected dev db name, got %q", p.DBPath)
	}
}

// TestAppDirName verifies the default name and dev suffix.
func TestAppDirName(t *testing.T) {
	cases := []struct {
		opts Options
		want string
	}{
		{opts: Options{}, want: "tackboard"},
		{opts: Options{AppName: "  "}, want: "tackboard"},
		{opts: Options{AppName: "tack", DevMode: true}, want: "tack-dev"},
	}
	for _, tc := range cases {
		if got := appDirName(tc.opts); got != tc.want {
			t.Fatalf("appDirName(%#v) = %q, want %q", tc.opts, got, tc.want)
		}
	}
}

// TestPathsForUnknownOSUsesBases verifies that unlisted platforms ignore env overrides.
func TestPathsForUnknownOSUsesBases(t *testing.T) {
	p, err := PathsFor("plan9", map[string]string{"XDG_CONFIG_HOME": "/ignored"}, "/cfg", "/data", "tack")
	if err != nil {
		t.Fatalf("PathsFor() error = %v", err)
	}
	if p.ConfigPath != filepath.Join("/cfg", "tack", "config.toml") || p.DataDir != filepath.Join("/data", "tack") {
		t.Fatalf("unexpected paths %#v", p)
	}
}
