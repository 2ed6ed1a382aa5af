// Package config persists the user's CCC settings in a KEY=value file under
// the XDG config home. A single-user, single-writer assumption applies: no
// lock is taken around reads or writes of the config file.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/viper"

	"github.com/BrownCS/common-course-containers/internal/paths"
)

var (
	// ErrNotConfigured indicates no courses directory has been saved yet
	ErrNotConfigured = errors.New("courses directory not configured (run 'ccc init' first)")
	// ErrInvalidCoursesDir indicates the requested courses directory does not exist
	ErrInvalidCoursesDir = errors.New("courses directory does not exist")
)

// Recognized keys. COURSES_DIR is required for most commands; the rest are
// optional overrides.
const (
	keyCoursesDir       = "courses_dir"
	keyImagePrefix      = "ccc_image_prefix"
	keyNetworkName      = "ccc_network_name"
	keyDefaultBaseImage = "ccc_default_base_image"
	keyMountPath        = "ccc_mount_path"
	keyUpdateRepo       = "ccc_update_repo"
	keyPlatform         = "ccc_platform"
	keyUserns           = "ccc_userns"
)

// EnvCoursesDir overrides the persisted courses directory without ever being
// written back to the config file.
const EnvCoursesDir = "CCC_COURSES_DIR"

// Config reads settings with viper (defaults < file < environment) and writes
// through a second, file-only viper so that neither defaults nor environment
// overrides leak into the persisted file.
type Config struct {
	v    *viper.Viper
	file *viper.Viper
	path string
}

// Open loads the configuration from its default location. A missing config
// file is not an error; the file simply appears on the first save.
func Open() (*Config, error) {
	return openAt(paths.ConfigFile())
}

func openAt(path string) (*Config, error) {
	v := viper.New()
	v.SetConfigFile(path)
	v.SetConfigType("env")
	v.SetDefault(keyImagePrefix, "ccc")
	v.SetDefault(keyNetworkName, "ccc-net")
	v.SetDefault(keyDefaultBaseImage, "ubuntu:24.04")
	v.SetDefault(keyMountPath, "/home/student/courses")
	if err := v.BindEnv(keyCoursesDir, EnvCoursesDir); err != nil {
		return nil, err
	}

	file := viper.New()
	file.SetConfigFile(path)
	file.SetConfigType("env")

	for _, vp := range []*viper.Viper{v, file} {
		if err := vp.ReadInConfig(); err != nil {
			if os.IsNotExist(err) {
				continue
			}
			return nil, fmt.Errorf("failed to read config %s: %w", path, err)
		}
	}

	return &Config{v: v, file: file, path: path}, nil
}

// Exists reports whether a config file has been written.
func (c *Config) Exists() bool {
	_, err := os.Stat(c.path)
	return err == nil
}

// CoursesDir returns the configured courses directory, honoring the
// CCC_COURSES_DIR environment override. The directory must exist, and inside
// a container it must be a mount point.
func (c *Config) CoursesDir() (string, error) {
	dir := c.v.GetString(keyCoursesDir)
	if dir == "" {
		return "", ErrNotConfigured
	}
	fi, err := os.Stat(dir)
	if err != nil || !fi.IsDir() {
		return "", fmt.Errorf("%w: %s", ErrInvalidCoursesDir, dir)
	}
	if inContainer() && !isMountPoint(dir) {
		return "", fmt.Errorf("running inside a container but %s is not a mount point", dir)
	}
	return dir, nil
}

func (c *Config) ImagePrefix() string      { return c.v.GetString(keyImagePrefix) }
func (c *Config) NetworkName() string      { return c.v.GetString(keyNetworkName) }
func (c *Config) DefaultBaseImage() string { return c.v.GetString(keyDefaultBaseImage) }
func (c *Config) MountPath() string        { return c.v.GetString(keyMountPath) }
func (c *Config) UpdateRepo() string       { return c.v.GetString(keyUpdateRepo) }
func (c *Config) Platform() string         { return c.v.GetString(keyPlatform) }
func (c *Config) Userns() string           { return c.v.GetString(keyUserns) }

// Settings returns every recognized key with its effective value, for
// `ccc config`.
func (c *Config) Settings() map[string]string {
	dir := c.v.GetString(keyCoursesDir)
	return map[string]string{
		"COURSES_DIR":            dir,
		"CCC_IMAGE_PREFIX":       c.ImagePrefix(),
		"CCC_NETWORK_NAME":       c.NetworkName(),
		"CCC_DEFAULT_BASE_IMAGE": c.DefaultBaseImage(),
		"CCC_MOUNT_PATH":         c.MountPath(),
		"CCC_UPDATE_REPO":        c.UpdateRepo(),
		"CCC_PLATFORM":           c.Platform(),
		"CCC_USERNS":             c.Userns(),
	}
}

// SetCoursesDir canonicalizes path to absolute form and persists it. The
// directory must already exist; nothing is written otherwise.
func (c *Config) SetCoursesDir(path string) error {
	abs, err := filepath.Abs(path)
	if err != nil {
		return fmt.Errorf("%w: %s", ErrInvalidCoursesDir, path)
	}
	if real, err := filepath.EvalSymlinks(abs); err == nil {
		abs = real
	}
	fi, err := os.Stat(abs)
	if err != nil || !fi.IsDir() {
		return fmt.Errorf("%w: %s", ErrInvalidCoursesDir, abs)
	}
	if inContainer() && !isMountPoint(abs) {
		return fmt.Errorf("running inside a container but %s is not a mount point", abs)
	}

	if err := os.MkdirAll(filepath.Dir(c.path), 0o700); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}
	c.file.Set(keyCoursesDir, abs)
	if err := c.file.WriteConfigAs(c.path); err != nil {
		return fmt.Errorf("failed to write config %s: %w", c.path, err)
	}
	c.v.Set(keyCoursesDir, abs)
	return nil
}
