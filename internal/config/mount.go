package config

import (
	"os"
	"path/filepath"
	"syscall"
)

// containerSentinels mark that we are running inside a container (Docker and
// Podman respectively).
var containerSentinels = []string{"/.dockerenv", "/run/.containerenv"}

func inContainer() bool {
	for _, p := range containerSentinels {
		if _, err := os.Stat(p); err == nil {
			return true
		}
	}
	return false
}

// isMountPoint reports whether dir sits on a different device than its
// parent, which is how bind mounts show up inside a container.
func isMountPoint(dir string) bool {
	parent := filepath.Dir(dir)
	if parent == dir {
		return true
	}
	fi, err := os.Stat(dir)
	if err != nil {
		return false
	}
	pfi, err := os.Stat(parent)
	if err != nil {
		return false
	}
	st, ok := fi.Sys().(*syscall.Stat_t)
	pst, pok := pfi.Sys().(*syscall.Stat_t)
	if !ok || !pok {
		return true
	}
	return st.Dev != pst.Dev
}
