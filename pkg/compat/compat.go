// Package compat checks whether the current platform can drive a CRSF
// serial link.
package compat

import (
	"errors"
	"fmt"
	"runtime"
)

// ErrUnsupported indicates the current platform has no supported serial
// driver.
var ErrUnsupported = errors.New("platform not supported")

// supported lists the platforms with a working serial driver.
var supported = map[string]bool{
	"linux/amd64":   true,
	"linux/386":     true,
	"linux/arm":     true,
	"linux/arm64":   true,
	"darwin/amd64":  true,
	"darwin/arm64":  true,
	"windows/amd64": true,
	"windows/386":   true,
	"freebsd/amd64": true,
}

// PlatformName reports the current platform as "os/arch".
func PlatformName() string {
	return runtime.GOOS + "/" + runtime.GOARCH
}

// IsSupported reports whether the named platform is supported.
func IsSupported(name string) bool {
	return supported[name]
}

// Check verifies the current platform is supported.
func Check() error {
	if name := PlatformName(); !IsSupported(name) {
		return fmt.Errorf("%s: %w", name, ErrUnsupported)
	}
	return nil
}
