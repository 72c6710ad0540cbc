// Package build holds build-time information.
package build

// Version is the application version. It is also the default toolchain version marker,
// so a new release invalidates every compiled script.
// It defaults to "dev" and can be overwritten by linker flags.
var Version = "dev"

// Commit is the git commit the binary was built from.
var Commit = "none"

// Date is the build date.
var Date = "unknown"
