// Package version reports the build of the running binary.
//
// Version can be stamped at link time:
//
//	go build -ldflags "-X github.com/kbukum/depkit/version.Version=1.4.0"
//
// The commit and dirty flag come from the VCS settings Go embeds in the
// binary.
package version
