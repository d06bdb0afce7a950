// Package config loads torfetch settings from a Lua file.
//
// A config file assigns a global table named torfetch:
//
//	torfetch = {
//	  repository = "https://dist.torproject.org/torbrowser/",
//	  branch = "stable",
//	  target = platform.is_windows and "C:/tor" or "/opt/tor",
//	  max_redirects = 10,
//	  timeout = 120,
//	}
//
// The file runs in a sandboxed gopher-lua VM. The os, io, debug and package
// libraries are unavailable, as are the functions that load code or touch
// metatables. A read-only platform table describing the host is injected
// before the file runs, so values can depend on it.
//
// Keys left out keep the values of Default. Unknown keys are logged and
// ignored.
//
// # Errors
//
// Lua errors and invalid values are reported as *ParseError. FormatError
// trims the Lua stack traceback unless verbose output is requested.
package config
