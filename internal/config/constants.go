package config

import "time"

// Lua schema field names and globals
const (
	luaGlobalTorfetch             = "torfetch"
	luaFieldRepository            = "repository"
	luaFieldBranch                = "branch"
	luaFieldVersion               = "version"
	luaFieldPlatform              = "platform"
	luaFieldArch                  = "arch"
	luaFieldTarget                = "target"
	luaFieldMaxRedirects          = "max_redirects"
	luaFieldTimeout               = "timeout"
	luaFieldUserAgent             = "user_agent"
	luaFieldDecompressConcurrency = "decompress_concurrency"
)

const (
	// DefaultFileName is looked up in the working directory when no config
	// path is given.
	DefaultFileName = "torfetch.lua"

	// EnvRepository overrides the repository URL of any config file.
	EnvRepository = "TORFETCH_REPOSITORY"

	// MaxConfigSize is the largest config file ParseFile accepts.
	MaxConfigSize = 1 << 20

	// MaxDecompressConcurrency bounds decompress_concurrency.
	MaxDecompressConcurrency = 256

	// DefaultTarget is where tor is installed when no target is set.
	DefaultTarget = "tor"

	// DefaultTimeout bounds a single request, body transfer included.
	DefaultTimeout = 10 * time.Minute
)
