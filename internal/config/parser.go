package config

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	lua "github.com/yuin/gopher-lua"

	"github.com/ZebulonRouseFrantzich/torfetch/internal/logging"
	"github.com/ZebulonRouseFrantzich/torfetch/internal/platform"
	"github.com/ZebulonRouseFrantzich/torfetch/internal/torbrowser"
)

// Parser represents a Lua config parser with platform detection.
type Parser struct {
	detector platform.Detector
	logger   logging.Logger
}

// NewParser creates a new config parser with the given platform detector.
// A nil detector leaves the platform table out of the Lua state.
func NewParser(detector platform.Detector, logger logging.Logger) *Parser {
	return &Parser{detector: detector, logger: logging.OrNop(logger)}
}

// ParseFile reads and parses the config file at path.
func (p *Parser) ParseFile(ctx context.Context, path string) (*Config, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open config: %w", err)
	}
	defer f.Close()

	data, err := io.ReadAll(io.LimitReader(f, MaxConfigSize+1))
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}
	if len(data) > MaxConfigSize {
		return nil, &ParseError{
			Message: "config file too large",
			Detail:  fmt.Sprintf("%s exceeds %d bytes", path, MaxConfigSize),
		}
	}

	p.logger.Debug("parsing config", "path", path, "bytes", len(data))
	return p.ParseString(ctx, string(data))
}

// ParseString parses a Lua config from a string.
// This is useful for testing and in-memory config generation.
func (p *Parser) ParseString(ctx context.Context, luaCode string) (*Config, error) {
	L := newSandboxedVM()
	defer L.Close()
	L.SetContext(ctx)

	if p.detector != nil {
		platformInfo, err := p.detector.Detect(ctx)
		if err != nil {
			return nil, fmt.Errorf("platform detection failed: %w", err)
		}
		if err := platform.InjectPlatformTable(L, platformInfo); err != nil {
			return nil, fmt.Errorf("inject platform table: %w", err)
		}
	}

	if err := L.DoString(luaCode); err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, ctxErr
		}
		return nil, &ParseError{
			Message: "Lua syntax error",
			Detail:  err.Error(),
		}
	}

	return p.extractConfig(L)
}

// ParseError represents a config parsing error with friendly message.
type ParseError struct {
	Message string // User-friendly message
	Detail  string // Technical details (raw Lua error)
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("%s: %s", e.Message, e.Detail)
}

// extractConfig reads the global torfetch table on top of Default().
func (p *Parser) extractConfig(L *lua.LState) (*Config, error) {
	global := L.GetGlobal(luaGlobalTorfetch)
	if global.Type() != lua.LTTable {
		return nil, &ParseError{
			Message: fmt.Sprintf("missing or invalid '%s' table", luaGlobalTorfetch),
			Detail:  fmt.Sprintf("expected table, got %s", global.Type()),
		}
	}
	table := global.(*lua.LTable)

	config := Default()
	fields := map[string]func(lua.LValue) error{
		luaFieldRepository:            stringField(&config.Repository),
		luaFieldBranch:                branchField(&config.Branch),
		luaFieldVersion:               stringField(&config.Version),
		luaFieldPlatform:              stringField(&config.Platform),
		luaFieldArch:                  stringField(&config.Arch),
		luaFieldTarget:                stringField(&config.Target),
		luaFieldMaxRedirects:          intField(&config.MaxRedirects),
		luaFieldTimeout:               secondsField(&config.Timeout),
		luaFieldUserAgent:             stringField(&config.UserAgent),
		luaFieldDecompressConcurrency: intField(&config.DecompressConcurrency),
	}

	var fieldErr error
	table.ForEach(func(key, value lua.LValue) {
		if fieldErr != nil {
			return
		}
		name, ok := key.(lua.LString)
		if !ok {
			p.logger.Warn("ignoring non-string config key", "key", key.String())
			return
		}
		set, known := fields[string(name)]
		if !known {
			p.logger.Warn("ignoring unknown config key", "key", string(name))
			return
		}
		if err := set(value); err != nil {
			fieldErr = &ParseError{
				Message: fmt.Sprintf("invalid value for '%s'", name),
				Detail:  err.Error(),
			}
		}
	})
	if fieldErr != nil {
		return nil, fieldErr
	}

	if err := config.Validate(); err != nil {
		return nil, &ParseError{
			Message: "config validation failed",
			Detail:  err.Error(),
		}
	}

	return config, nil
}

func stringField(dst *string) func(lua.LValue) error {
	return func(v lua.LValue) error {
		s, ok := v.(lua.LString)
		if !ok {
			return fmt.Errorf("expected string, got %s", v.Type())
		}
		*dst = string(s)
		return nil
	}
}

func intField(dst *int) func(lua.LValue) error {
	return func(v lua.LValue) error {
		n, ok := v.(lua.LNumber)
		if !ok {
			return fmt.Errorf("expected number, got %s", v.Type())
		}
		if float64(n) != float64(int(n)) {
			return fmt.Errorf("expected integer, got %s", n.String())
		}
		*dst = int(n)
		return nil
	}
}

func branchField(dst *torbrowser.Branch) func(lua.LValue) error {
	return func(v lua.LValue) error {
		s, ok := v.(lua.LString)
		if !ok {
			return fmt.Errorf("expected string, got %s", v.Type())
		}
		b, err := torbrowser.ParseBranch(string(s))
		if err != nil {
			return err
		}
		*dst = b
		return nil
	}
}

// secondsField accepts fractional seconds.
func secondsField(dst *time.Duration) func(lua.LValue) error {
	return func(v lua.LValue) error {
		n, ok := v.(lua.LNumber)
		if !ok {
			return fmt.Errorf("expected number of seconds, got %s", v.Type())
		}
		*dst = time.Duration(float64(n) * float64(time.Second))
		return nil
	}
}

// FormatError formats a ParseError for user display.
// In verbose mode, show the raw Lua error. Otherwise, show friendly message.
func FormatError(err error, verbose bool) string {
	var parseErr *ParseError
	if errors.As(err, &parseErr) {
		if verbose {
			return fmt.Sprintf("%s\n\nDetails:\n%s", parseErr.Message, parseErr.Detail)
		}
		detail := parseErr.Detail
		if idx := strings.Index(detail, "stack traceback"); idx > 0 {
			detail = strings.TrimSpace(detail[:idx])
		}
		return fmt.Sprintf("%s: %s", parseErr.Message, detail)
	}
	return err.Error()
}
