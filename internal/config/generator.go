package config

import (
	"bytes"
	"fmt"
	"strconv"
	"strings"
)

// Generator generates Lua configuration code from a Config.
type Generator struct {
	indent string // Indentation string (default: two spaces)
}

// NewGenerator creates a new Lua config generator.
func NewGenerator() *Generator {
	return &Generator{
		indent: "  ",
	}
}

// Generate writes config as a torfetch.lua file. Empty strings are left out
// so the parser falls back to its defaults for them.
func (g *Generator) Generate(config *Config) (string, error) {
	if config == nil {
		return "", fmt.Errorf("generate config: nil config")
	}

	var buf bytes.Buffer
	buf.WriteString("-- torfetch configuration\n\n")
	buf.WriteString(luaGlobalTorfetch + " = {\n")

	g.writeString(&buf, luaFieldRepository, config.Repository)
	g.writeString(&buf, luaFieldBranch, string(config.Branch))
	g.writeString(&buf, luaFieldVersion, config.Version)
	g.writeString(&buf, luaFieldPlatform, config.Platform)
	g.writeString(&buf, luaFieldArch, config.Arch)
	g.writeString(&buf, luaFieldTarget, config.Target)
	g.writeField(&buf, luaFieldMaxRedirects, strconv.Itoa(config.MaxRedirects))
	g.writeField(&buf, luaFieldTimeout, strconv.FormatFloat(config.Timeout.Seconds(), 'f', -1, 64))
	g.writeString(&buf, luaFieldUserAgent, config.UserAgent)
	if config.DecompressConcurrency > 0 {
		g.writeField(&buf, luaFieldDecompressConcurrency, strconv.Itoa(config.DecompressConcurrency))
	}

	buf.WriteString("}\n")
	return buf.String(), nil
}

func (g *Generator) writeString(buf *bytes.Buffer, key, value string) {
	if value == "" {
		return
	}
	g.writeField(buf, key, g.quoteLuaString(value))
}

func (g *Generator) writeField(buf *bytes.Buffer, key, literal string) {
	buf.WriteString(g.indent)
	buf.WriteString(key)
	buf.WriteString(" = ")
	buf.WriteString(literal)
	buf.WriteString(",\n")
}

// quoteLuaString quotes a string for Lua. Control bytes without a short
// escape are written as decimal escapes.
func (g *Generator) quoteLuaString(s string) string {
	var b strings.Builder
	b.Grow(len(s) + 2)
	b.WriteByte('"')
	for i := 0; i < len(s); i++ {
		c := s[i]
		switch c {
		case '\\':
			b.WriteString(`\\`)
		case '"':
			b.WriteString(`\"`)
		case '\n':
			b.WriteString(`\n`)
		case '\r':
			b.WriteString(`\r`)
		case '\t':
			b.WriteString(`\t`)
		default:
			if c < 0x20 || c == 0x7f {
				fmt.Fprintf(&b, "\\%03d", c)
				continue
			}
			b.WriteByte(c)
		}
	}
	b.WriteByte('"')
	return b.String()
}
