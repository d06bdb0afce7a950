package config

import (
	lua "github.com/yuin/gopher-lua"
)

const (
	sandboxCallStackSize = 256
	sandboxRegistrySize  = 1024 * 8
)

// sandboxLibs are the only standard libraries opened in a sandboxed VM. The
// package library must come first; its globals are removed afterwards.
var sandboxLibs = []struct {
	name string
	open lua.LGFunction
}{
	{lua.LoadLibName, lua.OpenPackage},
	{lua.BaseLibName, lua.OpenBase},
	{lua.TabLibName, lua.OpenTable},
	{lua.StringLibName, lua.OpenString},
	{lua.MathLibName, lua.OpenMath},
}

// blockedGlobals are base library functions that load code, reach outside the
// VM or bypass the read-only platform table.
var blockedGlobals = []string{
	"package",
	"require",
	"module",
	"dofile",
	"loadfile",
	"load",
	"loadstring",
	"collectgarbage",
	"getfenv",
	"setfenv",
	"getmetatable",
	"setmetatable",
	"rawget",
	"rawset",
	"rawequal",
}

// newSandboxedVM creates a Lua VM without the os, io, debug, channel and
// coroutine libraries, and with blockedGlobals removed.
func newSandboxedVM() *lua.LState {
	L := lua.NewState(lua.Options{
		SkipOpenLibs:  true,
		CallStackSize: sandboxCallStackSize,
		RegistrySize:  sandboxRegistrySize,
	})

	for _, lib := range sandboxLibs {
		L.Push(L.NewFunction(lib.open))
		L.Push(lua.LString(lib.name))
		L.Call(1, 0)
	}

	for _, name := range blockedGlobals {
		L.SetGlobal(name, lua.LNil)
	}

	return L
}
