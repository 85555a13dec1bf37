package markup

import (
	"fmt"
	"os"
	"sync"

	lua "github.com/yuin/gopher-lua"
)

// renderFunction is the global a Lua script must define.
const renderFunction = "render"

// Lua renders markup with a user script. The script runs in a state with
// only the base, table, string and math libraries and must define a global
// function render(text) returning an HTML string.
type Lua struct {
	mu     sync.Mutex
	L      *lua.LState
	closed bool
}

// NewLua loads script into a fresh state.
func NewLua(script string) (*Lua, error) {
	L := lua.NewState(lua.Options{SkipOpenLibs: true})
	lua.OpenBase(L)
	lua.OpenTable(L)
	lua.OpenString(L)
	lua.OpenMath(L)
	for _, name := range []string{"dofile", "loadfile", "load", "loadstring"} {
		L.SetGlobal(name, lua.LNil)
	}

	if err := L.DoString(script); err != nil {
		L.Close()
		return nil, fmt.Errorf("load render script: %w", err)
	}
	if fn := L.GetGlobal(renderFunction); fn.Type() != lua.LTFunction {
		L.Close()
		return nil, ErrNoRenderFunction
	}
	return &Lua{L: L}, nil
}

// NewLuaFile loads a render script from path.
func NewLuaFile(path string) (*Lua, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read render script: %w", err)
	}
	return NewLua(string(data))
}

// Convert calls render(raw).
func (l *Lua) Convert(raw string) (string, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.closed {
		return "", ErrClosed
	}

	top := l.L.GetTop()
	defer l.L.SetTop(top)

	err := l.L.CallByParam(lua.P{
		Fn:      l.L.GetGlobal(renderFunction),
		NRet:    1,
		Protect: true,
	}, lua.LString(raw))
	if err != nil {
		return "", fmt.Errorf("lua render: %w", err)
	}
	s, ok := l.L.Get(-1).(lua.LString)
	if !ok {
		return "", fmt.Errorf("%w: got %s", ErrBadResult, l.L.Get(-1).Type())
	}
	return string(s), nil
}

// Close releases the Lua state.
func (l *Lua) Close() error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if !l.closed {
		l.closed = true
		l.L.Close()
	}
	return nil
}
