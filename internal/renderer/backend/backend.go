// Package backend abstracts the terminal the painter draws on.
package backend

import "github.com/jpkraemer/markdown-brackets/internal/renderer/core"

// EventType identifies the type of terminal event.
type EventType int

const (
	EventNone EventType = iota
	EventKey
	EventMouse
	EventResize
	// EventClosed is returned once the backend has shut down.
	EventClosed
)

// Event is a terminal event.
type Event struct {
	Type EventType

	// Key events
	Key  Key
	Rune rune
	Mod  ModMask

	// Mouse events
	MouseX, MouseY int
	MouseButton    MouseButton

	// Resize events
	Width, Height int
}

// Key is a keyboard key.
type Key int

// Keys the application handles.
const (
	KeyNone Key = iota
	KeyRune     // printable character in Rune
	KeyEscape
	KeyEnter
	KeyTab
	KeyBackspace
	KeyUp
	KeyDown
	KeyLeft
	KeyRight
	KeyPageUp
	KeyPageDown
	KeyHome
	KeyEnd
	KeyCtrlE
	KeyCtrlQ
	KeyCtrlS
	KeyCtrlY
	KeyCtrlZ
)

// ModMask is the modifier key state.
type ModMask int

const (
	ModNone  ModMask = 0
	ModShift ModMask = 1 << iota
	ModCtrl
	ModAlt
)

// Has reports whether m contains mod.
func (m ModMask) Has(mod ModMask) bool { return m&mod != 0 }

// MouseButton is the mouse button state.
type MouseButton int

const (
	MouseNone MouseButton = iota
	MouseLeft
	MouseRight
	MouseWheelUp
	MouseWheelDown
)

// Backend draws cells and delivers input.
type Backend interface {
	// Init prepares the backend. It must be called first.
	Init() error
	// Shutdown restores the terminal.
	Shutdown()

	Size() (width, height int)
	SetCell(x, y int, cell core.Cell)
	GetCell(x, y int) core.Cell
	Clear()
	// Show flushes drawn cells to the display.
	Show()

	ShowCursor(x, y int)
	HideCursor()

	// PollEvent blocks until the next event. It returns EventClosed after
	// Shutdown.
	PollEvent() Event
	// PostEvent queues a synthetic event.
	PostEvent(ev Event)
}

// NullBackend is an in-memory backend for tests.
type NullBackend struct {
	width, height int
	cells         [][]core.Cell
	cursorX       int
	cursorY       int
	cursorVisible bool
	shown         int
	events        chan Event
	down          bool
}

// NewNullBackend creates a null backend with the given size.
func NewNullBackend(width, height int) *NullBackend {
	return &NullBackend{width: width, height: height, events: make(chan Event, 100)}
}

func (b *NullBackend) Init() error {
	b.allocate()
	return nil
}

func (b *NullBackend) allocate() {
	b.cells = make([][]core.Cell, b.height)
	for i := range b.cells {
		b.cells[i] = make([]core.Cell, b.width)
	}
	b.Clear()
}

func (b *NullBackend) Shutdown() {
	if !b.down {
		b.down = true
		close(b.events)
	}
}

func (b *NullBackend) Size() (int, int) { return b.width, b.height }

func (b *NullBackend) SetCell(x, y int, cell core.Cell) {
	if x >= 0 && x < b.width && y >= 0 && y < b.height {
		b.cells[y][x] = cell
	}
}

func (b *NullBackend) GetCell(x, y int) core.Cell {
	if x >= 0 && x < b.width && y >= 0 && y < b.height {
		return b.cells[y][x]
	}
	return core.EmptyCell()
}

func (b *NullBackend) Clear() {
	for y := range b.cells {
		for x := range b.cells[y] {
			b.cells[y][x] = core.EmptyCell()
		}
	}
}

func (b *NullBackend) Show() { b.shown++ }

func (b *NullBackend) ShowCursor(x, y int) {
	b.cursorX, b.cursorY, b.cursorVisible = x, y, true
}

func (b *NullBackend) HideCursor() { b.cursorVisible = false }

// PollEvent returns the next posted event, or EventClosed after Shutdown.
func (b *NullBackend) PollEvent() Event {
	ev, ok := <-b.events
	if !ok {
		return Event{Type: EventClosed}
	}
	return ev
}

// PostEvent queues ev; it is dropped when the queue is full or the
// backend is shut down.
func (b *NullBackend) PostEvent(ev Event) {
	if b.down {
		return
	}
	select {
	case b.events <- ev:
	default:
	}
}

// CursorPosition returns the cursor state.
func (b *NullBackend) CursorPosition() (x, y int, visible bool) {
	return b.cursorX, b.cursorY, b.cursorVisible
}

// Frames returns how many times Show was called.
func (b *NullBackend) Frames() int { return b.shown }

// Line returns row y as a string with trailing blanks removed.
func (b *NullBackend) Line(y int) string {
	if y < 0 || y >= b.height {
		return ""
	}
	rs := make([]rune, 0, b.width)
	for _, c := range b.cells[y] {
		if c.Width == 0 {
			continue
		}
		rs = append(rs, c.Rune)
	}
	end := len(rs)
	for end > 0 && rs[end-1] == ' ' {
		end--
	}
	return string(rs[:end])
}

// Resize changes the size and queues a resize event.
func (b *NullBackend) Resize(width, height int) {
	b.width, b.height = width, height
	b.allocate()
	b.PostEvent(Event{Type: EventResize, Width: width, Height: height})
}
