package app

import (
	"context"
	"errors"
	"fmt"

	"github.com/jpkraemer/markdown-brackets/internal/engine/history"
	"github.com/jpkraemer/markdown-brackets/internal/host"
	"github.com/jpkraemer/markdown-brackets/internal/renderer/backend"
	"github.com/jpkraemer/markdown-brackets/internal/router"
)

// wheelStep is the number of rows one wheel notch scrolls.
const wheelStep = 3

// Run draws the active document and processes events until the user
// quits, the backend closes or ctx is done.
func (app *Application) Run(ctx context.Context) error {
	if !app.running.CompareAndSwap(false, true) {
		return ErrAlreadyRunning
	}
	defer app.running.Store(false)

	events := make(chan backend.Event)
	done := make(chan struct{})
	defer close(done)
	go func() {
		for {
			ev := app.backend.PollEvent()
			select {
			case events <- ev:
			case <-done:
				return
			}
			if ev.Type == backend.EventClosed {
				return
			}
		}
	}()

	app.flush()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case ev := <-events:
			if ev.Type == backend.EventClosed {
				return nil
			}
			err := app.HandleEvent(ev)
			if errors.Is(err, ErrQuit) {
				return nil
			}
			if err != nil {
				app.logger.Warn("event %d: %v", ev.Type, err)
				app.renderer.SetStatus(err.Error())
				app.renderer.Render()
			}
		}
	}
}

// HandleEvent processes one backend event, runs the work deferred to the
// next turn and redraws. It returns ErrQuit when the user asked to exit.
func (app *Application) HandleEvent(ev backend.Event) error {
	var err error
	switch ev.Type {
	case backend.EventKey:
		err = app.handleKey(ev)
	case backend.EventMouse:
		err = app.handleMouse(ev)
	case backend.EventResize:
		app.handleResize(ev)
	}
	if errors.Is(err, ErrQuit) {
		return err
	}
	app.flush()
	return err
}

// flush drains the active surface's deferred queue and redraws.
func (app *Application) flush() {
	if doc := app.documents.Active(); doc != nil {
		doc.Surface.RunDeferred()
	}
	app.renderer.Render()
}

func (app *Application) handleKey(ev backend.Event) error {
	switch ev.Key {
	case backend.KeyCtrlQ:
		return ErrQuit
	case backend.KeyCtrlS:
		if err := app.SaveDocument(); err != nil {
			return err
		}
		app.renderer.SetStatus("saved")
		return nil
	case backend.KeyCtrlZ, backend.KeyCtrlY:
		return app.undo(ev.Key == backend.KeyCtrlY)
	}

	doc := app.documents.Active()
	if doc == nil {
		return nil
	}
	if ed := doc.Surface.Focused(); ed != nil {
		return editKey(doc.Surface, ed, ev)
	}

	s := doc.Surface
	x, y := s.ScrollPos()
	_, h := s.Viewport()
	switch ev.Key {
	case backend.KeyUp:
		s.ScrollTo(x, y-1)
	case backend.KeyDown:
		s.ScrollTo(x, y+1)
	case backend.KeyPageUp:
		s.ScrollTo(x, y-h)
	case backend.KeyPageDown:
		s.ScrollTo(x, y+h)
	case backend.KeyHome:
		s.ScrollTo(0, 0)
	case backend.KeyEnd:
		s.ScrollTo(0, s.ContentHeight())
	case backend.KeyTab:
		if app.documents.Count() > 1 {
			return app.Activate(app.documents.Next())
		}
	}
	return nil
}

// undo reverts or reapplies the last edit of the active document and moves
// the focused editor's cursor to it.
func (app *Application) undo(redo bool) error {
	doc := app.documents.Active()
	if doc == nil {
		return ErrNoActiveDocument
	}
	step, name := doc.History.Undo, "undo"
	if redo {
		step, name = doc.History.Redo, "redo"
	}
	at, err := step()
	switch {
	case errors.Is(err, history.ErrNothingToUndo), errors.Is(err, history.ErrNothingToRedo):
		app.renderer.SetStatus("nothing to " + name)
		return nil
	case err != nil:
		return NewOperationError(name, doc.Name, err)
	}
	if ed := doc.Surface.Focused(); ed != nil {
		ed.SetCursor(at.Line, at.Column)
	}
	return nil
}

// editKey applies a key to the focused inline editor.
func editKey(s *host.Surface, ed *host.InlineEditor, ev backend.Event) error {
	switch ev.Key {
	case backend.KeyEscape:
		s.Blur()
	case backend.KeyRune:
		return ed.Type(string(ev.Rune))
	case backend.KeyTab:
		return ed.Type("\t")
	case backend.KeyEnter:
		return ed.Newline()
	case backend.KeyBackspace:
		return ed.Backspace()
	case backend.KeyUp:
		ed.MoveCursor(-1, 0)
	case backend.KeyDown:
		ed.MoveCursor(1, 0)
	case backend.KeyLeft:
		ed.MoveCursor(0, -1)
	case backend.KeyRight:
		ed.MoveCursor(0, 1)
	case backend.KeyHome:
		ed.SetCursor(ed.Cursor().Line, 0)
	case backend.KeyEnd:
		line := ed.Cursor().Line
		ed.SetCursor(line, len(ed.LineText(line)))
	}
	return nil
}

func (app *Application) handleMouse(ev backend.Event) error {
	doc := app.documents.Active()
	if doc == nil {
		return nil
	}
	s := doc.Surface
	x, y := s.ScrollPos()

	// Drags repeat the pressed button; only the press is a click.
	pressed := ev.MouseButton == backend.MouseLeft
	click := pressed && !app.mouseDown
	app.mouseDown = pressed

	switch {
	case ev.MouseButton == backend.MouseWheelUp:
		s.ScrollTo(x, y-wheelStep)
	case ev.MouseButton == backend.MouseWheelDown:
		s.ScrollTo(x, y+wheelStep)
	case click:
		hit := s.Click(ev.MouseX, ev.MouseY)
		if hit.OK && hit.Widget == nil {
			return app.editCommentAt(hit.Line)
		}
	}
	return nil
}

// editCommentAt opens an inline editor over the comment around line unless
// one already covers it.
func (app *Application) editCommentAt(line int) error {
	for _, e := range app.router.Editors() {
		if e.Span().Contains(line) {
			e.Editor().Focus()
			return nil
		}
	}
	e, err := app.router.ProvideEditor(line)
	switch {
	case errors.Is(err, router.ErrNotComment), errors.Is(err, router.ErrUnsupportedLanguage):
		return nil
	case err != nil:
		return fmt.Errorf("edit comment: %w", err)
	}
	e.Editor().Focus()
	return nil
}

func (app *Application) handleResize(ev backend.Event) {
	rows := app.renderer.TextRows()
	for _, doc := range app.documents.All() {
		doc.Surface.Resize(ev.Width, rows)
	}
}
