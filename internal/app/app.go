// Package app wires the document model, the preview router and the
// terminal frontend into the mdpreview application and runs its event
// loop.
package app

import (
	"context"
	"fmt"
	"io"
	"os"
	"sync/atomic"

	"github.com/jpkraemer/markdown-brackets/internal/config"
	"github.com/jpkraemer/markdown-brackets/internal/event"
	"github.com/jpkraemer/markdown-brackets/internal/host"
	"github.com/jpkraemer/markdown-brackets/internal/renderer"
	"github.com/jpkraemer/markdown-brackets/internal/renderer/backend"
	"github.com/jpkraemer/markdown-brackets/internal/router"
	"github.com/jpkraemer/markdown-brackets/internal/syntax"
)

// Application is the central coordinator for all components.
type Application struct {
	cfg     config.Config
	logger  *Logger
	logFile io.Closer

	bus       *event.Bus
	router    *router.Router
	documents *DocumentManager
	subs      []*event.Subscription

	backend  backend.Backend
	renderer *renderer.Renderer

	mouseDown bool
	running   atomic.Bool
	opts      Options
}

// Options configures the application.
type Options struct {
	// ConfigPath is the path to the configuration file. Empty selects
	// config.DefaultPath.
	ConfigPath string

	// Files are files to open on startup. A welcome document is shown
	// when there are none.
	Files []string

	// LogLevel overrides the configured log level.
	LogLevel string

	// LogOutput overrides the configured log file.
	LogOutput io.Writer

	// Environ supplies environment overrides. Defaults to os.Environ.
	Environ func() []string

	// Backend is the display. Defaults to the terminal.
	Backend backend.Backend
}

// New creates an application and opens its initial documents.
func New(opts Options) (*Application, error) {
	app := &Application{opts: opts}
	if err := app.bootstrap(); err != nil {
		app.Close()
		return nil, err
	}
	return app, nil
}

// bootstrap initializes all components in dependency order.
func (app *Application) bootstrap() error {
	// 1. Config
	var cfgOpts []config.Option
	if app.opts.ConfigPath != "" {
		cfgOpts = append(cfgOpts, config.WithFile(app.opts.ConfigPath))
	}
	if app.opts.Environ != nil {
		cfgOpts = append(cfgOpts, config.WithEnviron(app.opts.Environ))
	}
	cfg, err := config.Load(cfgOpts...)
	if err != nil {
		return &InitError{Component: "config", Err: err}
	}
	app.cfg = cfg

	// 2. Logging
	if err := app.initLogger(); err != nil {
		return &InitError{Component: "logging", Err: err}
	}

	// 3. Markup renderer and scanner
	md, err := cfg.NewRenderer(app.logger.WithComponent("markup"))
	if err != nil {
		return &InitError{Component: "markup", Err: err}
	}
	sc, err := cfg.Scanner()
	if err != nil {
		return &InitError{Component: "scanner", Err: err}
	}

	// 4. Event bus and router
	app.bus = event.NewBus(event.WithLogger(app.logger.WithComponent("event")))
	app.router, err = router.New(md,
		router.WithLogger(app.logger.WithComponent("router")),
		router.WithScanner(sc),
		router.WithBus(app.bus))
	if err != nil {
		return &InitError{Component: "router", Err: err}
	}
	if err := app.subscribe(); err != nil {
		return &InitError{Component: "event", Err: err}
	}

	// 5. Display
	app.backend = app.opts.Backend
	if app.backend == nil {
		term, err := backend.NewTerminal()
		if err != nil {
			return &InitError{Component: "terminal", Err: err}
		}
		app.backend = term
	}
	if err := app.backend.Init(); err != nil {
		app.backend = nil
		return &InitError{Component: "terminal", Err: err}
	}
	app.renderer = renderer.New(app.backend)

	// 6. Documents
	app.documents = NewDocumentManager(app.surfaceOptions)
	for _, path := range app.opts.Files {
		if _, err := app.documents.Open(path); err != nil {
			return err
		}
	}
	if app.documents.Count() == 0 {
		app.documents.CreateScratch(welcomeName, welcomeLines)
	}
	return app.Activate(app.documents.All()[0])
}

func (app *Application) initLogger() error {
	level := ParseLogLevel(app.cfg.Logging.Level)
	if app.opts.LogLevel != "" {
		level = ParseLogLevel(app.opts.LogLevel)
	}
	out := app.opts.LogOutput
	if out == nil {
		out = io.Discard
		if app.cfg.Logging.File != "" {
			f, err := os.OpenFile(app.cfg.Logging.File, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
			if err != nil {
				return err
			}
			app.logFile = f
			out = f
		}
	}
	app.logger = NewLogger(LoggerConfig{Level: level, Output: out, Prefix: "mdpreview"})
	return nil
}

// subscribe follows router events for logging and the status line.
func (app *Application) subscribe() error {
	log := app.logger.WithComponent("app")
	previews, err := event.Subscribe(app.bus, "preview.*",
		func(_ context.Context, ev event.Event[router.PreviewEvent]) error {
			log.Debug("%s %s %s", ev.Type, ev.Payload.ID, ev.Payload.Span)
			return nil
		})
	if err != nil {
		return err
	}
	changes, err := event.Subscribe(app.bus, event.TopicDocumentChanged,
		func(_ context.Context, ev event.Event[router.ChangeEvent]) error {
			if app.renderer != nil {
				app.renderer.SetStatus(fmt.Sprintf("%d previews", ev.Payload.Previews))
			}
			return nil
		})
	if err != nil {
		previews.Cancel()
		return err
	}
	app.subs = append(app.subs, previews, changes)
	return nil
}

func (app *Application) surfaceOptions() []host.Option {
	w, _ := app.backend.Size()
	return append(app.cfg.SurfaceOptions(), host.WithViewport(w, app.renderer.TextRows()))
}

// Config returns the loaded configuration.
func (app *Application) Config() config.Config { return app.cfg }

// Logger returns the application's logger.
func (app *Application) Logger() *Logger { return app.logger }

// Bus returns the event bus.
func (app *Application) Bus() *event.Bus { return app.bus }

// Router returns the preview router.
func (app *Application) Router() *router.Router { return app.router }

// Documents returns the document manager.
func (app *Application) Documents() *DocumentManager { return app.documents }

// Renderer returns the painter.
func (app *Application) Renderer() *renderer.Renderer { return app.renderer }

// Activate makes doc the active document and announces it on the bus.
func (app *Application) Activate(doc *Document) error {
	if err := app.documents.SetActive(doc); err != nil {
		return NewOperationError("activate", doc.Name, err)
	}
	classifier, _ := syntax.ForFilename(doc.Name)
	app.renderer.SetSurface(doc.Surface, classifier)

	ev := event.NewEvent(event.TopicDocumentActive, router.Document{Name: doc.Name, Surface: doc.Surface}, "app")
	if err := event.Publish(context.Background(), app.bus, ev); err != nil {
		return NewOperationError("activate", doc.Name, err)
	}
	app.logger.Info("active document %s", doc.Name)
	return nil
}

// OpenFile opens path and activates it.
func (app *Application) OpenFile(path string) (*Document, error) {
	doc, err := app.documents.Open(path)
	if err != nil {
		return nil, err
	}
	return doc, app.Activate(doc)
}

// CloseDocument closes doc and activates the next document, if any.
func (app *Application) CloseDocument(doc *Document) error {
	if d, ok := app.router.Document(); ok && d.Surface == doc.Surface {
		app.router.Deactivate()
	}
	if err := app.documents.Close(doc); err != nil {
		return NewOperationError("close", doc.Name, err)
	}
	ev := event.NewEvent(event.TopicDocumentClosed, doc.Name, "app")
	if err := event.Publish(context.Background(), app.bus, ev); err != nil {
		app.logger.Warn("publish %s: %v", ev.Type, err)
	}
	if next := app.documents.Active(); next != nil {
		return app.Activate(next)
	}
	app.renderer.SetSurface(nil, nil)
	return nil
}

// SaveDocument writes the active document to its file.
func (app *Application) SaveDocument() error {
	doc := app.documents.Active()
	if doc == nil {
		return ErrNoActiveDocument
	}
	if err := doc.Save(); err != nil {
		return err
	}
	app.logger.Info("saved %s", doc.Path)
	return nil
}

// Close releases every component. It is safe to call more than once.
func (app *Application) Close() {
	if app.router != nil {
		app.router.Close()
	}
	for _, s := range app.subs {
		s.Cancel()
	}
	app.subs = nil
	if app.documents != nil {
		for _, doc := range app.documents.All() {
			_ = app.documents.Close(doc)
		}
	}
	if app.bus != nil {
		app.bus.Close()
	}
	if app.backend != nil {
		app.backend.Shutdown()
		app.backend = nil
	}
	if app.logFile != nil {
		_ = app.logFile.Close()
		app.logFile = nil
	}
}

const welcomeName = "welcome.go"

var welcomeLines = []string{
	"package welcome",
	"",
	"/**",
	"# mdpreview",
	"",
	"Comment blocks opened with `/**` render as **Markdown** in place.",
	"Click a preview to edit its source below it; click again to close.",
	"*/",
	"func Example() {}",
	"",
	"// Click a plain comment line to edit it inline.",
	"// Esc leaves the editor, Tab switches documents,",
	"// Ctrl-S saves and Ctrl-Q quits.",
}
