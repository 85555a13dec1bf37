package app

import (
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"sync"

	"github.com/jpkraemer/markdown-brackets/internal/engine/buffer"
	"github.com/jpkraemer/markdown-brackets/internal/engine/history"
	"github.com/jpkraemer/markdown-brackets/internal/host"
)

// Document is an open file together with the surface displaying it.
type Document struct {
	// Path is the absolute file path (empty for scratch buffers).
	Path string

	// Name is the display name (filename or "Untitled").
	Name string

	Buffer  *buffer.Buffer
	Surface *host.Surface
	History *history.History

	savedRev uint64
}

func newDocument(path, name string, buf *buffer.Buffer, opts []host.Option) *Document {
	return &Document{
		Path:     path,
		Name:     name,
		Buffer:   buf,
		Surface:  host.NewSurface(buf, opts...),
		History:  history.New(buf),
		savedRev: buf.Revision(),
	}
}

// IsModified reports whether the buffer changed since it was loaded or
// saved.
func (d *Document) IsModified() bool {
	return d.Buffer.Revision() != d.savedRev
}

// IsScratch reports whether the document has no backing file.
func (d *Document) IsScratch() bool { return d.Path == "" }

// Save writes the buffer to its file.
func (d *Document) Save() error {
	if d.IsScratch() {
		return NewOperationError("save", d.Name, ErrScratchDocument)
	}
	mode := os.FileMode(0o644)
	if info, err := os.Stat(d.Path); err == nil {
		mode = info.Mode().Perm()
	}
	if err := os.WriteFile(d.Path, []byte(d.Buffer.Text()), mode); err != nil {
		return NewOperationError("save", d.Path, err)
	}
	d.savedRev = d.Buffer.Revision()
	return nil
}

func (d *Document) close() {
	d.History.Close()
	d.Surface.Close()
}

// DocumentManager tracks open documents and the active one.
type DocumentManager struct {
	mu        sync.Mutex
	documents map[string]*Document
	order     []string
	active    *Document
	counter   int
	surface   func() []host.Option
}

// NewDocumentManager creates a manager whose documents' surfaces are
// created with the options returned by surface.
func NewDocumentManager(surface func() []host.Option) *DocumentManager {
	if surface == nil {
		surface = func() []host.Option { return nil }
	}
	return &DocumentManager{
		documents: make(map[string]*Document),
		surface:   surface,
	}
}

// Open opens a document from a file and makes it active.
// Returns the existing document if already open.
func (dm *DocumentManager) Open(path string) (*Document, error) {
	absPath, err := filepath.Abs(path)
	if err != nil {
		return nil, NewOperationError("open", path, err)
	}

	dm.mu.Lock()
	defer dm.mu.Unlock()

	if doc, exists := dm.documents[absPath]; exists {
		dm.active = doc
		return doc, nil
	}

	content, err := os.ReadFile(absPath)
	if err != nil {
		return nil, NewOperationError("open", absPath, err)
	}
	name := filepath.Base(absPath)
	buf := buffer.NewBufferFromString(string(content),
		buffer.WithName(name),
		buffer.WithDetectedLineEnding(string(content)))

	doc := newDocument(absPath, name, buf, dm.surface())
	dm.add(absPath, doc)
	return doc, nil
}

// CreateScratch creates a document holding lines under a display name and
// makes it active. The name picks the comment syntax.
func (dm *DocumentManager) CreateScratch(name string, lines []string) *Document {
	dm.mu.Lock()
	defer dm.mu.Unlock()

	dm.counter++
	if name == "" {
		name = "Untitled"
		if dm.counter > 1 {
			name = fmt.Sprintf("Untitled-%d", dm.counter)
		}
	}
	buf := buffer.NewBufferFromLines(lines, buffer.WithName(name))
	doc := newDocument("", name, buf, dm.surface())
	dm.add(fmt.Sprintf("\x00scratch-%d", dm.counter), doc)
	return doc
}

func (dm *DocumentManager) add(key string, doc *Document) {
	dm.documents[key] = doc
	dm.order = append(dm.order, key)
	dm.active = doc
}

func (dm *DocumentManager) keyOf(doc *Document) (string, bool) {
	for k, d := range dm.documents {
		if d == doc {
			return k, true
		}
	}
	return "", false
}

// Close closes doc. The next document in order becomes active when doc
// was active.
func (dm *DocumentManager) Close(doc *Document) error {
	dm.mu.Lock()
	defer dm.mu.Unlock()

	key, ok := dm.keyOf(doc)
	if !ok {
		return ErrDocumentNotFound
	}
	i := slices.Index(dm.order, key)
	dm.order = slices.Delete(dm.order, i, i+1)
	delete(dm.documents, key)
	doc.close()

	if dm.active == doc {
		dm.active = nil
		if len(dm.order) > 0 {
			dm.active = dm.documents[dm.order[min(i, len(dm.order)-1)]]
		}
	}
	return nil
}

// Active returns the active document, or nil.
func (dm *DocumentManager) Active() *Document {
	dm.mu.Lock()
	defer dm.mu.Unlock()
	return dm.active
}

// SetActive makes doc active.
func (dm *DocumentManager) SetActive(doc *Document) error {
	dm.mu.Lock()
	defer dm.mu.Unlock()
	if _, ok := dm.keyOf(doc); !ok {
		return ErrDocumentNotFound
	}
	dm.active = doc
	return nil
}

// All returns the documents in the order they were opened.
func (dm *DocumentManager) All() []*Document {
	dm.mu.Lock()
	defer dm.mu.Unlock()
	out := make([]*Document, 0, len(dm.order))
	for _, k := range dm.order {
		out = append(out, dm.documents[k])
	}
	return out
}

// Count returns the number of open documents.
func (dm *DocumentManager) Count() int {
	dm.mu.Lock()
	defer dm.mu.Unlock()
	return len(dm.order)
}

// Next activates and returns the document after the active one, wrapping
// around.
func (dm *DocumentManager) Next() *Document {
	dm.mu.Lock()
	defer dm.mu.Unlock()

	if len(dm.order) == 0 {
		return nil
	}
	i := 0
	if key, ok := dm.keyOf(dm.active); ok {
		i = (slices.Index(dm.order, key) + 1) % len(dm.order)
	}
	dm.active = dm.documents[dm.order[i]]
	return dm.active
}
