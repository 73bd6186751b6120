package format

import (
	"path/filepath"
	"strings"

	"github.com/FocuswithJustin/Vellum/core/errors"
)

// Registry holds the readers and writers available to one conversion
// pipeline, in registration order. The zero value is not usable; call
// NewRegistry.
type Registry struct {
	readers     map[string]Reader
	writers     map[string]Writer
	readerOrder []string
	writerOrder []string
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{
		readers: make(map[string]Reader),
		writers: make(map[string]Writer),
	}
}

// RegisterReader adds a reader under its Name. Re-registering a name
// replaces the reader and keeps its original position.
func (r *Registry) RegisterReader(rd Reader) {
	name := rd.Name()
	if _, exists := r.readers[name]; !exists {
		r.readerOrder = append(r.readerOrder, name)
	}
	r.readers[name] = rd
}

// RegisterWriter adds a writer under its Name.
func (r *Registry) RegisterWriter(w Writer) {
	name := w.Name()
	if _, exists := r.writers[name]; !exists {
		r.writerOrder = append(r.writerOrder, name)
	}
	r.writers[name] = w
}

// Reader returns the reader registered under name.
func (r *Registry) Reader(name string) (Reader, error) {
	rd, ok := r.readers[name]
	if !ok {
		return nil, errors.NewNotFound("reader", name)
	}
	return rd, nil
}

// Writer returns the writer registered under name.
func (r *Registry) Writer(name string) (Writer, error) {
	w, ok := r.writers[name]
	if !ok {
		return nil, errors.NewNotFound("writer", name)
	}
	return w, nil
}

// HasReader reports whether a reader is registered under name.
func (r *Registry) HasReader(name string) bool {
	_, ok := r.readers[name]
	return ok
}

// HasWriter reports whether a writer is registered under name.
func (r *Registry) HasWriter(name string) bool {
	_, ok := r.writers[name]
	return ok
}

// ReaderNames returns reader names in registration order.
func (r *Registry) ReaderNames() []string {
	names := make([]string, len(r.readerOrder))
	copy(names, r.readerOrder)
	return names
}

// WriterNames returns writer names in registration order.
func (r *Registry) WriterNames() []string {
	names := make([]string, len(r.writerOrder))
	copy(names, r.writerOrder)
	return names
}

// DetectReader picks the reader for an input: first by the filename's
// extension, then by content sniffing in registration order. The
// filename may be empty to skip the extension match.
func (r *Registry) DetectReader(filename string, data []byte) (Reader, error) {
	if ext := strings.ToLower(filepath.Ext(filename)); ext != "" {
		for _, name := range r.readerOrder {
			rd := r.readers[name]
			for _, candidate := range rd.Extensions() {
				if candidate == ext {
					return rd, nil
				}
			}
		}
	}
	for _, name := range r.readerOrder {
		rd := r.readers[name]
		if rd.Detect(data) {
			return rd, nil
		}
	}
	return nil, errors.NewNotFound("reader", filename)
}
