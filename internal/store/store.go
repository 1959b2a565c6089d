package store

import (
	"context"
	"errors"
	"fmt"
	"os"
	"sync"

	jsoniter "github.com/json-iterator/go"

	"silent_auction/internal/model"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// ErrCorrupt marks an auction file whose content is not valid JSON.
// A missing file is not an error; a broken one is fatal.
var ErrCorrupt = errors.New("corrupt auction document")

type mutation struct {
	fn    func(*model.Document) error
	reply chan error
}

// DocumentStore persists one auction document to a single JSON file.
// The document lives in memory for process lifetime; every mutation
// rewrites the whole file. All mutations are funneled through one queue
// goroutine, one in flight at a time in FIFO order, so concurrent
// requests cannot lose each other's writes.
type DocumentStore struct {
	path string
	jobs chan mutation
	done chan struct{}

	mu  sync.RWMutex
	doc model.Document
}

// Open loads the document at path and starts the mutation queue.
// A missing file yields the empty default document.
func Open(path string) (*DocumentStore, error) {
	doc, err := readFile(path)
	if err != nil {
		return nil, err
	}

	s := &DocumentStore{
		path: path,
		jobs: make(chan mutation),
		done: make(chan struct{}),
		doc:  doc,
	}
	go s.run()
	return s, nil
}

func readFile(path string) (model.Document, error) {
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return model.Document{Items: []model.Item{}}, nil
	}
	if err != nil {
		return model.Document{}, fmt.Errorf("read auction document %s: %w", path, err)
	}

	var doc model.Document
	if err := json.Unmarshal(data, &doc); err != nil {
		return model.Document{}, fmt.Errorf("%w: %s: %v", ErrCorrupt, path, err)
	}
	if doc.Items == nil {
		doc.Items = []model.Item{}
	}
	return doc, nil
}

func (s *DocumentStore) run() {
	defer close(s.done)
	for m := range s.jobs {
		next := s.View()
		if err := m.fn(&next); err != nil {
			m.reply <- err
			continue
		}
		if err := s.write(next); err != nil {
			m.reply <- err
			continue
		}
		s.mu.Lock()
		s.doc = next
		s.mu.Unlock()
		m.reply <- nil
	}
}

func (s *DocumentStore) write(doc model.Document) error {
	// Two-space indent keeps the file hand-readable, matching the
	// layout admins already know.
	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return fmt.Errorf("encode auction document: %w", err)
	}
	if err := os.WriteFile(s.path, data, 0644); err != nil {
		return fmt.Errorf("write auction document %s: %w", s.path, err)
	}
	return nil
}

// View returns a deep copy of the current document. Callers may mutate
// the copy freely.
func (s *DocumentStore) View() model.Document {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.doc.Clone()
}

// Update submits fn to the mutation queue and waits for the outcome.
// fn receives a private copy of the document; the copy replaces the
// live document only after it has been written to disk, so a failed
// mutation or a failed write leaves both memory and file untouched.
func (s *DocumentStore) Update(ctx context.Context, fn func(*model.Document) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	m := mutation{fn: fn, reply: make(chan error, 1)}
	select {
	case s.jobs <- m:
	case <-ctx.Done():
		return ctx.Err()
	}
	select {
	case err := <-m.reply:
		return err
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Path returns the backing file path.
func (s *DocumentStore) Path() string { return s.path }

// Close stops the mutation queue. Update must not be called afterwards.
func (s *DocumentStore) Close() {
	close(s.jobs)
	<-s.done
}
