package document

import (
	"github.com/OmkarPatkar/monaco-ai-supported-ide/model"
)

// Surface renders one document at a time.
type Surface interface {
	Show(doc model.Document) error
}

// Binding attaches a store's active document to a surface.
type Binding struct {
	store   *Store
	surface Surface
	shown   model.Document
	synced  bool
}

// Bind creates a binding. Nothing is shown until the first Sync.
func Bind(store *Store, surface Surface) *Binding {
	return &Binding{store: store, surface: surface}
}

// Sync shows the active document if it differs from what the surface last
// displayed.
func (b *Binding) Sync() error {
	active := b.store.Active()
	if b.synced && active == b.shown {
		return nil
	}
	if err := b.surface.Show(active); err != nil {
		return err
	}
	b.shown = active
	b.synced = true
	return nil
}
