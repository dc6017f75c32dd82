// Package basket collects material items from several sources before they are
// stored in a material pack with a single batch request.
package basket

import (
	"fmt"
	"os"
	"strings"
	"sync"

	"github.com/go-playground/validator/v10"
	"github.com/oklog/ulid/v2"
	"gopkg.in/yaml.v3"

	"github.com/inkdesk-dev/inkdesk/internal/cli/client"
)

// Item is a basket entry; Key identifies it locally and is never sent to the backend
type Item struct {
	Key string
	client.MaterialItemCreate
}

// Basket de-duplicates by item type plus normalized text
type Basket struct {
	mu    sync.Mutex
	items []Item
	seen  map[string]struct{}
}

// New returns an empty basket
func New() *Basket {
	return &Basket{seen: map[string]struct{}{}}
}

// normalize trims and collapses runs of whitespace
func normalize(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

func dedupKey(it client.MaterialItemCreate) string {
	return strings.ToLower(normalize(it.ItemType)) + "|" + normalize(it.Text)
}

// AddMany appends the items that are not already in the basket and returns how many were added.
// Items whose text is blank are skipped.
func (b *Basket) AddMany(items []client.MaterialItemCreate) int {
	b.mu.Lock()
	defer b.mu.Unlock()

	added := 0
	for _, it := range items {
		key := dedupKey(it)
		if strings.HasSuffix(key, "|") {
			continue
		}
		if _, ok := b.seen[key]; ok {
			continue
		}
		b.seen[key] = struct{}{}
		b.items = append(b.items, Item{Key: ulid.Make().String(), MaterialItemCreate: it})
		added++
	}
	return added
}

// RemoveByKey drops the entry with the given local key
func (b *Basket) RemoveByKey(key string) bool {
	b.mu.Lock()
	defer b.mu.Unlock()

	for i, it := range b.items {
		if it.Key == key {
			delete(b.seen, dedupKey(it.MaterialItemCreate))
			b.items = append(b.items[:i], b.items[i+1:]...)
			return true
		}
	}
	return false
}

// Clear empties the basket
func (b *Basket) Clear() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.items = nil
	b.seen = map[string]struct{}{}
}

// Count returns the number of entries
func (b *Basket) Count() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.items)
}

// Items returns a copy of the entries in insertion order
func (b *Basket) Items() []Item {
	b.mu.Lock()
	defer b.mu.Unlock()
	out := make([]Item, len(b.items))
	copy(out, b.items)
	return out
}

// Payload returns the entries as a batch-create request body
func (b *Basket) Payload() []client.MaterialItemCreate {
	b.mu.Lock()
	defer b.mu.Unlock()
	out := make([]client.MaterialItemCreate, len(b.items))
	for i, it := range b.items {
		out[i] = it.MaterialItemCreate
	}
	return out
}

// ParseItems decodes a YAML or JSON list of material items and validates each one
func ParseItems(data []byte) ([]client.MaterialItemCreate, error) {
	var items []client.MaterialItemCreate
	if err := yaml.Unmarshal(data, &items); err != nil {
		return nil, fmt.Errorf("failed to parse items: %w", err)
	}

	validate := validator.New()
	for i, it := range items {
		if err := validate.Struct(it); err != nil {
			return nil, fmt.Errorf("item %d is invalid: %w", i+1, err)
		}
	}
	return items, nil
}

// LoadFile reads items from a YAML or JSON file and adds them to the basket
func (b *Basket) LoadFile(path string) (int, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return 0, fmt.Errorf("failed to read items file: %w", err)
	}
	items, err := ParseItems(data)
	if err != nil {
		return 0, err
	}
	return b.AddMany(items), nil
}
