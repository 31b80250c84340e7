package zotero

import (
	"sort"
	"strconv"
)

// Creator is one contributor of an item.
type Creator struct {
	CreatorType string `json:"creatorType"`
	FirstName   string `json:"firstName,omitempty"`
	LastName    string `json:"lastName,omitempty"`
	Name        string `json:"name,omitempty"` // single-field names
}

// Item is a journal article template ready to be written to the library.
type Item struct {
	ItemType         string    `json:"itemType"`
	Title            string    `json:"title"`
	Creators         []Creator `json:"creators"`
	PublicationTitle string    `json:"publicationTitle,omitempty"`
	Date             string    `json:"date,omitempty"`
	Volume           string    `json:"volume,omitempty"`
	Issue            string    `json:"issue,omitempty"`
	Pages            string    `json:"pages,omitempty"`
	DOI              string    `json:"DOI,omitempty"`
	AbstractNote     string    `json:"abstractNote,omitempty"`
	Collections      []string  `json:"collections"`
}

// NewJournalArticle returns an empty journal article template.
func NewJournalArticle() Item {
	return Item{ItemType: "journalArticle", Creators: []Creator{}, Collections: []string{}}
}

// ItemData is the part of a stored item litmerge reads back.
type ItemData struct {
	Key         string   `json:"key"`
	Version     int      `json:"version"`
	ItemType    string   `json:"itemType"`
	Title       string   `json:"title"`
	DOI         string   `json:"DOI"`
	Extra       string   `json:"extra"`
	Collections []string `json:"collections"`
}

// ItemRecord is a stored item with its library version.
type ItemRecord struct {
	Key     string   `json:"key"`
	Version int      `json:"version"`
	Data    ItemData `json:"data"`
}

// InCollection reports whether the item belongs to the collection.
func (r *ItemRecord) InCollection(key string) bool {
	for _, c := range r.Data.Collections {
		if c == key {
			return true
		}
	}
	return false
}

// Collection is a library collection.
type Collection struct {
	Key     string `json:"key"`
	Version int    `json:"version"`
	Data    struct {
		Name             string `json:"name"`
		ParentCollection any    `json:"parentCollection"`
	} `json:"data"`
}

// Name returns the collection name.
func (c Collection) Name() string {
	return c.Data.Name
}

// WriteFailure describes one object the library refused to write.
type WriteFailure struct {
	Key     string `json:"key"`
	Code    int    `json:"code"`
	Message string `json:"message"`
}

// WrittenObject is one object the library accepted.
type WrittenObject struct {
	Key     string `json:"key"`
	Version int    `json:"version"`
}

// WriteResponse is the per-index outcome of a multi-object write.
// Map keys are the decimal indexes of the submitted objects.
type WriteResponse struct {
	Successful map[string]WrittenObject `json:"successful"`
	Success    map[string]string        `json:"success"`
	Unchanged  map[string]string        `json:"unchanged"`
	Failed     map[string]WriteFailure  `json:"failed"`
}

// KeyAt returns the key of the object written at index i.
func (w *WriteResponse) KeyAt(i int) (string, bool) {
	idx := strconv.Itoa(i)
	if o, ok := w.Successful[idx]; ok && o.Key != "" {
		return o.Key, true
	}
	if k, ok := w.Success[idx]; ok {
		return k, true
	}
	if k, ok := w.Unchanged[idx]; ok {
		return k, true
	}
	return "", false
}

// FailureAt returns the failure of the object at index i.
func (w *WriteResponse) FailureAt(i int) (WriteFailure, bool) {
	f, ok := w.Failed[strconv.Itoa(i)]
	return f, ok
}

// Keys returns every written key in index order.
func (w *WriteResponse) Keys() []string {
	seen := make(map[int]string)
	for idx, o := range w.Successful {
		if n, err := strconv.Atoi(idx); err == nil {
			seen[n] = o.Key
		}
	}
	for idx, k := range w.Success {
		if n, err := strconv.Atoi(idx); err == nil {
			seen[n] = k
		}
	}
	indexes := make([]int, 0, len(seen))
	for n := range seen {
		indexes = append(indexes, n)
	}
	sort.Ints(indexes)
	keys := make([]string, len(indexes))
	for i, n := range indexes {
		keys[i] = seen[n]
	}
	return keys
}

// IdentifierStatus is the outcome of adding an item by identifier.
type IdentifierStatus string

const (
	IdentifierCreated   IdentifierStatus = "created"
	IdentifierUnchanged IdentifierStatus = "unchanged"
	IdentifierFailed    IdentifierStatus = "failed"
)

// IdentifierResult reports what AddByIdentifier did.
type IdentifierResult struct {
	Status  IdentifierStatus
	Key     string // created or existing item key
	Message string // reason for a failure
}
