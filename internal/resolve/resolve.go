// Package resolve materializes canonical records as items in a reference
// library.
//
// Each record goes through an ordered list of strategies: registry metadata
// by DOI, then library identifier lookup, then manual mapping from the
// original export row. The first strategy that resolves the record wins; a
// record no strategy can resolve is counted as unresolved. Failures never stop
// the run.
package resolve

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/matsen/litmerge/internal/audit"
	"github.com/matsen/litmerge/internal/crossref"
	"github.com/matsen/litmerge/internal/reference"
	"github.com/matsen/litmerge/internal/source"
	"github.com/matsen/litmerge/internal/zotero"
)

// ErrRecordNotFound means no original export row matches a canonical record.
var ErrRecordNotFound = errors.New("original record not found")

// Default pacing.
const (
	DefaultRecordDelay       = 600 * time.Millisecond
	DefaultRateLimitCooldown = 15 * time.Second
	DefaultCollectionName    = "Meta-Analysis Import"
)

// MetadataSource looks up authoritative metadata by DOI.
type MetadataSource interface {
	WorkByDOI(ctx context.Context, doi string) (*crossref.Work, error)
}

// Library is the target reference library.
type Library interface {
	FindOrCreateCollection(ctx context.Context, name string) (key string, created bool, err error)
	CreateItems(ctx context.Context, items []zotero.Item) (*zotero.WriteResponse, error)
	Item(ctx context.Context, key string) (*zotero.ItemRecord, error)
	UpdateCollections(ctx context.Context, key string, version int, collections []string) error
	AddByIdentifier(ctx context.Context, doi, collection string) (*zotero.IdentifierResult, error)
}

// Sleeper waits for d or until ctx is done.
type Sleeper func(ctx context.Context, d time.Duration) error

// SleepContext is the default Sleeper.
func SleepContext(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

// State is how far a record has progressed through the strategies.
type State int

const (
	Unattempted State = iota
	RemoteMetadataTried
	IdentifierLookupTried
	ManualTried
)

func (s State) String() string {
	switch s {
	case Unattempted:
		return "unattempted"
	case RemoteMetadataTried:
		return "remote_metadata_tried"
	case IdentifierLookupTried:
		return "identifier_lookup_tried"
	case ManualTried:
		return "manual_tried"
	}
	return fmt.Sprintf("state(%d)", int(s))
}

// OutcomeKind tags the terminal outcome of one record.
type OutcomeKind string

const (
	ResolvedMetadata  OutcomeKind = "resolved_metadata"
	CreatedIdentifier OutcomeKind = "created_identifier"
	FoundIdentifier   OutcomeKind = "found_identifier"
	ResolvedManual    OutcomeKind = "resolved_manual"
	Unresolved        OutcomeKind = "unresolved"
)

// OutcomeKinds lists every kind in reporting order.
var OutcomeKinds = []OutcomeKind{ResolvedMetadata, CreatedIdentifier, FoundIdentifier, ResolvedManual, Unresolved}

// Outcome is the result of one strategy attempt, or of a whole record.
type Outcome struct {
	Kind     OutcomeKind
	ItemKey  string
	Strategy string
	State    State // last state reached
	Err      error // why the attempt did not resolve, if known
}

// Resolved reports whether the record now exists in the library.
func (o Outcome) Resolved() bool {
	return o.Kind != Unresolved && o.Kind != ""
}

func notResolved(err error) Outcome {
	return Outcome{Kind: Unresolved, Err: err}
}

// Strategy is one way of putting a record into the library.
type Strategy interface {
	// Name identifies the strategy in logs.
	Name() string
	// Marks is the state a record reaches once the strategy has been tried.
	Marks() State
	// Attempt tries to resolve rec. It never panics on collaborator errors;
	// they come back in Outcome.Err.
	Attempt(ctx context.Context, r *Resolver, rec reference.CanonicalRecord) Outcome
}

// DefaultStrategies returns the three strategies in their fixed order.
func DefaultStrategies() []Strategy {
	return []Strategy{remoteMetadata{}, identifierLookup{}, manualMapping{}}
}

// Summary counts the results of a run.
type Summary struct {
	Processed  int                 `json:"processed"`
	Succeeded  int                 `json:"succeeded"`
	Failed     int                 `json:"failed"`
	ByKind     map[OutcomeKind]int `json:"by_outcome"`
	Unresolved []int               `json:"unresolved_paper_ids,omitempty"`
	Canceled   bool                `json:"canceled,omitempty"`
}

// Option configures a Resolver.
type Option func(*Resolver)

// WithSleeper replaces the sleeper used for pacing (tests use a no-op).
func WithSleeper(s Sleeper) Option {
	return func(r *Resolver) {
		r.sleep = s
	}
}

// WithRecordDelay sets the pause after each record.
func WithRecordDelay(d time.Duration) Option {
	return func(r *Resolver) {
		r.recordDelay = d
	}
}

// WithRateLimitCooldown sets the pause after a rate-limit response.
func WithRateLimitCooldown(d time.Duration) Option {
	return func(r *Resolver) {
		r.cooldown = d
	}
}

// WithCollection sets the target collection key. Empty means library root.
func WithCollection(key string) Option {
	return func(r *Resolver) {
		r.collection = key
	}
}

// WithStrategies replaces the strategy list.
func WithStrategies(s ...Strategy) Option {
	return func(r *Resolver) {
		r.strategies = s
	}
}

// Resolver drives records through the strategies.
type Resolver struct {
	lib         Library
	meta        MetadataSource
	lookups     source.Lookups
	log         *audit.Log
	sleep       Sleeper
	recordDelay time.Duration
	cooldown    time.Duration
	collection  string
	strategies  []Strategy
}

// New creates a Resolver. lookups index the original exports for manual
// mapping; log receives one line per step and may be nil.
func New(lib Library, meta MetadataSource, lookups source.Lookups, log *audit.Log, opts ...Option) *Resolver {
	if log == nil {
		log = audit.Nop()
	}
	r := &Resolver{
		lib:         lib,
		meta:        meta,
		lookups:     lookups,
		log:         log,
		sleep:       SleepContext,
		recordDelay: DefaultRecordDelay,
		cooldown:    DefaultRateLimitCooldown,
		strategies:  DefaultStrategies(),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Collection returns the target collection key.
func (r *Resolver) Collection() string {
	return r.collection
}

// UseCollection finds or creates the named collection and makes it the
// target. An empty name selects DefaultCollectionName. If the collection
// cannot be found or created, items go to the library root and the error is
// returned for the caller to report.
func (r *Resolver) UseCollection(ctx context.Context, name string) (string, error) {
	if name == "" {
		name = DefaultCollectionName
		r.log.Info().Msgf("No collection name entered, using default: '%s'", name)
	}
	key, created, err := r.lib.FindOrCreateCollection(ctx, name)
	if err != nil {
		r.collection = ""
		r.log.Error().Err(err).Str("collection", name).
			Msg("Could not find or create the target collection. Items will be added to the main library.")
		return "", err
	}
	if created {
		r.log.Info().Str("collection", name).Str("key", key).Msg("Created new collection")
	} else {
		r.log.Info().Str("collection", name).Str("key", key).Msg("Found existing collection")
	}
	r.collection = key
	return key, nil
}

// Resolve runs the strategies for one record and returns its terminal
// outcome.
func (r *Resolver) Resolve(ctx context.Context, rec reference.CanonicalRecord) Outcome {
	state := Unattempted
	var lastErr error
	for _, s := range r.strategies {
		if ctx.Err() != nil {
			return Outcome{Kind: Unresolved, State: state, Err: ctx.Err()}
		}
		out := s.Attempt(ctx, r, rec)
		state = s.Marks()
		if out.Resolved() {
			out.Strategy = s.Name()
			out.State = state
			return out
		}
		if out.Err != nil {
			lastErr = out.Err
		}
	}
	return Outcome{Kind: Unresolved, State: state, Err: lastErr}
}

// Run resolves every record in order. It stops early only when ctx is
// canceled, returning the partial summary together with ctx's error.
func (r *Resolver) Run(ctx context.Context, records []reference.CanonicalRecord) (Summary, error) {
	sum := Summary{ByKind: make(map[OutcomeKind]int)}
	r.log.Info().Msg("--- Starting item processing (metadata -> identifier -> manual) ---")

	for i, rec := range records {
		if err := ctx.Err(); err != nil {
			sum.Canceled = true
			return sum, err
		}
		sum.Processed++
		r.log.Info().
			Int("paper_id", rec.PaperID).
			Str("doi", displayDOI(rec.DOI)).
			Msgf("Processing paper %d/%d: %s", i+1, len(records), truncate(rec.ArticleTitle, 30))

		out := r.Resolve(ctx, rec)
		sum.ByKind[out.Kind]++
		if out.Resolved() {
			sum.Succeeded++
		} else {
			sum.Failed++
			sum.Unresolved = append(sum.Unresolved, rec.PaperID)
			ev := r.log.Warn().Int("paper_id", rec.PaperID)
			if out.Err != nil {
				ev = ev.Err(out.Err)
			}
			ev.Msg("FAILURE: could not process, create or find paper via any method")
		}

		if err := r.sleep(ctx, r.recordDelay); err != nil {
			sum.Canceled = true
			return sum, err
		}
	}

	r.log.Info().
		Int("processed", sum.Processed).
		Int("succeeded", sum.Succeeded).
		Int("failed", sum.Failed).
		Msg("--- Processing finished ---")
	for _, k := range OutcomeKinds {
		if n := sum.ByKind[k]; n > 0 {
			r.log.Info().Str("outcome", string(k)).Int("count", n).Msg("Outcome count")
		}
	}
	return sum, nil
}

// pause waits out a rate limit when err is one.
func (r *Resolver) pause(ctx context.Context, err error) {
	if err == nil || !(zotero.IsRateLimited(err) || crossref.IsRateLimited(err)) {
		return
	}
	r.log.Warn().Dur("cooldown", r.cooldown).Msg("Hit API rate limit, waiting")
	_ = r.sleep(ctx, r.cooldown)
}

func displayDOI(doi string) string {
	if doi == "" {
		return "N/A"
	}
	return doi
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n]) + "..."
}
