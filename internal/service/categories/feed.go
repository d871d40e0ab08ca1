// Package categories maintains the live, sorted list of category names.
//
// A single goroutine (Run) owns the cached snapshot and the subscriber set.
// Everything else talks to it through channels: refresh results are posted
// to it, subscribers receive whole snapshots from it.
package categories

import (
	"context"
	"errors"
	"iter"
	"slices"
	"strings"
	"sync"
	"sync/atomic"

	"zeus-backend/internal/domain"
	"zeus-backend/internal/infrastructure/observability"
	"zeus-backend/internal/repository"
	appErrors "zeus-backend/pkg/errors"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
)

// ErrFeedClosed is returned once the feed has been stopped.
var ErrFeedClosed = errors.New("category feed closed")

// Subscription delivers snapshots on C until it is closed. Only the latest
// undelivered snapshot is kept: a slow reader skips intermediate ones.
type Subscription struct {
	C <-chan []string

	ch   chan []string
	feed *Feed
	once sync.Once
}

// Close stops delivery and releases the subscription.
func (s *Subscription) Close() {
	s.once.Do(func() {
		select {
		case s.feed.unsubscribe <- s:
		case <-s.feed.ctx.Done():
		}
	})
}

// publication is a refresh result posted to the actor.
type publication struct {
	ticket uint64
	names  []string
	failed bool
	auto   bool
}

type snapshotReply struct {
	names  []string
	loaded bool
}

type Feed struct {
	docs    repository.DocumentStore
	logger  *zap.Logger
	metrics *observability.Collector
	tracer  trace.Tracer

	subscribe   chan *Subscription
	unsubscribe chan *Subscription
	publish     chan publication
	get         chan chan snapshotReply

	// tickets orders refreshes by start time; results older than the applied
	// one are dropped.
	tickets atomic.Uint64

	// Lifecycle
	ctx    context.Context
	cancel context.CancelFunc
	done   chan struct{}
}

// NewFeed creates a feed over the categories collection. Run must be started
// before the feed is used.
func NewFeed(docs repository.DocumentStore, logger *zap.Logger, metrics *observability.Collector) *Feed {
	ctx, cancel := context.WithCancel(context.Background())

	return &Feed{
		docs:        docs,
		logger:      logger.Named("category_feed"),
		metrics:     metrics,
		tracer:      observability.Tracer("zeus-backend/categories"),
		subscribe:   make(chan *Subscription),
		unsubscribe: make(chan *Subscription),
		publish:     make(chan publication),
		get:         make(chan chan snapshotReply),
		ctx:         ctx,
		cancel:      cancel,
		done:        make(chan struct{}),
	}
}

// Run is the feed's event loop. It returns after Stop.
func (f *Feed) Run() {
	defer close(f.done)

	var (
		snapshot    = []string{}
		loaded      bool
		applied     uint64
		autoPending bool
		subs        = make(map[*Subscription]struct{})
	)

	for {
		select {
		case <-f.ctx.Done():
			for sub := range subs {
				close(sub.ch)
			}
			f.metrics.SetFeedSubscribers(0)
			f.logger.Info("category feed stopped")
			return

		case sub := <-f.subscribe:
			subs[sub] = struct{}{}
			f.metrics.SetFeedSubscribers(len(subs))
			if loaded {
				deliver(sub, snapshot)
			} else if !autoPending {
				autoPending = true
				go f.refresh(f.ctx, true)
			}

		case sub := <-f.unsubscribe:
			if _, ok := subs[sub]; ok {
				delete(subs, sub)
				close(sub.ch)
				f.metrics.SetFeedSubscribers(len(subs))
			}

		case p := <-f.publish:
			if p.auto {
				autoPending = false
			}
			if p.failed {
				continue
			}
			if p.ticket <= applied {
				f.metrics.CategoryRefresh("stale")
				f.logger.Debug("dropping stale category refresh", zap.Uint64("ticket", p.ticket), zap.Uint64("applied", applied))
				continue
			}
			applied = p.ticket
			snapshot = p.names
			loaded = true
			for sub := range subs {
				deliver(sub, snapshot)
			}

		case reply := <-f.get:
			reply <- snapshotReply{names: slices.Clone(snapshot), loaded: loaded}
		}
	}
}

// Stop shuts the event loop down and closes every subscription.
func (f *Feed) Stop() {
	f.cancel()
	<-f.done
}

// deliver replaces any undelivered snapshot with names. Only Run sends on
// sub.ch, so the send after draining cannot block.
func deliver(sub *Subscription, names []string) {
	names = slices.Clone(names)
	select {
	case sub.ch <- names:
	default:
		select {
		case <-sub.ch:
		default:
		}
		sub.ch <- names
	}
}

// Subscribe registers a new observer. The current snapshot is delivered right
// away when one is loaded; otherwise a background refresh is started.
func (f *Feed) Subscribe(ctx context.Context) (*Subscription, error) {
	ch := make(chan []string, 1)
	sub := &Subscription{C: ch, ch: ch, feed: f}

	select {
	case f.subscribe <- sub:
		return sub, nil
	case <-f.ctx.Done():
		return nil, ErrFeedClosed
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// Snapshots is a restartable sequence of full category lists. Each iteration
// holds its own subscription and ends when ctx is done, the feed stops, or the
// loop breaks.
func (f *Feed) Snapshots(ctx context.Context) iter.Seq[[]string] {
	return func(yield func([]string) bool) {
		sub, err := f.Subscribe(ctx)
		if err != nil {
			return
		}
		defer sub.Close()

		for {
			select {
			case <-ctx.Done():
				return
			case names, ok := <-sub.C:
				if !ok || !yield(names) {
					return
				}
			}
		}
	}
}

// Snapshot returns the cached list and whether it has been loaded yet.
func (f *Feed) Snapshot(ctx context.Context) ([]string, bool) {
	reply := make(chan snapshotReply, 1)
	select {
	case f.get <- reply:
	case <-f.ctx.Done():
		return []string{}, false
	case <-ctx.Done():
		return []string{}, false
	}
	r := <-reply
	return r.names, r.loaded
}

// Refresh re-reads the collection and republishes the sorted names. On read
// failure the previous snapshot stays in place and the error is returned.
func (f *Feed) Refresh(ctx context.Context) error {
	return f.refresh(ctx, false)
}

func (f *Feed) refresh(ctx context.Context, auto bool) (err error) {
	ticket := f.tickets.Add(1)

	ctx, span := f.tracer.Start(ctx, "categories.Refresh",
		trace.WithAttributes(attribute.Bool("refresh.auto", auto)))
	defer func() { observability.EndSpan(span, err) }()

	names, err := f.load(ctx)
	if err != nil {
		f.metrics.CategoryRefresh("error")
		f.logger.Warn("category refresh failed, keeping previous snapshot", zap.Error(err))
	} else {
		f.metrics.CategoryRefresh("ok")
		span.SetAttributes(attribute.Int("category.count", len(names)))
	}

	p := publication{ticket: ticket, names: names, failed: err != nil, auto: auto}
	select {
	case f.publish <- p:
	case <-f.ctx.Done():
		if err == nil {
			err = ErrFeedClosed
		}
	}
	return err
}

func (f *Feed) load(ctx context.Context) ([]string, error) {
	docs, err := f.docs.SelectAll(ctx, repository.CollectionCategories)
	if err != nil {
		if appErrors.TypeOf(err) != appErrors.ErrorTypeInternal {
			return nil, err
		}
		return nil, appErrors.NewRead("failed to read categories", err)
	}

	cats := make([]domain.Category, 0, len(docs))
	for _, doc := range docs {
		var c domain.Category
		if err := repository.Decode(doc, &c); err != nil {
			f.logger.Warn("skipping undecodable category", zap.Error(err))
			continue
		}
		cats = append(cats, c)
	}
	return domain.CategoryNames(cats), nil
}

// List returns the current names, loading them first if the feed has not been
// refreshed yet. It never fails: an unavailable store yields an empty list.
func (f *Feed) List(ctx context.Context) []string {
	if names, loaded := f.Snapshot(ctx); loaded {
		return names
	}
	if err := f.Refresh(ctx); err != nil {
		return []string{}
	}
	names, _ := f.Snapshot(ctx)
	return names
}

// Add inserts a category and republishes the list. Duplicate names are not
// rejected.
func (f *Feed) Add(ctx context.Context, name string) error {
	name = strings.TrimSpace(name)
	if name == "" {
		return appErrors.NewValidation("category name cannot be empty")
	}

	doc := repository.Document{domain.FieldName: name}
	if _, err := f.docs.Insert(ctx, repository.CollectionCategories, doc); err != nil {
		f.logger.Error("category insert failed", zap.String("name", name), zap.Error(err))
		return writeFailure(err, "failed to add category")
	}

	f.logger.Info("category added", zap.String("name", name))
	_ = f.Refresh(ctx)
	return nil
}

// Delete removes every category named name and republishes the list.
func (f *Feed) Delete(ctx context.Context, name string) error {
	name = strings.TrimSpace(name)
	if name == "" {
		return appErrors.NewValidation("category name cannot be empty")
	}

	filter := repository.Eq{Field: domain.FieldName, Value: name}
	if err := f.docs.Delete(ctx, repository.CollectionCategories, filter); err != nil {
		f.logger.Error("category delete failed", zap.String("name", name), zap.Error(err))
		return writeFailure(err, "failed to delete category")
	}

	f.logger.Info("category deleted", zap.String("name", name))
	_ = f.Refresh(ctx)
	return nil
}

func writeFailure(err error, message string) error {
	if appErrors.TypeOf(err) != appErrors.ErrorTypeInternal {
		return err
	}
	return appErrors.NewWrite(message, err)
}

// Reconcile picks the category a screen should show: selected while it is
// still listed, otherwise the first name. It returns "" for an empty list.
func Reconcile(selected string, snapshot []string) string {
	if len(snapshot) == 0 {
		return ""
	}
	if selected != "" && slices.Contains(snapshot, selected) {
		return selected
	}
	return snapshot[0]
}
