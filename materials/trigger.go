package materials

import (
	"context"
	"sync"

	apperrors "github.com/jrsteele09/go-materials-client/internal/errors"
	"github.com/pkg/errors"
	"golang.org/x/time/rate"
)

// Trigger delivers intersection events: each value means the end of the
// rendered list came into view.
type Trigger interface {
	Intersections() <-chan struct{}
}

// ChannelTrigger is a Trigger fed by Notify. Events that arrive while one is
// already pending are merged into it.
type ChannelTrigger struct {
	ch   chan struct{}
	once sync.Once
}

// NewChannelTrigger creates an empty trigger.
func NewChannelTrigger() *ChannelTrigger {
	return &ChannelTrigger{ch: make(chan struct{}, 1)}
}

// Notify reports an intersection. It never blocks.
func (t *ChannelTrigger) Notify() {
	select {
	case t.ch <- struct{}{}:
	default:
	}
}

// Close ends the event stream. Notify must not be called afterwards.
func (t *ChannelTrigger) Close() {
	t.once.Do(func() { close(t.ch) })
}

func (t *ChannelTrigger) Intersections() <-chan struct{} {
	return t.ch
}

// Watcher drives a Loader from a Trigger: an intersection requests the next
// page only when more data exists and nothing is in flight.
type Watcher struct {
	loader   *Loader
	limiter  *rate.Limiter
	onStart  func(Cursor)
	onResult func(Result)
}

// WatcherOption defines a function type to modify the Watcher instance.
type WatcherOption func(*Watcher)

// WithRate limits how many loads per second intersections may start. An
// intersection over the limit delays its load rather than dropping it.
// A non-positive rate disables the limit.
func WithRate(perSecond float64) WatcherOption {
	return func(w *Watcher) {
		if perSecond <= 0 {
			w.limiter = rate.NewLimiter(rate.Inf, 1)
			return
		}
		w.limiter = rate.NewLimiter(rate.Limit(perSecond), 1)
	}
}

// OnStart registers a callback invoked just before the watcher starts a load.
func OnStart(fn func(Cursor)) WatcherOption {
	return func(w *Watcher) {
		w.onStart = fn
	}
}

// OnResult registers a callback invoked after every load the watcher starts.
func OnResult(fn func(Result)) WatcherOption {
	return func(w *Watcher) {
		w.onResult = fn
	}
}

// NewWatcher creates a watcher for loader.
func NewWatcher(loader *Loader, options ...WatcherOption) *Watcher {
	w := &Watcher{
		loader:   loader,
		limiter:  rate.NewLimiter(rate.Inf, 1),
		onStart:  func(Cursor) {},
		onResult: func(Result) {},
	}
	for _, opt := range options {
		opt(w)
	}
	return w
}

// Run consumes intersections until the list is exhausted, the trigger is
// closed or ctx is done. It returns ErrAuthExpired when the loader could not
// renew the session so the caller can log out.
func (w *Watcher) Run(ctx context.Context, trigger Trigger) error {
	events := trigger.Intersections()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case _, ok := <-events:
			if !ok {
				return nil
			}
			if !w.loader.Ready() {
				continue
			}
			if err := w.limiter.Wait(ctx); err != nil {
				if ctxErr := ctx.Err(); ctxErr != nil {
					return ctxErr
				}
				return errors.Wrap(err, "[Watcher.Run] throttle")
			}
			if !w.loader.Ready() {
				continue
			}

			w.onStart(w.loader.Cursor())
			res := w.loader.LoadNext(ctx)
			w.onResult(res)
			switch res.Kind {
			case AuthRetryExhausted:
				return apperrors.Join(apperrors.ErrAuthExpired, res.Err)
			case Appended:
				if !res.Cursor.HasMore {
					return nil
				}
			}
		}
	}
}
