package module

import (
	"context"
	"log/slog"

	"github.com/phinze/inviscam/internal/reactive"
)

// BaseModule carries the bookkeeping every module needs. Embed it and call
// its Init and Stop from the overriding methods.
type BaseModule struct {
	id      string
	session *Session
	logger  *slog.Logger
	ctx     context.Context
	cancel  context.CancelFunc
	scope   reactive.Scope
}

// NewBaseModule creates a BaseModule with the given ID.
func NewBaseModule(id string) BaseModule {
	return BaseModule{id: id}
}

// ID returns the module's identifier.
func (b *BaseModule) ID() string {
	return b.id
}

// Init stores the session and derives the module context.
func (b *BaseModule) Init(ctx context.Context, s *Session) error {
	b.ctx, b.cancel = context.WithCancel(ctx)
	b.session = s
	b.scope = reactive.Scope{}
	b.logger = s.Logger.With("component", b.id)
	return nil
}

// Stop releases every observer bound through Scope and cancels the context.
func (b *BaseModule) Stop() error {
	b.scope.Close()
	if b.cancel != nil {
		b.cancel()
	}
	return nil
}

// Session returns the session the module runs in.
func (b *BaseModule) Session() *Session {
	return b.session
}

// Context returns the module's context.
func (b *BaseModule) Context() context.Context {
	return b.ctx
}

// Scope collects observers released on Stop.
func (b *BaseModule) Scope() *reactive.Scope {
	return &b.scope
}

// Logger returns the module's logger.
func (b *BaseModule) Logger() *slog.Logger {
	return b.logger
}

// Post runs fn on the session loop unless the module stopped first.
func (b *BaseModule) Post(fn func()) {
	b.session.Sched.Post(func() {
		if b.scope.Closed() {
			return
		}
		fn()
	})
}
