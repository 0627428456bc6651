// Package bridge hands a live session off between the dashboard origin and
// the extension context. The two sides share no storage; the handoff rides on
// cookies the extension's privileged API can reach on both.
package bridge

import (
	"context"
	"sync"

	"github.com/squareft/authbridge/internal/config"
	"github.com/squareft/authbridge/internal/cookies"
	"github.com/squareft/authbridge/internal/logger"
	"github.com/squareft/authbridge/internal/provider"
	"github.com/squareft/authbridge/internal/session"
	"go.uber.org/zap"
)

// Bridge orchestrates session push, pull and logout propagation across the
// configured origins.
type Bridge struct {
	store  *cookies.Store
	client provider.Client

	pullOnce sync.Once
	pullRes  PullResult
}

func NewBridge(store *cookies.Store, client provider.Client) *Bridge {
	return &Bridge{store: store, client: client}
}

// Push writes the session to every known origin so a companion context can
// adopt the identity without re-prompting. Called right after a successful
// interactive login. Fire-and-forget: failures are logged, never surfaced.
func (b *Bridge) Push(ctx context.Context, sess session.Session) {
	if !sess.Restorable() {
		logger.Warn("refusing to push a partial session")
		return
	}
	b.store.Write(ctx, sess)
}

// PullResult reports a startup probe: whether a session was installed and
// which origin supplied it. The chosen origin travels in the result instead
// of module-level state.
type PullResult struct {
	Installed bool
	Origin    config.OriginConfig
}

// Pull probes the known origins once and installs the first decodable
// session into the local identity client. A miss is not an error; the normal
// interactive login takes over. Repeat calls return the first call's outcome:
// installing the same session twice is harmless but redundant.
func (b *Bridge) Pull(ctx context.Context) PullResult {
	b.pullOnce.Do(func() {
		b.pullRes = b.pull(ctx)
	})
	return b.pullRes
}

func (b *Bridge) pull(ctx context.Context) PullResult {
	res, ok := b.store.ReadFirst(ctx)
	if !ok {
		return PullResult{}
	}

	if !res.Session.Restorable() {
		logger.Warn("cookie session missing refresh token, falling back to interactive login",
			zap.String("origin", res.Origin.Name),
		)
		return PullResult{}
	}

	if _, err := b.client.SetSession(ctx, res.Session.AccessToken, res.Session.RefreshToken); err != nil {
		logger.Warn("failed to install session from cookies",
			zap.String("origin", res.Origin.Name),
			zap.Error(err),
		)
		return PullResult{}
	}

	logger.Info("session restored from dashboard cookies", zap.String("origin", res.Origin.Name))
	return PullResult{Installed: true, Origin: res.Origin}
}

// PropagateLogout clears the session cookie on all known origins and signs
// out the local identity client. The local sign-out runs even when cookie
// clearing blows up: a crashed jar must not leave this context signed in.
func (b *Bridge) PropagateLogout(ctx context.Context) {
	func() {
		defer func() {
			if r := recover(); r != nil {
				logger.Error("cookie clear panicked during logout", zap.Any("panic", r))
			}
		}()
		b.store.Clear(ctx)
	}()

	if err := b.client.SignOut(ctx); err != nil {
		logger.Warn("local sign-out failed", zap.Error(err))
	}
}
