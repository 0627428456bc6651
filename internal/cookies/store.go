package cookies

import (
	"context"
	"sync"
	"time"

	"github.com/squareft/authbridge/internal/config"
	"github.com/squareft/authbridge/internal/logger"
	"github.com/squareft/authbridge/internal/session"
	"go.uber.org/zap"
)

// fallbackTTL is used when a session carries no decodable expiry at all.
const fallbackTTL = time.Hour

// Store writes the encoded session cookie to every configured origin and
// reads it back from whichever origin has one first.
type Store struct {
	jar     Jar
	name    string
	origins []config.OriginConfig
}

func NewStore(cfg *config.Config, jar Jar) *Store {
	return &Store{
		jar:     jar,
		name:    cfg.Provider.CookieName,
		origins: cfg.Origins,
	}
}

// Write sets the session cookie on every configured origin. Each origin's
// write is independent: a rejected or unreachable origin is logged and the
// rest still proceed. Callers get no per-origin failure signal; cross-context
// sharing is a convenience, not a guarantee.
func (s *Store) Write(ctx context.Context, sess session.Session) {
	value := session.Encode(sess)
	expiry := expiryEpoch(sess)

	var wg sync.WaitGroup
	for _, origin := range s.origins {
		wg.Add(1)
		go func(origin config.OriginConfig) {
			defer wg.Done()
			err := s.jar.Set(ctx, Cookie{
				URL:            origin.URL,
				Name:           s.name,
				Value:          value,
				Path:           "/",
				Secure:         origin.Secure(),
				SameSite:       "lax",
				ExpirationDate: expiry,
			})
			if err != nil {
				logger.Warn("cookie write failed",
					zap.String("origin", origin.Name),
					zap.Error(err),
				)
				return
			}
			logger.Debug("session cookie set", zap.String("origin", origin.Name))
		}(origin)
	}
	wg.Wait()
}

// ReadResult is what a successful probe returns: the decoded session and the
// origin it came from. Threading the origin through the result keeps the
// choice explicit instead of parking it in shared state.
type ReadResult struct {
	Session session.Session
	Origin  config.OriginConfig
}

// ReadFirst probes the configured origins in order and returns the first
// successfully decoded session. Origins are never merged or compared; order
// is the whole contract, so a local development cookie shadows production.
func (s *Store) ReadFirst(ctx context.Context) (ReadResult, bool) {
	for _, origin := range s.origins {
		c, err := s.jar.Get(ctx, origin.URL, s.name)
		if err != nil {
			logger.Warn("cookie read failed",
				zap.String("origin", origin.Name),
				zap.Error(err),
			)
			continue
		}
		if c == nil {
			continue
		}

		sess, ok := session.DecodeAny(c.Value)
		if !ok {
			logger.Warn("undecodable session cookie skipped", zap.String("origin", origin.Name))
			continue
		}
		if sess.ExpiresAt.IsZero() && c.ExpirationDate > 0 {
			sess.ExpiresAt = time.Unix(c.ExpirationDate, 0)
		}
		return ReadResult{Session: sess, Origin: origin}, true
	}
	return ReadResult{}, false
}

// Clear removes the session cookie from every origin. Failures are swallowed
// per origin; clearing is best-effort cleanup.
func (s *Store) Clear(ctx context.Context) {
	var wg sync.WaitGroup
	for _, origin := range s.origins {
		wg.Add(1)
		go func(origin config.OriginConfig) {
			defer wg.Done()
			defer func() {
				if r := recover(); r != nil {
					logger.Warn("cookie jar panicked during clear",
						zap.String("origin", origin.Name),
						zap.Any("panic", r),
					)
				}
			}()
			if err := s.jar.Remove(ctx, origin.URL, s.name); err != nil {
				logger.Debug("cookie clear failed",
					zap.String("origin", origin.Name),
					zap.Error(err),
				)
			}
		}(origin)
	}
	wg.Wait()
}

func expiryEpoch(sess session.Session) int64 {
	if !sess.ExpiresAt.IsZero() {
		return sess.ExpiresAt.Unix()
	}
	if exp, ok := session.ExpiryOf(sess.AccessToken); ok {
		return exp.Unix()
	}
	return time.Now().Add(fallbackTTL).Unix()
}
