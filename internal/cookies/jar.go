// Package cookies reads and writes the serialized session as a cookie on a
// fixed, ordered list of candidate origins. The privileged cookie API that
// can touch another origin's cookies only exists in the extension context, so
// it is abstracted behind the Jar interface.
package cookies

import (
	"context"
	"sync"
)

// Cookie is one record in a privileged jar.
type Cookie struct {
	URL            string
	Name           string
	Value          string
	Path           string
	Secure         bool
	SameSite       string
	ExpirationDate int64 // epoch seconds
}

// Jar abstracts the extension's privileged cookie API. Implementations may
// reject origins they cannot reach; the store treats every per-origin failure
// as best-effort.
type Jar interface {
	// Set writes a cookie. The URL decides which origin receives it.
	Set(ctx context.Context, c Cookie) error

	// Get returns the named cookie for the origin, or nil when absent.
	Get(ctx context.Context, originURL, name string) (*Cookie, error)

	// Remove deletes the named cookie from the origin.
	Remove(ctx context.Context, originURL, name string) error
}

// MemoryJar is an in-process Jar. The native-messaging host hands the bridge
// one of these seeded from the extension's real cookie snapshot; tests use it
// directly.
type MemoryJar struct {
	mu      sync.Mutex
	cookies map[string]Cookie
}

func NewMemoryJar() *MemoryJar {
	return &MemoryJar{cookies: make(map[string]Cookie)}
}

func jarKey(originURL, name string) string {
	return originURL + "\x00" + name
}

func (j *MemoryJar) Set(_ context.Context, c Cookie) error {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.cookies[jarKey(c.URL, c.Name)] = c
	return nil
}

func (j *MemoryJar) Get(_ context.Context, originURL, name string) (*Cookie, error) {
	j.mu.Lock()
	defer j.mu.Unlock()
	c, ok := j.cookies[jarKey(originURL, name)]
	if !ok {
		return nil, nil
	}
	return &c, nil
}

func (j *MemoryJar) Remove(_ context.Context, originURL, name string) error {
	j.mu.Lock()
	defer j.mu.Unlock()
	delete(j.cookies, jarKey(originURL, name))
	return nil
}

// Len reports how many cookies the jar holds.
func (j *MemoryJar) Len() int {
	j.mu.Lock()
	defer j.mu.Unlock()
	return len(j.cookies)
}
