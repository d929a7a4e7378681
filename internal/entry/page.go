package entry

import "sync"

// Page is either a fully downloaded byte buffer, or a Proxy placeholder
// that only knows the eventual Content-Length (spec §3). A Proxy may be
// replaced by a Ready buffer; a Ready buffer is never downgraded — callers
// enforce this by only ever calling SetReady, never constructing a fresh
// Page over one already Ready.
type Page struct {
	mu    sync.RWMutex
	ready bool
	data  []byte
	size  int64
}

// NewProxyPage creates a placeholder page of the given byte length, known
// from a HEAD request's Content-Length header.
func NewProxyPage(size int64) *Page {
	return &Page{size: size}
}

// NewReadyPage creates a fully materialized page.
func NewReadyPage(data []byte) *Page {
	return &Page{ready: true, data: data, size: int64(len(data))}
}

// Ready reports whether this page holds real bytes.
func (p *Page) Ready() bool {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.ready
}

// Size is the page's byte length, whether known from a HEAD proxy or an
// actual downloaded buffer.
func (p *Page) Size() int64 {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.size
}

// Data returns the downloaded bytes. Callers must check Ready first; Data
// on a Proxy page returns nil.
func (p *Page) Data() []byte {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.data
}

// SetReady promotes a Proxy page in place to a Ready page, preserving its
// identity (spec §8 item 4: "Proxy promotion preserves inode" relies on the
// caller keeping the same *Page across this call rather than replacing it).
func (p *Page) SetReady(data []byte) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.ready = true
	p.data = data
	p.size = int64(len(data))
}
