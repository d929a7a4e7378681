// Package catalog implements the Context described in spec §4.4: the
// in-memory cache of remote resources, the FUSE inode table, and the
// lazy-materialization protocol that keeps the two coherent.
package catalog

import (
	"context"
	"fmt"
	"sync/atomic"

	"github.com/jacobsa/syncutil"
	"github.com/jacobsa/timeutil"
	"github.com/sirupsen/logrus"

	"github.com/mangadexfs/mangadexfs/internal/entry"
	"github.com/mangadexfs/mangadexfs/internal/remote"
	"github.com/mangadexfs/mangadexfs/internal/wire"
)

// GetOrFetchOutcome reports whether an operation served a cached handle or
// performed a fresh remote fetch (spec §4.4: "GetOrFetch<Cached,Fetched>").
type GetOrFetchOutcome int

const (
	Cached GetOrFetchOutcome = iota
	Fetched
)

// InvalidateFunc notifies the kernel that a directory's contents changed.
// Wired to fuseadapter.FileSystem.InvalidateInode once the daemon has
// mounted; nil (a no-op) in tests. Failures are advisory (spec
// §4.4, §9 "Kernel cache invalidation").
type InvalidateFunc func(ino uint64)

// RemoteClient is the subset of *remote.Client the catalog depends on.
// Narrowing it to an interface, the way the teacher narrows the FUSE
// clock dependency to timeutil.Clock, lets catalog_test.go exercise the
// fetch/dedup/invariant logic against a fake instead of real HTTP.
type RemoteClient interface {
	LogIn(ctx context.Context, username, password string) (remote.Session, error)
	LogOut(ctx context.Context) error
	GetManga(ctx context.Context, id uint64) (*entry.Manga, error)
	GetChapter(ctx context.Context, id uint64) (*entry.Chapter, error)
	GetPage(ctx context.Context, pageURL string) ([]byte, error)
	GetPageHead(ctx context.Context, pageURL string) (remote.PageProxy, error)
	Search(ctx context.Context, params wire.SearchParams) ([]remote.SearchResult, error)
	MDList(ctx context.Context, params wire.MDListParams) ([]remote.MDListResult, error)
	Follows(ctx context.Context) ([]remote.FollowsResult, error)
	Follow(ctx context.Context, id uint64, status uint8) error
	Unfollow(ctx context.Context, id uint64) error
	MarkChapterRead(ctx context.Context, id uint64) error
	MarkChapterUnread(ctx context.Context, id uint64) error
}

// Catalog is the Context: cache plus inode table plus remote adapter.
type Catalog struct {
	Remote RemoteClient
	clock  timeutil.Clock
	log    *logrus.Entry

	uid, gid uint32

	invalidate InvalidateFunc

	nextIno atomic.Uint64

	mangaMu     syncutil.InvariantMutex
	manga       map[uint64]*entry.Manga // GUARDED_BY(mangaMu)
	mangaInodes map[uint64]uint64       // GUARDED_BY(mangaMu)

	chaptersMu    syncutil.InvariantMutex
	chapters      map[uint64]*entry.Chapter // GUARDED_BY(chaptersMu)
	chapterInodes map[uint64]uint64         // GUARDED_BY(chaptersMu)

	pagesMu    syncutil.InvariantMutex
	pages      map[string]*entry.Page // GUARDED_BY(pagesMu)
	pageInodes map[string]uint64      // GUARDED_BY(pagesMu)

	entriesMu syncutil.InvariantMutex
	entries   map[uint64]*Record // GUARDED_BY(entriesMu)
}

// New builds a Catalog with only the root inode populated, matching
// samples/memfs.NewMemFS's "seed the root, wire invariant checking" shape.
func New(remoteClient RemoteClient, clock timeutil.Clock, uid, gid uint32, log *logrus.Entry) *Catalog {
	c := &Catalog{
		Remote:        remoteClient,
		clock:         clock,
		log:           log,
		uid:           uid,
		gid:           gid,
		manga:         make(map[uint64]*entry.Manga),
		mangaInodes:   make(map[uint64]uint64),
		chapters:      make(map[uint64]*entry.Chapter),
		chapterInodes: make(map[uint64]uint64),
		pages:         make(map[string]*entry.Page),
		pageInodes:    make(map[string]uint64),
		entries:       make(map[uint64]*Record),
	}
	c.nextIno.Store(RootInode + 1)

	c.entries[RootInode] = &Record{
		Ino:   RootInode,
		Kind:  KindRoot,
		Attrs: Attrs{Uid: uid, Gid: gid, CreatedAt: clock.Now()},
		Dir:   entry.NewDirectory(),
	}

	c.mangaMu = syncutil.NewInvariantMutex(c.checkMangaInvariants)
	c.chaptersMu = syncutil.NewInvariantMutex(c.checkChaptersInvariants)
	c.pagesMu = syncutil.NewInvariantMutex(c.checkPagesInvariants)
	c.entriesMu = syncutil.NewInvariantMutex(c.checkEntriesInvariants)

	return c
}

// SetInvalidateFunc wires the kernel-invalidation hook once the FUSE server
// is mounted (internal/supervisor). Before that, invalidation is a no-op.
func (c *Catalog) SetInvalidateFunc(f InvalidateFunc) {
	c.invalidate = f
}

func (c *Catalog) notifyInvalidate(ino uint64) {
	if c.invalidate == nil {
		return
	}
	defer func() {
		if r := recover(); r != nil {
			c.log.WithField("inode", ino).WithField("panic", r).Warn("kernel invalidation failed")
		}
	}()
	c.invalidate(ino)
}

func (c *Catalog) allocateIno() uint64 {
	return c.nextIno.Add(1) - 1
}

// checkMangaInvariants enforces spec §4.4: "For every key k present in
// manga..., a corresponding entry record exists in entries at the inode
// recorded in the _inodes index."
func (c *Catalog) checkMangaInvariants() {
	for id, ino := range c.mangaInodes {
		if _, ok := c.manga[id]; !ok {
			panic(fmt.Sprintf("catalog: manga_inodes has id %d with no manga entry", id))
		}
		c.entriesMu.RLock()
		_, ok := c.entries[ino]
		c.entriesMu.RUnlock()
		if !ok {
			panic(fmt.Sprintf("catalog: manga_inodes[%d]=%d has no entries record", id, ino))
		}
	}
}

func (c *Catalog) checkChaptersInvariants() {
	for id, ino := range c.chapterInodes {
		c.entriesMu.RLock()
		rec, ok := c.entries[ino]
		c.entriesMu.RUnlock()
		if !ok {
			panic(fmt.Sprintf("catalog: chapter_inodes[%d]=%d has no entries record", id, ino))
		}
		// A ChapterNotFetched(id) and a materialized Chapter(...) for the
		// same id never coexist (spec §4.4 invariant).
		_, fetched := c.chapters[id]
		if fetched && rec.Kind == KindChapterNotFetched {
			panic(fmt.Sprintf("catalog: chapter %d is both fetched and ChapterNotFetched", id))
		}
	}
}

func (c *Catalog) checkPagesInvariants() {
	for url, ino := range c.pageInodes {
		// Every inode in page_inodes, Proxy or Ready, has a corresponding
		// strong entry in pages (spec.md: "the cache holds strong handles
		// to Manga/Chapter/Page entries"); a Proxy is promoted in place by
		// SetReady rather than ever being dropped from the map.
		if _, ok := c.pages[url]; !ok {
			panic(fmt.Sprintf("catalog: page_inodes[%s]=%d has no strong pages entry", url, ino))
		}
		c.entriesMu.RLock()
		_, ok := c.entries[ino]
		c.entriesMu.RUnlock()
		if !ok {
			panic(fmt.Sprintf("catalog: page_inodes[%s]=%d has no entries record", url, ino))
		}
	}
}

func (c *Catalog) checkEntriesInvariants() {
	for ino, rec := range c.entries {
		if rec.Ino != ino {
			panic(fmt.Sprintf("catalog: entries[%d] has mismatched Ino %d", ino, rec.Ino))
		}
	}
}

// LogIn/LogOut delegate to the remote adapter (spec §4.4).
func (c *Catalog) LogIn(ctx context.Context, username, password string) (remote.Session, error) {
	return c.Remote.LogIn(ctx, username, password)
}

func (c *Catalog) LogOut(ctx context.Context) error {
	return c.Remote.LogOut(ctx)
}
