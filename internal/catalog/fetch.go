package catalog

import (
	"context"
	"weak"

	"github.com/mangadexfs/mangadexfs/internal/entry"
	"github.com/mangadexfs/mangadexfs/internal/remote"
	"github.com/mangadexfs/mangadexfs/internal/wire"
)

// GetOrFetchManga implements spec §4.4: a writer lock on the manga map is
// held across the remote fetch, giving the at-most-one-fetch-per-key
// guarantee for free.
func (c *Catalog) GetOrFetchManga(ctx context.Context, id uint64, languages []string) (*entry.Manga, GetOrFetchOutcome, error) {
	c.mangaMu.Lock()
	defer c.mangaMu.Unlock()

	if m, ok := c.manga[id]; ok {
		return m, Cached, nil
	}

	m, err := c.Remote.GetManga(ctx, id)
	if err != nil {
		return nil, 0, err
	}

	c.manga[id] = m
	ino := c.materializeMangaLocked(m, languages)
	c.mangaInodes[id] = ino

	c.notifyInvalidate(RootInode)

	return m, Fetched, nil
}

// materializeMangaLocked allocates the manga's inode, builds its directory
// with a ChapterNotFetched placeholder for every chapter in the requested
// languages, and links it under root. Caller holds mangaMu.
func (c *Catalog) materializeMangaLocked(m *entry.Manga, languages []string) uint64 {
	dir := entry.NewDirectory()
	ino := c.allocateIno()

	c.chaptersMu.Lock()
	for _, short := range m.ChaptersInLanguages(languages) {
		chIno := c.allocateIno()
		c.chapterInodes[short.ID] = chIno

		c.entriesMu.Lock()
		c.entries[chIno] = &Record{
			Ino:       chIno,
			Kind:      KindChapterNotFetched,
			Attrs:     Attrs{Uid: c.uid, Gid: c.gid, CreatedAt: c.clock.Now()},
			ChapterID: short.ID,
			MangaID:   m.ID,
		}
		c.entriesMu.Unlock()

		dir.Add(entry.ChapterDisplayName(short.Title, short.Volume, short.Number, short.ID), chIno, false)
	}
	c.chaptersMu.Unlock()

	c.entriesMu.Lock()
	c.entries[ino] = &Record{
		Ino:      ino,
		Kind:     KindManga,
		Attrs:    Attrs{Uid: c.uid, Gid: c.gid, CreatedAt: c.clock.Now()},
		Dir:      dir,
		MangaRef: weak.Make(m),
	}
	root := c.entries[RootInode]
	c.entriesMu.Unlock()

	root.Dir.Add(m.DisplayName(), ino, false)

	return ino
}

// GetOrFetchChapter implements spec §4.4. Two sub-cases on a fresh fetch:
// a ChapterNotFetched placeholder already exists (the common path, reuse
// its inode), or none exists (allocate fresh and link under the parent).
func (c *Catalog) GetOrFetchChapter(ctx context.Context, id uint64) (*entry.Chapter, GetOrFetchOutcome, error) {
	c.chaptersMu.Lock()
	defer c.chaptersMu.Unlock()

	if ch, ok := c.chapters[id]; ok {
		return ch, Cached, nil
	}

	ch, err := c.Remote.GetChapter(ctx, id)
	if err != nil {
		return nil, 0, err
	}

	c.chapters[id] = ch

	ino, hasPlaceholder := c.chapterInodes[id]
	if !hasPlaceholder {
		ino = c.allocateIno()
		c.chapterInodes[id] = ino

		c.mangaMu.RLock()
		parentIno, parentKnown := c.mangaInodes[ch.MangaID]
		c.mangaMu.RUnlock()

		if parentKnown {
			c.entriesMu.Lock()
			if parentRec, ok := c.entries[parentIno]; ok {
				parentRec.Dir.Add(ch.DisplayName(), ino, false)
			}
			c.entriesMu.Unlock()
		}
	}

	dir := c.populateChapterDirectory(ctx, ch)

	c.entriesMu.Lock()
	c.entries[ino] = &Record{
		Ino:        ino,
		Kind:       KindChapter,
		Attrs:      Attrs{Uid: c.uid, Gid: c.gid, CreatedAt: c.clock.Now()},
		Dir:        dir,
		ChapterRef: weak.Make(ch),
	}
	c.entriesMu.Unlock()

	c.notifyInvalidate(ino)

	return ch, Fetched, nil
}

// populateChapterDirectory materializes a chapter's children: one Page (or
// proxy) per hosted page name, or a single synthesized external.html.
// Caller holds chaptersMu.
func (c *Catalog) populateChapterDirectory(ctx context.Context, ch *entry.Chapter) *entry.Directory {
	dir := entry.NewDirectory()

	switch ch.Pages.Kind {
	case entry.PagesExternal:
		ino := c.allocateIno()
		c.entriesMu.Lock()
		c.entries[ino] = &Record{
			Ino:           ino,
			Kind:          KindExternal,
			Attrs:         Attrs{Uid: c.uid, Gid: c.gid, CreatedAt: c.clock.Now()},
			ExternalBytes: entry.RedirectHTML(ch.Pages.RedirectURL),
		}
		c.entriesMu.Unlock()
		dir.Add(entry.ExternalFileName, ino, true)

	case entry.PagesHosted:
		c.pagesMu.Lock()
		defer c.pagesMu.Unlock()
		for _, name := range ch.Pages.PageNames {
			url := ch.Pages.BaseURL + name
			ino, _, err := c.getPageOrProxyLocked(ctx, url)
			if err != nil {
				c.log.WithField("url", url).WithError(err).Warn("page proxy fetch failed during chapter materialization")
				continue
			}
			dir.Add(name, ino, true)
		}
	}

	return dir
}

// GetOrFetchPage performs a full GET, replacing any existing Proxy in
// place so the inode number is preserved (spec §4.4, §8 item 4).
func (c *Catalog) GetOrFetchPage(ctx context.Context, url string) (*entry.Page, GetOrFetchOutcome, error) {
	c.pagesMu.Lock()
	defer c.pagesMu.Unlock()

	if p, ok := c.pages[url]; ok && p.Ready() {
		return p, Cached, nil
	}

	data, err := c.Remote.GetPage(ctx, url)
	if err != nil {
		return nil, 0, err
	}

	if p, ok := c.pages[url]; ok {
		p.SetReady(data)
		c.notifyInvalidate(c.pageInodes[url])
		return p, Fetched, nil
	}

	p := entry.NewReadyPage(data)
	c.pages[url] = p

	ino, hasProxyIno := c.pageInodes[url]
	if !hasProxyIno {
		ino = c.allocateIno()
		c.pageInodes[url] = ino
	}

	c.entriesMu.Lock()
	c.entries[ino] = &Record{
		Ino:     ino,
		Kind:    KindPage,
		Attrs:   Attrs{Uid: c.uid, Gid: c.gid, CreatedAt: c.clock.Now()},
		PageRef: weak.Make(p),
		PageURL: url,
	}
	c.entriesMu.Unlock()

	c.notifyInvalidate(ino)

	return p, Fetched, nil
}

// GetPageOrProxy learns only Content-Length via HEAD, for attribute-only
// access (spec §4.4 "get_page_or_proxy"). pagesMu is held for the whole
// call, including the HEAD request; an already-known URL returns Cached
// without remote I/O.
func (c *Catalog) GetPageOrProxy(ctx context.Context, url string) (*entry.Page, GetOrFetchOutcome, error) {
	c.pagesMu.Lock()
	defer c.pagesMu.Unlock()

	ino, outcome, err := c.getPageOrProxyLocked(ctx, url)
	if err != nil {
		return nil, 0, err
	}

	c.entriesMu.RLock()
	rec := c.entries[ino]
	c.entriesMu.RUnlock()

	p := rec.PageRef.Value()
	if p == nil {
		return nil, 0, &InconsistencyError{Detail: "page weak handle dropped immediately after creation"}
	}
	return p, outcome, nil
}

// getPageOrProxyLocked is the shared implementation behind chapter
// materialization (which needs the inode, not just the Page) and
// GetPageOrProxy. Caller holds pagesMu.
func (c *Catalog) getPageOrProxyLocked(ctx context.Context, url string) (ino uint64, outcome GetOrFetchOutcome, err error) {
	if existingIno, ok := c.pageInodes[url]; ok {
		return existingIno, Cached, nil
	}

	proxy, err := c.Remote.GetPageHead(ctx, url)
	if err != nil {
		return 0, 0, err
	}

	p := entry.NewProxyPage(proxy.Size)
	ino = c.allocateIno()
	c.pageInodes[url] = ino
	c.pages[url] = p

	c.entriesMu.Lock()
	c.entries[ino] = &Record{
		Ino:     ino,
		Kind:    KindPage,
		Attrs:   Attrs{Uid: c.uid, Gid: c.gid, CreatedAt: c.clock.Now()},
		PageRef: weak.Make(p),
		PageURL: url,
	}
	c.entriesMu.Unlock()

	return ino, Fetched, nil
}

// Search/MDList/Follows/Follow/Unfollow/MarkChapter{Read,Unread} forward
// directly to the remote adapter (spec §4.4).

func (c *Catalog) Search(ctx context.Context, params wire.SearchParams) ([]remote.SearchResult, error) {
	return c.Remote.Search(ctx, params)
}

func (c *Catalog) MDList(ctx context.Context, params wire.MDListParams) ([]remote.MDListResult, error) {
	return c.Remote.MDList(ctx, params)
}

func (c *Catalog) Follows(ctx context.Context) ([]remote.FollowsResult, error) {
	return c.Remote.Follows(ctx)
}

func (c *Catalog) FollowManga(ctx context.Context, id uint64, status uint8) error {
	return c.Remote.Follow(ctx, id, status)
}

func (c *Catalog) UnfollowManga(ctx context.Context, id uint64) error {
	return c.Remote.Unfollow(ctx, id)
}

func (c *Catalog) MarkChapterRead(ctx context.Context, id uint64) error {
	return c.Remote.MarkChapterRead(ctx, id)
}

func (c *Catalog) MarkChapterUnread(ctx context.Context, id uint64) error {
	return c.Remote.MarkChapterUnread(ctx, id)
}
