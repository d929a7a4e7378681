package catalog

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/jacobsa/timeutil"
	"github.com/sirupsen/logrus"

	"github.com/mangadexfs/mangadexfs/internal/entry"
	"github.com/mangadexfs/mangadexfs/internal/remote"
	"github.com/mangadexfs/mangadexfs/internal/wire"
)

// fakeRemote implements RemoteClient without touching the network, letting
// these tests exercise the catalog's fetch/dedup/invariant logic directly
// (mirrors how samples/memfs tests wire timeutil.SimulatedClock in place
// of a real clock).
type fakeRemote struct {
	mangaCalls atomic.Int64
	mangaFn    func(id uint64) (*entry.Manga, error)

	chapterCalls atomic.Int64
	chapterFn    func(id uint64) (*entry.Chapter, error)

	pageHeadFn func(url string) (remote.PageProxy, error)
	pageFn     func(url string) ([]byte, error)
}

func (f *fakeRemote) LogIn(ctx context.Context, username, password string) (remote.Session, error) {
	return remote.Session{ID: "test"}, nil
}
func (f *fakeRemote) LogOut(ctx context.Context) error { return nil }

func (f *fakeRemote) GetManga(ctx context.Context, id uint64) (*entry.Manga, error) {
	f.mangaCalls.Add(1)
	return f.mangaFn(id)
}

func (f *fakeRemote) GetChapter(ctx context.Context, id uint64) (*entry.Chapter, error) {
	f.chapterCalls.Add(1)
	return f.chapterFn(id)
}

func (f *fakeRemote) GetPage(ctx context.Context, pageURL string) ([]byte, error) {
	return f.pageFn(pageURL)
}

func (f *fakeRemote) GetPageHead(ctx context.Context, pageURL string) (remote.PageProxy, error) {
	return f.pageHeadFn(pageURL)
}

func (f *fakeRemote) Search(ctx context.Context, params wire.SearchParams) ([]remote.SearchResult, error) {
	return nil, nil
}
func (f *fakeRemote) MDList(ctx context.Context, params wire.MDListParams) ([]remote.MDListResult, error) {
	return nil, nil
}
func (f *fakeRemote) Follows(ctx context.Context) ([]remote.FollowsResult, error) { return nil, nil }
func (f *fakeRemote) Follow(ctx context.Context, id uint64, status uint8) error   { return nil }
func (f *fakeRemote) Unfollow(ctx context.Context, id uint64) error               { return nil }
func (f *fakeRemote) MarkChapterRead(ctx context.Context, id uint64) error        { return nil }
func (f *fakeRemote) MarkChapterUnread(ctx context.Context, id uint64) error      { return nil }

func newTestCatalog(rc RemoteClient) *Catalog {
	log := logrus.NewEntry(logrus.New())
	var clock timeutil.SimulatedClock
	clock.SetTime(timeutil.RealClock().Now())
	return New(rc, &clock, 1000, 1000, log)
}

// TestAtMostOneFetchPerKey covers spec §8 item 1: N concurrent
// GetOrFetchManga(x) calls issue exactly one remote GET and all observe
// the same shared Manga.
func TestAtMostOneFetchPerKey(t *testing.T) {
	start := make(chan struct{})
	fr := &fakeRemote{
		mangaFn: func(id uint64) (*entry.Manga, error) {
			<-start
			return &entry.Manga{ID: id, Title: "Beastars"}, nil
		},
	}
	c := newTestCatalog(fr)

	const n = 8
	var wg sync.WaitGroup
	results := make([]*entry.Manga, n)
	outcomes := make([]GetOrFetchOutcome, n)

	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			m, outcome, err := c.GetOrFetchManga(context.Background(), 7139, []string{"gb"})
			if err != nil {
				t.Errorf("GetOrFetchManga: %v", err)
				return
			}
			results[i] = m
			outcomes[i] = outcome
		}(i)
	}

	close(start)
	wg.Wait()

	if got := fr.mangaCalls.Load(); got != 1 {
		t.Fatalf("remote GetManga called %d times, want 1", got)
	}

	fetched, cached := 0, 0
	for i := 0; i < n; i++ {
		if results[i] != results[0] {
			t.Fatalf("call %d returned a different *Manga handle than call 0", i)
		}
		if outcomes[i] == Fetched {
			fetched++
		} else {
			cached++
		}
	}
	if fetched != 1 || cached != n-1 {
		t.Fatalf("got %d Fetched, %d Cached; want 1 Fetched, %d Cached", fetched, cached, n-1)
	}
}

// TestInodeMonotonicity covers spec §8 item 2.
func TestInodeMonotonicity(t *testing.T) {
	fr := &fakeRemote{
		mangaFn: func(id uint64) (*entry.Manga, error) {
			return &entry.Manga{ID: id, Title: "A"}, nil
		},
	}
	c := newTestCatalog(fr)

	_, _, err := c.GetOrFetchManga(context.Background(), 1, nil)
	if err != nil {
		t.Fatal(err)
	}
	_, _, err = c.GetOrFetchManga(context.Background(), 2, nil)
	if err != nil {
		t.Fatal(err)
	}

	seen := map[uint64]bool{}
	c.entriesMu.RLock()
	for ino := range c.entries {
		if seen[ino] {
			t.Fatalf("inode %d appears twice", ino)
		}
		seen[ino] = true
	}
	c.entriesMu.RUnlock()

	if len(seen) < 3 {
		t.Fatalf("expected at least root + 2 manga inodes, got %d", len(seen))
	}
}

// TestProxyPromotionPreservesInode covers spec §8 item 4.
func TestProxyPromotionPreservesInode(t *testing.T) {
	const url = "https://example/p1.png"
	fr := &fakeRemote{
		pageHeadFn: func(u string) (remote.PageProxy, error) {
			return remote.PageProxy{Size: 1024}, nil
		},
		pageFn: func(u string) ([]byte, error) {
			return []byte("hello"), nil
		},
	}
	c := newTestCatalog(fr)

	proxy, _, err := c.GetPageOrProxy(context.Background(), url)
	if err != nil {
		t.Fatal(err)
	}
	if proxy.Ready() {
		t.Fatal("freshly proxied page reports Ready")
	}

	c.pagesMu.RLock()
	proxyIno := c.pageInodes[url]
	c.pagesMu.RUnlock()

	p, outcome, err := c.GetOrFetchPage(context.Background(), url)
	if err != nil {
		t.Fatal(err)
	}
	if outcome != Fetched {
		t.Fatalf("got outcome %v, want Fetched", outcome)
	}
	if !p.Ready() {
		t.Fatal("page not Ready after GetOrFetchPage")
	}

	c.pagesMu.RLock()
	readyIno := c.pageInodes[url]
	c.pagesMu.RUnlock()

	if readyIno != proxyIno {
		t.Fatalf("inode changed across promotion: proxy=%d ready=%d", proxyIno, readyIno)
	}
}

// TestAttributeConsistency covers spec §8 item 5.
func TestAttributeConsistency(t *testing.T) {
	fr := &fakeRemote{
		mangaFn: func(id uint64) (*entry.Manga, error) {
			return &entry.Manga{
				ID:    id,
				Title: "Beastars",
				Chapters: []entry.ChapterShort{
					{ID: 1, LangCode: "gb", Number: "1"},
					{ID: 2, LangCode: "gb", Number: "2"},
				},
			}, nil
		},
	}
	c := newTestCatalog(fr)

	_, _, err := c.GetOrFetchManga(context.Background(), 7139, []string{"gb"})
	if err != nil {
		t.Fatal(err)
	}

	c.mangaMu.RLock()
	mangaIno := c.mangaInodes[7139]
	c.mangaMu.RUnlock()

	_, isDir, size, nlink, err := c.GetAttributes(mangaIno)
	if err != nil {
		t.Fatal(err)
	}
	if !isDir {
		t.Fatal("manga inode should be a directory")
	}
	if size != 4096 {
		t.Fatalf("directory size = %d, want 4096", size)
	}
	if nlink != 2+2 {
		t.Fatalf("nlink = %d, want %d (2 + 2 children)", nlink, 2+2)
	}
}

// TestDisplayNameInjectivity covers spec §8 item 6: a duplicate display
// name within one parent is a violated invariant, and entry.Directory.Add
// enforces it by panicking.
func TestDisplayNameInjectivity(t *testing.T) {
	d := entry.NewDirectory()
	d.Add("Ch. 1 [1]", 10, false)

	defer func() {
		if recover() == nil {
			t.Fatal("expected panic on duplicate directory entry name")
		}
	}()
	d.Add("Ch. 1 [1]", 11, false)
}

// TestGetOrFetchChapterReusesNotFetchedInode covers the ChapterNotFetched
// -> Chapter inode-preserving upgrade from spec §3, §4.4.
func TestGetOrFetchChapterReusesNotFetchedInode(t *testing.T) {
	fr := &fakeRemote{
		mangaFn: func(id uint64) (*entry.Manga, error) {
			return &entry.Manga{
				ID:    id,
				Title: "Beastars",
				Chapters: []entry.ChapterShort{
					{ID: 12345, LangCode: "gb", Volume: "1", Number: "3", Title: "Prologue"},
				},
			}, nil
		},
		chapterFn: func(id uint64) (*entry.Chapter, error) {
			return &entry.Chapter{
				ID:      id,
				MangaID: 7139,
				Pages:   entry.Pages{Kind: entry.PagesExternal, RedirectURL: "https://example/x"},
			}, nil
		},
	}
	c := newTestCatalog(fr)

	_, _, err := c.GetOrFetchManga(context.Background(), 7139, []string{"gb"})
	if err != nil {
		t.Fatal(err)
	}

	c.chaptersMu.RLock()
	placeholderIno := c.chapterInodes[12345]
	c.chaptersMu.RUnlock()

	ch, outcome, err := c.GetOrFetchChapter(context.Background(), 12345)
	if err != nil {
		t.Fatal(err)
	}
	if outcome != Fetched {
		t.Fatalf("got outcome %v, want Fetched", outcome)
	}
	if ch.ID != 12345 {
		t.Fatalf("unexpected chapter id %d", ch.ID)
	}

	c.chaptersMu.RLock()
	upgradedIno := c.chapterInodes[12345]
	c.chaptersMu.RUnlock()

	if upgradedIno != placeholderIno {
		t.Fatalf("chapter inode changed across materialization: placeholder=%d upgraded=%d", placeholderIno, upgradedIno)
	}

	c.entriesMu.RLock()
	rec := c.entries[upgradedIno]
	c.entriesMu.RUnlock()
	if rec.Kind != KindChapter {
		t.Fatalf("entry kind = %v, want KindChapter", rec.Kind)
	}
}
