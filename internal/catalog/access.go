package catalog

import (
	"context"
	"syscall"
)

// LookupResult is what Lookup returns on success: enough for the FUSE
// adapter to build a ChildInodeEntry without a second round trip.
type LookupResult struct {
	Ino   uint64
	Attrs Attrs
	Size  int64
	Nlink uint32
	IsDir bool
}

// Lookup implements spec §4.5 "lookup(parent_ino, name)". It never mutates
// the inode table — a ChapterNotFetched parent returns EINVAL rather than
// triggering materialization, which only readdir may do.
func (c *Catalog) Lookup(parentIno uint64, name string) (LookupResult, error) {
	c.entriesMu.RLock()
	parent, ok := c.entries[parentIno]
	c.entriesMu.RUnlock()
	if !ok {
		return LookupResult{}, syscall.ENOENT
	}

	switch parent.Kind {
	case KindChapterNotFetched:
		return LookupResult{}, syscall.EINVAL
	case KindPage, KindExternal:
		return LookupResult{}, syscall.ENOTDIR
	}

	child, ok := parent.Dir.Lookup(name)
	if !ok {
		return LookupResult{}, syscall.ENOENT
	}

	c.entriesMu.RLock()
	rec, ok := c.entries[child.Inode]
	c.entriesMu.RUnlock()
	if !ok {
		return LookupResult{}, syscall.ENOENT
	}

	size, nlink, err := c.sizeOf(rec)
	if err != nil {
		return LookupResult{}, err
	}

	return LookupResult{Ino: rec.Ino, Attrs: rec.Attrs, Size: size, Nlink: nlink, IsDir: rec.IsDir()}, nil
}

// GetAttributes implements spec §4.5 "getattr(ino)". A dead weak handle
// (the cache dropped an entry the inode table still references) collapses
// to ENOENT per spec §3 "Lookups that see a dead weak handle return EIO" —
// getattr specifically uses ENOENT since no child name resolution occurred
// and the kernel's stat(2) caller expects ENOENT for a vanished file.
func (c *Catalog) GetAttributes(ino uint64) (Attrs, bool, int64, uint32, error) {
	c.entriesMu.RLock()
	rec, ok := c.entries[ino]
	c.entriesMu.RUnlock()
	if !ok {
		return Attrs{}, false, 0, 0, syscall.ENOENT
	}

	size, nlink, err := c.sizeOf(rec)
	if err != nil {
		return Attrs{}, false, 0, 0, syscall.ENOENT
	}

	return rec.Attrs, rec.IsDir(), size, nlink, nil
}

// sizeOf derives (size, nlink) per spec §4.3: directories report
// 2 + child count, files report 1.
func (c *Catalog) sizeOf(rec *Record) (size int64, nlink uint32, err error) {
	switch rec.Kind {
	case KindRoot, KindManga, KindChapter, KindChapterNotFetched:
		childCount := 0
		if rec.Dir != nil {
			childCount = rec.Dir.Len()
		}
		return 4096, uint32(2 + childCount), nil

	case KindExternal:
		return int64(len(rec.ExternalBytes)), 1, nil

	case KindPage:
		p := rec.PageRef.Value()
		if p == nil {
			return 0, 0, &InconsistencyError{Detail: "page inode has no live cache entry"}
		}
		return p.Size(), 1, nil
	}

	return 0, 0, &InconsistencyError{Detail: "unrecognized inode kind"}
}

// DirEntry is one line of a readdir reply, already resolved to whether the
// child is a file (for d_type).
type DirEntry struct {
	Name   string
	Inode  uint64
	IsFile bool
}

// ReadDir implements spec §4.5 "readdir(ino, ...)". On a ChapterNotFetched
// inode this triggers get_or_fetch_chapter before replying — the one FUSE
// path that performs remote I/O (spec §4.4, §4.5).
func (c *Catalog) ReadDir(ctx context.Context, ino uint64) ([]DirEntry, error) {
	c.entriesMu.RLock()
	rec, ok := c.entries[ino]
	c.entriesMu.RUnlock()
	if !ok {
		return nil, syscall.ENOENT
	}

	if rec.Kind == KindChapterNotFetched {
		if _, _, err := c.GetOrFetchChapter(ctx, rec.ChapterID); err != nil {
			return nil, syscall.EIO
		}

		c.entriesMu.RLock()
		rec, ok = c.entries[ino]
		c.entriesMu.RUnlock()
		if !ok {
			return nil, syscall.ENOENT
		}
	}

	if !rec.IsDir() {
		return nil, syscall.ENOTDIR
	}

	dirEntries := rec.Dir.Entries()
	out := make([]DirEntry, len(dirEntries))
	for i, e := range dirEntries {
		out[i] = DirEntry{Name: e.Name, Inode: e.Child.Inode, IsFile: e.Child.IsFile}
	}
	return out, nil
}

// ReadFile implements spec §4.5 "read(ino, offset, size)": defined only
// for Page and External leaves. A Proxy page (never promoted by a prior
// readdir) is a client-ordering bug and reports EIO.
func (c *Catalog) ReadFile(ino uint64, offset, size int64) ([]byte, error) {
	c.entriesMu.RLock()
	rec, ok := c.entries[ino]
	c.entriesMu.RUnlock()
	if !ok {
		return nil, syscall.ENOENT
	}

	var buf []byte

	switch rec.Kind {
	case KindExternal:
		buf = rec.ExternalBytes

	case KindPage:
		p := rec.PageRef.Value()
		if p == nil {
			return nil, syscall.EIO
		}
		if !p.Ready() {
			return nil, syscall.EIO
		}
		buf = p.Data()

	case KindRoot, KindManga, KindChapter, KindChapterNotFetched:
		return nil, syscall.EISDIR

	default:
		return nil, syscall.EIO
	}

	return sliceWithin(buf, offset, size), nil
}

// sliceWithin returns buf[offset:min(offset+size, len(buf))], or an empty
// slice if offset is at or past the end.
func sliceWithin(buf []byte, offset, size int64) []byte {
	if offset < 0 || offset >= int64(len(buf)) {
		return nil
	}
	end := offset + size
	if end > int64(len(buf)) {
		end = int64(len(buf))
	}
	return buf[offset:end]
}
