package catalog

import (
	"time"
	"weak"

	"github.com/mangadexfs/mangadexfs/internal/entry"
)

// RootInode is the stable, well-known inode number of the mount root
// (spec §3).
const RootInode uint64 = 1

// Kind discriminates the inode-table's entry variants (spec §3:
// "Root(Directory), Manga(weak→Manga, Directory), Chapter(weak→Chapter,
// Directory), ChapterNotFetched(chapter_id), Page(weak→Page),
// External(bytes)").
type Kind int

const (
	KindRoot Kind = iota
	KindManga
	KindChapter
	KindChapterNotFetched
	KindPage
	KindExternal
)

// Attrs carries the POSIX attribute fields every record needs (spec §4.3);
// mode/size/nlink are derived on demand from Kind and Dir rather than
// stored, since they change as children are added.
type Attrs struct {
	Uid       uint32
	Gid       uint32
	CreatedAt time.Time
}

// Record is one entry in the inode table. Exactly the fields relevant to
// Kind are meaningful; the rest are zero. The inode table holds weak
// handles into the cache (MangaRef/ChapterRef/PageRef) so entries die when
// the cache drops them, not when the FUSE tree forgets about them (spec §3,
// §9 "Graph with back-edges").
type Record struct {
	Ino   uint64
	Kind  Kind
	Attrs Attrs

	// Valid for KindRoot, KindManga, KindChapter.
	Dir *entry.Directory

	// Valid for KindManga.
	MangaRef weak.Pointer[entry.Manga]

	// Valid for KindChapter.
	ChapterRef weak.Pointer[entry.Chapter]

	// Valid for KindChapterNotFetched.
	ChapterID uint64
	MangaID   uint64 // parent, needed to re-link on materialization

	// Valid for KindPage.
	PageRef weak.Pointer[entry.Page]
	PageURL string

	// Valid for KindExternal.
	ExternalBytes []byte
}

// IsDir reports whether this record's attributes should carry S_IFDIR
// (spec §4.4 invariant: "Pages and External files are files; all other
// leaves in the tree are directories").
func (r *Record) IsDir() bool {
	switch r.Kind {
	case KindRoot, KindManga, KindChapter, KindChapterNotFetched:
		return true
	default:
		return false
	}
}
