package entry

import "sync"

// DirChild is one named entry in a Directory: the child's inode number and
// whether that child is a regular file (spec §3).
type DirChild struct {
	Inode  uint64
	IsFile bool
}

// Directory is the mapping from name to (child_inode, is_file) that backs
// every directory-holding inode variant (Root, Manga, Chapter). Names are
// inserted in order so readdir can enumerate deterministically.
//
// A *Directory is reachable from multiple goroutines without any other
// lock held: catalog.Record.Dir is read by Lookup/ReadDir after releasing
// entriesMu, and mutated by the fetch path (materializing a manga or
// chapter) after releasing the same lock, so Directory locks itself rather
// than relying on a caller-held lock (spec §5: "each FUSE operation runs
// as an independent task").
type Directory struct {
	mu       sync.RWMutex
	names    []string
	children map[string]DirChild
}

func NewDirectory() *Directory {
	return &Directory{children: make(map[string]DirChild)}
}

// Add inserts a new named child. Callers must ensure name-uniqueness
// (spec §8 item 6: display names are distinct within one parent) before
// calling; Add panics on a duplicate name since that indicates a violated
// invariant, not a recoverable runtime condition.
func (d *Directory) Add(name string, inode uint64, isFile bool) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if _, exists := d.children[name]; exists {
		panic("entry: duplicate directory entry name " + name)
	}
	d.names = append(d.names, name)
	d.children[name] = DirChild{Inode: inode, IsFile: isFile}
}

// Lookup finds a child by exact name.
func (d *Directory) Lookup(name string) (DirChild, bool) {
	d.mu.RLock()
	defer d.mu.RUnlock()

	c, ok := d.children[name]
	return c, ok
}

// Len reports the number of children, used to derive nlink (spec §4.3).
func (d *Directory) Len() int {
	d.mu.RLock()
	defer d.mu.RUnlock()

	return len(d.names)
}

// Entries returns (name, child) pairs in insertion order.
func (d *Directory) Entries() []struct {
	Name  string
	Child DirChild
} {
	d.mu.RLock()
	defer d.mu.RUnlock()

	out := make([]struct {
		Name  string
		Child DirChild
	}, len(d.names))
	for i, name := range d.names {
		out[i] = struct {
			Name  string
			Child DirChild
		}{Name: name, Child: d.children[name]}
	}
	return out
}
