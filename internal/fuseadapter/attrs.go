package fuseadapter

import (
	"os"

	"github.com/jacobsa/fuse/fuseops"

	"github.com/mangadexfs/mangadexfs/internal/catalog"
)

// toInodeAttributes derives fuseops.InodeAttributes from a catalog record's
// attributes per spec §4.3: directories 0555|S_IFDIR, files 0444, all
// inodes carrying the daemon's uid/gid and their creation timestamp for
// atime/mtime/ctime.
func toInodeAttributes(attrs catalog.Attrs, isDir bool, size int64, nlink uint32) fuseops.InodeAttributes {
	mode := os.FileMode(0444)
	if isDir {
		mode = os.ModeDir | 0555
	}

	return fuseops.InodeAttributes{
		Size:   uint64(size),
		Nlink:  nlink,
		Mode:   mode,
		Atime:  attrs.CreatedAt,
		Mtime:  attrs.CreatedAt,
		Ctime:  attrs.CreatedAt,
		Crtime: attrs.CreatedAt,
		Uid:    attrs.Uid,
		Gid:    attrs.Gid,
	}
}
