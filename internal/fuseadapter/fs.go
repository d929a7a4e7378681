// Package fuseadapter translates FUSE operations into catalog.Catalog
// queries and catalog errors into POSIX errno, per spec §4.5. Init
// succeeds with no work; every operation beyond
// init/lookup/getattr/opendir/readdir/openfile/readfile replies ENOSYS
// via the embedded fuseutil.NotImplementedFileSystem,
// matching samples/memfs's "implement only what the spec needs" shape.
package fuseadapter

import (
	"context"
	"syscall"

	"github.com/jacobsa/fuse"
	"github.com/jacobsa/fuse/fuseops"
	"github.com/jacobsa/fuse/fuseutil"
	"github.com/sirupsen/logrus"

	"github.com/mangadexfs/mangadexfs/internal/catalog"
)

// FileSystem adapts a *catalog.Catalog to fuseutil.FileSystem.
type FileSystem struct {
	fuseutil.NotImplementedFileSystem

	catalog  *catalog.Catalog
	log      *logrus.Entry
	notifier *fuse.Notifier
}

// New builds a FUSE file system view over cat. The returned FileSystem's
// InvalidateInode method is meant to be wired into
// catalog.Catalog.SetInvalidateFunc by the caller (spec §4.4's "when a
// fetch completes, the affected inode's kernel cache entry is
// invalidated"), matching samples/notify_inval's
// notifier-created-alongside-the-filesystem shape.
func New(cat *catalog.Catalog, log *logrus.Entry) *FileSystem {
	return &FileSystem{catalog: cat, log: log, notifier: fuse.NewNotifier()}
}

// InvalidateInode pushes a kernel cache invalidation for ino. Errors are
// advisory (spec §4.4, §9): at worst the kernel serves a stale readdir or
// getattr reply until the next one, it never serves data for the wrong
// inode.
func (fs *FileSystem) InvalidateInode(ino uint64) {
	if err := fs.notifier.InvalidateInode(fuseops.InodeID(ino), 0, 0); err != nil {
		fs.log.WithError(err).Debug("inode invalidation failed")
	}
}

// Server wraps fs as a fuse.Server bound to its notifier, ready to pass to
// fuse.Mount (samples/notify_inval's fuse.NewServerWithNotifier shape).
func (fs *FileSystem) Server() fuse.Server {
	return fuse.NewServerWithNotifier(fs.notifier, fuseutil.NewFileSystemServer(fs))
}

func (fs *FileSystem) Init(ctx context.Context, op *fuseops.InitOp) error {
	return nil
}

// LookUpInode implements spec §4.5 "lookup(parent_ino, name)".
func (fs *FileSystem) LookUpInode(ctx context.Context, op *fuseops.LookUpInodeOp) error {
	res, err := fs.catalog.Lookup(uint64(op.Parent), op.Name)
	if err != nil {
		return err
	}

	op.Entry.Child = fuseops.InodeID(res.Ino)
	op.Entry.Attributes = toInodeAttributes(res.Attrs, res.IsDir, res.Size, res.Nlink)
	return nil
}

// GetInodeAttributes implements spec §4.5 "getattr(ino)".
func (fs *FileSystem) GetInodeAttributes(ctx context.Context, op *fuseops.GetInodeAttributesOp) error {
	attrs, isDir, size, nlink, err := fs.catalog.GetAttributes(uint64(op.Inode))
	if err != nil {
		return err
	}

	op.Attributes = toInodeAttributes(attrs, isDir, size, nlink)
	return nil
}

// OpenDir allows opening any directory inode; the catalog itself has no
// notion of directory handles (spec §4.5 lists only four operations).
func (fs *FileSystem) OpenDir(ctx context.Context, op *fuseops.OpenDirOp) error {
	return nil
}

// ReadDir implements spec §4.5 "readdir(ino, offset, size)", the one FUSE
// path that may perform remote I/O (ChapterNotFetched materialization).
func (fs *FileSystem) ReadDir(ctx context.Context, op *fuseops.ReadDirOp) error {
	entries, err := fs.catalog.ReadDir(ctx, uint64(op.Inode))
	if err != nil {
		return err
	}

	children := make([]fuseutil.Dirent, 0, len(entries)+2)
	children = append(children,
		fuseutil.Dirent{Offset: 1, Inode: op.Inode, Name: ".", Type: fuseutil.DT_Directory},
		fuseutil.Dirent{Offset: 2, Inode: op.Inode, Name: "..", Type: fuseutil.DT_Directory},
	)
	for i, e := range entries {
		dt := fuseutil.DT_Directory
		if e.IsFile {
			dt = fuseutil.DT_File
		}
		children = append(children, fuseutil.Dirent{
			Offset: fuseops.DirOffset(i + 3),
			Inode:  fuseops.InodeID(e.Inode),
			Name:   e.Name,
			Type:   dt,
		})
	}

	if op.Offset > fuseops.DirOffset(len(children)) {
		return syscall.EINVAL
	}
	children = children[op.Offset:]

	for _, e := range children {
		n := fuseutil.WriteDirent(op.Dst[op.BytesRead:], e)
		if n == 0 {
			break
		}
		op.BytesRead += n
	}

	return nil
}

// OpenFile allows opening any file inode; reads are served statelessly
// from the catalog (spec §4.5).
func (fs *FileSystem) OpenFile(ctx context.Context, op *fuseops.OpenFileOp) error {
	return nil
}

// ReadFile implements spec §4.5 "read(ino, offset, size)".
func (fs *FileSystem) ReadFile(ctx context.Context, op *fuseops.ReadFileOp) error {
	data, err := fs.catalog.ReadFile(uint64(op.Inode), op.Offset, int64(len(op.Dst)))
	if err != nil {
		return err
	}

	op.BytesRead = copy(op.Dst, data)
	return nil
}
