package catalog

import "fmt"

// InconsistencyError marks a violated invariant the spec explicitly
// anticipates rather than treats as a bug: a weak handle resolved to a
// dropped entry, or an inode number pointing at a missing record (spec §7
// "Inconsistency"). Its text starts with "pointer dropped"; on the FUSE
// surface it collapses to EIO, except in getattr, which reports ENOENT.
// No caller logs it.
type InconsistencyError struct {
	Detail string
}

func (e *InconsistencyError) Error() string {
	return fmt.Sprintf("pointer dropped: %s", e.Detail)
}

// NotFoundError marks a lookup that found no such entry — not a violated
// invariant, just absence. The FUSE-facing accessors do not return it;
// they report absence as syscall.ENOENT directly.
type NotFoundError struct {
	What string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("not found: %s", e.What)
}
