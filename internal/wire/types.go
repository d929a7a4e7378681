package wire

import "io"

// MDListStatus is the one-byte MDList status encoding from spec §6.
type MDListStatus uint8

const (
	MDListReading    MDListStatus = 1
	MDListCompleted  MDListStatus = 2
	MDListOnHold     MDListStatus = 3
	MDListPlanToRead MDListStatus = 4
	MDListDropped    MDListStatus = 5
	MDListReReading  MDListStatus = 6
)

func WriteMDListStatus(w io.Writer, s MDListStatus) error {
	return WriteU8(w, uint8(s))
}

func ReadMDListStatus(r io.Reader) (MDListStatus, error) {
	b, err := ReadU8(r)
	if err != nil {
		return 0, err
	}
	switch MDListStatus(b) {
	case MDListReading, MDListCompleted, MDListOnHold, MDListPlanToRead, MDListDropped, MDListReReading:
		return MDListStatus(b), nil
	default:
		return 0, &ErrUnknownTag{Context: "MDListStatus", Tag: b}
	}
}

// SortBy is the (mode × parameter) byte encoding from spec §6.
type SortBy uint8

const (
	SortLastUpdatedAsc SortBy = 0
	SortLastUpdatedDesc SortBy = 1
	SortTitleAsc        SortBy = 2
	SortTitleDesc       SortBy = 3
	SortCommentsAsc     SortBy = 4
	SortCommentsDesc    SortBy = 5
	SortRatingAsc       SortBy = 6
	SortRatingDesc      SortBy = 7
	SortViewsAsc        SortBy = 8
	SortViewsDesc       SortBy = 9
	SortFollowsAsc      SortBy = 10
	SortFollowsDesc     SortBy = 11
)

func WriteSortBy(w io.Writer, s SortBy) error {
	return WriteU8(w, uint8(s))
}

func ReadSortBy(r io.Reader) (SortBy, error) {
	b, err := ReadU8(r)
	if err != nil {
		return 0, err
	}
	if b > uint8(SortFollowsDesc) {
		return 0, &ErrUnknownTag{Context: "SortBy", Tag: b}
	}
	return SortBy(b), nil
}

// TagMode is the packed include/exclude tag-matching mode from spec §6.
type TagMode uint8

const (
	TagModeAllAll TagMode = 0
	TagModeAllAny TagMode = 1
	TagModeAnyAll TagMode = 2
	TagModeAnyAny TagMode = 3
)

// SearchFlags is the packed u8 of boolean demographic/status filters from
// spec §6.
type SearchFlags uint8

const (
	FlagShounen SearchFlags = 1 << 0
	FlagShoujo  SearchFlags = 1 << 1
	FlagSeinen  SearchFlags = 1 << 2
	FlagJosei   SearchFlags = 1 << 3
	FlagOngoing SearchFlags = 1 << 4
	FlagCompleted SearchFlags = 1 << 5
	FlagCancelled SearchFlags = 1 << 6
	FlagHiatus    SearchFlags = 1 << 7
)

// SearchParams carries a parameterized catalog search query (spec §6).
type SearchParams struct {
	Title             string
	Author            *string
	Artist            *string
	OriginalLanguage  *uint8
	Flags             SearchFlags
	IncludeTags       []uint8
	ExcludeTags       []uint8
	TagMode           TagMode
	SortBy            SortBy
}

func WriteSearchParams(w io.Writer, p SearchParams) error {
	if err := WriteString(w, p.Title); err != nil {
		return err
	}
	if err := WriteOptionString(w, p.Author); err != nil {
		return err
	}
	if err := WriteOptionString(w, p.Artist); err != nil {
		return err
	}
	if err := WriteOptionU8(w, p.OriginalLanguage); err != nil {
		return err
	}
	if err := WriteU8(w, uint8(p.Flags)); err != nil {
		return err
	}
	if err := WriteU8Slice(w, p.IncludeTags); err != nil {
		return err
	}
	if err := WriteU8Slice(w, p.ExcludeTags); err != nil {
		return err
	}
	if err := WriteU8(w, uint8(p.TagMode)); err != nil {
		return err
	}
	return WriteSortBy(w, p.SortBy)
}

func ReadSearchParams(r io.Reader) (SearchParams, error) {
	var p SearchParams
	var err error

	if p.Title, err = ReadString(r); err != nil {
		return p, err
	}
	if p.Author, err = ReadOptionString(r); err != nil {
		return p, err
	}
	if p.Artist, err = ReadOptionString(r); err != nil {
		return p, err
	}
	if p.OriginalLanguage, err = ReadOptionU8(r); err != nil {
		return p, err
	}
	flags, err := ReadU8(r)
	if err != nil {
		return p, err
	}
	p.Flags = SearchFlags(flags)
	if p.IncludeTags, err = ReadU8Slice(r); err != nil {
		return p, err
	}
	if p.ExcludeTags, err = ReadU8Slice(r); err != nil {
		return p, err
	}
	tagMode, err := ReadU8(r)
	if err != nil {
		return p, err
	}
	if tagMode > uint8(TagModeAnyAny) {
		return p, &ErrUnknownTag{Context: "TagMode", Tag: tagMode}
	}
	p.TagMode = TagMode(tagMode)
	if p.SortBy, err = ReadSortBy(r); err != nil {
		return p, err
	}

	return p, nil
}

// MDListParams carries a parameterized MDList query. The original
// distillation leaves its shape opaque beyond "MDListParams"; we model it
// the way the original Rust implementation's src/lib/api/mdlist.rs does:
// a status filter plus the same sort parameter as Search.
type MDListParams struct {
	Status *MDListStatus
	SortBy SortBy
}

func WriteMDListParams(w io.Writer, p MDListParams) error {
	if p.Status == nil {
		if err := WriteU8(w, 0x01); err != nil {
			return err
		}
	} else {
		if err := WriteU8(w, 0x00); err != nil {
			return err
		}
		if err := WriteMDListStatus(w, *p.Status); err != nil {
			return err
		}
	}
	return WriteSortBy(w, p.SortBy)
}

func ReadMDListParams(r io.Reader) (MDListParams, error) {
	var p MDListParams
	tag, err := ReadU8(r)
	if err != nil {
		return p, err
	}
	switch tag {
	case 0x00:
		s, err := ReadMDListStatus(r)
		if err != nil {
			return p, err
		}
		p.Status = &s
	case 0x01:
		// None.
	default:
		return p, &ErrUnknownTag{Context: "Option<MDListStatus>", Tag: tag}
	}

	if p.SortBy, err = ReadSortBy(r); err != nil {
		return p, err
	}
	return p, nil
}
