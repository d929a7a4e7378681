package wire

import "io"

// Response discriminators mirror Command discriminators (spec §6). Each
// carries a Result<T, string> payload except Kill, which is a bare tag.
type Response interface {
	responseTag() CommandTag
}

// AddMangaOutcome distinguishes a cache hit from a fresh fetch, matching
// the daemon's GetOrFetch<Manga> result (spec §3, §4.4).
type AddMangaOutcome uint8

const (
	OutcomeCached  AddMangaOutcome = 0
	OutcomeFetched AddMangaOutcome = 1
)

type AddMangaResult struct {
	Title   string
	Outcome AddMangaOutcome
}

type SearchResultEntry struct {
	ID    uint64
	Title string
}

type MDListEntry struct {
	ID     uint64
	Title  string
	Status MDListStatus
}

type FollowEntry struct {
	ID     uint64
	Title  string
	Status MDListStatus
}

type KillResponse struct{}

type LogInResponse struct {
	Err *string // nil on success
}

type LogOutResponse struct {
	Err *string
}

type AddMangaResponse struct {
	Ok  *AddMangaResult
	Err *string
}

type SearchResponse struct {
	Ok  []SearchResultEntry
	Err *string
}

type MDListResponse struct {
	Ok  []MDListEntry
	Err *string
}

type FollowMangaResponse struct {
	Err *string
}

type UnfollowMangaResponse struct {
	Err *string
}

type MarkChapterReadResponse struct {
	Err *string
}

type MarkChapterUnreadResponse struct {
	Err *string
}

type FollowsResponse struct {
	Ok  []FollowEntry
	Err *string
}

func (KillResponse) responseTag() CommandTag               { return TagKill }
func (*LogInResponse) responseTag() CommandTag              { return TagLogIn }
func (*LogOutResponse) responseTag() CommandTag             { return TagLogOut }
func (*AddMangaResponse) responseTag() CommandTag           { return TagAddManga }
func (*SearchResponse) responseTag() CommandTag             { return TagSearch }
func (*MDListResponse) responseTag() CommandTag             { return TagMDList }
func (*FollowMangaResponse) responseTag() CommandTag        { return TagFollowManga }
func (*UnfollowMangaResponse) responseTag() CommandTag      { return TagUnfollowManga }
func (*MarkChapterReadResponse) responseTag() CommandTag    { return TagMarkChapterRead }
func (*MarkChapterUnreadResponse) responseTag() CommandTag  { return TagMarkChapterUnread }
func (*FollowsResponse) responseTag() CommandTag            { return TagFollows }

// writeResultTag writes the Result<T,E> tag byte: 0x00 for Ok, 0x01 for Err.
func writeResultTag(w io.Writer, isErr bool) error {
	if isErr {
		return WriteU8(w, 0x01)
	}
	return WriteU8(w, 0x00)
}

func readResultTag(r io.Reader) (isErr bool, err error) {
	tag, err := ReadU8(r)
	if err != nil {
		return false, err
	}
	switch tag {
	case 0x00:
		return false, nil
	case 0x01:
		return true, nil
	default:
		return false, &ErrUnknownTag{Context: "Result", Tag: tag}
	}
}

// EncodeResponse writes resp's discriminator and Result<T,string> payload.
func EncodeResponse(w io.Writer, resp Response) error {
	if err := WriteU8(w, uint8(resp.responseTag())); err != nil {
		return err
	}

	switch r := resp.(type) {
	case KillResponse:
		return nil

	case *LogInResponse:
		return writeErrResult(w, r.Err)

	case *LogOutResponse:
		return writeErrResult(w, r.Err)

	case *AddMangaResponse:
		if err := writeResultTag(w, r.Err != nil); err != nil {
			return err
		}
		if r.Err != nil {
			return WriteString(w, *r.Err)
		}
		if err := WriteString(w, r.Ok.Title); err != nil {
			return err
		}
		return WriteU8(w, uint8(r.Ok.Outcome))

	case *SearchResponse:
		if err := writeResultTag(w, r.Err != nil); err != nil {
			return err
		}
		if r.Err != nil {
			return WriteString(w, *r.Err)
		}
		return writeSearchResultEntries(w, r.Ok)

	case *MDListResponse:
		if err := writeResultTag(w, r.Err != nil); err != nil {
			return err
		}
		if r.Err != nil {
			return WriteString(w, *r.Err)
		}
		return writeMDListEntries(w, r.Ok)

	case *FollowMangaResponse:
		return writeErrResult(w, r.Err)

	case *UnfollowMangaResponse:
		return writeErrResult(w, r.Err)

	case *MarkChapterReadResponse:
		return writeErrResult(w, r.Err)

	case *MarkChapterUnreadResponse:
		return writeErrResult(w, r.Err)

	case *FollowsResponse:
		if err := writeResultTag(w, r.Err != nil); err != nil {
			return err
		}
		if r.Err != nil {
			return WriteString(w, *r.Err)
		}
		return writeFollowEntries(w, r.Ok)

	default:
		panic("wire: unhandled Response type in EncodeResponse")
	}
}

// writeErrResult encodes a Result<(), string>.
func writeErrResult(w io.Writer, errMsg *string) error {
	if err := writeResultTag(w, errMsg != nil); err != nil {
		return err
	}
	if errMsg != nil {
		return WriteString(w, *errMsg)
	}
	return nil
}

func readErrResult(r io.Reader) (*string, error) {
	isErr, err := readResultTag(r)
	if err != nil {
		return nil, err
	}
	if !isErr {
		return nil, nil
	}
	msg, err := ReadString(r)
	if err != nil {
		return nil, err
	}
	return &msg, nil
}

func writeSearchResultEntries(w io.Writer, entries []SearchResultEntry) error {
	if err := WriteU64(w, uint64(len(entries))); err != nil {
		return err
	}
	for _, e := range entries {
		if err := WriteU64(w, e.ID); err != nil {
			return err
		}
		if err := WriteString(w, e.Title); err != nil {
			return err
		}
	}
	return nil
}

func readSearchResultEntries(r io.Reader) ([]SearchResultEntry, error) {
	n, err := ReadU64(r)
	if err != nil {
		return nil, err
	}
	out := make([]SearchResultEntry, 0, n)
	for i := uint64(0); i < n; i++ {
		id, err := ReadU64(r)
		if err != nil {
			return nil, err
		}
		title, err := ReadString(r)
		if err != nil {
			return nil, err
		}
		out = append(out, SearchResultEntry{ID: id, Title: title})
	}
	return out, nil
}

func writeMDListEntries(w io.Writer, entries []MDListEntry) error {
	if err := WriteU64(w, uint64(len(entries))); err != nil {
		return err
	}
	for _, e := range entries {
		if err := WriteU64(w, e.ID); err != nil {
			return err
		}
		if err := WriteString(w, e.Title); err != nil {
			return err
		}
		if err := WriteMDListStatus(w, e.Status); err != nil {
			return err
		}
	}
	return nil
}

func readMDListEntries(r io.Reader) ([]MDListEntry, error) {
	n, err := ReadU64(r)
	if err != nil {
		return nil, err
	}
	out := make([]MDListEntry, 0, n)
	for i := uint64(0); i < n; i++ {
		id, err := ReadU64(r)
		if err != nil {
			return nil, err
		}
		title, err := ReadString(r)
		if err != nil {
			return nil, err
		}
		status, err := ReadMDListStatus(r)
		if err != nil {
			return nil, err
		}
		out = append(out, MDListEntry{ID: id, Title: title, Status: status})
	}
	return out, nil
}

func writeFollowEntries(w io.Writer, entries []FollowEntry) error {
	if err := WriteU64(w, uint64(len(entries))); err != nil {
		return err
	}
	for _, e := range entries {
		if err := WriteU64(w, e.ID); err != nil {
			return err
		}
		if err := WriteString(w, e.Title); err != nil {
			return err
		}
		if err := WriteMDListStatus(w, e.Status); err != nil {
			return err
		}
	}
	return nil
}

func readFollowEntries(r io.Reader) ([]FollowEntry, error) {
	n, err := ReadU64(r)
	if err != nil {
		return nil, err
	}
	out := make([]FollowEntry, 0, n)
	for i := uint64(0); i < n; i++ {
		id, err := ReadU64(r)
		if err != nil {
			return nil, err
		}
		title, err := ReadString(r)
		if err != nil {
			return nil, err
		}
		status, err := ReadMDListStatus(r)
		if err != nil {
			return nil, err
		}
		out = append(out, FollowEntry{ID: id, Title: title, Status: status})
	}
	return out, nil
}

// DecodeResponse reads one discriminator byte and its Result<T,string>
// payload.
func DecodeResponse(r io.Reader) (Response, error) {
	tag, err := ReadU8(r)
	if err != nil {
		return nil, err
	}

	switch CommandTag(tag) {
	case TagKill:
		return KillResponse{}, nil

	case TagLogIn:
		errMsg, err := readErrResult(r)
		if err != nil {
			return nil, err
		}
		return &LogInResponse{Err: errMsg}, nil

	case TagLogOut:
		errMsg, err := readErrResult(r)
		if err != nil {
			return nil, err
		}
		return &LogOutResponse{Err: errMsg}, nil

	case TagAddManga:
		isErr, err := readResultTag(r)
		if err != nil {
			return nil, err
		}
		if isErr {
			msg, err := ReadString(r)
			if err != nil {
				return nil, err
			}
			return &AddMangaResponse{Err: &msg}, nil
		}
		title, err := ReadString(r)
		if err != nil {
			return nil, err
		}
		outcome, err := ReadU8(r)
		if err != nil {
			return nil, err
		}
		return &AddMangaResponse{Ok: &AddMangaResult{Title: title, Outcome: AddMangaOutcome(outcome)}}, nil

	case TagSearch:
		isErr, err := readResultTag(r)
		if err != nil {
			return nil, err
		}
		if isErr {
			msg, err := ReadString(r)
			if err != nil {
				return nil, err
			}
			return &SearchResponse{Err: &msg}, nil
		}
		entries, err := readSearchResultEntries(r)
		if err != nil {
			return nil, err
		}
		return &SearchResponse{Ok: entries}, nil

	case TagMDList:
		isErr, err := readResultTag(r)
		if err != nil {
			return nil, err
		}
		if isErr {
			msg, err := ReadString(r)
			if err != nil {
				return nil, err
			}
			return &MDListResponse{Err: &msg}, nil
		}
		entries, err := readMDListEntries(r)
		if err != nil {
			return nil, err
		}
		return &MDListResponse{Ok: entries}, nil

	case TagFollowManga:
		errMsg, err := readErrResult(r)
		if err != nil {
			return nil, err
		}
		return &FollowMangaResponse{Err: errMsg}, nil

	case TagUnfollowManga:
		errMsg, err := readErrResult(r)
		if err != nil {
			return nil, err
		}
		return &UnfollowMangaResponse{Err: errMsg}, nil

	case TagMarkChapterRead:
		errMsg, err := readErrResult(r)
		if err != nil {
			return nil, err
		}
		return &MarkChapterReadResponse{Err: errMsg}, nil

	case TagMarkChapterUnread:
		errMsg, err := readErrResult(r)
		if err != nil {
			return nil, err
		}
		return &MarkChapterUnreadResponse{Err: errMsg}, nil

	case TagFollows:
		isErr, err := readResultTag(r)
		if err != nil {
			return nil, err
		}
		if isErr {
			msg, err := ReadString(r)
			if err != nil {
				return nil, err
			}
			return &FollowsResponse{Err: &msg}, nil
		}
		entries, err := readFollowEntries(r)
		if err != nil {
			return nil, err
		}
		return &FollowsResponse{Ok: entries}, nil

	default:
		return nil, &ErrUnknownTag{Context: "Response", Tag: tag}
	}
}
