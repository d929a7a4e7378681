package wire

import (
	"bytes"
	"testing"
)

func roundTripCommand(t *testing.T, cmd Command) Command {
	t.Helper()
	var buf bytes.Buffer
	if err := EncodeCommand(&buf, cmd); err != nil {
		t.Fatalf("encode: %v", err)
	}
	got, err := DecodeCommand(&buf)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if buf.Len() != 0 {
		t.Fatalf("%d trailing bytes after decode", buf.Len())
	}
	return got
}

func TestCommandRoundTrip(t *testing.T) {
	str := func(s string) *string { return &s }
	u8 := func(v uint8) *uint8 { return &v }
	status := MDListReading

	cases := []Command{
		EndConnectionCommand{},
		KillCommand{},
		&LogInCommand{Username: "alice", Password: "hunter2"},
		LogOutCommand{},
		&AddMangaCommand{ID: 42, Languages: []string{"en", "fr"}},
		&AddMangaCommand{ID: 7, Languages: nil},
		&SearchCommand{Params: SearchParams{
			Title:            "chainsaw",
			Author:           str("fujimoto"),
			Artist:           nil,
			OriginalLanguage: u8(2),
			Flags:            FlagShounen | FlagOngoing,
			IncludeTags:      []uint8{1, 2, 3},
			ExcludeTags:      nil,
			TagMode:          TagModeAllAny,
			SortBy:           SortRatingDesc,
		}},
		&MDListCommand{Params: MDListParams{Status: &status, SortBy: SortTitleAsc}},
		&MDListCommand{Params: MDListParams{Status: nil, SortBy: SortLastUpdatedDesc}},
		&FollowMangaCommand{ID: 1, Status: uint8(MDListPlanToRead)},
		&UnfollowMangaCommand{ID: 2},
		&MarkChapterReadCommand{ID: 3},
		&MarkChapterUnreadCommand{ID: 4},
		FollowsCommand{},
	}

	for i, want := range cases {
		got := roundTripCommand(t, want)

		var wantBuf, gotBuf bytes.Buffer
		if err := EncodeCommand(&wantBuf, want); err != nil {
			t.Fatalf("case %d: re-encode want: %v", i, err)
		}
		if err := EncodeCommand(&gotBuf, got); err != nil {
			t.Fatalf("case %d: re-encode got: %v", i, err)
		}
		if !bytes.Equal(wantBuf.Bytes(), gotBuf.Bytes()) {
			t.Errorf("case %d: round trip mismatch: want %#v got %#v", i, want, got)
		}
	}
}

func TestDecodeCommandUnknownTag(t *testing.T) {
	_, err := DecodeCommand(bytes.NewReader([]byte{0xfe}))
	if err == nil {
		t.Fatal("expected error for unknown command tag")
	}
	tagErr, ok := err.(*ErrUnknownTag)
	if !ok {
		t.Fatalf("expected *ErrUnknownTag, got %T: %v", err, err)
	}
	if tagErr.Tag != 0xfe || tagErr.Context != "Command" {
		t.Fatalf("unexpected error detail: %+v", tagErr)
	}
}

func roundTripResponse(t *testing.T, resp Response) Response {
	t.Helper()
	var buf bytes.Buffer
	if err := EncodeResponse(&buf, resp); err != nil {
		t.Fatalf("encode: %v", err)
	}
	got, err := DecodeResponse(&buf)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if buf.Len() != 0 {
		t.Fatalf("%d trailing bytes after decode", buf.Len())
	}
	return got
}

func TestResponseRoundTrip(t *testing.T) {
	errMsg := "not logged in"

	cases := []Response{
		KillResponse{},
		&LogInResponse{Err: nil},
		&LogInResponse{Err: &errMsg},
		&LogOutResponse{Err: nil},
		&AddMangaResponse{Ok: &AddMangaResult{Title: "Chainsaw Man", Outcome: OutcomeFetched}},
		&AddMangaResponse{Err: &errMsg},
		&SearchResponse{Ok: []SearchResultEntry{{ID: 1, Title: "One"}, {ID: 2, Title: "Two"}}},
		&SearchResponse{Ok: nil},
		&MDListResponse{Ok: []MDListEntry{{ID: 9, Title: "Nine", Status: MDListOnHold}}},
		&FollowMangaResponse{Err: nil},
		&UnfollowMangaResponse{Err: &errMsg},
		&MarkChapterReadResponse{Err: nil},
		&MarkChapterUnreadResponse{Err: nil},
		&FollowsResponse{Ok: []FollowEntry{{ID: 5, Title: "Five", Status: MDListReReading}}},
	}

	for i, want := range cases {
		got := roundTripResponse(t, want)

		var wantBuf, gotBuf bytes.Buffer
		if err := EncodeResponse(&wantBuf, want); err != nil {
			t.Fatalf("case %d: re-encode want: %v", i, err)
		}
		if err := EncodeResponse(&gotBuf, got); err != nil {
			t.Fatalf("case %d: re-encode got: %v", i, err)
		}
		if !bytes.Equal(wantBuf.Bytes(), gotBuf.Bytes()) {
			t.Errorf("case %d: round trip mismatch: want %#v got %#v", i, want, got)
		}
	}
}

func TestDecodeResponseUnknownTag(t *testing.T) {
	_, err := DecodeResponse(bytes.NewReader([]byte{0xfe}))
	if err == nil {
		t.Fatal("expected error for unknown response tag")
	}
	tagErr, ok := err.(*ErrUnknownTag)
	if !ok {
		t.Fatalf("expected *ErrUnknownTag, got %T: %v", err, err)
	}
	if tagErr.Context != "Response" {
		t.Fatalf("unexpected context: %+v", tagErr)
	}
}
