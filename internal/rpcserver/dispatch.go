// Package rpcserver implements the per-connection request/response loop
// over the Unix control socket (spec §4.6): for each decoded Command it
// runs the matching catalog.Catalog operation and writes back a single
// Response frame.
package rpcserver

import (
	"context"

	"github.com/mangadexfs/mangadexfs/internal/catalog"
	"github.com/mangadexfs/mangadexfs/internal/remote"
	"github.com/mangadexfs/mangadexfs/internal/wire"
)

// errString renders err as the client-facing diagnostic (spec §7): every
// error taxonomy member already formats itself sensibly via Error(), so
// this is a thin adapter rather than a type switch.
func errString(err error) *string {
	s := err.Error()
	return &s
}

// dispatch executes one command against cat and returns the matching
// response. It never returns a Go error itself — all failures are folded
// into the response's Err field per spec §4.6/§7.
func dispatch(ctx context.Context, cat *catalog.Catalog, cmd wire.Command) wire.Response {
	switch c := cmd.(type) {
	case wire.EndConnectionCommand:
		// Handled by the connection loop before reaching dispatch.
		return nil

	case wire.KillCommand:
		// Bare reply; the connection loop sends it and then signals the
		// supervisor.
		return wire.KillResponse{}

	case *wire.LogInCommand:
		if _, err := cat.LogIn(ctx, c.Username, c.Password); err != nil {
			return &wire.LogInResponse{Err: errString(err)}
		}
		return &wire.LogInResponse{}

	case wire.LogOutCommand:
		if err := cat.LogOut(ctx); err != nil {
			return &wire.LogOutResponse{Err: errString(err)}
		}
		return &wire.LogOutResponse{}

	case *wire.AddMangaCommand:
		m, outcome, err := cat.GetOrFetchManga(ctx, c.ID, c.Languages)
		if err != nil {
			return &wire.AddMangaResponse{Err: errString(err)}
		}
		return &wire.AddMangaResponse{Ok: &wire.AddMangaResult{
			Title:   m.Title,
			Outcome: addMangaOutcome(outcome),
		}}

	case *wire.SearchCommand:
		results, err := cat.Search(ctx, c.Params)
		if err != nil {
			return &wire.SearchResponse{Err: errString(err)}
		}
		entries := make([]wire.SearchResultEntry, len(results))
		for i, r := range results {
			entries[i] = wire.SearchResultEntry{ID: r.ID, Title: r.Title}
		}
		return &wire.SearchResponse{Ok: entries}

	case *wire.MDListCommand:
		results, err := cat.MDList(ctx, c.Params)
		if err != nil {
			return &wire.MDListResponse{Err: errString(err)}
		}
		entries := make([]wire.MDListEntry, len(results))
		for i, r := range results {
			entries[i] = wire.MDListEntry{ID: r.ID, Title: r.Title, Status: r.Status}
		}
		return &wire.MDListResponse{Ok: entries}

	case *wire.FollowMangaCommand:
		if err := cat.FollowManga(ctx, c.ID, c.Status); err != nil {
			return &wire.FollowMangaResponse{Err: errString(err)}
		}
		return &wire.FollowMangaResponse{}

	case *wire.UnfollowMangaCommand:
		if err := cat.UnfollowManga(ctx, c.ID); err != nil {
			return &wire.UnfollowMangaResponse{Err: errString(err)}
		}
		return &wire.UnfollowMangaResponse{}

	case *wire.MarkChapterReadCommand:
		if err := cat.MarkChapterRead(ctx, c.ID); err != nil {
			return &wire.MarkChapterReadResponse{Err: errString(err)}
		}
		return &wire.MarkChapterReadResponse{}

	case *wire.MarkChapterUnreadCommand:
		if err := cat.MarkChapterUnread(ctx, c.ID); err != nil {
			return &wire.MarkChapterUnreadResponse{Err: errString(err)}
		}
		return &wire.MarkChapterUnreadResponse{}

	case wire.FollowsCommand:
		results, err := cat.Follows(ctx)
		if err != nil {
			return &wire.FollowsResponse{Err: errString(err)}
		}
		entries := make([]wire.FollowEntry, len(results))
		for i, r := range results {
			entries[i] = wire.FollowEntry{
				ID:     r.MangaID,
				Title:  r.MangaTitle,
				Status: followStatus(r),
			}
		}
		return &wire.FollowsResponse{Ok: entries}

	default:
		panic("rpcserver: unhandled Command type in dispatch")
	}
}

func addMangaOutcome(o catalog.GetOrFetchOutcome) wire.AddMangaOutcome {
	if o == catalog.Fetched {
		return wire.OutcomeFetched
	}
	return wire.OutcomeCached
}

// followStatus derives the MDListStatus wire tag for a follows-page row.
// The remote adapter's Follows() reports a per-chapter read marker rather
// than the manga's own MDList status (the /follows/ page doesn't expose
// it), so a followed-but-unclassified manga reports Reading — the closest
// sensible default, matching "a row on your follows page" semantics.
func followStatus(r remote.FollowsResult) wire.MDListStatus {
	return wire.MDListReading
}
