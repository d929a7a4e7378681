package remote

import (
	"bytes"
	"context"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"golang.org/x/net/html"

	"github.com/mangadexfs/mangadexfs/internal/wire"
)

// SearchResult is one row of a catalog search (spec §4.1 "search(params)").
type SearchResult struct {
	ID    uint64
	Title string
}

// Search runs a parameterized catalog search, scraping the legacy site's
// search results page the way the original client does (spec §1 treats
// this scraping as an opaque remote adapter concern).
func (c *Client) Search(ctx context.Context, params wire.SearchParams) ([]SearchResult, error) {
	session, err := c.requireSession("search")
	if err != nil {
		return nil, err
	}

	endpoint := c.searchURL(params)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, &RequestError{Op: "search", Err: err}
	}
	sessionCookieHeaders(req, session)

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, &RequestError{Op: "search", Err: err}
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &RequestError{Op: "search", Err: err}
	}

	doc, err := html.Parse(bytes.NewReader(body))
	if err != nil {
		return nil, &RequestError{Op: "search", Err: err}
	}

	entries := findAll(doc, isTagWithClass("div", "manga-entry"))
	out := make([]SearchResult, 0, len(entries))
	for _, entryNode := range entries {
		idAttr, ok := attr(entryNode, "data-id")
		if !ok {
			continue
		}
		id, err := strconv.ParseUint(idAttr, 10, 64)
		if err != nil {
			continue
		}

		title := "<unknown title>"
		if link := findFirst(entryNode, isTagWithClass("a", "manga_title")); link != nil {
			if t, ok := attr(link, "title"); ok {
				title = t
			}
		}

		out = append(out, SearchResult{ID: id, Title: title})
	}

	return out, nil
}

func (c *Client) searchURL(p wire.SearchParams) string {
	u, _ := url.Parse(c.baseURL + "/search/")
	q := u.Query()
	q.Set("title", p.Title)

	if p.Author != nil {
		q.Set("author", *p.Author)
	}
	if p.Artist != nil {
		q.Set("artist", *p.Artist)
	}
	if p.OriginalLanguage != nil {
		q.Set("lang_id", strconv.Itoa(int(*p.OriginalLanguage)))
	}

	demos := demographicQuery(p.Flags)
	if demos != "" {
		q.Set("demos", demos)
	}
	statuses := statusQuery(p.Flags)
	if statuses != "" {
		q.Set("statuses", statuses)
	}

	q.Set("tag_mode_inc", tagModeIncludeStr(p.TagMode))
	q.Set("tag_mode_exc", tagModeExcludeStr(p.TagMode))

	if len(p.IncludeTags) > 0 || len(p.ExcludeTags) > 0 {
		tags := make([]string, 0, len(p.IncludeTags)+len(p.ExcludeTags))
		for _, t := range p.IncludeTags {
			tags = append(tags, strconv.Itoa(int(t)))
		}
		for _, t := range p.ExcludeTags {
			tags = append(tags, "-"+strconv.Itoa(int(t)))
		}
		q.Set("tags", strings.Join(tags, ","))
	}

	u.RawQuery = q.Encode()
	return u.String()
}

func demographicQuery(flags wire.SearchFlags) string {
	bits := []struct {
		flag wire.SearchFlags
		code string
	}{
		{wire.FlagShounen, "1"},
		{wire.FlagShoujo, "2"},
		{wire.FlagSeinen, "3"},
		{wire.FlagJosei, "4"},
	}
	return packedFlagQuery(flags, bits)
}

func statusQuery(flags wire.SearchFlags) string {
	bits := []struct {
		flag wire.SearchFlags
		code string
	}{
		{wire.FlagOngoing, "1"},
		{wire.FlagCompleted, "2"},
		{wire.FlagCancelled, "3"},
		{wire.FlagHiatus, "4"},
	}
	return packedFlagQuery(flags, bits)
}

func packedFlagQuery(flags wire.SearchFlags, bits []struct {
	flag wire.SearchFlags
	code string
}) string {
	var set, unset int
	var codes []string
	for _, b := range bits {
		if flags&b.flag != 0 {
			set++
			codes = append(codes, b.code)
		} else {
			unset++
		}
	}
	// Only constrain the query when the filter excludes some but not all
	// options, mirroring the original's "not all and not none" guard.
	if set == 0 || unset == 0 {
		return ""
	}
	return strings.Join(codes, ",")
}

func tagModeIncludeStr(m wire.TagMode) string {
	switch m {
	case wire.TagModeAllAll, wire.TagModeAllAny:
		return "all"
	default:
		return "any"
	}
}

func tagModeExcludeStr(m wire.TagMode) string {
	switch m {
	case wire.TagModeAllAll, wire.TagModeAnyAll:
		return "all"
	default:
		return "any"
	}
}
