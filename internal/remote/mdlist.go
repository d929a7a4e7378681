package remote

import (
	"bytes"
	"context"
	"io"
	"net/http"
	"strconv"

	"golang.org/x/net/html"

	"github.com/mangadexfs/mangadexfs/internal/wire"
)

// MDListResult is one row of an MDList page (spec §4.1 "mdlist(params)").
type MDListResult struct {
	ID     uint64
	Title  string
	Status wire.MDListStatus
}

var mdlistStatusByTitle = map[string]wire.MDListStatus{
	"Reading":      wire.MDListReading,
	"Completed":    wire.MDListCompleted,
	"On hold":      wire.MDListOnHold,
	"Plan to read": wire.MDListPlanToRead,
	"Dropped":      wire.MDListDropped,
	"Re-reading":   wire.MDListReReading,
}

// MDList scrapes the logged-in user's reading-list page for the given
// status filter and sort order, grounded on the original client's
// list/{id}/{status} endpoint (original_source/src/lib/api/mdlist.rs). Per
// spec §4.1 it requires a session, unlike the original's Option<Session>.
func (c *Client) MDList(ctx context.Context, params wire.MDListParams) ([]MDListResult, error) {
	session, err := c.requireSession("mdlist")
	if err != nil {
		return nil, err
	}

	statusSegment := "0"
	if params.Status != nil {
		statusSegment = strconv.Itoa(int(*params.Status))
	}
	endpoint := c.baseURL + "/list/me/" + statusSegment + "?s=" + strconv.Itoa(int(params.SortBy))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, &RequestError{Op: "mdlist", Err: err}
	}
	sessionCookieHeaders(req, session)
	req.AddCookie(&http.Cookie{Name: "mangadex_title_mode", Value: "2"})

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, &RequestError{Op: "mdlist", Err: err}
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &RequestError{Op: "mdlist", Err: err}
	}

	doc, err := html.Parse(bytes.NewReader(body))
	if err != nil {
		return nil, &RequestError{Op: "mdlist", Err: err}
	}

	content := findFirst(doc, isTagWithID("div", "content"))
	if content == nil {
		return nil, nil
	}

	entries := findAll(content, isTagWithClass("div", "manga-entry"))
	out := make([]MDListResult, 0, len(entries))
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
		if link := findFirst(entryNode, isTag("a")); link != nil {
			if t, ok := attr(link, "title"); ok {
				title = t
			}
		}

		status := wire.MDListPlanToRead
		if button := findFirst(entryNode, isTag("button")); button != nil {
			if t, ok := attr(button, "title"); ok {
				if s, ok := mdlistStatusByTitle[t]; ok {
					status = s
				}
			}
		}

		out = append(out, MDListResult{ID: id, Title: title, Status: status})
	}

	return out, nil
}
