package remote

import (
	"bytes"
	"context"
	"io"
	"net/http"
	"strconv"
	"strings"

	"golang.org/x/net/html"
)

// FollowsResult is one row of the user's /follows/ feed (spec §4.1
// "follows()"), one entry per unread-or-recent chapter across all followed
// manga.
type FollowsResult struct {
	MangaID      uint64
	MangaTitle   string
	ChapterID    uint64
	Chapter      string
	ChapterTitle string
	Volume       string
	MarkedRead   bool
	LastUpdate   string
}

// Follows scrapes the logged-in user's follows feed, grounded on
// original_source/src/lib/api/follows.rs's div#chapters row structure.
func (c *Client) Follows(ctx context.Context) ([]FollowsResult, error) {
	session, err := c.requireSession("follows")
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/follows/", nil)
	if err != nil {
		return nil, &RequestError{Op: "follows", Err: err}
	}
	sessionCookieHeaders(req, session)

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, &RequestError{Op: "follows", Err: err}
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &RequestError{Op: "follows", Err: err}
	}

	doc, err := html.Parse(bytes.NewReader(body))
	if err != nil {
		return nil, &RequestError{Op: "follows", Err: err}
	}

	chaptersRoot := findFirst(doc, isTagWithID("div", "chapters"))
	if chaptersRoot == nil {
		return nil, nil
	}

	var out []FollowsResult
	previousTitle := "<unknown title>"

	for _, container := range findAll(chaptersRoot, isTagWithClass("div", "chapter-container")) {
		rows := findAll(container, isTagWithClass("div", "row"))
		for i, row := range rows {
			if i == 0 {
				// First row is the manga-title header, not a chapter row.
				if link := findFirst(row, isTagWithClass("a", "manga_title")); link != nil {
					if t, ok := attr(link, "title"); ok {
						previousTitle = t
					}
				}
				continue
			}

			for _, chapterRow := range findAll(row, isTagWithClass("div", "chapter-row")) {
				out = append(out, parseFollowsChapterRow(chapterRow, previousTitle))
			}
		}
	}

	return out, nil
}

func parseFollowsChapterRow(chapterRow *html.Node, mangaTitle string) FollowsResult {
	result := FollowsResult{MangaTitle: mangaTitle}

	if v, ok := attr(chapterRow, "data-manga-id"); ok {
		if id, err := strconv.ParseUint(v, 10, 64); err == nil {
			result.MangaID = id
		}
	}
	if v, ok := attr(chapterRow, "data-id"); ok {
		if id, err := strconv.ParseUint(v, 10, 64); err == nil {
			result.ChapterID = id
		}
	}
	if v, ok := attr(chapterRow, "data-title"); ok {
		result.ChapterTitle = v
	}
	if v, ok := attr(chapterRow, "data-chapter"); ok {
		result.Chapter = v
	}
	if v, ok := attr(chapterRow, "data-volume"); ok {
		result.Volume = v
	}

	if span := findFirst(chapterRow, isTag("span")); span != nil {
		if t, ok := attr(span, "title"); ok {
			result.MarkedRead = t == "Mark unread"
		}
	}

	divs := findAll(chapterRow, isTag("div"))
	if len(divs) > 4 {
		result.LastUpdate = strings.TrimSpace(collectText(divs[4]))
	}

	return result
}
