// Package remote encapsulates all outbound HTTP traffic and cookie
// management for one logical MangaDex user (spec §4.1). It is the only
// package in this module that performs network I/O.
package remote

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"sync"

	"github.com/mangadexfs/mangadexfs/internal/entry"
)

// Client is single-owner and internally serializes access to its session
// field under a writer lock for login/logout; reads may proceed in
// parallel (spec §4.1, §5).
type Client struct {
	http    *http.Client
	baseURL string

	mu      sync.RWMutex
	session *Session
}

func New() *Client {
	return &Client{http: &http.Client{}, baseURL: defaultBaseURL}
}

// PageProxy is the HEAD-derived placeholder carrying only Content-Length
// (spec §3 "Page" invariant: "a Proxy may be replaced by a Ready buffer").
type PageProxy struct {
	Size int64
}

// LogIn replaces any current session atomically with the one returned by a
// successful login (spec §3 Session invariant).
func (c *Client) LogIn(ctx context.Context, username, password string) (Session, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	session, err := c.logIn(ctx, username, password)
	if err != nil {
		return Session{}, err
	}
	c.session = session
	return *session, nil
}

// LogOut clears the current session on success; a no-op if none is set.
func (c *Client) LogOut(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.session == nil {
		return nil
	}
	if err := c.logOut(ctx, c.session); err != nil {
		return err
	}
	c.session = nil
	return nil
}

func (c *Client) currentSession() *Session {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.session
}

func (c *Client) requireSession(op string) (*Session, error) {
	s := c.currentSession()
	if s == nil {
		return nil, &NotLoggedInError{Op: op}
	}
	return s, nil
}

// GetManga fetches and decodes a manga's fixed JSON schema (spec §4.1).
func (c *Client) GetManga(ctx context.Context, id uint64) (*entry.Manga, error) {
	endpoint := c.baseURL + "/api/manga/" + strconv.FormatUint(id, 10)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, &RequestError{Op: "get_manga", Err: err}
	}
	sessionCookieHeaders(req, c.currentSession())

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, &RequestError{Op: "get_manga", Err: err}
	}
	defer resp.Body.Close()

	var payload mangaPayload
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, &RequestError{Op: "get_manga", Err: err}
	}

	chapters := make([]entry.ChapterShort, 0, len(payload.Chapter))
	for chapterID, field := range payload.Chapter {
		chapters = append(chapters, entry.ChapterShort{
			ID:       chapterID,
			Volume:   field.Volume,
			Number:   field.Chapter,
			Title:    field.Title,
			LangCode: field.LangCode,
		})
	}

	return &entry.Manga{
		ID:       id,
		Title:    payload.Manga.Title,
		CoverURL: payload.Manga.CoverURL,
		Chapters: chapters,
	}, nil
}

// GetChapter fetches and decodes a chapter's fixed JSON schema, choosing
// the Hosted or External Pages variant based on whether "external" is set
// (spec §4.1).
func (c *Client) GetChapter(ctx context.Context, id uint64) (*entry.Chapter, error) {
	endpoint := c.baseURL + "/api/chapter/" + strconv.FormatUint(id, 10)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, &RequestError{Op: "get_chapter", Err: err}
	}
	sessionCookieHeaders(req, c.currentSession())

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, &RequestError{Op: "get_chapter", Err: err}
	}
	defer resp.Body.Close()

	var payload chapterPayload
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, &RequestError{Op: "get_chapter", Err: err}
	}

	var pages entry.Pages
	if payload.External != "" {
		pages = entry.Pages{Kind: entry.PagesExternal, RedirectURL: payload.External}
	} else {
		pages = entry.Pages{
			Kind:      entry.PagesHosted,
			BaseURL:   payload.Server + payload.Hash + "/",
			PageNames: payload.PageArray,
		}
	}

	return &entry.Chapter{
		ID:      id,
		Volume:  payload.Volume,
		Number:  payload.Chapter,
		Title:   payload.Title,
		MangaID: payload.MangaID,
		Pages:   pages,
	}, nil
}

// GetPage downloads a page's full byte content.
func (c *Client) GetPage(ctx context.Context, pageURL string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, pageURL, nil)
	if err != nil {
		return nil, &RequestError{Op: "get_page", Err: err}
	}
	sessionCookieHeaders(req, c.currentSession())

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, &RequestError{Op: "get_page", Err: err}
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &RequestError{Op: "get_page", Err: err}
	}
	return data, nil
}

// GetPageHead learns a page's length without downloading its body (spec
// §4.4's get_page_or_proxy path).
func (c *Client) GetPageHead(ctx context.Context, pageURL string) (PageProxy, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodHead, pageURL, nil)
	if err != nil {
		return PageProxy{}, &RequestError{Op: "get_page_head", Err: err}
	}
	sessionCookieHeaders(req, c.currentSession())

	resp, err := c.http.Do(req)
	if err != nil {
		return PageProxy{}, &RequestError{Op: "get_page_head", Err: err}
	}
	defer resp.Body.Close()

	size, err := strconv.ParseInt(resp.Header.Get("Content-Length"), 10, 64)
	if err != nil {
		return PageProxy{}, &RequestError{Op: "get_page_head", Err: fmt.Errorf("missing Content-Length: %w", err)}
	}

	return PageProxy{Size: size}, nil
}

// Follow sets a manga's MDList status for the current session.
func (c *Client) Follow(ctx context.Context, id uint64, status uint8) error {
	session, err := c.requireSession("follow_manga")
	if err != nil {
		return err
	}

	endpoint := c.ajaxActionURL(map[string]string{
		"function": "manga_follow",
		"id":       strconv.FormatUint(id, 10),
		"type":     strconv.Itoa(int(status)),
	})
	return c.ajaxGet(ctx, "follow_manga", endpoint, session)
}

// Unfollow clears a manga's MDList status for the current session.
func (c *Client) Unfollow(ctx context.Context, id uint64) error {
	session, err := c.requireSession("unfollow_manga")
	if err != nil {
		return err
	}

	endpoint := c.ajaxActionURL(map[string]string{
		"function": "manga_follow",
		"id":       strconv.FormatUint(id, 10),
		"type":     "0",
	})
	return c.ajaxGet(ctx, "unfollow_manga", endpoint, session)
}

// MarkChapterRead marks a chapter read for the current session.
func (c *Client) MarkChapterRead(ctx context.Context, id uint64) error {
	session, err := c.requireSession("mark_chapter_read")
	if err != nil {
		return err
	}
	endpoint := c.ajaxActionURL(map[string]string{
		"function": "chapter_mark_read",
		"id":       strconv.FormatUint(id, 10),
	})
	return c.ajaxGet(ctx, "mark_chapter_read", endpoint, session)
}

// MarkChapterUnread marks a chapter unread for the current session.
func (c *Client) MarkChapterUnread(ctx context.Context, id uint64) error {
	session, err := c.requireSession("mark_chapter_unread")
	if err != nil {
		return err
	}
	endpoint := c.ajaxActionURL(map[string]string{
		"function": "chapter_mark_unread",
		"id":       strconv.FormatUint(id, 10),
	})
	return c.ajaxGet(ctx, "mark_chapter_unread", endpoint, session)
}

func (c *Client) ajaxActionURL(params map[string]string) string {
	u, _ := url.Parse(c.baseURL + "/ajax/actions.ajax.php")
	q := u.Query()
	for k, v := range params {
		q.Set(k, v)
	}
	u.RawQuery = q.Encode()
	return u.String()
}

func (c *Client) ajaxGet(ctx context.Context, op, endpoint string, session *Session) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return &RequestError{Op: op, Err: err}
	}
	ajaxHeaders(req, session)

	resp, err := c.http.Do(req)
	if err != nil {
		return &RequestError{Op: op, Err: err}
	}
	defer resp.Body.Close()
	return nil
}
