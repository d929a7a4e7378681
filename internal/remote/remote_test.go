package remote

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/mangadexfs/mangadexfs/internal/entry"
	"github.com/mangadexfs/mangadexfs/internal/wire"
)

// newTestClient points a Client at an httptest.Server instead of the real
// host, letting these tests drive the production request/parse path end to
// end rather than re-implementing it inline.
func newTestClient(srv *httptest.Server) *Client {
	c := New()
	c.http = srv.Client()
	c.baseURL = srv.URL
	return c
}

func TestGetMangaDecodesFixedSchema(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/manga/7139" {
			t.Errorf("unexpected path %q", r.URL.Path)
		}
		json.NewEncoder(w).Encode(map[string]any{
			"manga": map[string]any{
				"title":     "Beastars",
				"cover_url": "https://example/cover.jpg",
			},
			"chapter": map[string]any{
				"12345": map[string]any{
					"chapter":   "3",
					"volume":    "1",
					"title":     "Prologue",
					"lang_code": "gb",
					"timestamp": 1600000000,
				},
			},
		})
	}))
	defer srv.Close()

	c := newTestClient(srv)
	m, err := c.GetManga(context.Background(), 7139)
	if err != nil {
		t.Fatalf("GetManga: %v", err)
	}

	if m.Title != "Beastars" {
		t.Errorf("title = %q, want Beastars", m.Title)
	}
	if len(m.Chapters) != 1 || m.Chapters[0].ID != 12345 || m.Chapters[0].LangCode != "gb" {
		t.Errorf("unexpected chapters: %+v", m.Chapters)
	}
}

func TestLongStripFlagDecodesIntegerBool(t *testing.T) {
	var payload chapterPayload
	data := []byte(`{"id":1,"timestamp":1,"hash":"h","volume":"","chapter":"1","title":"",
		"lang_code":"gb","manga_id":1,"server":"https://s/","page_array":["a.png"],
		"long_strip":1,"external":""}`)

	if err := json.Unmarshal(data, &payload); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if !bool(payload.LongStrip) {
		t.Errorf("long_strip = false, want true")
	}
}

func TestGetChapterSelectsExternalVariant(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]any{
			"id": 1, "manga_id": 7139, "server": "https://s/", "hash": "h/",
			"page_array": []string{"a.png", "b.png"},
			"external":   "https://example/x",
		})
	}))
	defer srv.Close()

	c := newTestClient(srv)
	ch, err := c.GetChapter(context.Background(), 1)
	if err != nil {
		t.Fatalf("GetChapter: %v", err)
	}

	if ch.Pages.Kind != entry.PagesExternal {
		t.Errorf("kind = %v, want PagesExternal", ch.Pages.Kind)
	}
	if ch.Pages.RedirectURL != "https://example/x" {
		t.Errorf("redirect URL = %q", ch.Pages.RedirectURL)
	}
}

func TestGetChapterSelectsHostedVariant(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]any{
			"id": 1, "manga_id": 7139, "server": "https://s/", "hash": "h/",
			"page_array": []string{"a.png", "b.png"},
		})
	}))
	defer srv.Close()

	c := newTestClient(srv)
	ch, err := c.GetChapter(context.Background(), 1)
	if err != nil {
		t.Fatalf("GetChapter: %v", err)
	}

	if ch.Pages.Kind != entry.PagesHosted {
		t.Errorf("kind = %v, want PagesHosted", ch.Pages.Kind)
	}
	if ch.Pages.BaseURL != "https://s/h/" || len(ch.Pages.PageNames) != 2 {
		t.Errorf("unexpected hosted pages: %+v", ch.Pages)
	}
}

func TestGetPageDownloadsBody(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("hello"))
	}))
	defer srv.Close()

	c := newTestClient(srv)
	data, err := c.GetPage(context.Background(), srv.URL+"/h/p1.png")
	if err != nil {
		t.Fatalf("GetPage: %v", err)
	}
	if string(data) != "hello" {
		t.Errorf("data = %q, want hello", data)
	}
}

func TestGetPageHeadReadsContentLength(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodHead {
			t.Errorf("method = %q, want HEAD", r.Method)
		}
		w.Header().Set("Content-Length", "1024")
	}))
	defer srv.Close()

	c := newTestClient(srv)
	proxy, err := c.GetPageHead(context.Background(), srv.URL+"/h/p1.png")
	if err != nil {
		t.Fatalf("GetPageHead: %v", err)
	}
	if proxy.Size != 1024 {
		t.Errorf("size = %d, want 1024", proxy.Size)
	}
}

func TestRequireSessionFailsWhenLoggedOut(t *testing.T) {
	c := New()
	if err := c.MarkChapterRead(context.Background(), 1); err == nil {
		t.Fatal("expected NotLoggedInError")
	} else if _, ok := err.(*NotLoggedInError); !ok {
		t.Fatalf("got %T, want *NotLoggedInError", err)
	}
}

func TestFirstTopLevelTextExtractsDivContent(t *testing.T) {
	text, ok := firstTopLevelText(`<div>Invalid login credentials.</div>`)
	if !ok {
		t.Fatal("expected a match")
	}
	if text != "Invalid login credentials." {
		t.Errorf("text = %q", text)
	}
}

func TestLogInSucceedsWithBothCookies(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.SetCookie(w, &http.Cookie{Name: "mangadex_session", Value: "sess"})
		http.SetCookie(w, &http.Cookie{Name: "mangadex_rememberme_token", Value: "remember"})
	}))
	defer srv.Close()

	c := newTestClient(srv)
	session, err := c.LogIn(context.Background(), "user", "pass")
	if err != nil {
		t.Fatalf("LogIn: %v", err)
	}
	if session.ID != "sess" || session.RememberMeToken != "remember" {
		t.Fatalf("unexpected session: %+v", session)
	}
}

func TestLogInRejectsExactlyOneCookieWithoutScrapingBody(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.SetCookie(w, &http.Cookie{Name: "mangadex_session", Value: "sess"})
		// A body that would scrape to a RejectedWithBodyError if read; the
		// exactly-one-cookie case must not reach it (mirrors the original
		// client's three-way match on (session, remember_me_token)).
		w.Write([]byte(`<div>should not be read</div>`))
	}))
	defer srv.Close()

	c := newTestClient(srv)
	_, err := c.LogIn(context.Background(), "user", "pass")
	if _, ok := err.(*InvalidResponseError); !ok {
		t.Fatalf("got %T (%v), want *InvalidResponseError", err, err)
	}
}

func TestLogInScrapesRejectionBodyWhenNeitherCookieSet(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`<div>Invalid login credentials.</div>`))
	}))
	defer srv.Close()

	c := newTestClient(srv)
	_, err := c.LogIn(context.Background(), "user", "pass")
	rejected, ok := err.(*RejectedWithBodyError)
	if !ok {
		t.Fatalf("got %T (%v), want *RejectedWithBodyError", err, err)
	}
	if rejected.Body != "Invalid login credentials." {
		t.Errorf("body = %q", rejected.Body)
	}
}

func TestSearchParsesMangaEntries(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/search/" {
			t.Errorf("unexpected path %q", r.URL.Path)
		}
		fmt.Fprint(w, `<div class="manga-entry" data-id="7139"><a class="manga_title" title="Beastars">Beastars</a></div>`)
	}))
	defer srv.Close()

	c := newTestClient(srv)
	logInWithSession(c)

	results, err := c.Search(context.Background(), wire.SearchParams{Title: "Beastars"})
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if len(results) != 1 || results[0].ID != 7139 || results[0].Title != "Beastars" {
		t.Fatalf("unexpected results: %+v", results)
	}
}

func TestMDListParsesEntries(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `<div id="content"><div class="manga-entry" data-id="7139">`+
			`<a title="Beastars">Beastars</a><button title="Reading">Reading</button></div></div>`)
	}))
	defer srv.Close()

	c := newTestClient(srv)
	logInWithSession(c)

	results, err := c.MDList(context.Background(), wire.MDListParams{})
	if err != nil {
		t.Fatalf("MDList: %v", err)
	}
	if len(results) != 1 || results[0].ID != 7139 || results[0].Status != wire.MDListReading {
		t.Fatalf("unexpected results: %+v", results)
	}
}

func TestFollowsParsesChapterRows(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `<div id="chapters">`+
			`<div class="chapter-container">`+
			`<div class="row"><a class="manga_title" title="Beastars">Beastars</a></div>`+
			`<div class="row"><div class="chapter-row" data-manga-id="7139" data-id="12345" `+
			`data-title="Prologue" data-chapter="3" data-volume="1">`+
			`<span title="Mark unread"></span></div></div>`+
			`</div></div>`)
	}))
	defer srv.Close()

	c := newTestClient(srv)
	logInWithSession(c)

	results, err := c.Follows(context.Background())
	if err != nil {
		t.Fatalf("Follows: %v", err)
	}
	if len(results) != 1 || results[0].MangaID != 7139 || results[0].ChapterID != 12345 {
		t.Fatalf("unexpected results: %+v", results)
	}
	if !results[0].MarkedRead {
		t.Error("expected MarkedRead true for a \"Mark unread\" title")
	}
}

func TestFollowUnfollowAndMarkChapterRoundTrip(t *testing.T) {
	var gotFunctions []string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotFunctions = append(gotFunctions, r.URL.Query().Get("function"))
	}))
	defer srv.Close()

	c := newTestClient(srv)
	logInWithSession(c)

	if err := c.Follow(context.Background(), 1, 1); err != nil {
		t.Fatalf("Follow: %v", err)
	}
	if err := c.Unfollow(context.Background(), 1); err != nil {
		t.Fatalf("Unfollow: %v", err)
	}
	if err := c.MarkChapterRead(context.Background(), 1); err != nil {
		t.Fatalf("MarkChapterRead: %v", err)
	}
	if err := c.MarkChapterUnread(context.Background(), 1); err != nil {
		t.Fatalf("MarkChapterUnread: %v", err)
	}

	want := []string{"manga_follow", "manga_follow", "chapter_mark_read", "chapter_mark_unread"}
	if len(gotFunctions) != len(want) {
		t.Fatalf("got %v, want %v", gotFunctions, want)
	}
	for i := range want {
		if gotFunctions[i] != want[i] {
			t.Errorf("call %d: function = %q, want %q", i, gotFunctions[i], want[i])
		}
	}
}

func TestLogOutClearsSession(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	defer srv.Close()

	c := newTestClient(srv)
	logInWithSession(c)

	if err := c.LogOut(context.Background()); err != nil {
		t.Fatalf("LogOut: %v", err)
	}
	if err := c.MarkChapterRead(context.Background(), 1); err == nil {
		t.Fatal("expected NotLoggedInError after LogOut")
	}
}

// logInWithSession installs a session directly rather than round-tripping a
// real login, for tests whose fixture server only needs to exercise the
// authenticated request path.
func logInWithSession(c *Client) {
	c.session = &Session{ID: "test-session", RememberMeToken: "test-remember"}
}
