package remote

import (
	"bytes"
	"context"
	"io"
	"mime/multipart"
	"net/http"
	"net/url"
)

const (
	defaultBaseURL = "https://mangadex.org"
	userAgent      = "mangadexfs/0.1 (+https://github.com/mangadexfs/mangadexfs)"
)

// Session is the opaque credential pair returned by a successful login
// (spec §3): a session cookie and a remember-me token. Either both are
// present or neither is; there is no partial session.
type Session struct {
	ID                string
	RememberMeToken   string
}

func sessionCookieHeaders(req *http.Request, s *Session) {
	req.Header.Set("User-Agent", userAgent)
	if s != nil {
		req.AddCookie(&http.Cookie{Name: "mangadex_session", Value: s.ID})
	}
}

func ajaxHeaders(req *http.Request, s *Session) {
	sessionCookieHeaders(req, s)
	req.Header.Set("X-Requested-With", "XMLHttpRequest")
}

func logInMultipart(username, password string) (contentType string, body []byte, err error) {
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)

	for _, field := range [][2]string{
		{"login_username", username},
		{"login_password", password},
		{"remember_me", "1"},
	} {
		if err := w.WriteField(field[0], field[1]); err != nil {
			return "", nil, err
		}
	}
	if err := w.Close(); err != nil {
		return "", nil, err
	}

	return w.FormDataContentType(), buf.Bytes(), nil
}

// logIn performs the multipart login POST and extracts the resulting
// session, mirroring the original client's cookie-or-scrape fallback
// (spec §4.1).
func (c *Client) logIn(ctx context.Context, username, password string) (*Session, error) {
	contentType, body, err := logInMultipart(username, password)
	if err != nil {
		return nil, &RequestError{Op: "log_in", Err: err}
	}

	endpoint, err := url.Parse(c.baseURL + "/ajax/actions.ajax.php?function=login")
	if err != nil {
		return nil, &RequestError{Op: "log_in", Err: err}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint.String(), bytes.NewReader(body))
	if err != nil {
		return nil, &RequestError{Op: "log_in", Err: err}
	}
	req.Header.Set("Content-Type", contentType)
	ajaxHeaders(req, nil)

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, &RequestError{Op: "log_in", Err: err}
	}
	defer resp.Body.Close()

	var sessionID, rememberToken string
	for _, ck := range resp.Cookies() {
		switch ck.Name {
		case "mangadex_session":
			sessionID = ck.Value
		case "mangadex_rememberme_token":
			rememberToken = ck.Value
		}
	}

	// Mirrors the original client's three-way match on (session,
	// remember_me_token): both present is success, exactly one present is
	// an invalid response (checked without touching the body), and only
	// neither-present falls through to scraping the rejection page.
	switch {
	case sessionID != "" && rememberToken != "":
		return &Session{ID: sessionID, RememberMeToken: rememberToken}, nil
	case sessionID != "" || rememberToken != "":
		return nil, &InvalidResponseError{}
	}

	bodyBytes, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &RequestError{Op: "log_in", Err: err}
	}

	if text, ok := firstTopLevelText(string(bodyBytes)); ok {
		return nil, &RejectedWithBodyError{Body: text}
	}
	return nil, &InvalidResponseError{}
}

func (c *Client) logOut(ctx context.Context, session *Session) error {
	endpoint := c.baseURL + "/ajax/actions.ajax.php?function=logout"

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, nil)
	if err != nil {
		return &RequestError{Op: "log_out", Err: err}
	}
	ajaxHeaders(req, session)

	resp, err := c.http.Do(req)
	if err != nil {
		return &RequestError{Op: "log_out", Err: err}
	}
	defer resp.Body.Close()
	return nil
}
