package entry

import "html"

// RedirectHTML synthesizes the small HTML document served as
// "external.html" for an External chapter (spec §3, §4.3, §8 scenario 4).
// Content is derived deterministically from redirectURL, which is
// HTML-escaped before insertion: the substring "url=<redirectURL>" appears
// verbatim only when the URL contains none of & < > " '.
func RedirectHTML(redirectURL string) []byte {
	escaped := html.EscapeString(redirectURL)

	doc := "<!DOCTYPE html>\n" +
		"<html><head>\n" +
		"<meta charset=\"utf-8\">\n" +
		"<meta http-equiv=\"refresh\" content=\"0; url=" + escaped + "\">\n" +
		"<title>redirecting</title>\n" +
		"</head><body>\n" +
		"<p>This chapter is hosted externally. If you are not redirected, " +
		"follow <a href=\"" + escaped + "\">this link</a>.</p>\n" +
		"</body></html>\n"

	return []byte(doc)
}
