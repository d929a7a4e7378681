package remote

// ChapterField is the per-chapter metadata nested inside a manga payload's
// chapter map (spec §4.1: "map from chapter_id to {volume, chapter, title,
// lang_code, timestamp}").
type ChapterField struct {
	Chapter   string `json:"chapter"`
	Volume    string `json:"volume"`
	Title     string `json:"title"`
	LangCode  string `json:"lang_code"`
	Timestamp uint32 `json:"timestamp"`
}

type mangaDetails struct {
	Title    string `json:"title"`
	CoverURL string `json:"cover_url"`
}

// mangaPayload is the fixed JSON schema of GET /api/manga/{id}. encoding/json
// decodes an object with numeric-string keys directly into a map keyed by an
// integer type, so the chapter map need not be re-parsed by hand.
type mangaPayload struct {
	Manga   mangaDetails            `json:"manga"`
	Chapter map[uint64]ChapterField `json:"chapter"`
}
