package remote

import "encoding/json"

// chapterPayload is the fixed JSON schema of GET /api/chapter/{id} (spec
// §4.1). long_strip arrives as a JSON 1/0 integer rather than a bool; we
// decode it through longStripFlag the way the original's custom
// deserialize_long_strip_flag visitor does.
type chapterPayload struct {
	ID        uint64        `json:"id"`
	Timestamp uint64        `json:"timestamp"`
	Hash      string        `json:"hash"`
	Volume    string        `json:"volume"`
	Chapter   string        `json:"chapter"`
	Title     string        `json:"title"`
	LangCode  string        `json:"lang_code"`
	MangaID   uint64        `json:"manga_id"`
	Server    string        `json:"server"`
	PageArray []string      `json:"page_array"`
	LongStrip longStripFlag `json:"long_strip"`
	External  string        `json:"external"`
}

type longStripFlag bool

func (f *longStripFlag) UnmarshalJSON(data []byte) error {
	var n int
	if err := json.Unmarshal(data, &n); err != nil {
		return err
	}
	*f = n == 1
	return nil
}
