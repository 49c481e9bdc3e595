package anilibria

import (
	"bytes"
	"encoding/json"
	"strconv"
	"strings"

	"github.com/mmcdole/libria/internal/domain"
)

// Response envelope: {"status": true, "data": ..., "error": {...}}
type envelope struct {
	Status *bool           `json:"status"`
	Data   json.RawMessage `json:"data"`
	Error  *apiError       `json:"error,omitempty"`
}

type apiError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

// listData is the "data" of a paged list response.
type listData struct {
	Items json.RawMessage `json:"items"`
}

// Release is one item of the "list" query.
type Release struct {
	ID          int              `json:"id"`
	Code        string           `json:"code"`
	Names       []string         `json:"names"`
	Series      string           `json:"series"`
	Poster      string           `json:"poster"`
	Last        flexInt          `json:"last"`
	Status      string           `json:"status"`
	Type        string           `json:"type"`
	Year        flexInt          `json:"year"`
	Season      string           `json:"season"`
	Description string           `json:"description"`
	Announce    string           `json:"announce"`
	Genres      []string         `json:"genres"`
	Voices      []string         `json:"voices"`
	Favorite    *Favorite        `json:"favorite,omitempty"`
	Playlist    []domain.Video   `json:"playlist"`
	Torrents    []domain.Torrent `json:"torrents"`
}

// Favorite carries the community rating.
type Favorite struct {
	Rating int  `json:"rating"`
	Added  bool `json:"added"`
}

// scheduleDay is one day of the "schedule" query with filter=id.
type scheduleDay struct {
	Day  flexInt `json:"day"`
	List []struct {
		ID int `json:"id"`
	} `json:"list"`
}

// flexInt decodes numbers that the API sends either as JSON numbers or numeric strings.
type flexInt int64

func (f *flexInt) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || string(data) == "null" {
		*f = 0
		return nil
	}
	if data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		s = strings.TrimSpace(s)
		if s == "" {
			*f = 0
			return nil
		}
		n, err := strconv.ParseInt(s, 10, 64)
		if err != nil {
			return err
		}
		*f = flexInt(n)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return err
	}
	i, err := n.Int64()
	if err != nil {
		fl, ferr := n.Float64()
		if ferr != nil {
			return err
		}
		i = int64(fl)
	}
	*f = flexInt(i)
	return nil
}
