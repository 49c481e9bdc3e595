package anilibria

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"

	"github.com/mmcdole/libria/internal/domain"
)

// DecodeReleases parses a "list" payload: a JSON array of releases, or an
// envelope wrapping one.
func DecodeReleases(payload string) ([]Release, error) {
	raw, err := unwrap([]byte(payload))
	if err != nil {
		return nil, &domain.PayloadError{Source: "releases payload", Err: err}
	}
	var releases []Release
	if err := json.Unmarshal(raw, &releases); err != nil {
		return nil, &domain.PayloadError{Source: "releases payload", Err: err}
	}
	return releases, nil
}

// ToRelease normalizes an API release into the cached representation.
func ToRelease(r Release) domain.Release {
	var title, original string
	if len(r.Names) > 0 {
		title = r.Names[0]
		original = r.Names[len(r.Names)-1]
	}

	rating := 0
	if r.Favorite != nil {
		rating = r.Favorite.Rating
	}

	return domain.Release{
		ID:                r.ID,
		Code:              r.Code,
		Title:             title,
		OriginalName:      original,
		Series:            r.Series,
		Poster:            r.Poster,
		Status:            r.Status,
		Type:              r.Type,
		Year:              int(r.Year),
		Season:            r.Season,
		Description:       r.Description,
		Announce:          r.Announce,
		Rating:            rating,
		Genres:            domain.JoinList(r.Genres),
		Voices:            domain.JoinList(r.Voices),
		CountOnlineVideos: len(r.Playlist),
		CountTorrents:     len(r.Torrents),
		Videos:            mustJSONArray(r.Playlist),
		Torrents:          mustJSONArray(r.Torrents),
		Timestamp:         int64(r.Last),
	}
}

// ParseSchedule converts a "schedule" response into the cached
// {"<release id>": <weekday>} object.
func ParseSchedule(payload string) (string, error) {
	raw, err := unwrap([]byte(payload))
	if err != nil {
		return "", &domain.PayloadError{Source: "schedule payload", Err: err}
	}
	var days []scheduleDay
	if err := json.Unmarshal(raw, &days); err != nil {
		return "", &domain.PayloadError{Source: "schedule payload", Err: err}
	}

	schedule := make(map[string]int)
	for _, day := range days {
		for _, item := range day.List {
			schedule[strconv.Itoa(item.ID)] = int(day.Day)
		}
	}
	data, err := json.Marshal(schedule)
	if err != nil {
		return "", err
	}
	return string(data), nil
}

// unwrap strips the {"status":..,"data":..} envelope when present.
func unwrap(data []byte) (json.RawMessage, error) {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || data[0] != '{' {
		return data, nil
	}

	var env envelope
	if err := json.Unmarshal(data, &env); err != nil {
		return nil, err
	}
	if env.Status == nil {
		return data, nil
	}
	if !*env.Status {
		if env.Error != nil {
			return nil, fmt.Errorf("api error %d: %s", env.Error.Code, env.Error.Message)
		}
		return nil, fmt.Errorf("api returned status false")
	}

	inner := bytes.TrimSpace(env.Data)
	if len(inner) > 0 && inner[0] == '{' {
		var list listData
		if err := json.Unmarshal(inner, &list); err == nil && len(list.Items) > 0 {
			return list.Items, nil
		}
	}
	return inner, nil
}

func mustJSONArray[T any](items []T) string {
	if items == nil {
		items = []T{}
	}
	data, err := json.Marshal(items)
	if err != nil {
		return "[]"
	}
	return string(data)
}
