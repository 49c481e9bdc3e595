package domain

import (
	"encoding/json"
	"strconv"
	"strings"
)

// NullReleaseID marks the absence of a release. It is never stored.
const NullReleaseID = -1

// UnspecifiedList is the placeholder stored when a release has no genres or voices.
const UnspecifiedList = "Не указано"

// Release is the normalized, persisted representation of one catalog title.
type Release struct {
	ID                int    `json:"id"`
	Code              string `json:"code"`
	Title             string `json:"title"`
	OriginalName      string `json:"originalName"`
	Series            string `json:"series"`
	Poster            string `json:"poster"`
	Status            string `json:"status"`
	Type              string `json:"type"`
	Year              int    `json:"year"`
	Season            string `json:"season"`
	Description       string `json:"description"`
	Announce          string `json:"announce"`
	Rating            int    `json:"rating"`
	Genres            string `json:"genres"`  // comma-joined
	Voices            string `json:"voices"`  // comma-joined
	CountOnlineVideos int    `json:"countOnlineVideos"`
	CountTorrents     int    `json:"countTorrents"`
	Videos            string `json:"videos"`   // serialized []Video
	Torrents          string `json:"torrents"` // serialized []Torrent
	Timestamp         int64  `json:"timestamp"`
}

// NullRelease returns the sentinel used for "not found".
func NullRelease() Release {
	return Release{ID: NullReleaseID}
}

// IsNull reports whether r is the absence sentinel.
func (r Release) IsNull() bool { return r.ID == NullReleaseID }

// YearText returns the year as the filters see it.
func (r Release) YearText() string { return strconv.Itoa(r.Year) }

// GenreList splits the comma-joined genre list and trims each element.
func (r Release) GenreList() []string { return SplitList(r.Genres) }

// VoiceList splits the comma-joined voice list and trims each element.
func (r Release) VoiceList() []string { return SplitList(r.Voices) }

// VideoList decodes the serialized video list. Malformed data yields nil.
func (r Release) VideoList() []Video {
	var videos []Video
	if r.Videos == "" || json.Unmarshal([]byte(r.Videos), &videos) != nil {
		return nil
	}
	return videos
}

// TorrentList decodes the serialized torrent list. Malformed data yields nil.
func (r Release) TorrentList() []Torrent {
	var torrents []Torrent
	if r.Torrents == "" || json.Unmarshal([]byte(r.Torrents), &torrents) != nil {
		return nil
	}
	return torrents
}

// Video is one online episode of a release.
type Video struct {
	ID     int    `json:"id"`
	Title  string `json:"title"`
	SD     string `json:"sd,omitempty"`
	HD     string `json:"hd,omitempty"`
	FullHD string `json:"fullhd,omitempty"`
	SrcSD  string `json:"srcSd,omitempty"`
	SrcHD  string `json:"srcHd,omitempty"`
}

// Episode returns the online video with the given episode number.
func (r Release) Episode(n int) (Video, bool) {
	for _, v := range r.VideoList() {
		if v.ID == n {
			return v, true
		}
	}
	return Video{}, false
}

// LatestEpisode returns the online video with the highest episode number.
func (r Release) LatestEpisode() (Video, bool) {
	videos := r.VideoList()
	if len(videos) == 0 {
		return Video{}, false
	}
	latest := videos[0]
	for _, v := range videos[1:] {
		if v.ID > latest.ID {
			latest = v
		}
	}
	return latest, true
}

// Stream returns the link for quality ("fullhd", "hd" or "sd"), falling
// back to the next lower quality that exists.
func (v Video) Stream(quality string) string {
	links := []string{v.FullHD, v.HD, v.SD}
	start := 1
	switch strings.ToLower(quality) {
	case "fullhd":
		start = 0
	case "sd":
		start = 2
	}
	for _, link := range links[start:] {
		if link != "" {
			return link
		}
	}
	for _, link := range links[:start] {
		if link != "" {
			return link
		}
	}
	return ""
}

// Torrent is one downloadable torrent of a release.
type Torrent struct {
	ID        int    `json:"id"`
	Hash      string `json:"hash"`
	Leechers  int    `json:"leechers"`
	Seeders   int    `json:"seeders"`
	Completed int    `json:"completed"`
	Quality   string `json:"quality"`
	Series    string `json:"series"`
	Size      int64  `json:"size"`
	URL       string `json:"url"`
}

// JoinList joins list elements the way genres and voices are stored.
// An empty list becomes UnspecifiedList.
func JoinList(items []string) string {
	joined := strings.Join(items, ", ")
	if joined == "" {
		return UnspecifiedList
	}
	return joined
}

// SplitList splits a comma-separated list, trimming elements and dropping empty ones.
func SplitList(s string) []string {
	if s == "" {
		return nil
	}
	parts := strings.Split(s, ",")
	out := parts[:0]
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
