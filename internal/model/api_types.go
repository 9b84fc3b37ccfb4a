package model

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// FlexID normalizes track identifiers that the API serves as either a JSON
// number or a JSON string, depending on the endpoint.
type FlexID string

// UnmarshalJSON accepts both representations and stores the canonical string form.
func (f *FlexID) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*f = FlexID(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return fmt.Errorf("track id is neither string nor number: %w", err)
	}
	*f = FlexID(n.String())
	return nil
}

func (f FlexID) String() string {
	return string(f)
}

// AuthResp is the OAuth password-grant response.
type AuthResp struct {
	AccessToken string `json:"access_token"`
	User        struct {
		Features struct {
			Gch struct {
				AllowConcertPlayback bool `json:"allow_concert_playback"`
			} `json:"gch"`
		} `json:"features"`
		Premium         bool    `json:"premium"`
		PlanDisplayName *string `json:"plan_display_name"`
	} `json:"user"`
}

// Person is one named individual in a work's author chain.
type Person struct {
	Name string `json:"name"`
}

// Author groups the persons credited for a work.
type Author struct {
	Persons []Person `json:"persons"`
}

// Work carries the composition title and its authors.
type Work struct {
	Title   string   `json:"title"`
	Authors []Author `json:"authors"`
}

// Workpart wraps the work a piece belongs to.
type Workpart struct {
	Work Work `json:"work"`
}

// Piece is the recorded movement or section a track represents.
type Piece struct {
	Title    string   `json:"title"`
	Workpart Workpart `json:"workpart"`
}

// Track is one track within an album or playlist payload.
type Track struct {
	ID       FlexID `json:"id"`
	Piece    Piece  `json:"piece"`
	Position int    `json:"position"`
}

// Participant is an album-level credited artist.
type Participant struct {
	Name string `json:"name"`
}

// AlbumMeta is the result payload of the album endpoint.
type AlbumMeta struct {
	BookletURL    *string       `json:"bookletUrl"`
	Copyright     string        `json:"copyright"`
	CopyrightYear int           `json:"copyrightYear"`
	ImageURL      string        `json:"imageUrl"`
	Participants  []Participant `json:"participants"`
	Title         string        `json:"title"`
	TrackIDs      []FlexID      `json:"trackIds"`
	Tracks        []Track       `json:"tracks"`
	UPC           string        `json:"upc"`
}

// AlbumResp wraps AlbumMeta the way the API does.
type AlbumResp struct {
	Result AlbumMeta `json:"result"`
}

// Curator is the playlist owner shown in place of album participants.
type Curator struct {
	Name string `json:"name"`
}

// PlaylistMeta is the result payload of the playlist endpoint.
type PlaylistMeta struct {
	Title    string   `json:"title"`
	Curator  Curator  `json:"curator"`
	TrackIDs []FlexID `json:"trackIds"`
	Tracks   []Track  `json:"tracks"`
}

// PlaylistResp wraps PlaylistMeta.
type PlaylistResp struct {
	Result PlaylistMeta `json:"result"`
}

// ArtistResp wraps the artist lookup used to resolve a slug to a numeric id.
type ArtistResp struct {
	Result struct {
		ID int64 `json:"id"`
	} `json:"result"`
}

// Cursor is the opaque continuation token pair of paginated listings.
type Cursor struct {
	Prev *string `json:"prev"`
	Next *string `json:"next"`
}

// ArtistAlbumsResp is one page of the filtered album listing.
type ArtistAlbumsResp struct {
	Meta struct {
		Cursor Cursor `json:"cursor"`
	} `json:"meta"`
	Results []struct {
		Slug string `json:"slug"`
	} `json:"results"`
}

// StreamMeta is one resolved rendition from the bulk stream endpoint.
type StreamMeta struct {
	ID  FlexID `json:"id"`
	URL string `json:"url"`
}

// StreamResp wraps the bulk stream results.
type StreamResp struct {
	Results []StreamMeta `json:"results"`
}

// VideoMeta is the result payload of the live-event endpoint.
type VideoMeta struct {
	Video struct {
		Name    string `json:"name"`
		Source  string `json:"source"`
		VideoID string `json:"videoId"`
	} `json:"video"`
}

// VideoResp wraps VideoMeta.
type VideoResp struct {
	Result VideoMeta `json:"result"`
}

// VideoRendition is one video variant in a master document.
type VideoRendition struct {
	AvgBitrate int     `json:"avg_bitrate"`
	BaseURL    string  `json:"base_url"`
	Framerate  float64 `json:"framerate"`
	ID         string  `json:"id"`
	Height     int     `json:"height"`
	Width      int     `json:"width"`
}

// AudioRendition is one audio variant in a master document.
type AudioRendition struct {
	AvgBitrate int    `json:"avg_bitrate"`
	BaseURL    string `json:"base_url"`
	Codecs     string `json:"codecs"`
	ID         string `json:"id"`
}

// VideoMaster is the rendition master document for one concert.
type VideoMaster struct {
	Audio []AudioRendition `json:"audio"`
	Video []VideoRendition `json:"video"`
}
