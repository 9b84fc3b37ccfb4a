package api

import (
	"strings"

	"idagio-dl/internal/model"
)

// qualityPattern pairs a stream-URL substring with its quality profile.
type qualityPattern struct {
	Pattern string
	Quality model.Quality
}

// qualityPatterns is checked in declared order; more specific patterns first
// where keys overlap. The table is the only place rendition families are defined.
var qualityPatterns = []qualityPattern{
	{"aes-128-ctr/aac-160-", model.Quality{Specs: "160 Kbps AAC", Extension: ".m4a", Format: model.TagFormatMP4}},
	{"aes-128-ctr/aac-192-", model.Quality{Specs: "192 Kbps AAC", Extension: ".m4a", Format: model.TagFormatMP4}},
	{"aes-128-ctr/aac-320-", model.Quality{Specs: "320 Kbps AAC", Extension: ".m4a", Format: model.TagFormatMP4}},
	{"aes-128-ctr/flac-", model.Quality{Specs: "16-bit / 44.1 kHz FLAC", Extension: ".flac", Format: model.TagFormatVorbis}},
	{"aes-128-ctr/mp3-320-", model.Quality{Specs: "320 Kbps MP3", Extension: ".mp3", Format: model.TagFormatID3}},
}

// QueryQuality matches a returned stream URL against the profile table.
// Returns nil when the URL belongs to no known rendition family; callers must
// treat that as an upstream contract violation, not a recoverable condition.
func QueryQuality(streamURL string) *model.Quality {
	for _, qp := range qualityPatterns {
		if strings.Contains(streamURL, qp.Pattern) {
			q := qp.Quality
			return &q
		}
	}
	return nil
}
