package api

import "regexp"

// Media kinds returned by CheckURL, in regex priority order.
const (
	MediaAlbum = iota
	MediaVideo
	MediaPlaylist
	MediaArtist
	MediaUnknown = -1
)

// regexStrings are patterns for recognizing IDAGIO catalog URLs. The album
// and live-event patterns are checked first; the first captured slug wins.
var regexStrings = []string{
	`^https://app.idagio.com/albums/([a-zA-Z\d-]+)$`,
	`^https://app.idagio.com/live/event/([a-zA-Z\d-]+)$`,
	`^https://app.idagio.com/playlists/([a-zA-Z\d-]+)$`,
	`^https://app.idagio.com/(?:artists|profiles)/([a-zA-Z\d-]+)$`,
}

// compiledRegexes are pre-compiled versions of regexStrings.
var compiledRegexes []*regexp.Regexp

func init() {
	compiledRegexes = make([]*regexp.Regexp, len(regexStrings))
	for i, s := range regexStrings {
		compiledRegexes[i] = regexp.MustCompile(s)
	}
}

// CheckURL matches a URL against known IDAGIO patterns.
// Returns the extracted slug and the media kind.
// Returns ("", MediaUnknown) if no pattern matches the URL.
func CheckURL(_url string) (string, int) {
	for i, re := range compiledRegexes {
		match := re.FindStringSubmatch(_url)
		if match != nil {
			return match[1], i
		}
	}
	return "", MediaUnknown
}
