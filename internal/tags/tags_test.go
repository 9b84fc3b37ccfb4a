package tags

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/bogem/id3v2"

	"idagio-dl/internal/model"
)

func TestBuildMP4Tags(t *testing.T) {
	meta := &model.ParsedAlbumMeta{
		AlbumTitle:  "Debut Recital",
		AlbumArtist: "Martha Argerich",
		Artist:      "Chopin",
		Title:       "Scherzo No. 3",
		TrackNum:    5,
		TrackTotal:  12,
		Year:        1961,
	}
	got := buildMP4Tags(meta)
	if got.Album != "Debut Recital" || got.Artist != "Chopin" || got.Title != "Scherzo No. 3" {
		t.Fatalf("tags = %+v", got)
	}
	if got.TrackNumber != 5 || got.TrackTotal != 12 || got.Year != 1961 {
		t.Fatalf("numeric tags = %+v", got)
	}
	if got.Pictures != nil {
		t.Fatal("expected no pictures without cover data")
	}
}

func TestBuildMP4TagsZeroSuppression(t *testing.T) {
	got := buildMP4Tags(&model.ParsedAlbumMeta{Title: "Untitled"})
	if got.TrackNumber != 0 || got.TrackTotal != 0 || got.Year != 0 {
		t.Fatalf("zero fields were set: %+v", got)
	}
}

func TestBuildVorbisComment(t *testing.T) {
	meta := &model.ParsedAlbumMeta{
		AlbumTitle:  "Playlist Picks",
		AlbumArtist: "IDAGIO",
		Artist:      "Bach",
		Title:       "Prelude",
		TrackNum:    1,
		TrackTotal:  9,
	}
	cmt, err := buildVorbisComment(meta)
	if err != nil {
		t.Fatal(err)
	}

	want := map[string]string{
		"ALBUM":       "Playlist Picks",
		"ALBUMARTIST": "IDAGIO",
		"ARTIST":      "Bach",
		"TITLE":       "Prelude",
		"TRACKNUMBER": "1",
		"TRACKTOTAL":  "9",
	}
	for key, val := range want {
		found, err := cmt.Get(key)
		if err != nil {
			t.Fatal(err)
		}
		if len(found) != 1 || found[0] != val {
			t.Errorf("%s = %v, want %q", key, found, val)
		}
	}

	// Playlists carry no copyright, UPC or year; none of those may be written.
	for _, key := range []string{"COPYRIGHT", "UPC", "YEAR"} {
		found, err := cmt.Get(key)
		if err != nil {
			t.Fatal(err)
		}
		if len(found) != 0 {
			t.Errorf("%s = %v, want absent", key, found)
		}
	}
}

// emptyID3File writes a file with a frameless ID3v2.4 header followed by
// dummy audio bytes.
func emptyID3File(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "01. Track.mp3")
	header := []byte{'I', 'D', '3', 4, 0, 0, 0, 0, 0, 0}
	data := append(header, []byte("dummy audio payload")...)
	if err := os.WriteFile(path, data, 0644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestWriteID3(t *testing.T) {
	path := emptyID3File(t)
	meta := &model.ParsedAlbumMeta{
		AlbumTitle:  "Debut Recital",
		AlbumArtist: "Martha Argerich",
		Artist:      "Chopin",
		Copyright:   "(C) 1961 Label",
		Title:       "Scherzo No. 3",
		TrackNum:    5,
		TrackTotal:  12,
		Year:        1961,
	}
	if err := Write(path, model.TagFormatID3, meta); err != nil {
		t.Fatal(err)
	}

	tag, err := id3v2.Open(path, id3v2.Options{Parse: true})
	if err != nil {
		t.Fatal(err)
	}
	defer tag.Close()
	if got := tag.Album(); got != "Debut Recital" {
		t.Errorf("album = %q", got)
	}
	if got := tag.Title(); got != "Scherzo No. 3" {
		t.Errorf("title = %q", got)
	}
	if got := tag.GetTextFrame("TPE2").Text; got != "Martha Argerich" {
		t.Errorf("TPE2 = %q", got)
	}
	if got := tag.GetTextFrame("TRCK").Text; got != "5/12" {
		t.Errorf("TRCK = %q", got)
	}
	if got := tag.GetTextFrame("TYER").Text; got != "1961" {
		t.Errorf("TYER = %q", got)
	}
}

func TestWriteID3ZeroSuppression(t *testing.T) {
	path := emptyID3File(t)
	meta := &model.ParsedAlbumMeta{Title: "Untitled"}
	if err := Write(path, model.TagFormatID3, meta); err != nil {
		t.Fatal(err)
	}

	tag, err := id3v2.Open(path, id3v2.Options{Parse: true})
	if err != nil {
		t.Fatal(err)
	}
	defer tag.Close()
	for _, id := range []string{"TALB", "TPE1", "TPE2", "TCOP", "TRCK", "TYER"} {
		if got := tag.GetTextFrame(id).Text; got != "" {
			t.Errorf("%s = %q, want absent", id, got)
		}
	}
	if got := tag.Title(); got != "Untitled" {
		t.Errorf("title = %q", got)
	}
}

func TestWriteUnknownFormat(t *testing.T) {
	err := Write("ignored", 99, &model.ParsedAlbumMeta{})
	if err == nil || !strings.Contains(err.Error(), "unknown tag format") {
		t.Fatalf("err = %v", err)
	}
}
