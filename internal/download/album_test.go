package download

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"

	"idagio-dl/internal/model"
)

func TestParseAlbumMeta(t *testing.T) {
	meta := &model.AlbumMeta{
		Copyright:     "(C) 2020 Label",
		CopyrightYear: 2020,
		Participants:  []model.Participant{{Name: "Martha Argerich"}, {Name: "Claudio Abbado"}},
		Title:         "Debut Recital",
		Tracks:        make([]model.Track, 3),
		UPC:           "0123456789012",
	}
	parsed := ParseAlbumMeta(meta)
	if parsed.AlbumArtist != "Martha Argerich" {
		t.Errorf("AlbumArtist = %q", parsed.AlbumArtist)
	}
	if parsed.TrackTotal != 3 || parsed.Year != 2020 || parsed.UPC != "0123456789012" {
		t.Errorf("parsed = %+v", parsed)
	}
}

func TestParseAlbumMetaNoParticipants(t *testing.T) {
	parsed := ParseAlbumMeta(&model.AlbumMeta{Title: "Anon"})
	if parsed.AlbumArtist != "" {
		t.Errorf("AlbumArtist = %q, want empty", parsed.AlbumArtist)
	}
}

func trackWith(workTitle, pieceTitle string, authors ...string) model.Track {
	var track model.Track
	track.Position = 4
	track.Piece.Title = pieceTitle
	track.Piece.Workpart.Work.Title = workTitle
	for _, name := range authors {
		track.Piece.Workpart.Work.Authors = append(track.Piece.Workpart.Work.Authors,
			model.Author{Persons: []model.Person{{Name: name}}})
	}
	return track
}

func TestSetTrackMeta(t *testing.T) {
	tests := []struct {
		name       string
		track      model.Track
		wantTitle  string
		wantArtist string
	}{
		{
			name:       "distinct piece title appended",
			track:      trackWith("Cello Suite No. 1", "Prelude", "Bach"),
			wantTitle:  "Cello Suite No. 1 - Prelude",
			wantArtist: "Bach",
		},
		{
			name:       "identical piece title not repeated",
			track:      trackWith("Boléro", "Boléro", "Ravel"),
			wantTitle:  "Boléro",
			wantArtist: "Ravel",
		},
		{
			name:       "empty piece title",
			track:      trackWith("Symphony No. 5", "", "Beethoven"),
			wantTitle:  "Symphony No. 5",
			wantArtist: "Beethoven",
		},
		{
			name:       "multiple authors joined",
			track:      trackWith("Duet", "Andante", "Brahms", "Clara Schumann"),
			wantTitle:  "Duet - Andante",
			wantArtist: "Brahms, Clara Schumann",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			meta := &model.ParsedAlbumMeta{}
			SetTrackMeta(meta, &tt.track, 2)
			if meta.Title != tt.wantTitle {
				t.Errorf("Title = %q, want %q", meta.Title, tt.wantTitle)
			}
			if meta.Artist != tt.wantArtist {
				t.Errorf("Artist = %q, want %q", meta.Artist, tt.wantArtist)
			}
			if meta.TrackNum != 2 {
				t.Errorf("TrackNum = %d, want 2", meta.TrackNum)
			}
		})
	}
}

// Positions identify tracks and define order but are not contiguous; the
// ordinal after sorting drives filenames and tags.
func TestTrackNumbersAreOrdinalAfterSort(t *testing.T) {
	var hits atomic.Int64
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
	}))
	defer srv.Close()

	tracks := []model.Track{trackWith("Sonata", "Adagio", "Haydn"), trackWith("Sonata", "Rondo", "Haydn")}
	tracks[0].ID = "101"
	tracks[0].Position = 4
	tracks[1].ID = "102"
	tracks[1].Position = 5

	// Files named by ordinal already exist, so a correctly numbered pass
	// skips both tracks without touching the network.
	albumPath := t.TempDir()
	for _, name := range []string{"01. Sonata - Adagio.flac", "02. Sonata - Rondo.flac"} {
		if err := os.WriteFile(filepath.Join(albumPath, name), []byte("x"), 0644); err != nil {
			t.Fatal(err)
		}
	}

	streams := []model.StreamMeta{
		{ID: "101", URL: srv.URL + "/aes-128-ctr/flac-/101"},
		{ID: "102", URL: srv.URL + "/aes-128-ctr/flac-/102"},
	}
	parsed := &model.ParsedAlbumMeta{TrackTotal: 2}
	if err := downloadTracks(context.Background(), albumPath, parsed, tracks, streams); err != nil {
		t.Fatal(err)
	}
	if hits.Load() != 0 {
		t.Fatalf("ordinally numbered tracks triggered %d network requests", hits.Load())
	}
	if parsed.TrackNum != 2 {
		t.Fatalf("last TrackNum = %d, want 2", parsed.TrackNum)
	}
}
