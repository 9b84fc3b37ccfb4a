package download

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"idagio-dl/internal/api"
	"idagio-dl/internal/helpers"
	"idagio-dl/internal/model"
	"idagio-dl/internal/ui"
)

// ParseAlbumMeta flattens album-level metadata into the tag-ready record.
// Track-level fields are filled later, per track, by SetTrackMeta.
func ParseAlbumMeta(meta *model.AlbumMeta) *model.ParsedAlbumMeta {
	parsed := &model.ParsedAlbumMeta{
		AlbumTitle: meta.Title,
		Copyright:  meta.Copyright,
		TrackTotal: len(meta.Tracks),
		UPC:        meta.UPC,
		Year:       meta.CopyrightYear,
	}
	if len(meta.Participants) > 0 {
		parsed.AlbumArtist = meta.Participants[0].Name
	}
	return parsed
}

// parseTrackArtists joins every credited person of every author into a single
// display string.
func parseTrackArtists(track *model.Track) string {
	var names []string
	for _, author := range track.Piece.Workpart.Work.Authors {
		for _, person := range author.Persons {
			names = append(names, person.Name)
		}
	}
	return strings.Join(names, ", ")
}

// SetTrackMeta fills the track-level fields of meta from one track payload.
// The title is the work title, extended with the piece title when the piece
// names a distinct movement. trackNum is the 1-based ordinal after the
// position sort; raw positions are unique but not contiguous, so they never
// reach filenames or tags directly.
func SetTrackMeta(meta *model.ParsedAlbumMeta, track *model.Track, trackNum int) {
	title := track.Piece.Workpart.Work.Title
	if track.Piece.Title != "" && track.Piece.Title != title {
		title += " - " + track.Piece.Title
	}
	meta.Title = title
	meta.Artist = parseTrackArtists(track)
	meta.TrackNum = trackNum
}

// getCoverData fetches the album cover image bytes.
func getCoverData(ctx context.Context, imageURL string) ([]byte, error) {
	resp, err := api.GetFileResp(ctx, imageURL, false)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	return io.ReadAll(resp.Body)
}

// WriteCover writes the cover bytes as folder.jpg inside the album folder.
func WriteCover(albumPath string, coverData []byte) error {
	return os.WriteFile(filepath.Join(albumPath, "folder.jpg"), coverData, 0644)
}

// Album downloads one album: metadata, stream resolution, cover handling and
// every track in position order. A failed track aborts the album; a track the
// stream endpoint returned no rendition for is reported and skipped.
func Album(ctx context.Context, s *api.Session, slug string, cfg *model.Config) error {
	meta, err := api.GetAlbumMeta(ctx, s, slug)
	if err != nil {
		return err
	}
	sort.SliceStable(meta.Tracks, func(i, j int) bool {
		return meta.Tracks[i].Position < meta.Tracks[j].Position
	})
	parsed := ParseAlbumMeta(meta)

	albumFolder := parsed.AlbumTitle
	if parsed.AlbumArtist != "" {
		albumFolder = parsed.AlbumArtist + " - " + parsed.AlbumTitle
	}
	fmt.Println(albumFolder)
	albumPath := filepath.Join(cfg.OutPath, helpers.Sanitise(albumFolder))
	if err := helpers.MakeDirs(albumPath); err != nil {
		return err
	}

	ids := make([]string, 0, len(meta.TrackIDs))
	for _, id := range meta.TrackIDs {
		ids = append(ids, id.String())
	}
	streams, err := api.GetStreamMeta(ctx, s, ids, cfg.FormatCode)
	if err != nil {
		return err
	}

	if cfg.KeepCovers || cfg.WriteCovers {
		coverData, err := getCoverData(ctx, meta.ImageURL)
		if err != nil {
			return err
		}
		if cfg.KeepCovers {
			if err := WriteCover(albumPath, coverData); err != nil {
				return err
			}
		}
		if cfg.WriteCovers {
			parsed.CoverData = coverData
		}
	}

	return downloadTracks(ctx, albumPath, parsed, meta.Tracks, streams)
}

// Playlist downloads one playlist as a virtual album credited to its curator.
// Playlists carry no cover, label copyright or release year.
func Playlist(ctx context.Context, s *api.Session, slug string, cfg *model.Config) error {
	meta, err := api.GetPlaylistMeta(ctx, s, slug)
	if err != nil {
		return err
	}
	sort.SliceStable(meta.Tracks, func(i, j int) bool {
		return meta.Tracks[i].Position < meta.Tracks[j].Position
	})
	parsed := &model.ParsedAlbumMeta{
		AlbumTitle:  meta.Title,
		AlbumArtist: meta.Curator.Name,
		TrackTotal:  len(meta.Tracks),
	}

	albumFolder := parsed.AlbumTitle
	if parsed.AlbumArtist != "" {
		albumFolder = parsed.AlbumArtist + " - " + parsed.AlbumTitle
	}
	fmt.Println(albumFolder)
	albumPath := filepath.Join(cfg.OutPath, helpers.Sanitise(albumFolder))
	if err := helpers.MakeDirs(albumPath); err != nil {
		return err
	}

	ids := make([]string, 0, len(meta.TrackIDs))
	for _, id := range meta.TrackIDs {
		ids = append(ids, id.String())
	}
	streams, err := api.GetStreamMeta(ctx, s, ids, cfg.FormatCode)
	if err != nil {
		return err
	}

	return downloadTracks(ctx, albumPath, parsed, meta.Tracks, streams)
}

// downloadTracks walks the ordered track list, pairs each track with its
// resolved stream and runs the per-track pipeline.
func downloadTracks(ctx context.Context, albumPath string, parsed *model.ParsedAlbumMeta, tracks []model.Track, streams []model.StreamMeta) error {
	byID := make(map[string]string, len(streams))
	for _, stream := range streams {
		byID[stream.ID.String()] = stream.URL
	}
	for i := range tracks {
		track := &tracks[i]
		streamURL, ok := byID[track.ID.String()]
		if !ok {
			ui.PrintWarning("The API didn't return any stream metadata for this track.")
			continue
		}
		SetTrackMeta(parsed, track, i+1)
		if err := ProcessTrack(ctx, albumPath, parsed, streamURL); err != nil {
			return err
		}
	}
	return nil
}
