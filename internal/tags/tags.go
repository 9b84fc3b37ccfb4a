// Package tags embeds metadata into downloaded tracks. The tag family is
// chosen by the quality profile, never inferred from the file contents.
package tags

import (
	"fmt"
	"strconv"

	"github.com/bogem/id3v2"
	"github.com/go-flac/flacpicture"
	"github.com/go-flac/flacvorbis"
	"github.com/go-flac/go-flac"
	mp4tag "github.com/zhaarey/go-mp4tag"

	"idagio-dl/internal/model"
)

// Write embeds meta into the file at path using the tag family selected by
// format. Zero-valued fields are left out entirely.
func Write(path string, format int, meta *model.ParsedAlbumMeta) error {
	switch format {
	case model.TagFormatID3:
		return writeID3(path, meta)
	case model.TagFormatMP4:
		return writeMP4(path, meta)
	case model.TagFormatVorbis:
		return writeVorbis(path, meta)
	default:
		return fmt.Errorf("unknown tag format: %d", format)
	}
}

func writeID3(path string, meta *model.ParsedAlbumMeta) error {
	tag, err := id3v2.Open(path, id3v2.Options{Parse: true})
	if err != nil {
		return err
	}
	defer tag.Close()

	if meta.AlbumTitle != "" {
		tag.SetAlbum(meta.AlbumTitle)
	}
	if meta.AlbumArtist != "" {
		tag.AddTextFrame("TPE2", id3v2.EncodingUTF8, meta.AlbumArtist)
	}
	if meta.Artist != "" {
		tag.SetArtist(meta.Artist)
	}
	if meta.Copyright != "" {
		tag.AddTextFrame("TCOP", id3v2.EncodingUTF8, meta.Copyright)
	}
	if meta.Title != "" {
		tag.SetTitle(meta.Title)
	}
	if meta.TrackNum > 0 {
		trck := strconv.Itoa(meta.TrackNum)
		if meta.TrackTotal > 0 {
			trck += "/" + strconv.Itoa(meta.TrackTotal)
		}
		tag.AddTextFrame("TRCK", id3v2.EncodingUTF8, trck)
	}
	if meta.Year > 0 {
		tag.AddTextFrame("TYER", id3v2.EncodingUTF8, strconv.Itoa(meta.Year))
	}
	if len(meta.CoverData) > 0 {
		tag.AddAttachedPicture(id3v2.PictureFrame{
			Encoding:    id3v2.EncodingUTF8,
			MimeType:    "image/jpeg",
			PictureType: id3v2.PTFrontCover,
			Picture:     meta.CoverData,
		})
	}
	return tag.Save()
}

// buildMP4Tags maps the flattened record to MP4 atoms. Split out so the
// zero-suppression rules can be tested without a media file.
func buildMP4Tags(meta *model.ParsedAlbumMeta) *mp4tag.MP4Tags {
	t := &mp4tag.MP4Tags{
		Album:       meta.AlbumTitle,
		AlbumArtist: meta.AlbumArtist,
		Artist:      meta.Artist,
		Copyright:   meta.Copyright,
		Title:       meta.Title,
	}
	if meta.TrackNum > 0 {
		t.TrackNumber = int16(meta.TrackNum)
	}
	if meta.TrackTotal > 0 {
		t.TrackTotal = int16(meta.TrackTotal)
	}
	if meta.Year > 0 {
		t.Year = int32(meta.Year)
	}
	if len(meta.CoverData) > 0 {
		t.Pictures = []*mp4tag.MP4Picture{{Format: mp4tag.ImageTypeJPEG, Data: meta.CoverData}}
	}
	return t
}

func writeMP4(path string, meta *model.ParsedAlbumMeta) error {
	mp4, err := mp4tag.Open(path)
	if err != nil {
		return err
	}
	defer mp4.Close()
	return mp4.Write(buildMP4Tags(meta), []string{})
}

// buildVorbisComment builds the comment block. Field names follow the common
// Vorbis vocabulary; empty values are never written.
func buildVorbisComment(meta *model.ParsedAlbumMeta) (*flacvorbis.MetaDataBlockVorbisComment, error) {
	type field struct {
		key string
		val string
	}
	fields := []field{
		{"ALBUM", meta.AlbumTitle},
		{"ALBUMARTIST", meta.AlbumArtist},
		{"ARTIST", meta.Artist},
		{"COPYRIGHT", meta.Copyright},
		{"TITLE", meta.Title},
		{"UPC", meta.UPC},
	}
	if meta.TrackNum > 0 {
		fields = append(fields, field{"TRACKNUMBER", strconv.Itoa(meta.TrackNum)})
	}
	if meta.TrackTotal > 0 {
		fields = append(fields, field{"TRACKTOTAL", strconv.Itoa(meta.TrackTotal)})
	}
	if meta.Year > 0 {
		fields = append(fields, field{"YEAR", strconv.Itoa(meta.Year)})
	}

	cmt := flacvorbis.New()
	for _, f := range fields {
		if f.val == "" {
			continue
		}
		if err := cmt.Add(f.key, f.val); err != nil {
			return nil, err
		}
	}
	return cmt, nil
}

func writeVorbis(path string, meta *model.ParsedAlbumMeta) error {
	f, err := flac.ParseFile(path)
	if err != nil {
		return err
	}

	// Replace any existing comment and picture blocks wholesale.
	filtered := f.Meta[:0]
	for _, block := range f.Meta {
		if block.Type == flac.VorbisComment || block.Type == flac.Picture {
			continue
		}
		filtered = append(filtered, block)
	}
	f.Meta = filtered

	cmt, err := buildVorbisComment(meta)
	if err != nil {
		return err
	}
	cmtBlock := cmt.Marshal()
	f.Meta = append(f.Meta, &cmtBlock)

	if len(meta.CoverData) > 0 {
		picture, err := flacpicture.NewFromImageData(
			flacpicture.PictureTypeFrontCover, "", meta.CoverData, "image/jpeg")
		if err != nil {
			return err
		}
		picBlock := picture.Marshal()
		f.Meta = append(f.Meta, &picBlock)
	}

	return f.Save(path)
}
