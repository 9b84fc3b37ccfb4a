package model

// Config holds the user's configuration, merged from config.json and CLI args.
type Config struct {
	Email           string   `json:"email"`
	Password        string   `json:"password"`
	Urls            []string `json:"urls,omitempty"`
	Format          int      `json:"format"`
	FormatCode      int      `json:"-"`
	OutPath         string   `json:"outPath"`
	KeepCovers      bool     `json:"keepCovers"`
	WriteCovers     bool     `json:"writeCovers"`
	UseFfmpegEnvVar bool     `json:"useFfmpegEnvVar"`
	FfmpegNameStr   string   `json:"ffmpegNameStr,omitempty"`
	ArtistFilter    string   `json:"-"`
}

// Args holds CLI arguments parsed by go-arg.
type Args struct {
	Urls        []string `arg:"positional,required" help:"Catalog URLs or paths to .txt files containing them."`
	Format      int      `arg:"-f" default:"-1" help:"Track download format.\n\t\t\t 1 = 160 / 192 Kbps AAC\n\t\t\t 2 = 320 Kbps AAC / MP3\n\t\t\t 3 = 16-bit / 44.1 kHz FLAC"`
	OutPath     string   `arg:"-o" help:"Where to download to. Path will be made if it doesn't already exist."`
	KeepCovers  bool     `arg:"-k,--keep-covers" help:"Keep covers in album folders."`
	WriteCovers bool     `arg:"-w,--write-covers" help:"Write covers to tracks."`
	ArtistFilter string  `arg:"--artist-filter" help:"Discography filter for artist URLs, e.g. \"composers=<id>&instruments=<id>\". Allowed keys: composers, conductors, ensembles, instruments, soloists."`
}

// Tag format selectors, chosen by the matched quality profile.
const (
	TagFormatID3 = iota + 1
	TagFormatMP4
	TagFormatVorbis
)

// Quality describes one rendition family recovered from a stream URL.
type Quality struct {
	Specs     string
	Extension string
	Format    int
}

// ParsedAlbumMeta is the flattened, tag-ready record for one track. The
// album-level fields are filled once per album; the track-level fields are
// overwritten per track before each download.
type ParsedAlbumMeta struct {
	AlbumTitle  string
	AlbumArtist string
	Artist      string
	Copyright   string
	CoverData   []byte
	Title       string
	TrackNum    int
	TrackTotal  int
	UPC         string
	Year        int
}
