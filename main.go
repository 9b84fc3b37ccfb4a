package main

import (
	"context"
	"fmt"

	"idagio-dl/internal/api"
	"idagio-dl/internal/config"
	"idagio-dl/internal/download"
	"idagio-dl/internal/helpers"
	"idagio-dl/internal/model"
	"idagio-dl/internal/ui"
)

func handleErr(errText string, err error, _panic bool) {
	errString := errText + "\n" + err.Error()
	if _panic {
		panic(errString)
	}
	ui.PrintError(errString)
}

// downloadItem dispatches one classified reference. An artist reference
// expands into its discography and downloads each album in listing order.
func downloadItem(ctx context.Context, s *api.Session, slug string, mediaType int, cfg *model.Config) error {
	switch mediaType {
	case api.MediaAlbum:
		return download.Album(ctx, s, slug, cfg)
	case api.MediaVideo:
		return download.Video(ctx, s, slug, cfg)
	case api.MediaPlaylist:
		return download.Playlist(ctx, s, slug, cfg)
	case api.MediaArtist:
		albumSlugs, err := api.GetArtistAlbums(ctx, s, slug, cfg.ArtistFilter)
		if err != nil {
			return err
		}
		albumTotal := len(albumSlugs)
		for albumNum, albumSlug := range albumSlugs {
			fmt.Printf("Album %d of %d:\n", albumNum+1, albumTotal)
			if err := download.Album(ctx, s, albumSlug, cfg); err != nil {
				return err
			}
		}
		return nil
	default:
		return fmt.Errorf("unknown media type: %d", mediaType)
	}
}

func main() {
	ctx := context.Background()
	cfg, err := config.ParseCfg()
	if err != nil {
		handleErr("Failed to parse config/args.", err, true)
	}
	if err := helpers.MakeDirs(cfg.OutPath); err != nil {
		handleErr("Failed to make output path.", err, true)
	}
	session, err := api.Auth(ctx, cfg.Email, cfg.Password)
	if err != nil {
		handleErr("Failed to authenticate.", err, true)
	}
	ui.PrintSuccess(fmt.Sprintf("Signed in - %s%s%s", ui.ColorCyan, session.PlanDisplayName, ui.ColorReset))
	if !session.Premium {
		ui.PrintWarning("Free accounts are limited to previews.")
	}

	itemTotal := len(cfg.Urls)
	for itemNum, _url := range cfg.Urls {
		fmt.Printf("\n%s%s Item %d of %d%s\n", ui.ColorBold, ui.SymbolPackage, itemNum+1, itemTotal, ui.ColorReset)
		slug, mediaType := api.CheckURL(_url)
		if slug == "" {
			ui.PrintError("Invalid URL: " + _url)
			continue
		}
		if err := downloadItem(ctx, session, slug, mediaType, cfg); err != nil {
			handleErr("Item failed.", err, false)
		}
	}
	ui.PrintRunSummary()
}
