package download

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"sort"
	"strings"

	"idagio-dl/internal/api"
	"idagio-dl/internal/helpers"
	"idagio-dl/internal/model"
	"idagio-dl/internal/ui"
)

// aacCodec is the only audio codec the mux accepts. E-AC-3 renditions play
// poorly in stock players, so they are never selected.
const aacCodec = "mp4a.40.2"

// MakeBaseURL rewrites the master URL into the rendition base: everything up
// to the "/sep/" segment, with "/parcel/" appended.
func MakeBaseURL(masterURL string) (string, error) {
	idx := strings.Index(masterURL, "/sep/")
	if idx == -1 {
		return "", fmt.Errorf("%w: master url has no /sep/ segment", model.ErrManifestNotFound)
	}
	return masterURL[:idx] + "/parcel/", nil
}

// SelectAudio picks the highest-bitrate AAC rendition.
func SelectAudio(renditions []model.AudioRendition) (*model.AudioRendition, error) {
	sorted := make([]model.AudioRendition, len(renditions))
	copy(sorted, renditions)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].AvgBitrate > sorted[j].AvgBitrate
	})
	for i := range sorted {
		if sorted[i].Codecs == aacCodec {
			return &sorted[i], nil
		}
	}
	return nil, model.ErrNoSuitableAudio
}

// SelectVideo picks the lowest-height rendition, preserving listing order
// between equal heights.
func SelectVideo(renditions []model.VideoRendition) *model.VideoRendition {
	if len(renditions) == 0 {
		return nil
	}
	sorted := make([]model.VideoRendition, len(renditions))
	copy(sorted, renditions)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Height < sorted[j].Height
	})
	return &sorted[0]
}

// buildVideoFileName builds the final concert filename from the event name
// and the selected rendition height.
func buildVideoFileName(name string, height int) string {
	return fmt.Sprintf("%s (%dp).mp4", helpers.Sanitise(name), height)
}

// downloadRendition streams one elementary rendition to outPath.
func downloadRendition(ctx context.Context, baseURL, renditionBase, renditionID, outPath string) error {
	resp, err := api.GetFileResp(ctx, baseURL+renditionBase+renditionID+".mp4", true)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	return downloadBody(resp, outPath)
}

// muxVideo remuxes the elementary video and audio files into outPath without
// re-encoding.
func muxVideo(ffmpegName, videoPath, audioPath, outPath string) error {
	var errBuf bytes.Buffer
	cmd := exec.Command(ffmpegName, "-i", videoPath, "-i", audioPath, "-c", "copy", outPath)
	cmd.Stderr = &errBuf
	if err := cmd.Run(); err != nil {
		return fmt.Errorf("%w: %s", model.ErrMuxFailed, strings.TrimSpace(errBuf.String()))
	}
	return nil
}

// Video downloads one concert: resolves the provider master, selects the
// renditions, downloads both elementary streams and muxes them. The two temp
// files are kept on mux failure so a rerun can be diagnosed.
func Video(ctx context.Context, s *api.Session, slug string, cfg *model.Config) error {
	if !s.AllowConcertPlayback {
		return model.ErrNoConcertPlayback
	}

	meta, err := api.GetVideoMeta(ctx, s, slug)
	if err != nil {
		return err
	}
	fmt.Println(meta.Video.Name)
	if meta.Video.Source != "vimeo" {
		return fmt.Errorf("%w: %s", model.ErrUnsupportedSource, meta.Video.Source)
	}

	masterURL, err := api.GetVimeoMasterURL(ctx, meta.Video.VideoID)
	if err != nil {
		return err
	}
	baseURL, err := MakeBaseURL(masterURL)
	if err != nil {
		return err
	}
	master, err := api.GetVideoMaster(ctx, masterURL)
	if err != nil {
		return err
	}

	video := SelectVideo(master.Video)
	if video == nil {
		return fmt.Errorf("%w: master has no video renditions", model.ErrManifestNotFound)
	}

	outPath := filepath.Join(cfg.OutPath, buildVideoFileName(meta.Video.Name, video.Height))
	exists, err := helpers.FileExists(outPath)
	if err != nil {
		return err
	}
	if exists {
		ui.PrintInfo("Concert already exists locally.")
		return nil
	}

	if cfg.FfmpegNameStr == "" {
		return errors.New("ffmpeg is required for concert downloads but was not found")
	}

	audio, err := SelectAudio(master.Audio)
	if err != nil {
		return err
	}

	videoTemp := filepath.Join(cfg.OutPath, "v.mp4")
	audioTemp := filepath.Join(cfg.OutPath, "a.mp4")

	ui.PrintDownload(fmt.Sprintf("Video: ~%d Kbps | %.3g FPS | %dp",
		video.AvgBitrate/1000, video.Framerate, video.Height))
	if err := downloadRendition(ctx, baseURL, video.BaseURL, video.ID, videoTemp); err != nil {
		return err
	}
	ui.PrintDownload(fmt.Sprintf("Audio: AAC ~%d Kbps", audio.AvgBitrate/1000))
	if err := downloadRendition(ctx, baseURL, audio.BaseURL, audio.ID, audioTemp); err != nil {
		return err
	}

	ui.PrintInfo("Muxing...")
	if err := muxVideo(cfg.FfmpegNameStr, videoTemp, audioTemp, outPath); err != nil {
		return err
	}
	os.Remove(videoTemp)
	os.Remove(audioTemp)
	return nil
}
