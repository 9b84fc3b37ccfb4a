package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/cookiejar"
	"net/url"
	"strings"
	"time"

	"github.com/tidwall/gjson"

	"idagio-dl/internal/model"
	"idagio-dl/internal/ui"
)

const (
	// ClientID and ClientSecret are intentionally hardcoded. They are the
	// public app-level identifiers of the Android client, not user secrets.
	ClientID     = "com.idagio.app.android"
	ClientSecret = "adbisIGrocsUckWyodUj2knedpyepubGurlyeawosShyufJishleseanreBlogIbCefHodCigNafweegyeebraftEdnooshDeavolirdoppEcIassyet9CirIrnofmaj"

	UserAgent     = "Android 3.8.8 (Build 3080800) [release]"
	ClientType    = "android-3"
	ClientVersion = "3.8.8"
	DeviceID      = "757a7c4dca4121ec"
	RefererURL    = "https://app.idagio.com/"

	// playerConfigPrefix marks the inline script payload carrying the Vimeo
	// player config; the JSON starts right after it.
	playerConfigPrefix = "window.playerConfig = "

	// avcURLPath is the location of the AVC master URL inside the player config.
	avcURLPath = "request.files.dash.cdns.akfire_interconnect_quic.avc_url"

	// PageSize is the server-side page size of the filtered album listing.
	PageSize = 100
)

// BaseURL and VimeoPlayerURL are variables so tests can point them at a local server.
var (
	BaseURL        = "https://api.idagio.com/"
	VimeoPlayerURL = "https://player.vimeo.com/video/"
)

var (
	jar    = mustCookieJar()
	Client = &http.Client{
		Jar:     jar,
		Timeout: 5 * time.Minute,
	}
)

func mustCookieJar() *cookiejar.Jar {
	j, err := cookiejar.New(nil)
	if err != nil {
		panic(fmt.Sprintf("failed to create cookie jar: %v", err))
	}
	return j
}

// Session is the immutable result of a successful authentication. It is
// threaded explicitly into every authenticated call.
type Session struct {
	Token                string
	PlanDisplayName      string
	Premium              bool
	AllowConcertPlayback bool
}

// checkStatus maps a non-2xx response to the pipeline error taxonomy.
func checkStatus(resp *http.Response) error {
	switch {
	case resp.StatusCode >= 200 && resp.StatusCode < 300:
		return nil
	case resp.StatusCode == http.StatusNotFound:
		return fmt.Errorf("%w: %s", model.ErrNotFound, resp.Request.URL)
	case resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden:
		return fmt.Errorf("%w: %s", model.ErrUnauthorized, resp.Status)
	default:
		return errors.New("HTTP " + resp.Status)
	}
}

// getJSON issues an authenticated GET and decodes the JSON body into out.
func getJSON(ctx context.Context, s *Session, _url string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, _url, nil)
	if err != nil {
		return err
	}
	req.Header.Add("User-Agent", UserAgent)
	req.Header.Add("Authorization", "Bearer "+s.Token)
	req.Header.Add("Content-Type", "application/json; charset=UTF-8")
	resp, err := Client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if err := checkStatus(resp); err != nil {
		return err
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("%w: %w", model.ErrMalformedResponse, err)
	}
	return nil
}

// Auth exchanges credentials for a bearer token and subscription-tier flags.
func Auth(ctx context.Context, email, pwd string) (*Session, error) {
	data := url.Values{}
	data.Set("client_id", ClientID)
	data.Set("client_secret", ClientSecret)
	data.Set("username", email)
	data.Set("password", pwd)
	data.Set("grant_type", "password")
	req, err := http.NewRequestWithContext(
		ctx, http.MethodPost, BaseURL+"v2.1/oauth", strings.NewReader(data.Encode()))
	if err != nil {
		return nil, err
	}
	req.Header.Add("User-Agent", UserAgent)
	req.Header.Add("Content-Type", "application/x-www-form-urlencoded")
	resp, err := Client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	if err := checkStatus(resp); err != nil {
		return nil, err
	}
	var auth model.AuthResp
	if err := json.NewDecoder(resp.Body).Decode(&auth); err != nil {
		return nil, fmt.Errorf("%w: %w", model.ErrMalformedResponse, err)
	}
	planName := "<no subscription>"
	if auth.User.PlanDisplayName != nil {
		planName = *auth.User.PlanDisplayName
	}
	return &Session{
		Token:                auth.AccessToken,
		PlanDisplayName:      planName,
		Premium:              auth.User.Premium,
		AllowConcertPlayback: auth.User.Features.Gch.AllowConcertPlayback,
	}, nil
}

// GetAlbumMeta fetches album metadata by slug.
func GetAlbumMeta(ctx context.Context, s *Session, slug string) (*model.AlbumMeta, error) {
	var wrapped model.AlbumResp
	err := getJSON(ctx, s, BaseURL+"v2.0/albums/"+slug, &wrapped)
	if err != nil {
		return nil, err
	}
	return &wrapped.Result, nil
}

// GetPlaylistMeta fetches playlist metadata by slug.
func GetPlaylistMeta(ctx context.Context, s *Session, slug string) (*model.PlaylistMeta, error) {
	var wrapped model.PlaylistResp
	err := getJSON(ctx, s, BaseURL+"v2.0/playlists/"+slug, &wrapped)
	if err != nil {
		return nil, err
	}
	return &wrapped.Result, nil
}

// getArtistID resolves an artist slug to its numeric catalog id.
func getArtistID(ctx context.Context, s *Session, slug string) (int64, error) {
	var wrapped model.ArtistResp
	err := getJSON(ctx, s, BaseURL+"artists.v3/"+slug, &wrapped)
	if err != nil {
		return 0, err
	}
	return wrapped.Result.ID, nil
}

// allowedFilterKeys are the only discography filters the listing endpoint
// accepts. Query keys arrive plural and are forwarded singular.
var allowedFilterKeys = []string{"composers", "conductors", "ensembles", "instruments", "soloists"}

// FilterArtistParams parses a raw query-style filter string and keeps only
// allow-listed keys. Dropped keys are logged, never forwarded.
func FilterArtistParams(rawFilter string) (map[string]string, error) {
	params := map[string]string{}
	if rawFilter == "" {
		return params, nil
	}
	parsed, err := url.ParseQuery(strings.ToLower(rawFilter))
	if err != nil {
		return nil, fmt.Errorf("invalid artist filter: %w", err)
	}
	for k, vals := range parsed {
		if len(vals) == 0 {
			continue
		}
		if containsKey(allowedFilterKeys, k) {
			params[strings.TrimSuffix(k, "s")] = vals[0]
		} else {
			ui.PrintWarning("Dropped param: " + k + ".")
		}
	}
	return params, nil
}

// containsKey reports whether keys contains k.
func containsKey(keys []string, k string) bool {
	for _, key := range keys {
		if key == k {
			return true
		}
	}
	return false
}

// GetArtistAlbums resolves an artist slug and returns every album slug of its
// discography, following the listing cursor until no next page remains.
// rawFilter is an optional query-style filter string (see FilterArtistParams).
func GetArtistAlbums(ctx context.Context, s *Session, slug, rawFilter string) ([]string, error) {
	artistID, err := getArtistID(ctx, s, slug)
	if err != nil {
		return nil, err
	}
	params, err := FilterArtistParams(rawFilter)
	if err != nil {
		return nil, err
	}

	query := url.Values{}
	for k, v := range params {
		query.Set(k, v)
	}
	query.Set("artist", fmt.Sprintf("%d", artistID))
	query.Set("sort", "relevance")

	var (
		slugs     []string
		cursor    string
		firstPage = true
	)
	for {
		if cursor != "" {
			query.Set("cursor", cursor)
		}
		var page model.ArtistAlbumsResp
		err := getJSON(ctx, s, BaseURL+"v2.0/metadata/albums/filter?"+query.Encode(), &page)
		if err != nil {
			return nil, err
		}
		for _, res := range page.Results {
			slugs = append(slugs, res.Slug)
		}
		next := page.Meta.Cursor.Next
		// Termination is strictly "next cursor absent"; a present-but-equal
		// cursor must not end the loop.
		if next == nil {
			break
		}
		if firstPage && page.Meta.Cursor.Prev == nil {
			ui.PrintInfo(fmt.Sprintf(
				"Artist has more than %d albums. Fetching the remaining metadata...", PageSize))
		}
		cursor = *next
		firstPage = false
	}
	return slugs, nil
}

// GetStreamMeta bulk-resolves signed stream URLs for the given track ids at
// the given upstream format code.
func GetStreamMeta(ctx context.Context, s *Session, ids []string, formatCode int) ([]model.StreamMeta, error) {
	query := url.Values{}
	query.Set("client_type", ClientType)
	query.Set("client_version", ClientVersion)
	query.Set("device_id", DeviceID)
	query.Set("quality", fmt.Sprintf("%d", formatCode))

	body, err := json.Marshal(struct {
		IDs []string `json:"ids"`
	}{IDs: ids})
	if err != nil {
		return nil, err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost,
		BaseURL+"v2.0/streams/bulk?"+query.Encode(), strings.NewReader(string(body)))
	if err != nil {
		return nil, err
	}
	req.Header.Add("User-Agent", UserAgent)
	req.Header.Add("Authorization", "Bearer "+s.Token)
	req.Header.Add("Content-Type", "application/json; charset=UTF-8")
	resp, err := Client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	if err := checkStatus(resp); err != nil {
		return nil, err
	}
	var streams model.StreamResp
	if err := json.NewDecoder(resp.Body).Decode(&streams); err != nil {
		return nil, fmt.Errorf("%w: %w", model.ErrMalformedResponse, err)
	}
	return streams.Results, nil
}

// GetVideoMeta fetches live-event metadata by slug.
func GetVideoMeta(ctx context.Context, s *Session, slug string) (*model.VideoMeta, error) {
	var wrapped model.VideoResp
	err := getJSON(ctx, s, BaseURL+"livestream-event.v2/"+slug, &wrapped)
	if err != nil {
		return nil, err
	}
	return &wrapped.Result, nil
}

// GetVimeoMasterURL fetches the Vimeo embed page for the given provider video
// id, locates the inline player config payload and returns the AVC master URL.
func GetVimeoMasterURL(ctx context.Context, videoID string) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, VimeoPlayerURL+videoID, nil)
	if err != nil {
		return "", err
	}
	req.Header.Add("User-Agent", UserAgent)
	req.Header.Add("Referer", RefererURL)
	resp, err := Client.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()
	if err := checkStatus(resp); err != nil {
		return "", err
	}
	page, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", err
	}
	payload, err := extractPlayerConfig(string(page))
	if err != nil {
		return "", err
	}
	masterURL := gjson.Get(payload, avcURLPath)
	if !masterURL.Exists() {
		return "", fmt.Errorf("%w: no avc master url in player config", model.ErrManifestNotFound)
	}
	return masterURL.String(), nil
}

// extractPlayerConfig locates the player config script payload in the embed
// page HTML and returns the raw JSON after the fixed-length prefix.
func extractPlayerConfig(page string) (string, error) {
	idx := strings.Index(page, playerConfigPrefix)
	if idx == -1 {
		return "", model.ErrManifestNotFound
	}
	payload := page[idx+len(playerConfigPrefix):]
	end := strings.Index(payload, "</script>")
	if end == -1 {
		return "", model.ErrManifestNotFound
	}
	return strings.TrimSpace(payload[:end]), nil
}

// GetVideoMaster fetches and parses the rendition master document.
func GetVideoMaster(ctx context.Context, masterURL string) (*model.VideoMaster, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, masterURL, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Add("User-Agent", UserAgent)
	req.Header.Add("Content-Type", "application/json; charset=UTF-8")
	resp, err := Client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	if err := checkStatus(resp); err != nil {
		return nil, err
	}
	var master model.VideoMaster
	if err := json.NewDecoder(resp.Body).Decode(&master); err != nil {
		return nil, fmt.Errorf("%w: %w", model.ErrMalformedResponse, err)
	}
	return &master, nil
}

// GetFileResp issues a GET against a signed media URL and returns the raw
// response. withRange requests the stream from byte zero, which some CDN
// nodes require before they attach the cipher-parameter header.
func GetFileResp(ctx context.Context, _url string, withRange bool) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, _url, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Add("User-Agent", UserAgent)
	if withRange {
		req.Header.Add("Range", "bytes=0-")
	}
	resp, err := Client.Do(req)
	if err != nil {
		return nil, err
	}
	if err := checkStatus(resp); err != nil {
		resp.Body.Close()
		return nil, err
	}
	return resp, nil
}
