package model

import "errors"

// Sentinel errors for the acquisition pipeline. Callers match these with
// errors.Is; endpoint wrappers add context with fmt.Errorf("%w").
var (
	// ErrNotFound is returned when the API answers 404 for a slug.
	ErrNotFound = errors.New("resource not found")
	// ErrUnauthorized is returned on 401/403, usually an expired token or plan limit.
	ErrUnauthorized = errors.New("unauthorized")
	// ErrMalformedResponse is returned when a payload doesn't match the documented shape.
	ErrMalformedResponse = errors.New("malformed API response")
	// ErrUnknownFormat is returned when a stream URL matches no known quality profile.
	ErrUnknownFormat = errors.New("the API returned an unknown format")
	// ErrMissingLength is returned when a stream response carries no Content-Length.
	ErrMissingLength = errors.New("no content length header")
	// ErrCipherParams is returned when the cipher-parameter header is present but malformed.
	ErrCipherParams = errors.New("failed to parse key and iv")
	// ErrNoSuitableAudio is returned when a video master has no AAC audio rendition.
	ErrNoSuitableAudio = errors.New("aac audio rendition not present")
	// ErrUnsupportedSource is returned when a concert's video source isn't Vimeo.
	ErrUnsupportedSource = errors.New("unsupported video source, was expecting vimeo")
	// ErrManifestNotFound is returned when the embed page has no player config payload.
	ErrManifestNotFound = errors.New("couldn't find player config json in embed html")
	// ErrMuxFailed is returned when ffmpeg exits non-zero.
	ErrMuxFailed = errors.New("muxing failed")
	// ErrNoConcertPlayback is returned when the plan doesn't include concert playback.
	ErrNoConcertPlayback = errors.New("plan doesn't allow concerts")
)
