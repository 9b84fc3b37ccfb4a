package download

import (
	"bytes"
	"context"
	"crypto/aes"
	"crypto/cipher"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strconv"
	"sync/atomic"
	"testing"

	"idagio-dl/internal/helpers"
	"idagio-dl/internal/model"
)

func TestDeriveKey(t *testing.T) {
	key := DeriveKey([]byte("some-seed"))
	if len(key) != 16 {
		t.Fatalf("key length = %d, want 16", len(key))
	}
	for _, b := range key {
		if !(b >= '0' && b <= '9' || b >= 'a' && b <= 'f') {
			t.Fatalf("key %q contains non-hex byte %q", key, b)
		}
	}
	if !bytes.Equal(key, DeriveKey([]byte("some-seed"))) {
		t.Fatal("derivation is not deterministic")
	}
	if bytes.Equal(key, DeriveKey([]byte("other-seed"))) {
		t.Fatal("distinct seeds produced the same key")
	}
}

func TestParseKeyAndIV(t *testing.T) {
	iv := "0123456789abcdef"
	tests := []struct {
		name    string
		in      string
		wantErr bool
	}{
		{name: "valid", in: "seed-value " + iv},
		{name: "no separator", in: "seedonly", wantErr: true},
		{name: "empty seed", in: " " + iv, wantErr: true},
		{name: "short iv", in: "seed-value shortiv", wantErr: true},
		{name: "empty", in: "", wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			seed, gotIV, err := ParseKeyAndIV(tt.in)
			if tt.wantErr {
				if !errors.Is(err, model.ErrCipherParams) {
					t.Fatalf("err = %v, want ErrCipherParams", err)
				}
				return
			}
			if err != nil {
				t.Fatal(err)
			}
			if string(seed) != "seed-value" || string(gotIV) != iv {
				t.Fatalf("seed = %q, iv = %q", seed, gotIV)
			}
		})
	}
}

func TestDecryptFileRoundTrip(t *testing.T) {
	// More than two chunks plus a ragged tail, so chunk boundaries are crossed.
	plaintext := bytes.Repeat([]byte("idagio"), (2*BufSize+7)/6)
	key := DeriveKey([]byte("round-trip-seed"))
	iv := []byte("0123456789abcdef")

	block, err := aes.NewCipher(key)
	if err != nil {
		t.Fatal(err)
	}
	encrypted := make([]byte, len(plaintext))
	cipher.NewCTR(block, iv).XORKeyStream(encrypted, plaintext)

	incompPath := filepath.Join(t.TempDir(), "01. Track.incomplete")
	if err := os.WriteFile(incompPath, encrypted, 0644); err != nil {
		t.Fatal(err)
	}

	if err := decryptFile(incompPath, key, iv); err != nil {
		t.Fatal(err)
	}
	got, err := os.ReadFile(incompPath)
	if err != nil {
		t.Fatal(err)
	}
	if !bytes.Equal(got, plaintext) {
		t.Fatal("decrypted contents do not match the plaintext")
	}
}

func TestDownloadTrackMissingLength(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		// Flushing before the body forces chunked transfer, so the client
		// sees no Content-Length.
		w.(http.Flusher).Flush()
		w.Write([]byte("data"))
	}))
	defer srv.Close()

	dir := t.TempDir()
	err := DownloadTrack(context.Background(), srv.URL+"/aes-128-ctr/flac-/101",
		filepath.Join(dir, "01. Track.incomplete"), filepath.Join(dir, "01. Track.flac"))
	if !errors.Is(err, model.ErrMissingLength) {
		t.Fatalf("err = %v, want ErrMissingLength", err)
	}
}

func TestDownloadTrackEncrypted(t *testing.T) {
	plaintext := bytes.Repeat([]byte("largo"), 2048)
	key := DeriveKey([]byte("e2e-seed"))
	iv := "fedcba9876543210"

	block, err := aes.NewCipher(key)
	if err != nil {
		t.Fatal(err)
	}
	encrypted := make([]byte, len(plaintext))
	cipher.NewCTR(block, []byte(iv)).XORKeyStream(encrypted, plaintext)

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if got := r.Header.Get("Range"); got != "bytes=0-" {
			t.Errorf("Range = %q", got)
		}
		w.Header().Set("x-x", "e2e-seed "+iv)
		w.Header().Set("Content-Length", strconv.Itoa(len(encrypted)))
		w.Write(encrypted)
	}))
	defer srv.Close()

	dir := t.TempDir()
	incompPath := filepath.Join(dir, "01. Track.incomplete")
	finalPath := filepath.Join(dir, "01. Track.flac")
	if err := DownloadTrack(context.Background(), srv.URL+"/aes-128-ctr/flac-/101", incompPath, finalPath); err != nil {
		t.Fatal(err)
	}

	got, err := os.ReadFile(finalPath)
	if err != nil {
		t.Fatal(err)
	}
	if !bytes.Equal(got, plaintext) {
		t.Fatal("final file does not match the plaintext")
	}
	if exists, err := helpers.FileExists(incompPath); err != nil || exists {
		t.Fatalf("incomplete file still present: exists=%v err=%v", exists, err)
	}
}

func TestProcessTrackSkipsExisting(t *testing.T) {
	var hits atomic.Int64
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
	}))
	defer srv.Close()

	albumPath := t.TempDir()
	if err := os.WriteFile(filepath.Join(albumPath, "01. Allegro.flac"), []byte("x"), 0644); err != nil {
		t.Fatal(err)
	}

	meta := &model.ParsedAlbumMeta{Title: "Allegro", TrackNum: 1, TrackTotal: 1}
	streamURL := srv.URL + "/aes-128-ctr/flac-/101"
	if err := ProcessTrack(context.Background(), albumPath, meta, streamURL); err != nil {
		t.Fatal(err)
	}
	if hits.Load() != 0 {
		t.Fatalf("existing track triggered %d network requests", hits.Load())
	}
}

func TestProcessTrackUnknownFormat(t *testing.T) {
	meta := &model.ParsedAlbumMeta{Title: "Allegro", TrackNum: 1, TrackTotal: 1}
	err := ProcessTrack(context.Background(), t.TempDir(), meta, "https://cdn.example.com/opus-96/101")
	if !errors.Is(err, model.ErrUnknownFormat) {
		t.Fatalf("err = %v, want ErrUnknownFormat", err)
	}
}
