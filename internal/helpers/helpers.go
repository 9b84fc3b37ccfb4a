package helpers

import (
	"bufio"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"runtime"
	"strings"
)

const sanRegexStr = `[\/:*?"><|]`

var sanRegex = regexp.MustCompile(sanRegexStr)

var (
	// ErrOpenTextFile indicates opening a URL list file failed.
	ErrOpenTextFile = errors.New("failed to open text file")
	// ErrScanTextFile indicates scanner iteration over a URL list file failed.
	ErrScanTextFile = errors.New("failed to scan text file")
)

// Sanitise cleans a filename by replacing characters that are invalid on
// common filesystems.
func Sanitise(filename string) string {
	return sanRegex.ReplaceAllString(filename, "_")
}

// MakeDirs creates directories recursively.
func MakeDirs(path string) error {
	return os.MkdirAll(path, 0755)
}

// FileExists checks if a file (not directory) exists at the given path.
func FileExists(path string) (bool, error) {
	f, err := os.Stat(path)
	if err == nil {
		return !f.IsDir(), nil
	} else if os.IsNotExist(err) {
		return false, nil
	}
	return false, err
}

// WasRunFromSrc checks if the binary was run from a Go build temp directory.
func WasRunFromSrc() bool {
	buildPath := filepath.Join(os.TempDir(), "go-build")
	return strings.HasPrefix(os.Args[0], buildPath)
}

// GetScriptDir returns the directory of the running script or binary. Used to
// locate config.json and a bundled ffmpeg next to the executable.
func GetScriptDir() (string, error) {
	var (
		ok    bool
		err   error
		fname string
	)
	if WasRunFromSrc() {
		_, fname, _, ok = runtime.Caller(0)
		if !ok {
			return "", errors.New("failed to get script filename")
		}
	} else {
		fname, err = os.Executable()
		if err != nil {
			return "", fmt.Errorf("resolve executable path: %w", err)
		}
	}
	return filepath.Dir(fname), nil
}

// ReadTxtFile reads non-empty lines from a text file.
func ReadTxtFile(path string) ([]string, error) {
	var lines []string
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("%w %q: %w", ErrOpenTextFile, path, err)
	}
	defer f.Close()
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line != "" {
			lines = append(lines, line)
		}
	}
	if scanner.Err() != nil {
		return nil, fmt.Errorf("%w %q: %w", ErrScanTextFile, path, scanner.Err())
	}
	return lines, nil
}

// Contains checks if a string slice contains a value (case-insensitive).
func Contains(lines []string, value string) bool {
	for _, line := range lines {
		if strings.EqualFold(line, value) {
			return true
		}
	}
	return false
}

// cleanURL strips a query-string suffix and a trailing path separator.
func cleanURL(_url string) string {
	if idx := strings.IndexByte(_url, '?'); idx != -1 {
		_url = _url[:idx]
	}
	return strings.TrimSuffix(_url, "/")
}

// ProcessUrls expands .txt list files and deduplicates, preserving first-seen
// order. List-file paths themselves are deduplicated so a list is never
// expanded twice.
func ProcessUrls(urls []string) ([]string, error) {
	var (
		processed []string
		txtPaths  []string
	)
	for _, _url := range urls {
		if strings.HasSuffix(_url, ".txt") {
			if Contains(txtPaths, _url) {
				continue
			}
			txtLines, err := ReadTxtFile(_url)
			if err != nil {
				return nil, err
			}
			for _, txtLine := range txtLines {
				txtLine = cleanURL(txtLine)
				if !Contains(processed, txtLine) {
					processed = append(processed, txtLine)
				}
			}
			txtPaths = append(txtPaths, _url)
		} else {
			_url = cleanURL(strings.TrimSpace(_url))
			if !Contains(processed, _url) {
				processed = append(processed, _url)
			}
		}
	}
	return processed, nil
}
