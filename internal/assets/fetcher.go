// ABOUTME: Asset fetcher for local and remote audio sources
// ABOUTME: Downloads http(s) assets into a cache directory keyed by URL hash
package assets

import (
	"context"
	"crypto/sha256"
	"errors"
	"fmt"
	"io"
	"log"
	"mime"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"
)

// ErrEmptyAsset indicates the server returned no data
var ErrEmptyAsset = errors.New("asset is empty")

// Fetcher resolves asset references to local files
type Fetcher struct {
	cacheDir string
	client   *http.Client
}

// NewFetcher creates a fetcher caching into cacheDir.
// An empty cacheDir uses a directory under the system temp dir.
func NewFetcher(cacheDir string) (*Fetcher, error) {
	if cacheDir == "" {
		cacheDir = filepath.Join(os.TempDir(), "pulse-assets")
	}
	if err := os.MkdirAll(cacheDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create cache directory: %w", err)
	}

	return &Fetcher{
		cacheDir: cacheDir,
		client:   &http.Client{Timeout: 5 * time.Minute},
	}, nil
}

// IsRemote reports whether src is an http(s) URL
func IsRemote(src string) bool {
	u, err := url.Parse(src)
	if err != nil {
		return false
	}
	return u.Scheme == "http" || u.Scheme == "https"
}

// Resolve returns a local path for src, downloading remote assets first
func (f *Fetcher) Resolve(ctx context.Context, src string) (string, error) {
	if src == "" {
		return "", fmt.Errorf("no asset given")
	}
	if !IsRemote(src) {
		if _, err := os.Stat(src); err != nil {
			return "", fmt.Errorf("asset not found: %w", err)
		}
		return src, nil
	}
	return f.Download(ctx, src)
}

// Download fetches a remote asset into the cache
func (f *Fetcher) Download(ctx context.Context, rawURL string) (string, error) {
	// Cache key from URL hash; the extension drives codec detection
	hash := sha256.Sum256([]byte(rawURL))
	key := fmt.Sprintf("%x", hash[:8])

	if cached, ok := f.lookup(key); ok {
		log.Printf("Asset cache hit: %s", cached)
		return cached, nil
	}

	log.Printf("Downloading asset: %s", rawURL)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return "", fmt.Errorf("invalid asset url: %w", err)
	}

	resp, err := f.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("failed to download asset: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("asset download failed: HTTP %d", resp.StatusCode)
	}

	ext := extensionFor(rawURL, resp.Header.Get("Content-Type"))
	cachePath := filepath.Join(f.cacheDir, key+ext)

	// Write to a temp file so partial downloads never look cached
	tmp, err := os.CreateTemp(f.cacheDir, key+"-*.part")
	if err != nil {
		return "", fmt.Errorf("failed to create cache file: %w", err)
	}
	defer os.Remove(tmp.Name())

	n, err := io.Copy(tmp, resp.Body)
	if closeErr := tmp.Close(); err == nil {
		err = closeErr
	}
	if err != nil {
		return "", fmt.Errorf("failed to save asset: %w", err)
	}
	if n == 0 {
		return "", ErrEmptyAsset
	}

	if err := os.Rename(tmp.Name(), cachePath); err != nil {
		return "", fmt.Errorf("failed to store asset: %w", err)
	}

	log.Printf("Asset saved: %s (%d bytes)", cachePath, n)
	return cachePath, nil
}

func (f *Fetcher) lookup(key string) (string, bool) {
	matches, err := filepath.Glob(filepath.Join(f.cacheDir, key+".*"))
	if err != nil {
		return "", false
	}
	for _, m := range matches {
		if !strings.HasSuffix(m, ".part") {
			return m, true
		}
	}
	return "", false
}

// extensionFor picks a file extension from the URL path, falling back to the content type
func extensionFor(rawURL, contentType string) string {
	if u, err := url.Parse(rawURL); err == nil {
		if ext := filepath.Ext(u.Path); ext != "" {
			return strings.ToLower(ext)
		}
	}

	mediaType, _, _ := mime.ParseMediaType(contentType)
	switch mediaType {
	case "audio/mpeg", "audio/mp3":
		return ".mp3"
	case "audio/flac", "audio/x-flac":
		return ".flac"
	case "audio/wav", "audio/x-wav", "audio/wave":
		return ".wav"
	case "audio/aiff", "audio/x-aiff":
		return ".aiff"
	case "audio/opus":
		return ".opus"
	case "audio/ogg", "application/ogg":
		return ".ogg"
	default:
		return ".bin"
	}
}

// CacheDir returns the cache location
func (f *Fetcher) CacheDir() string {
	return f.cacheDir
}

// Cleanup removes all cached assets
func (f *Fetcher) Cleanup() error {
	return os.RemoveAll(f.cacheDir)
}
