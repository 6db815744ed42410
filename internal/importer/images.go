package importer

import (
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"path"
	"path/filepath"
	"regexp"
	"strings"
	"time"

	"github.com/google/uuid"
	"product-import-service/internal/models"
)

var remoteImagePattern = regexp.MustCompile(`^https?://`)

// Fetcher retrieves image bytes from a local path or a remote URL.
type Fetcher interface {
	Fetch(location string) (data []byte, contentType string, filename string, err error)
}

// FileFetcher resolves relative filenames under Root and fetches http(s)
// URLs over the network.
type FileFetcher struct {
	Root   string
	Client *http.Client
}

// NewFileFetcher returns a fetcher rooted at the given local image path.
func NewFileFetcher(root string) *FileFetcher {
	return &FileFetcher{
		Root:   root,
		Client: &http.Client{Timeout: 30 * time.Second},
	}
}

func (f *FileFetcher) Fetch(location string) ([]byte, string, string, error) {
	if remoteImagePattern.MatchString(location) {
		return f.fetchRemote(location)
	}
	return f.fetchLocal(location)
}

func (f *FileFetcher) fetchRemote(rawURL string) ([]byte, string, string, error) {
	resp, err := f.Client.Get(rawURL)
	if err != nil {
		return nil, "", "", fmt.Errorf("fetching %s: %w", rawURL, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, "", "", fmt.Errorf("fetching %s: status %d", rawURL, resp.StatusCode)
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, "", "", fmt.Errorf("reading %s: %w", rawURL, err)
	}

	contentType := resp.Header.Get("Content-Type")
	if contentType == "" {
		contentType = http.DetectContentType(data)
	}

	filename := "image"
	if u, err := url.Parse(rawURL); err == nil && path.Base(u.Path) != "/" && path.Base(u.Path) != "." {
		filename = path.Base(u.Path)
	}
	return data, contentType, filename, nil
}

func (f *FileFetcher) fetchLocal(name string) ([]byte, string, string, error) {
	full := filepath.Join(f.Root, name)
	data, err := os.ReadFile(full)
	if err != nil {
		return nil, "", "", fmt.Errorf("reading %s: %w", full, err)
	}
	return data, http.DetectContentType(data), filepath.Base(name), nil
}

// attachImage fetches one image and attaches it to the viewable entity at
// the next position. Every failure here is soft: it logs a warning and
// returns, never aborting the row or the run.
func (r *run) attachImage(viewableType string, viewableID uuid.UUID, location string) {
	if strings.TrimSpace(location) == "" {
		return
	}

	data, contentType, filename, err := r.fetcher.Fetch(location)
	if err != nil {
		r.warn("could not fetch image", "image", location, err)
		return
	}

	count, err := r.catalog.ImageCount(viewableType, viewableID)
	if err != nil {
		r.warn("could not count images", "image", location, err)
		return
	}

	image := &models.Image{
		ViewableType: viewableType,
		ViewableID:   viewableID,
		Filename:     filename,
		ContentType:  contentType,
		Data:         data,
		Position:     int(count),
	}
	if err := r.catalog.CreateImage(image); err != nil {
		r.warn("could not save image", "image", location, err)
	}
}
