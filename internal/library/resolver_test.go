package library

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func makeMediaTree(t *testing.T) string {
	t.Helper()
	root := t.TempDir()
	intro := filepath.Join(root, "0_intro")
	main := filepath.Join(root, "1_main")
	for _, dir := range []string{intro, main} {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			t.Fatalf("mkdir: %v", err)
		}
	}
	for _, file := range []string{"clip1.mp4", "clip2.mp4"} {
		if err := os.WriteFile(filepath.Join(intro, file), []byte("fake"), 0o644); err != nil {
			t.Fatalf("write: %v", err)
		}
	}
	if err := os.WriteFile(filepath.Join(main, "scene1.mp4"), []byte("fake"), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	return root
}

func TestResolveValidIndices(t *testing.T) {
	root := makeMediaTree(t)
	var r Resolver

	media, err := r.Resolve(root, 0, 1)
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	if media.Kind != SourceLocal || !strings.HasSuffix(media.Source, "clip1.mp4") {
		t.Fatalf("expected clip1.mp4, got %+v", media)
	}

	media, err = r.Resolve(root, 0, 2)
	if err != nil || !strings.HasSuffix(media.Source, "clip2.mp4") {
		t.Fatalf("expected clip2.mp4, got %+v err %v", media, err)
	}

	media, err = r.Resolve(root, 1, 1)
	if err != nil || !strings.HasSuffix(media.Source, "scene1.mp4") {
		t.Fatalf("expected scene1.mp4, got %+v err %v", media, err)
	}
}

func TestResolveOutOfRange(t *testing.T) {
	root := makeMediaTree(t)
	var r Resolver

	if _, err := r.Resolve(root, 7, 1); !errors.Is(err, ErrNoSuchFolder) {
		t.Fatalf("expected no such folder, got %v", err)
	}
	if _, err := r.Resolve(root, 0, 99); !errors.Is(err, ErrNoSuchFile) {
		t.Fatalf("expected no such file, got %v", err)
	}
	if _, err := r.Resolve(root, 0, 0); !errors.Is(err, ErrNoSuchFile) {
		t.Fatalf("expected no such file for index 0, got %v", err)
	}
}

func TestResolveMissingRoot(t *testing.T) {
	var r Resolver
	if _, err := r.Resolve(filepath.Join(t.TempDir(), "nope"), 0, 1); !errors.Is(err, ErrNoSuchFolder) {
		t.Fatalf("expected no such folder, got %v", err)
	}
}

func TestResolveStreamReference(t *testing.T) {
	root := makeMediaTree(t)
	url := "https://example.com/live/stream.m3u8"
	if err := os.WriteFile(filepath.Join(root, "0_intro", "stream.txt"), []byte(url+"\n"), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}

	var r Resolver
	// stream.txt sorts after clip1.mp4 and clip2.mp4.
	media, err := r.Resolve(root, 0, 3)
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	if media.Kind != SourceStream || media.Source != url {
		t.Fatalf("expected stream %q, got %+v", url, media)
	}
}

func TestResolveEmptyStreamReference(t *testing.T) {
	root := makeMediaTree(t)
	if err := os.WriteFile(filepath.Join(root, "0_intro", "empty.txt"), nil, 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}

	var r Resolver
	// Sorted entries: clip1.mp4, clip2.mp4, empty.txt.
	if _, err := r.Resolve(root, 0, 3); !errors.Is(err, ErrUnsupportedFormat) {
		t.Fatalf("expected unsupported format, got %v", err)
	}
}

type fakeFeeds struct {
	url string
	err error
}

func (f fakeFeeds) LatestEnclosure(feedURL string) (string, error) {
	if f.err != nil {
		return "", f.err
	}
	return f.url + "?feed=" + feedURL, nil
}

func TestResolveFeedReference(t *testing.T) {
	root := makeMediaTree(t)
	if err := os.WriteFile(filepath.Join(root, "1_main", "radio.rss"), []byte("https://example.com/feed.xml"), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}

	r := Resolver{Feeds: fakeFeeds{url: "https://cdn.example.com/ep1.mp3"}}
	// Sorted entries: radio.rss, scene1.mp4.
	media, err := r.Resolve(root, 1, 1)
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	if media.Kind != SourceStream || !strings.HasPrefix(media.Source, "https://cdn.example.com/ep1.mp3") {
		t.Fatalf("expected feed enclosure, got %+v", media)
	}

	r = Resolver{Feeds: fakeFeeds{err: errors.New("fetch failed")}}
	if _, err := r.Resolve(root, 1, 1); !errors.Is(err, ErrUnsupportedFormat) {
		t.Fatalf("expected unsupported format on feed failure, got %v", err)
	}

	r = Resolver{}
	if _, err := r.Resolve(root, 1, 1); !errors.Is(err, ErrUnsupportedFormat) {
		t.Fatalf("expected unsupported format without feed resolver, got %v", err)
	}
}

func TestFoldersAndFilesListing(t *testing.T) {
	root := makeMediaTree(t)
	var r Resolver

	folders, err := r.Folders(root)
	if err != nil {
		t.Fatalf("folders: %v", err)
	}
	if len(folders) != 2 || folders[0] != "0_intro" || folders[1] != "1_main" {
		t.Fatalf("unexpected folders %v", folders)
	}

	files, err := r.Files(root, "0_intro")
	if err != nil {
		t.Fatalf("files: %v", err)
	}
	if len(files) != 2 || files[0] != "clip1.mp4" {
		t.Fatalf("unexpected files %v", files)
	}
}
