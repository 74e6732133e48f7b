package library

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

// Resolution errors. All of them are non-destructive: the caller keeps
// whatever was already playing.
var (
	ErrNoSuchFolder      = errors.New("no such folder")
	ErrNoSuchFile        = errors.New("no such file")
	ErrUnsupportedFormat = errors.New("unsupported format")
)

// SourceKind distinguishes local files from remote streams.
type SourceKind int

const (
	SourceLocal SourceKind = iota
	SourceStream
)

// Media is a resolved playback target.
type Media struct {
	Source string
	Kind   SourceKind
	Folder string
	Name   string
}

// FeedResolver resolves a feed URL to a playable enclosure URL.
type FeedResolver interface {
	LatestEnclosure(feedURL string) (string, error)
}

// Resolver maps (folderIndex, fileIndex) onto a media directory tree. The
// tree is re-enumerated on every call; the web collaborator may change it at
// any time. Folder selection is 0-based over alphabetically sorted
// subfolders, file selection 1-based over alphabetically sorted entries.
// fileIndex 0 means "stop" and is intercepted before resolution.
type Resolver struct {
	Feeds FeedResolver
}

// Resolve returns the media entry for the given indices.
func (r Resolver) Resolve(root string, folderIndex int, fileIndex int) (Media, error) {
	if fileIndex <= 0 {
		return Media{}, fmt.Errorf("%w: file index %d", ErrNoSuchFile, fileIndex)
	}

	folders, err := listFolders(root)
	if err != nil {
		return Media{}, fmt.Errorf("%w: %v", ErrNoSuchFolder, err)
	}
	if folderIndex < 0 || folderIndex >= len(folders) {
		return Media{}, fmt.Errorf("%w: index %d of %d folders", ErrNoSuchFolder, folderIndex, len(folders))
	}
	folder := folders[folderIndex]

	files, err := listFiles(filepath.Join(root, folder))
	if err != nil {
		return Media{}, fmt.Errorf("%w: %v", ErrNoSuchFile, err)
	}
	if fileIndex > len(files) {
		return Media{}, fmt.Errorf("%w: index %d of %d files in %s", ErrNoSuchFile, fileIndex, len(files), folder)
	}
	name := files[fileIndex-1]
	path := filepath.Join(root, folder, name)

	switch strings.ToLower(filepath.Ext(name)) {
	case ".txt":
		source, err := readReference(path)
		if err != nil {
			return Media{}, err
		}
		return Media{Source: source, Kind: SourceStream, Folder: folder, Name: name}, nil
	case ".rss":
		source, err := r.resolveFeed(path)
		if err != nil {
			return Media{}, err
		}
		return Media{Source: source, Kind: SourceStream, Folder: folder, Name: name}, nil
	default:
		return Media{Source: path, Kind: SourceLocal, Folder: folder, Name: name}, nil
	}
}

// Folders lists the alphabetically sorted subfolders of root.
func (r Resolver) Folders(root string) ([]string, error) {
	return listFolders(root)
}

// Files lists the alphabetically sorted entries of a folder under root.
func (r Resolver) Files(root string, folder string) ([]string, error) {
	return listFiles(filepath.Join(root, folder))
}

func (r Resolver) resolveFeed(path string) (string, error) {
	feedURL, err := readReference(path)
	if err != nil {
		return "", err
	}
	if r.Feeds == nil {
		return "", fmt.Errorf("%w: feed references not enabled (%s)", ErrUnsupportedFormat, filepath.Base(path))
	}
	source, err := r.Feeds.LatestEnclosure(feedURL)
	if err != nil {
		return "", fmt.Errorf("%w: %s: %v", ErrUnsupportedFormat, filepath.Base(path), err)
	}
	return source, nil
}

// readReference reads a one-line URL reference file. Empty or unreadable
// references are unsupported, never fatal.
func readReference(path string) (string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("%w: %s: %v", ErrUnsupportedFormat, filepath.Base(path), err)
	}
	source := strings.TrimSpace(string(data))
	if i := strings.IndexAny(source, "\r\n"); i >= 0 {
		source = strings.TrimSpace(source[:i])
	}
	if source == "" {
		return "", fmt.Errorf("%w: %s is empty", ErrUnsupportedFormat, filepath.Base(path))
	}
	return source, nil
}

func listFolders(root string) ([]string, error) {
	entries, err := os.ReadDir(root)
	if err != nil {
		return nil, err
	}
	folders := make([]string, 0, len(entries))
	for _, entry := range entries {
		if entry.IsDir() {
			folders = append(folders, entry.Name())
		}
	}
	sort.Strings(folders)
	return folders, nil
}

func listFiles(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, err
	}
	files := make([]string, 0, len(entries))
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		files = append(files, entry.Name())
	}
	sort.Strings(files)
	return files, nil
}
