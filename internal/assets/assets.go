// Package assets stages a local site directory for upload: it lists the
// files, detects content types and computes per-file and bundle hashes.
package assets

import (
	"crypto/md5"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"mime"
	"os"
	"path"
	"path/filepath"
	"sort"
	"strings"
)

// ErrEmptyAsset is returned when a directory has no publishable files.
var ErrEmptyAsset = errors.New("asset directory contains no files")

// DefaultContentType is used when the extension is unknown.
const DefaultContentType = "application/octet-stream"

// File is one staged file.
type File struct {
	// Key is the slash-separated path relative to the bundle root
	Key         string
	Path        string
	Size        int64
	ContentType string
	// MD5 is the hex digest, comparable to a single-part S3 ETag
	MD5    string
	sha256 string
}

// Bundle is a staged directory.
type Bundle struct {
	Path  string
	Hash  string
	Files []File
	Size  int64
}

// ignoredNames are version-control and OS files that never belong in a site.
// Other dotfiles such as .well-known/ or .htaccess are published.
var ignoredNames = map[string]bool{
	".git":      true,
	".hg":       true,
	".svn":      true,
	".DS_Store": true,
	"Thumbs.db": true,
}

// Ignored reports whether a file or directory name is left out of a bundle.
func Ignored(name string) bool {
	return ignoredNames[name]
}

// Stage walks dir and returns its bundle. Version-control directories and OS
// metadata files are skipped. Files are sorted by key.
func Stage(dir string) (*Bundle, error) {
	info, err := os.Stat(dir)
	if err != nil {
		return nil, fmt.Errorf("staging %s: %w", dir, err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("staging %s: not a directory", dir)
	}

	bundle := &Bundle{Path: dir}
	err = filepath.WalkDir(dir, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if p != dir && Ignored(d.Name()) {
			if d.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}
		if d.IsDir() || !d.Type().IsRegular() {
			return nil
		}

		rel, err := filepath.Rel(dir, p)
		if err != nil {
			return err
		}
		f, err := stageFile(p, filepath.ToSlash(rel))
		if err != nil {
			return err
		}
		bundle.Files = append(bundle.Files, f)
		bundle.Size += f.Size
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("staging %s: %w", dir, err)
	}
	if len(bundle.Files) == 0 {
		return nil, fmt.Errorf("staging %s: %w", dir, ErrEmptyAsset)
	}

	sort.Slice(bundle.Files, func(i, j int) bool {
		return bundle.Files[i].Key < bundle.Files[j].Key
	})
	bundle.Hash = bundleHash(bundle.Files)
	return bundle, nil
}

func stageFile(p, key string) (File, error) {
	fh, err := os.Open(p)
	if err != nil {
		return File{}, err
	}
	defer fh.Close()

	md5sum := md5.New()
	shasum := sha256.New()
	size, err := io.Copy(io.MultiWriter(md5sum, shasum), fh)
	if err != nil {
		return File{}, fmt.Errorf("reading %s: %w", key, err)
	}

	return File{
		Key:         key,
		Path:        p,
		Size:        size,
		ContentType: ContentType(key),
		MD5:         hex.EncodeToString(md5sum.Sum(nil)),
		sha256:      hex.EncodeToString(shasum.Sum(nil)),
	}, nil
}

// bundleHash hashes the sorted (key, content hash) pairs, so it depends only
// on file names and contents.
func bundleHash(files []File) string {
	h := sha256.New()
	for _, f := range files {
		fmt.Fprintf(h, "%s\x00%s\n", f.Key, f.sha256)
	}
	return hex.EncodeToString(h.Sum(nil))
}

// ContentType returns the MIME type for a key based on its extension.
func ContentType(key string) string {
	ext := strings.ToLower(path.Ext(key))
	if ext == "" {
		return DefaultContentType
	}
	if ct, ok := overrides[ext]; ok {
		return ct
	}
	if ct := mime.TypeByExtension(ext); ct != "" {
		return ct
	}
	return DefaultContentType
}

// Types the host mime database commonly lacks or gets wrong.
var overrides = map[string]string{
	".html":        "text/html; charset=utf-8",
	".css":         "text/css; charset=utf-8",
	".js":          "text/javascript; charset=utf-8",
	".mjs":         "text/javascript; charset=utf-8",
	".json":        "application/json",
	".svg":         "image/svg+xml",
	".webp":        "image/webp",
	".woff":        "font/woff",
	".woff2":       "font/woff2",
	".wasm":        "application/wasm",
	".xml":         "application/xml",
	".txt":         "text/plain; charset=utf-8",
	".map":         "application/json",
	".webmanifest": "application/manifest+json",
}

// IsHTML reports whether the file is an HTML page.
func (f File) IsHTML() bool {
	return strings.HasPrefix(f.ContentType, "text/html")
}

// Keys returns the set of keys in the bundle under prefix.
func (b *Bundle) Keys(prefix string) map[string]File {
	keys := make(map[string]File, len(b.Files))
	for _, f := range b.Files {
		keys[prefix+f.Key] = f
	}
	return keys
}
