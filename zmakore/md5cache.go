package zmakore

import (
	"bufio"
	"crypto/md5"
	"encoding/hex"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

// Md5sFileName is the file below the build root that records the content
// hash of every file seen by the last build.
const Md5sFileName = "BUILD.md5s"

// Md5Cache decides whether a file's content genuinely changed since the
// last build, independent of its mtime. Within one run Changed hashes every
// file at most once; the verdict is memoized with a marker on the entry.
type Md5Cache struct {
	path    string
	entries map[string]string
	loaded  bool
}

func NewMd5Cache(buildRoot string) *Md5Cache {
	return &Md5Cache{
		path:    filepath.Join(buildRoot, Md5sFileName),
		entries: make(map[string]string),
	}
}

func (c *Md5Cache) load() error {
	if c.loaded {
		return nil
	}
	c.loaded = true
	f, err := os.Open(c.path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return err
	}
	defer f.Close()
	scn := bufio.NewScanner(f)
	for scn.Scan() {
		line := strings.TrimSpace(scn.Text())
		if line == "" {
			continue
		}
		i := strings.LastIndexByte(line, ' ')
		if i < 0 {
			continue
		}
		c.entries[line[:i]] = line[i+1:]
	}
	return scn.Err()
}

func hashFile(file string) (string, error) {
	f, err := os.Open(file)
	if err != nil {
		return "", err
	}
	defer f.Close()
	h := md5.New()
	if _, err := io.Copy(h, f); err != nil {
		return "", err
	}
	return hex.EncodeToString(h.Sum(nil)), nil
}

// Changed reports whether file's content differs from the recorded hash. A
// file without record counts as changed.
func (c *Md5Cache) Changed(file string) (bool, error) {
	if err := c.load(); err != nil {
		return false, err
	}
	if e := c.entries[file]; e != "" {
		switch e[0] {
		case '@':
			return true, nil
		case '*':
			return false, nil
		}
	}
	h, err := hashFile(file)
	if err != nil {
		return false, fmt.Errorf("hash '%s': %w", file, err)
	}
	old, ok := c.entries[file]
	if ok && old == h {
		c.entries[file] = "*" + h
		return false, nil
	}
	c.entries[file] = "@" + h
	return true, nil
}

// Update records file's current content hash. It always rehashes the file,
// so the entry also covers files rebuilt in this run.
func (c *Md5Cache) Update(file string) error {
	if err := c.load(); err != nil {
		return err
	}
	h, err := hashFile(file)
	if err != nil {
		return err
	}
	c.entries[file] = h
	return nil
}

// Persist writes the cache back, dropping the per-run markers.
func (c *Md5Cache) Persist() error {
	if err := os.MkdirAll(filepath.Dir(c.path), 0777); err != nil {
		return err
	}
	files := make([]string, 0, len(c.entries))
	for f := range c.entries {
		files = append(files, f)
	}
	sort.Strings(files)
	var sb strings.Builder
	for _, f := range files {
		h := c.entries[f]
		if h == "" {
			continue
		}
		if h[0] == '@' || h[0] == '*' {
			h = h[1:]
		}
		fmt.Fprintf(&sb, "%s %s\n", f, h)
	}
	return os.WriteFile(c.path, []byte(sb.String()), 0666)
}
