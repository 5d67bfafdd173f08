// Package loader reads and caches the viewer's JSON datasets: the merged
// toc.json and per-title t<N>.json section maps produced upstream.
//
// Datasets are immutable once published, so the Store has
// fetch-or-return-cached semantics with no invalidation. Each loaded file
// gets a BLAKE3 digest, which the web layer reuses as an ETag. A title
// whose data file is absent and a section missing from a loaded title are
// distinct conditions, and neither is conflated with "still loading".
package loader

import (
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/ulikunitz/xz"
	"github.com/zeebo/blake3"

	"github.com/lawtext/uscview/core/usc"
	"github.com/lawtext/uscview/internal/logging"
)

// Sentinel errors for the distinct not-found conditions.
var (
	// ErrTitleNotFound means no dataset exists for the requested title.
	ErrTitleNotFound = errors.New("title dataset not found")

	// ErrSectionNotFound means the title is loaded but has no such section.
	ErrSectionNotFound = errors.New("section not found")
)

// titleEntry is one cached per-title section map.
type titleEntry struct {
	sections map[string]*usc.SectionData
	digest   string
	loaded   time.Time
}

// Store loads and caches datasets from a data directory.
type Store struct {
	dir string

	mu     sync.RWMutex
	toc    *usc.TocData
	tocDig string
	titles map[string]*titleEntry
}

// NewStore creates a store over a data directory. Nothing is read until
// first use.
func NewStore(dir string) *Store {
	return &Store{
		dir:    dir,
		titles: make(map[string]*titleEntry),
	}
}

// readDataFile reads a dataset file, transparently decompressing a
// .xz sibling when the plain file is absent. The digest of the
// decompressed bytes is returned alongside the data.
func readDataFile(path string) ([]byte, string, error) {
	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		f, xerr := os.Open(path + ".xz")
		if xerr != nil {
			return nil, "", err
		}
		defer f.Close()
		xr, xerr := xz.NewReader(f)
		if xerr != nil {
			return nil, "", fmt.Errorf("opening xz stream %s: %w", path+".xz", xerr)
		}
		data, err = io.ReadAll(xr)
		if err != nil {
			return nil, "", fmt.Errorf("decompressing %s: %w", path+".xz", err)
		}
	} else if err != nil {
		return nil, "", err
	}

	sum := blake3.Sum256(data)
	return data, hex.EncodeToString(sum[:]), nil
}

// Toc returns the table of contents, loading it on first use. A merged
// toc.json is preferred; absent that, toc-N.json fragments are merged in
// place.
func (s *Store) Toc() (*usc.TocData, error) {
	s.mu.RLock()
	if s.toc != nil {
		toc := s.toc
		s.mu.RUnlock()
		return toc, nil
	}
	s.mu.RUnlock()

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.toc != nil {
		return s.toc, nil
	}

	path := filepath.Join(s.dir, "toc.json")
	data, digest, err := readDataFile(path)
	if err == nil {
		var toc usc.TocData
		if err := json.Unmarshal(data, &toc); err != nil {
			return nil, fmt.Errorf("parsing %s: %w", path, err)
		}
		s.toc = &toc
		s.tocDig = digest
		logging.DatasetEvent("loaded", "toc", "titles", len(toc.Titles), "digest", digest[:12])
		return s.toc, nil
	}
	if !errors.Is(err, os.ErrNotExist) {
		return nil, err
	}

	toc, digest, err := MergeFragments(s.dir)
	if err != nil {
		return nil, err
	}
	s.toc = toc
	s.tocDig = digest
	logging.DatasetEvent("merged", "toc", "titles", len(toc.Titles))
	return s.toc, nil
}

// TocDigest returns the digest of the loaded TOC, or "" before load.
func (s *Store) TocDigest() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.tocDig
}

// title returns the cached per-title entry, loading it on first use.
func (s *Store) title(num string) (*titleEntry, error) {
	s.mu.RLock()
	if entry, ok := s.titles[num]; ok {
		s.mu.RUnlock()
		return entry, nil
	}
	s.mu.RUnlock()

	s.mu.Lock()
	defer s.mu.Unlock()
	if entry, ok := s.titles[num]; ok {
		return entry, nil
	}

	path := filepath.Join(s.dir, "t"+num+".json")
	data, digest, err := readDataFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("title %s: %w", num, ErrTitleNotFound)
	}
	if err != nil {
		return nil, err
	}

	sections := make(map[string]*usc.SectionData)
	if err := json.Unmarshal(data, &sections); err != nil {
		return nil, fmt.Errorf("parsing %s: %w", path, err)
	}

	entry := &titleEntry{sections: sections, digest: digest, loaded: time.Now()}
	s.titles[num] = entry
	logging.DatasetEvent("loaded", "t"+num, "sections", len(sections), "digest", digest[:12])
	return entry, nil
}

// Section returns one section of a title. ErrTitleNotFound and
// ErrSectionNotFound distinguish a missing dataset from a missing entry.
func (s *Store) Section(title, num string) (*usc.SectionData, error) {
	entry, err := s.title(title)
	if err != nil {
		return nil, err
	}
	section, ok := entry.sections[num]
	if !ok {
		return nil, fmt.Errorf("title %s section %s: %w", title, num, ErrSectionNotFound)
	}
	return section, nil
}

// Sections returns the full section map of a title.
func (s *Store) Sections(title string) (map[string]*usc.SectionData, error) {
	entry, err := s.title(title)
	if err != nil {
		return nil, err
	}
	return entry.sections, nil
}

// TitleDigest returns the dataset digest of a loaded title.
func (s *Store) TitleDigest(title string) (string, error) {
	entry, err := s.title(title)
	if err != nil {
		return "", err
	}
	return entry.digest, nil
}

// LoadedTitles returns the numbers of titles currently cached, for
// diagnostics.
func (s *Store) LoadedTitles() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	nums := make([]string, 0, len(s.titles))
	for num := range s.titles {
		nums = append(nums, num)
	}
	return nums
}

// stripDataSuffix trims the .json/.json.xz suffix of a dataset filename.
func stripDataSuffix(name string) string {
	name = strings.TrimSuffix(name, ".xz")
	return strings.TrimSuffix(name, ".json")
}
