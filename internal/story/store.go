package story

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io/fs"
	"log/slog"
	"path"
	"regexp"
	"strings"

	"storymap/internal/models"

	"gopkg.in/yaml.v3"
)

var cleanNameRe = regexp.MustCompile(`[^a-zA-Z0-9_./-]`)

// Store is the ordered, read-only list of story points loaded at startup
type Store struct {
	title   string
	welcome models.Section
	points  []models.StoryPoint
	byID    map[string]int
}

// Empty returns a store with no story points
func Empty() *Store {
	return &Store{byID: map[string]int{}}
}

func cleanName(name string) string {
	return strings.TrimPrefix(path.Clean("/"+cleanNameRe.ReplaceAllString(name, "")), "/")
}

// Load reads and validates a story document. The format is chosen by
// extension: .yaml/.yml for YAML, anything else is decoded as JSON.
func Load(fsys fs.FS, name string) (*Store, error) {
	clean := cleanName(name)
	data, err := fs.ReadFile(fsys, clean)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", clean, err)
	}

	doc, err := Decode(data, path.Ext(clean))
	if err != nil {
		return nil, fmt.Errorf("decode %s: %w", clean, err)
	}
	return New(doc)
}

// LoadOrEmpty is Load, except failures are logged and yield an empty store
func LoadOrEmpty(fsys fs.FS, name string) *Store {
	s, err := Load(fsys, name)
	if err != nil {
		slog.Error("failed to load story", "file", name, "error", err)
		return Empty()
	}
	return s
}

// Decode parses a story document in the format named by ext
func Decode(data []byte, ext string) (models.Document, error) {
	var doc models.Document
	switch strings.ToLower(ext) {
	case ".yaml", ".yml":
		dec := yaml.NewDecoder(bytes.NewReader(data))
		dec.KnownFields(true)
		if err := dec.Decode(&doc); err != nil {
			return doc, err
		}
	default:
		dec := json.NewDecoder(bytes.NewReader(data))
		dec.DisallowUnknownFields()
		if err := dec.Decode(&doc); err != nil {
			return doc, err
		}
	}
	return doc, nil
}

// New validates doc and builds a store from it
func New(doc models.Document) (*Store, error) {
	if err := doc.Validate(); err != nil {
		return nil, err
	}
	s := &Store{
		title:   doc.Title,
		welcome: doc.Welcome,
		points:  doc.Points,
		byID:    make(map[string]int, len(doc.Points)),
	}
	for i, p := range doc.Points {
		s.byID[p.ID] = i
	}
	return s, nil
}

// Title returns the document title
func (s *Store) Title() string {
	return s.title
}

// Welcome returns the content shown in welcome mode
func (s *Store) Welcome() models.Section {
	return s.welcome
}

// Len returns the number of story points
func (s *Store) Len() int {
	return len(s.points)
}

// Points returns the story points in document order
func (s *Store) Points() []models.StoryPoint {
	return s.points
}

// Point looks up a story point by id
func (s *Store) Point(id string) (*models.StoryPoint, bool) {
	i, ok := s.byID[id]
	if !ok {
		return nil, false
	}
	return &s.points[i], true
}

// Document returns the store contents in source form
func (s *Store) Document() models.Document {
	return models.Document{
		Title:   s.title,
		Welcome: s.welcome,
		Points:  s.points,
	}
}
