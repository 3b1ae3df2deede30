// Package staticfs serves files from an fs.FS the way a plain local web
// server does: "/about" finds about, then about.html, then about/index.html.
package staticfs

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"mime"
	"net/http"
	"path"
	"strings"
	"syscall"
	"time"

	"github.com/patrickmn/go-cache"
)

var ErrNotFound = errors.New("staticfs: not found")

const (
	DefaultIndex    = "index.html"
	DefaultExt      = ".html"
	DefaultCacheTTL = time.Minute
)

// webTypes pins the types of common web assets so they do not depend on
// the host's mime.types. Anything else goes through the mime package.
var webTypes = map[string]string{
	".css":   "text/css; charset=utf-8",
	".gif":   "image/gif",
	".htm":   "text/html; charset=utf-8",
	".html":  "text/html; charset=utf-8",
	".ico":   "image/x-icon",
	".jpeg":  "image/jpeg",
	".jpg":   "image/jpeg",
	".js":    "text/javascript; charset=utf-8",
	".json":  "application/json",
	".md":    "text/markdown; charset=utf-8",
	".mjs":   "text/javascript; charset=utf-8",
	".png":   "image/png",
	".svg":   "image/svg+xml",
	".txt":   "text/plain; charset=utf-8",
	".wasm":  "application/wasm",
	".webp":  "image/webp",
	".woff2": "font/woff2",
	".yaml":  "application/yaml",
	".yml":   "application/yaml",
}

// ContentType infers a MIME type from the file extension.
func ContentType(name string) string {
	ext := strings.ToLower(path.Ext(name))
	if t, ok := webTypes[ext]; ok {
		return t
	}
	if t := mime.TypeByExtension(ext); t != "" {
		return t
	}
	return "application/octet-stream"
}

// Server is an http.Handler for the files of one fs.FS.
type Server struct {
	fsys  fs.FS
	index string
	ext   string
	cache *cache.Cache
}

// Option configures a Server.
type Option func(*Server)

// WithIndex sets the default document of a directory.
func WithIndex(name string) Option {
	return func(s *Server) {
		s.index = name
	}
}

// WithExtension sets the extension tried when a path has no exact match.
func WithExtension(ext string) Option {
	return func(s *Server) {
		s.ext = ext
	}
}

// WithCacheTTL sets how long resolved paths are remembered. Zero disables
// the cache, which suits a directory that is being edited.
func WithCacheTTL(ttl time.Duration) Option {
	return func(s *Server) {
		if ttl <= 0 {
			s.cache = nil
			return
		}
		s.cache = cache.New(ttl, 2*ttl)
	}
}

// New creates a server for fsys.
func New(fsys fs.FS, opts ...Option) *Server {
	s := &Server{
		fsys:  fsys,
		index: DefaultIndex,
		ext:   DefaultExt,
		cache: cache.New(DefaultCacheTTL, 2*DefaultCacheTTL),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// cleanPath maps a URL path to an fs.FS name. The result never leaves the root.
func cleanPath(urlPath string) string {
	name := strings.TrimPrefix(path.Clean("/"+urlPath), "/")
	if name == "" {
		return "."
	}
	return name
}

func notFound(err error) bool {
	return errors.Is(err, fs.ErrNotExist) || errors.Is(err, fs.ErrInvalid) || errors.Is(err, syscall.ENOTDIR)
}

// Resolve finds the file to serve for urlPath. It tries the exact name,
// then the name plus the default extension, then the directory index.
func (s *Server) Resolve(urlPath string) (string, error) {
	name := cleanPath(urlPath)
	if s.cache != nil {
		if v, ok := s.cache.Get(name); ok {
			return v.(string), nil
		}
	}

	candidates := []string{name}
	if name != "." {
		candidates = append(candidates, name+s.ext)
	}
	candidates = append(candidates, path.Join(name, s.index))

	for _, c := range candidates {
		info, err := fs.Stat(s.fsys, c)
		if err != nil {
			if notFound(err) {
				continue
			}
			return "", fmt.Errorf("stat %s: %w", c, err)
		}
		if info.IsDir() {
			continue
		}
		if s.cache != nil {
			s.cache.SetDefault(name, c)
		}
		return c, nil
	}
	return "", fmt.Errorf("%w: %s", ErrNotFound, urlPath)
}

// ServeHTTP implements http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet && r.Method != http.MethodHead {
		w.Header().Set("Allow", "GET, HEAD")
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	name, err := s.Resolve(r.URL.Path)
	if errors.Is(err, ErrNotFound) {
		http.NotFound(w, r)
		return
	}
	if err != nil {
		slog.Error("resolve failed", "path", r.URL.Path, "error", err)
		http.Error(w, "Internal server error", http.StatusInternalServerError)
		return
	}

	if err := s.serveFile(w, r, name); err != nil {
		if notFound(err) {
			if s.cache != nil {
				s.cache.Delete(cleanPath(r.URL.Path))
			}
			http.NotFound(w, r)
			return
		}
		slog.Error("serve failed", "file", name, "error", err)
		http.Error(w, "Internal server error", http.StatusInternalServerError)
	}
}

func (s *Server) serveFile(w http.ResponseWriter, r *http.Request, name string) error {
	f, err := s.fsys.Open(name)
	if err != nil {
		return err
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return err
	}

	var content io.ReadSeeker
	if rs, ok := f.(io.ReadSeeker); ok {
		content = rs
	} else {
		data, err := io.ReadAll(f)
		if err != nil {
			return err
		}
		content = bytes.NewReader(data)
	}

	w.Header().Set("Content-Type", ContentType(name))
	http.ServeContent(w, r, name, info.ModTime(), content)
	return nil
}
