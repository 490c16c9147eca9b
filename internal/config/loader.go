package config

import (
	"io/fs"
	"path"
	"path/filepath"
	"strings"

	"github.com/pkg/errors"
	"go.uber.org/zap"
)

var ErrRootConfigNotFound = errors.New("root configuration file not found")

// Loader finds configuration files in a file system. The root file lives
// at the top of the file system; directories below it may hold files with
// the same name that apply to the notes inside them.
type Loader struct {
	fsys   fs.FS
	names  []string
	logger *zap.Logger
}

type LoaderOption func(*Loader)

func WithLogger(logger *zap.Logger) LoaderOption {
	return func(l *Loader) {
		l.logger = logger
	}
}

// NewLoader returns a loader looking for the first of names in every
// directory, for example "notes.yaml" and "notes.yml".
func NewLoader(names []string, fsys fs.FS, opts ...LoaderOption) *Loader {
	if len(names) == 0 {
		panic("config names are not set")
	}

	l := &Loader{fsys: fsys, names: names}
	for _, opt := range opts {
		opt(l)
	}
	if l.logger == nil {
		l.logger = zap.NewNop()
	}
	return l
}

// RootConfig returns the content of the root configuration file.
func (l *Loader) RootConfig() ([]byte, error) {
	name, err := l.find(".")
	if err != nil {
		return nil, err
	}
	if name == "" {
		return nil, ErrRootConfigNotFound
	}
	data, err := fs.ReadFile(l.fsys, name)
	return data, errors.WithStack(err)
}

// FindConfigChain returns the contents of the configuration files that
// apply to p, from the root down to the directory of p.
func (l *Loader) FindConfigChain(p string) ([][]byte, error) {
	dir, err := l.dir(p)
	if err != nil {
		return nil, err
	}

	dirs := []string{"."}
	if dir != "." {
		cur := ""
		for _, fragment := range strings.Split(dir, "/") {
			// path.Join keeps separators as fs.FS expects them on every OS.
			cur = path.Join(cur, fragment)
			dirs = append(dirs, cur)
		}
	}

	var result [][]byte
	for _, d := range dirs {
		name, err := l.find(d)
		if err != nil {
			return nil, err
		}
		if name == "" {
			continue
		}
		l.logger.Debug("found config file", zap.String("path", name))
		data, err := fs.ReadFile(l.fsys, name)
		if err != nil {
			return nil, errors.WithStack(err)
		}
		result = append(result, data)
	}
	return result, nil
}

// Load parses the configuration chain of p on top of the defaults.
func (l *Loader) Load(p string) (*Config, error) {
	chain, err := l.FindConfigChain(p)
	if err != nil {
		return nil, err
	}
	return ParseYAML(chain...)
}

// find returns the first config file in dir or "" if there is none.
func (l *Loader) find(dir string) (string, error) {
	for _, name := range l.names {
		p := path.Join(dir, name)
		_, err := fs.Stat(l.fsys, p)
		if err == nil {
			return p, nil
		}
		if !errors.Is(err, fs.ErrNotExist) {
			return "", errors.WithStack(err)
		}
	}
	return "", nil
}

// dir resolves p to a clean slash-separated directory inside the file
// system. Files resolve to their directory.
func (l *Loader) dir(p string) (string, error) {
	p = path.Clean(filepath.ToSlash(p))
	if p == "" || p == "/" {
		p = "."
	}
	if strings.HasPrefix(p, "../") || p == ".." || path.IsAbs(p) {
		return "", errors.Errorf("path %q is outside of the config root", p)
	}

	info, err := fs.Stat(l.fsys, p)
	if err != nil {
		return "", errors.Wrapf(err, "failed to get the path info for %q", p)
	}
	if info.IsDir() {
		return p, nil
	}
	return path.Dir(p), nil
}
