package document

import (
	"bytes"
	"encoding/json"
	stderrors "errors"

	"github.com/pelletier/go-toml/v2"
	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"
)

var ErrFrontmatterInvalid = stderrors.New("invalid frontmatter")

const (
	frontmatterFormatYAML = "yaml"
	frontmatterFormatJSON = "json"
	frontmatterFormatTOML = "toml"
)

// Frontmatter is the metadata block a language model or a user may put at
// the top of a markdown note.
type Frontmatter struct {
	Title string   `yaml:"title,omitempty" json:"title,omitempty" toml:"title,omitempty"`
	Tags  []string `yaml:"tags,omitempty" json:"tags,omitempty" toml:"tags,omitempty"`
	Date  string   `yaml:"date,omitempty" json:"date,omitempty" toml:"date,omitempty"`

	format string
	raw    string
}

// NewYAMLFrontmatter returns an empty frontmatter serialized as YAML.
func NewYAMLFrontmatter() *Frontmatter {
	return &Frontmatter{format: frontmatterFormatYAML}
}

// Format returns "yaml", "json" or "toml".
func (f *Frontmatter) Format() string {
	if f == nil {
		return ""
	}
	return f.format
}

// Marshal returns the frontmatter including its delimiter lines. Keys other
// than the known ones are preserved.
func (f *Frontmatter) Marshal() ([]byte, error) {
	if f == nil {
		return nil, nil
	}

	m := make(map[string]interface{})

	switch f.format {
	case frontmatterFormatYAML, "":
		if err := yaml.Unmarshal([]byte(f.raw), &m); err != nil {
			return nil, errors.WithStack(err)
		}
		f.merge(m)

		var buf bytes.Buffer
		encoder := yaml.NewEncoder(&buf)
		encoder.SetIndent(2)
		if err := encoder.Encode(m); err != nil {
			return nil, errors.WithStack(err)
		}
		if err := encoder.Close(); err != nil {
			return nil, errors.WithStack(err)
		}
		return append(append([]byte("---\n"), buf.Bytes()...), []byte("---")...), nil

	case frontmatterFormatJSON:
		if err := json.Unmarshal([]byte(f.raw), &m); err != nil {
			return nil, errors.WithStack(err)
		}
		f.merge(m)

		data, err := json.Marshal(m)
		if err != nil {
			return nil, errors.WithStack(err)
		}
		return append(append([]byte("---\n"), data...), []byte("\n---")...), nil

	case frontmatterFormatTOML:
		if err := toml.Unmarshal([]byte(f.raw), &m); err != nil {
			return nil, errors.WithStack(err)
		}
		f.merge(m)

		data, err := toml.Marshal(m)
		if err != nil {
			return nil, errors.WithStack(err)
		}
		return append(append([]byte("+++\n"), data...), []byte("+++")...), nil

	default:
		panic("invariant: Frontmatter created with invalid format")
	}
}

func (f *Frontmatter) merge(m map[string]interface{}) {
	set := func(key string, value interface{}, empty bool) {
		if empty {
			delete(m, key)
		} else {
			m[key] = value
		}
	}
	set("title", f.Title, f.Title == "")
	set("tags", f.Tags, len(f.Tags) == 0)
	set("date", f.Date, f.Date == "")
}

// splitFrontmatter separates a leading frontmatter block delimited by "---"
// or "+++" lines from the rest of the source. raw includes the delimiters.
func splitFrontmatter(source []byte) (raw, content []byte) {
	var delimiter []byte
	switch {
	case bytes.HasPrefix(source, []byte("---")):
		delimiter = []byte("---")
	case bytes.HasPrefix(source, []byte("+++")):
		delimiter = []byte("+++")
	default:
		return nil, source
	}

	firstEnd := bytes.IndexByte(source, '\n')
	if firstEnd < 0 || !bytes.Equal(bytes.TrimSpace(source[:firstEnd]), delimiter) {
		return nil, source
	}

	pos := firstEnd + 1
	for pos < len(source) {
		end := bytes.IndexByte(source[pos:], '\n')
		lineEnd := len(source)
		next := len(source)
		if end >= 0 {
			lineEnd = pos + end
			next = lineEnd + 1
		}
		if bytes.Equal(bytes.TrimSpace(source[pos:lineEnd]), delimiter) {
			return bytes.TrimRight(source[:lineEnd], "\r"), source[next:]
		}
		pos = next
	}

	return nil, source
}

// ParseFrontmatter parses a raw frontmatter block including its delimiters.
// YAML, JSON and TOML are tried in this order.
func ParseFrontmatter(raw []byte) (*Frontmatter, error) {
	if len(raw) == 0 {
		return nil, nil
	}

	lines := bytes.Split(raw, []byte{'\n'})

	if len(lines) < 2 || !bytes.Equal(bytes.TrimSpace(lines[0]), bytes.TrimSpace(lines[len(lines)-1])) {
		return nil, errors.WithStack(ErrFrontmatterInvalid)
	}

	raw = bytes.Join(lines[1:len(lines)-1], []byte{'\n'})

	parsers := []func([]byte, any) error{
		yaml.Unmarshal,
		json.Unmarshal,
		toml.Unmarshal,
	}
	parsersNames := []string{
		frontmatterFormatYAML,
		frontmatterFormatJSON,
		frontmatterFormatTOML,
	}

	var firstError error

	for idx, parser := range parsers {
		var f Frontmatter
		err := parser(raw, &f)
		if err == nil {
			f.format = parsersNames[idx]
			f.raw = string(raw)
			return &f, nil
		}

		if firstError == nil {
			firstError = errors.Wrap(err, "failed to parse frontmatter content")
		}
	}

	return nil, firstError
}
