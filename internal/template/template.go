// Package template manages the named minutes templates that parameterize
// generation prompts and document structure.
package template

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// ErrUnknownTemplate is returned when a template name does not resolve.
var ErrUnknownTemplate = fmt.Errorf("unknown template")

// Info is the metadata parsed from a template's frontmatter.
type Info struct {
	Name        string   `yaml:"-"`
	DisplayName string   `yaml:"name"`
	Description string   `yaml:"description"`
	Tags        []string `yaml:"tags"`
}

// Template is a named document schema: an ordered section list plus the
// prompt preamble framing generation. Immutable after load.
type Template struct {
	Info        Info
	Content     string
	SectionList []string
	Preamble    string
}

// Registry loads and looks up templates. Builtins are always resolvable;
// files in the templates directory shadow them and add custom templates.
type Registry struct {
	dir string
}

// NewRegistry creates a registry over the given templates directory.
func NewRegistry(dir string) *Registry {
	return &Registry{dir: dir}
}

// InstallBuiltins writes the builtin templates into the templates directory
// so users can inspect and customize them. Existing files are left alone.
func (r *Registry) InstallBuiltins() error {
	if err := os.MkdirAll(r.dir, 0o755); err != nil {
		return fmt.Errorf("create templates dir: %w", err)
	}
	for name, content := range builtins {
		path := filepath.Join(r.dir, name+".md")
		if _, err := os.Stat(path); err == nil {
			continue
		}
		if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
			return fmt.Errorf("install template %s: %w", name, err)
		}
	}
	return nil
}

// Get resolves a template by name, preferring a file in the templates
// directory over the builtin of the same name.
func (r *Registry) Get(name string) (*Template, error) {
	var raw string
	path := filepath.Join(r.dir, name+".md")
	if data, err := os.ReadFile(path); err == nil {
		raw = string(data)
	} else if b, ok := builtins[name]; ok {
		raw = b
	} else {
		return nil, fmt.Errorf("%w: %s", ErrUnknownTemplate, name)
	}
	return parse(name, raw)
}

// List returns info for every resolvable template, builtins first.
func (r *Registry) List() ([]Info, error) {
	var infos []Info
	seen := map[string]bool{}

	for _, name := range builtinOrder {
		t, err := r.Get(name)
		if err != nil {
			continue
		}
		infos = append(infos, t.Info)
		seen[name] = true
	}

	entries, err := os.ReadDir(r.dir)
	if err != nil {
		if os.IsNotExist(err) {
			return infos, nil
		}
		return nil, fmt.Errorf("read templates dir: %w", err)
	}
	for _, e := range entries {
		name := strings.TrimSuffix(e.Name(), ".md")
		if name == e.Name() || seen[name] {
			continue
		}
		t, err := r.Get(name)
		if err != nil {
			continue
		}
		infos = append(infos, t.Info)
	}
	return infos, nil
}

var frontmatterRe = regexp.MustCompile(`(?s)^---\s*\n(.*?)\n---\s*\n(.*)$`)
var headingRe = regexp.MustCompile(`(?m)^##\s+(.+?)\s*$`)

func parse(name, raw string) (*Template, error) {
	info := Info{Name: name, DisplayName: name}
	content := raw
	preamble := ""

	if m := frontmatterRe.FindStringSubmatch(raw); m != nil {
		var fm struct {
			Info     `yaml:",inline"`
			Preamble string `yaml:"preamble"`
		}
		if err := yaml.Unmarshal([]byte(m[1]), &fm); err != nil {
			return nil, fmt.Errorf("parse template %s frontmatter: %w", name, err)
		}
		if fm.DisplayName != "" {
			info.DisplayName = fm.DisplayName
		}
		info.Description = fm.Description
		info.Tags = fm.Tags
		preamble = fm.Preamble
		content = m[2]
	}

	var sections []string
	for _, h := range headingRe.FindAllStringSubmatch(content, -1) {
		sections = append(sections, h[1])
	}

	return &Template{
		Info:        info,
		Content:     content,
		SectionList: sections,
		Preamble:    preamble,
	}, nil
}

// RenderContext carries the placeholder values available to templates.
type RenderContext struct {
	StartTime   time.Time
	EndTime     time.Time
	UpdateCount int
}

// Render substitutes {{placeholder}} values into the template body.
func (t *Template) Render(rc RenderContext) string {
	end := rc.EndTime
	if end.IsZero() {
		end = time.Now()
	}
	d := end.Sub(rc.StartTime)
	h := int(d.Hours())
	m := int(d.Minutes()) % 60
	s := int(d.Seconds()) % 60

	repl := strings.NewReplacer(
		"{{date}}", rc.StartTime.Format("2006-01-02"),
		"{{time}}", rc.StartTime.Format("15:04"),
		"{{end_time}}", end.Format("15:04"),
		"{{datetime}}", rc.StartTime.Format("2006-01-02 15:04:05"),
		"{{duration}}", fmt.Sprintf("%02d:%02d:%02d", h, m, s),
		"{{update_count}}", fmt.Sprintf("%d", rc.UpdateCount),
	)
	return repl.Replace(t.Content)
}
