// Package zapconfig loads the declarative scan configuration: contexts with
// their users, spider sections and active scanner sections.
//
// A configuration is a directory of YAML files. All *.yaml and *.yml files
// are read in lexical order and deep-merged, so a base file can be refined
// by overlays (maps merge key by key, later scalars and lists win). The
// result is read-only: lookups hand out copies.
package zapconfig

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/spf13/viper"
)

// ErrNotFound is returned by lookups for names that are not configured.
var ErrNotFound = errors.New("not found")

// document is the merged file content.
type document struct {
	Contexts []Context    `mapstructure:"contexts"`
	Spiders  []Spider     `mapstructure:"spiders"`
	Scanners []ActiveScan `mapstructure:"scanners"`
}

// Configuration is the loaded, immutable scan configuration.
type Configuration struct {
	dir      string
	files    []string
	contexts Contexts
	spiders  Spiders
	scanners ActiveScans
}

// Load reads and merges every YAML file in dir.
func Load(dir string) (*Configuration, error) {
	info, err := os.Stat(dir)
	if err != nil {
		return nil, fmt.Errorf("reading config dir: %w", err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("config path %q is not a directory", dir)
	}

	files, err := yamlFiles(dir)
	if err != nil {
		return nil, err
	}
	if len(files) == 0 {
		return nil, fmt.Errorf("no YAML files in %q", dir)
	}

	v := viper.New()
	v.SetConfigType("yaml")
	for _, f := range files {
		if err := mergeFile(v, f); err != nil {
			return nil, err
		}
	}

	var doc document
	if err := v.Unmarshal(&doc); err != nil {
		return nil, fmt.Errorf("decoding config: %w", err)
	}

	return New(dir, files, doc.Contexts, doc.Spiders, doc.Scanners), nil
}

// New builds a Configuration from already decoded sections.
func New(dir string, files []string, contexts []Context, spiders []Spider, scanners []ActiveScan) *Configuration {
	return &Configuration{
		dir:      dir,
		files:    files,
		contexts: Contexts(contexts),
		spiders:  Spiders(spiders),
		scanners: ActiveScans(scanners),
	}
}

func yamlFiles(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("listing config dir: %w", err)
	}
	var files []string
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		switch strings.ToLower(filepath.Ext(e.Name())) {
		case ".yaml", ".yml":
			files = append(files, filepath.Join(dir, e.Name()))
		}
	}
	sort.Strings(files)
	return files, nil
}

func mergeFile(v *viper.Viper, path string) error {
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("opening %s: %w", path, err)
	}
	defer f.Close()

	if err := v.MergeConfig(f); err != nil {
		return fmt.Errorf("parsing %s: %w", path, err)
	}
	return nil
}

// Dir returns the directory the configuration was loaded from.
func (c *Configuration) Dir() string { return c.dir }

// Files returns the merged files in load order.
func (c *Configuration) Files() []string { return append([]string(nil), c.files...) }

// Contexts returns the context sections.
func (c *Configuration) Contexts() Contexts { return c.contexts }

// Spiders returns the spider sections.
func (c *Configuration) Spiders() Spiders { return c.spiders }

// Scanners returns the active scanner sections.
func (c *Configuration) Scanners() ActiveScans { return c.scanners }

// Contexts is the list of configured contexts.
type Contexts []Context

// HasConfigurations reports whether any context is configured.
func (cs Contexts) HasConfigurations() bool { return len(cs) > 0 }

// ByName returns a copy of the context called name.
func (cs Contexts) ByName(name string) (*Context, error) {
	for i := range cs {
		if cs[i].Name == name {
			c := cs[i]
			return &c, nil
		}
	}
	return nil, fmt.Errorf("context %q: %w", name, ErrNotFound)
}

// UserByName returns a copy of the user called name in this context.
func (c *Context) UserByName(name string) (*User, error) {
	for i := range c.Users {
		if c.Users[i].Name == name {
			u := c.Users[i]
			return &u, nil
		}
	}
	return nil, fmt.Errorf("user %q in context %q: %w", name, c.Name, ErrNotFound)
}

// Spiders is the list of configured spider sections.
type Spiders []Spider

// HasConfigurations reports whether any spider section is configured.
func (ss Spiders) HasConfigurations() bool { return len(ss) > 0 }

// ByName returns a copy of the spider section called name.
func (ss Spiders) ByName(name string) (*Spider, error) {
	for i := range ss {
		if ss[i].Name == name {
			s := ss[i]
			return &s, nil
		}
	}
	return nil, fmt.Errorf("spider %q: %w", name, ErrNotFound)
}

// ByURL returns the first section for the given engine whose url is a prefix
// of target, or nil when none matches.
func (ss Spiders) ByURL(target string, ajax bool) *Spider {
	for i := range ss {
		if ss[i].Ajax == ajax && matchesURL(ss[i].URL, target) {
			s := ss[i]
			return &s
		}
	}
	return nil
}

// ActiveScans is the list of configured active scanner sections.
type ActiveScans []ActiveScan

// HasConfigurations reports whether any active scanner section is configured.
func (as ActiveScans) HasConfigurations() bool { return len(as) > 0 }

// ByName returns a copy of the active scanner section called name.
func (as ActiveScans) ByName(name string) (*ActiveScan, error) {
	for i := range as {
		if as[i].Name == name {
			a := as[i]
			return &a, nil
		}
	}
	return nil, fmt.Errorf("scanner %q: %w", name, ErrNotFound)
}

// ByURL returns the first section whose url is a prefix of target, or nil.
func (as ActiveScans) ByURL(target string) *ActiveScan {
	for i := range as {
		if matchesURL(as[i].URL, target) {
			a := as[i]
			return &a
		}
	}
	return nil
}

func matchesURL(configured, target string) bool {
	if configured == "" || target == "" {
		return false
	}
	return strings.HasPrefix(strings.TrimSuffix(target, "/")+"/", strings.TrimSuffix(configured, "/")+"/")
}
