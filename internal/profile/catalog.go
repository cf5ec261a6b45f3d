// Package profile resolves and validates weight profiles for the MCDA
// valuation pipeline.
package profile

import (
	"os"
	"path/filepath"
	"sort"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"
	"gopkg.in/yaml.v3"

	"github.com/sells-group/appraisal-cli/internal/model"
)

// Catalog maps profile names to validated weight profiles. Built-in
// profiles are always available; LoadDir adds or overrides from YAML
// files.
type Catalog struct {
	profiles map[string]model.WeightProfile
}

// NewCatalog returns a catalog seeded with the built-in profiles.
func NewCatalog() *Catalog {
	c := &Catalog{profiles: make(map[string]model.WeightProfile)}
	for _, p := range builtins() {
		c.profiles[p.Name] = p
	}
	return c
}

// LoadDir reads every .yaml/.yml file in dir and registers the profiles
// it declares. Each profile is validated at load time; a bad file fails
// the whole load rather than leaving the catalog half-populated.
func (c *Catalog) LoadDir(dir string) error {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return eris.Wrapf(err, "profile: read catalog dir %s", dir)
	}

	for _, entry := range entries {
		ext := filepath.Ext(entry.Name())
		if entry.IsDir() || (ext != ".yaml" && ext != ".yml") {
			continue
		}
		path := filepath.Join(dir, entry.Name())
		if err := c.loadFile(path); err != nil {
			return err
		}
	}
	return nil
}

func (c *Catalog) loadFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return eris.Wrapf(err, "profile: read %s", path)
	}

	var doc struct {
		Profiles []model.WeightProfile `yaml:"profiles"`
	}
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return eris.Wrapf(err, "profile: parse %s", path)
	}

	for _, p := range doc.Profiles {
		if err := Validate(&p); err != nil {
			return eris.Wrapf(err, "profile: %s in %s", p.Name, path)
		}
		c.profiles[p.Name] = p
		zap.L().Debug("profile: registered",
			zap.String("name", p.Name),
			zap.Int("attributes", len(p.Attributes)),
		)
	}
	return nil
}

// Resolve returns the named profile. The returned profile satisfies the
// weight-sum invariant; callers may use it without re-validating.
func (c *Catalog) Resolve(name string) (*model.WeightProfile, error) {
	p, ok := c.profiles[name]
	if !ok {
		return nil, eris.Errorf("profile: unknown profile %q (have: %v)", name, c.Names())
	}
	return &p, nil
}

// Names returns the registered profile names, sorted.
func (c *Catalog) Names() []string {
	names := make([]string, 0, len(c.profiles))
	for name := range c.profiles {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
