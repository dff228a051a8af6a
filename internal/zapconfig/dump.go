package zapconfig

import (
	"fmt"
	"io"

	"gopkg.in/yaml.v3"
)

const redacted = "********"

// Dump writes the merged configuration as YAML. Passwords are redacted.
func (c *Configuration) Dump(w io.Writer) error {
	doc := struct {
		Contexts []Context    `yaml:"contexts,omitempty"`
		Spiders  []Spider     `yaml:"spiders,omitempty"`
		Scanners []ActiveScan `yaml:"scanners,omitempty"`
	}{
		Spiders:  c.spiders,
		Scanners: c.scanners,
	}
	for _, ctx := range c.contexts {
		users := make([]User, len(ctx.Users))
		for i, u := range ctx.Users {
			if u.Password != "" {
				u.Password = redacted
			}
			users[i] = u
		}
		ctx.Users = users
		doc.Contexts = append(doc.Contexts, ctx)
	}

	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(doc); err != nil {
		return fmt.Errorf("encoding config: %w", err)
	}
	return enc.Close()
}
