// Package contexts creates the configured contexts and their users in ZAP,
// so that later steps can refer to them by name.
package contexts

import (
	"context"
	"fmt"
	"net/url"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/buemura/zapx/internal/scanner"
	"github.com/buemura/zapx/internal/zap"
	"github.com/buemura/zapx/internal/zapconfig"
	"github.com/buemura/zapx/pkg/types"
	"github.com/sirupsen/logrus"
)

// codeContextNotFound is the API error code for an unknown context name.
const codeContextNotFound = "context_not_found"

// Configurator applies the contexts section of the configuration.
type Configurator struct {
	engine scanner.Engine
	config *zapconfig.Configuration
	log    logrus.FieldLogger
}

// New creates a context configurator step. cfg may be nil.
func New(engine scanner.Engine, cfg *zapconfig.Configuration, log logrus.FieldLogger) *Configurator {
	return &Configurator{engine: engine, config: cfg, log: log.WithField("step", "contexts")}
}

func (c *Configurator) Name() string        { return "contexts" }
func (c *Configurator) Description() string { return "Create the configured contexts and users in ZAP" }

// Run applies every configured context. The target is only reported.
func (c *Configurator) Run(ctx context.Context, target types.Target, _ scanner.Options) (*types.ScanResult, error) {
	result := &types.ScanResult{
		ScannerName: c.Name(),
		Target:      target,
		StartedAt:   time.Now(),
	}

	if c.config == nil || !c.config.Contexts().HasConfigurations() {
		c.log.Info("No contexts configured")
		result.CompletedAt = time.Now()
		return result, nil
	}

	for i := range c.config.Contexts() {
		sec := c.config.Contexts()[i]
		id, users, err := c.Apply(ctx, &sec)
		if err != nil {
			return nil, err
		}
		result.Findings = append(result.Findings, types.Finding{
			Title:       "Context " + sec.Name,
			Description: "Context configured in ZAP",
			Severity:    types.SeverityInfo,
			Evidence:    strings.Join(sec.IncludePaths, ", "),
			Metadata: map[string]string{
				"context_id": strconv.Itoa(id),
				"users":      strings.Join(users, ", "),
			},
		})
	}

	result.CompletedAt = time.Now()
	return result, nil
}

// Apply creates sec in the engine unless it exists, sets its scope and
// technologies, and sets up its users. It returns the engine's context id
// and the names of the users it set up.
func (c *Configurator) Apply(ctx context.Context, sec *zapconfig.Context) (int, []string, error) {
	log := c.log.WithField("context", sec.Name)

	if err := validatePatterns(sec); err != nil {
		return -1, nil, err
	}

	id, err := c.ensureContext(ctx, sec.Name)
	if err != nil {
		return -1, nil, err
	}
	if sec.ID != nil && *sec.ID != id {
		log.WithFields(logrus.Fields{"configured": *sec.ID, "actual": id}).
			Warn("Configured context id differs from the one ZAP assigned; ZAP's id is used for scans")
	}
	c.engine.IDs.SetContext(sec.Name, id)

	includes := sec.IncludePaths
	if len(includes) == 0 && sec.URL != "" {
		includes = []string{regexp.QuoteMeta(strings.TrimSuffix(sec.URL, "/")) + ".*"}
	}
	for _, re := range includes {
		if err := c.engine.Context.Include(ctx, sec.Name, re); err != nil {
			return -1, nil, fmt.Errorf("including %q in context %q: %w", re, sec.Name, err)
		}
	}
	for _, re := range sec.ExcludePaths {
		if err := c.engine.Context.Exclude(ctx, sec.Name, re); err != nil {
			return -1, nil, fmt.Errorf("excluding %q from context %q: %w", re, sec.Name, err)
		}
	}
	if sec.InScope != nil {
		if err := c.engine.Context.SetInScope(ctx, sec.Name, *sec.InScope); err != nil {
			return -1, nil, fmt.Errorf("setting scope of context %q: %w", sec.Name, err)
		}
	}
	if err := c.applyTechnologies(ctx, sec); err != nil {
		return -1, nil, err
	}

	var users []string
	for i := range sec.Users {
		if err := c.applyUser(ctx, id, sec.Name, &sec.Users[i]); err != nil {
			return -1, nil, err
		}
		users = append(users, sec.Users[i].Name)
	}

	log.WithFields(logrus.Fields{"context_id": id, "users": len(users)}).Info("Context configured")
	return id, users, nil
}

// validatePatterns compiles the include and exclude paths so that a typo
// fails before anything is created in the engine. ZAP uses Java regexes;
// patterns RE2 cannot parse (lookarounds, backreferences) are rejected too.
func validatePatterns(sec *zapconfig.Context) error {
	for _, re := range append(append([]string(nil), sec.IncludePaths...), sec.ExcludePaths...) {
		if _, err := regexp.Compile(re); err != nil {
			return fmt.Errorf("context %q: invalid path pattern %q: %w", sec.Name, re, err)
		}
	}
	return nil
}

func (c *Configurator) ensureContext(ctx context.Context, name string) (int, error) {
	info, err := c.engine.Context.View(ctx, name)
	if err == nil {
		c.log.WithFields(logrus.Fields{"context": name, "context_id": info.ID}).Debug("Context already exists")
		return info.ID, nil
	}
	if !zap.IsAPIError(err, codeContextNotFound) {
		return -1, fmt.Errorf("looking up context %q: %w", name, err)
	}

	id, err := c.engine.Context.New(ctx, name)
	if err != nil {
		return -1, fmt.Errorf("creating context %q: %w", name, err)
	}
	c.log.WithFields(logrus.Fields{"context": name, "context_id": id}).Info("Context created")
	return id, nil
}

func (c *Configurator) applyTechnologies(ctx context.Context, sec *zapconfig.Context) error {
	tech := sec.Technologies
	if tech == nil {
		return nil
	}
	if err := c.engine.Context.IncludeAllTechnologies(ctx, sec.Name); err != nil {
		return fmt.Errorf("including all technologies in context %q: %w", sec.Name, err)
	}
	if len(tech.Include) > 0 {
		if err := c.engine.Context.IncludeTechnologies(ctx, sec.Name, tech.Include); err != nil {
			return fmt.Errorf("including technologies in context %q: %w", sec.Name, err)
		}
	}
	if len(tech.Exclude) > 0 {
		if err := c.engine.Context.ExcludeTechnologies(ctx, sec.Name, tech.Exclude); err != nil {
			return fmt.Errorf("excluding technologies from context %q: %w", sec.Name, err)
		}
	}
	return nil
}

func (c *Configurator) applyUser(ctx context.Context, contextID int, contextName string, u *zapconfig.User) error {
	log := c.log.WithFields(logrus.Fields{"context": contextName, "user": u.Name})

	uid, err := c.ensureUser(ctx, contextID, u.Name)
	if err != nil {
		return err
	}
	if u.ID != nil && *u.ID != uid {
		log.WithFields(logrus.Fields{"configured": *u.ID, "actual": uid}).
			Warn("Configured user id differs from the one ZAP assigned; ZAP's id is used for scans")
	}
	c.engine.IDs.SetUser(contextID, u.Name, uid)

	if u.Username != "" {
		creds := url.Values{"username": {u.Username}, "password": {u.Password}}
		if err := c.engine.Users.SetAuthenticationCredentials(ctx, contextID, uid, creds); err != nil {
			return fmt.Errorf("setting credentials of user %q: %w", u.Name, err)
		}
	} else {
		log.Warn("User has no username; authentication credentials are left unset")
	}
	if err := c.engine.Users.SetEnabled(ctx, contextID, uid, true); err != nil {
		return fmt.Errorf("enabling user %q: %w", u.Name, err)
	}

	if u.Forced {
		if err := c.engine.ForcedUser.Set(ctx, contextID, uid); err != nil {
			return fmt.Errorf("forcing user %q: %w", u.Name, err)
		}
		if err := c.engine.ForcedUser.SetModeEnabled(ctx, true); err != nil {
			return fmt.Errorf("enabling forced user mode: %w", err)
		}
		log.Info("Forced user mode enabled")
	}

	log.WithField("user_id", uid).Debug("User configured")
	return nil
}

func (c *Configurator) ensureUser(ctx context.Context, contextID int, name string) (int, error) {
	existing, err := c.engine.Users.List(ctx, contextID)
	if err != nil {
		return -1, fmt.Errorf("listing users of context %d: %w", contextID, err)
	}
	for _, u := range existing {
		if u.Name == name {
			return u.ID, nil
		}
	}
	id, err := c.engine.Users.New(ctx, contextID, name)
	if err != nil {
		return -1, fmt.Errorf("creating user %q: %w", name, err)
	}
	return id, nil
}
