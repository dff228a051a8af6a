package scanner

import (
	"context"
	"fmt"

	"github.com/buemura/zapx/internal/zapconfig"
	"github.com/sirupsen/logrus"
)

// Reference is a context and user resolved to engine ids. Ids are -1 when
// the name was not given.
type Reference struct {
	ContextName string
	ContextID   int
	UserName    string
	UserID      int
}

// HasContext reports whether a context resolved to a valid id.
func (r Reference) HasContext() bool {
	return r.ContextName != "" && r.ContextID >= 0
}

// HasUser reports whether a user resolved to a valid id. A user only counts
// together with a valid context.
func (r Reference) HasUser() bool {
	return r.HasContext() && r.UserName != "" && r.UserID >= 0
}

// Resolver turns the context and user names of a section into engine ids.
// Ids ZAP assigned earlier in the run win, then ids given in the
// configuration; otherwise the engine is asked by name.
type Resolver struct {
	config   *zapconfig.Configuration
	contexts ContextAPI
	users    UsersAPI
	assigned *AssignedIDs
	log      logrus.FieldLogger
}

// NewResolver creates a resolver over cfg and the engine's context and user modules.
func NewResolver(cfg *zapconfig.Configuration, engine Engine, log logrus.FieldLogger) *Resolver {
	return &Resolver{config: cfg, contexts: engine.Context, users: engine.Users, assigned: engine.IDs, log: log}
}

// Resolve looks up contextName and, only when a context is given, userName.
// Unknown names are errors; an empty context name is allowed but warned about.
func (r *Resolver) Resolve(ctx context.Context, contextName, userName string) (Reference, error) {
	ref := Reference{ContextID: -1, UserID: -1}

	if contextName == "" {
		r.log.Warn("No context 'context: XYZ' referenced within the section. This is ok but maybe not intended.")
		if userName != "" {
			r.log.WithField("user", userName).Warn("Ignoring user: a user is only honored together with a context")
		}
		return ref, nil
	}
	if r.config == nil {
		return ref, fmt.Errorf("context %q: %w", contextName, zapconfig.ErrNotFound)
	}

	c, err := r.config.Contexts().ByName(contextName)
	if err != nil {
		return ref, err
	}
	id, err := r.contextID(ctx, c)
	if err != nil {
		return ref, err
	}
	ref.ContextName = c.Name
	ref.ContextID = id

	if userName == "" {
		return ref, nil
	}
	u, err := c.UserByName(userName)
	if err != nil {
		return ref, err
	}
	uid, err := r.userID(ctx, id, u)
	if err != nil {
		return ref, err
	}
	ref.UserName = u.Name
	ref.UserID = uid
	return ref, nil
}

func (r *Resolver) contextID(ctx context.Context, c *zapconfig.Context) (int, error) {
	if id, ok := r.assigned.Context(c.Name); ok {
		return id, nil
	}
	if c.ID != nil {
		return *c.ID, nil
	}
	info, err := r.contexts.View(ctx, c.Name)
	if err != nil {
		return -1, fmt.Errorf("looking up context %q in ZAP: %w", c.Name, err)
	}
	return info.ID, nil
}

func (r *Resolver) userID(ctx context.Context, contextID int, u *zapconfig.User) (int, error) {
	if id, ok := r.assigned.User(contextID, u.Name); ok {
		return id, nil
	}
	if u.ID != nil {
		return *u.ID, nil
	}
	users, err := r.users.List(ctx, contextID)
	if err != nil {
		return -1, fmt.Errorf("listing users of context %d: %w", contextID, err)
	}
	for _, info := range users {
		if info.Name == u.Name {
			return info.ID, nil
		}
	}
	return -1, fmt.Errorf("user %q in ZAP context %d: %w", u.Name, contextID, zapconfig.ErrNotFound)
}
