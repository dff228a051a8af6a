package zap

import (
	"context"
	"net/url"
	"strconv"
	"strings"
)

// Context wraps the context component.
type Context struct {
	c *Client
}

// ContextInfo is the subset of context/view/context this tool needs.
type ContextInfo struct {
	ID      int
	Name    string
	InScope bool
}

// View looks up a context by name. An unknown name yields an *APIError.
func (a *Context) View(ctx context.Context, name string) (*ContextInfo, error) {
	resp, err := a.c.view(ctx, "context", "context", url.Values{"contextName": {name}})
	if err != nil {
		return nil, err
	}
	var raw struct {
		ID      string `json:"id"`
		Name    string `json:"name"`
		InScope string `json:"inScope"`
	}
	if err := resp.Decode("context", &raw); err != nil {
		return nil, err
	}
	id, err := strconv.Atoi(raw.ID)
	if err != nil {
		return nil, err
	}
	return &ContextInfo{ID: id, Name: raw.Name, InScope: raw.InScope == "true"}, nil
}

// New creates a context and returns its id.
func (a *Context) New(ctx context.Context, name string) (int, error) {
	resp, err := a.c.action(ctx, "context", "newContext", url.Values{"contextName": {name}})
	if err != nil {
		return 0, err
	}
	return resp.Int("contextId")
}

// Include adds regex to the include list of contextName.
func (a *Context) Include(ctx context.Context, contextName, regex string) error {
	return expectOK(a.c.action(ctx, "context", "includeInContext", url.Values{
		"contextName": {contextName},
		"regex":       {regex},
	}))
}

// Exclude adds regex to the exclude list of contextName.
func (a *Context) Exclude(ctx context.Context, contextName, regex string) error {
	return expectOK(a.c.action(ctx, "context", "excludeFromContext", url.Values{
		"contextName": {contextName},
		"regex":       {regex},
	}))
}

// SetInScope marks contextName in or out of scope.
func (a *Context) SetInScope(ctx context.Context, contextName string, inScope bool) error {
	return expectOK(a.c.action(ctx, "context", "setContextInScope", url.Values{
		"contextName":    {contextName},
		"booleanInScope": {boolParam(inScope)},
	}))
}

// IncludeAllTechnologies enables every technology for contextName.
func (a *Context) IncludeAllTechnologies(ctx context.Context, contextName string) error {
	return expectOK(a.c.action(ctx, "context", "includeAllContextTechnologies", url.Values{
		"contextName": {contextName},
	}))
}

// IncludeTechnologies enables the named technologies for contextName.
func (a *Context) IncludeTechnologies(ctx context.Context, contextName string, names []string) error {
	return expectOK(a.c.action(ctx, "context", "includeContextTechnologies", url.Values{
		"contextName":     {contextName},
		"technologyNames": {strings.Join(names, ",")},
	}))
}

// ExcludeTechnologies disables the named technologies for contextName.
func (a *Context) ExcludeTechnologies(ctx context.Context, contextName string, names []string) error {
	return expectOK(a.c.action(ctx, "context", "excludeContextTechnologies", url.Values{
		"contextName":     {contextName},
		"technologyNames": {strings.Join(names, ",")},
	}))
}
