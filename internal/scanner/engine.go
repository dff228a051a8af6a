package scanner

import (
	"context"
	"net/url"

	"github.com/buemura/zapx/internal/zap"
)

// OptionSetter is implemented by every engine module with setOption* calls.
type OptionSetter interface {
	SetOptionInteger(ctx context.Context, name string, v int) (string, error)
	SetOptionBoolean(ctx context.Context, name string, v bool) (string, error)
	SetOptionString(ctx context.Context, name string, v string) (string, error)
}

// CoreAPI is the part of the core module the steps use.
type CoreAPI interface {
	AccessURL(ctx context.Context, rawURL string) error
	URLs(ctx context.Context, baseURL string) ([]string, error)
	Alerts(ctx context.Context, baseURL string, start, count int) ([]zap.Alert, error)
}

// SpiderAPI is the traditional HTTP spider.
type SpiderAPI interface {
	OptionSetter
	RemoveAllScans(ctx context.Context) error
	Scan(ctx context.Context, rawURL, contextName string) (string, error)
	ScanAsUser(ctx context.Context, rawURL string, contextID, userID int) (string, error)
	Status(ctx context.Context, scanID int) (int, error)
	Results(ctx context.Context, scanID int) ([]string, error)
}

// AjaxSpiderAPI is the browser-driven AJAX spider.
type AjaxSpiderAPI interface {
	OptionSetter
	Scan(ctx context.Context, rawURL string, inScope bool, contextName string, subtreeOnly bool) (string, error)
	ScanAsUser(ctx context.Context, contextName, userName, rawURL string, subtreeOnly bool) (string, error)
	Status(ctx context.Context) (string, error)
	Stop(ctx context.Context) error
	NumberOfResults(ctx context.Context) (int, error)
}

// AscanAPI is the active scanner.
type AscanAPI interface {
	OptionSetter
	RemoveAllScans(ctx context.Context) error
	Scan(ctx context.Context, p zap.ScanParams) (string, error)
	ScanAsUser(ctx context.Context, p zap.ScanParams, userID int) (string, error)
	Status(ctx context.Context, scanID int) (int, error)
}

// ContextAPI manages contexts.
type ContextAPI interface {
	View(ctx context.Context, name string) (*zap.ContextInfo, error)
	New(ctx context.Context, name string) (int, error)
	Include(ctx context.Context, contextName, regex string) error
	Exclude(ctx context.Context, contextName, regex string) error
	SetInScope(ctx context.Context, contextName string, inScope bool) error
	IncludeAllTechnologies(ctx context.Context, contextName string) error
	IncludeTechnologies(ctx context.Context, contextName string, names []string) error
	ExcludeTechnologies(ctx context.Context, contextName string, names []string) error
}

// UsersAPI manages context users.
type UsersAPI interface {
	List(ctx context.Context, contextID int) ([]zap.UserInfo, error)
	New(ctx context.Context, contextID int, name string) (int, error)
	SetAuthenticationCredentials(ctx context.Context, contextID, userID int, credentials url.Values) error
	SetEnabled(ctx context.Context, contextID, userID int, enabled bool) error
}

// ForcedUserAPI manages the forced-user mode.
type ForcedUserAPI interface {
	Set(ctx context.Context, contextID, userID int) error
	SetModeEnabled(ctx context.Context, enabled bool) error
}

// Engine groups the engine modules the steps talk to.
type Engine struct {
	Core       CoreAPI
	Spider     SpiderAPI
	AjaxSpider AjaxSpiderAPI
	Ascan      AscanAPI
	Context    ContextAPI
	Users      UsersAPI
	ForcedUser ForcedUserAPI
	// IDs is shared by every step built from this engine.
	IDs *AssignedIDs
}

// EngineFromClient wires an Engine to a live ZAP client.
func EngineFromClient(c *zap.Client) Engine {
	return Engine{
		Core:       c.Core,
		Spider:     c.Spider,
		AjaxSpider: c.AjaxSpider,
		Ascan:      c.Ascan,
		Context:    c.Context,
		Users:      c.Users,
		ForcedUser: c.ForcedUser,
		IDs:        NewAssignedIDs(),
	}
}
