package zapconfig

// Optional members are pointers: nil means the key was absent or null.

// Context is one scan context: a named scope of URLs and users.
type Context struct {
	Name         string        `mapstructure:"name" yaml:"name"`
	ID           *int          `mapstructure:"id" yaml:"id,omitempty"`
	URL          string        `mapstructure:"url" yaml:"url,omitempty"`
	IncludePaths []string      `mapstructure:"includePaths" yaml:"includePaths,omitempty"`
	ExcludePaths []string      `mapstructure:"excludePaths" yaml:"excludePaths,omitempty"`
	InScope      *bool         `mapstructure:"inScope" yaml:"inScope,omitempty"`
	Technologies *Technologies `mapstructure:"technologies" yaml:"technologies,omitempty"`
	Users        []User        `mapstructure:"users" yaml:"users,omitempty"`
}

// Technologies narrows the technologies ZAP assumes for a context.
type Technologies struct {
	Include []string `mapstructure:"include" yaml:"include,omitempty"`
	Exclude []string `mapstructure:"exclude" yaml:"exclude,omitempty"`
}

// User is a user of a context.
type User struct {
	Name     string `mapstructure:"name" yaml:"name"`
	ID       *int   `mapstructure:"id" yaml:"id,omitempty"`
	Username string `mapstructure:"username" yaml:"username,omitempty"`
	Password string `mapstructure:"password" yaml:"password,omitempty"`
	Forced   bool   `mapstructure:"forced" yaml:"forced,omitempty"`
}

// Spider is one spider section. HTTP and AJAX spiders share the section
// type; Ajax selects which engine runs it and each engine reads its own keys.
type Spider struct {
	Name    string `mapstructure:"name" yaml:"name"`
	Context string `mapstructure:"context" yaml:"context,omitempty"`
	User    string `mapstructure:"user" yaml:"user,omitempty"`
	URL     string `mapstructure:"url" yaml:"url,omitempty"`
	Ajax    bool   `mapstructure:"ajax" yaml:"ajax,omitempty"`

	// Shared by both engines.
	MaxDuration *int `mapstructure:"maxDuration" yaml:"maxDuration,omitempty"`

	// HTTP spider.
	MaxDepth                     *int    `mapstructure:"maxDepth" yaml:"maxDepth,omitempty"`
	MaxChildren                  *int    `mapstructure:"maxChildren" yaml:"maxChildren,omitempty"`
	MaxParseSizeBytes            *int    `mapstructure:"maxParseSizeBytes" yaml:"maxParseSizeBytes,omitempty"`
	AcceptCookies                *bool   `mapstructure:"acceptCookies" yaml:"acceptCookies,omitempty"`
	HandleODataParametersVisited *bool   `mapstructure:"handleODataParametersVisited" yaml:"handleODataParametersVisited,omitempty"`
	HandleParameters             *string `mapstructure:"handleParameters" yaml:"handleParameters,omitempty"`
	ParseComments                *bool   `mapstructure:"parseComments" yaml:"parseComments,omitempty"`
	ParseGit                     *bool   `mapstructure:"parseGit" yaml:"parseGit,omitempty"`
	ParseRobotsTxt               *bool   `mapstructure:"parseRobotsTxt" yaml:"parseRobotsTxt,omitempty"`
	ParseSitemapXML              *bool   `mapstructure:"parseSitemapXml" yaml:"parseSitemapXml,omitempty"`
	ParseSVNEntries              *bool   `mapstructure:"parseSVNEntries" yaml:"parseSVNEntries,omitempty"`
	PostForm                     *bool   `mapstructure:"postForm" yaml:"postForm,omitempty"`
	ProcessForm                  *bool   `mapstructure:"processForm" yaml:"processForm,omitempty"`
	RequestWaitTime              *int    `mapstructure:"requestWaitTime" yaml:"requestWaitTime,omitempty"`
	SendRefererHeader            *bool   `mapstructure:"sendRefererHeader" yaml:"sendRefererHeader,omitempty"`
	ThreadCount                  *int    `mapstructure:"threadCount" yaml:"threadCount,omitempty"`
	UserAgent                    *string `mapstructure:"userAgent" yaml:"userAgent,omitempty"`

	// AJAX spider.
	InScope           *bool   `mapstructure:"inScope" yaml:"inScope,omitempty"`
	SubtreeOnly       *bool   `mapstructure:"subtreeOnly" yaml:"subtreeOnly,omitempty"`
	BrowserID         *string `mapstructure:"browserId" yaml:"browserId,omitempty"`
	MaxCrawlStates    *int    `mapstructure:"maxCrawlStates" yaml:"maxCrawlStates,omitempty"`
	MaxCrawlDepth     *int    `mapstructure:"maxCrawlDepth" yaml:"maxCrawlDepth,omitempty"`
	NumberOfBrowsers  *int    `mapstructure:"numberOfBrowsers" yaml:"numberOfBrowsers,omitempty"`
	ClickDefaultElems *bool   `mapstructure:"clickDefaultElems" yaml:"clickDefaultElems,omitempty"`
	ClickElemsOnce    *bool   `mapstructure:"clickElemsOnce" yaml:"clickElemsOnce,omitempty"`
	EventWait         *int    `mapstructure:"eventWait" yaml:"eventWait,omitempty"`
	RandomInputs      *bool   `mapstructure:"randomInputs" yaml:"randomInputs,omitempty"`
	ReloadWait        *int    `mapstructure:"reloadWait" yaml:"reloadWait,omitempty"`
}

// ActiveScan is one active scanner section ("scanners" in the files).
type ActiveScan struct {
	Name        string `mapstructure:"name" yaml:"name"`
	Context     string `mapstructure:"context" yaml:"context,omitempty"`
	User        string `mapstructure:"user" yaml:"user,omitempty"`
	URL         string `mapstructure:"url" yaml:"url,omitempty"`
	Recurse     *bool  `mapstructure:"recurse" yaml:"recurse,omitempty"`
	InScopeOnly *bool  `mapstructure:"inScopeOnly" yaml:"inScopeOnly,omitempty"`
	Policy      string `mapstructure:"policy" yaml:"policy,omitempty"`

	MaxRuleDurationInMins  *int    `mapstructure:"maxRuleDurationInMins" yaml:"maxRuleDurationInMins,omitempty"`
	MaxScanDurationInMins  *int    `mapstructure:"maxScanDurationInMins" yaml:"maxScanDurationInMins,omitempty"`
	ThreadPerHost          *int    `mapstructure:"threadPerHost" yaml:"threadPerHost,omitempty"`
	DelayInMs              *int    `mapstructure:"delayInMs" yaml:"delayInMs,omitempty"`
	AddQueryParam          *bool   `mapstructure:"addQueryParam" yaml:"addQueryParam,omitempty"`
	HandleAntiCSRFTokens   *bool   `mapstructure:"handleAntiCSRFTokens" yaml:"handleAntiCSRFTokens,omitempty"`
	InjectPluginIDInHeader *bool   `mapstructure:"injectPluginIdInHeader" yaml:"injectPluginIdInHeader,omitempty"`
	ScanHeadersAllRequests *bool   `mapstructure:"scanHeadersAllRequests" yaml:"scanHeadersAllRequests,omitempty"`
	DefaultPolicy          *string `mapstructure:"defaultPolicy" yaml:"defaultPolicy,omitempty"`
}
