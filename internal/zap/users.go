package zap

import (
	"context"
	"fmt"
	"net/url"
	"strconv"
)

// Users wraps the users component.
type Users struct {
	c *Client
}

// UserInfo is one entry of users/view/usersList.
type UserInfo struct {
	ID        int
	Name      string
	Enabled   bool
	ContextID int
}

// List returns the users of contextID.
func (a *Users) List(ctx context.Context, contextID int) ([]UserInfo, error) {
	resp, err := a.c.view(ctx, "users", "usersList", url.Values{"contextId": {strconv.Itoa(contextID)}})
	if err != nil {
		return nil, err
	}
	var raw []struct {
		ID        string `json:"id"`
		Name      string `json:"name"`
		Enabled   string `json:"enabled"`
		ContextID string `json:"contextId"`
	}
	if err := resp.Decode("usersList", &raw); err != nil {
		return nil, err
	}
	users := make([]UserInfo, 0, len(raw))
	for _, r := range raw {
		id, err := strconv.Atoi(r.ID)
		if err != nil {
			return nil, fmt.Errorf("user %q: invalid id %q", r.Name, r.ID)
		}
		cid, _ := strconv.Atoi(r.ContextID)
		users = append(users, UserInfo{ID: id, Name: r.Name, Enabled: r.Enabled == "true", ContextID: cid})
	}
	return users, nil
}

// New creates a user in contextID and returns its id.
func (a *Users) New(ctx context.Context, contextID int, name string) (int, error) {
	resp, err := a.c.action(ctx, "users", "newUser", url.Values{
		"contextId": {strconv.Itoa(contextID)},
		"name":      {name},
	})
	if err != nil {
		return 0, err
	}
	return resp.Int("userId")
}

// SetAuthenticationCredentials stores credentials for a user. The params are
// passed to ZAP url-encoded, the way the authentication method expects them.
func (a *Users) SetAuthenticationCredentials(ctx context.Context, contextID, userID int, credentials url.Values) error {
	return expectOK(a.c.action(ctx, "users", "setAuthenticationCredentials", url.Values{
		"contextId":                   {strconv.Itoa(contextID)},
		"userId":                      {strconv.Itoa(userID)},
		"authCredentialsConfigParams": {credentials.Encode()},
	}))
}

// SetEnabled enables or disables a user.
func (a *Users) SetEnabled(ctx context.Context, contextID, userID int, enabled bool) error {
	return expectOK(a.c.action(ctx, "users", "setUserEnabled", url.Values{
		"contextId": {strconv.Itoa(contextID)},
		"userId":    {strconv.Itoa(userID)},
		"enabled":   {boolParam(enabled)},
	}))
}

// ForcedUser wraps the forcedUser component.
type ForcedUser struct {
	c *Client
}

// Set makes userID the forced user of contextID.
func (a *ForcedUser) Set(ctx context.Context, contextID, userID int) error {
	return expectOK(a.c.action(ctx, "forcedUser", "setForcedUser", url.Values{
		"contextId": {strconv.Itoa(contextID)},
		"userId":    {strconv.Itoa(userID)},
	}))
}

// SetModeEnabled turns forced-user mode on or off globally.
func (a *ForcedUser) SetModeEnabled(ctx context.Context, enabled bool) error {
	return expectOK(a.c.action(ctx, "forcedUser", "setForcedUserModeEnabled", url.Values{
		"boolean": {boolParam(enabled)},
	}))
}
