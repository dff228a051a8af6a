package zap

import (
	"context"
	"net/url"
	"strconv"
)

// options implements the setOption* family shared by spider, ajaxSpider and
// ascan. name is the option suffix, e.g. "MaxDepth" for setOptionMaxDepth.
type options struct {
	c         *Client
	component string
}

// SetOptionInteger calls setOption<name>?Integer=v and returns the result field.
func (o options) SetOptionInteger(ctx context.Context, name string, v int) (string, error) {
	return o.set(ctx, name, "Integer", strconv.Itoa(v))
}

// SetOptionBoolean calls setOption<name>?Boolean=v.
func (o options) SetOptionBoolean(ctx context.Context, name string, v bool) (string, error) {
	return o.set(ctx, name, "Boolean", boolParam(v))
}

// SetOptionString calls setOption<name>?String=v.
func (o options) SetOptionString(ctx context.Context, name string, v string) (string, error) {
	return o.set(ctx, name, "String", v)
}

func (o options) set(ctx context.Context, name, kind, value string) (string, error) {
	resp, err := o.c.action(ctx, o.component, "setOption"+name, url.Values{kind: {value}})
	if err != nil {
		return "", err
	}
	return resp.result()
}
