package main

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	"github.com/wirecall/wirecall"
)

// parseHeaders converts "Name: Value" flag values into an http header.
func parseHeaders(headers []string) (http.Header, error) {
	header := http.Header{}
	for _, h := range headers {
		name, value, ok := strings.Cut(h, ":")
		if !ok {
			return nil, ErrExplain{
				fmt.Errorf("invalid header: %q", h),
				`Headers are given as "Name: Value" pairs.`,
			}
		}
		header.Add(strings.TrimSpace(name), strings.TrimSpace(value))
	}
	return header, nil
}

// parseParams converts command line parameters into call arguments. Each
// parameter is read as a JSON value, with bare words falling back to
// plain strings. With named set, parameters are name=value pairs that
// are collected into a single named argument set.
func parseParams(params []string, named bool) ([]interface{}, error) {
	if len(params) == 0 {
		return nil, nil
	}
	if !named {
		args := make([]interface{}, 0, len(params))
		for _, param := range params {
			args = append(args, parseValue(param))
		}
		return args, nil
	}

	kwargs := wirecall.Named{}
	for _, param := range params {
		name, value, ok := strings.Cut(param, "=")
		if !ok {
			return nil, ErrExplain{
				fmt.Errorf("invalid named parameter: %q", param),
				"Named parameters are given as name=value pairs, like scoops=2.",
			}
		}
		kwargs[name] = parseValue(value)
	}
	return []interface{}{kwargs}, nil
}

// parseValue reads a parameter as JSON. Anything that does not parse is
// passed through as a plain string, so bare words do not need
// shell-escaped quotes.
func parseValue(param string) interface{} {
	var value interface{}
	if err := json.Unmarshal([]byte(param), &value); err != nil {
		return param
	}
	return value
}
