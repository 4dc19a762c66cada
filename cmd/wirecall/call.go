package main

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/url"
	"os"

	"github.com/wirecall/wirecall"
	"github.com/wirecall/wirecall/ws"
)

func runCall(configPath string, options callOptions, notify bool) error {
	client, err := dialEndpoint(configPath, options.Args.Endpoint, options.Header)
	if err != nil {
		return err
	}
	defer client.Close()

	args, err := parseParams(options.Args.Params, options.Named)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(context.Background(), options.Timeout)
	defer cancel()

	if notify {
		return client.Notify(ctx, options.Args.Method, args...)
	}

	var result json.RawMessage
	if err := client.Call(ctx, &result, options.Args.Method, args...); err != nil {
		return err
	}
	return printResult(os.Stdout, result)
}

// printResult renders a result value as indented JSON.
func printResult(w io.Writer, result json.RawMessage) error {
	var buf bytes.Buffer
	if err := json.Indent(&buf, result, "", "  "); err != nil {
		return err
	}
	buf.WriteByte('\n')
	_, err := buf.WriteTo(w)
	return err
}

// dialEndpoint resolves an endpoint URL or config alias and connects a
// client over the scheme-appropriate transport.
func dialEndpoint(configPath, endpoint string, headerFlags []string) (*wirecall.Client, error) {
	config, err := loadConfig(findConfig(configPath))
	if err != nil {
		return nil, err
	}
	cfg, err := resolveEndpoint(endpoint, config)
	if err != nil {
		return nil, err
	}

	header, err := parseHeaders(headerFlags)
	if err != nil {
		return nil, err
	}
	for name, value := range cfg.Headers {
		if header.Get(name) == "" {
			header.Set(name, value)
		}
	}

	u, err := url.Parse(cfg.URL)
	if err != nil {
		return nil, ErrExplain{err, fmt.Sprintf("Could not parse the endpoint URL %q.", cfg.URL)}
	}
	switch u.Scheme {
	case "ws", "wss":
		if len(header) > 0 || cfg.Username != "" {
			logger.Warning("Headers and basic auth are not sent over websocket connections, ignoring them.")
		}
		logger.Infof("Connecting to websocket endpoint: %s", cfg.URL)
		ctx, cancel := context.WithTimeout(context.Background(), dialTimeout)
		defer cancel()
		transport, err := ws.Dial(ctx, cfg.URL)
		if err != nil {
			return nil, ErrExplain{err, "Failed to connect to the websocket endpoint."}
		}
		return wirecall.NewClient(wrapDebug(u.Host, transport)), nil
	default:
		transport := &wirecall.HTTPTransport{
			Endpoint: cfg.URL,
			Header:   header,
			Username: cfg.Username,
			Password: cfg.Password,
		}
		return wirecall.NewClient(wrapDebug(u.Host, transport)), nil
	}
}

func wrapDebug(label string, transport wirecall.Transport) wirecall.Transport {
	if !debugRPC {
		return transport
	}
	return wirecall.DebugTransport(label, transport)
}
