package main

import (
	"context"
	"fmt"
	"io"

	"github.com/leandromarcosmoreira/ClawController/pkg/client"
)

const defaultAPIURL = "http://127.0.0.1:8080/api"

// command runs the client subcommands against the watchdog API and writes JSON to out.
type command struct {
	out io.Writer
}

func (c command) client(f APIFlags) *client.Client {
	apiURL := f.APIUrl
	if apiURL == "" {
		apiURL = defaultAPIURL
	}
	return client.New(client.Config{
		BaseURL:  apiURL,
		Timeout:  f.APITimeout,
		Insecure: f.Insecure,
	})
}

func (c command) Status(ctx context.Context, f APIFlags) error {
	st, err := c.client(f).Status(ctx)
	if err != nil {
		return err
	}
	printJSON(c.out, st)
	return nil
}

func (c command) HealthCheck(ctx context.Context, f APIFlags) error {
	hc, err := c.client(f).HealthCheck(ctx)
	if err != nil {
		return err
	}
	printJSON(c.out, hc)
	if !hc.IsHealthy {
		return fmt.Errorf("gateway unhealthy: %s", hc.StatusMessage)
	}
	return nil
}

func (c command) Restart(ctx context.Context, f APIFlags) error {
	res, err := c.client(f).Restart(ctx)
	if err != nil {
		return err
	}
	printJSON(c.out, res)
	if !res.Success {
		return fmt.Errorf("restart failed: %s", res.Message)
	}
	return nil
}

func (c command) Activity(ctx context.Context, f ActivityFlags) error {
	if f.Limit < 1 || f.Limit > 500 {
		return fmt.Errorf("--limit must be between 1 and 500, got %d", f.Limit)
	}
	entries, err := c.client(f.APIFlags).Activity(ctx, f.Limit)
	if err != nil {
		return err
	}
	printJSON(c.out, entries)
	return nil
}
