package hcloud

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"strings"
)

// Catalog reads resource listings from the CLI in JSON mode and projects
// them to name lists. A non-zero exit from the CLI yields an empty list;
// a payload that does not decode is a hard error, never an empty result.
type Catalog struct {
	run Runner
}

func NewCatalog(r Runner) *Catalog { return &Catalog{run: r} }

// linuxFamilies are the distribution tokens an image name must contain
// (case-insensitively) to be offered for deployment.
var linuxFamilies = []string{"ubuntu", "debian", "centos", "almalinux", "rocky", "fedora", "opensuse"}

func (c *Catalog) list(ctx context.Context, out any, args ...string) (bool, error) {
	ok, raw := c.run.Run(ctx, append(args, "-o", "json")...)
	if !ok {
		return false, nil
	}
	if err := json.Unmarshal([]byte(raw), out); err != nil {
		return false, fmt.Errorf("decode %s list: %w", args[0], err)
	}
	return true, nil
}

// names projects a plain listing to its name column, source order preserved.
func (c *Catalog) names(ctx context.Context, subcommand string) ([]string, error) {
	var items []struct {
		Name string `json:"name"`
	}
	ok, err := c.list(ctx, &items, subcommand, "list")
	if !ok || err != nil {
		return nil, err
	}
	out := make([]string, 0, len(items))
	for _, it := range items {
		out = append(out, it.Name)
	}
	return out, nil
}

// ServerTypes lists server type names. With a non-empty location only types
// priced in that location are included.
func (c *Catalog) ServerTypes(ctx context.Context, location string) ([]string, error) {
	var items []struct {
		Name   string `json:"name"`
		Prices []struct {
			Location string `json:"location"`
		} `json:"prices"`
	}
	ok, err := c.list(ctx, &items, "server-type", "list")
	if !ok || err != nil {
		return nil, err
	}
	var out []string
	for _, it := range items {
		if location == "" {
			out = append(out, it.Name)
			continue
		}
		for _, p := range it.Prices {
			if p.Location == location {
				out = append(out, it.Name)
				break
			}
		}
	}
	return out, nil
}

// Images lists system images of the known Linux families, deduplicated and
// sorted. User snapshots are excluded.
func (c *Catalog) Images(ctx context.Context) ([]string, error) {
	var items []struct {
		Name string `json:"name"`
		Type string `json:"type"`
	}
	ok, err := c.list(ctx, &items, "image", "list")
	if !ok || err != nil {
		return nil, err
	}
	seen := map[string]bool{}
	for _, it := range items {
		if it.Type != "system" {
			continue
		}
		lower := strings.ToLower(it.Name)
		for _, fam := range linuxFamilies {
			if strings.Contains(lower, fam) {
				seen[it.Name] = true
				break
			}
		}
	}
	out := make([]string, 0, len(seen))
	for name := range seen {
		out = append(out, name)
	}
	sort.Strings(out)
	return out, nil
}

func (c *Catalog) Locations(ctx context.Context) ([]string, error) {
	return c.names(ctx, "location")
}

func (c *Catalog) SSHKeys(ctx context.Context) ([]string, error) {
	return c.names(ctx, "ssh-key")
}

func (c *Catalog) Firewalls(ctx context.Context) ([]string, error) {
	return c.names(ctx, "firewall")
}

func (c *Catalog) Networks(ctx context.Context) ([]string, error) {
	return c.names(ctx, "network")
}

// Servers lists existing server names, used by the interactive delete flow.
func (c *Catalog) Servers(ctx context.Context) ([]string, error) {
	return c.names(ctx, "server")
}
