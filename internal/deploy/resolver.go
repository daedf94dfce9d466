package deploy

import (
	"context"
	"fmt"
	"os"

	"github.com/hcup-dev/hcup/internal/core"
	"github.com/hcup-dev/hcup/internal/ui"
)

// CatalogSource is the slice of the resource catalog the resolver consults.
// Implementations return an empty list when the provider call fails and an
// error only when a listing payload cannot be decoded.
type CatalogSource interface {
	ServerTypes(ctx context.Context, location string) ([]string, error)
	Images(ctx context.Context) ([]string, error)
	Locations(ctx context.Context) ([]string, error)
	SSHKeys(ctx context.Context) ([]string, error)
	Firewalls(ctx context.Context) ([]string, error)
	Networks(ctx context.Context) ([]string, error)
}

// Inputs carries the explicit values for a deployment: flags, merged with
// manifest values by the CLI before resolution. Zero values mean unset.
type Inputs struct {
	Name          string
	Count         int
	Image         string
	Location      string
	ServerType    string
	SSHKey        string
	VolumeSize    int
	Firewall      string
	Network       string
	Tags          string
	CloudInitPath string

	Interactive bool
	DryRun      bool
}

// Resolver merges explicit input, persisted defaults, and interactive
// selection into one concrete Config. Fields resolve in a fixed order so
// each may depend only on earlier ones (server types are filtered by the
// already-resolved location).
type Resolver struct {
	Catalog  CatalogSource
	Prompt   Prompter
	Settings core.Settings
	Out      *ui.Printer
}

// Resolve produces the deployment plan. The single hard stop is an image
// selection with no options and no explicit image; every other optional
// field degrades to empty.
func (r *Resolver) Resolve(ctx context.Context, in Inputs) (*Config, error) {
	cfg := &Config{DryRun: in.DryRun}

	if in.Interactive {
		r.Out.Banner("Interactive Configuration")
	}

	if err := r.resolveNames(in, cfg); err != nil {
		return nil, err
	}
	if err := r.resolveImage(ctx, in, cfg); err != nil {
		return nil, err
	}
	if err := r.resolveLocation(ctx, in, cfg); err != nil {
		return nil, err
	}
	if err := r.resolveServerType(ctx, in, cfg); err != nil {
		return nil, err
	}
	if err := r.resolveSSHKey(ctx, in, cfg); err != nil {
		return nil, err
	}
	if err := r.resolveVolume(in, cfg); err != nil {
		return nil, err
	}
	if err := r.resolveFirewall(ctx, in, cfg); err != nil {
		return nil, err
	}
	if err := r.resolveNetwork(ctx, in, cfg); err != nil {
		return nil, err
	}
	if err := r.resolveTags(in, cfg); err != nil {
		return nil, err
	}
	if err := r.resolveCloudInit(in, cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

// resolveNames settles count and the instance name sequence. The count
// prompt only appears when no explicit name was given; a given name pins
// the auto-numbered scheme.
func (r *Resolver) resolveNames(in Inputs, cfg *Config) error {
	if in.Name != "" {
		cfg.Count = in.Count
		if cfg.Count < 1 {
			cfg.Count = 1
		}
		cfg.BaseName = in.Name
		cfg.InstanceNames = DeriveInstanceNames(in.Name, cfg.Count)
		return nil
	}

	count, err := r.Prompt.Int("How many servers to deploy?", 1, 1)
	if err != nil {
		return err
	}
	cfg.Count = count

	if count == 1 {
		name, err := r.Prompt.RequiredInput("Enter server name")
		if err != nil {
			return err
		}
		cfg.BaseName = name
		cfg.InstanceNames = []string{name}
		return nil
	}

	const (
		autoNumbered    = "Auto-numbered from a base name (base-001, base-002, ...)"
		individualNames = "Individual names for each server"
	)
	choice, err := r.Prompt.Select("Server naming", []string{autoNumbered, individualNames})
	if err != nil {
		return err
	}
	if choice == autoNumbered {
		base, err := r.Prompt.RequiredInput("Enter base server name")
		if err != nil {
			return err
		}
		cfg.BaseName = base
		cfg.InstanceNames = DeriveInstanceNames(base, count)
		return nil
	}
	names := make([]string, 0, count)
	for i := 0; i < count; i++ {
		name, err := r.Prompt.RequiredInput(fmt.Sprintf("Server %d name", i+1))
		if err != nil {
			return err
		}
		names = append(names, name)
	}
	cfg.BaseName = names[0]
	cfg.InstanceNames = names
	return nil
}

func (r *Resolver) resolveImage(ctx context.Context, in Inputs, cfg *Config) error {
	if in.Image != "" {
		cfg.Image = in.Image
		return nil
	}
	r.Out.Step("Fetching available images...")
	images, err := r.Catalog.Images(ctx)
	if err != nil {
		return err
	}
	if len(images) == 0 {
		return fmt.Errorf("no images available")
	}
	image, err := r.Prompt.Select("Select image", images)
	if err != nil {
		return err
	}
	cfg.Image = image
	return nil
}

func (r *Resolver) resolveLocation(ctx context.Context, in Inputs, cfg *Config) error {
	if in.Location != "" {
		cfg.Location = in.Location
		return nil
	}
	cfg.Location = r.Settings.DefaultLocation
	if !in.Interactive {
		return nil
	}
	r.Out.Step("Fetching available locations...")
	locations, err := r.Catalog.Locations(ctx)
	if err != nil {
		return err
	}
	if len(locations) == 0 {
		return nil
	}
	selected, err := r.Prompt.Select(fmt.Sprintf("Select location (current: %s)", cfg.Location), locations)
	if err != nil {
		return err
	}
	cfg.Location = selected
	return nil
}

func (r *Resolver) resolveServerType(ctx context.Context, in Inputs, cfg *Config) error {
	if in.ServerType != "" {
		cfg.ServerType = in.ServerType
		return nil
	}
	cfg.ServerType = r.Settings.DefaultServerType
	if !in.Interactive {
		return nil
	}
	r.Out.Step("Fetching available server types for %s...", cfg.Location)
	types, err := r.Catalog.ServerTypes(ctx, cfg.Location)
	if err != nil {
		return err
	}
	if len(types) == 0 {
		return nil
	}
	selected, err := r.Prompt.Select(fmt.Sprintf("Select server type (current: %s)", cfg.ServerType), types)
	if err != nil {
		return err
	}
	cfg.ServerType = selected
	return nil
}

// resolveSSHKey settles the key reference, or switches to a file upload when
// the operator picks the upload choice. A missing key file degrades to no
// key rather than failing the resolution.
func (r *Resolver) resolveSSHKey(ctx context.Context, in Inputs, cfg *Config) error {
	if in.SSHKey != "" {
		cfg.SSHKey = in.SSHKey
		return nil
	}
	cfg.SSHKey = r.Settings.DefaultSSHKey
	if !in.Interactive {
		return nil
	}
	r.Out.Step("Fetching available SSH keys...")
	keys, err := r.Catalog.SSHKeys(ctx)
	if err != nil {
		return err
	}
	if len(keys) == 0 {
		return nil
	}
	selected, upload, err := r.Prompt.SelectOrUpload("Select SSH key", keys)
	if err != nil {
		return err
	}
	if !upload {
		cfg.SSHKey = selected
		return nil
	}
	path, err := r.Prompt.Input("Enter path to SSH public key file")
	if err != nil {
		return err
	}
	cfg.SSHKey = ""
	if path == "" {
		return nil
	}
	if _, statErr := os.Stat(path); statErr != nil {
		r.Out.Failure("SSH key file not found: %s", path)
		return nil
	}
	cfg.SSHKeyFile = path
	return nil
}

func (r *Resolver) resolveVolume(in Inputs, cfg *Config) error {
	if in.VolumeSize > 0 || !in.Interactive {
		cfg.VolumeSize = in.VolumeSize
		return nil
	}
	size, err := r.Prompt.Int("Volume size in GB (0 for no volume)", 0, 0)
	if err != nil {
		return err
	}
	cfg.VolumeSize = size
	return nil
}

func (r *Resolver) resolveFirewall(ctx context.Context, in Inputs, cfg *Config) error {
	if in.Firewall != "" || !in.Interactive {
		cfg.Firewall = in.Firewall
		return nil
	}
	r.Out.Step("Fetching available firewalls...")
	firewalls, err := r.Catalog.Firewalls(ctx)
	if err != nil {
		return err
	}
	if len(firewalls) == 0 {
		return nil
	}
	selected, err := r.Prompt.SelectOptional("Select firewall", firewalls)
	if err != nil {
		return err
	}
	cfg.Firewall = selected
	return nil
}

func (r *Resolver) resolveNetwork(ctx context.Context, in Inputs, cfg *Config) error {
	if in.Network != "" || !in.Interactive {
		cfg.Network = in.Network
		return nil
	}
	r.Out.Step("Fetching available networks...")
	networks, err := r.Catalog.Networks(ctx)
	if err != nil {
		return err
	}
	if len(networks) == 0 {
		return nil
	}
	selected, err := r.Prompt.SelectOptional("Select network", networks)
	if err != nil {
		return err
	}
	cfg.Network = selected
	return nil
}

func (r *Resolver) resolveTags(in Inputs, cfg *Config) error {
	if in.Tags != "" || !in.Interactive {
		cfg.Tags = in.Tags
		if cfg.Tags == "" {
			cfg.Tags = r.Settings.DefaultTags
		}
		return nil
	}
	tags, err := r.Prompt.Input("Tags (key:value,key:value format, leave empty for none)")
	if err != nil {
		return err
	}
	if tags == "" {
		tags = r.Settings.DefaultTags
	}
	cfg.Tags = tags
	return nil
}

func (r *Resolver) resolveCloudInit(in Inputs, cfg *Config) error {
	if in.CloudInitPath != "" || !in.Interactive {
		cfg.CloudInitPath = in.CloudInitPath
		return nil
	}
	path, err := r.Prompt.Input("Cloud-init config file path (leave empty for none)")
	if err != nil {
		return err
	}
	cfg.CloudInitPath = path
	return nil
}
