package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/hcup-dev/hcup/internal/core"
	"github.com/hcup-dev/hcup/internal/deploy"
	"github.com/hcup-dev/hcup/internal/hcloud"
	"github.com/hcup-dev/hcup/internal/ui"
)

// Deploy one or more servers
func newDeployCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "deploy",
		Short: "Deploy one or more cloud servers",
		Long: `Deploy resolves the server configuration from flags, an optional YAML
manifest, persisted .env defaults, and interactive prompts, then provisions
each instance in order. Missing name or image switches to interactive mode.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			settings, runner, out, err := newSession(cmd)
			if err != nil {
				return err
			}

			in, err := gatherInputs(cmd)
			if err != nil {
				return err
			}

			resolver := &deploy.Resolver{
				Catalog:  hcloud.NewCatalog(runner),
				Prompt:   deploy.TerminalPrompter{},
				Settings: settings,
				Out:      out,
			}
			cfg, err := resolver.Resolve(cmd.Context(), in)
			if err != nil {
				return err
			}

			printPlan(out, cfg)

			exec := deploy.NewExecutor(runner, out)
			res, err := exec.Deploy(cmd.Context(), cfg)
			if err != nil {
				return err
			}
			if !res.AllSucceeded() {
				return fmt.Errorf("deployed %d/%d servers", res.Succeeded, res.Attempted)
			}
			return nil
		},
	}

	cmd.Flags().StringP("name", "n", "", "server name (base name for multiple instances)")
	cmd.Flags().IntP("count", "c", 0, "number of instances to create (default 1)")
	cmd.Flags().StringP("image", "i", "", "server image (e.g. ubuntu-24.04)")
	cmd.Flags().StringP("location", "l", "", "server location (e.g. nbg1, ash)")
	cmd.Flags().StringP("server-type", "s", "", "server type (e.g. cpx11, cpx21)")
	cmd.Flags().StringP("ssh-key", "k", "", "SSH key name")
	cmd.Flags().IntP("volume-size", "v", 0, "volume size in GB (0 for no volume)")
	cmd.Flags().StringP("firewall", "w", "", "firewall name")
	cmd.Flags().String("network", "", "network name")
	cmd.Flags().String("tags", "", "tags in key:value,key:value format")
	cmd.Flags().String("cloud-config", "", "path to a cloud-init configuration file")
	cmd.Flags().String("manifest", "", "path to a YAML deployment manifest")
	cmd.Flags().Bool("interactive", false, "resolve every unset field interactively")
	cmd.Flags().Bool("dry-run", false, "show provider commands without executing them")
	return cmd
}

// gatherInputs merges flag values over an optional manifest. Flags win;
// manifest values fill whatever the command line left unset.
func gatherInputs(cmd *cobra.Command) (deploy.Inputs, error) {
	flags := cmd.Flags()
	in := deploy.Inputs{}
	in.Name, _ = flags.GetString("name")
	in.Count, _ = flags.GetInt("count")
	in.Image, _ = flags.GetString("image")
	in.Location, _ = flags.GetString("location")
	in.ServerType, _ = flags.GetString("server-type")
	in.SSHKey, _ = flags.GetString("ssh-key")
	in.VolumeSize, _ = flags.GetInt("volume-size")
	in.Firewall, _ = flags.GetString("firewall")
	in.Network, _ = flags.GetString("network")
	in.Tags, _ = flags.GetString("tags")
	in.CloudInitPath, _ = flags.GetString("cloud-config")
	in.DryRun, _ = flags.GetBool("dry-run")

	if manifestPath, _ := flags.GetString("manifest"); manifestPath != "" {
		m, err := core.LoadManifest(manifestPath)
		if err != nil {
			return in, err
		}
		applyManifest(&in, m)
	}

	interactive, _ := flags.GetBool("interactive")
	in.Interactive = interactive || in.Name == "" || in.Image == ""
	return in, nil
}

func applyManifest(in *deploy.Inputs, m core.Manifest) {
	if in.Name == "" {
		in.Name = m.Name
	}
	if in.Count == 0 {
		in.Count = m.Count
	}
	if in.Image == "" {
		in.Image = m.Image
	}
	if in.Location == "" {
		in.Location = m.Location
	}
	if in.ServerType == "" {
		in.ServerType = m.ServerType
	}
	if in.SSHKey == "" {
		in.SSHKey = m.SSHKey
	}
	if in.VolumeSize == 0 {
		in.VolumeSize = m.VolumeSize
	}
	if in.Firewall == "" {
		in.Firewall = m.Firewall
	}
	if in.Network == "" {
		in.Network = m.Network
	}
	if in.Tags == "" {
		in.Tags = m.Tags
	}
	if in.CloudInitPath == "" {
		in.CloudInitPath = m.CloudConfig
	}
}

func printPlan(out *ui.Printer, cfg *deploy.Config) {
	out.Printf("\n")
	out.Banner("Hetzner Cloud Server Deployment")
	out.Info("Configuration:")
	out.Printf("  Server Name: %s\n", cfg.BaseName)
	out.Printf("  Server Count: %d\n", cfg.Count)
	out.Printf("  Server Type: %s\n", cfg.ServerType)
	out.Printf("  Image: %s\n", cfg.Image)
	out.Printf("  Location: %s\n", cfg.Location)
	out.Printf("  SSH Key: %s\n", orNone(cfg.SSHKey, cfg.SSHKeyFile))
	if cfg.VolumeSize > 0 {
		out.Printf("  Volume: %dGB\n", cfg.VolumeSize)
	} else {
		out.Printf("  Volume: None\n")
	}
	out.Printf("  Firewall: %s\n", orNone(cfg.Firewall))
	out.Printf("  Network: %s\n", orNone(cfg.Network))
	out.Printf("  Tags: %s\n", orNone(cfg.Tags))
	out.Printf("  Cloud-Init Config: %s\n", orNone(cfg.CloudInitPath))
	out.Printf("  Dry Run: %v\n", cfg.DryRun)
	out.Printf("\n")
}

func orNone(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return "None"
}
