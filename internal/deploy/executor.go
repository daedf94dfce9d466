package deploy

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/hcup-dev/hcup/internal/hcloud"
	"github.com/hcup-dev/hcup/internal/ui"
)

// DefaultSettleDelay is how long a freshly created server gets to settle
// before its details are fetched. A fixed pause, not a poll loop.
const DefaultSettleDelay = 3 * time.Second

// Executor drives the provisioning sequence for a batch: an optional
// one-time key upload, then per instance an optional volume, the server
// create, and a best-effort connection summary. Failures are local to one
// instance; nothing is retried or rolled back.
type Executor struct {
	Run         hcloud.Runner
	Out         *ui.Printer
	SettleDelay time.Duration
	Now         func() time.Time
}

func NewExecutor(r hcloud.Runner, out *ui.Printer) *Executor {
	return &Executor{Run: r, Out: out, SettleDelay: DefaultSettleDelay, Now: time.Now}
}

// serverDescription is the slice of the describe payload the summary needs.
type serverDescription struct {
	PublicNet struct {
		IPv4 struct {
			IP string `json:"ip"`
		} `json:"ipv4"`
	} `json:"public_net"`
	PrivateNet []struct {
		IP string `json:"ip"`
	} `json:"private_net"`
}

// Deploy executes the batch strictly in order and returns the tally. Two
// error cases abort the batch: the one-time SSH key upload failing before
// any instance is attempted, and the context being cancelled between
// instances, which surfaces as ErrCancelled with the tally so far.
// Per-instance failures are counted, not returned.
func (e *Executor) Deploy(ctx context.Context, cfg *Config) (BatchResult, error) {
	res := BatchResult{Attempted: cfg.Count}

	if cfg.SSHKeyFile != "" {
		keyName, err := e.uploadSSHKey(ctx, cfg)
		if err != nil {
			return res, err
		}
		cfg.SSHKey = keyName
	}

	for i, instance := range cfg.InstanceNames {
		if ctx.Err() != nil {
			return res, ErrCancelled
		}
		e.Out.Ruler()
		e.Out.Info("Deploying server %d/%d: %s", i+1, cfg.Count, instance)
		e.Out.Ruler()

		volumeName := ""
		if cfg.VolumeSize > 0 {
			name, ok := e.createVolume(ctx, instance, cfg)
			if !ok {
				e.Out.Failure("Failed to create volume for %s", instance)
				continue
			}
			volumeName = name
		}

		if e.createServer(ctx, instance, volumeName, cfg) {
			res.Succeeded++
			e.Out.Success("Server %d/%d deployed successfully!", i+1, cfg.Count)
		} else {
			e.Out.Failure("Failed to deploy server %d/%d", i+1, cfg.Count)
		}
		e.Out.Printf("\n")
	}
	if ctx.Err() != nil {
		return res, ErrCancelled
	}

	if !cfg.DryRun {
		e.printSummary(cfg, res)
	}
	return res, nil
}

// uploadSSHKey uploads the resolved public key file once per batch. The
// generated name leans on wall-clock uniqueness, not a collision check.
func (e *Executor) uploadSSHKey(ctx context.Context, cfg *Config) (string, error) {
	if _, err := os.Stat(cfg.SSHKeyFile); err != nil {
		e.Out.Failure("SSH key file not found: %s", cfg.SSHKeyFile)
		return "", fmt.Errorf("ssh key file not found: %s", cfg.SSHKeyFile)
	}
	keyName := fmt.Sprintf("%s-key-%d", cfg.BaseName, e.Now().Unix())
	args := []string{"ssh-key", "create", "--name", keyName, "--public-key-from-file", cfg.SSHKeyFile}

	e.Out.Step("Uploading SSH key: %s", keyName)
	if cfg.DryRun {
		e.Out.Info("[DRY RUN] Would upload SSH key: hcloud %s", strings.Join(args, " "))
		return keyName, nil
	}
	ok, output := e.Run.Run(ctx, args...)
	if !ok {
		e.Out.Failure("Failed to upload SSH key: %s", output)
		return "", fmt.Errorf("ssh key upload failed")
	}
	e.Out.Success("SSH key uploaded successfully: %s", keyName)
	return keyName, nil
}

func (e *Executor) createVolume(ctx context.Context, instance string, cfg *Config) (string, bool) {
	volumeName := instance + "-volume"
	args := []string{
		"volume", "create",
		"--name", volumeName,
		"--size", fmt.Sprintf("%d", cfg.VolumeSize),
		"--location", cfg.Location,
		"--format", "ext4",
	}

	e.Out.Step("Creating volume: %s (%dGB)", volumeName, cfg.VolumeSize)
	if cfg.DryRun {
		e.Out.Info("[DRY RUN] Would create volume: hcloud %s", strings.Join(args, " "))
		return volumeName, true
	}
	ok, output := e.Run.Run(ctx, args...)
	if !ok {
		e.Out.Failure("Failed to create volume: %s", output)
		return "", false
	}
	e.Out.Success("Volume created successfully: %s", volumeName)
	return volumeName, true
}

func (e *Executor) createServer(ctx context.Context, instance, volumeName string, cfg *Config) bool {
	args := cfg.ServerCreateArgs(instance, volumeName)

	e.Out.Step("Deploying server: %s", instance)
	e.Out.Info("Command: hcloud %s", strings.Join(args, " "))

	if cfg.DryRun {
		e.Out.Info("[DRY RUN] Would execute: hcloud %s", strings.Join(args, " "))
		return true
	}
	ok, output := e.Run.Run(ctx, args...)
	if !ok {
		e.Out.Failure("Failed to deploy server: %s", output)
		return false
	}
	e.Out.Success("Server deployed successfully: %s", instance)

	e.Out.Step("Waiting for server to be ready...")
	select {
	case <-time.After(e.SettleDelay):
	case <-ctx.Done():
		// The server exists; the interrupt only skips the summary fetch.
		return true
	}
	e.describeServer(ctx, instance, cfg)
	return true
}

// describeServer fetches and prints the connection summary. A failed fetch
// or an undecodable payload never demotes a successful create.
func (e *Executor) describeServer(ctx context.Context, instance string, cfg *Config) {
	ok, output := e.Run.Run(ctx, "server", "describe", instance, "-o", "json")
	if !ok {
		e.Out.Warn("Server deployed but couldn't retrieve details")
		return
	}
	var desc serverDescription
	if err := json.Unmarshal([]byte(output), &desc); err != nil {
		e.Out.Info("Server details:")
		e.Out.Raw(output)
		return
	}

	publicIP := desc.PublicNet.IPv4.IP
	privateIP := ""
	if len(desc.PrivateNet) > 0 {
		privateIP = desc.PrivateNet[0].IP
	}

	e.Out.Printf("\n")
	e.Out.Success("Deployment Complete!")
	e.Out.Info("Server: %s", instance)
	if publicIP != "" {
		e.Out.Info("Public IP: %s", publicIP)
	}
	if privateIP != "" {
		e.Out.Info("Private IP: %s", privateIP)
	}
	e.Out.Info("Location: %s", cfg.Location)
	e.Out.Info("Type: %s", cfg.ServerType)
	e.Out.Info("Image: %s", cfg.Image)

	if publicIP == "" {
		return
	}
	user := LoginUser(cfg.Image)
	e.Out.Note("\nSSH connection commands:")
	e.Out.Printf("ssh %s@%s\n", user, publicIP)
	e.Out.Printf("ssh -i ~/.ssh/your_key %s@%s\n", user, publicIP)
	e.Out.Printf("hcup ssh %s\n", instance)
	e.Out.Step("Server may take 1-2 minutes to fully boot and accept SSH connections")
}

// printSummary reports the batch tally and next-step guidance for live runs.
func (e *Executor) printSummary(cfg *Config, res BatchResult) {
	e.Out.Success("Deployment completed")
	e.Out.Printf("Successfully deployed %d/%d servers\n", res.Succeeded, res.Attempted)

	e.Out.Info("Next steps:")
	if cfg.Count == 1 {
		name := cfg.BaseName
		e.Out.Printf("  • SSH into your server: hcup ssh %s\n", name)
		e.Out.Printf("  • View server details: hcloud server describe %s\n", name)
		e.Out.Printf("  • Delete server: hcup delete %s\n", name)
	} else {
		first := cfg.InstanceNames[0]
		e.Out.Printf("  • List all servers: hcloud server list | grep %s\n", cfg.BaseName)
		e.Out.Printf("  • SSH into first server: hcup ssh %s\n", first)
		e.Out.Printf("  • View server details: hcloud server describe %s\n", first)
		e.Out.Printf("  • Delete one server: hcup delete <name> --yes\n")
	}
	if cfg.VolumeSize > 0 {
		e.Out.Printf("  • List volumes: hcloud volume list | grep %s\n", cfg.BaseName)
	}
}
