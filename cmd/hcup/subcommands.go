package main

import (
	"errors"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/hcup-dev/hcup/internal/core"
	"github.com/hcup-dev/hcup/internal/hcloud"
	"github.com/hcup-dev/hcup/internal/ui"
)

// Precondition failures are reported once through the printer; these carry
// only the exit status.
var (
	errNotInstalled = errors.New("hcloud CLI not found")
	errMissingToken = errors.New("missing Hetzner Cloud API token")
	errInvalidToken = errors.New("invalid Hetzner Cloud API token")
)

// newSession loads the dotenv settings, applies the token override, and runs
// the startup precondition checks: hcloud reachable, credential present and
// valid. Every command goes through here before touching the provider.
func newSession(cmd *cobra.Command) (core.Settings, *hcloud.CLI, *ui.Printer, error) {
	out := ui.New(cmd.OutOrStdout())
	envPath, _ := cmd.Flags().GetString("env")
	settings, err := core.LoadSettings(envPath)
	if err != nil {
		return settings, nil, out, err
	}
	if settings.Loaded {
		out.Success("Loaded configuration from %s", settings.Path)
	}
	if token, _ := cmd.Flags().GetString("token"); token != "" {
		settings.Token = token
	}

	runner := hcloud.NewCLI(settings.Token)
	ctx := cmd.Context()
	if !hcloud.Available(ctx, runner) {
		out.Failure("hcloud CLI not found. Please install it first.")
		return settings, nil, out, errNotInstalled
	}
	out.Success("hcloud CLI is available")
	if settings.Token == "" {
		out.Failure("Hetzner Cloud API token is required")
		out.Raw("Set HETZNER_TOKEN in .env file or use --token")
		return settings, nil, out, errMissingToken
	}
	if !hcloud.TokenValid(ctx, runner) {
		out.Failure("Invalid Hetzner Cloud API token")
		return settings, nil, out, errInvalidToken
	}
	out.Success("API token is valid")
	return settings, runner, out, nil
}

// newManager wires a Manager on top of a checked session.
func newManager(cmd *cobra.Command) (*hcloud.Manager, error) {
	_, runner, out, err := newSession(cmd)
	if err != nil {
		return nil, err
	}
	return hcloud.NewManager(runner, out), nil
}

// List all servers
func newListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List all servers",
		RunE: func(cmd *cobra.Command, args []string) error {
			m, err := newManager(cmd)
			if err != nil {
				return err
			}
			return m.ListServers(cmd.Context())
		},
	}
}

// Show server details
func newInfoCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "info <server>",
		Short: "Show server information",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			m, err := newManager(cmd)
			if err != nil {
				return err
			}
			return m.ServerInfo(cmd.Context(), args[0])
		},
	}
}

// Power a server on
func newStartCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "start <server>",
		Short: "Start a server",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			m, err := newManager(cmd)
			if err != nil {
				return err
			}
			return m.StartServer(cmd.Context(), args[0])
		},
	}
}

// Power a server off
func newStopCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "stop <server>",
		Short: "Stop a server",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			m, err := newManager(cmd)
			if err != nil {
				return err
			}
			return m.StopServer(cmd.Context(), args[0])
		},
	}
}

// Reboot a server
func newRestartCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "restart <server>",
		Short: "Restart a server",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			m, err := newManager(cmd)
			if err != nil {
				return err
			}
			return m.RestartServer(cmd.Context(), args[0])
		},
	}
}

// Change a server's type
func newResizeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "resize <server> <type>",
		Short: "Resize a server to a new type",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			m, err := newManager(cmd)
			if err != nil {
				return err
			}
			return m.ResizeServer(cmd.Context(), args[0], args[1])
		},
	}
}

// Delete a server, interactively when no name is given
func newDeleteCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "delete [server]",
		Short: "Delete a server (lists servers when no name is given)",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			m, err := newManager(cmd)
			if err != nil {
				return err
			}
			yes, _ := cmd.Flags().GetBool("yes")
			if len(args) == 1 {
				return m.DeleteServer(cmd.Context(), args[0], yes)
			}
			return m.InteractiveDelete(cmd.Context())
		},
	}
	cmd.Flags().Bool("yes", false, "skip the confirmation prompt")
	return cmd
}

// Open an SSH session to a server
func newSSHCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "ssh <server>",
		Short: "SSH into a server",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			m, err := newManager(cmd)
			if err != nil {
				return err
			}
			return m.SSHServer(cmd.Context(), args[0])
		},
	}
}

// SSH key management commands
func newSSHKeyCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "ssh-key",
		Short: "Manage SSH keys",
	}

	list := &cobra.Command{
		Use:   "list",
		Short: "List SSH keys",
		RunE: func(cmd *cobra.Command, args []string) error {
			m, err := newManager(cmd)
			if err != nil {
				return err
			}
			return m.ListSSHKeys(cmd.Context())
		},
	}

	add := &cobra.Command{
		Use:   "add <name> <public-key-file>",
		Short: "Add an SSH key from a file",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			m, err := newManager(cmd)
			if err != nil {
				return err
			}
			return m.AddSSHKey(cmd.Context(), args[0], args[1])
		},
	}

	del := &cobra.Command{
		Use:   "delete <name>",
		Short: "Delete an SSH key",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			m, err := newManager(cmd)
			if err != nil {
				return err
			}
			yes, _ := cmd.Flags().GetBool("yes")
			return m.DeleteSSHKey(cmd.Context(), args[0], yes)
		},
	}
	del.Flags().Bool("yes", false, "skip the confirmation prompt")

	cmd.AddCommand(list, add, del)
	return cmd
}

// Volume management commands
func newVolumeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "volume",
		Short: "Manage volumes",
	}

	list := &cobra.Command{
		Use:   "list",
		Short: "List volumes",
		RunE: func(cmd *cobra.Command, args []string) error {
			m, err := newManager(cmd)
			if err != nil {
				return err
			}
			return m.ListVolumes(cmd.Context())
		},
	}

	create := &cobra.Command{
		Use:   "create <name> <size-gb>",
		Short: "Create a volume",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			m, err := newManager(cmd)
			if err != nil {
				return err
			}
			size, err := strconv.Atoi(args[1])
			if err != nil {
				return err
			}
			location, _ := cmd.Flags().GetString("location")
			return m.CreateVolume(cmd.Context(), args[0], size, location)
		},
	}
	create.Flags().String("location", core.FallbackLocation, "volume location")

	attach := &cobra.Command{
		Use:   "attach <server> <volume>",
		Short: "Attach a volume to a server",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			m, err := newManager(cmd)
			if err != nil {
				return err
			}
			return m.AttachVolume(cmd.Context(), args[0], args[1])
		},
	}

	detach := &cobra.Command{
		Use:   "detach <volume>",
		Short: "Detach a volume",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			m, err := newManager(cmd)
			if err != nil {
				return err
			}
			return m.DetachVolume(cmd.Context(), args[0])
		},
	}

	del := &cobra.Command{
		Use:   "delete <name>",
		Short: "Delete a volume",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			m, err := newManager(cmd)
			if err != nil {
				return err
			}
			yes, _ := cmd.Flags().GetBool("yes")
			return m.DeleteVolume(cmd.Context(), args[0], yes)
		},
	}
	del.Flags().Bool("yes", false, "skip the confirmation prompt")

	cmd.AddCommand(list, create, attach, detach, del)
	return cmd
}
