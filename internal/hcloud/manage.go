package hcloud

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"os/exec"
	"strconv"
	"strings"

	"github.com/hcup-dev/hcup/internal/ui"
)

// Manager wraps the day-two pass-through operations: raw listings, power
// control, resize, and the ssh-key/volume lifecycle. Every operation prints
// the provider's raw output and reports success as a plain boolean carried
// in an error-or-nil result; the CLI maps that to the exit code.
type Manager struct {
	run Runner
	out *ui.Printer

	// readLine prompts the operator and returns one trimmed input line.
	// Swapped out in tests.
	readLine func(prompt string) (string, error)
}

func NewManager(r Runner, out *ui.Printer) *Manager {
	return &Manager{run: r, out: out, readLine: readStdinLine}
}

func readStdinLine(prompt string) (string, error) {
	fmt.Print(prompt)
	line, err := bufio.NewReader(os.Stdin).ReadString('\n')
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(line), nil
}

// passthrough runs one CLI call, printing the raw output on success and a
// diagnostic with the provider output on failure.
func (m *Manager) passthrough(ctx context.Context, failMsg string, args ...string) error {
	ok, output := m.run.Run(ctx, args...)
	if !ok {
		m.out.Failure("%s: %s", failMsg, output)
		return fmt.Errorf("%s", failMsg)
	}
	m.out.Raw(output)
	return nil
}

// action runs one mutating CLI call with step/success reporting.
func (m *Manager) action(ctx context.Context, step, done, failMsg string, args ...string) error {
	m.out.Step("%s", step)
	ok, output := m.run.Run(ctx, args...)
	if !ok {
		m.out.Failure("%s: %s", failMsg, output)
		return fmt.Errorf("%s", failMsg)
	}
	m.out.Success("%s", done)
	return nil
}

func (m *Manager) ListServers(ctx context.Context) error {
	m.out.Info("Listing servers...")
	return m.passthrough(ctx, "Failed to list servers", "server", "list")
}

func (m *Manager) ServerInfo(ctx context.Context, name string) error {
	m.out.Info("Getting server info for: %s", name)
	return m.passthrough(ctx, "Failed to get server info", "server", "describe", name)
}

func (m *Manager) StartServer(ctx context.Context, name string) error {
	return m.action(ctx,
		"Starting server: "+name,
		"Server started successfully: "+name,
		"Failed to start server",
		"server", "poweron", name)
}

func (m *Manager) StopServer(ctx context.Context, name string) error {
	return m.action(ctx,
		"Stopping server: "+name,
		"Server stopped successfully: "+name,
		"Failed to stop server",
		"server", "poweroff", name)
}

func (m *Manager) RestartServer(ctx context.Context, name string) error {
	return m.action(ctx,
		"Restarting server: "+name,
		"Server restarted successfully: "+name,
		"Failed to restart server",
		"server", "reboot", name)
}

func (m *Manager) ResizeServer(ctx context.Context, name, serverType string) error {
	return m.action(ctx,
		fmt.Sprintf("Resizing server %s to %s", name, serverType),
		"Server resized successfully: "+name,
		"Failed to resize server",
		"server", "change-type", name, serverType)
}

// DeleteServer deletes one server. Without confirm it shows the server and
// requires the operator to type exactly "YES".
func (m *Manager) DeleteServer(ctx context.Context, name string, confirm bool) error {
	if !confirm {
		m.out.Info("Server to be deleted:")
		if ok, output := m.run.Run(ctx, "server", "describe", name); ok {
			m.out.Raw(output)
		} else {
			m.out.Warn("Could not retrieve server details")
		}
		m.out.Failure("WARNING: This action cannot be undone!")
		response, err := m.readLine(fmt.Sprintf("Type 'YES' to confirm deletion of server '%s': ", name))
		if err != nil || response != "YES" {
			m.out.Raw("Operation cancelled (must type exactly 'YES' to confirm)")
			return fmt.Errorf("deletion not confirmed")
		}
	}
	return m.action(ctx,
		"Deleting server: "+name,
		"Server deleted successfully: "+name,
		"Failed to delete server",
		"server", "delete", name)
}

// InteractiveDelete lists existing servers and lets the operator pick one
// to delete by number; 0 cancels.
func (m *Manager) InteractiveDelete(ctx context.Context) error {
	m.out.Info("Available servers for deletion:")
	servers, err := NewCatalog(m.run).Servers(ctx)
	if err != nil {
		return err
	}
	if len(servers) == 0 {
		m.out.Warn("No servers found")
		return nil
	}
	for i, name := range servers {
		m.out.Printf("  %d. %s\n", i+1, name)
	}
	choice, err := m.readLine(fmt.Sprintf("\nSelect server to delete (1-%d) or 0 to cancel: ", len(servers)))
	if err != nil {
		return err
	}
	if choice == "0" {
		m.out.Raw("Operation cancelled")
		return nil
	}
	idx, err := strconv.Atoi(choice)
	if err != nil || idx < 1 || idx > len(servers) {
		m.out.Failure("Invalid selection")
		return fmt.Errorf("invalid selection")
	}
	return m.DeleteServer(ctx, servers[idx-1], false)
}

// SSHServer resolves the server's public IP and hands the session to the
// system ssh binary with stdio attached.
func (m *Manager) SSHServer(ctx context.Context, name string) error {
	m.out.Info("Getting IP for server: %s", name)
	ok, output := m.run.Run(ctx, "server", "ip", name)
	if !ok {
		m.out.Failure("Failed to get server IP: %s", output)
		return fmt.Errorf("failed to get server IP")
	}
	ip := strings.TrimSpace(output)
	m.out.Step("Connecting to %s (%s)", name, ip)
	cmd := exec.CommandContext(ctx, "ssh", "root@"+ip)
	cmd.Stdin = os.Stdin
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr
	return cmd.Run()
}

// SSH key management.

func (m *Manager) ListSSHKeys(ctx context.Context) error {
	m.out.Info("Listing SSH keys...")
	return m.passthrough(ctx, "Failed to list SSH keys", "ssh-key", "list")
}

func (m *Manager) AddSSHKey(ctx context.Context, name, keyFile string) error {
	if _, err := os.Stat(keyFile); err != nil {
		m.out.Failure("SSH key file not found: %s", keyFile)
		return fmt.Errorf("ssh key file not found: %s", keyFile)
	}
	return m.action(ctx,
		"Adding SSH key: "+name,
		"SSH key added successfully: "+name,
		"Failed to add SSH key",
		"ssh-key", "create", "--name", name, "--public-key-from-file", keyFile)
}

func (m *Manager) DeleteSSHKey(ctx context.Context, name string, confirm bool) error {
	if !confirm && !m.confirmYesNo(fmt.Sprintf("Are you sure you want to delete SSH key '%s'? (yes/no): ", name)) {
		return fmt.Errorf("deletion not confirmed")
	}
	return m.action(ctx,
		"Deleting SSH key: "+name,
		"SSH key deleted successfully: "+name,
		"Failed to delete SSH key",
		"ssh-key", "delete", name)
}

// Volume management.

func (m *Manager) ListVolumes(ctx context.Context) error {
	m.out.Info("Listing volumes...")
	return m.passthrough(ctx, "Failed to list volumes", "volume", "list")
}

func (m *Manager) CreateVolume(ctx context.Context, name string, size int, location string) error {
	return m.action(ctx,
		fmt.Sprintf("Creating volume: %s (%dGB)", name, size),
		"Volume created successfully: "+name,
		"Failed to create volume",
		"volume", "create", "--name", name, "--size", strconv.Itoa(size), "--location", location, "--format", "ext4")
}

func (m *Manager) AttachVolume(ctx context.Context, server, volume string) error {
	return m.action(ctx,
		fmt.Sprintf("Attaching volume %s to server %s", volume, server),
		"Volume attached successfully",
		"Failed to attach volume",
		"volume", "attach", volume, server)
}

func (m *Manager) DetachVolume(ctx context.Context, volume string) error {
	return m.action(ctx,
		"Detaching volume: "+volume,
		"Volume detached successfully: "+volume,
		"Failed to detach volume",
		"volume", "detach", volume)
}

func (m *Manager) DeleteVolume(ctx context.Context, name string, confirm bool) error {
	if !confirm && !m.confirmYesNo(fmt.Sprintf("Are you sure you want to delete volume '%s'? (yes/no): ", name)) {
		return fmt.Errorf("deletion not confirmed")
	}
	return m.action(ctx,
		"Deleting volume: "+name,
		"Volume deleted successfully: "+name,
		"Failed to delete volume",
		"volume", "delete", name)
}

func (m *Manager) confirmYesNo(prompt string) bool {
	response, err := m.readLine(prompt)
	if err != nil {
		return false
	}
	switch strings.ToLower(response) {
	case "yes", "y":
		return true
	}
	m.out.Raw("Operation cancelled")
	return false
}
