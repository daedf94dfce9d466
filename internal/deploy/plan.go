// Package deploy resolves a deployment plan from mixed input sources and
// executes it as an ordered sequence of provider CLI calls.
package deploy

import (
	"fmt"
	"os"
	"strings"
)

// Config is the resolved plan for one batch. It is built once by the
// resolver; the executor's only write is replacing SSHKeyFile's reference
// with the uploaded key's name so every instance reuses it. The
// per-instance volume name is passed alongside, not written back.
type Config struct {
	BaseName      string
	InstanceNames []string
	Count         int
	Image         string
	Location      string
	ServerType    string

	// SSHKey and SSHKeyFile are mutually exclusive: a named key reference,
	// or a public key file to upload once per batch.
	SSHKey     string
	SSHKeyFile string

	VolumeSize    int
	Firewall      string
	Network       string
	Tags          string
	CloudInitPath string
	DryRun        bool
}

// DeriveInstanceNames returns the per-instance name sequence: the base name
// alone for a single instance, otherwise base-001..base-NNN. The zero
// padding is three digits wide and grows naturally past 999.
func DeriveInstanceNames(base string, count int) []string {
	if count <= 1 {
		return []string{base}
	}
	names := make([]string, count)
	for i := range names {
		names[i] = fmt.Sprintf("%s-%03d", base, i+1)
	}
	return names
}

// ConvertTags translates the external key:value[,key:value] form into the
// provider's key=value form. Pure character substitution; already-translated
// input is a fixed point.
func ConvertTags(tags string) string {
	return strings.ReplaceAll(tags, ":", "=")
}

// LoginUser infers the default login user from the image name.
func LoginUser(image string) string {
	lower := strings.ToLower(image)
	switch {
	case strings.Contains(lower, "ubuntu"):
		return "ubuntu"
	case strings.Contains(lower, "debian"):
		return "debian"
	case strings.Contains(lower, "centos"), strings.Contains(lower, "rocky"), strings.Contains(lower, "almalinux"):
		return "centos"
	case strings.Contains(lower, "fedora"):
		return "fedora"
	case strings.Contains(lower, "opensuse"):
		return "opensuse"
	}
	return "root"
}

// ServerCreateArgs builds the argument vector for creating one server.
// volumeName is the just-created volume for this instance, empty for none.
// The cloud-init file is referenced only if it exists at call time.
func (c *Config) ServerCreateArgs(instance, volumeName string) []string {
	args := []string{
		"server", "create",
		"--name", instance,
		"--type", c.ServerType,
		"--image", c.Image,
		"--location", c.Location,
	}
	if c.SSHKey != "" {
		args = append(args, "--ssh-key", c.SSHKey)
	}
	if c.Firewall != "" {
		args = append(args, "--firewall", c.Firewall)
	}
	if c.Network != "" {
		args = append(args, "--network", c.Network)
	}
	if volumeName != "" {
		args = append(args, "--volume", volumeName)
	}
	if c.Tags != "" {
		args = append(args, "--label", ConvertTags(c.Tags))
	}
	if c.CloudInitPath != "" {
		if _, err := os.Stat(c.CloudInitPath); err == nil {
			args = append(args, "--user-data-from-file", c.CloudInitPath)
		}
	}
	return args
}

// BatchResult is the per-batch success tally.
type BatchResult struct {
	Succeeded int
	Attempted int
}

// AllSucceeded reports whether every requested instance succeeded.
func (r BatchResult) AllSucceeded() bool { return r.Succeeded == r.Attempted }
