package core

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Manifest mirrors the deploy command's flag set so a deployment can be
// described in a YAML file. Manifest values act as explicit input to the
// resolver; flags given on the command line still win over the file.
type Manifest struct {
	Name        string `yaml:"name"`
	Count       int    `yaml:"count"`
	Image       string `yaml:"image"`
	Location    string `yaml:"location"`
	ServerType  string `yaml:"server_type"`
	SSHKey      string `yaml:"ssh_key"`
	VolumeSize  int    `yaml:"volume_size"`
	Firewall    string `yaml:"firewall"`
	Network     string `yaml:"network"`
	Tags        string `yaml:"tags"`
	CloudConfig string `yaml:"cloud_config"`
}

// LoadManifest parses a deployment manifest from path.
func LoadManifest(path string) (Manifest, error) {
	var m Manifest
	content, err := os.ReadFile(path)
	if err != nil {
		return m, fmt.Errorf("open manifest: %w", err)
	}
	if err := yaml.Unmarshal(content, &m); err != nil {
		return m, fmt.Errorf("parse manifest: %w", err)
	}
	return m, nil
}
