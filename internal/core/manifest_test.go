package core

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadManifest(t *testing.T) {
	path := filepath.Join(t.TempDir(), "deploy.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`name: web
count: 3
image: ubuntu-24.04
location: fsn1
server_type: cpx21
ssh_key: ops
volume_size: 20
firewall: web-fw
network: backend
tags: env:prod
cloud_config: ./cloud-init.yaml
`), 0o600))

	m, err := LoadManifest(path)
	require.NoError(t, err)
	assert.Equal(t, Manifest{
		Name:        "web",
		Count:       3,
		Image:       "ubuntu-24.04",
		Location:    "fsn1",
		ServerType:  "cpx21",
		SSHKey:      "ops",
		VolumeSize:  20,
		Firewall:    "web-fw",
		Network:     "backend",
		Tags:        "env:prod",
		CloudConfig: "./cloud-init.yaml",
	}, m)
}

func TestLoadManifestPartial(t *testing.T) {
	path := filepath.Join(t.TempDir(), "deploy.yaml")
	require.NoError(t, os.WriteFile(path, []byte("name: api\nimage: debian-12\n"), 0o600))

	m, err := LoadManifest(path)
	require.NoError(t, err)
	assert.Equal(t, "api", m.Name)
	assert.Zero(t, m.Count)
	assert.Empty(t, m.Location)
}

func TestLoadManifestMissingFile(t *testing.T) {
	_, err := LoadManifest(filepath.Join(t.TempDir(), "nope.yaml"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "open manifest")
}

func TestLoadManifestBadYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "deploy.yaml")
	require.NoError(t, os.WriteFile(path, []byte("name: [unclosed\n"), 0o600))

	_, err := LoadManifest(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "parse manifest")
}
