package hcloud

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// stubRunner answers every invocation with a fixed outcome, recording the
// argument vectors it saw.
type stubRunner struct {
	ok     bool
	output string
	calls  [][]string
}

func (s *stubRunner) Run(_ context.Context, args ...string) (bool, string) {
	s.calls = append(s.calls, args)
	return s.ok, s.output
}

const serverTypeListing = `[
  {"name":"cpx11","prices":[{"location":"nbg1"},{"location":"fsn1"}]},
  {"name":"cpx21","prices":[{"location":"nbg1"},{"location":"ash"}]},
  {"name":"cpx31","prices":[{"location":"fsn1"}]}
]`

func TestServerTypesFilteredByLocation(t *testing.T) {
	cases := []struct {
		location string
		want     []string
	}{
		{"nbg1", []string{"cpx11", "cpx21"}},
		{"ash", []string{"cpx21"}},
		{"fsn1", []string{"cpx11", "cpx31"}},
		{"hel1", nil},
		{"", []string{"cpx11", "cpx21", "cpx31"}},
	}
	for _, tc := range cases {
		t.Run("location="+tc.location, func(t *testing.T) {
			cat := NewCatalog(&stubRunner{ok: true, output: serverTypeListing})
			got, err := cat.ServerTypes(context.Background(), tc.location)
			require.NoError(t, err)
			assert.Equal(t, tc.want, got)
		})
	}
}

func TestServerTypesRequestsJSONOutput(t *testing.T) {
	r := &stubRunner{ok: true, output: `[]`}
	_, err := NewCatalog(r).ServerTypes(context.Background(), "nbg1")
	require.NoError(t, err)
	require.Len(t, r.calls, 1)
	assert.Equal(t, []string{"server-type", "list", "-o", "json"}, r.calls[0])
}

func TestImagesKeepsSystemLinuxOnly(t *testing.T) {
	listing := `[
  {"name":"ubuntu-24.04","type":"system"},
  {"name":"Debian-12","type":"system"},
  {"name":"my-snapshot","type":"snapshot"},
  {"name":"windows-2022","type":"system"},
  {"name":"rocky-9","type":"system"},
  {"name":"ubuntu-24.04","type":"system"}
]`
	cat := NewCatalog(&stubRunner{ok: true, output: listing})
	got, err := cat.Images(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{"Debian-12", "rocky-9", "ubuntu-24.04"}, got)
}

func TestImagesMatchFamilyCaseInsensitively(t *testing.T) {
	cat := NewCatalog(&stubRunner{ok: true, output: `[{"name":"AlmaLinux-9","type":"system"}]`})
	got, err := cat.Images(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{"AlmaLinux-9"}, got)
}

func TestListingCLIFailureYieldsEmptyWithoutError(t *testing.T) {
	cat := NewCatalog(&stubRunner{ok: false, output: "context deadline exceeded"})

	locations, err := cat.Locations(context.Background())
	require.NoError(t, err)
	assert.Empty(t, locations)

	images, err := cat.Images(context.Background())
	require.NoError(t, err)
	assert.Empty(t, images)
}

func TestListingDecodeFailureIsError(t *testing.T) {
	cat := NewCatalog(&stubRunner{ok: true, output: "not json at all"})

	_, err := cat.SSHKeys(context.Background())
	require.Error(t, err)
	assert.True(t, strings.HasPrefix(err.Error(), "decode ssh-key list:"), err.Error())

	_, err = cat.ServerTypes(context.Background(), "nbg1")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "decode server-type list:")
}

func TestNameListingsPreserveSourceOrder(t *testing.T) {
	listing := `[{"name":"zeta"},{"name":"alpha"},{"name":"mid"}]`
	r := &stubRunner{ok: true, output: listing}
	cat := NewCatalog(r)

	got, err := cat.Firewalls(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{"zeta", "alpha", "mid"}, got)
	assert.Equal(t, []string{"firewall", "list", "-o", "json"}, r.calls[0])
}

func TestServersListing(t *testing.T) {
	r := &stubRunner{ok: true, output: `[{"name":"web-001"},{"name":"web-002"}]`}
	got, err := NewCatalog(r).Servers(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{"web-001", "web-002"}, got)
	assert.Equal(t, []string{"server", "list", "-o", "json"}, r.calls[0])
}
