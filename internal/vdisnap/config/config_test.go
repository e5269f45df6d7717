package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jimyag/vdisnap/internal/vdisnap/vmutil"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "vdisnap.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("LIBVIRT_URI", "")
	t.Setenv("VDISNAP_DATA_DIR", "/srv/vdisnap")

	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, "qemu:///system", cfg.LibvirtURI)
	assert.Equal(t, "/srv/vdisnap", cfg.DataDir)
	assert.Equal(t, "/srv/vdisnap/work", cfg.WorkDir)
	assert.Equal(t, vmutil.DefaultCoalescePollInterval, cfg.Coalesce.PollInterval)
	assert.Equal(t, vmutil.DefaultCoalesceMaxWait, cfg.Coalesce.MaxWait)
	assert.Zero(t, cfg.Coalesce.MaxPolls)
	assert.Len(t, cfg.Coalesce.Options(), 2)
}

func TestLoad_FileAndEnv(t *testing.T) {
	path := writeConfig(t, `
address: 127.0.0.1:9999
libvirt_uri: qemu+tcp://hv-1/system
work_dir: /scratch
coalesce:
  poll_interval: 2s
  max_wait: 1m
  max_polls: 20
image_store:
  host: store.local
  port: 9100
  bucket: golden
`)
	t.Setenv("LIBVIRT_URI", "")
	t.Setenv("VDISNAP_COALESCE_MAX_WAIT", "90s")
	t.Setenv("VDISNAP_IMAGE_STORE_ACCESS_KEY_ID", "AKID")

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "127.0.0.1:9999", cfg.Address)
	assert.Equal(t, "qemu+tcp://hv-1/system", cfg.LibvirtURI)
	assert.Equal(t, "/scratch", cfg.WorkDir)
	assert.Equal(t, 2*time.Second, cfg.Coalesce.PollInterval)
	assert.Equal(t, 90*time.Second, cfg.Coalesce.MaxWait)
	assert.Equal(t, 20, cfg.Coalesce.MaxPolls)
	assert.Len(t, cfg.Coalesce.Options(), 3)

	store := cfg.ImageStore.StoreConfig()
	assert.Equal(t, "http://store.local:9100", store.Endpoint)
	assert.Equal(t, "golden", store.Bucket)
	assert.Equal(t, "AKID", store.AccessKeyID)
	assert.Equal(t, "us-east-1", store.Region)
}

func TestLoad_LibvirtURIEnv(t *testing.T) {
	t.Setenv("LIBVIRT_URI", "qemu+ssh://root@hv-2/system")

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, "qemu+ssh://root@hv-2/system", cfg.LibvirtURI)
}

func TestLoad_Invalid(t *testing.T) {
	testcases := []struct {
		name    string
		content string
	}{
		{name: "zero poll interval", content: "coalesce:\n  poll_interval: 0s\n"},
		{name: "max wait shorter than interval", content: "coalesce:\n  poll_interval: 10s\n  max_wait: 5s\n"},
		{name: "negative max polls", content: "coalesce:\n  max_polls: -1\n"},
		{name: "port out of range", content: "image_store:\n  port: 70000\n"},
		{name: "malformed yaml", content: "coalesce: [\n"},
	}

	for _, tc := range testcases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			_, err := Load(writeConfig(t, tc.content))
			assert.Error(t, err)
		})
	}

	_, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}

func TestImageStoreConfig_NoHost(t *testing.T) {
	t.Parallel()

	store := ImageStoreConfig{Bucket: "b"}.StoreConfig()
	assert.Empty(t, store.Endpoint)
}
