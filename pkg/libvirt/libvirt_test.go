package libvirt

import (
	"encoding/xml"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testDomainXML = `<domain type="kvm">
  <name>vm-1</name>
  <uuid>4dea22b3-1d52-d8f3-2516-782e98ab3fa0</uuid>
  <devices>
    <disk type="file" device="disk">
      <driver name="qemu" type="qcow2"/>
      <source file="/var/lib/vdisnap/images/disk-A.qcow2"/>
      <target dev="vda" bus="virtio"/>
    </disk>
    <disk type="file" device="cdrom">
      <driver name="qemu" type="raw"/>
      <source file="/var/lib/vdisnap/iso/seed.iso"/>
      <target dev="hda" bus="ide"/>
    </disk>
  </devices>
</domain>`

func TestParseDomainDisks(t *testing.T) {
	t.Parallel()

	disks, err := parseDomainDisks(testDomainXML)
	require.NoError(t, err)
	require.Len(t, disks, 2)

	assert.True(t, disks[0].IsDisk())
	assert.Equal(t, "vda", disks[0].Target.Dev)
	assert.Equal(t, "/var/lib/vdisnap/images/disk-A.qcow2", disks[0].SourcePath())
	assert.Equal(t, "qcow2", disks[0].Driver.Type)

	assert.False(t, disks[1].IsDisk())
}

func TestParseDomainDisks_Invalid(t *testing.T) {
	t.Parallel()

	_, err := parseDomainDisks("<domain")
	assert.Error(t, err)
}

func TestBuildDiskOnlySnapshotXML(t *testing.T) {
	t.Parallel()

	disks, err := parseDomainDisks(testDomainXML)
	require.NoError(t, err)

	out, err := buildDiskOnlySnapshotXML("backup-1", disks)
	require.NoError(t, err)

	var snap DomainSnapshotXML
	require.NoError(t, xml.Unmarshal([]byte(out), &snap))
	assert.Equal(t, "backup-1", snap.Name)
	require.NotNil(t, snap.Memory)
	assert.Equal(t, "no", snap.Memory.Snapshot)
	require.Len(t, snap.Disks.Disks, 2)
	assert.Equal(t, DomainSnapshotDisk{Name: "vda", Snapshot: "external"}, snap.Disks.Disks[0])
	assert.Equal(t, DomainSnapshotDisk{Name: "hda", Snapshot: "no"}, snap.Disks.Disks[1])
}

func TestParseVolumeXML(t *testing.T) {
	t.Parallel()

	testcases := []struct {
		name        string
		xml         string
		want        *VolumeInfo
		expectError bool
	}{
		{
			name: "overlay with backing store",
			xml: `<volume type="file">
  <name>disk-A.qcow2</name>
  <key>/var/lib/vdisnap/images/disk-A.qcow2</key>
  <capacity unit="bytes">10737418240</capacity>
  <target>
    <path>/var/lib/vdisnap/images/disk-A.qcow2</path>
    <format type='qcow2'/>
  </target>
  <backingStore>
    <path>/var/lib/vdisnap/images/base.qcow2</path>
    <format type='qcow2'/>
  </backingStore>
</volume>`,
			want: &VolumeInfo{
				Name:          "disk-A.qcow2",
				Key:           "/var/lib/vdisnap/images/disk-A.qcow2",
				Format:        "qcow2",
				BackingPath:   "/var/lib/vdisnap/images/base.qcow2",
				BackingFormat: "qcow2",
			},
		},
		{
			name: "chain root",
			xml: `<volume type="file">
  <name>base.raw</name>
  <key>/var/lib/vdisnap/images/base.raw</key>
  <target><format type="raw"/></target>
</volume>`,
			want: &VolumeInfo{
				Name:   "base.raw",
				Key:    "/var/lib/vdisnap/images/base.raw",
				Format: "raw",
			},
		},
		{
			name: "missing format",
			xml:  `<volume><name>x</name></volume>`,
			want: &VolumeInfo{Name: "x", Format: "unknown"},
		},
		{
			name:        "invalid XML",
			xml:         `<volume>`,
			expectError: true,
		},
	}

	for _, tc := range testcases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			got, err := parseVolumeXML(tc.xml)
			if tc.expectError {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tc.want, got)
		})
	}
}

func TestFormatLibvirtVersion(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "8.3.0", formatLibvirtVersion(8003000))
	assert.Equal(t, "10.0.12", formatLibvirtVersion(10000012))
}

func TestFormatDomainState(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "Running", FormatDomainState(1))
	assert.Equal(t, "ShutOff", FormatDomainState(5))
	assert.Equal(t, "Unknown (42)", FormatDomainState(42))
}
