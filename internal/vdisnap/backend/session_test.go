package backend

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	golibvirt "github.com/digitalocean/go-libvirt"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/jimyag/vdisnap/internal/vdisnap/vmutil"
	"github.com/jimyag/vdisnap/pkg/hypervisor"
	"github.com/jimyag/vdisnap/pkg/libvirt"
	"github.com/jimyag/vdisnap/pkg/qemuimg"
)

const (
	diskAPath = "/var/lib/vdisnap/images/disk-A.qcow2"
	basePath  = "/var/lib/vdisnap/images/base.qcow2"
)

func testDisks() []libvirt.DomainDisk {
	return []libvirt.DomainDisk{
		{
			Type:   "file",
			Device: "disk",
			Source: libvirt.DomainDiskSource{File: diskAPath},
			Target: libvirt.DomainDiskTarget{Dev: "vda", Bus: "virtio"},
		},
		{
			Type:   "file",
			Device: "cdrom",
			Source: libvirt.DomainDiskSource{File: "/var/lib/vdisnap/iso/seed.iso"},
			Target: libvirt.DomainDiskTarget{Dev: "hda", Bus: "ide"},
		},
	}
}

func newTestSession(t *testing.T) (*Session, *libvirt.MockClient, *qemuimg.MockClient) {
	t.Helper()
	lv := &libvirt.MockClient{}
	qi := qemuimg.NewMockClient()
	return NewSession(lv, qi, hypervisor.NewTaskManager()), lv, qi
}

func TestSession_VMGetByNameLabel(t *testing.T) {
	t.Parallel()

	testcases := []struct {
		name        string
		lookupErr   error
		want        []string
		expectError bool
	}{
		{name: "found", want: []string{"vm-1"}},
		{name: "not found", lookupErr: fmt.Errorf("domain vm-1: %w", libvirt.ErrNotFound), want: []string{}},
		{name: "connection lost", lookupErr: errors.New("connection reset"), expectError: true},
	}

	for _, tc := range testcases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			s, lv, _ := newTestSession(t)
			lv.On("GetDomainByName", "vm-1").Return(golibvirt.Domain{Name: "vm-1"}, tc.lookupErr)

			got, err := s.Call(context.Background(), hypervisor.MethodVMGetByNameLabel, "vm-1")
			if tc.expectError {
				require.Error(t, err)
				assert.ErrorIs(t, err, hypervisor.ErrBackendCall)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tc.want, got)
		})
	}
}

func TestSession_UnknownMethod(t *testing.T) {
	t.Parallel()

	s, _, _ := newTestSession(t)

	_, err := s.Call(context.Background(), "VM.destroy", "vm-1")
	var failure *hypervisor.Failure
	require.True(t, errors.As(err, &failure))
	assert.Equal(t, []string{ErrCodeMethodUnknown, "VM.destroy"}, failure.Details)

	_, err = s.CallAsync(context.Background(), hypervisor.MethodAsyncSRScan)
	require.True(t, errors.As(err, &failure))
	assert.Equal(t, ErrCodeParamCount, failure.Details[0])

	_, err = s.CallPluginAsync(context.Background(), "images", "missing", nil)
	require.True(t, errors.As(err, &failure))
	assert.Equal(t, []string{ErrCodeUnknownPlugin, "images", "missing"}, failure.Details)
}

func TestSession_VMDisks(t *testing.T) {
	t.Parallel()

	s, lv, _ := newTestSession(t)
	lv.On("GetDomainDisks", "vm-1").Return(testDisks(), nil)

	vbds, err := s.GetVMVBDs(context.Background(), "vm-1")
	require.NoError(t, err)
	assert.Equal(t, []hypervisor.VBDRef{"vm-1/vda"}, vbds)

	vdi, err := s.GetVBDVDI(context.Background(), "vm-1/vda")
	require.NoError(t, err)
	assert.Equal(t, hypervisor.VDIRef(diskAPath), vdi)

	_, err = s.GetVBDVDI(context.Background(), "vm-1/vdz")
	assert.ErrorIs(t, err, hypervisor.ErrBackendCall)

	_, err = s.GetVBDVDI(context.Background(), "garbage")
	assert.ErrorIs(t, err, hypervisor.ErrBackendCall)
}

func TestSession_GetVDIRecord(t *testing.T) {
	t.Parallel()

	testcases := []struct {
		name       string
		vol        *libvirt.VolumeInfo
		setupMock  func(*libvirt.MockClient, *qemuimg.MockClient)
		wantParent string
	}{
		{
			name: "backing store from volume XML",
			vol: &libvirt.VolumeInfo{
				Key: diskAPath, Pool: "default", Path: diskAPath, Format: "qcow2",
				BackingPath: basePath, BackingFormat: "qcow2",
			},
			setupMock: func(lv *libvirt.MockClient, _ *qemuimg.MockClient) {
				lv.On("LookupVolumeByPath", basePath).
					Return(&libvirt.VolumeInfo{Key: basePath, Pool: "default", Path: basePath}, nil)
			},
			wantParent: VolumeUUID(basePath),
		},
		{
			name: "backing file from qemu-img",
			vol:  &libvirt.VolumeInfo{Key: diskAPath, Pool: "default", Path: diskAPath, Format: "qcow2"},
			setupMock: func(lv *libvirt.MockClient, qi *qemuimg.MockClient) {
				qi.On("Info", mock.Anything, diskAPath).
					Return(&qemuimg.ImageInfo{Format: "qcow2", FullBackingFilename: "/mnt/outside/base.qcow2"}, nil)
				lv.On("LookupVolumeByPath", "/mnt/outside/base.qcow2").
					Return(nil, errors.New("Storage volume not found"))
			},
			wantParent: VolumeUUID("/mnt/outside/base.qcow2"),
		},
		{
			name: "raw chain root",
			vol:  &libvirt.VolumeInfo{Key: diskAPath, Pool: "default", Path: diskAPath, Format: "raw"},
			setupMock: func(*libvirt.MockClient, *qemuimg.MockClient) {
			},
			wantParent: "",
		},
	}

	for _, tc := range testcases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			s, lv, qi := newTestSession(t)
			lv.On("LookupVolumeByPath", diskAPath).Return(tc.vol, nil)
			tc.setupMock(lv, qi)

			rec, err := s.GetVDIRecord(context.Background(), hypervisor.VDIRef(diskAPath))
			require.NoError(t, err)
			assert.Equal(t, VolumeUUID(diskAPath), rec.UUID)
			assert.Equal(t, hypervisor.SRRef("default"), rec.SR)
			assert.Equal(t, tc.wantParent, rec.SMConfig.VHDParent)

			// 见过的 UUID 直接命中缓存
			ref, err := s.GetVDIByUUID(context.Background(), rec.UUID)
			require.NoError(t, err)
			assert.Equal(t, hypervisor.VDIRef(diskAPath), ref)
			lv.AssertNotCalled(t, "ListStoragePools")
		})
	}
}

func TestSession_GetVDIByUUID_ScansPools(t *testing.T) {
	t.Parallel()

	s, lv, _ := newTestSession(t)
	lv.On("ListStoragePools").Return([]*libvirt.StoragePoolInfo{{Name: "broken"}, {Name: "default"}}, nil)
	lv.On("ListVolumes", "broken").Return(nil, errors.New("pool inactive"))
	lv.On("ListVolumes", "default").Return([]*libvirt.VolumeInfo{
		{Key: basePath, Path: basePath},
		{Key: diskAPath, Path: diskAPath},
	}, nil)

	ref, err := s.GetVDIByUUID(context.Background(), VolumeUUID(diskAPath))
	require.NoError(t, err)
	assert.Equal(t, hypervisor.VDIRef(diskAPath), ref)

	_, err = s.GetVDIByUUID(context.Background(), "00000000-0000-0000-0000-000000000000")
	var failure *hypervisor.Failure
	require.True(t, errors.As(err, &failure))
	assert.Equal(t, ErrCodeUUIDInvalid, failure.Details[0])
}

func TestSession_SnapshotTask(t *testing.T) {
	t.Parallel()

	t.Run("success", func(t *testing.T) {
		t.Parallel()

		s, lv, _ := newTestSession(t)
		lv.On("CreateDiskOnlySnapshot", "vm-1", "backup-1").Return(&libvirt.SnapshotInfo{
			Name:   "backup-1",
			Domain: "vm-1",
			Disks:  map[string]string{"vda": "/var/lib/vdisnap/images/disk-A.backup-1"},
		}, nil)

		task, err := s.CallAsync(context.Background(), hypervisor.MethodAsyncVMSnapshot, "vm-1", "backup-1")
		require.NoError(t, err)
		result, err := s.WaitForTask(context.Background(), "req-1", task)
		require.NoError(t, err)
		assert.Equal(t, string(SnapshotVMRef("vm-1", "backup-1")), result)
	})

	t.Run("failure payload", func(t *testing.T) {
		t.Parallel()

		s, lv, _ := newTestSession(t)
		lv.On("CreateDiskOnlySnapshot", "vm-1", "backup-1").Return(nil, errors.New("domain is not running"))

		task, err := s.CallAsync(context.Background(), hypervisor.MethodAsyncVMSnapshot, "vm-1", "backup-1")
		require.NoError(t, err)
		_, err = s.WaitForTask(context.Background(), "req-1", task)

		var taskErr *hypervisor.TaskError
		require.True(t, errors.As(err, &taskErr))
		assert.Equal(t, "req-1", taskErr.RequestID)
		assert.Equal(t, []string{ErrCodeSnapshotFailed, "vm-1", "backup-1"}, taskErr.Details)
	})
}

func TestSession_SRScanTask(t *testing.T) {
	t.Parallel()

	s, lv, _ := newTestSession(t)
	lv.On("RefreshStoragePool", "default").Return(nil).Once()
	lv.On("RefreshStoragePool", "default").Return(errors.New("pool busy")).Once()

	require.NoError(t, vmutil.ScanSR(context.Background(), s, "req-1", "default"))

	err := vmutil.ScanSR(context.Background(), s, "req-1", "default")
	var taskErr *hypervisor.TaskError
	require.True(t, errors.As(err, &taskErr))
	assert.Equal(t, []string{ErrCodeSRBackendFailure, "default"}, taskErr.Details)
}

func TestSession_SnapshotterEndToEnd(t *testing.T) {
	t.Parallel()

	s, lv, _ := newTestSession(t)
	lv.On("GetDomainDisks", "vm-1").Return(testDisks(), nil)
	lv.On("LookupVolumeByPath", diskAPath).Return(&libvirt.VolumeInfo{
		Key: diskAPath, Pool: "default", Path: diskAPath, Format: "qcow2", BackingPath: basePath,
	}, nil)
	lv.On("LookupVolumeByPath", basePath).Return(&libvirt.VolumeInfo{Key: basePath, Pool: "default", Path: basePath}, nil)
	lv.On("CreateDiskOnlySnapshot", "vm-1", "backup-1").Return(&libvirt.SnapshotInfo{Name: "backup-1", Domain: "vm-1"}, nil)
	lv.On("RefreshStoragePool", "default").Return(nil)

	watcher := vmutil.NewCoalesceWatcher(s, vmutil.WithPollInterval(time.Millisecond))
	result, err := vmutil.NewSnapshotter(s, watcher).CreateSnapshot(context.Background(), "req-1", "vm-1", "backup-1")
	require.NoError(t, err)

	assert.Equal(t, SnapshotVMRef("vm-1", "backup-1"), result.SnapshotVM)
	assert.Equal(t, []string{VolumeUUID(diskAPath), VolumeUUID(basePath)}, result.VDIUUIDs())
	lv.AssertNumberOfCalls(t, "RefreshStoragePool", 1)
	assert.Empty(t, s.Tasks().ListActiveTasks())
}

func TestSession_GetVMRecord(t *testing.T) {
	t.Parallel()

	s, lv, _ := newTestSession(t)
	lv.On("GetDomainInfo", "vm-1").Return(&libvirt.DomainInfo{
		Name: "vm-1", UUID: "4dea22b31d52d8f32516782e98ab3fa0", State: "Running",
		MaxMemory: 4 << 20, Memory: 2 << 20, VCPUs: 2,
	}, nil)

	rec, err := s.GetVMRecord(context.Background(), "vm-1")
	require.NoError(t, err)
	assert.Equal(t, hypervisor.PowerStateRunning, rec.PowerState)
	assert.Equal(t, uint64(4<<30), rec.MemoryStaticMax)

	info := vmutil.CompileInfo(rec)
	assert.Equal(t, vmutil.StateRunning, info.State)
	assert.Equal(t, uint64(4<<20), info.MaxMemKB)
}

func TestPowerState(t *testing.T) {
	t.Parallel()

	testcases := map[string]string{
		"Running":     hypervisor.PowerStateRunning,
		"Blocked":     hypervisor.PowerStateRunning,
		"Paused":      hypervisor.PowerStatePaused,
		"ShutOff":     hypervisor.PowerStateHalted,
		"NoState":     hypervisor.PowerStateHalted,
		"Crashed":     hypervisor.PowerStateCrashed,
		"PMSuspended": hypervisor.PowerStateSuspended,
	}
	for in, want := range testcases {
		assert.Equal(t, want, powerState(in), in)
	}
}
