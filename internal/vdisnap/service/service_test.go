package service

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/jimyag/vdisnap/internal/vdisnap/repository"
	"github.com/jimyag/vdisnap/internal/vdisnap/vmutil"
	"github.com/jimyag/vdisnap/pkg/hypervisor"
)

func setupTestRepo(t *testing.T) *repository.Repository {
	t.Helper()

	repo, err := repository.New(filepath.Join(t.TempDir(), "vdisnap.db"))
	require.NoError(t, err)
	t.Cleanup(func() {
		_ = repo.Close()
	})
	return repo
}

func newTestSnapshotService(t *testing.T, session hypervisor.Session, opts ...vmutil.CoalesceOption) *SnapshotService {
	t.Helper()

	opts = append([]vmutil.CoalesceOption{
		vmutil.WithPollInterval(time.Millisecond),
		vmutil.WithMaxWait(time.Second),
	}, opts...)
	watcher := vmutil.NewCoalesceWatcher(session, opts...)
	uploader := vmutil.NewUploader(session, "store.local", 9000)
	return NewSnapshotService(session, watcher, uploader, setupTestRepo(t))
}

func vdiRecord(uuid, parent string) *hypervisor.VDIRecord {
	return &hypervisor.VDIRecord{
		Ref:      "disk-A",
		UUID:     uuid,
		SR:       "sr-1",
		SMConfig: hypervisor.SMConfig{VHDParent: parent},
	}
}

// expectLookup vm 名称解析为 ref
func expectLookup(m *hypervisor.MockSession, name string, refs ...string) {
	if refs == nil {
		refs = []string{}
	}
	m.On("Call", mock.Anything, hypervisor.MethodVMGetByNameLabel, []string{name}).Return(refs, nil)
}

// expectSingleDisk vm 只挂了 disk-A，父磁盘 u-P 已经稳定
func expectSingleDisk(m *hypervisor.MockSession, vm string) {
	m.On("GetVMVBDs", mock.Anything, hypervisor.VMRef(vm)).
		Return([]hypervisor.VBDRef{hypervisor.VBDRef(vm + "/vda")}, nil)
	m.On("GetVBDVDI", mock.Anything, hypervisor.VBDRef(vm+"/vda")).
		Return(hypervisor.VDIRef("disk-A"), nil)
	m.On("GetVDIRecord", mock.Anything, hypervisor.VDIRef("disk-A")).
		Return(vdiRecord("u-A", "u-P"), nil)
}

func expectScans(m *hypervisor.MockSession) {
	m.On("CallAsync", mock.Anything, hypervisor.MethodAsyncSRScan, []string{"sr-1"}).
		Return(hypervisor.TaskRef("task-scan"), nil)
	m.On("WaitForTask", mock.Anything, mock.Anything, hypervisor.TaskRef("task-scan")).
		Return("", nil)
}

func expectSnapshotTask(m *hypervisor.MockSession, vm, label, result string, err error) {
	m.On("CallAsync", mock.Anything, hypervisor.MethodAsyncVMSnapshot, []string{vm, label}).
		Return(hypervisor.TaskRef("task-snap"), nil)
	m.On("WaitForTask", mock.Anything, mock.Anything, hypervisor.TaskRef("task-snap")).
		Return(result, err)
}
