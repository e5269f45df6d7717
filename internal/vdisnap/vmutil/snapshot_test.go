package vmutil

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/jimyag/vdisnap/pkg/hypervisor"
)

func vdiRecord(uuid, parent string) *hypervisor.VDIRecord {
	return &hypervisor.VDIRecord{
		Ref:      "disk-A",
		UUID:     uuid,
		SR:       "sr-1",
		SMConfig: hypervisor.SMConfig{VHDParent: parent},
	}
}

func newTestSnapshotter(session hypervisor.Session) *Snapshotter {
	watcher := NewCoalesceWatcher(session, WithPollInterval(time.Millisecond), WithMaxWait(5*time.Second))
	return NewSnapshotter(session, watcher)
}

func TestSnapshotter_CreateSnapshot_EndToEnd(t *testing.T) {
	t.Parallel()

	session := hypervisor.NewMockSession()
	session.On("GetVMVBDs", mock.Anything, hypervisor.VMRef("vm-1")).
		Return([]hypervisor.VBDRef{"vm-1/vda"}, nil)
	session.On("GetVBDVDI", mock.Anything, hypervisor.VBDRef("vm-1/vda")).
		Return(hypervisor.VDIRef("disk-A"), nil)

	// 枚举、读取记录、记录原始父磁盘
	session.On("GetVDIRecord", mock.Anything, hypervisor.VDIRef("disk-A")).
		Return(vdiRecord("u-A", "u-P"), nil).Times(3)
	// 第一轮轮询：合并中
	session.On("GetVDIRecord", mock.Anything, hypervisor.VDIRef("disk-A")).
		Return(vdiRecord("u-A", "u-TMP"), nil).Once()
	// 第二轮轮询：合并完成
	session.On("GetVDIRecord", mock.Anything, hypervisor.VDIRef("disk-A")).
		Return(vdiRecord("u-A", "u-P"), nil).Once()

	session.On("CallAsync", mock.Anything, hypervisor.MethodAsyncVMSnapshot, []string{"vm-1", "backup-1"}).
		Return(hypervisor.TaskRef("task-snap"), nil).Once()
	session.On("WaitForTask", mock.Anything, "req-1", hypervisor.TaskRef("task-snap")).
		Return("vm-2", nil).Once()
	session.On("CallAsync", mock.Anything, hypervisor.MethodAsyncSRScan, []string{"sr-1"}).
		Return(hypervisor.TaskRef("task-scan"), nil).Times(2)
	session.On("WaitForTask", mock.Anything, "req-1", hypervisor.TaskRef("task-scan")).
		Return("", nil).Times(2)

	result, err := newTestSnapshotter(session).CreateSnapshot(context.Background(), "req-1", "vm-1", "backup-1")
	require.NoError(t, err)
	require.NotNil(t, result)

	assert.Equal(t, hypervisor.VMRef("vm-2"), result.SnapshotVM)
	assert.Equal(t, []string{"u-A", "u-P"}, result.VDIUUIDs())
	session.AssertExpectations(t)
	session.AssertNumberOfCalls(t, "CallAsync", 3)
}

func TestSnapshotter_CreateSnapshot_Precondition(t *testing.T) {
	t.Parallel()

	testcases := []struct {
		name      string
		setupMock func(*hypervisor.MockSession)
		wantErr   error
		wantCount int
	}{
		{
			name: "no disks attached",
			setupMock: func(m *hypervisor.MockSession) {
				m.On("GetVMVBDs", mock.Anything, hypervisor.VMRef("vm-2")).
					Return([]hypervisor.VBDRef{}, nil)
			},
			wantErr:   ErrNoDisksFound,
			wantCount: 0,
		},
		{
			name: "every VBD fails to resolve",
			setupMock: func(m *hypervisor.MockSession) {
				m.On("GetVMVBDs", mock.Anything, hypervisor.VMRef("vm-2")).
					Return([]hypervisor.VBDRef{"vm-2/vda"}, nil)
				m.On("GetVBDVDI", mock.Anything, hypervisor.VBDRef("vm-2/vda")).
					Return(hypervisor.VDIRef(""), hypervisor.NewFailure("VBD.get_VDI", nil, "HANDLE_INVALID"))
			},
			wantErr:   ErrNoDisksFound,
			wantCount: 0,
		},
		{
			name: "two disks attached",
			setupMock: func(m *hypervisor.MockSession) {
				m.On("GetVMVBDs", mock.Anything, hypervisor.VMRef("vm-2")).
					Return([]hypervisor.VBDRef{"vm-2/vda", "vm-2/vdb"}, nil)
				m.On("GetVBDVDI", mock.Anything, hypervisor.VBDRef("vm-2/vda")).
					Return(hypervisor.VDIRef("disk-A"), nil)
				m.On("GetVBDVDI", mock.Anything, hypervisor.VBDRef("vm-2/vdb")).
					Return(hypervisor.VDIRef("disk-B"), nil)
				m.On("GetVDIRecord", mock.Anything, mock.Anything).
					Return(vdiRecord("u-X", ""), nil)
			},
			wantErr:   ErrUnexpectedDiskCount,
			wantCount: 2,
		},
	}

	for _, tc := range testcases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			session := hypervisor.NewMockSession()
			tc.setupMock(session)

			result, err := newTestSnapshotter(session).CreateSnapshot(context.Background(), "req-1", "vm-2", "backup-1")
			require.Error(t, err)
			assert.Nil(t, result)
			assert.ErrorIs(t, err, tc.wantErr)

			var precondition *PreconditionError
			require.True(t, errors.As(err, &precondition))
			assert.Equal(t, hypervisor.VMRef("vm-2"), precondition.VM)
			assert.Equal(t, tc.wantCount, precondition.Count)

			session.AssertNotCalled(t, "CallAsync", mock.Anything, mock.Anything, mock.Anything)
		})
	}
}

func TestSnapshotter_CreateSnapshot_TaskFailure(t *testing.T) {
	t.Parallel()

	taskErr := &hypervisor.TaskError{
		Task:      "task-snap",
		Name:      hypervisor.MethodAsyncVMSnapshot,
		RequestID: "req-1",
		Details:   []string{"VM_BAD_POWER_STATE", "vm-1", "running", "halted"},
	}

	session := hypervisor.NewMockSession()
	session.On("GetVMVBDs", mock.Anything, hypervisor.VMRef("vm-1")).
		Return([]hypervisor.VBDRef{"vm-1/vda"}, nil)
	session.On("GetVBDVDI", mock.Anything, hypervisor.VBDRef("vm-1/vda")).
		Return(hypervisor.VDIRef("disk-A"), nil)
	session.On("GetVDIRecord", mock.Anything, hypervisor.VDIRef("disk-A")).
		Return(vdiRecord("u-A", "u-P"), nil)
	session.On("CallAsync", mock.Anything, hypervisor.MethodAsyncVMSnapshot, []string{"vm-1", "backup-1"}).
		Return(hypervisor.TaskRef("task-snap"), nil)
	session.On("WaitForTask", mock.Anything, "req-1", hypervisor.TaskRef("task-snap")).
		Return("", taskErr)

	result, err := newTestSnapshotter(session).CreateSnapshot(context.Background(), "req-1", "vm-1", "backup-1")
	require.Error(t, err)
	assert.Nil(t, result)
	assert.ErrorIs(t, err, hypervisor.ErrBackendCall)

	var got *hypervisor.TaskError
	require.True(t, errors.As(err, &got))
	assert.Same(t, taskErr, got)
	assert.Equal(t, []string{"VM_BAD_POWER_STATE", "vm-1", "running", "halted"}, got.Details)
	assert.Contains(t, err.Error(), "u-A")

	// 快照失败后不会开始等待合并
	session.AssertNotCalled(t, "CallAsync", mock.Anything, hypervisor.MethodAsyncSRScan, mock.Anything)
}

func TestSnapshotter_CreateSnapshot_RecordFetchFailure(t *testing.T) {
	t.Parallel()

	session := hypervisor.NewMockSession()
	session.On("GetVMVBDs", mock.Anything, hypervisor.VMRef("vm-1")).
		Return(nil, hypervisor.NewFailure("VM.get_VBDs", nil, "HANDLE_INVALID", "VM", "vm-1"))

	result, err := newTestSnapshotter(session).CreateSnapshot(context.Background(), "req-1", "vm-1", "backup-1")
	require.Error(t, err)
	assert.Nil(t, result)
	assert.ErrorIs(t, err, hypervisor.ErrBackendCall)
	assert.NotErrorIs(t, err, ErrNoDisksFound)
}

func TestSnapshotResult_VDIUUIDs(t *testing.T) {
	t.Parallel()

	testcases := []struct {
		name   string
		result SnapshotResult
		want   []string
	}{
		{
			name:   "with parent",
			result: SnapshotResult{SnapshotVM: "vm-2", VDIUUID: "u-A", ParentVDIUUID: "u-P"},
			want:   []string{"u-A", "u-P"},
		},
		{
			name:   "chain root",
			result: SnapshotResult{SnapshotVM: "vm-2", VDIUUID: "u-A"},
			want:   []string{"u-A"},
		},
	}

	for _, tc := range testcases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tc.want, tc.result.VDIUUIDs())
		})
	}
}
