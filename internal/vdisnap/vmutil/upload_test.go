package vmutil

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/jimyag/vdisnap/pkg/hypervisor"
)

func TestUploader_UploadImage(t *testing.T) {
	t.Parallel()

	paramsMatch := mock.MatchedBy(func(args map[string]string) bool {
		var params PutVDIsParams
		if err := json.Unmarshal([]byte(args[PluginParamsKey]), &params); err != nil {
			return false
		}
		return assert.ObjectsAreEqual(PutVDIsParams{
			VDIUUIDs:  []string{"u-A", "u-P"},
			ImageName: "web-backup",
			StoreHost: "images.local",
			StorePort: 9000,
		}, params)
	})

	taskErr := &hypervisor.TaskError{Task: "task-up", Name: "images.put_vdis", Details: []string{"UPLOAD_FAILED", "403"}}

	testcases := []struct {
		name    string
		waitErr error
	}{
		{name: "upload succeeds"},
		{name: "plugin task fails", waitErr: taskErr},
	}

	for _, tc := range testcases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			session := hypervisor.NewMockSession()
			session.On("CallPluginAsync", mock.Anything, ImagesPlugin, PutVDIsFunction, paramsMatch).
				Return(hypervisor.TaskRef("task-up"), nil)
			session.On("WaitForTask", mock.Anything, "req-1", hypervisor.TaskRef("task-up")).
				Return("", tc.waitErr)

			u := NewUploader(session, "images.local", 9000)
			err := u.UploadImage(context.Background(), "req-1", []string{"u-A", "u-P"}, "web-backup")
			if tc.waitErr != nil {
				require.Error(t, err)
				var got *hypervisor.TaskError
				require.True(t, errors.As(err, &got))
				assert.Same(t, taskErr, got)
				return
			}
			require.NoError(t, err)
			session.AssertExpectations(t)
		})
	}
}
