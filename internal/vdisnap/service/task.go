package service

import (
	"context"
	"fmt"
	"sort"

	"github.com/jimyag/vdisnap/internal/vdisnap/entity"
	"github.com/jimyag/vdisnap/pkg/apierror"
	"github.com/jimyag/vdisnap/pkg/hypervisor"
)

// TaskService 查询异步任务桥中的后台任务
type TaskService struct {
	tasks *hypervisor.TaskManager
}

// NewTaskService 创建任务查询服务
func NewTaskService(tasks *hypervisor.TaskManager) *TaskService {
	return &TaskService{tasks: tasks}
}

// DescribeTasks 按句柄查询任务；未指定句柄时列出 pending 和 running 的任务
// 已结束的任务在被等待或被清理后不再可见
func (s *TaskService) DescribeTasks(_ context.Context, req *entity.DescribeTasksRequest) ([]entity.Task, error) {
	if len(req.Refs) == 0 {
		active := s.tasks.ListActiveTasks()
		result := make([]entity.Task, 0, len(active))
		for _, t := range active {
			result = append(result, taskToEntity(t))
		}
		sort.Slice(result, func(i, j int) bool {
			return result[i].CreatedAt.Before(result[j].CreatedAt)
		})
		return result, nil
	}

	result := make([]entity.Task, 0, len(req.Refs))
	for _, ref := range req.Refs {
		t, ok := s.tasks.GetTask(hypervisor.TaskRef(ref))
		if !ok {
			return nil, apierror.WrapError(apierror.ErrTaskNotFound, fmt.Sprintf("task %s not found", ref), nil)
		}
		result = append(result, taskToEntity(t))
	}
	return result, nil
}

func taskToEntity(t *hypervisor.Task) entity.Task {
	return entity.Task{
		Ref:       string(t.Ref),
		Name:      t.Name,
		Status:    string(t.Status),
		Result:    t.Result,
		Error:     t.Error,
		CreatedAt: t.CreatedAt,
		UpdatedAt: t.UpdatedAt,
	}
}
