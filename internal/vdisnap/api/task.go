package api

import (
	"context"

	"github.com/gin-gonic/gin"

	"github.com/jimyag/vdisnap/internal/vdisnap/entity"
	"github.com/jimyag/vdisnap/pkg/ginx"
)

// TaskServiceInterface 定义后台任务查询服务接口
type TaskServiceInterface interface {
	DescribeTasks(ctx context.Context, req *entity.DescribeTasksRequest) ([]entity.Task, error)
}

type Task struct {
	taskService TaskServiceInterface
}

func (t *Task) RegisterRoutes(router *gin.RouterGroup) {
	router.POST("/describe-tasks", ginx.Adapt5(t.DescribeTasks))
}

func (t *Task) DescribeTasks(ctx *gin.Context, req *entity.DescribeTasksRequest) (*entity.DescribeTasksResponse, error) {
	tasks, err := t.taskService.DescribeTasks(ctx.Request.Context(), req)
	if err != nil {
		return nil, err
	}
	return &entity.DescribeTasksResponse{Tasks: tasks}, nil
}
