package hypervisor

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/jimyag/vdisnap/pkg/idgen"
	"github.com/rs/zerolog"
)

// TaskStatus 后台任务状态
type TaskStatus string

const (
	TaskStatusPending   TaskStatus = "pending"
	TaskStatusRunning   TaskStatus = "running"
	TaskStatusSucceeded TaskStatus = "success"
	TaskStatusFailed    TaskStatus = "failure"
)

// Task 后台任务快照
type Task struct {
	Ref       TaskRef    `json:"ref"`
	Name      string     `json:"name"`
	Status    TaskStatus `json:"status"`
	Result    string     `json:"result,omitempty"`
	Error     string     `json:"error,omitempty"`
	CreatedAt time.Time  `json:"created_at"`
	UpdatedAt time.Time  `json:"updated_at"`
}

// TaskFunc 后台任务的执行体
type TaskFunc func(ctx context.Context) (string, error)

type taskEntry struct {
	task Task
	err  error
	done chan struct{}
}

// TaskManager 异步任务桥
// 任务在独立的 goroutine 中执行，不受提交方取消的影响；
// Wait 只挂起调用它的 goroutine
type TaskManager struct {
	mu    sync.RWMutex
	tasks map[TaskRef]*taskEntry
	idGen *idgen.Generator
}

// NewTaskManager 创建任务管理器，任务 ID 来自默认生成器
func NewTaskManager() *TaskManager {
	return NewTaskManagerWithIDs(idgen.DefaultGenerator())
}

// NewTaskManagerWithIDs 使用给定的 ID 生成器创建任务管理器
// 生成器不可用时 Submit 返回错误
func NewTaskManagerWithIDs(ids *idgen.Generator) *TaskManager {
	return &TaskManager{
		tasks: make(map[TaskRef]*taskEntry),
		idGen: ids,
	}
}

// Submit 提交后台任务
func (m *TaskManager) Submit(ctx context.Context, name string, fn TaskFunc) (TaskRef, error) {
	id, err := m.idGen.GenerateTaskID()
	if err != nil {
		return "", fmt.Errorf("generate task ID: %w", err)
	}
	ref := TaskRef(id)

	now := time.Now()
	entry := &taskEntry{
		task: Task{
			Ref:       ref,
			Name:      name,
			Status:    TaskStatusPending,
			CreatedAt: now,
			UpdatedAt: now,
		},
		done: make(chan struct{}),
	}

	m.mu.Lock()
	m.tasks[ref] = entry
	m.mu.Unlock()

	// 任务的生命周期独立于提交请求
	runCtx := context.WithoutCancel(ctx)
	go func() {
		logger := zerolog.Ctx(runCtx)
		m.setStatus(ref, TaskStatusRunning, "", nil)

		result, err := fn(runCtx)
		if err != nil {
			logger.Debug().Err(err).Str("task", string(ref)).Str("name", name).Msg("Task failed")
			m.setStatus(ref, TaskStatusFailed, "", err)
		} else {
			m.setStatus(ref, TaskStatusSucceeded, result, nil)
		}
		close(entry.done)
	}()

	return ref, nil
}

func (m *TaskManager) setStatus(ref TaskRef, status TaskStatus, result string, err error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	entry, ok := m.tasks[ref]
	if !ok {
		return
	}
	entry.task.Status = status
	entry.task.Result = result
	entry.err = err
	if err != nil {
		entry.task.Error = err.Error()
	}
	entry.task.UpdatedAt = time.Now()
}

// Wait 等待任务结束并返回其结果
// ctx 取消时返回 ctx.Err()，任务本身继续运行，仍可再次等待
func (m *TaskManager) Wait(ctx context.Context, requestID string, ref TaskRef) (string, error) {
	m.mu.RLock()
	entry, ok := m.tasks[ref]
	m.mu.RUnlock()
	if !ok {
		return "", NewFailure("task.wait", nil, "HANDLE_INVALID", string(ref))
	}

	select {
	case <-ctx.Done():
		return "", ctx.Err()
	case <-entry.done:
	}

	m.mu.Lock()
	delete(m.tasks, ref)
	task := entry.task
	taskErr := entry.err
	m.mu.Unlock()

	if taskErr != nil {
		return "", &TaskError{
			Task:      ref,
			Name:      task.Name,
			RequestID: requestID,
			Details:   failureDetails(taskErr),
			Err:       taskErr,
		}
	}
	return task.Result, nil
}

// failureDetails 提取后端错误内容
func failureDetails(err error) []string {
	var f *Failure
	if errors.As(err, &f) && len(f.Details) > 0 {
		return f.Details
	}
	return []string{err.Error()}
}

// GetTask 返回任务的副本
func (m *TaskManager) GetTask(ref TaskRef) (*Task, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	entry, ok := m.tasks[ref]
	if !ok {
		return nil, false
	}
	task := entry.task
	return &task, true
}

// ListActiveTasks 列出所有 pending 或 running 的任务
func (m *TaskManager) ListActiveTasks() []*Task {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var result []*Task
	for _, entry := range m.tasks {
		if entry.task.Status == TaskStatusPending || entry.task.Status == TaskStatusRunning {
			task := entry.task
			result = append(result, &task)
		}
	}
	return result
}

// CleanupOldTasks 清理已结束但没人等待的旧任务
func (m *TaskManager) CleanupOldTasks(maxAge time.Duration) int {
	m.mu.Lock()
	defer m.mu.Unlock()

	removed := 0
	now := time.Now()
	for ref, entry := range m.tasks {
		if entry.task.Status != TaskStatusSucceeded && entry.task.Status != TaskStatusFailed {
			continue
		}
		if now.Sub(entry.task.UpdatedAt) > maxAge {
			delete(m.tasks, ref)
			removed++
		}
	}
	return removed
}
