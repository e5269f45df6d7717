package entity

import "time"

// Task 后台任务
type Task struct {
	Ref       string    `json:"ref"`
	Name      string    `json:"name"`
	Status    string    `json:"status"`
	Result    string    `json:"result,omitempty"`
	Error     string    `json:"error,omitempty"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// DescribeTasksRequest 查询后台任务，Refs 为空时列出进行中的任务
type DescribeTasksRequest struct {
	Refs []string `json:"refs,omitempty"`
}

type DescribeTasksResponse struct {
	Tasks []Task `json:"tasks"`
}
