package tasks

import (
	"context"
	"text2phenotype.com/melt/redis"
)

const DocumentsDB redis.DB = 0

// DocumentTask tracks which tasks of a document have failed.
type DocumentTask struct {
	FailedTasks []string `json:"failed_tasks"`
}

type DocumentTasks struct {
	client redis.Client
}

func (tasks DocumentTasks) Get(ctx context.Context, redisKey string) (*DocumentTask, error) {
	var task DocumentTask
	if err := tasks.client.GetDocument(ctx, redisKey, &task); err != nil {
		return nil, err
	}
	return &task, nil
}

// MarkFailed records taskName as failed, once.
func (tasks DocumentTasks) MarkFailed(ctx context.Context, redisKey string, taskName string) error {
	var task DocumentTask
	return tasks.client.UpdateDocument(ctx, redisKey, &task, func() {
		for _, name := range task.FailedTasks {
			if name == taskName {
				return
			}
		}
		task.FailedTasks = append(task.FailedTasks, taskName)
	})
}
