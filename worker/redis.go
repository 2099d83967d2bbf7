package worker

import (
	"context"
	"fmt"
	"text2phenotype.com/melt/tasks"
)

type redisTransactions interface {
	getTagTask(ctx context.Context, redisKey string) (*tasks.TagTask, error)
	getJobTask(task *Task) (*tasks.JobTask, error)
	getDocTask(task *Task) (*tasks.DocumentTask, error)
	onTaskStarted(task *Task) error
	onTaskCancelled(task *Task, errorMessages ...string) error
	onTaskExceededRetries(task *Task, maxRetries int) error
	onTaskFailedWithError(task *Task, err error) error
	onTaskComplete(task *Task, summary resultSummary) error
	close()
}

type redisClientWrapper struct {
	tasksClient *tasks.Client
}

func (wrapper *redisClientWrapper) close() {
	wrapper.tasksClient.Close()
}

func (wrapper *redisClientWrapper) update(task *Task, updateFunc func(info *tasks.TagTaskInfo)) error {
	return wrapper.tasksClient.Tags.Update(task.ctx, task.redisKey, func(tagTask *tasks.TagTask) {
		updateFunc(&tagTask.Status)
	})
}

func (wrapper *redisClientWrapper) onTaskStarted(task *Task) error {
	return wrapper.update(task, func(info *tasks.TagTaskInfo) {
		info.Status = tasks.TaskStatusStarted
		info.Attempts++
		info.StartedAt = getFormattedNow()
		info.CompletedAt = nil
	})
}

func (wrapper *redisClientWrapper) onTaskCancelled(task *Task, errorMessages ...string) error {
	return wrapper.update(task, func(info *tasks.TagTaskInfo) {
		info.Status = tasks.TaskStatusCanceled
		info.StartedAt = getFormattedNow()
		info.CompletedAt = getFormattedNow()
		info.Attempts++
		info.ErrorMessages = append(info.ErrorMessages, errorMessages...)
	})
}

func (wrapper *redisClientWrapper) onTaskExceededRetries(task *Task, maxRetries int) error {
	if err := wrapper.tasksClient.Documents.MarkFailed(task.ctx, task.tagTask.DocID, workerName); err != nil {
		return err
	}
	return wrapper.update(task, func(info *tasks.TagTaskInfo) {
		info.Status = tasks.TaskStatusCompletedFailure
		info.StartedAt = getFormattedNow()
		info.CompletedAt = getFormattedNow()
		info.Attempts++
		info.ErrorMessages = append(
			info.ErrorMessages,
			fmt.Sprintf("Task has exceeded retries. (Attempts: %d, max retries: %d )", info.Attempts, maxRetries),
		)
	})
}

func (wrapper *redisClientWrapper) onTaskFailedWithError(task *Task, err error) error {
	return wrapper.update(task, func(info *tasks.TagTaskInfo) {
		info.Status = tasks.TaskStatusFailed
		info.CompletedAt = getFormattedNow()
		info.ErrorMessages = append(info.ErrorMessages, err.Error())
	})
}

func (wrapper *redisClientWrapper) onTaskComplete(task *Task, summary resultSummary) error {
	return wrapper.update(task, func(info *tasks.TagTaskInfo) {
		if !info.Status.Complete() {
			info.Status = tasks.TaskStatusCompletedSuccess
		}
		info.CompletedAt = getFormattedNow()
		info.ResultsFileKey = getResultsFileKey(task)
		info.Sentences = summary.Sentences
		info.Tokens = summary.Tokens
		if summary.Errors > 0 {
			info.ErrorMessages = append(info.ErrorMessages, fmt.Sprintf("%d sentences could not be tagged", summary.Errors))
		}
	})
}

func (wrapper *redisClientWrapper) getTagTask(ctx context.Context, redisKey string) (*tasks.TagTask, error) {
	return wrapper.tasksClient.Tags.Get(ctx, redisKey)
}

func (wrapper *redisClientWrapper) getJobTask(task *Task) (*tasks.JobTask, error) {
	return wrapper.tasksClient.Jobs.GetCached(task.ctx, task.tagTask.JobID)
}

func (wrapper *redisClientWrapper) getDocTask(task *Task) (*tasks.DocumentTask, error) {
	return wrapper.tasksClient.Documents.Get(task.ctx, task.tagTask.DocID)
}
