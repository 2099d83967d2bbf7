package tasks

import (
	"context"
	"text2phenotype.com/melt/redis"
)

const TagsDB redis.DB = 2

// TagTask asks for the text stored under TextFileKey to be tagged.
type TagTask struct {
	DocID       string      `json:"document_id"`
	JobID       string      `json:"job_id"`
	TextFileKey string      `json:"text_file_key"`
	BeamSize    int         `json:"beam_size,omitempty"`
	Verbose     *bool       `json:"verbose,omitempty"`
	Status      TagTaskInfo `json:"melt"`
}

type TagTaskInfo struct {
	ResultsFileKey string     `json:"results_file_key"`
	StartedAt      *string    `json:"started_at"`
	CompletedAt    *string    `json:"completed_at"`
	Attempts       int        `json:"attempts"`
	Status         TaskStatus `json:"status"`
	Sentences      int        `json:"sentences"`
	Tokens         int        `json:"tokens"`
	ErrorMessages  []string   `json:"error_messages"`
}

type TagTasks struct {
	client redis.Client
}

func (tasks TagTasks) Get(ctx context.Context, redisKey string) (*TagTask, error) {
	var task TagTask
	if err := tasks.client.GetDocument(ctx, redisKey, &task); err != nil {
		return nil, err
	}
	return &task, nil
}

func (tasks TagTasks) Update(ctx context.Context, redisKey string, updateFunc func(task *TagTask)) error {
	var task TagTask
	return tasks.client.UpdateDocument(ctx, redisKey, &task, func() { updateFunc(&task) })
}
