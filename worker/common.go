package worker

import (
	"fmt"
	"text2phenotype.com/melt/s3client"
	"time"
)

// workerName identifies this service in task documents and sequencer messages.
const workerName = "melt"

func getResultsFileKey(task *Task) string {
	return s3client.KeyJoin(
		"processed",
		"documents",
		task.tagTask.DocID,
		"tags",
		task.redisKey,
		fmt.Sprintf("%s.%s_results.json", task.redisKey, workerName),
	)
}

const RFC3339Micro = "2006-01-02T15:04:05.000000-07:00"

func getFormattedNow() *string {
	now := time.Now().UTC().Format(RFC3339Micro)
	return &now
}
