package worker

import "text2phenotype.com/melt/s3client"

type s3Transactions interface {
	saveResultsFile(task *Task, result string) error
	getTextData(task *Task) ([]byte, error)
	close()
}

type s3ClientWrapper struct {
	s3Client *s3client.Client
}

func (wrapper *s3ClientWrapper) close() {}

func (wrapper *s3ClientWrapper) saveResultsFile(task *Task, result string) error {
	return wrapper.s3Client.Upload(task.ctx, getResultsFileKey(task), []byte(result))
}

func (wrapper *s3ClientWrapper) getTextData(task *Task) ([]byte, error) {
	return wrapper.s3Client.Download(task.ctx, task.tagTask.TextFileKey)
}
