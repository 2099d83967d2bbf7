package tasks

import (
	"fmt"
	"text2phenotype.com/melt/redis"
)

type Client struct {
	Documents DocumentTasks
	Tags      TagTasks
	Jobs      JobTasks
}

// NewClient is a preferred way for working with task documents
func NewClient() (Client, error) {
	docRedisClient, err := redis.NewClient(DocumentsDB)
	if err != nil {
		return Client{}, err
	}
	jobsRedisClient, err := redis.NewClient(JobsDB)
	if err != nil {
		return Client{}, err
	}
	tagsRedisClient, err := redis.NewClient(TagsDB)
	if err != nil {
		return Client{}, err
	}
	return Client{
		Documents: DocumentTasks{client: docRedisClient},
		Jobs:      JobTasks{client: jobsRedisClient},
		Tags:      TagTasks{client: tagsRedisClient},
	}, nil
}

func (client *Client) Close() {
	_ = client.Tags.client.Close()
	_ = client.Documents.client.Close()
	_ = client.Jobs.client.Close()
}

func cachedPropertiesKey(redisKey string) string {
	return fmt.Sprintf("%s-cached-properties", redisKey)
}
