package s3client

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/credentials"
	"github.com/aws/aws-sdk-go/aws/session"
	"github.com/aws/aws-sdk-go/service/s3"
	"github.com/aws/aws-sdk-go/service/s3/s3manager"
	"github.com/aws/aws-sdk-go/service/sts"
	"github.com/kelseyhightower/envconfig"
	"github.com/rs/zerolog"
	"os"
	"path"
	"path/filepath"
	"strings"
	"sync"
	"text2phenotype.com/melt/logger"
)

// Client reads and writes objects of a single bucket. A failed call refreshes the session
// once and retries.
type Client struct {
	mu   sync.Mutex
	sess *session.Session
	env  EnvironmentConfig
}

var clientLogger = logger.NewLogger("S3Client")

func New() (*Client, error) {
	env, err := readEnvironment()
	if err != nil {
		clientLogger.Err(err).Msg("Failed to get proper variables from environment")
		return nil, err
	}
	client := &Client{env: env}
	if err := client.refresh(); err != nil {
		return nil, err
	}
	return client, nil
}

func (client *Client) Bucket() string {
	return client.env.BucketName
}

func (client *Client) Upload(ctx context.Context, key string, data []byte) error {
	return client.withSession(func(sess *session.Session) error {
		log := client.objectLogger(key)
		uploader := s3manager.NewUploader(sess.Copy(&aws.Config{Logger: newSDKLogger(log)}))
		log.Debug().Int("bytes", len(data)).Msg("Uploading the file")
		_, err := uploader.UploadWithContext(ctx, &s3manager.UploadInput{
			Bucket: aws.String(client.env.BucketName),
			Key:    aws.String(key),
			Body:   bytes.NewReader(data),
		})
		return err
	})
}

func (client *Client) Download(ctx context.Context, key string) ([]byte, error) {
	var data []byte
	err := client.withSession(func(sess *session.Session) error {
		var err error
		data, err = client.download(ctx, sess, key)
		return err
	})
	return data, err
}

// DownloadDir copies every object under prefix into dir, keeping the key layout below prefix.
// It returns the number of files written.
func (client *Client) DownloadDir(ctx context.Context, prefix string, dir string) (int, error) {
	prefix = strings.TrimSuffix(prefix, "/") + "/"
	var keys []string
	err := client.withSession(func(sess *session.Session) error {
		keys = keys[:0]
		input := &s3.ListObjectsV2Input{
			Bucket: aws.String(client.env.BucketName),
			Prefix: aws.String(prefix),
		}
		return s3.New(sess).ListObjectsV2PagesWithContext(ctx, input, func(page *s3.ListObjectsV2Output, last bool) bool {
			for _, obj := range page.Contents {
				if !strings.HasSuffix(*obj.Key, "/") {
					keys = append(keys, *obj.Key)
				}
			}
			return true
		})
	})
	if err != nil {
		return 0, err
	}
	if len(keys) == 0 {
		return 0, fmt.Errorf("no objects under s3://%s/%s", client.env.BucketName, prefix)
	}

	for _, key := range keys {
		data, err := client.Download(ctx, key)
		if err != nil {
			return 0, err
		}
		target := filepath.Join(dir, filepath.FromSlash(strings.TrimPrefix(key, prefix)))
		if err := os.MkdirAll(filepath.Dir(target), 0755); err != nil {
			return 0, err
		}
		if err := os.WriteFile(target, data, 0644); err != nil {
			return 0, err
		}
	}
	clientLogger.Info().Str("prefix", prefix).Int("files", len(keys)).Msg("Downloaded directory")
	return len(keys), nil
}

func (client *Client) download(ctx context.Context, sess *session.Session, key string) ([]byte, error) {
	log := client.objectLogger(key)
	downloader := s3manager.NewDownloader(sess.Copy(&aws.Config{Logger: newSDKLogger(log)}))
	buf := aws.NewWriteAtBuffer([]byte{})

	log.Debug().Msg("Downloading file")
	size, err := downloader.DownloadWithContext(ctx, buf, &s3.GetObjectInput{
		Bucket: aws.String(client.env.BucketName),
		Key:    aws.String(key),
	})
	if err != nil {
		log.Error().Err(err).Msg("Failed to download file")
		return nil, err
	}
	log.Debug().Msgf("Downloaded %v bytes", size)
	return buf.Bytes(), nil
}

func (client *Client) withSession(call func(sess *session.Session) error) error {
	sess, err := client.session()
	if err != nil {
		return err
	}
	if err = call(sess); err == nil {
		return nil
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return err
	}
	clientLogger.Error().Err(err).Msg("Caught error while using S3 session, trying to refresh it")
	if refreshErr := client.refresh(); refreshErr != nil {
		return err
	}
	sess, err = client.session()
	if err != nil {
		return err
	}
	return call(sess)
}

func (client *Client) session() (*session.Session, error) {
	client.mu.Lock()
	defer client.mu.Unlock()
	if client.sess == nil {
		return nil, errors.New("could not get session")
	}
	return client.sess, nil
}

// refresh tries the instance role first and falls back to credentials from the environment.
func (client *Client) refresh() error {
	sess, err := verifiedSession(client.ec2Config())
	if err == nil {
		client.setSession(sess)
		clientLogger.Info().Msg("S3 session successfully initialized using EC2")
		return nil
	}
	clientLogger.Info().Msg("Could not initialize S3 session using EC2, trying env credentials")

	cfg, err := client.envConfig()
	if err != nil {
		client.setSession(nil)
		clientLogger.Error().Err(err).Msg("Error with credentials from environment")
		return err
	}
	sess, err = verifiedSession(cfg)
	if err != nil {
		client.setSession(nil)
		clientLogger.Error().Err(err).Msg("Could not initialize S3 session")
		return errors.New("could not initialize S3 session")
	}
	client.setSession(sess)
	clientLogger.Info().Msg("S3 session successfully initialized using env credentials")
	return nil
}

func (client *Client) setSession(sess *session.Session) {
	client.mu.Lock()
	client.sess = sess
	client.mu.Unlock()
}

func verifiedSession(cfg *aws.Config) (*session.Session, error) {
	sess, err := session.NewSession(cfg)
	if err != nil {
		return nil, err
	}
	if _, err = sts.New(sess).GetCallerIdentity(&sts.GetCallerIdentityInput{}); err != nil {
		return nil, err
	}
	return sess, nil
}

func (client *Client) ec2Config() *aws.Config {
	return &aws.Config{
		Region:     aws.String(client.env.Region),
		MaxRetries: aws.Int(4),
		LogLevel:   aws.LogLevel(aws.LogDebug),
	}
}

func (client *Client) envConfig() (*aws.Config, error) {
	creds := credentials.NewStaticCredentials(client.env.AccessKeyID, client.env.AccessKey, "")
	if _, err := creds.Get(); err != nil {
		return nil, err
	}
	cfg := aws.NewConfig().
		WithRegion(client.env.Region).
		WithMaxRetries(4).
		WithCredentials(creds).
		WithLogLevel(aws.LogDebug)

	if client.env.Env == "dev" && len(client.env.AwsEndpoint) > 0 {
		cfg = cfg.WithEndpoint(client.env.AwsEndpoint).WithS3ForcePathStyle(true)
	}
	return cfg, nil
}

func (client *Client) objectLogger(key string) zerolog.Logger {
	return clientLogger.With().
		Str("key", key).
		Str("bucket", client.env.BucketName).Logger()
}

type EnvironmentConfig struct {
	BucketName  string `envconfig:"MELT_S3_BUCKET" required:"true"`
	Env         string `envconfig:"MELT_ENV" default:"prod"`
	Region      string `envconfig:"MELT_AWS_REGION_NAME" required:"true"`
	AwsEndpoint string `envconfig:"MELT_AWS_ENDPOINT_URL" default:""`
	AccessKeyID string `envconfig:"MELT_AWS_ACCESS_ID" default:""`
	AccessKey   string `envconfig:"MELT_AWS_ACCESS_KEY" default:""`
}

func readEnvironment() (EnvironmentConfig, error) {
	var config EnvironmentConfig
	err := envconfig.Process("", &config)
	return config, err
}

// KeyJoin joins object key parts with forward slashes.
func KeyJoin(parts ...string) string {
	return path.Join(parts...)
}

type sdkLoggerAdapter struct {
	log zerolog.Logger
}

func newSDKLogger(log zerolog.Logger) *sdkLoggerAdapter {
	return &sdkLoggerAdapter{log: log.With().Str("source", "sdk").Logger()}
}

func (adapter *sdkLoggerAdapter) Log(v ...interface{}) {
	adapter.log.Debug().Msg(fmt.Sprint(v...))
}
