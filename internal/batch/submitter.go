// Package batch talks to the asynchronous batch inference service. Submission
// is synchronous and returns a job handle; the OCR work itself runs
// out-of-process, potentially for hours.
package batch

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/bedrock"
	"github.com/aws/aws-sdk-go-v2/service/bedrock/types"
	"github.com/google/uuid"

	"github.com/yorutsuke/yorutsuke-cloud/internal/common"
)

// Submitter starts a batch inference job over an uploaded manifest and
// returns the service-assigned job id.
type Submitter interface {
	Submit(ctx context.Context, manifestURI, modelID, outputURI string) (string, error)
}

// BedrockAPI is the slice of the Bedrock control-plane client used here.
type BedrockAPI interface {
	CreateModelInvocationJob(ctx context.Context, params *bedrock.CreateModelInvocationJobInput, optFns ...func(*bedrock.Options)) (*bedrock.CreateModelInvocationJobOutput, error)
}

type bedrockSubmitter struct {
	client  BedrockAPI
	roleARN string
	timeout time.Duration
	log     *slog.Logger
}

// NewBedrockSubmitter wires the real service client. The timeout bounds the
// submission call only, never the asynchronous job.
func NewBedrockSubmitter(client BedrockAPI, roleARN string, timeout time.Duration, log *slog.Logger) Submitter {
	return &bedrockSubmitter{client: client, roleARN: roleARN, timeout: timeout, log: log}
}

// NewBedrockClient builds the Bedrock client from a resolved config.
func NewBedrockClient(cfg aws.Config) *bedrock.Client {
	return bedrock.NewFromConfig(cfg)
}

func (s *bedrockSubmitter) Submit(ctx context.Context, manifestURI, modelID, outputURI string) (string, error) {
	start := time.Now()
	jobName := "yorutsuke-ocr-" + uuid.New().String()

	if s.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.timeout)
		defer cancel()
	}

	s.log.Info("batch.submit.start",
		"job_name", jobName, "model_id", modelID, "manifest_uri", manifestURI)

	out, err := s.client.CreateModelInvocationJob(ctx, &bedrock.CreateModelInvocationJobInput{
		JobName: aws.String(jobName),
		ModelId: aws.String(modelID),
		RoleArn: aws.String(s.roleARN),
		InputDataConfig: &types.ModelInvocationJobInputDataConfigMemberS3InputDataConfig{
			Value: types.ModelInvocationJobS3InputDataConfig{
				S3Uri: aws.String(manifestURI),
			},
		},
		OutputDataConfig: &types.ModelInvocationJobOutputDataConfigMemberS3OutputDataConfig{
			Value: types.ModelInvocationJobS3OutputDataConfig{
				S3Uri: aws.String(outputURI),
			},
		},
	})
	if err != nil {
		s.log.Error("batch.submit.error",
			"job_name", jobName, "error", err,
			"elapsed_ms", time.Since(start).Milliseconds())
		return "", fmt.Errorf("%w: %v", common.ErrSubmission, err)
	}

	jobID := aws.ToString(out.JobArn)
	s.log.Info("batch.submit.done",
		"job_name", jobName, "job_id", jobID,
		"elapsed_ms", time.Since(start).Milliseconds())
	return jobID, nil
}
