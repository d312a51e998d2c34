//go:build integration

package aws

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	awstest "github.com/edel-social/edel-server/s3/aws/test"
	"github.com/edel-social/edel-server/s3/tests"
)

func TestAWSStore(t *testing.T) {
	endpoint, cleanup, err := awstest.StartS3Mock()
	require.NoError(t, err, "Failed to start S3 mock")
	defer cleanup()

	store, err := NewAWSStore(zap.NewNop(), Config{
		Endpoint:        endpoint,
		Region:          awstest.Region,
		Bucket:          "edel-test",
		AccessKeyID:     awstest.AccessKey,
		SecretAccessKey: awstest.SecretKey,
	})
	require.NoError(t, err, "Failed to initialize AWSStore with mock endpoint")
	require.NoError(t, store.EnsureBucket(context.Background()))

	tests.RunStoreTests(t, store, func() {
		// No additional teardown needed as cleanup is handled by the defer statement
	})
}
