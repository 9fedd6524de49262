package aws

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidateRoleARN(t *testing.T) {
	t.Parallel()
	tests := []struct {
		arn     string
		wantErr bool
	}{
		{"arn:aws:iam::123456789012:role/parsebench-publisher", false},
		{"arn:aws:iam::123456789012:role/path/to/role", false},
		{"arn:aws-us-gov:iam::123456789012:role/parsebench", false},
		{"arn:aws-cn:iam::123456789012:role/parsebench", false},
		{"arn:aws-eu:iam::123456789012:role/parsebench", true},
		{"arn:aws:iam::123456789012:role/", true},
		{"arn:aws:iam::12345:role/short-account", true},
		{"arn:aws:iam::123456789012:user/someone", true},
		{"", true},
	}
	for _, tt := range tests {
		err := ValidateRoleARN(tt.arn)
		if tt.wantErr {
			assert.Error(t, err, tt.arn)
		} else {
			assert.NoError(t, err, tt.arn)
		}
	}
}

func TestNewAWSConfig_RejectsMalformedRole(t *testing.T) {
	t.Parallel()
	_, err := NewAWSConfig(context.Background(), "us-east-1", "", "not-an-arn")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "aws auth: invalid IAM role ARN")
}

func TestNewAWSConfig_Region(t *testing.T) {
	t.Setenv("AWS_ACCESS_KEY_ID", "AKIDEXAMPLE")
	t.Setenv("AWS_SECRET_ACCESS_KEY", "secret")
	t.Setenv("AWS_CONFIG_FILE", "/dev/null")
	t.Setenv("AWS_SHARED_CREDENTIALS_FILE", "/dev/null")

	cfg, err := NewAWSConfig(context.Background(), "eu-west-1", "", "arn:aws:iam::123456789012:role/parsebench")
	require.NoError(t, err)
	assert.Equal(t, "eu-west-1", cfg.Region)
	assert.NotNil(t, cfg.Credentials)
}
