// SSM Parameter Store adapter for the secrets Provider interface.
package secrets

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/ssm"
	ssmtypes "github.com/aws/aws-sdk-go-v2/service/ssm/types"
)

// ssmAPI is the slice of the SSM client the adapter uses.
type ssmAPI interface {
	GetParameter(ctx context.Context, params *ssm.GetParameterInput, optFns ...func(*ssm.Options)) (*ssm.GetParameterOutput, error)
}

// fetchTimeout bounds one Parameter Store call.
const fetchTimeout = 5 * time.Second

// ParameterStore reads decrypted SecureString parameters from SSM.
type ParameterStore struct {
	api ssmAPI
}

// NewParameterStore wraps an SSM client.
func NewParameterStore(api ssmAPI) *ParameterStore {
	return &ParameterStore{api: api}
}

// GetSecret fetches and decrypts the parameter at path. A missing parameter
// yields ErrSecretUnavailable with the exact provisioning command the
// operator needs; other failures are wrapped with their cause.
func (s *ParameterStore) GetSecret(ctx context.Context, path string) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, fetchTimeout)
	defer cancel()

	out, err := s.api.GetParameter(ctx, &ssm.GetParameterInput{
		Name:           aws.String(path),
		WithDecryption: aws.Bool(true),
	})
	if err != nil {
		var notFound *ssmtypes.ParameterNotFound
		if errors.As(err, &notFound) {
			return "", fmt.Errorf(
				"%w: parameter %q not found; provision it with: aws ssm put-parameter --name %q --value '<BOT_TOKEN>' --type SecureString",
				ErrSecretUnavailable, path, path)
		}
		return "", fmt.Errorf("%w: read %q: %v", ErrSecretUnavailable, path, err)
	}
	if out.Parameter == nil || out.Parameter.Value == nil || *out.Parameter.Value == "" {
		return "", fmt.Errorf("%w: parameter %q has no value", ErrSecretUnavailable, path)
	}
	return *out.Parameter.Value, nil
}
