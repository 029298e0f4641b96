package secrets

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/ssm"
	ssmtypes "github.com/aws/aws-sdk-go-v2/service/ssm/types"
)

type fakeSSM struct {
	gotName        string
	gotDecryption  bool
	value          *string
	err            error
	parameterIsNil bool
}

func (f *fakeSSM) GetParameter(ctx context.Context, params *ssm.GetParameterInput, optFns ...func(*ssm.Options)) (*ssm.GetParameterOutput, error) {
	f.gotName = aws.ToString(params.Name)
	f.gotDecryption = aws.ToBool(params.WithDecryption)
	if f.err != nil {
		return nil, f.err
	}
	if f.parameterIsNil {
		return &ssm.GetParameterOutput{}, nil
	}
	return &ssm.GetParameterOutput{
		Parameter: &ssmtypes.Parameter{Value: f.value},
	}, nil
}

func TestParameterStore_GetSecret(t *testing.T) {
	f := &fakeSSM{value: aws.String("tok-123")}
	s := NewParameterStore(f)

	got, err := s.GetSecret(context.Background(), "/gateway/telegram/bot-token")
	if err != nil {
		t.Fatalf("GetSecret: %v", err)
	}
	if got != "tok-123" {
		t.Fatalf("value = %q; want tok-123", got)
	}
	if f.gotName != "/gateway/telegram/bot-token" {
		t.Fatalf("name = %q", f.gotName)
	}
	if !f.gotDecryption {
		t.Fatal("WithDecryption not set")
	}
}

func TestParameterStore_NotFoundIsActionable(t *testing.T) {
	f := &fakeSSM{err: &ssmtypes.ParameterNotFound{}}
	s := NewParameterStore(f)

	_, err := s.GetSecret(context.Background(), "/missing/path")
	if !errors.Is(err, ErrSecretUnavailable) {
		t.Fatalf("err = %v; want ErrSecretUnavailable", err)
	}
	// The operator must be told how to provision the value.
	if !strings.Contains(err.Error(), "aws ssm put-parameter") || !strings.Contains(err.Error(), "/missing/path") {
		t.Fatalf("error not actionable: %v", err)
	}
}

func TestParameterStore_OtherErrorsWrapped(t *testing.T) {
	f := &fakeSSM{err: errors.New("throttled")}
	s := NewParameterStore(f)

	_, err := s.GetSecret(context.Background(), "/x")
	if !errors.Is(err, ErrSecretUnavailable) {
		t.Fatalf("err = %v; want ErrSecretUnavailable", err)
	}
}

func TestParameterStore_EmptyValueRejected(t *testing.T) {
	for name, f := range map[string]*fakeSSM{
		"nil parameter": {parameterIsNil: true},
		"empty value":   {value: aws.String("")},
	} {
		s := NewParameterStore(f)
		if _, err := s.GetSecret(context.Background(), "/x"); !errors.Is(err, ErrSecretUnavailable) {
			t.Errorf("%s: err = %v; want ErrSecretUnavailable", name, err)
		}
	}
}
