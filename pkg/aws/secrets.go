package aws

import (
	"context"
	"fmt"
	"sync"

	sdkaws "github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/secretsmanager"
)

// SecretGetter is the subset of Secrets Manager used by config loading.
type SecretGetter interface {
	GetSecretValue(ctx context.Context, in *secretsmanager.GetSecretValueInput, optFns ...func(*secretsmanager.Options)) (*secretsmanager.GetSecretValueOutput, error)
}

// SecretsClient resolves "<prefix>/<name>" secrets and memoizes hits.
type SecretsClient struct {
	api    SecretGetter
	prefix string

	mu    sync.RWMutex
	cache map[string]string
}

func NewSecretsClient(cfg sdkaws.Config, prefix string) *SecretsClient {
	return NewSecretsClientWithAPI(secretsmanager.NewFromConfig(cfg), prefix)
}

func NewSecretsClientWithAPI(api SecretGetter, prefix string) *SecretsClient {
	return &SecretsClient{api: api, prefix: prefix, cache: make(map[string]string)}
}

func (s *SecretsClient) GetSecret(ctx context.Context, name string) (string, error) {
	id := name
	if s.prefix != "" {
		id = s.prefix + "/" + name
	}

	s.mu.RLock()
	v, ok := s.cache[id]
	s.mu.RUnlock()
	if ok {
		return v, nil
	}

	out, err := s.api.GetSecretValue(ctx, &secretsmanager.GetSecretValueInput{SecretId: sdkaws.String(id)})
	if err != nil {
		return "", fmt.Errorf("failed to get secret %s: %w", id, err)
	}
	if out.SecretString == nil || *out.SecretString == "" {
		return "", fmt.Errorf("secret %s has no string value", id)
	}

	s.mu.Lock()
	s.cache[id] = *out.SecretString
	s.mu.Unlock()
	return *out.SecretString, nil
}

// Override replaces *target with the named secret when it resolves, leaving it untouched otherwise.
func (s *SecretsClient) Override(ctx context.Context, name string, target *string) error {
	v, err := s.GetSecret(ctx, name)
	if err != nil {
		return err
	}
	*target = v
	return nil
}
