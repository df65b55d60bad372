package approval_test

import (
	"context"
	"errors"
	"testing"

	"github.com/entrhq/voyager/internal/approval"
	"github.com/stretchr/testify/assert"
)

func TestResolveUsesProviderResultWhenProviderSucceeds(t *testing.T) {
	r := approval.Resolver{
		Provider: func(ctx context.Context, toolName string, args map[string]interface{}) (bool, error) {
			return false, nil
		},
		AutoApprove: true,
	}

	assert.False(t, r.Resolve(context.Background(), "navigate", nil), "a successful provider result wins over autoApprove")
}

func TestResolveFallsBackToAutoApproveWhenProviderErrors(t *testing.T) {
	r := approval.Resolver{
		Provider: func(ctx context.Context, toolName string, args map[string]interface{}) (bool, error) {
			return false, errors.New("provider unavailable")
		},
		AutoApprove: true,
	}

	assert.True(t, r.Resolve(context.Background(), "navigate", nil))
}

func TestResolveFallsBackToEnvWhenNoProviderAndAutoApproveFalse(t *testing.T) {
	t.Setenv(approval.EnvAutoApprove, "1")
	r := approval.Resolver{}

	assert.True(t, r.Resolve(context.Background(), "navigate", nil))
}

func TestResolveRejectsWhenNothingApproves(t *testing.T) {
	t.Setenv(approval.EnvAutoApprove, "0")
	r := approval.Resolver{}

	assert.False(t, r.Resolve(context.Background(), "navigate", nil))
}

func TestResolveProviderApprovalWins(t *testing.T) {
	r := approval.Resolver{
		Provider: func(ctx context.Context, toolName string, args map[string]interface{}) (bool, error) {
			return true, nil
		},
	}

	assert.True(t, r.Resolve(context.Background(), "navigate", nil))
}
