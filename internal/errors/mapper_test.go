package errors_test

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"gorm.io/gorm"

	svcErr "github.com/oggyb/campus-connect/internal/errors"
)

func TestMap(t *testing.T) {
	cases := []struct {
		name string
		err  error
		code codes.Code
	}{
		{"validation", svcErr.Validation("username too short"), codes.InvalidArgument},
		{"conflict", svcErr.Conflict("username taken"), codes.AlreadyExists},
		{"duplicate key", fmt.Errorf("insert: %w", gorm.ErrDuplicatedKey), codes.AlreadyExists},
		{"not found", fmt.Errorf("profile: %w", gorm.ErrRecordNotFound), codes.NotFound},
		{"auth", svcErr.ErrUnauthenticated, codes.Unauthenticated},
		{"forbidden", svcErr.ErrPermissionDenied, codes.PermissionDenied},
		{"deadline", context.DeadlineExceeded, codes.DeadlineExceeded},
		{"unknown store error", fmt.Errorf("dial tcp: connection refused"), codes.Unavailable},
		{"already a status", status.Error(codes.FailedPrecondition, "x"), codes.FailedPrecondition},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.code, status.Code(svcErr.Map(tc.err)))
		})
	}

	assert.NoError(t, svcErr.Map(nil))
}
