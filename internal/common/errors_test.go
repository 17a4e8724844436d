package common

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSentinels_AreDistinct(t *testing.T) {
	all := []error{
		ErrorNotFound, ErrorValidation, ErrorPermissionDenied, ErrorAlreadyDecided,
		ErrorSessionExists, ErrorTransientDelivery, ErrorInternal, ErrorUnauthorized,
		ErrInvalidToken, ErrTokenExpired,
	}
	for i, a := range all {
		for j, b := range all {
			if i == j {
				continue
			}
			assert.False(t, errors.Is(a, b), "%v must not match %v", a, b)
		}
	}
}

func TestSentinels_SurviveWrapping(t *testing.T) {
	err := fmt.Errorf("game id: %w", ErrorValidation)
	assert.ErrorIs(t, err, ErrorValidation)
	assert.Contains(t, err.Error(), "validation error")
}
