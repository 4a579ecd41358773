package apperrors_test

import (
	"fmt"
	"testing"

	apperrors "go-gin-gift-admin/pkg/app_errors"

	"github.com/stretchr/testify/assert"
)

func TestCode(t *testing.T) {
	assert.Equal(t, apperrors.CodeNotOwner, apperrors.Code(apperrors.ErrNotTicketOwner))
	assert.Equal(t, apperrors.CodeNotFound, apperrors.Code(apperrors.ErrGiftNotFound))
	assert.Equal(t, apperrors.CodeAlreadyConsumed,
		apperrors.Code(fmt.Errorf("consume: %w", apperrors.ErrTicketAlreadyConsumed)))
	assert.Equal(t, apperrors.CodeInternal, apperrors.Code(assert.AnError))
}

func TestFromCode(t *testing.T) {
	assert.Equal(t, apperrors.ErrTicketExpired, apperrors.FromCode(apperrors.CodeAlreadyExpired))
	assert.Equal(t, apperrors.ErrInvalidScheduleDate, apperrors.FromCode(apperrors.CodeInvalidDate))
	assert.Nil(t, apperrors.FromCode("teapot"))
	assert.Nil(t, apperrors.FromCode(apperrors.CodeInternal))
}
