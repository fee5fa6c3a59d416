package handler

import (
	"errors"

	"github.com/backmeup/backmeup/internal/apiserver/database"
	"github.com/backmeup/backmeup/internal/common/errorx"
)

// convertStoreErr maps system store sentinel errors to API errors.
func convertStoreErr(err error) error {
	if errors.Is(err, database.ErrUserNotFound) {
		return errorx.ErrNotFound("user")
	}
	return err
}
