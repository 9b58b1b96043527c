package repository

import (
	"github.com/pkg/errors"

	appErrors "github.com/needsclan/Gk1/pkg/errors"
)

func storeErr(err error, op string) error {
	if err == nil {
		return nil
	}
	return appErrors.StoreUnavailable(errors.Wrap(err, op))
}
