// All global custom validations in Tabcast are defined here.
// These validations are allowed to be used anywhere in the application.

package validations

import (
	"Tabcast/pkg/log"
	"context"
	"strconv"

	"github.com/asaskevich/govalidator"
)

func RegisterCustomValidations(ctx context.Context, logger log.Logger) {
	// This global validation doesn't allow whitespace in input.
	govalidator.TagMap["nospace"] = govalidator.Validator(func(str string) bool {
		return !govalidator.HasWhitespace(str)
	})
	// Tab ids are issued from 1 upwards.
	govalidator.TagMap["tabid"] = govalidator.Validator(func(str string) bool {
		id, err := strconv.ParseUint(str, 10, 64)
		return err == nil && id > 0
	})
	// Session ids are random UUIDs.
	govalidator.TagMap["sessionid"] = govalidator.Validator(func(str string) bool {
		return govalidator.IsUUIDv4(str)
	})
	logger.WithCtx(ctx).Debug().Msg("Registered custom validations")
}
