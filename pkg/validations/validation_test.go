package validations

import (
	"context"
	"testing"

	"Tabcast/pkg/log"

	"github.com/asaskevich/govalidator"
	"github.com/stretchr/testify/assert"
)

type params struct {
	Tab     string `valid:"required,tabid~tab:Invalid tab id"`
	Session string `valid:"sessionid~session:Invalid session id"`
	Name    string `valid:"nospace"`
}

func TestCustomValidations(t *testing.T) {
	RegisterCustomValidations(context.Background(), log.Nop())

	ok, err := govalidator.ValidateStruct(params{Tab: "12", Session: "0b6b4f5e-3f4a-4b8c-9d2e-7a1b2c3d4e5f", Name: "tab"})
	assert.True(t, ok)
	assert.NoError(t, err)

	for _, tab := range []string{"0", "-1", "x", "1.5"} {
		ok, err = govalidator.ValidateStruct(params{Tab: tab})
		assert.False(t, ok, tab)
		assert.Error(t, err)
	}

	ok, _ = govalidator.ValidateStruct(params{Tab: "1", Session: "nope"})
	assert.False(t, ok)
	ok, _ = govalidator.ValidateStruct(params{Tab: "1", Name: "two words"})
	assert.False(t, ok)
}
