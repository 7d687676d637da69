package evalerr

import (
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestKindOf(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want Kind
	}{
		{"nil", nil, ""},
		{"parse", &ParseError{Reason: "no block"}, KindParse},
		{"directive", &UnknownDirectiveError{Name: "x"}, KindUnknownDirective},
		{"restricted", &RestrictedModuleError{Module: "fs"}, KindRestrictedModule},
		{"not found", &ModuleNotFoundError{Module: "lodash"}, KindModuleNotFound},
		{"timeout", &TimeoutError{Budget: time.Second}, KindTimeout},
		{"canceled", &CanceledError{}, KindCanceled},
		{"runtime", &SandboxRuntimeError{Message: "Error: boom"}, KindRuntime},
		{"wrapped", fmt.Errorf("evaluate: %w", &TimeoutError{}), KindTimeout},
		{"busy", ErrBusy, KindBusy},
		{"other", errors.New("disk on fire"), KindInternal},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, KindOf(tt.err))
		})
	}
}

func TestMessages(t *testing.T) {
	assert.Equal(t, "Error: unknown directive: '#frobnicate'", (&UnknownDirectiveError{Name: "frobnicate"}).Error())
	assert.Equal(t, "Error: module 'fs' is restricted", (&RestrictedModuleError{Module: "fs"}).Error())
	assert.Equal(t, "Error: module 'lodash' does not exist", (&ModuleNotFoundError{Module: "lodash"}).Error())
	assert.Equal(t, "Error: Script execution timed out after 1500ms", (&TimeoutError{Budget: 1500 * time.Millisecond}).Error())
	assert.Contains(t, (&ParseError{Reason: "bad", Hint: "use a js block"}).Error(), "hint: use a js block")
}
