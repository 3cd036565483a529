package identity

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCodeOf(t *testing.T) {
	err := NewError(CodeWrongPassword, errors.New("denied"))
	assert.Equal(t, CodeWrongPassword, CodeOf(err))

	wrapped := fmt.Errorf("sign-in: %w", err)
	assert.Equal(t, CodeWrongPassword, CodeOf(wrapped))

	assert.Equal(t, Code(""), CodeOf(errors.New("plain")))
	assert.Equal(t, Code(""), CodeOf(nil))
}

func TestUserMessage(t *testing.T) {
	assert.Equal(t,
		"No account found with this email address.",
		UserMessage(NewError(CodeUserNotFound, nil)),
	)
	assert.Equal(t,
		"This email is already registered.",
		UserMessage(NewError(CodeEmailInUse, nil)),
	)

	// Unknown codes and plain errors get the generic message.
	assert.Equal(t, genericMessage, UserMessage(NewError(Code("auth/unmapped"), nil)))
	assert.Equal(t, genericMessage, UserMessage(errors.New("boom")))
}
