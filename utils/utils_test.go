package utils

import (
	"errors"
	"github.com/stretchr/testify/require"
	"testing"
)

func TestHashString(t *testing.T) {
	require.Equal(t, HashString("chat"), HashString("chat"))
	require.NotEqual(t, HashString("chat"), HashString("chats"))
}

func TestRecoverWithError(t *testing.T) {
	run := func() (err error) {
		defer RecoverWithError(&err)
		panic(errors.New("boom"))
	}
	err := run()
	require.EqualError(t, err, "got panic: boom")
}
