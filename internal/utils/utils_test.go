package utils_test

import (
	"testing"

	"github.com/jrsteele09/go-account-service/internal/utils"
	"github.com/stretchr/testify/require"
)

func TestNonEmptyStrings(t *testing.T) {
	require.Equal(t, []string{"a", "b"}, utils.NonEmptyStrings([]string{" a ", "", "  ", "b"}))
	require.Empty(t, utils.NonEmptyStrings(nil))
}
