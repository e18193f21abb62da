package utils

import (
	"strconv"
	"strings"
	"testing"

	"github.com/NethermindEth/starknet-api/core/felt"
	"github.com/stretchr/testify/require"
)

func HexTo[T felt.FeltLike](t testing.TB, hex string) *T {
	t.Helper()

	f, err := new(felt.Felt).SetString(hex)
	require.NoError(t, err)
	x := T(*f)
	return &x
}

func HexToFelt(t testing.TB, hex string) *felt.Felt {
	t.Helper()
	return HexTo[felt.Felt](t, hex)
}

func HexToUint64(t testing.TB, hexStr string) uint64 {
	t.Helper()

	x, err := strconv.ParseUint(strings.TrimPrefix(hexStr, "0x"), 16, 64)
	require.NoError(t, err)
	return x
}
