package testutil

import (
	"crypto/rand"
	"fmt"
	"math/big"

	sdkmath "cosmossdk.io/math"
	"github.com/brianvoe/gofakeit/v7"

	"github.com/cap-blurr/AJEY-contracts/internal/token"
)

// RandomAlphaNum generates random alphanumeric string
// in case length <= 0 it returns empty string
func RandomAlphaNum(length int) (string, error) {
	const charset = "abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"

	if length <= 0 {
		return "", fmt.Errorf("length must be greater than 0")
	}

	randomString := make([]byte, length)
	for i := range randomString {
		num, err := rand.Int(rand.Reader, big.NewInt(int64(len(charset))))
		if err != nil {
			return "", err
		}
		randomString[i] = charset[num.Int64()]
	}

	return string(randomString), nil
}

// RandomAddress returns a readable account address for fixtures.
func RandomAddress() token.Address {
	return token.Address(fmt.Sprintf("%s-%s", gofakeit.Username(), gofakeit.DigitN(4)))
}

// RandomAmount returns a random amount in [1, max].
func RandomAmount(max int64) sdkmath.Int {
	return sdkmath.NewInt(int64(gofakeit.IntRange(1, int(max))))
}
