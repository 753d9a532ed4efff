package pkg

import (
	"crypto/rand"
	"fmt"
	"math/big"

	"github.com/google/uuid"
)

const roomAlphabet = "0123456789ABCDEFGHIJKLMNOPQRSTUVWXYZ"

// GenerateRoomID - generates a short upper-case base-36 room code.
func GenerateRoomID(length int) (string, error) {
	code := make([]byte, length)
	limit := big.NewInt(int64(len(roomAlphabet)))

	for i := range code {
		n, err := rand.Int(rand.Reader, limit)
		if err != nil {
			return "", fmt.Errorf("failed to generate room id: %w", err)
		}
		code[i] = roomAlphabet[n.Int64()]
	}

	return string(code), nil
}

// GenerateConnectionID - generates an opaque identifier for an accepted connection.
func GenerateConnectionID() string {
	return uuid.NewString()
}
