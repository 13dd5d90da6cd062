package utils

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"math/big"
)

const keyAlphabet = "ABCDEFGHIJKLMNOPQRSTUVWXYZabcdefghijklmnopqrstuvwxyz0123456789"

// RoomKeyLength is the length of generated chat room and call keys.
const RoomKeyLength = 20

// GenerateKey returns a random alphanumeric key of the given length.
func GenerateKey(length int) string {
	b := make([]byte, length)
	max := big.NewInt(int64(len(keyAlphabet)))
	for i := range b {
		n, err := rand.Int(rand.Reader, max)
		if err != nil {
			// crypto/rand failing is unrecoverable
			panic(fmt.Sprintf("generate key: %v", err))
		}
		b[i] = keyAlphabet[n.Int64()]
	}
	return string(b)
}

// GenerateRoomKey generates a chat room key.
func GenerateRoomKey() string {
	return GenerateKey(RoomKeyLength)
}

// GenerateCallKey generates a calendar event call key.
func GenerateCallKey() string {
	return GenerateKey(RoomKeyLength)
}

// GenerateID generates a random ID with prefix
func GenerateID(prefix string) string {
	b := make([]byte, 8)
	rand.Read(b)
	return fmt.Sprintf("%s_%s", prefix, hex.EncodeToString(b))
}

// GenerateSessionID generates a unique realtime session ID
func GenerateSessionID() string {
	return GenerateID("session")
}
