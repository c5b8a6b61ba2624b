package utils

import (
	"fmt"
	"time"

	gonanoid "github.com/matoous/go-nanoid/v2"
)

const idAlphabet = "abcdefghijklmnopqrstuvwxyz0123456789"

func Now() time.Time {
	return time.Now().UTC()
}

func GenerateNanoID(size int) string {
	id, err := gonanoid.Generate(idAlphabet, size)
	if err != nil {
		panic(err)
	}
	return id
}

func GenerateNanoIDWithPrefix(prefix string, size int) string {
	return fmt.Sprintf("%s_%s", prefix, GenerateNanoID(size))
}

// GenerateTraceID returns the short per-request correlation token.
func GenerateTraceID() string {
	return GenerateNanoID(12)
}
