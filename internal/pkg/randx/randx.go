/*
Package randx provides generators for the identifiers used across the service:
UUID session and message ids, and Base62 anonymous display handles.
*/
package randx

import (
	"crypto/rand"
	"fmt"
	"math/big"
	"strings"

	"github.com/google/uuid"
)

const (
	// Base62Chars is the character set for handle suffixes (0-9, A-Z, a-z).
	Base62Chars = "0123456789ABCDEFGHIJKLMNOPQRSTUVWXYZabcdefghijklmnopqrstuvwxyz"

	// Base62Len is the size of the Base62 character set.
	Base62Len = int64(len(Base62Chars))

	// HandleSuffixLength is the number of random characters in an anonymous handle.
	HandleSuffixLength = 6

	// HandlePrefix is prepended to every generated anonymous handle.
	HandlePrefix = "anon_"
)

// SessionID returns a fresh UUID v4 string used as a chat session identifier.
func SessionID() string {
	return uuid.New().String()
}

// MessageID returns a fresh UUID v4 string used as an event/message identifier.
func MessageID() string {
	return uuid.New().String()
}

// AnonHandle generates a random anonymous display handle using a
// cryptographically secure source, e.g. "anon_x8Kq2M".
func AnonHandle() (string, error) {
	result := make([]byte, HandleSuffixLength)

	for i := 0; i < HandleSuffixLength; i++ {
		num, err := rand.Int(rand.Reader, big.NewInt(Base62Len))
		if err != nil {
			return "", fmt.Errorf("failed to generate random handle character: %v", err)
		}
		result[i] = Base62Chars[num.Int64()]
	}

	return HandlePrefix + string(result), nil
}

// IsValidHandle checks whether the given string is a well-formed anonymous handle.
func IsValidHandle(handle string) bool {
	if !strings.HasPrefix(handle, HandlePrefix) {
		return false
	}

	suffix := handle[len(HandlePrefix):]
	if len(suffix) != HandleSuffixLength {
		return false
	}

	for _, char := range suffix {
		if !strings.ContainsRune(Base62Chars, char) {
			return false
		}
	}

	return true
}
