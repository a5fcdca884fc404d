package auth

import (
	"crypto/subtle"

	"github.com/dmitrijs2005/gophvote/internal/common"
	"golang.org/x/crypto/argon2"
)

const (
	saltLen = 16
	keyLen  = 32
)

// HashPassword derives an argon2id key from password with a fresh salt.
func HashPassword(password []byte) (hash, salt []byte) {
	salt = common.GenerateRandByteArray(saltLen)
	return derive(password, salt), salt
}

// CheckPassword reports whether password matches hash under salt.
func CheckPassword(password, salt, hash []byte) bool {
	return subtle.ConstantTimeCompare(derive(password, salt), hash) == 1
}

func derive(password, salt []byte) []byte {
	return argon2.IDKey(password, salt, 1, 64*1024, 4, keyLen)
}
