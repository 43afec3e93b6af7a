// Package password реализует хеширование и проверку паролей пользователей.
//
// GetHash создаёт scrypt-хеш в формате "<hash-hex>.<salt-hex>".
// CompareHash проверяет пароль против сохранённого хеша, включая старые bcrypt-хеши.
package password

import (
	"crypto/rand"
	"crypto/subtle"
	"encoding/hex"
	"errors"
	"fmt"
	"strings"

	"golang.org/x/crypto/bcrypt"
	"golang.org/x/crypto/scrypt"
)

const (
	scryptN      = 16384
	scryptR      = 8
	scryptP      = 1
	keyLength    = 64
	saltByteSize = 16
)

// ErrMismatch возвращается, если пароль не соответствует хешу.
var ErrMismatch = errors.New("password does not match")

// ErrMalformedHash возвращается для хеша в неизвестном формате.
var ErrMalformedHash = errors.New("malformed password hash")

// GetHash принимает пароль пользователя и возвращает его scrypt-хеш вместе с солью.
func GetHash(password string) (string, error) {
	const op = "password.GetHash"

	raw := make([]byte, saltByteSize)
	if _, err := rand.Read(raw); err != nil {
		return "", fmt.Errorf("%s: %w", op, err)
	}
	salt := hex.EncodeToString(raw)

	key, err := derive(password, salt)
	if err != nil {
		return "", fmt.Errorf("%s: %w", op, err)
	}
	return hex.EncodeToString(key) + "." + salt, nil
}

// CompareHash сравнивает сохранённый хеш с введённым паролем.
//
// Возвращает nil, если пароль соответствует хешу, иначе ошибку.
func CompareHash(storedHash, externalPassword string) error {
	const op = "password.CompareHash"

	if isBcrypt(storedHash) {
		if err := bcrypt.CompareHashAndPassword([]byte(storedHash), []byte(externalPassword)); err != nil {
			return fmt.Errorf("%s: %w", op, ErrMismatch)
		}
		return nil
	}

	hashHex, salt, ok := strings.Cut(storedHash, ".")
	if !ok || hashHex == "" || salt == "" {
		return fmt.Errorf("%s: %w", op, ErrMalformedHash)
	}
	expected, err := hex.DecodeString(hashHex)
	if err != nil {
		return fmt.Errorf("%s: %w", op, ErrMalformedHash)
	}

	// соль участвует в scrypt в виде hex-строки, а не декодированных байт
	key, err := derive(externalPassword, salt)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	if len(key) != len(expected) || subtle.ConstantTimeCompare(key, expected) != 1 {
		return fmt.Errorf("%s: %w", op, ErrMismatch)
	}
	return nil
}

func derive(password, salt string) ([]byte, error) {
	return scrypt.Key([]byte(password), []byte(salt), scryptN, scryptR, scryptP, keyLength)
}

func isBcrypt(hash string) bool {
	return strings.HasPrefix(hash, "$2a$") || strings.HasPrefix(hash, "$2b$") || strings.HasPrefix(hash, "$2y$")
}
