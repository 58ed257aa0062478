package secret

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/sha256"
	"encoding/base64"
	"encoding/hex"
	"errors"
	"fmt"
	"strings"
)

// ErrDecrypt marks a value that is not a valid ciphertext for the configured
// master key. Encrypt relies on it as the "not yet encrypted" signal.
var ErrDecrypt = errors.New("secret: value is not a valid ciphertext")

// Codec encrypts and decrypts the stored mailbox password with AES-256-CBC.
//
// The IV is derived from the master key (first 16 hex chars of its SHA-256),
// so equal plaintexts produce equal ciphertexts. That is deliberate: stored
// blobs written by earlier deployments use the same fixed-IV format and must
// stay readable. Not suitable for anything beyond keeping a password out of
// a shared settings store in plaintext.
type Codec struct {
	key [32]byte
	iv  [16]byte
}

func NewCodec(masterKey string) *Codec {
	c := &Codec{}
	// Key material is the raw master key, zero-padded or truncated to 256 bits.
	copy(c.key[:], masterKey)

	sum := sha256.Sum256([]byte(masterKey))
	copy(c.iv[:], hex.EncodeToString(sum[:])[:16])
	return c
}

// Encrypt returns the blob to store for a password form submission. Input
// is trimmed first; pasted surrounding whitespace is never part of the
// stored password.
//
// A blank or whitespace-only input means "leave unchanged" and returns
// previousStored. An input that already decrypts cleanly is returned as-is,
// so re-saving the settings form never double-encrypts.
func (c *Codec) Encrypt(input, previousStored string) string {
	input = strings.TrimSpace(input)
	if input == "" {
		return previousStored
	}

	if _, err := c.Decrypt(input); err == nil {
		return input
	}

	block, err := aes.NewCipher(c.key[:])
	if err != nil {
		// key is always 32 bytes; NewCipher cannot fail here
		panic(err)
	}

	plaintext := pad([]byte(input), aes.BlockSize)
	ciphertext := make([]byte, len(plaintext))
	cipher.NewCBCEncrypter(block, c.iv[:]).CryptBlocks(ciphertext, plaintext)

	return base64.StdEncoding.EncodeToString(ciphertext)
}

// Decrypt recovers the plaintext password from a stored blob. It returns an
// error wrapping ErrDecrypt for anything that is not base64, not block
// aligned, or not padded by this codec's key.
func (c *Codec) Decrypt(stored string) (string, error) {
	raw, err := base64.StdEncoding.DecodeString(stored)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrDecrypt, err)
	}
	if len(raw) == 0 || len(raw)%aes.BlockSize != 0 {
		return "", fmt.Errorf("%w: ciphertext length %d", ErrDecrypt, len(raw))
	}

	block, err := aes.NewCipher(c.key[:])
	if err != nil {
		panic(err)
	}

	plaintext := make([]byte, len(raw))
	cipher.NewCBCDecrypter(block, c.iv[:]).CryptBlocks(plaintext, raw)

	unpadded, err := unpad(plaintext, aes.BlockSize)
	if err != nil {
		return "", err
	}
	return string(unpadded), nil
}

// pad applies PKCS7 padding.
func pad(data []byte, blockSize int) []byte {
	n := blockSize - len(data)%blockSize
	padded := make([]byte, len(data)+n)
	copy(padded, data)
	for i := len(data); i < len(padded); i++ {
		padded[i] = byte(n)
	}
	return padded
}

// unpad strips PKCS7 padding, rejecting anything malformed.
func unpad(data []byte, blockSize int) ([]byte, error) {
	if len(data) == 0 {
		return nil, fmt.Errorf("%w: empty plaintext", ErrDecrypt)
	}
	n := int(data[len(data)-1])
	if n == 0 || n > blockSize || n > len(data) {
		return nil, fmt.Errorf("%w: bad padding", ErrDecrypt)
	}
	for _, b := range data[len(data)-n:] {
		if int(b) != n {
			return nil, fmt.Errorf("%w: bad padding", ErrDecrypt)
		}
	}
	return data[:len(data)-n], nil
}
