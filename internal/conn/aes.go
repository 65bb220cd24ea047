package conn

import (
	"crypto/aes"
	"crypto/cipher"
	"errors"
)

// ErrShortCiphertext is returned when a ciphertext block is too small
// to contain an IV prefix.
var ErrShortCiphertext = errors.New("conn: ciphertext shorter than IV")

// Decrypt decrypts an internal-envelope ciphertext block using AES-CTR
// with the connection's key, per the ciphertext-staging region
// described for internal-mode receive. The first aes.BlockSize bytes
// of ciphertext are the IV; no third-party crypto library appears
// anywhere in the example pack, so this stays on the standard
// library's crypto/aes + crypto/cipher.
func Decrypt(key, ciphertext []byte) ([]byte, error) {
	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, err
	}
	if len(ciphertext) < aes.BlockSize {
		return nil, ErrShortCiphertext
	}
	iv := ciphertext[:aes.BlockSize]
	body := ciphertext[aes.BlockSize:]
	plain := make([]byte, len(body))
	stream := cipher.NewCTR(block, iv)
	stream.XORKeyStream(plain, body)
	return plain, nil
}

// Encrypt is the symmetric counterpart, used by tests to construct
// realistic encrypted frames: it prepends the caller-supplied iv
// (which must be aes.BlockSize bytes) and CTR-encrypts the plaintext.
func Encrypt(key, plaintext []byte, iv []byte) ([]byte, error) {
	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, err
	}
	if len(iv) != aes.BlockSize {
		return nil, errors.New("conn: iv must be aes.BlockSize bytes")
	}
	out := make([]byte, aes.BlockSize+len(plaintext))
	copy(out, iv)
	stream := cipher.NewCTR(block, iv)
	stream.XORKeyStream(out[aes.BlockSize:], plaintext)
	return out, nil
}
