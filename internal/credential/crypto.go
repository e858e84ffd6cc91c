package credential

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
	"strings"

	"golang.org/x/crypto/hkdf"
)

// EncryptedPrefix 凭据文件中加密字段的前缀，其后为 nonce+密文 的 hex
const EncryptedPrefix = "enc:"

// deriveKey 以字段名为 salt，从主密钥派生该字段专用的 AES-256 密钥
func deriveKey(masterKey []byte, field string) []byte {
	r := hkdf.New(sha256.New, masterKey, []byte(field), nil)
	key := make([]byte, 32)
	_, _ = io.ReadFull(r, key)
	return key
}

func encryptAESGCM(key, plaintext []byte) (string, error) {
	block, err := aes.NewCipher(key)
	if err != nil {
		return "", err
	}
	gcm, err := cipher.NewGCM(block)
	if err != nil {
		return "", err
	}
	nonce := make([]byte, gcm.NonceSize())
	if _, err := io.ReadFull(rand.Reader, nonce); err != nil {
		return "", err
	}
	return hex.EncodeToString(gcm.Seal(nonce, nonce, plaintext, nil)), nil
}

func decryptAESGCM(key []byte, encoded string) (string, error) {
	data, err := hex.DecodeString(encoded)
	if err != nil {
		return "", err
	}
	block, err := aes.NewCipher(key)
	if err != nil {
		return "", err
	}
	gcm, err := cipher.NewGCM(block)
	if err != nil {
		return "", err
	}
	if len(data) < gcm.NonceSize() {
		return "", fmt.Errorf("ciphertext too short")
	}
	nonce, ciphertext := data[:gcm.NonceSize()], data[gcm.NonceSize():]
	plaintext, err := gcm.Open(nil, nonce, ciphertext, nil)
	if err != nil {
		return "", err
	}
	return string(plaintext), nil
}

// GenerateMasterKey 生成 32 字节随机主密钥，返回 hex
func GenerateMasterKey() (string, error) {
	key := make([]byte, 32)
	if _, err := rand.Read(key); err != nil {
		return "", err
	}
	return hex.EncodeToString(key), nil
}

// ParseMasterKey 解析 hex 主密钥
func ParseMasterKey(masterKeyHex string) ([]byte, error) {
	key, err := hex.DecodeString(strings.TrimSpace(masterKeyHex))
	if err != nil {
		return nil, fmt.Errorf("master key is not valid hex: %w", err)
	}
	if len(key) < 16 {
		return nil, fmt.Errorf("master key too short: %d bytes", len(key))
	}
	return key, nil
}

// EncryptField 生成 "enc:" 形式的字段值
func EncryptField(masterKey []byte, field, plaintext string) (string, error) {
	sealed, err := encryptAESGCM(deriveKey(masterKey, field), []byte(plaintext))
	if err != nil {
		return "", fmt.Errorf("encrypt %s: %w", field, err)
	}
	return EncryptedPrefix + sealed, nil
}

// DecryptField 解密 "enc:" 形式的字段值
func DecryptField(masterKey []byte, field, value string) (string, error) {
	sealed := strings.TrimPrefix(strings.TrimSpace(value), EncryptedPrefix)
	plain, err := decryptAESGCM(deriveKey(masterKey, field), sealed)
	if err != nil {
		return "", fmt.Errorf("decrypt %s: %w", field, err)
	}
	return plain, nil
}
