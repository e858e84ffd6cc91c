package credential

import (
	"encoding/base64"
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/spf13/viper"
)

// 凭据文件字段
const (
	keyUsername     = "username"
	keyPassword     = "password_b64"
	keyEnableSecret = "enable_secret_b64"
)

// Credentials 所有设备共用的登录凭据
type Credentials struct {
	Username string
	Password string
	// Secret enable 特权密码
	Secret string
}

// Provider 凭据来源
type Provider interface {
	Credentials() (Credentials, error)
}

// StaticProvider 固定凭据，供测试与程序内调用
type StaticProvider struct {
	Creds Credentials
}

func (p StaticProvider) Credentials() (Credentials, error) { return p.Creds, nil }

// FileProvider 从 YAML 凭据文件读取
//
//	username: netops
//	password_b64: c2VjcmV0
//	enable_secret_b64: enc:6f1c...
//
// password_b64 / enable_secret_b64 为 base64，或以 enc: 开头的 AES-GCM 密文
// 文件只读取一次，后续调用返回同一结果
type FileProvider struct {
	path         string
	masterKeyHex string

	once  sync.Once
	creds Credentials
	err   error
}

// NewFileProvider masterKeyHex 为空时遇到 enc: 字段会报错
func NewFileProvider(path, masterKeyHex string) *FileProvider {
	return &FileProvider{path: path, masterKeyHex: masterKeyHex}
}

func (p *FileProvider) Credentials() (Credentials, error) {
	p.once.Do(func() {
		p.creds, p.err = p.load()
	})
	return p.creds, p.err
}

func (p *FileProvider) load() (Credentials, error) {
	if strings.TrimSpace(p.path) == "" {
		return Credentials{}, errors.New("credential file not configured")
	}
	v := viper.New()
	v.SetConfigType("yaml")
	v.SetConfigFile(p.path)
	if err := v.ReadInConfig(); err != nil {
		return Credentials{}, fmt.Errorf("failed to read credential file: %w", err)
	}

	var creds Credentials
	var err error
	if creds.Username, err = p.field(v, keyUsername, "username", false); err != nil {
		return Credentials{}, err
	}
	if creds.Password, err = p.field(v, keyPassword, "password", true); err != nil {
		return Credentials{}, err
	}
	if creds.Secret, err = p.field(v, keyEnableSecret, "enable_secret", true); err != nil {
		return Credentials{}, err
	}
	return creds, nil
}

// field 读取并解码单个字段；salt 为派生密钥所用的字段名
func (p *FileProvider) field(v *viper.Viper, key, salt string, encoded bool) (string, error) {
	raw := strings.TrimSpace(v.GetString(key))
	if raw == "" {
		return "", fmt.Errorf("credential file %s: missing %s", p.path, key)
	}

	if strings.HasPrefix(raw, EncryptedPrefix) {
		if p.masterKeyHex == "" {
			return "", fmt.Errorf("credential file %s: %s is encrypted but no master key is set", p.path, key)
		}
		masterKey, err := ParseMasterKey(p.masterKeyHex)
		if err != nil {
			return "", err
		}
		return DecryptField(masterKey, salt, raw)
	}

	if !encoded {
		return raw, nil
	}
	decoded, err := base64.StdEncoding.DecodeString(raw)
	if err != nil {
		return "", fmt.Errorf("credential file %s: %s is not valid base64: %w", p.path, key, err)
	}
	return string(decoded), nil
}

// EncodeBase64 生成 password_b64 / enable_secret_b64 的明文编码值
func EncodeBase64(plain string) string {
	return base64.StdEncoding.EncodeToString([]byte(plain))
}

// SaltFor 返回凭据文件字段对应的密钥派生 salt
func SaltFor(key string) string {
	switch key {
	case keyPassword, "password":
		return "password"
	case keyEnableSecret, "enable_secret":
		return "enable_secret"
	default:
		return key
	}
}
