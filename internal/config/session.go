package config

import "fmt"

const (
	SessionStoreMemory string = "memory"
	SessionStoreFile   string = "file"
	SessionStoreRedis  string = "redis"
)

type TokenEncryptionConfig struct {
	Enabled   bool
	SecretKey RedactedString
}

type SessionConfig struct {
	// Store is one of memory, file or redis
	Store           string
	Name            string
	FilePath        string
	TokenEncryption TokenEncryptionConfig
}

func (c *SessionConfig) Validate() error {
	switch c.Store {
	case SessionStoreMemory, SessionStoreFile, SessionStoreRedis:
	default:
		return fmt.Errorf("unknown session store %q (must be one of memory, file, redis)", c.Store)
	}
	if c.Name == "" {
		return fmt.Errorf("the session name cannot be empty")
	}
	if c.TokenEncryption.Enabled && len(c.TokenEncryption.SecretKey) != 32 {
		return fmt.Errorf(
			"token encryption key has to be 32 bytes long, the provided one is %d long",
			len(c.TokenEncryption.SecretKey),
		)
	}
	return nil
}
