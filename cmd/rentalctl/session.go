package main

import (
	"errors"
	"os"
	"strings"
)

// sessionFile keeps the unlock token between invocations
type sessionFile string

func (f sessionFile) Read() (string, error) {
	data, err := os.ReadFile(string(f))
	if err != nil {
		return "", err
	}
	token := strings.TrimSpace(string(data))
	if token == "" {
		return "", errors.New("empty session")
	}
	return token, nil
}

func (f sessionFile) Write(token string) error {
	return os.WriteFile(string(f), []byte(token+"\n"), 0o600)
}

func (f sessionFile) Clear() error {
	if err := os.Remove(string(f)); err != nil && !os.IsNotExist(err) {
		return err
	}
	return nil
}
