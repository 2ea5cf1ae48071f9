package security

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"mediarent-backend/internal/domain"
	"mediarent-backend/internal/logger"
	"mediarent-backend/internal/repository"

	"golang.org/x/crypto/bcrypt"
)

const (
	settingPINHash        = "app_lock.pin_hash"
	settingFailedAttempts = "app_lock.failed_attempts"
	settingLockedUntil    = "app_lock.locked_until"

	minPINLength = 4
	maxPINLength = 8
)

var (
	ErrNoPIN    = errors.New("no PIN configured")
	ErrWrongPIN = errors.New("wrong PIN")
)

type AppLockConfig struct {
	AutoLock    time.Duration
	MaxAttempts int
	Lockout     time.Duration
}

// AppLock guards mutating operations behind a PIN. State lives in the
// settings table so it survives process restarts.
type AppLock struct {
	settings repository.SettingsRepository
	tokens   TokenManager
	cfg      AppLockConfig
	now      func() time.Time
}

func NewAppLock(settings repository.SettingsRepository, tokens TokenManager, cfg AppLockConfig) *AppLock {
	return &AppLock{settings: settings, tokens: tokens, cfg: cfg, now: time.Now}
}

// WithClock replaces the time source
func (l *AppLock) WithClock(now func() time.Time) *AppLock {
	l.now = now
	return l
}

// SetPIN stores a new PIN. Once a PIN exists the current one must be given.
func (l *AppLock) SetPIN(ctx context.Context, currentPIN, newPIN string) error {
	if err := validatePIN(newPIN); err != nil {
		return err
	}

	hash, err := l.settings.Get(ctx, settingPINHash)
	switch {
	case errors.Is(err, domain.ErrNotFound):
	case err != nil:
		return fmt.Errorf("security.AppLock.SetPIN: %w", err)
	default:
		if bcrypt.CompareHashAndPassword([]byte(hash), []byte(currentPIN)) != nil {
			return ErrWrongPIN
		}
	}

	newHash, err := bcrypt.GenerateFromPassword([]byte(newPIN), bcrypt.DefaultCost)
	if err != nil {
		return fmt.Errorf("security.AppLock.SetPIN: %w", err)
	}
	if err := l.settings.Set(ctx, settingPINHash, string(newHash)); err != nil {
		return fmt.Errorf("security.AppLock.SetPIN: %w", err)
	}
	logger.Info("App PIN changed")
	return nil
}

// HasPIN reports whether a PIN has been configured
func (l *AppLock) HasPIN(ctx context.Context) (bool, error) {
	_, err := l.settings.Get(ctx, settingPINHash)
	if errors.Is(err, domain.ErrNotFound) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

// Unlock verifies the PIN and returns a session token valid for the
// auto-lock period. Too many failures lock unlocking for a while.
func (l *AppLock) Unlock(ctx context.Context, pin string) (string, time.Time, error) {
	now := l.now()

	lockedUntil, err := l.lockedUntil(ctx)
	if err != nil {
		return "", time.Time{}, err
	}
	if now.Before(lockedUntil) {
		return "", time.Time{}, fmt.Errorf("%w until %s", domain.ErrLocked, lockedUntil.Format(time.RFC3339))
	}

	hash, err := l.settings.Get(ctx, settingPINHash)
	if errors.Is(err, domain.ErrNotFound) {
		return "", time.Time{}, ErrNoPIN
	}
	if err != nil {
		return "", time.Time{}, fmt.Errorf("security.AppLock.Unlock: %w", err)
	}

	if bcrypt.CompareHashAndPassword([]byte(hash), []byte(pin)) != nil {
		return "", time.Time{}, l.recordFailure(ctx, now)
	}

	if err := l.settings.Set(ctx, settingFailedAttempts, "0"); err != nil {
		return "", time.Time{}, fmt.Errorf("security.AppLock.Unlock: %w", err)
	}
	token, err := l.tokens.GenerateUnlockToken(now, l.cfg.AutoLock)
	if err != nil {
		return "", time.Time{}, fmt.Errorf("security.AppLock.Unlock: %w", err)
	}
	logger.Info("App unlocked", "expires_at", now.Add(l.cfg.AutoLock))
	return token, now.Add(l.cfg.AutoLock), nil
}

// IsUnlocked validates a session token; an expired token means locked
func (l *AppLock) IsUnlocked(token string) error {
	if token == "" {
		return domain.ErrLocked
	}
	if _, err := l.tokens.ValidateToken(token, l.now()); err != nil {
		return fmt.Errorf("%w: %w", domain.ErrLocked, err)
	}
	return nil
}

func (l *AppLock) recordFailure(ctx context.Context, now time.Time) error {
	attempts := 0
	if v, err := l.settings.Get(ctx, settingFailedAttempts); err == nil {
		attempts, _ = strconv.Atoi(v)
	} else if !errors.Is(err, domain.ErrNotFound) {
		return fmt.Errorf("security.AppLock.Unlock: %w", err)
	}
	attempts++

	if attempts >= l.cfg.MaxAttempts {
		until := now.Add(l.cfg.Lockout)
		if err := l.settings.Set(ctx, settingLockedUntil, until.UTC().Format(time.RFC3339Nano)); err != nil {
			return fmt.Errorf("security.AppLock.Unlock: %w", err)
		}
		if err := l.settings.Set(ctx, settingFailedAttempts, "0"); err != nil {
			return fmt.Errorf("security.AppLock.Unlock: %w", err)
		}
		logger.Warn("App lock engaged after repeated failures", "attempts", attempts, "locked_until", until)
		return fmt.Errorf("%w until %s", domain.ErrLocked, until.Format(time.RFC3339))
	}

	if err := l.settings.Set(ctx, settingFailedAttempts, strconv.Itoa(attempts)); err != nil {
		return fmt.Errorf("security.AppLock.Unlock: %w", err)
	}
	return fmt.Errorf("%w (%d of %d attempts)", ErrWrongPIN, attempts, l.cfg.MaxAttempts)
}

func (l *AppLock) lockedUntil(ctx context.Context) (time.Time, error) {
	v, err := l.settings.Get(ctx, settingLockedUntil)
	if errors.Is(err, domain.ErrNotFound) {
		return time.Time{}, nil
	}
	if err != nil {
		return time.Time{}, fmt.Errorf("security.AppLock.Unlock: %w", err)
	}
	t, err := time.Parse(time.RFC3339Nano, v)
	if err != nil {
		return time.Time{}, nil
	}
	return t, nil
}

func validatePIN(pin string) error {
	if len(pin) < minPINLength || len(pin) > maxPINLength {
		return domain.Validationf("PIN must have %d to %d digits", minPINLength, maxPINLength)
	}
	for _, r := range pin {
		if r < '0' || r > '9' {
			return domain.Validationf("PIN must contain digits only")
		}
	}
	return nil
}
