// config/security_config.go
package config

type SecurityLevel int

const (
	SecurityPublic   SecurityLevel = iota // Read-only, no unlock needed
	SecurityUnlocked                      // Valid unlock session required
)

// CommandSecurityConfig maps rentalctl commands to their required security level
var CommandSecurityConfig = map[string]SecurityLevel{
	"migrate": SecurityPublic,
	"set-pin": SecurityPublic, // guarded by the current PIN itself once one exists
	"unlock":  SecurityPublic,
	"overdue": SecurityPublic,
	"qr":      SecurityPublic,

	"lookup-list": SecurityPublic,

	"equipment-add":   SecurityUnlocked,
	"customer-add":    SecurityUnlocked,
	"lookup-add":      SecurityUnlocked,
	"lookup-update":   SecurityUnlocked,
	"lookup-delete":   SecurityUnlocked,
	"rental-create":   SecurityUnlocked,
	"rental-start":    SecurityUnlocked,
	"rental-cancel":   SecurityUnlocked,
	"rental-complete": SecurityUnlocked,
}

// RequiredLevel returns the level for a command; unknown commands require unlock.
func RequiredLevel(command string) SecurityLevel {
	if level, ok := CommandSecurityConfig[command]; ok {
		return level
	}
	return SecurityUnlocked
}
