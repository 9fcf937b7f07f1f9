package security

import (
	"strings"
)

// Allowlist is the fixed set of users allowed past the login gate.
// Usernames compare case-insensitively.
type Allowlist struct {
	requirePassword bool
	users           map[string]string
}

func NewAllowlist(users map[string]string, requirePassword bool) *Allowlist {
	a := &Allowlist{
		requirePassword: requirePassword,
		users:           make(map[string]string, len(users)),
	}
	for name, hash := range users {
		a.Add(name, hash)
	}
	return a
}

func (a *Allowlist) Add(username, passwordHash string) {
	name := CanonicalUsername(username)
	if name == "" {
		return
	}
	a.users[name] = strings.TrimSpace(passwordHash)
}

func (a *Allowlist) Len() int {
	return len(a.users)
}

func (a *Allowlist) RequiresPassword() bool {
	return a.requirePassword
}

// Verify reports whether username may log in. The password is ignored when the
// list was built without RequirePassword.
func (a *Allowlist) Verify(username, password string) bool {
	hash, ok := a.users[CanonicalUsername(username)]
	if !ok {
		return false
	}
	if !a.requirePassword {
		return true
	}
	if hash == "" || password == "" {
		return false
	}
	return VerifyPassword(password, hash)
}

func CanonicalUsername(username string) string {
	return strings.ToLower(strings.TrimSpace(username))
}
