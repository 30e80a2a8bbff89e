// Package auth issues and verifies the opaque bearer tokens the API
// uses to identify customers and staff. Account management itself lives
// outside this service; tokens only carry identity and roles.
package auth

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"encoding/hex"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
)

const (
	RoleCliente    = "Cliente"
	RoleTrabajador = "Trabajador"
	RoleAdmin      = "Admin"
)

var ErrInvalidToken = errors.New("invalid token")

// Identity is the authenticated caller.
type Identity struct {
	UserID uuid.UUID
	Roles  []string
}

// IsStaff reports whether the caller may use the admin surface.
func (id Identity) IsStaff() bool {
	for _, r := range id.Roles {
		if r == RoleAdmin || r == RoleTrabajador {
			return true
		}
	}
	return false
}

// Manager mints and verifies HMAC-SHA256 signed tokens of the form
// base64(userID|roles|expiresUnix).hex(signature).
type Manager struct {
	secret []byte
	now    func() time.Time
}

func NewManager(secret string) *Manager {
	return &Manager{secret: []byte(secret), now: time.Now}
}

func (m *Manager) Mint(id Identity, ttl time.Duration) string {
	payload := fmt.Sprintf("%s|%s|%d",
		id.UserID, strings.Join(id.Roles, ","), m.now().Add(ttl).Unix())
	encoded := base64.RawURLEncoding.EncodeToString([]byte(payload))
	return encoded + "." + m.sign(encoded)
}

func (m *Manager) Verify(token string) (Identity, error) {
	encoded, sig, ok := strings.Cut(token, ".")
	if !ok || !hmac.Equal([]byte(m.sign(encoded)), []byte(sig)) {
		return Identity{}, ErrInvalidToken
	}
	raw, err := base64.RawURLEncoding.DecodeString(encoded)
	if err != nil {
		return Identity{}, ErrInvalidToken
	}
	parts := strings.Split(string(raw), "|")
	if len(parts) != 3 {
		return Identity{}, ErrInvalidToken
	}
	userID, err := uuid.Parse(parts[0])
	if err != nil {
		return Identity{}, ErrInvalidToken
	}
	exp, err := strconv.ParseInt(parts[2], 10, 64)
	if err != nil || m.now().Unix() > exp {
		return Identity{}, ErrInvalidToken
	}
	var roles []string
	if parts[1] != "" {
		roles = strings.Split(parts[1], ",")
	}
	return Identity{UserID: userID, Roles: roles}, nil
}

func (m *Manager) sign(payload string) string {
	mac := hmac.New(sha256.New, m.secret)
	mac.Write([]byte(payload))
	return hex.EncodeToString(mac.Sum(nil))
}
