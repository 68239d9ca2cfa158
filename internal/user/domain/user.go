package domain

import (
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	sharedDomain "github.com/davicafu/scavhunt/internal/shared/domain"
	sharedBus "github.com/davicafu/scavhunt/internal/shared/infra/platform/bus"
)

const MinPasswordLength = 8

// User representa un usuario. El hash de la contraseña nunca se serializa.
type User struct {
	ID           uuid.UUID `json:"_id"`
	Username     string    `json:"username" validate:"required"`
	Email        string    `json:"email" validate:"required,email"`
	PasswordHash string    `json:"-"`
	CreatedAt    time.Time `json:"createdAt"`
	Hunts        []string  `json:"hunts"`
	Version      int64     `json:"__v"`
}

// passwordInput valida la contraseña en claro antes de hashearla.
type passwordInput struct {
	Password string `json:"password" validate:"required,min=8"`
}

// NewUser valida los datos y hashea la contraseña con bcrypt.
func NewUser(username, email, password string, now time.Time) (*User, error) {
	u := &User{
		ID:        uuid.New(),
		Username:  username,
		Email:     email,
		CreatedAt: now.UTC(),
		Hunts:     []string{},
	}
	u.Normalize()
	if err := u.Validate(); err != nil {
		return nil, err
	}
	if err := u.SetPassword(password); err != nil {
		return nil, err
	}
	return u, nil
}

func (u *User) Normalize() {
	u.Username = strings.TrimSpace(u.Username)
	u.Email = strings.ToLower(strings.TrimSpace(u.Email))
	if u.Hunts == nil {
		u.Hunts = []string{}
	}
}

func (u *User) Validate() error {
	return sharedDomain.Validate("user", u)
}

func (u *User) SetPassword(password string) error {
	if err := sharedDomain.Validate("user", passwordInput{Password: password}); err != nil {
		return err
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return err
	}
	u.PasswordHash = string(hash)
	return nil
}

func (u *User) CheckPassword(password string) bool {
	return bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(password)) == nil
}

// AttachHunt añade la hunt si no estaba. Devuelve false si no hubo cambios.
func (u *User) AttachHunt(huntID string) bool {
	for _, h := range u.Hunts {
		if h == huntID {
			return false
		}
	}
	u.Hunts = append(u.Hunts, huntID)
	u.Version++
	return true
}

// DetachHunt quita la hunt. Devuelve false si no estaba.
func (u *User) DetachHunt(huntID string) bool {
	for i, h := range u.Hunts {
		if h == huntID {
			u.Hunts = append(u.Hunts[:i:i], u.Hunts[i+1:]...)
			u.Version++
			return true
		}
	}
	return false
}

// Patch es una actualización parcial; los campos a nil no cambian.
type Patch struct {
	Username *string `json:"username"`
	Email    *string `json:"email"`
	Password *string `json:"password"`
}

// Apply copia los campos presentes y re-hashea la contraseña si cambia.
func (u *User) Apply(p Patch) error {
	if p.Username != nil {
		u.Username = *p.Username
	}
	if p.Email != nil {
		u.Email = *p.Email
	}
	u.Normalize()
	if err := u.Validate(); err != nil {
		return err
	}
	if p.Password != nil {
		if err := u.SetPassword(*p.Password); err != nil {
			return err
		}
	}
	u.Version++
	return nil
}

func (u *User) PartitionKey() string {
	return u.ID.String()
}

// Verificación estática para asegurar que User implementa la interfaz
var _ sharedBus.Keyer = (*User)(nil)
