package domain

import (
	"strings"
	"time"
)

// TimestampLayout é o formato ISO-8601 (UTC, milissegundos) usado em createdAt e lastLogin.
// Equivale ao formato produzido pelo frontend/JS (toISOString).
const TimestampLayout = "2006-01-02T15:04:05.000Z07:00"

// User representa a entidade do usuário no sistema.
type User struct {
	ID        int      `json:"id"`
	Name      string   `json:"name"`
	Email     string   `json:"email"`
	Password  string   `json:"-"` // Nunca exposto nas respostas HTTP; persistido apenas no Document
	Role      UserRole `json:"role"`
	CreatedAt string   `json:"createdAt"`
	LastLogin string   `json:"lastLogin"` // "" até o primeiro login bem-sucedido
}

// UserRole é um tipo string para representar o papel do usuário no sistema.
type UserRole string

const (
	RoleAdmin  UserRole = "admin"
	RoleEditor UserRole = "editor"
	RoleViewer UserRole = "viewer"
)

// IsValid informa se o papel pertence ao conjunto fixo de papéis.
func (r UserRole) IsValid() bool {
	switch r {
	case RoleAdmin, RoleEditor, RoleViewer:
		return true
	}
	return false
}

// FormatTimestamp formata um instante no layout persistido.
func FormatTimestamp(t time.Time) string {
	return t.UTC().Format(TimestampLayout)
}

// ParseTimestamp interpreta um timestamp persistido. Aceita qualquer RFC3339.
func ParseTimestamp(s string) (time.Time, error) {
	return time.Parse(time.RFC3339Nano, strings.TrimSpace(s))
}

// UserRegistration representa o payload de entrada para registro e criação.
type UserRegistration struct {
	Name     string   `json:"name"`
	Email    string   `json:"email"`
	Password string   `json:"password"`
	Role     UserRole `json:"role"`
}

// NewUser são os campos de um novo registro, sem id, createdAt e lastLogin
// (definidos pelo repositório).
type NewUser struct {
	Name     string
	Email    string
	Password string
	Role     UserRole
}

// UserPatch lista apenas os campos mutáveis. Campo nil = não informado.
// id, createdAt e lastLogin não têm campo aqui, então chaves com esses nomes
// enviadas pelo cliente são descartadas na decodificação.
type UserPatch struct {
	Name     *string   `json:"name,omitempty"`
	Email    *string   `json:"email,omitempty"`
	Password *string   `json:"password,omitempty"`
	Role     *UserRole `json:"role,omitempty"`
}

// IsEmpty informa se o patch não altera nenhum campo.
func (p UserPatch) IsEmpty() bool {
	return p.Name == nil && p.Email == nil && p.Password == nil && p.Role == nil
}

// LoginRequest representa o payload de entrada para o login.
type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// UserResponse é o envelope de sucesso das operações de escrita e login.
type UserResponse struct {
	Message string `json:"message" example:"User created successfully"`
	User    User   `json:"user"`
}

// MessageResponse é o envelope de sucesso sem corpo de usuário (DELETE).
type MessageResponse struct {
	Message string `json:"message" example:"User deleted successfully"`
}
