// Package credentials decide como a senha é gravada no documento e como é comparada no login.
package credentials

import (
	"crypto/subtle"
	"errors"
	"fmt"
	"strings"

	"golang.org/x/crypto/bcrypt"
)

// Modos aceitos em PASSWORD_MODE.
const (
	ModePlain  = "plain"
	ModeBcrypt = "bcrypt"
)

// MaxBcryptBytes é o maior tamanho de senha que o bcrypt aceita.
const MaxBcryptBytes = 72

// ErrPasswordTooLong indica senha acima do limite do algoritmo; é erro de entrada, não de servidor.
var ErrPasswordTooLong = errors.New("senha excede o tamanho máximo aceito pelo bcrypt")

// Hasher define o contrato usado pelo serviço de usuários.
type Hasher interface {
	Hash(plain string) (string, error)
	Compare(stored, plain string) bool
}

// New retorna o Hasher correspondente ao modo configurado.
func New(mode string) (Hasher, error) {
	switch strings.ToLower(strings.TrimSpace(mode)) {
	case "", ModePlain:
		return Plain{}, nil
	case ModeBcrypt:
		return Bcrypt{Cost: bcrypt.DefaultCost}, nil
	default:
		return nil, fmt.Errorf("modo de senha desconhecido: %q", mode)
	}
}

// Plain grava a senha como recebida, compatível com arquivos existentes.
// A comparação é em tempo constante.
type Plain struct{}

func (Plain) Hash(plain string) (string, error) { return plain, nil }

func (Plain) Compare(stored, plain string) bool {
	return subtle.ConstantTimeCompare([]byte(stored), []byte(plain)) == 1
}

// Bcrypt grava o hash bcrypt da senha.
type Bcrypt struct {
	Cost int
}

func (b Bcrypt) Hash(plain string) (string, error) {
	if len(plain) > MaxBcryptBytes {
		return "", ErrPasswordTooLong
	}
	cost := b.Cost
	if cost == 0 {
		cost = bcrypt.DefaultCost
	}
	hashed, err := bcrypt.GenerateFromPassword([]byte(plain), cost)
	if errors.Is(err, bcrypt.ErrPasswordTooLong) {
		return "", ErrPasswordTooLong
	}
	if err != nil {
		return "", fmt.Errorf("falha ao gerar hash da senha: %w", err)
	}
	return string(hashed), nil
}

func (Bcrypt) Compare(stored, plain string) bool {
	err := bcrypt.CompareHashAndPassword([]byte(stored), []byte(plain))
	if err != nil && !errors.Is(err, bcrypt.ErrMismatchedHashAndPassword) {
		// Valor gravado não é um hash bcrypt (ex.: registro legado em texto puro).
		return false
	}
	return err == nil
}
