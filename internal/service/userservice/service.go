package userservice

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"userhub/internal/domain"
	apperror "userhub/internal/errors"
	"userhub/internal/pkg/credentials"
	"userhub/internal/pkg/logger"
)

// Mensagens de negócio expostas ao cliente.
const (
	MsgAllFieldsRequired   = "All fields (name, email, password, role) are required"
	MsgInvalidRole         = "Role must be one of: admin, editor, viewer"
	MsgEmailTaken          = "Email already exists"
	MsgCredentialsRequired = "Email and password are required"
	MsgInvalidCredentials  = "Invalid credentials"
	MsgUserNotFound        = "User not found"
	MsgPasswordTooLong     = "Password must be at most 72 bytes"
)

// UserRepository define o contrato que este Serviço espera da camada de Persistência.
type UserRepository interface {
	ListAll(ctx context.Context) ([]domain.User, error)
	FindByID(ctx context.Context, id int) (domain.User, error)
	FindByEmail(ctx context.Context, email string) (domain.User, error)
	Insert(ctx context.Context, nu domain.NewUser) (domain.User, error)
	ApplyPartialUpdate(ctx context.Context, id int, patch domain.UserPatch) (domain.User, error)
	RecordLogin(ctx context.Context, id int, at time.Time, verify func(current domain.User) error) (domain.User, error)
	Remove(ctx context.Context, id int) (bool, error)
}

// Service implementa as regras de negócio da entidade User.
type Service struct {
	repo   UserRepository
	hasher credentials.Hasher
	logger logger.Logger
	now    func() time.Time
}

// NewService cria uma nova instância do Service, injetando o Repositório, a política de senha e o Logger.
func NewService(repo UserRepository, hasher credentials.Hasher, log logger.Logger) *Service {
	if hasher == nil {
		hasher = credentials.Plain{}
	}
	return &Service{
		repo:   repo,
		hasher: hasher,
		logger: log,
		now:    time.Now,
	}
}

// Register registra um novo usuário (POST /register).
func (s *Service) Register(ctx context.Context, reg domain.UserRegistration) (domain.User, error) {
	return s.createUser(ctx, reg, "register")
}

// Create cria um novo usuário (POST /). Mesmo caminho de código que Register.
func (s *Service) Create(ctx context.Context, reg domain.UserRegistration) (domain.User, error) {
	return s.createUser(ctx, reg, "create")
}

func (s *Service) createUser(ctx context.Context, reg domain.UserRegistration, origin string) (domain.User, error) {
	s.logger.Debug("Iniciando criação de usuário no serviço.", map[string]interface{}{"email": reg.Email, "origin": origin})

	// 1. Validação
	if blank(reg.Name) || blank(reg.Email) || blank(reg.Password) || blank(string(reg.Role)) {
		return domain.User{}, apperror.NewValidationError(MsgAllFieldsRequired)
	}
	if !reg.Role.IsValid() {
		return domain.User{}, apperror.NewValidationError(MsgInvalidRole)
	}

	// 2. Unicidade do e-mail (o repositório verifica de novo dentro do ciclo travado)
	if _, err := s.repo.FindByEmail(ctx, reg.Email); err == nil {
		s.logger.Debug("E-mail já cadastrado.", map[string]interface{}{"email": reg.Email})
		return domain.User{}, apperror.NewConflictError(MsgEmailTaken)
	} else if !isNotFound(err) {
		return domain.User{}, err
	}

	// 3. Senha conforme a política configurada
	stored, err := s.hashPassword(reg.Password)
	if err != nil {
		return domain.User{}, err
	}

	// 4. Persistência
	user, err := s.repo.Insert(ctx, domain.NewUser{
		Name:     reg.Name,
		Email:    reg.Email,
		Password: stored,
		Role:     reg.Role,
	})
	if err != nil {
		return domain.User{}, err
	}

	s.logger.Info("Usuário criado com sucesso.", map[string]interface{}{"user_id": user.ID, "role": user.Role, "origin": origin})
	return user, nil
}

// Authenticate valida as credenciais e registra o login.
// O usuário retornado já traz o lastLogin desta tentativa.
func (s *Service) Authenticate(ctx context.Context, email, password string) (domain.User, error) {
	if blank(email) || blank(password) {
		return domain.User{}, apperror.NewValidationError(MsgCredentialsRequired)
	}

	user, err := s.repo.FindByEmail(ctx, email)
	if err != nil {
		// E-mail desconhecido e senha errada produzem a mesma resposta.
		if isNotFound(err) {
			s.logger.Debug("Login recusado: e-mail desconhecido.", nil)
			return domain.User{}, apperror.NewUnauthorizedError(MsgInvalidCredentials)
		}
		return domain.User{}, err
	}

	// A senha é conferida contra o registro atual, no mesmo ciclo que grava o lastLogin.
	logged, err := s.repo.RecordLogin(ctx, user.ID, s.now(), func(current domain.User) error {
		if current.Email != email || !s.hasher.Compare(current.Password, password) {
			return apperror.NewUnauthorizedError(MsgInvalidCredentials)
		}
		return nil
	})
	if err != nil {
		var unauthorized *apperror.UnauthorizedError
		switch {
		case errors.As(err, &unauthorized):
			s.logger.Debug("Login recusado: senha incorreta.", map[string]interface{}{"user_id": user.ID})
			return domain.User{}, err
		case isNotFound(err):
			// Removido entre a busca e o registro do login.
			return domain.User{}, apperror.NewUnauthorizedError(MsgInvalidCredentials)
		}
		return domain.User{}, err
	}

	s.logger.Info("Login realizado.", map[string]interface{}{"user_id": logged.ID})
	return logged, nil
}

// List retorna todos os usuários.
func (s *Service) List(ctx context.Context) ([]domain.User, error) {
	return s.repo.ListAll(ctx)
}

// Get busca um usuário pelo id.
func (s *Service) Get(ctx context.Context, id int) (domain.User, error) {
	user, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if isNotFound(err) {
			return domain.User{}, apperror.NewNotFoundError(MsgUserNotFound)
		}
		return domain.User{}, err
	}
	return user, nil
}

// Update aplica um patch parcial. Campos protegidos não fazem parte de domain.UserPatch.
func (s *Service) Update(ctx context.Context, id int, patch domain.UserPatch) (domain.User, error) {
	if patch.IsEmpty() {
		return s.Get(ctx, id)
	}

	if err := validatePatch(patch); err != nil {
		return domain.User{}, err
	}

	if patch.Password != nil {
		stored, err := s.hashPassword(*patch.Password)
		if err != nil {
			return domain.User{}, err
		}
		patch.Password = &stored
	}

	user, err := s.repo.ApplyPartialUpdate(ctx, id, patch)
	if err != nil {
		return domain.User{}, err
	}

	s.logger.Info("Usuário atualizado com sucesso.", map[string]interface{}{"user_id": user.ID})
	return user, nil
}

// Delete remove um usuário.
func (s *Service) Delete(ctx context.Context, id int) error {
	removed, err := s.repo.Remove(ctx, id)
	if err != nil {
		return err
	}
	if !removed {
		return apperror.NewNotFoundError(MsgUserNotFound)
	}

	s.logger.Info("Usuário removido com sucesso.", map[string]interface{}{"user_id": id})
	return nil
}

// validatePatch garante que o patch não esvazia campos obrigatórios nem usa papel inválido.
func validatePatch(patch domain.UserPatch) error {
	fields := []struct {
		name  string
		value *string
	}{
		{"name", patch.Name},
		{"email", patch.Email},
		{"password", patch.Password},
	}
	for _, f := range fields {
		if f.value != nil && blank(*f.value) {
			return apperror.NewValidationError(fmt.Sprintf("Field '%s' cannot be empty", f.name))
		}
	}
	if patch.Role != nil && !patch.Role.IsValid() {
		return apperror.NewValidationError(MsgInvalidRole)
	}
	return nil
}

// hashPassword aplica a política de senha; senha longa demais é erro do cliente.
func (s *Service) hashPassword(plain string) (string, error) {
	stored, err := s.hasher.Hash(plain)
	if errors.Is(err, credentials.ErrPasswordTooLong) {
		return "", apperror.NewValidationError(MsgPasswordTooLong)
	}
	if err != nil {
		return "", apperror.NewInternalError("Falha ao processar a senha.", err)
	}
	return stored, nil
}

func blank(s string) bool {
	return strings.TrimSpace(s) == ""
}

func isNotFound(err error) bool {
	var notFound *apperror.NotFoundError
	return errors.As(err, &notFound)
}
