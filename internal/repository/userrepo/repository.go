package userrepo

import (
	"context"
	"errors"
	"time"

	"userhub/internal/domain"
	apperror "userhub/internal/errors"
	"userhub/internal/pkg/database"
	"userhub/internal/pkg/logger"
)

// Mensagens expostas ao cliente pelos erros deste repositório.
const (
	MsgUserNotFound = "User not found"
	MsgEmailTaken   = "Email already exists"
)

// Store é o contrato que o repositório espera do adaptador de persistência (database.JSONStore).
type Store interface {
	View(ctx context.Context, fn func(doc database.Document) error) error
	Update(ctx context.Context, fn func(doc *database.Document) error) error
}

// UserRepository dá acesso tipado à coleção de usuários.
// Cada método é um ciclo completo de leitura (e gravação, se altera) no Store;
// nenhum estado é mantido entre chamadas.
type UserRepository struct {
	store  Store
	now    func() time.Time
	logger logger.Logger
}

// Option configura o UserRepository.
type Option func(*UserRepository)

// WithClock substitui o relógio usado em createdAt e lastLogin.
func WithClock(now func() time.Time) Option {
	return func(r *UserRepository) { r.now = now }
}

// NewUserRepository cria uma nova instância do UserRepository, injetando o Store.
func NewUserRepository(store Store, log logger.Logger, opts ...Option) *UserRepository {
	r := &UserRepository{
		store:  store,
		now:    time.Now,
		logger: log,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// ListAll retorna todos os usuários na ordem de armazenamento.
func (r *UserRepository) ListAll(ctx context.Context) ([]domain.User, error) {
	var users []domain.User
	err := r.store.View(ctx, func(doc database.Document) error {
		users = make([]domain.User, 0, len(doc.Users))
		for _, rec := range doc.Users {
			users = append(users, toDomain(rec))
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	r.logger.Debug("Usuários listados no repositório.", map[string]interface{}{"count": len(users)})
	return users, nil
}

// FindByID busca um usuário pelo id.
func (r *UserRepository) FindByID(ctx context.Context, id int) (domain.User, error) {
	var (
		user  domain.User
		found bool
	)
	err := r.store.View(ctx, func(doc database.Document) error {
		if i := indexByID(doc.Users, id); i >= 0 {
			user, found = toDomain(doc.Users[i]), true
		}
		return nil
	})
	if err != nil {
		return domain.User{}, err
	}
	if !found {
		r.logger.Debug("Usuário não encontrado por id.", map[string]interface{}{"user_id": id})
		return domain.User{}, apperror.NewNotFoundError(MsgUserNotFound)
	}
	return user, nil
}

// FindByEmail busca um usuário pelo e-mail (igualdade exata, sensível a maiúsculas).
func (r *UserRepository) FindByEmail(ctx context.Context, email string) (domain.User, error) {
	var (
		user  domain.User
		found bool
	)
	err := r.store.View(ctx, func(doc database.Document) error {
		if i := indexByEmail(doc.Users, email); i >= 0 {
			user, found = toDomain(doc.Users[i]), true
		}
		return nil
	})
	if err != nil {
		return domain.User{}, err
	}
	if !found {
		return domain.User{}, apperror.NewNotFoundError(MsgUserNotFound)
	}
	return user, nil
}

// Insert grava um novo usuário. A unicidade do e-mail é verificada novamente
// dentro do mesmo ciclo travado, então duas inserções concorrentes não duplicam o e-mail.
func (r *UserRepository) Insert(ctx context.Context, nu domain.NewUser) (domain.User, error) {
	var created database.UserRecord
	err := r.store.Update(ctx, func(doc *database.Document) error {
		if indexByEmail(doc.Users, nu.Email) >= 0 {
			return apperror.NewConflictError(MsgEmailTaken)
		}

		id := nextID(*doc)
		created = database.UserRecord{
			ID:        id,
			Name:      nu.Name,
			Email:     nu.Email,
			Password:  nu.Password,
			Role:      string(nu.Role),
			CreatedAt: domain.FormatTimestamp(r.now()),
			LastLogin: "",
		}
		doc.Users = append(doc.Users, created)
		doc.LastID = id
		return nil
	})
	if err != nil {
		return domain.User{}, err
	}

	r.logger.Info("Usuário salvo com sucesso no repositório.", map[string]interface{}{"user_id": created.ID, "email": created.Email})
	return toDomain(created), nil
}

// ApplyPartialUpdate aplica os campos não-nulos do patch sobre o registro existente.
// id, createdAt e lastLogin nunca são tocados.
func (r *UserRepository) ApplyPartialUpdate(ctx context.Context, id int, patch domain.UserPatch) (domain.User, error) {
	var updated database.UserRecord
	err := r.store.Update(ctx, func(doc *database.Document) error {
		i := indexByID(doc.Users, id)
		if i < 0 {
			return apperror.NewNotFoundError(MsgUserNotFound)
		}

		rec := doc.Users[i]
		if patch.Email != nil && *patch.Email != rec.Email {
			if j := indexByEmail(doc.Users, *patch.Email); j >= 0 && j != i {
				return apperror.NewConflictError(MsgEmailTaken)
			}
			rec.Email = *patch.Email
		}
		if patch.Name != nil {
			rec.Name = *patch.Name
		}
		if patch.Password != nil {
			rec.Password = *patch.Password
		}
		if patch.Role != nil {
			rec.Role = string(*patch.Role)
		}

		doc.Users[i] = rec
		updated = rec
		return nil
	})
	if err != nil {
		return domain.User{}, err
	}

	r.logger.Info("Usuário atualizado no repositório.", map[string]interface{}{"user_id": id})
	return toDomain(updated), nil
}

// RecordLogin registra o instante do login. O novo valor é sempre posterior ao anterior,
// mesmo quando dois logins caem no mesmo milissegundo.
// verify (opcional) recebe o registro atual dentro do mesmo ciclo travado; se devolver
// erro, nada é gravado e o erro é repassado.
func (r *UserRepository) RecordLogin(ctx context.Context, id int, at time.Time, verify func(current domain.User) error) (domain.User, error) {
	var updated database.UserRecord
	err := r.store.Update(ctx, func(doc *database.Document) error {
		i := indexByID(doc.Users, id)
		if i < 0 {
			return apperror.NewNotFoundError(MsgUserNotFound)
		}
		if verify != nil {
			if err := verify(toDomain(doc.Users[i])); err != nil {
				return err
			}
		}

		stamp := at.UTC().Truncate(time.Millisecond)
		if prev, err := domain.ParseTimestamp(doc.Users[i].LastLogin); err == nil && !stamp.After(prev) {
			stamp = prev.Truncate(time.Millisecond).Add(time.Millisecond)
		}

		doc.Users[i].LastLogin = domain.FormatTimestamp(stamp)
		updated = doc.Users[i]
		return nil
	})
	if err != nil {
		return domain.User{}, err
	}

	r.logger.Debug("Login registrado.", map[string]interface{}{"user_id": id, "last_login": updated.LastLogin})
	return toDomain(updated), nil
}

// Remove apaga o registro, se existir, e informa se houve remoção.
func (r *UserRepository) Remove(ctx context.Context, id int) (bool, error) {
	errNothingToRemove := apperror.NewNotFoundError(MsgUserNotFound)

	err := r.store.Update(ctx, func(doc *database.Document) error {
		i := indexByID(doc.Users, id)
		if i < 0 {
			// Aborta o ciclo sem regravar o arquivo.
			return errNothingToRemove
		}
		// Fixa o high-water mark antes de remover (documentos antigos não têm lastId).
		doc.LastID = nextID(*doc) - 1
		doc.Users = append(doc.Users[:i], doc.Users[i+1:]...)
		return nil
	})
	if errors.Is(err, errNothingToRemove) {
		return false, nil
	}
	if err != nil {
		return false, err
	}

	r.logger.Info("Usuário removido do repositório.", map[string]interface{}{"user_id": id})
	return true, nil
}

// Funções Helpers (Auxiliares)

// nextID = max(lastId, maior id existente) + 1; 1 para documento vazio.
func nextID(doc database.Document) int {
	highest := doc.LastID
	for _, u := range doc.Users {
		if u.ID > highest {
			highest = u.ID
		}
	}
	return highest + 1
}

func indexByID(users []database.UserRecord, id int) int {
	for i, u := range users {
		if u.ID == id {
			return i
		}
	}
	return -1
}

func indexByEmail(users []database.UserRecord, email string) int {
	for i, u := range users {
		if u.Email == email {
			return i
		}
	}
	return -1
}

func toDomain(rec database.UserRecord) domain.User {
	return domain.User{
		ID:        rec.ID,
		Name:      rec.Name,
		Email:     rec.Email,
		Password:  rec.Password,
		Role:      domain.UserRole(rec.Role),
		CreatedAt: rec.CreatedAt,
		LastLogin: rec.LastLogin,
	}
}
