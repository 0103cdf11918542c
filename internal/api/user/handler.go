package user

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"userhub/internal/domain"
	apperror "userhub/internal/errors"
	"userhub/internal/pkg/logger"
	"userhub/internal/pkg/middleware"
)

// Mensagens de sucesso devolvidas pelo recurso /api/users.
const (
	MsgUserCreated    = "User created successfully"
	MsgUserRegistered = "User registered successfully"
	MsgLoginOK        = "Login successful"
	MsgUserUpdated    = "User updated successfully"
	MsgUserDeleted    = "User deleted successfully"
	MsgInvalidPayload = "Invalid JSON payload"
	MsgPayloadTooBig  = "Request body exceeds 1 MiB"
	MsgUserNotFound   = "User not found"
)

// Limite do corpo das requisições (1 MiB).
const maxBodyBytes = 1 << 20

// UserService define o contrato que o Handler espera da camada de Serviço.
type UserService interface {
	Register(ctx context.Context, reg domain.UserRegistration) (domain.User, error)
	Create(ctx context.Context, reg domain.UserRegistration) (domain.User, error)
	Authenticate(ctx context.Context, email, password string) (domain.User, error)
	List(ctx context.Context) ([]domain.User, error)
	Get(ctx context.Context, id int) (domain.User, error)
	Update(ctx context.Context, id int, patch domain.UserPatch) (domain.User, error)
	Delete(ctx context.Context, id int) error
}

// Handler agrupa todos os métodos de Handler do usuário.
type Handler struct {
	Service UserService
	Logger  logger.Logger
}

// NewHandler cria uma nova instância do Handler, injetando o Service e o Logger.
func NewHandler(svc UserService, log logger.Logger) *Handler {
	return &Handler{
		Service: svc,
		Logger:  log,
	}
}

// Routes monta as rotas do recurso; o roteador central o pendura em /api/users.
func (h *Handler) Routes() chi.Router {
	r := chi.NewRouter()
	r.Get("/", h.ListUsersHandler)
	r.Post("/", h.CreateUserHandler)
	r.Post("/register", h.RegisterUserHandler)
	r.Post("/login", h.LoginUserHandler)
	r.Get("/{id}", h.GetUserHandler)
	r.Put("/{id}", h.UpdateUserHandler)
	r.Delete("/{id}", h.DeleteUserHandler)
	return r
}

// handleServiceResponse processa erros de serviço e envia respostas padronizadas ao cliente.
// É o único ponto que traduz erros tipados em status HTTP.
func (h *Handler) handleServiceResponse(w http.ResponseWriter, r *http.Request, data interface{}, err error, successStatus int) {
	if err == nil {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(successStatus)
		if data != nil {
			if jsonErr := json.NewEncoder(w).Encode(data); jsonErr != nil {
				h.Logger.Error("Falha ao codificar JSON de resposta", jsonErr)
			}
		}
		return
	}

	status, category, message := apperror.MapToHTTPStatus(err)

	requestID, _ := middleware.GetRequestID(r.Context())
	if status >= 500 {
		h.Logger.Error(fmt.Sprintf("Erro de Servidor: %s (request_id=%s)", category, requestID), err)
	} else {
		h.Logger.Debug(fmt.Sprintf("Requisição rejeitada com status %d. Categoria: %s", status, category), map[string]interface{}{
			"path":       r.URL.Path,
			"request_id": requestID,
		})
	}

	errorResponse := domain.ErrorResponse{
		Code:     status,
		Category: category,
		Message:  message,
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(errorResponse)
}

// decodeBody decodifica o corpo JSON. Corpo acima do limite vira 413; qualquer outra falha, ValidationError.
func decodeBody(w http.ResponseWriter, r *http.Request, dst interface{}) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		var tooBig *http.MaxBytesError
		if errors.As(err, &tooBig) {
			return apperror.NewPayloadTooLargeError(MsgPayloadTooBig)
		}
		return apperror.NewValidationError(MsgInvalidPayload)
	}
	return nil
}

// userIDParam lê {id}. Um id não numérico nunca corresponde a um usuário, então vira 404.
func userIDParam(r *http.Request) (int, error) {
	id, err := strconv.Atoi(chi.URLParam(r, "id"))
	if err != nil {
		return 0, apperror.NewNotFoundError(MsgUserNotFound)
	}
	return id, nil
}

// ListUsersHandler lida com a requisição GET /api/users.
// @Summary Lista todos os usuários
// @Description Retorna todos os usuários na ordem de armazenamento.
// @Tags users
// @Produce json
// @Success 200 {array} domain.User "Lista de usuários"
// @Failure 500 {object} domain.ErrorResponse "Falha de armazenamento"
// @Router /users [get]
func (h *Handler) ListUsersHandler(w http.ResponseWriter, r *http.Request) {
	users, err := h.Service.List(r.Context())
	h.handleServiceResponse(w, r, users, err, http.StatusOK)
}

// GetUserHandler lida com a requisição GET /api/users/{id}.
// @Summary Obtém um usuário por ID
// @Tags users
// @Produce json
// @Param id path int true "ID do usuário"
// @Success 200 {object} domain.User "Usuário encontrado"
// @Failure 404 {object} domain.ErrorResponse "User not found"
// @Failure 500 {object} domain.ErrorResponse "Falha de armazenamento"
// @Router /users/{id} [get]
func (h *Handler) GetUserHandler(w http.ResponseWriter, r *http.Request) {
	id, err := userIDParam(r)
	if err != nil {
		h.handleServiceResponse(w, r, nil, err, http.StatusOK)
		return
	}

	user, err := h.Service.Get(r.Context(), id)
	if err != nil {
		h.handleServiceResponse(w, r, nil, err, http.StatusOK)
		return
	}

	h.handleServiceResponse(w, r, user, nil, http.StatusOK)
}

// CreateUserHandler lida com a requisição POST /api/users.
// @Summary Cria um usuário
// @Description Mesmas regras do registro: todos os campos obrigatórios e e-mail único.
// @Tags users
// @Accept json
// @Produce json
// @Param user body domain.UserRegistration true "Dados do usuário"
// @Success 201 {object} domain.UserResponse "Usuário criado"
// @Failure 400 {object} domain.ErrorResponse "Campos ausentes ou papel inválido"
// @Failure 409 {object} domain.ErrorResponse "Email already exists"
// @Router /users [post]
func (h *Handler) CreateUserHandler(w http.ResponseWriter, r *http.Request) {
	h.createUser(w, r, h.Service.Create, MsgUserCreated)
}

// RegisterUserHandler lida com a requisição POST /api/users/register.
// @Summary Registra um novo usuário
// @Tags users
// @Accept json
// @Produce json
// @Param registration body domain.UserRegistration true "Dados de registro"
// @Success 201 {object} domain.UserResponse "Usuário registrado"
// @Failure 400 {object} domain.ErrorResponse "Campos ausentes ou papel inválido"
// @Failure 409 {object} domain.ErrorResponse "Email already exists"
// @Router /users/register [post]
func (h *Handler) RegisterUserHandler(w http.ResponseWriter, r *http.Request) {
	h.createUser(w, r, h.Service.Register, MsgUserRegistered)
}

func (h *Handler) createUser(w http.ResponseWriter, r *http.Request, create func(context.Context, domain.UserRegistration) (domain.User, error), message string) {
	var reg domain.UserRegistration
	if err := decodeBody(w, r, &reg); err != nil {
		h.handleServiceResponse(w, r, nil, err, http.StatusCreated)
		return
	}

	newUser, err := create(r.Context(), reg)
	if err != nil {
		h.handleServiceResponse(w, r, nil, err, http.StatusCreated)
		return
	}

	h.handleServiceResponse(w, r, domain.UserResponse{Message: message, User: newUser}, nil, http.StatusCreated)
}

// LoginUserHandler lida com a requisição POST /api/users/login.
// @Summary Autentica um usuário
// @Description Verifica email/senha e atualiza lastLogin. Não emite token.
// @Tags users
// @Accept json
// @Produce json
// @Param login body domain.LoginRequest true "Credenciais"
// @Success 200 {object} domain.UserResponse "Login realizado"
// @Failure 400 {object} domain.ErrorResponse "Email and password are required"
// @Failure 401 {object} domain.ErrorResponse "Invalid credentials"
// @Router /users/login [post]
func (h *Handler) LoginUserHandler(w http.ResponseWriter, r *http.Request) {
	var req domain.LoginRequest
	if err := decodeBody(w, r, &req); err != nil {
		h.handleServiceResponse(w, r, nil, err, http.StatusOK)
		return
	}

	user, err := h.Service.Authenticate(r.Context(), req.Email, req.Password)
	if err != nil {
		h.handleServiceResponse(w, r, nil, err, http.StatusOK)
		return
	}

	h.handleServiceResponse(w, r, domain.UserResponse{Message: MsgLoginOK, User: user}, nil, http.StatusOK)
}

// UpdateUserHandler lida com a requisição PUT /api/users/{id}.
// @Summary Atualiza parcialmente um usuário
// @Description Apenas name, email, password e role são aplicados; id e createdAt são ignorados.
// @Tags users
// @Accept json
// @Produce json
// @Param id path int true "ID do usuário"
// @Param patch body domain.UserPatch true "Campos a alterar"
// @Success 200 {object} domain.UserResponse "Usuário atualizado"
// @Failure 400 {object} domain.ErrorResponse "Payload inválido"
// @Failure 404 {object} domain.ErrorResponse "User not found"
// @Failure 409 {object} domain.ErrorResponse "Email already exists"
// @Router /users/{id} [put]
func (h *Handler) UpdateUserHandler(w http.ResponseWriter, r *http.Request) {
	id, err := userIDParam(r)
	if err != nil {
		h.handleServiceResponse(w, r, nil, err, http.StatusOK)
		return
	}

	var patch domain.UserPatch
	if err := decodeBody(w, r, &patch); err != nil {
		h.handleServiceResponse(w, r, nil, err, http.StatusOK)
		return
	}

	updated, err := h.Service.Update(r.Context(), id, patch)
	if err != nil {
		h.handleServiceResponse(w, r, nil, err, http.StatusOK)
		return
	}

	h.handleServiceResponse(w, r, domain.UserResponse{Message: MsgUserUpdated, User: updated}, nil, http.StatusOK)
}

// DeleteUserHandler lida com a requisição DELETE /api/users/{id}.
// @Summary Remove um usuário
// @Tags users
// @Produce json
// @Param id path int true "ID do usuário"
// @Success 200 {object} domain.MessageResponse "Usuário removido"
// @Failure 404 {object} domain.ErrorResponse "User not found"
// @Router /users/{id} [delete]
func (h *Handler) DeleteUserHandler(w http.ResponseWriter, r *http.Request) {
	id, err := userIDParam(r)
	if err != nil {
		h.handleServiceResponse(w, r, nil, err, http.StatusOK)
		return
	}

	if err := h.Service.Delete(r.Context(), id); err != nil {
		h.handleServiceResponse(w, r, nil, err, http.StatusOK)
		return
	}

	h.handleServiceResponse(w, r, domain.MessageResponse{Message: MsgUserDeleted}, nil, http.StatusOK)
}
