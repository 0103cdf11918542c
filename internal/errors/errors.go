package errors

import (
	stderrors "errors"
	"fmt"
	"net/http"
)

// AppError é a interface central para todos os erros customizados do userhub.
// Ela permite que o código externo (Handler) acesse a Categoria, o Status e a Mensagem do erro.
type AppError interface {
	Error() string    // Implementa a interface error padrão do Go
	Message() string  // Mensagem curta exposta ao cliente HTTP
	Category() string // Categoria do erro (e.g., "VALIDATION_ERROR", "NOT_FOUND", "STORAGE_FAULT")
	HTTPStatus() int  // Código HTTP sugerido para o Handler
	Unwrap() error    // Permite encapsular erros subjacentes (original error)
}

// --- Tipos de Erro Específicos (Erros de Domínio) ---

// ValidationError representa falhas de validação de dados de entrada.
type ValidationError struct {
	Msg string
}

func (e *ValidationError) Error() string    { return fmt.Sprintf("Erro de Validação: %s", e.Msg) }
func (e *ValidationError) Message() string  { return e.Msg }
func (e *ValidationError) Category() string { return "VALIDATION_ERROR" }
func (e *ValidationError) HTTPStatus() int  { return http.StatusBadRequest } // 400
func (e *ValidationError) Unwrap() error    { return nil }

// NewValidationError cria um novo erro de validação.
func NewValidationError(msg string) AppError {
	return &ValidationError{Msg: msg}
}

// NotFoundError representa a ausência de um recurso solicitado.
type NotFoundError struct {
	Msg string
}

func (e *NotFoundError) Error() string    { return fmt.Sprintf("Recurso não encontrado: %s", e.Msg) }
func (e *NotFoundError) Message() string  { return e.Msg }
func (e *NotFoundError) Category() string { return "NOT_FOUND" }
func (e *NotFoundError) HTTPStatus() int  { return http.StatusNotFound } // 404
func (e *NotFoundError) Unwrap() error    { return nil }

// NewNotFoundError cria um novo erro de recurso não encontrado.
func NewNotFoundError(msg string) AppError {
	return &NotFoundError{Msg: msg}
}

// ConflictError representa um conflito na regra de negócio (e.g., e-mail duplicado).
type ConflictError struct {
	Msg string
}

func (e *ConflictError) Error() string    { return fmt.Sprintf("Conflito de estado: %s", e.Msg) }
func (e *ConflictError) Message() string  { return e.Msg }
func (e *ConflictError) Category() string { return "CONFLICT" }
func (e *ConflictError) HTTPStatus() int  { return http.StatusConflict } // 409
func (e *ConflictError) Unwrap() error    { return nil }

// NewConflictError cria um novo erro de conflito.
func NewConflictError(msg string) AppError {
	return &ConflictError{Msg: msg}
}

// UnauthorizedError representa credenciais inválidas ou ausentes.
type UnauthorizedError struct {
	Msg string
}

func (e *UnauthorizedError) Error() string    { return fmt.Sprintf("Não autorizado: %s", e.Msg) }
func (e *UnauthorizedError) Message() string  { return e.Msg }
func (e *UnauthorizedError) Category() string { return "UNAUTHORIZED" }
func (e *UnauthorizedError) HTTPStatus() int  { return http.StatusUnauthorized } // 401
func (e *UnauthorizedError) Unwrap() error    { return nil }

// NewUnauthorizedError cria um novo erro de autenticação.
func NewUnauthorizedError(msg string) AppError {
	return &UnauthorizedError{Msg: msg}
}

// PayloadTooLargeError indica corpo de requisição acima do limite aceito.
type PayloadTooLargeError struct {
	Msg string
}

func (e *PayloadTooLargeError) Error() string    { return fmt.Sprintf("Payload muito grande: %s", e.Msg) }
func (e *PayloadTooLargeError) Message() string  { return e.Msg }
func (e *PayloadTooLargeError) Category() string { return "PAYLOAD_TOO_LARGE" }
func (e *PayloadTooLargeError) HTTPStatus() int  { return http.StatusRequestEntityTooLarge } // 413
func (e *PayloadTooLargeError) Unwrap() error    { return nil }

// NewPayloadTooLargeError cria um erro de corpo acima do limite.
func NewPayloadTooLargeError(msg string) AppError {
	return &PayloadTooLargeError{Msg: msg}
}

// --- Tipos de Erro de Infraestrutura (Encapsulamento) ---

// StorageError representa falhas de leitura/escrita ou parsing do arquivo de dados.
// É fatal para a requisição e nunca é retentado automaticamente.
type StorageError struct {
	Msg string
	Err error // Erro original (os.PathError, json.SyntaxError, ...)
}

func (e *StorageError) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("Falha de armazenamento: %s", e.Msg)
	}
	return fmt.Sprintf("Falha de armazenamento: %s: %s", e.Msg, e.Err.Error())
}
func (e *StorageError) Message() string  { return "Storage failure" }
func (e *StorageError) Category() string { return "STORAGE_FAULT" }
func (e *StorageError) HTTPStatus() int  { return http.StatusInternalServerError } // 500
func (e *StorageError) Unwrap() error    { return e.Err }

// NewStorageError cria um erro de armazenamento encapsulando a causa.
func NewStorageError(msg string, err error) AppError {
	return &StorageError{Msg: msg, Err: err}
}

// InternalError representa falhas inesperadas no servidor, serviço ou repositório.
type InternalError struct {
	Msg string
	Err error // Erro original subjacente
}

func (e *InternalError) Error() string    { return fmt.Sprintf("Erro Interno: %s", e.Msg) }
func (e *InternalError) Message() string  { return "Internal server error" }
func (e *InternalError) Category() string { return "INTERNAL_ERROR" }
func (e *InternalError) HTTPStatus() int  { return http.StatusInternalServerError } // 500
func (e *InternalError) Unwrap() error    { return e.Err }

// NewInternalError cria um erro de servidor (para falhas de lógica ou código não esperado).
func NewInternalError(msg string, err error) AppError {
	return &InternalError{Msg: msg, Err: err}
}

// --- Helper para o Handler (Tradução Final) ---

// MapToHTTPStatus recebe um erro e o traduz para o código HTTP, categoria e mensagem de resposta.
// Erros embrulhados com fmt.Errorf("%w") continuam sendo reconhecidos.
func MapToHTTPStatus(err error) (int, string, string) {
	var appErr AppError
	if stderrors.As(err, &appErr) {
		return appErr.HTTPStatus(), appErr.Category(), appErr.Message()
	}

	// Erro não tipado: tratar como erro interno genérico.
	return http.StatusInternalServerError, "UNKNOWN_ERROR", "Unexpected error"
}
