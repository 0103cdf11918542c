package database

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"sync"

	apperror "userhub/internal/errors"
	"userhub/internal/pkg/logger"
)

// UserRecord é a representação em disco de um usuário.
// Diferente de domain.User, a senha é serializada.
type UserRecord struct {
	ID        int    `json:"id"`
	Name      string `json:"name"`
	Email     string `json:"email"`
	Password  string `json:"password"`
	Role      string `json:"role"`
	CreatedAt string `json:"createdAt"`
	LastLogin string `json:"lastLogin"`
}

// Document é o único documento JSON persistido: {"users": [...]}.
// LastID guarda o maior id já atribuído para que ids removidos nunca sejam reutilizados.
type Document struct {
	Users  []UserRecord `json:"users"`
	LastID int          `json:"lastId,omitempty"`
}

// JSONStore é o adaptador de persistência sobre um arquivo JSON.
// Todo acesso passa pelo mutex: escritores são serializados entre si e leitores
// nunca observam o arquivo no meio de uma substituição.
type JSONStore struct {
	path   string
	mu     sync.RWMutex
	logger logger.Logger
}

// NewJSONStore prepara o arquivo de dados: cria o diretório pai e semeia um
// documento vazio se o arquivo ainda não existir.
// Esta função é chamada no main.go.
func NewJSONStore(path string, log logger.Logger) (*JSONStore, error) {
	if path == "" {
		return nil, apperror.NewStorageError("caminho do arquivo de dados vazio", nil)
	}

	s := &JSONStore{path: path, logger: log}

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, apperror.NewStorageError(fmt.Sprintf("falha ao criar diretório de %s", path), err)
	}

	_, err := os.Stat(path)
	switch {
	case err == nil:
		log.Debug("Arquivo de dados existente encontrado.", map[string]interface{}{"path": path})
		s.warnUnknownFields()
	case errors.Is(err, fs.ErrNotExist):
		if err := s.write(Document{Users: []UserRecord{}}); err != nil {
			return nil, err
		}
		log.Info("Arquivo de dados criado com documento vazio.", map[string]interface{}{"path": path})
	default:
		return nil, apperror.NewStorageError(fmt.Sprintf("falha ao inspecionar %s", path), err)
	}

	return s, nil
}

// Path retorna o caminho do arquivo de dados.
func (s *JSONStore) Path() string {
	return s.path
}

// Load lê e interpreta o documento inteiro.
func (s *JSONStore) Load(ctx context.Context) (Document, error) {
	if err := ctx.Err(); err != nil {
		return Document{}, apperror.NewInternalError("operação cancelada antes da leitura", err)
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.read()
}

// Save substitui o arquivo inteiro pelo documento informado.
func (s *JSONStore) Save(ctx context.Context, doc Document) error {
	if err := ctx.Err(); err != nil {
		return apperror.NewInternalError("operação cancelada antes da escrita", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	return s.write(doc)
}

// View carrega o documento sob o lock de leitura e o entrega a fn.
func (s *JSONStore) View(ctx context.Context, fn func(doc Document) error) error {
	doc, err := s.Load(ctx)
	if err != nil {
		return err
	}
	return fn(doc)
}

// Update executa um ciclo completo load -> fn -> save sob o lock global de escrita.
// Se fn retornar erro, nada é gravado.
func (s *JSONStore) Update(ctx context.Context, fn func(doc *Document) error) error {
	if err := ctx.Err(); err != nil {
		return apperror.NewInternalError("operação cancelada antes da atualização", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	doc, err := s.read()
	if err != nil {
		s.logger.Error("Falha ao carregar documento para atualização.", err)
		return err
	}

	if err := fn(&doc); err != nil {
		return err
	}

	if err := s.write(doc); err != nil {
		// Falha parcial: leitura ok, escrita falhou. Para o cliente é o mesmo 500.
		s.logger.Error("Documento carregado, mas a gravação falhou; nenhuma alteração persistida.", err)
		return err
	}

	return nil
}

// warnUnknownFields avisa, na abertura, sobre chaves que Document/UserRecord não
// conhecem. Elas são descartadas na primeira gravação.
func (s *JSONStore) warnUnknownFields() {
	data, err := os.ReadFile(s.path)
	if err != nil {
		return
	}

	dec := json.NewDecoder(bytes.NewReader(data))
	dec.DisallowUnknownFields()
	var strict Document
	err = dec.Decode(&strict)
	if err == nil || !strings.HasPrefix(err.Error(), "json: unknown field") {
		// Conteúdo inválido é reportado pelo próprio read.
		return
	}

	s.logger.Warn("Arquivo de dados contém campos desconhecidos; eles serão descartados na próxima gravação.", map[string]interface{}{
		"path":   s.path,
		"detail": err.Error(),
	})
}

// read deve ser chamado com o lock (leitura ou escrita) adquirido.
func (s *JSONStore) read() (Document, error) {
	data, err := os.ReadFile(s.path)
	if err != nil {
		return Document{}, apperror.NewStorageError(fmt.Sprintf("falha ao ler %s", s.path), err)
	}

	var doc Document
	if err := json.Unmarshal(data, &doc); err != nil {
		return Document{}, apperror.NewStorageError(fmt.Sprintf("conteúdo inválido em %s", s.path), err)
	}

	if doc.Users == nil {
		doc.Users = []UserRecord{}
	}

	return doc, nil
}

// write deve ser chamado com o lock de escrita adquirido.
// Grava em arquivo temporário no mesmo diretório e renomeia por cima do original.
func (s *JSONStore) write(doc Document) error {
	if doc.Users == nil {
		doc.Users = []UserRecord{}
	}

	data, err := Marshal(doc)
	if err != nil {
		return apperror.NewStorageError("falha ao serializar documento", err)
	}

	tmp, err := os.CreateTemp(filepath.Dir(s.path), filepath.Base(s.path)+".*.tmp")
	if err != nil {
		return apperror.NewStorageError("falha ao criar arquivo temporário", err)
	}
	tmpName := tmp.Name()
	cleanup := func() { _ = os.Remove(tmpName) }

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		cleanup()
		return apperror.NewStorageError("falha ao escrever arquivo temporário", err)
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		cleanup()
		return apperror.NewStorageError("falha ao sincronizar arquivo temporário", err)
	}
	if err := tmp.Close(); err != nil {
		cleanup()
		return apperror.NewStorageError("falha ao fechar arquivo temporário", err)
	}
	if err := os.Chmod(tmpName, 0o644); err != nil {
		cleanup()
		return apperror.NewStorageError("falha ao ajustar permissões", err)
	}
	if err := os.Rename(tmpName, s.path); err != nil {
		cleanup()
		return apperror.NewStorageError(fmt.Sprintf("falha ao substituir %s", s.path), err)
	}

	return nil
}

// Marshal serializa o documento com indentação de dois espaços, sem escapar HTML
// e sem quebra de linha final, no mesmo formato que o arquivo sempre teve.
func Marshal(doc Document) ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	if err := enc.Encode(doc); err != nil {
		return nil, err
	}
	return bytes.TrimRight(buf.Bytes(), "\n"), nil
}
