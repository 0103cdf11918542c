package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	// Nossos pacotes de infraestrutura e utilitários
	"userhub/config"
	"userhub/internal/pkg/cache"
	"userhub/internal/pkg/credentials"
	"userhub/internal/pkg/database"
	"userhub/internal/pkg/logger"

	// Camadas de Usuário para Injeção de Dependências
	"userhub/internal/api/router"
	"userhub/internal/api/user"
	"userhub/internal/repository/userrepo"
	"userhub/internal/service/userservice"
)

func main() {
	log.Println("⚡ Inicializando serviço UserHub...")
	// 0. CARREGAR VARIÁVEIS DE AMBIENTE (.env)
	if err := godotenv.Load(); err != nil {
		// As variáveis podem estar no ambiente do sistema (ex: Docker).
		log.Println("⚠️ Aviso: Arquivo .env não encontrado ou erro de leitura. Carregando configs apenas do ambiente do sistema.")
	}

	// 1. Configuração e Logger
	cfg := config.LoadConfig()
	log := logger.NewLogger(cfg.LogLevel)
	log.Info("Configurações carregadas.", map[string]interface{}{"env": cfg.Environment, "db_path": cfg.DBPath})

	// 2. Recursos de Infraestrutura

	// A. Armazenamento (arquivo JSON)
	store, err := database.NewJSONStore(cfg.DBPath, log)
	if err != nil {
		log.Fatal("Falha ao preparar o arquivo de dados.", err)
	}
	log.Info("Arquivo de dados pronto.", map[string]interface{}{"path": store.Path()})

	// B. Cache (Redis), opcional
	routerOpts := router.Options{AllowedOrigins: cfg.CORSAllowedOrigins}
	if cfg.RateLimitEnabled() {
		cacheClient, err := cache.NewRedisClient(cfg.RedisAddr, cfg.CacheTimeout)
		if err != nil {
			log.Fatal("Falha ao conectar ao Redis.", err)
		}
		defer cacheClient.Close()
		routerOpts.Cache = cacheClient
		routerOpts.RateLimitMax = cfg.RateLimitMaxRequests
		routerOpts.RateLimitPeriod = cfg.RateLimitPeriod
		log.Info("Conexão Redis estabelecida; rate limiting ativo.", map[string]interface{}{"addr": cfg.RedisAddr})
	} else {
		log.Debug("REDIS_ADDR não definido; rate limiting desativado.", nil)
	}

	// C. Credenciais
	hasher, err := credentials.New(cfg.PasswordMode)
	if err != nil {
		log.Fatal("Modo de senha inválido.", err)
	}

	// 3. INJEÇÃO DE DEPENDÊNCIAS
	// Ordem: Repository -> Service -> Handler
	userRepo := userrepo.NewUserRepository(store, log)
	log.Debug("Repositório de Usuário inicializado.", nil)

	userSvc := userservice.NewService(userRepo, hasher, log)
	log.Debug("Serviço de Usuário inicializado.", nil)

	userHandler := user.NewHandler(userSvc, log)
	log.Debug("Handler de Usuário inicializado.", nil)

	// 4. Roteador e Servidor
	r := router.NewRouter(userHandler, log, routerOpts)

	server := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      r,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// 5. Execução e Graceful Shutdown
	go func() {
		log.Info("Servidor UserHub ouvindo na porta", map[string]interface{}{"port": cfg.Port})
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal("Servidor falhou.", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	<-quit
	log.Info("Sinal de encerramento recebido. Desligando servidor...", nil)

	ctx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		log.Error("Desligamento do servidor forçado.", err)
	}

	log.Info("Servidor encerrado com sucesso.", nil)
}
