package cache

import (
	"context"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"
)

// Client define o contrato mínimo que o limitador de requisições usa do cache.
// Os dados de usuários nunca passam por aqui: cada requisição relê o arquivo.
type Client interface {
	// Incr incrementa o contador da chave e garante que ela expire ao fim da janela.
	Incr(ctx context.Context, key string, window time.Duration) (int64, error)
	// TTL retorna quanto falta para a chave expirar.
	TTL(ctx context.Context, key string) (time.Duration, error)
	Close() error
}

// RedisClient é a implementação concreta da interface Client, usando Redis.
type RedisClient struct {
	rdb     *redis.Client
	timeout time.Duration
}

// NewRedisClient cria o cliente e verifica a conexão com um PING.
// Esta função é chamada no main.go apenas quando REDIS_ADDR está configurado.
func NewRedisClient(addr string, timeout time.Duration) (*RedisClient, error) {
	rdb := redis.NewClient(&redis.Options{
		Addr:         addr,
		DialTimeout:  timeout,
		ReadTimeout:  timeout,
		WriteTimeout: timeout,
	})

	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	if err := rdb.Ping(ctx).Err(); err != nil {
		rdb.Close()
		return nil, fmt.Errorf("falha ao conectar ao Redis em %s: %w", addr, err)
	}

	return &RedisClient{rdb: rdb, timeout: timeout}, nil
}

// Incr executa INCR e PTTL na mesma transação. Se a chave estiver sem expiração
// (acabou de nascer ou um PEXPIRE anterior falhou), a janela é (re)aplicada.
func (c *RedisClient) Incr(ctx context.Context, key string, window time.Duration) (int64, error) {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	var (
		incr *redis.IntCmd
		pttl *redis.DurationCmd
	)
	_, err := c.rdb.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		incr = pipe.Incr(ctx, key)
		pttl = pipe.PTTL(ctx, key)
		return nil
	})
	if err != nil {
		return 0, err
	}

	if pttl.Val() < 0 {
		if err := c.rdb.PExpire(ctx, key, window).Err(); err != nil {
			return 0, err
		}
	}
	return incr.Val(), nil
}

// TTL retorna o tempo restante da chave (0 se não existir ou não expirar).
func (c *RedisClient) TTL(ctx context.Context, key string) (time.Duration, error) {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	ttl, err := c.rdb.TTL(ctx, key).Result()
	if err != nil {
		return 0, err
	}
	if ttl < 0 {
		return 0, nil
	}
	return ttl, nil
}

// Close encerra o pool de conexões.
func (c *RedisClient) Close() error {
	return c.rdb.Close()
}
