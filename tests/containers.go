//go:build container

package testutil

import (
	"context"
	"testing"
	"time"

	tc "github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"

	"github.com/trezcool/shule/core"
)

func startContainer(t *testing.T, req tc.ContainerRequest) (host, port string) {
	t.Helper()
	ctx := context.Background()

	container, err := tc.GenericContainer(ctx, tc.GenericContainerRequest{
		ContainerRequest: req,
		Started:          true,
	})
	if err != nil {
		t.Fatalf("starting %s container: %v", req.Image, err)
	}
	t.Cleanup(func() {
		cleanupCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		if err := container.Terminate(cleanupCtx); err != nil {
			t.Logf("terminating %s container: %v", req.Image, err)
		}
	})

	if host, err = container.Host(ctx); err != nil {
		t.Fatalf("getting %s host: %v", req.Image, err)
	}
	mapped, err := container.MappedPort(ctx, req.ExposedPorts[0])
	if err != nil {
		t.Fatalf("getting %s port: %v", req.Image, err)
	}
	return host, mapped.Port()
}

// StartPostgres runs a throwaway postgres server and returns a config pointing at it.
func StartPostgres(t *testing.T) *core.Config {
	t.Helper()

	host, port := startContainer(t, tc.ContainerRequest{
		Image:        "postgres:16-alpine",
		ExposedPorts: []string{"5432/tcp"},
		Env: map[string]string{
			"POSTGRES_USER":     "postgres",
			"POSTGRES_PASSWORD": "postgres",
		},
		WaitingFor: wait.ForLog("database system is ready to accept connections").
			WithOccurrence(2).
			WithStartupTimeout(60 * time.Second),
	})

	return &core.Config{
		AppName: "Shule",
		Database: core.DatabaseConfig{
			Engine:        "postgres",
			Host:          host,
			Port:          port,
			Name:          "shule_test",
			User:          "shule",
			Password:      "shule",
			AdminUser:     "postgres",
			AdminPassword: "postgres",
			DisableTLS:    true,
		},
	}
}

// StartRedis runs a throwaway redis server and returns its config.
func StartRedis(t *testing.T) core.RedisConfig {
	t.Helper()

	host, port := startContainer(t, tc.ContainerRequest{
		Image:        "redis:7-alpine",
		ExposedPorts: []string{"6379/tcp"},
		WaitingFor:   wait.ForListeningPort("6379/tcp").WithStartupTimeout(30 * time.Second),
	})
	return core.RedisConfig{Addr: host + ":" + port}
}
