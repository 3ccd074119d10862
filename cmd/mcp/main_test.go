package main

import (
	"context"
	"net/http"
	"os"
	"strings"
	"testing"
	"time"

	"chartwatch/internal/config"
	"chartwatch/internal/job"
	mcpserver "chartwatch/internal/mcp"
	"chartwatch/internal/repository"
	"chartwatch/internal/service"

	sdkmcp "github.com/modelcontextprotocol/go-sdk/mcp"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/trace"
)

func TestMainMCPStdio(t *testing.T) {
	restore := stubMCPDeps(t, "stdio")
	defer restore()

	called := false
	origRunStdio := runStdioFunc
	runStdioFunc = func(ctx context.Context, server *sdkmcp.Server) error {
		called = true
		return nil
	}
	defer func() { runStdioFunc = origRunStdio }()

	main()

	if !called {
		t.Fatal("expected stdio transport to run")
	}
}

func TestMainMCPHTTP(t *testing.T) {
	restore := stubMCPDeps(t, "http")
	defer restore()

	httpStarted := false
	started := make(chan struct{})
	origStartHTTP := startHTTPServerFunc
	origNotify := setupSignalNotify
	origWait := waitForSignalFunc
	origShutdown := shutdownHTTPServerFn

	startHTTPServerFunc = func(*http.Server) error {
		httpStarted = true
		close(started)
		return http.ErrServerClosed
	}
	setupSignalNotify = func(c chan<- os.Signal, sig ...os.Signal) {}
	waitForSignalFunc = func(<-chan os.Signal) { <-started }
	shutdownHTTPServerFn = func(*http.Server, context.Context) error { return nil }

	defer func() {
		startHTTPServerFunc = origStartHTTP
		setupSignalNotify = origNotify
		waitForSignalFunc = origWait
		shutdownHTTPServerFn = origShutdown
	}()

	main()

	if !httpStarted {
		t.Fatal("expected http transport to start")
	}
}

func TestMainMCPHTTPRequiresToken(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	cfg := &config.Config{
		MCPHTTPEnabled: true,
		MCPHTTPBind:    "127.0.0.1",
		MCPHTTPPort:    8090,
	}
	srv := sdkmcp.NewServer(&sdkmcp.Implementation{Name: "test"}, nil)

	err := runHTTPMode(ctx, cancel, cfg, srv)
	if err == nil {
		t.Fatal("expected missing token error")
	}
	if !strings.Contains(err.Error(), "MCP_AUTH_TOKEN is required") {
		t.Fatalf("unexpected error: %v", err)
	}
}

func stubMCPDeps(t *testing.T, transport string) func() {
	t.Helper()

	origLoadEnv := loadEnvFunc
	origLoadConfig := loadConfigFunc
	origInitPostgres := initPostgresFunc
	origInitRedis := initRedisFunc
	origInitTracer := initTracerFunc
	origNewSignalRepo := newSignalRepoFunc
	origNewChartImageRepo := newChartImageRepoFunc
	origNewSignalService := newSignalServiceFunc
	origNewMCPServer := newMCPServerFunc
	origNewMCPHandler := newMCPHandlerFunc
	origNewRetentionJob := newRetentionJobFunc
	origStartRetentionJob := startRetentionJobFunc

	loadEnvFunc = func(...string) error { return nil }
	loadConfigFunc = func() *config.Config {
		return &config.Config{
			RedisURL:              "",
			DatabaseURL:           "",
			MCPTransport:          transport,
			MCPHTTPEnabled:        true,
			MCPHTTPBind:           "127.0.0.1",
			MCPHTTPPort:           8090,
			MCPAuthToken:          "secret",
			MCPRequestTimeoutSecs: 1,
			MCPRateLimitPerMin:    60,
		}
	}
	initPostgresFunc = func(context.Context, string) {}
	initRedisFunc = func(context.Context, string) {}
	initTracerFunc = func(ctx context.Context) (*sdktrace.TracerProvider, trace.Tracer, error) {
		tp := sdktrace.NewTracerProvider()
		return tp, tp.Tracer("test"), nil
	}
	newSignalRepoFunc = func(repository.PgxPool, trace.Tracer) *repository.SignalRepository {
		return nil
	}
	newChartImageRepoFunc = func(repository.PgxPool, trace.Tracer) *repository.ChartImageRepository {
		return nil
	}
	newSignalServiceFunc = func(
		trace.Tracer,
		service.SignalRepository,
		service.SignalChartImageRepository,
	) *service.SignalService {
		return nil
	}
	newMCPServerFunc = func(trace.Tracer, mcpserver.SignalReader, mcpserver.ServerConfig) *sdkmcp.Server {
		return sdkmcp.NewServer(&sdkmcp.Implementation{Name: "test-mcp"}, nil)
	}
	newMCPHandlerFunc = func(server *sdkmcp.Server, cfg mcpserver.HTTPHandlerConfig) http.Handler {
		return http.HandlerFunc(func(http.ResponseWriter, *http.Request) {})
	}
	newRetentionJobFunc = func(trace.Tracer, job.ExpiredImageDeleter, job.StalePendingExpirer, time.Duration) *job.Retention {
		return nil
	}
	startRetentionJobFunc = func(*job.Retention, context.Context) {}

	return func() {
		loadEnvFunc = origLoadEnv
		loadConfigFunc = origLoadConfig
		initPostgresFunc = origInitPostgres
		initRedisFunc = origInitRedis
		initTracerFunc = origInitTracer
		newSignalRepoFunc = origNewSignalRepo
		newChartImageRepoFunc = origNewChartImageRepo
		newSignalServiceFunc = origNewSignalService
		newMCPServerFunc = origNewMCPServer
		newMCPHandlerFunc = origNewMCPHandler
		newRetentionJobFunc = origNewRetentionJob
		startRetentionJobFunc = origStartRetentionJob
	}
}
