//go:build integration

package router_test

// End-to-end tests against real Postgres + Redis via testcontainers.
// Run with: go test -tags integration ./internal/router/... -v

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"cantina/internal/access"
	"cantina/internal/config"
	"cantina/internal/dto"
	"cantina/internal/infra"
	"cantina/internal/model"
	"cantina/internal/repository"
	"cantina/internal/router"
	"cantina/internal/service"
	"cantina/internal/worker"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	tcPostgres "github.com/testcontainers/testcontainers-go/modules/postgres"
	tcRedis "github.com/testcontainers/testcontainers-go/modules/redis"
	"github.com/testcontainers/testcontainers-go/wait"
)

type stack struct {
	*env
	store  *repository.EntityStore
	pdfDir string
}

func startStack(t *testing.T) *stack {
	t.Helper()
	gin.SetMode(gin.TestMode)
	ctx := context.Background()

	pgC, err := tcPostgres.Run(ctx, "postgres:16-alpine",
		tcPostgres.WithDatabase("cantina_test"),
		tcPostgres.WithUsername("cantina"),
		tcPostgres.WithPassword("cantina"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(60*time.Second),
		),
	)
	require.NoError(t, err)
	t.Cleanup(func() { _ = pgC.Terminate(ctx) })
	pgURL, err := pgC.ConnectionString(ctx, "sslmode=disable")
	require.NoError(t, err)

	rdC, err := tcRedis.Run(ctx, "redis:7-alpine")
	require.NoError(t, err)
	t.Cleanup(func() { _ = rdC.Terminate(ctx) })
	rdURL, err := rdC.ConnectionString(ctx)
	require.NoError(t, err)

	cfg := &config.Config{
		Env:                "test",
		JWTSecret:          testSecret,
		JWTExpirationHours: 1,
		JWTRefreshHours:    2,
		DatabaseURL:        pgURL,
		RedisURL:           rdURL,
		WorkerPoolSize:     1,
		PDFStoragePath:     t.TempDir(),
	}

	db, err := infra.NewDatabase(cfg.DatabaseURL)
	require.NoError(t, err)
	rdb, err := infra.NewRedis(cfg.RedisURL)
	require.NoError(t, err)

	store := repository.NewEntityStore(db, repository.WithRetryPolicy(repository.RetryPolicy{
		MaxAttempts: 5, Backoff: 10 * time.Millisecond,
	}))
	store.OnClose(rdb.Close)

	runCtx, cancel := context.WithCancel(ctx)
	_, err = repository.StartRedisBridge(runCtx, rdb, store)
	require.NoError(t, err)

	pool := worker.StartWorkerPool(runCtx, rdb, worker.Handlers{
		worker.JobLowStockAlert: worker.NewAlertWorker(nil, nil, ""),
		worker.JobInvoicePDF:    worker.NewInvoiceWorker(store.Invoices, cfg.PDFStoragePath, nil, nil, ""),
	}, cfg.WorkerPoolSize)
	t.Cleanup(func() {
		cancel()
		pool.Wait()
		_ = store.Close()
	})

	hash, err := service.HashPassword("segredo123")
	require.NoError(t, err)
	for _, u := range []struct{ username, role string }{{"admin", access.RoleAdmin}, {"wizard", access.RoleWizard}} {
		require.NoError(t, store.Users.Upsert(ctx, &model.User{
			Username: u.username, Name: u.username, PasswordHash: hash, Role: u.role, Active: true,
		}))
	}

	engine := router.New(runCtx, cfg, router.Deps{
		Store: store, Redis: rdb, Jobs: worker.NewDispatcher(rdb),
	})
	return &stack{env: &env{t: t, db: db, engine: engine}, store: store, pdfDir: cfg.PDFStoragePath}
}

func TestIntegration_LastUnitSoldOnce(t *testing.T) {
	s := startStack(t)
	token := s.login("wizard").AccessToken

	w := s.do(http.MethodPost, "/v1/products", token, map[string]any{"name": "Brigadeiro", "price": 3, "cost_price": 1, "stock": 1})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	product := decode[dto.ProductResponse](t, w)

	students := make([]dto.StudentResponse, 2)
	for i := range students {
		w = s.do(http.MethodPost, "/v1/students", token, dto.CreateStudentRequest{Name: fmt.Sprintf("Aluno %d", i)})
		require.Equal(t, http.StatusCreated, w.Code)
		students[i] = decode[dto.StudentResponse](t, w)
	}

	codes := make([]int, len(students))
	var wg sync.WaitGroup
	for i, st := range students {
		wg.Add(1)
		go func(i int, id string) {
			defer wg.Done()
			codes[i] = s.do(http.MethodPost, "/v1/students/"+id+"/purchases", token, map[string]any{
				"amount": 3, "method": "CASH",
				"items": []map[string]any{{"product_id": product.ID, "quantity": 1}},
			}).Code
		}(i, st.ID)
	}
	wg.Wait()

	assert.ElementsMatch(t, []int{http.StatusCreated, http.StatusConflict}, codes)

	w = s.do(http.MethodGet, "/v1/products/"+product.ID, token, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, 0, decode[dto.ProductResponse](t, w).Stock)
}

func TestIntegration_BulkRestockRendersInvoice(t *testing.T) {
	s := startStack(t)
	token := s.login("admin").AccessToken

	ids := make([]string, 0, 2)
	for _, name := range []string{"Agua", "Suco"} {
		w := s.do(http.MethodPost, "/v1/products", token, map[string]any{"name": name, "price": 4, "cost_price": 2, "stock": 1})
		require.Equal(t, http.StatusCreated, w.Code)
		ids = append(ids, decode[dto.ProductResponse](t, w).ID)
	}

	w := s.do(http.MethodPost, "/v1/restocks", token, map[string]any{
		"items": []map[string]any{
			{"product_id": ids[0], "quantity": 10},
			{"product_id": ids[1], "quantity": 5},
		},
		"invoice": map[string]any{"supplier": "Distribuidora Central", "number": "NF-77"},
	})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	resp := decode[dto.BulkRestockResponse](t, w)
	assert.Equal(t, 2, resp.Applied)
	require.NotNil(t, resp.Invoice)
	assert.Len(t, resp.Invoice.Items, 2)

	pdf := filepath.Join(s.pdfDir, "invoice_"+resp.Invoice.ID+".pdf")
	require.Eventually(t, func() bool {
		_, err := os.Stat(pdf)
		return err == nil
	}, 10*time.Second, 100*time.Millisecond)

	w = s.do(http.MethodGet, "/health", "", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"redis":"connected"`)
}

func TestIntegration_EventsCrossTheBridge(t *testing.T) {
	s := startStack(t)
	token := s.login("wizard").AccessToken

	got := make(chan repository.ChangeEvent, 8)
	unsubscribe := s.store.Subscribe(repository.KindStudent, func(ev repository.ChangeEvent) { got <- ev })
	defer unsubscribe()

	w := s.do(http.MethodPost, "/v1/students", token, dto.CreateStudentRequest{Name: "Ana"})
	require.Equal(t, http.StatusCreated, w.Code)

	select {
	case ev := <-got:
		assert.Equal(t, repository.OpCreated, ev.Op)
		assert.Equal(t, model.SchoolWizard, ev.School)
		assert.False(t, ev.Remote)
	case <-time.After(5 * time.Second):
		t.Fatal("no change event delivered")
	}
}
