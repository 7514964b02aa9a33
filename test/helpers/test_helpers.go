package helpers

import (
	"fmt"
	"net"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/nimasrn/collections-ledger/internal/repository"
	xhttp "github.com/nimasrn/collections-ledger/pkg/http"
	"github.com/nimasrn/collections-ledger/pkg/pg"
	"github.com/nimasrn/collections-ledger/pkg/redis"
	goredis "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"
	"github.com/valyala/fasthttp"
	"github.com/valyala/fasthttp/fasthttputil"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// SetupTestDB returns a store over a fresh in-memory sqlite database with
// every table migrated, plus the raw handle for seeding.
func SetupTestDB(t *testing.T) (*pg.DB, *gorm.DB) {
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		TranslateError: true,
		Logger:         logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })

	require.NoError(t, db.AutoMigrate(repository.Entities()...))

	return pg.NewFromGorm(db, db), db
}

func SetupTestRedis(t *testing.T) (*miniredis.Miniredis, redis.RedisAdapter) {
	mr := miniredis.RunT(t)

	// adapters are cached by name
	connName := fmt.Sprintf("test-%d", time.Now().UnixNano())
	adapter, err := redis.NewRedisAdapter(connName, "", &goredis.UniversalOptions{
		Addrs: []string{mr.Addr()},
	})
	require.NoError(t, err)

	return mr, adapter
}

// Client talks to an engine served over an in-memory listener.
type Client struct {
	c *fasthttp.Client
}

// Response is a copy of what the server answered.
type Response struct {
	Status int
	Body   []byte
	Header map[string]string
}

// ServeEngine routes e and serves it until the test ends.
func ServeEngine(t *testing.T, e *xhttp.Engine) *Client {
	ln := fasthttputil.NewInmemoryListener()
	srv := &fasthttp.Server{Handler: e.BuildHandler()}
	go func() { _ = srv.Serve(ln) }()
	t.Cleanup(func() {
		_ = srv.Shutdown()
		_ = ln.Close()
	})

	return &Client{c: &fasthttp.Client{
		Dial: func(addr string) (net.Conn, error) {
			return ln.Dial()
		},
	}}
}

func (c *Client) Do(t *testing.T, method, path string, body []byte, headers ...string) Response {
	t.Helper()
	req := fasthttp.AcquireRequest()
	resp := fasthttp.AcquireResponse()
	defer fasthttp.ReleaseRequest(req)
	defer fasthttp.ReleaseResponse(resp)

	req.Header.SetMethod(method)
	req.SetRequestURI("http://ledger.test" + path)
	for i := 0; i+1 < len(headers); i += 2 {
		req.Header.Set(headers[i], headers[i+1])
	}
	if body != nil {
		req.Header.SetContentType("application/json")
		req.SetBody(body)
	}

	require.NoError(t, c.c.DoTimeout(req, resp, 5*time.Second))

	out := Response{
		Status: resp.StatusCode(),
		Body:   append([]byte(nil), resp.Body()...),
		Header: map[string]string{},
	}
	resp.Header.VisitAll(func(k, v []byte) {
		out.Header[string(k)] = string(v)
	})
	return out
}
