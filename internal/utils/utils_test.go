package utils

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
	"gorm.io/gorm/logger"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func testContext(target string, params gin.Params) *gin.Context {
	c, _ := gin.CreateTestContext(httptest.NewRecorder())
	c.Request = httptest.NewRequest(http.MethodGet, target, nil)
	c.Params = params
	return c
}

func TestGetRealClientIP(t *testing.T) {
	c := testContext("/", nil)
	c.Request.Header.Set("X-Forwarded-For", "10.0.0.1, 10.0.0.2")
	assert.Equal(t, "10.0.0.1", GetRealClientIP(c))

	c.Request.Header.Set("X-Real-IP", "192.168.1.9")
	assert.Equal(t, "192.168.1.9", GetRealClientIP(c))
}

func TestParseIDParam(t *testing.T) {
	id, err := ParseIDParam(testContext("/", gin.Params{{Key: "id", Value: "42"}}), "id")
	require.NoError(t, err)
	assert.Equal(t, uint(42), id)

	for _, raw := range []string{"", "0", "-1", "abc"} {
		_, err := ParseIDParam(testContext("/", gin.Params{{Key: "id", Value: raw}}), "id")
		assert.ErrorIs(t, err, ErrInvalidID, raw)
	}
}

func TestParseOptionalUintQuery(t *testing.T) {
	v, err := ParseOptionalUintQuery(testContext("/?client_id=7", nil), "client_id")
	require.NoError(t, err)
	assert.Equal(t, uint(7), *v)

	v, err = ParseOptionalUintQuery(testContext("/", nil), "client_id")
	require.NoError(t, err)
	assert.Nil(t, v)

	_, err = ParseOptionalUintQuery(testContext("/?client_id=x", nil), "client_id")
	assert.Error(t, err)
}

func TestPagination(t *testing.T) {
	limit, offset := Pagination(testContext("/?limit=500&offset=-2", nil), 20, 100)
	assert.Equal(t, 100, limit)
	assert.Equal(t, 0, offset)

	limit, offset = Pagination(testContext("/?limit=5&offset=10", nil), 20, 100)
	assert.Equal(t, 5, limit)
	assert.Equal(t, 10, offset)

	limit, _ = Pagination(testContext("/", nil), 20, 100)
	assert.Equal(t, 20, limit)
}

func TestZapGormLoggerFiltersIgnoredQueries(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	l := NewZapGormLogger(zap.New(core), logger.Info, "/* reminder-sweep */")

	l.Trace(context.Background(), time.Now(), func() (string, int64) { return "/* reminder-sweep */ SELECT 1", 1 }, nil)
	assert.Zero(t, logs.Len())

	l.Trace(context.Background(), time.Now(), func() (string, int64) { return "SELECT 1", 1 }, nil)
	assert.Equal(t, 1, logs.Len())

	l.Trace(context.Background(), time.Now(), func() (string, int64) { return "SELECT 2", 0 }, errors.New("boom"))
	assert.Equal(t, 1, logs.FilterMessage("query failed").Len())
}

func TestZapGormLoggerTracesFailedIgnoredQueries(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	l := NewZapGormLogger(zap.New(core), logger.Warn, "/* reminder-sweep */")

	l.Trace(context.Background(), time.Now(), func() (string, int64) { return "/* reminder-sweep */ SELECT 1", 0 }, errors.New("connection reset"))

	failed := logs.FilterMessage("query failed").All()
	require.Len(t, failed, 1)
	assert.Equal(t, "/* reminder-sweep */ SELECT 1", failed[0].ContextMap()["sql"])
	assert.Equal(t, "connection reset", failed[0].ContextMap()["error"])
}

func TestZapGormLoggerSilent(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	l := NewZapGormLogger(zap.New(core), logger.Info).LogMode(logger.Silent)

	l.Trace(context.Background(), time.Now(), func() (string, int64) { return "SELECT 1", 1 }, errors.New("boom"))
	assert.Zero(t, logs.Len())
}
