package withdrawal

import (
	"bytes"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/gin-gonic/gin"
	"github.com/go-redis/redismock/v9"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/require"

	"github.com/bisrat6/Huletfish/internal/email"
)

func setupHandlerRouter(t *testing.T, userID int) (*gin.Engine, sqlmock.Sqlmock, func()) {
	gin.SetMode(gin.TestMode)

	db, mock, err := sqlmock.New()
	require.NoError(t, err)

	rdb, _ := redismock.NewClientMock()
	emailService := email.NewWithClient(rdb, "noreply@huletfish.com", "Huletfish")

	sqlxDB := sqlx.NewDb(db, "sqlmock")
	handler := NewHandler(sqlxDB, emailService, "ETB")

	router := gin.New()
	router.Use(func(c *gin.Context) {
		if userID != 0 {
			c.Set("user_id", userID)
		}
		c.Next()
	})
	router.POST("/withdrawals", handler.Create)
	router.GET("/withdrawals", handler.ListMine)
	router.POST("/withdrawals/:id/mark-paid", handler.MarkPaid)
	router.POST("/withdrawals/:id/mark-failed", handler.MarkFailed)

	return router, mock, func() { sqlxDB.Close() }
}

func postJSON(router *gin.Engine, path, body string) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	req, _ := http.NewRequest("POST", path, bytes.NewBufferString(body))
	req.Header.Set("Content-Type", "application/json")
	router.ServeHTTP(w, req)
	return w
}

func TestCreateHandler_InvalidJSON(t *testing.T) {
	router, mock, close := setupHandlerRouter(t, 10)
	defer close()

	w := postJSON(router, "/withdrawals", `{"amount_cents": "not a number"}`)
	require.Equal(t, http.StatusBadRequest, w.Code)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestCreateHandler_BelowMinimum(t *testing.T) {
	router, mock, close := setupHandlerRouter(t, 10)
	defer close()

	w := postJSON(router, "/withdrawals", `{"amount_cents": 500}`)
	require.Equal(t, http.StatusBadRequest, w.Code)
	require.Contains(t, w.Body.String(), "minimum withdrawal")
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestCreateHandler_InvalidDestination(t *testing.T) {
	router, mock, close := setupHandlerRouter(t, 10)
	defer close()

	// account_number_last4 longer than four characters fails validation
	// before any database work happens.
	w := postJSON(router, "/withdrawals", `{"amount_cents": 2000, "destination": {"account_number_last4": "123456789"}}`)
	require.Equal(t, http.StatusBadRequest, w.Code)
	require.Contains(t, w.Body.String(), "validation failed")
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestCreateHandler_Unauthenticated(t *testing.T) {
	router, _, close := setupHandlerRouter(t, 0)
	defer close()

	w := postJSON(router, "/withdrawals", `{"amount_cents": 2000}`)
	require.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestMarkPaidHandler_InvalidID(t *testing.T) {
	router, _, close := setupHandlerRouter(t, 1)
	defer close()

	w := postJSON(router, "/withdrawals/abc/mark-paid", `{}`)
	require.Equal(t, http.StatusBadRequest, w.Code)
}

func TestMarkFailedHandler_NotFound(t *testing.T) {
	router, mock, close := setupHandlerRouter(t, 1)
	defer close()

	mock.ExpectBegin()
	mock.ExpectQuery("SELECT (.+) FROM withdrawal_requests WHERE id = (.+) FOR UPDATE").
		WithArgs(99).
		WillReturnRows(sqlmock.NewRows([]string{"id"}))
	mock.ExpectRollback()

	w := postJSON(router, "/withdrawals/99/mark-failed", `{"reason":"account closed"}`)
	require.Equal(t, http.StatusNotFound, w.Code)
	require.NoError(t, mock.ExpectationsWereMet())
}
