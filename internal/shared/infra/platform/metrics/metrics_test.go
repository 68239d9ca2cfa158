package metrics

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"

	sharedDomain "github.com/davicafu/scavhunt/internal/shared/domain"
	"github.com/davicafu/scavhunt/internal/shared/platform/query"
)

func TestQueryOutcome(t *testing.T) {
	testCases := []struct {
		err  error
		want string
	}{
		{nil, OutcomeOK},
		{&query.ClientRequestError{Param: "sort", Reason: "x"}, OutcomeClientError},
		{&query.PageOutOfRangeError{Page: 4, Size: 10, Total: 25, LastPage: 3}, OutcomePageOutOfRange},
		{&sharedDomain.StorageUnavailableError{Store: "mongodb", Err: errors.New("down")}, OutcomeStorageUnavailable},
		{errors.New("boom"), OutcomeError},
	}
	for _, tc := range testCases {
		assert.Equal(t, tc.want, QueryOutcome(tc.err))
	}
}

func TestObserveQuery(t *testing.T) {
	before := testutil.ToFloat64(QueriesTotal.WithLabelValues("metrics_test", OutcomeOK))
	ObserveQuery("metrics_test", nil)
	assert.Equal(t, before+1, testutil.ToFloat64(QueriesTotal.WithLabelValues("metrics_test", OutcomeOK)))
}

func TestMiddleware_UsesRouteTemplate(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(Middleware())
	r.GET("/things/:id", func(c *gin.Context) { c.Status(http.StatusOK) })

	counter := RequestTotal.WithLabelValues(http.MethodGet, "/things/:id", "200")
	before := testutil.ToFloat64(counter)

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/things/42", nil))

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, before+1, testutil.ToFloat64(counter))
}
