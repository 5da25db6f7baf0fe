package helpers

import (
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/yigit/enrollment/internal/pkg/apperrors"
)

func TestParsePage(t *testing.T) {
	gin.SetMode(gin.TestMode)
	c, _ := gin.CreateTestContext(httptest.NewRecorder())

	c.Request = httptest.NewRequest("GET", "/?page=3&size=20", nil)
	page := ParsePage(c)
	assert.Equal(t, Page{Number: 3, Size: 20}, page)
	assert.Equal(t, 40, page.Offset())
	assert.Equal(t, 20, page.Limit())

	c, _ = gin.CreateTestContext(httptest.NewRecorder())
	c.Request = httptest.NewRequest("GET", "/?page=-1&size=1000", nil)
	page = ParsePage(c)
	assert.Equal(t, Page{Number: 1, Size: DefaultPageSize}, page)
	assert.Equal(t, 0, page.Offset())

	c, _ = gin.CreateTestContext(httptest.NewRecorder())
	c.Request = httptest.NewRequest("GET", "/?page=two", nil)
	assert.Equal(t, 1, ParsePage(c).Number)
}

func TestPageInfo(t *testing.T) {
	info := Page{Number: 2, Size: 10}.Info(25)
	assert.Equal(t, 3, info.TotalPages)
	assert.Equal(t, 2, info.CurrentPage)
	assert.Equal(t, 10, info.PageSize)
	assert.EqualValues(t, 25, info.TotalItems)

	empty := Page{Number: 1, Size: 10}.Info(0)
	assert.Equal(t, 1, empty.TotalPages)

	clamped := Page{Number: 9, Size: 10}.Info(5)
	assert.Equal(t, 1, clamped.CurrentPage)
}

func TestParseIDParam(t *testing.T) {
	gin.SetMode(gin.TestMode)
	c, _ := gin.CreateTestContext(httptest.NewRecorder())
	c.Params = gin.Params{{Key: "id", Value: "42"}}
	id, err := ParseIDParam(c, "id")
	require.NoError(t, err)
	assert.EqualValues(t, 42, id)

	c.Params = gin.Params{{Key: "id", Value: "abc"}}
	_, err = ParseIDParam(c, "id")
	assert.ErrorIs(t, err, apperrors.ErrValidationFailed)
}

func TestParseDuration(t *testing.T) {
	assert.Equal(t, 90*time.Second, ParseDuration("90s", time.Minute))
	assert.Equal(t, time.Minute, ParseDuration("soon", time.Minute))
}
