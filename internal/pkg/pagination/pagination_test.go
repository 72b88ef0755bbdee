package pagination

import (
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
)

func queryFor(t *testing.T, rawQuery string) Query {
	t.Helper()
	gin.SetMode(gin.TestMode)
	c, _ := gin.CreateTestContext(httptest.NewRecorder())
	c.Request = httptest.NewRequest("GET", "/showcases?"+rawQuery, nil)
	return FromContext(c)
}

func TestFromContext(t *testing.T) {
	q := queryFor(t, "page=3&size=50")
	assert.Equal(t, 3, q.Page)
	assert.Equal(t, 50, q.Size)
}

func TestFromContextDefaults(t *testing.T) {
	q := queryFor(t, "")
	assert.Equal(t, 1, q.Page)
	assert.Equal(t, defaultSize, q.Size)
}

func TestFromContextClampsGarbage(t *testing.T) {
	q := queryFor(t, "page=-2&size=banana")
	assert.Equal(t, 1, q.Page)
	assert.Equal(t, defaultSize, q.Size)

	q = queryFor(t, "size=100000")
	assert.Equal(t, maxSize, q.Size)
}
