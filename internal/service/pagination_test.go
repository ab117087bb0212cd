package service

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestPaginateClampsInputs(t *testing.T) {
	offset, size, page := paginate(0, 0)
	assert.Equal(t, 0, offset)
	assert.Equal(t, 20, size)
	assert.Equal(t, 1, page)

	offset, size, page = paginate(3, 50)
	assert.Equal(t, 100, offset)
	assert.Equal(t, 50, size)
	assert.Equal(t, 3, page)

	_, size, _ = paginate(1, 500)
	assert.Equal(t, 100, size)
}

func TestPaginationTotals(t *testing.T) {
	p := pagination(2, 20, 45)
	assert.Equal(t, 2, p["page"])
	assert.Equal(t, 20, p["page_size"])
	assert.Equal(t, 45, p["total_count"])
	assert.Equal(t, 3, p["total_pages"])

	assert.Equal(t, 0, pagination(1, 20, 0)["total_pages"])
}
