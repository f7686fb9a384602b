package categorize

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestMapCategory(t *testing.T) {
	tests := []struct {
		text string
		want string
	}{
		{"", Uncategorized},
		{"Groceries", Groceries},
		{"Fast Food", Dining},
		{"Electric Bill", Utilities},
		{"Mobile Phone", Utilities},
		{"PAYROLL DEPOSIT", Income},
		{"Wire Transfer", Transfer},
		{"Rent", Housing},
		{"Pet Supplies", "Pet Supplies"},
	}
	for _, tt := range tests {
		t.Run(tt.text, func(t *testing.T) {
			assert.Equal(t, tt.want, MapCategory(tt.text))
		})
	}
}

func TestResolve(t *testing.T) {
	assert.Equal(t, Utilities, Resolve("electric", "Starbucks"))
	assert.Equal(t, Dining, Resolve("", "Starbucks"))
	assert.Equal(t, Uncategorized, Resolve("", ""))
	assert.Equal(t, Uncategorized, Resolve("", "Unknown Vendor"))
}
