package validator

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestValidateChannel(t *testing.T) {
	assert.False(t, ValidateChannel("Varroa Watch", "Mite monitoring", "mite").HasErrors())
	assert.False(t, ValidateChannel("Oz", "", "").HasErrors())

	errs := ValidateChannel("", "", "")
	assert.Contains(t, errs, "name")

	errs = ValidateChannel("x", "", "")
	assert.Contains(t, errs, "name")

	// Razmaci se ne računaju
	errs = ValidateChannel("  x  ", "", "")
	assert.Contains(t, errs, "name")

	errs = ValidateChannel(strings.Repeat("a", 101), "", "")
	assert.Contains(t, errs, "name")

	errs = ValidateChannel("Harvest", strings.Repeat("d", 501), strings.Repeat("i", 51))
	assert.Contains(t, errs, "description")
	assert.Contains(t, errs, "icon")

	// Granice se broje u runama, ne bajtovima
	assert.False(t, ValidateChannel(strings.Repeat("č", 100), strings.Repeat("č", 500), "").HasErrors())
}

func TestValidateTopic(t *testing.T) {
	assert.False(t, ValidateTopic("Spring treatment timing").HasErrors())

	assert.Contains(t, ValidateTopic(""), "title")
	assert.Contains(t, ValidateTopic("q"), "title")
	assert.Contains(t, ValidateTopic("   "), "title")
	assert.Contains(t, ValidateTopic(strings.Repeat("t", 201)), "title")
	assert.False(t, ValidateTopic(strings.Repeat("t", 200)).HasErrors())
}

func TestValidateMessage(t *testing.T) {
	assert.False(t, ValidateMessage("Count mites on the sticky board", "").HasErrors())
	assert.False(t, ValidateMessage("photo attached", "https://img.example/frame.jpg").HasErrors())
	assert.False(t, ValidateMessage("photo attached", "http://img.example/frame.jpg").HasErrors())

	assert.Contains(t, ValidateMessage("", ""), "body")
	assert.Contains(t, ValidateMessage(strings.Repeat("b", 4001), ""), "body")
	assert.False(t, ValidateMessage(strings.Repeat("b", 4000), "").HasErrors())

	assert.Contains(t, ValidateMessage("x", "ftp://img.example/frame.jpg"), "photo_url")
	assert.Contains(t, ValidateMessage("x", "not a url"), "photo_url")
	assert.Contains(t, ValidateMessage("x", "https://img.example/"+strings.Repeat("p", 2048)), "photo_url")
}
