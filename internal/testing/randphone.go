package testing

import (
	"math/rand"
	"strings"
)

// RandPhone generates a random 10-digit phone number with a country prefix
func RandPhone() string {
	digits := "0123456789"

	var out strings.Builder
	out.WriteString("+7")
	for i := 0; i < 10; i++ {
		out.WriteByte(digits[rand.Intn(len(digits))])
	}
	return out.String()
}
