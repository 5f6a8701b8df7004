package gateway

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestVerifyPaymentSignature(t *testing.T) {
	// hex(HMAC-SHA256("order_1|pay_1", "s3cret"))
	valid := "44422d618d76e6e81c5f002f4d5108385750b52eb8db4e9c7a4231ddfac02840"

	assert.True(t, VerifyPaymentSignature("order_1", "pay_1", valid, "s3cret"))

	// любое искажение входа ломает подпись
	assert.False(t, VerifyPaymentSignature("order_1", "pay_1", valid, "wrong"))
	assert.False(t, VerifyPaymentSignature("order_2", "pay_1", valid, "s3cret"))
	assert.False(t, VerifyPaymentSignature("order_1", "pay_2", valid, "s3cret"))
	assert.False(t, VerifyPaymentSignature("order_1", "pay_1", "deadbeef", "s3cret"))
}

func TestVerifyPaymentSignatureEmptyInputs(t *testing.T) {
	assert.False(t, VerifyPaymentSignature("", "pay_1", "sig", "s3cret"))
	assert.False(t, VerifyPaymentSignature("order_1", "", "sig", "s3cret"))
	assert.False(t, VerifyPaymentSignature("order_1", "pay_1", "", "s3cret"))
}

func TestToMinorUnits(t *testing.T) {
	assert.Equal(t, int64(30000), ToMinorUnits(300))
	assert.Equal(t, int64(170000), ToMinorUnits(1700))
	assert.Equal(t, int64(12346), ToMinorUnits(123.456))
	assert.Equal(t, int64(0), ToMinorUnits(0))
}
