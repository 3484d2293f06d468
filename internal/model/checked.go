package model

import (
	"math"
	"math/bits"

	appErrors "github.com/unclebandit/hoperise-backend/internal/errors"
)

func CheckedAddU64(a, b uint64) (uint64, error) {
	sum, carry := bits.Add64(a, b, 0)
	if carry != 0 {
		return 0, appErrors.ErrArithmeticOverflow
	}
	return sum, nil
}

func CheckedAddU32(a, b uint32) (uint32, error) {
	if a > math.MaxUint32-b {
		return 0, appErrors.ErrArithmeticOverflow
	}
	return a + b, nil
}

func CheckedAddU8(a, b uint8) (uint8, error) {
	if a > math.MaxUint8-b {
		return 0, appErrors.ErrArithmeticOverflow
	}
	return a + b, nil
}

func CheckedSubU64(a, b uint64) (uint64, error) {
	diff, borrow := bits.Sub64(a, b, 0)
	if borrow != 0 {
		return 0, appErrors.ErrArithmeticOverflow
	}
	return diff, nil
}

// CheckedDeadline returns now + days*SecondsPerDay.
func CheckedDeadline(now int64, days uint64) (int64, error) {
	if days > uint64(math.MaxInt64/SecondsPerDay) {
		return 0, appErrors.ErrArithmeticOverflow
	}
	span := int64(days) * SecondsPerDay
	if now > math.MaxInt64-span {
		return 0, appErrors.ErrArithmeticOverflow
	}
	return now + span, nil
}
