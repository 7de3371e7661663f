// Package phonenum normalizes user-supplied phone numbers to E.164.
package phonenum

import (
	"fmt"
	"strings"

	"github.com/dmitrijs2005/gophauth/internal/common"
	"github.com/nyaruka/phonenumbers"
)

// Normalize parses raw using defaultRegion for numbers without a country
// code and returns the E.164 form. Invalid numbers wrap common.ErrorValidation.
func Normalize(raw, defaultRegion string) (string, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return "", fmt.Errorf("%w: empty phone number", common.ErrorValidation)
	}

	num, err := phonenumbers.Parse(raw, strings.ToUpper(defaultRegion))
	if err != nil {
		return "", fmt.Errorf("%w: %v", common.ErrorValidation, err)
	}
	if !phonenumbers.IsValidNumber(num) {
		return "", fmt.Errorf("%w: invalid phone number", common.ErrorValidation)
	}

	return phonenumbers.Format(num, phonenumbers.E164), nil
}
