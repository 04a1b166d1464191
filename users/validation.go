package users

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/mail"
	"strings"
)

// NormalizeEmail trims and lower-cases an address so lookups are case-insensitive
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// ValidateEmail expects an already normalised address
func ValidateEmail(email string) error {
	if email == "" {
		return fmt.Errorf("email is required")
	}
	addr, err := mail.ParseAddress(email)
	if err != nil || addr.Address != email || addr.Name != "" {
		return fmt.Errorf("invalid email format")
	}
	at := strings.LastIndex(email, "@")
	if at <= 0 || !strings.Contains(email[at+1:], ".") || strings.HasSuffix(email, ".") {
		return fmt.Errorf("invalid email format")
	}
	return nil
}

func ValidateName(name string) error {
	if strings.TrimSpace(name) == "" {
		return fmt.Errorf("name is required")
	}
	return nil
}

func ValidateAge(age int) error {
	if age < 0 {
		return fmt.Errorf("age must be a positive number")
	}
	return nil
}

// FlexString decodes a JSON string, number or boolean into its string form.
// `42` becomes "42", `true` becomes "true" and `null` becomes "". Objects and
// arrays are rejected.
type FlexString string

func (f *FlexString) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 {
		return fmt.Errorf("empty value")
	}
	switch data[0] {
	case '"':
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*f = FlexString(s)
	case 'n':
		if string(data) != "null" {
			return fmt.Errorf("invalid value %s", data)
		}
		*f = ""
	case 't', 'f':
		var b bool
		if err := json.Unmarshal(data, &b); err != nil {
			return err
		}
		*f = FlexString(fmt.Sprint(b))
	case '{', '[':
		return fmt.Errorf("must be a string")
	default:
		var n json.Number
		if err := json.Unmarshal(data, &n); err != nil {
			return err
		}
		*f = FlexString(n.String())
	}
	return nil
}

func (f FlexString) String() string {
	return string(f)
}
