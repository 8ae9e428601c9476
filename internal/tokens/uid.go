package tokens

import (
	"encoding/base64"
	"errors"
	"strconv"
	"strings"
)

var ErrInvalidUID = errors.New("invalid user key")

// EncodeUID renders a user id as the unpadded base64url of its decimal form.
func EncodeUID(id uint) string {
	return base64.RawURLEncoding.EncodeToString([]byte(strconv.FormatUint(uint64(id), 10)))
}

// DecodeUID reverses EncodeUID. Padding is tolerated. Anything that does not
// decode to a decimal integer that fits a signed 64-bit column is rejected.
func DecodeUID(key string) (uint, error) {
	raw, err := base64.RawURLEncoding.DecodeString(strings.TrimRight(key, "="))
	if err != nil {
		return 0, ErrInvalidUID
	}
	n, err := strconv.ParseUint(string(raw), 10, 63)
	if err != nil {
		return 0, ErrInvalidUID
	}
	if uint64(uint(n)) != n {
		return 0, ErrInvalidUID
	}
	return uint(n), nil
}
