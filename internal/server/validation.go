package server

import (
	"errors"
	"fmt"
	"strings"
	"sync"
	"unicode/utf8"

	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
)

const (
	maxCaptionLength  = 280
	maxNicknameLength = 20
	maxRoundIDLength  = 64
	maxImageURLLength = 2048
)

var validatorOnce sync.Once

func registerValidators() {
	validatorOnce.Do(func() {
		engine, ok := binding.Validator.Engine().(*validator.Validate)
		if !ok {
			return
		}
		_ = engine.RegisterValidation("caption", func(fl validator.FieldLevel) bool {
			return validateCaption(fl.Field().String()) == nil
		})
		_ = engine.RegisterValidation("nickname", func(fl validator.FieldLevel) bool {
			return validateNickname(fl.Field().String()) == nil
		})
		_ = engine.RegisterValidation("category", func(fl validator.FieldLevel) bool {
			return validateCategory(fl.Field().String()) == nil
		})
		_ = engine.RegisterValidation("imageurl", func(fl validator.FieldLevel) bool {
			return validateImageURL(fl.Field().String()) == nil
		})
		_ = engine.RegisterValidation("roundid", func(fl validator.FieldLevel) bool {
			return validateRoundID(fl.Field().String()) == nil
		})
		_ = engine.RegisterValidation("address", func(fl validator.FieldLevel) bool {
			return validateAddress(fl.Field().String()) == nil
		})
	})
}

// validateCaption limits length in characters, not bytes, so multibyte
// captions are not short-changed.
// bindErrorMessage recovers the precise message for a failed custom
// binding tag. Required-field and malformed-JSON failures keep the
// caller's fallback text.
func bindErrorMessage(err error, fallback string) string {
	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		return fallback
	}
	for _, fieldErr := range fieldErrs {
		value, ok := fieldErr.Value().(string)
		if !ok {
			continue
		}
		var verr error
		switch fieldErr.Tag() {
		case "caption":
			verr = validateCaption(value)
		case "nickname":
			verr = validateNickname(value)
		case "category":
			verr = validateCategory(value)
		case "imageurl":
			verr = validateImageURL(value)
		case "roundid":
			verr = validateRoundID(value)
		case "address":
			verr = validateAddress(value)
		default:
			continue
		}
		if verr != nil {
			return verr.Error()
		}
	}
	return fallback
}

func validateCaption(text string) error {
	if len(text) == 0 {
		return errors.New("caption cannot be empty")
	}
	if utf8.RuneCountInString(text) > maxCaptionLength {
		return fmt.Errorf("caption too long: max %d characters", maxCaptionLength)
	}
	return nil
}

func validateNickname(name string) error {
	if len(name) == 0 {
		return errors.New("nickname cannot be empty")
	}
	if len(name) > maxNicknameLength {
		return fmt.Errorf("nickname too long: max %d characters", maxNicknameLength)
	}
	for _, r := range name {
		switch {
		case r >= 'a' && r <= 'z':
		case r >= 'A' && r <= 'Z':
		case r >= '0' && r <= '9':
		case r == '_':
		default:
			return errors.New("nickname can only contain letters, numbers, and underscores")
		}
	}
	return nil
}

func validateCategory(category string) error {
	for _, valid := range validCategories {
		if category == valid {
			return nil
		}
	}
	return fmt.Errorf("invalid category: must be one of %s", strings.Join(validCategories, ", "))
}

func validateImageURL(url string) error {
	if !strings.HasPrefix(url, "https://") {
		return errors.New("invalid image URL: must be HTTPS")
	}
	if len(url) > maxImageURLLength {
		return fmt.Errorf("image URL too long: max %d characters", maxImageURLLength)
	}
	return nil
}

func validateRoundID(id string) error {
	if strings.TrimSpace(id) == "" {
		return errors.New("round id is required")
	}
	if len(id) > maxRoundIDLength {
		return fmt.Errorf("round id too long: max %d characters", maxRoundIDLength)
	}
	return nil
}

// validateAddress accepts 0x-prefixed 20-byte hex addresses.
func validateAddress(address string) error {
	if len(address) != 42 || !strings.HasPrefix(address, "0x") {
		return errors.New("address must be a 0x-prefixed 40-hex-digit string")
	}
	for _, r := range address[2:] {
		switch {
		case r >= '0' && r <= '9':
		case r >= 'a' && r <= 'f':
		case r >= 'A' && r <= 'F':
		default:
			return errors.New("address must be a 0x-prefixed 40-hex-digit string")
		}
	}
	return nil
}
