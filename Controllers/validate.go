package Controllers

import (
	"errors"

	"github.com/go-playground/locales/en"
	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	en_translations "github.com/go-playground/validator/v10/translations/en"
	"github.com/gofiber/fiber/v2"

	"FuelDesk/Ledger"
)

var (
	validate *validator.Validate
	trans    ut.Translator
)

func init() {
	validate = validator.New()
	enLocale := en.New()
	uni := ut.New(enLocale, enLocale)
	trans, _ = uni.GetTranslator("en")
	en_translations.RegisterDefaultTranslations(validate, trans)
}

// validationMessages translates validator errors into user-facing strings.
func validationMessages(err error) []string {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return []string{err.Error()}
	}
	messages := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		messages = append(messages, fe.Translate(trans))
	}
	return messages
}

// ledgerError maps the typed business-rule rejections to 400 responses with
// available-vs-required amounts; anything else is a 500 for the caller to
// wrap.
func ledgerError(c *fiber.Ctx, err error) (bool, error) {
	var insufficient *Ledger.InsufficientFundsError
	if errors.As(err, &insufficient) {
		return true, c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error":     "Insufficient funds",
			"message":   insufficient.Error(),
			"available": insufficient.Available,
			"required":  insufficient.Required,
		})
	}
	var limit *Ledger.CreditLimitExceededError
	if errors.As(err, &limit) {
		return true, c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error":     "Credit limit exceeded",
			"message":   limit.Error(),
			"depo_id":   limit.DepoID,
			"available": limit.Available,
			"required":  limit.Required,
		})
	}
	var quantity *Ledger.QuantityExceededError
	if errors.As(err, &quantity) {
		return true, c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error":     "Quantity exceeded",
			"message":   quantity.Error(),
			"remaining": quantity.Remaining,
			"requested": quantity.Requested,
		})
	}
	return false, nil
}
