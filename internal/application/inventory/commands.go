package inventory

import (
	"errors"
	"reflect"
	"strings"
	"sync"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/mystock/warehouse/internal/domain/catalog"
	"github.com/mystock/warehouse/internal/domain/ledger"
	"github.com/mystock/warehouse/internal/domain/shared"
	"github.com/shopspring/decimal"
)

// AddProductCommand creates a product with an initial stock level
type AddProductCommand struct {
	Name         string          `json:"name" validate:"required,max=200"`
	Category     string          `json:"category" validate:"required,max=100"`
	UnitPrice    decimal.Decimal `json:"unit_price"`
	InitialStock int64           `json:"initial_stock" validate:"gte=0"`
}

// StockMovementCommand receives or issues stock for one product
type StockMovementCommand struct {
	ProductID uuid.UUID `json:"product_id"`
	Quantity  int64     `json:"quantity" validate:"gt=0"`
	Reason    string    `json:"reason" validate:"max=255"`
}

// AuditCommand records the physical count of one product
type AuditCommand struct {
	ProductID    uuid.UUID `json:"product_id"`
	CountedStock int64     `json:"counted_stock" validate:"gte=0"`
}

// MovementResult is the outcome of a committed receipt or issue
type MovementResult struct {
	Product     catalog.Product    `json:"product"`
	Transaction ledger.Transaction `json:"transaction"`
}

var (
	validate     *validator.Validate
	validateOnce sync.Once
)

func commandValidator() *validator.Validate {
	validateOnce.Do(func() {
		validate = validator.New(validator.WithRequiredStructEnabled())
		validate.RegisterTagNameFunc(func(fld reflect.StructField) string {
			name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
			if name == "-" {
				return ""
			}
			return name
		})
	})
	return validate
}

// validateCommand runs the struct tags of a command and maps failures to a ValidationError
func validateCommand(cmd any) error {
	err := commandValidator().Struct(cmd)
	if err == nil {
		return nil
	}
	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) || len(fieldErrs) == 0 {
		return shared.NewValidationError("%s", err.Error())
	}
	msgs := make([]string, 0, len(fieldErrs))
	for _, fe := range fieldErrs {
		msgs = append(msgs, fe.Field()+" "+fieldMessage(fe))
	}
	return shared.NewValidationError("%s", strings.Join(msgs, "; "))
}

func fieldMessage(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "is required"
	case "gt":
		return "must be greater than " + fe.Param()
	case "gte":
		return "must be greater than or equal to " + fe.Param()
	case "max":
		return "must be at most " + fe.Param() + " characters"
	default:
		return "is invalid"
	}
}
