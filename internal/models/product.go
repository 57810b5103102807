package models

// Product is a sellable item in a tenant's inventory
type Product struct {
	ID          int64   `json:"id" db:"id"`
	TenantID    int64   `json:"tenant_id" db:"tenant_id"`
	Name        string  `json:"name" db:"name"`
	Price       float64 `json:"price" db:"price"`
	Stock       int     `json:"stock" db:"stock"` // goes negative when oversold
	IsAvailable bool    `json:"isAvailable" db:"isAvailable"`
	Image       *string `json:"image" db:"image"`
}

// ProductInput holds the mutable fields of a product
type ProductInput struct {
	Name        string  `json:"name" validate:"required,max=255"`
	Price       float64 `json:"price" validate:"gte=0"`
	Stock       int     `json:"stock" validate:"gte=0"`
	IsAvailable bool    `json:"isAvailable"`
	Image       *string `json:"image" validate:"omitempty,max=2048"`
}

// Validate checks the input and returns an ErrValidation-wrapped error
func (p ProductInput) Validate() error {
	return validateStruct(p)
}
