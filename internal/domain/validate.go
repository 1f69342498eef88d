package domain

import (
	"fmt"
	"sync"

	"github.com/go-playground/validator/v10"
)

var (
	validateOnce sync.Once
	validate     *validator.Validate
)

func entryValidator() *validator.Validate {
	validateOnce.Do(func() {
		validate = validator.New(validator.WithRequiredStructEnabled())
	})
	return validate
}

// Validate checks the structural constraints of a stored entry
func (e Entry) Validate() error {
	if err := entryValidator().Struct(e); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidEntry, err)
	}
	if e.VodProvider != "" {
		if _, ok := ParseVodProvider(string(e.VodProvider)); !ok {
			return fmt.Errorf("%w: unknown vod provider %q", ErrInvalidEntry, e.VodProvider)
		}
	}
	return nil
}
