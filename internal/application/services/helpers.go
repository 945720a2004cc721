package services

import (
	"strings"

	"github.com/DanielPopoola/epay-reconciler/internal/application"
	"github.com/DanielPopoola/epay-reconciler/internal/domain"
)

func errMissing(field string) error {
	return domain.NewMissingRequiredFieldError(field)
}

func requireNonEmpty(value, field string) error {
	if strings.TrimSpace(value) == "" {
		return application.NewInvalidArgumentError(errMissing(field))
	}
	return nil
}

// numberFree turns a store existence check into a uniqueness oracle.
func numberFree(exists func(string) (bool, error)) domain.UniquenessOracle {
	return func(number string) (bool, error) {
		taken, err := exists(number)
		if err != nil {
			return false, err
		}
		return !taken, nil
	}
}
