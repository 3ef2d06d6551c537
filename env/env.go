package env

import (
	"context"
	"sync"

	"github.com/go-playground/validator/v10"
	"github.com/peergram/go-suggest/service/logger"
	"github.com/spf13/viper"
)

var validators = map[string][]string{}

var v = validator.New()

var validatorsMu = &sync.Mutex{}

// RegisterValidation associates validation tags with an env var so that reads
// of the var can be checked against them.
func RegisterValidation(name string, tags ...string) {
	validatorsMu.Lock()
	defer validatorsMu.Unlock()
	validators[name] = append(validators[name], tags...)
}

func Get[T any](ctx context.Context, name string) T {
	runValidations(ctx, name)

	if !viper.IsSet(name) {
		return *new(T)
	}

	it, ok := viper.Get(name).(T)
	if !ok {
		logger.For(ctx).Errorf("invalid env var: %s, expected type: %T", name, it)
		return *new(T)
	}

	return it
}

func GetString(ctx context.Context, name string) string {
	runValidations(ctx, name)
	return viper.GetString(name)
}

func GetInt(ctx context.Context, name string) int {
	runValidations(ctx, name)
	return viper.GetInt(name)
}

func GetBool(ctx context.Context, name string) bool {
	runValidations(ctx, name)
	return viper.GetBool(name)
}

func runValidations(ctx context.Context, name string) {
	validatorsMu.Lock()
	defer validatorsMu.Unlock()
	for _, tag := range validators[name] {
		if err := v.Var(viper.Get(name), tag); err != nil {
			logger.For(ctx).Errorf("invalid env var: %s, tag: %s, err: %s", name, tag, err.Error())
		}
	}
}
