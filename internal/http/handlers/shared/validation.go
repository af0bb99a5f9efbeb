package shared

import (
	"regexp"
	"sync"

	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
)

var (
	last5DigitsPattern = regexp.MustCompile(`^[0-9]{5}$`)
	registerOnce       sync.Once
	registerErr        error
)

// RegisterValidators 注册自定义绑定规则（last5digits：帐号后五码）
func RegisterValidators() error {
	registerOnce.Do(func() {
		engine, ok := binding.Validator.Engine().(*validator.Validate)
		if !ok {
			return
		}
		registerErr = engine.RegisterValidation("last5digits", func(fl validator.FieldLevel) bool {
			return last5DigitsPattern.MatchString(fl.Field().String())
		})
	})
	return registerErr
}
