package service

import (
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"

	"familytree_go/internal/model"
)

var validate = validator.New()

// Validator 数据验证服务
type Validator struct {
	errors []string
}

// NewValidator 创建验证器实例
func NewValidator() *Validator {
	return &Validator{
		errors: make([]string, 0),
	}
}

// Validate 执行验证并返回错误
func (v *Validator) Validate() error {
	if len(v.errors) > 0 {
		return ValidationError(strings.Join(v.errors, "; "))
	}
	return nil
}

// Check 条件不成立时记录错误
func (v *Validator) Check(ok bool, message string) *Validator {
	if !ok {
		v.errors = append(v.errors, message)
	}
	return v
}

// Required 必填字段验证
func (v *Validator) Required(value string, fieldName string) *Validator {
	if validate.Var(strings.TrimSpace(value), "required") != nil {
		v.errors = append(v.errors, fmt.Sprintf("%s is required", fieldName))
	}
	return v
}

// RequiredID 必填ID验证
func (v *Validator) RequiredID(value uint, fieldName string) *Validator {
	if validate.Var(value, "required") != nil {
		v.errors = append(v.errors, fmt.Sprintf("%s is required", fieldName))
	}
	return v
}

// Date 日期格式验证，空值跳过
func (v *Validator) Date(value *string, fieldName string) *Validator {
	if value == nil || *value == "" {
		return v
	}
	if validate.Var(*value, "datetime=2006-01-02") != nil {
		v.errors = append(v.errors, fmt.Sprintf("%s must be a valid date (YYYY-MM-DD)", fieldName))
	}
	return v
}

// Email 邮箱格式验证，空值跳过
func (v *Validator) Email(value *string, fieldName string) *Validator {
	if value == nil || *value == "" {
		return v
	}
	if validate.Var(*value, "email") != nil {
		v.errors = append(v.errors, fmt.Sprintf("%s must be a valid email address", fieldName))
	}
	return v
}

// Gender 性别验证，允许为空
func (v *Validator) Gender(value model.Gender, fieldName string) *Validator {
	if validate.Var(string(value), "omitempty,oneof=male female other") != nil {
		v.errors = append(v.errors, fmt.Sprintf("%s must be one of male, female, other", fieldName))
	}
	return v
}

// Generation 世代验证
func (v *Validator) Generation(value int, fieldName string) *Validator {
	if validate.Var(value, "gte=1") != nil {
		v.errors = append(v.errors, fmt.Sprintf("%s must be at least 1", fieldName))
	}
	return v
}

// RelationshipType 关系类型验证
func (v *Validator) RelationshipType(value model.RelationshipType, fieldName string) *Validator {
	if !value.Valid() {
		v.errors = append(v.errors, fmt.Sprintf("%s must be one of parent, child, spouse, sibling", fieldName))
	}
	return v
}

// FileSize 文件大小验证
func (v *Validator) FileSize(size int64, fieldName string, maxSize int64) *Validator {
	if size > maxSize {
		v.errors = append(v.errors, fmt.Sprintf("%s must be smaller than %d bytes", fieldName, maxSize))
	}
	return v
}
